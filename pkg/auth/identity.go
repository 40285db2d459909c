package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrisonrobin/taskboard/pkg/config"
	"github.com/harrisonrobin/taskboard/pkg/model"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// IdentityFile caches the signed-in Google account so commands can pick the
// task bucket without a network round trip.
const IdentityFile = "identity.json"

type identityRecord struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}

// Login signs in through the browser, saves the token and records the
// Google user id of the account.
func Login(ctx context.Context) (model.Identity, string, error) {
	cfg, err := GetConfig(Scopes)
	if err != nil {
		return model.Anonymous, "", err
	}
	tok, err := getTokenFromWeb(ctx, cfg)
	if err != nil {
		return model.Anonymous, "", fmt.Errorf("failed to get token from web: %w", err)
	}
	tokenFile, err := tokenPath()
	if err != nil {
		return model.Anonymous, "", err
	}
	if err := saveToken(tokenFile, tok); err != nil {
		return model.Anonymous, "", err
	}

	svc, err := oauth2api.NewService(ctx, option.WithTokenSource(cfg.TokenSource(ctx, tok)))
	if err != nil {
		return model.Anonymous, "", fmt.Errorf("unable to create userinfo service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return model.Anonymous, "", fmt.Errorf("unable to fetch user info: %w", err)
	}
	if strings.TrimSpace(info.Id) == "" {
		return model.Anonymous, "", errors.New("user info has no account id")
	}

	dir, err := config.GetDir()
	if err != nil {
		return model.Anonymous, "", err
	}
	rec := identityRecord{UserID: info.Id, Email: info.Email}
	if err := writeJSON(filepath.Join(dir, IdentityFile), rec); err != nil {
		return model.Anonymous, "", err
	}
	return model.Identity{SignedIn: true, UserID: rec.UserID}, rec.Email, nil
}

// Current reports the cached identity. It is anonymous unless both the token
// and the identity file are present and readable.
func Current() model.Identity {
	dir, err := config.GetDir()
	if err != nil {
		return model.Anonymous
	}
	return currentIn(dir)
}

func currentIn(dir string) model.Identity {
	if _, err := os.Stat(filepath.Join(dir, TokenFile)); err != nil {
		return model.Anonymous
	}
	b, err := os.ReadFile(filepath.Join(dir, IdentityFile))
	if err != nil {
		return model.Anonymous
	}
	var rec identityRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		log.Printf("Warning: ignoring unreadable %s: %v", IdentityFile, err)
		return model.Anonymous
	}
	if strings.TrimSpace(rec.UserID) == "" {
		return model.Anonymous
	}
	return model.Identity{SignedIn: true, UserID: rec.UserID}
}

// Logout forgets the token and the cached identity. Missing files are fine.
func Logout() error {
	dir, err := config.GetDir()
	if err != nil {
		return err
	}
	for _, name := range []string{TokenFile, IdentityFile} {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}
	return nil
}
