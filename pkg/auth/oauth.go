package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/harrisonrobin/taskboard/pkg/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

const (
	// ClientSecretsFile is the Google API credentials.json downloaded from the
	// Cloud Console, placed in ~/.config/taskboard.
	ClientSecretsFile = "credentials.json"

	// TokenFile holds the access and refresh token obtained at sign-in.
	TokenFile = "token.json"

	// LocalhostAuthPort is where the local server waits for the OAuth redirect.
	LocalhostAuthPort = "6789"

	authTimeout = 5 * time.Minute
)

// Scopes covers calendar block sync and the userinfo lookup done at sign-in.
var Scopes = []string{
	calendar.CalendarEventsScope,
	calendar.CalendarReadonlyScope,
	oauth2api.OpenIDScope,
	oauth2api.UserinfoEmailScope,
}

// GetConfig creates an oauth2.Config from the client secrets file and specified scopes.
func GetConfig(scopes []string) (*oauth2.Config, error) {
	dir, err := config.GetDir()
	if err != nil {
		return nil, err
	}

	clientSecretsFile := filepath.Join(dir, ClientSecretsFile)
	b, err := os.ReadFile(clientSecretsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", clientSecretsFile, err)
	}

	cfg, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	cfg.RedirectURL = redirectURL(cfg.RedirectURL)
	return cfg, nil
}

// redirectURL pins localhost and out-of-band redirects to LocalhostAuthPort so
// they match the listener started by getTokenFromWeb.
func redirectURL(raw string) string {
	if raw == "urn:ietf:wg:oauth:2.0:oob" {
		u := fmt.Sprintf("http://localhost:%s/oauth2callback", LocalhostAuthPort)
		log.Printf("Overriding out-of-band RedirectURL to: %s", u)
		return u
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		log.Printf("Warning: Could not parse RedirectURL '%s': %v. Using it as is.", raw, err)
		return raw
	}
	if parsed.Hostname() != "localhost" && parsed.Hostname() != "127.0.0.1" {
		log.Printf("Warning: RedirectURL in credentials.json is not a localhost callback: %s", raw)
		return raw
	}
	if port := parsed.Port(); port != "" && port != LocalhostAuthPort {
		log.Printf("Warning: credentials.json redirects to port %s, forcing %s", port, LocalhostAuthPort)
	}
	parsed.Host = net.JoinHostPort(parsed.Hostname(), LocalhostAuthPort)
	return parsed.String()
}

// GetClient returns an authenticated *http.Client built from the saved
// token. Without a token it starts the web authorization flow.
func GetClient(ctx context.Context, scopes []string) (*http.Client, error) {
	cfg, err := GetConfig(scopes)
	if err != nil {
		return nil, err
	}
	tokenFile, err := tokenPath()
	if err != nil {
		return nil, err
	}

	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		log.Printf("No existing token found at %s. Initiating web authorization flow...", tokenFile)
		tok, err = getTokenFromWeb(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to get token from web: %w", err)
		}
		if err := saveToken(tokenFile, tok); err != nil {
			return nil, err
		}
	}

	// Re-save the token if the source refreshed it.
	src := cfg.TokenSource(ctx, tok)
	if current, err := src.Token(); err != nil {
		log.Printf("Warning: Could not refresh token: %v", err)
	} else if current.AccessToken != tok.AccessToken || current.RefreshToken != tok.RefreshToken {
		if err := saveToken(tokenFile, current); err != nil {
			log.Printf("Warning: %v", err)
		}
	}
	return oauth2.NewClient(ctx, src), nil
}

// getTokenFromWeb runs the authorization code flow through a local web server.
func getTokenFromWeb(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", LocalhostAuthPort))
	if err != nil {
		return nil, fmt.Errorf("failed to start listener on port %s: %w", LocalhostAuthPort, err)
	}
	defer listener.Close()

	state := fmt.Sprintf("taskboard-%d", time.Now().UnixNano())
	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("state") != state {
				http.Error(w, "State mismatch", http.StatusBadRequest)
				return
			}
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "Authorization code not found", http.StatusBadRequest)
				select {
				case errCh <- fmt.Errorf("authorization code not found in redirect URL"):
				default:
				}
				return
			}
			fmt.Fprintf(w, "Signed in to taskboard. You can close this window.")
			select {
			case codeCh <- code:
			default:
			}
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
	defer server.Shutdown(context.Background())

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			select {
			case errCh <- fmt.Errorf("HTTP server error: %w", err):
			default:
			}
		}
	}()

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Printf("Please open the following URL in your browser to sign in to taskboard:\n%s\n", authURL)
	log.Println("Waiting for authorization code...")

	select {
	case code := <-codeCh:
		exchangeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		tok, err := cfg.Exchange(exchangeCtx, code)
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve token from Google: %w", err)
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(authTimeout):
		return nil, fmt.Errorf("authorization timed out. Please try again")
	}
}

func tokenPath() (string, error) {
	dir, err := config.GetDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, TokenFile), nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token from file %s: %w", file, err)
	}
	return tok, nil
}

func saveToken(path string, token *oauth2.Token) error {
	return writeJSON(path, token)
}

// writeJSON writes v to path readable by the owner only.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to write %s: %w", path, err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(v); err != nil {
		return fmt.Errorf("unable to encode %s: %w", path, err)
	}
	return nil
}

// GetCalendarService creates an authenticated Google Calendar service.
func GetCalendarService(ctx context.Context) (*calendar.Service, error) {
	client, err := GetClient(ctx, Scopes)
	if err != nil {
		return nil, fmt.Errorf("failed to get authenticated client for Calendar API: %w", err)
	}
	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Google Calendar service: %w", err)
	}
	return srv, nil
}
