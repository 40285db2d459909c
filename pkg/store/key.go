package store

import (
	"strings"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

const (
	keyPrefix    = "taskboard:tasks:"
	anonymousKey = keyPrefix + "anonymous"
)

// BucketKey maps an identity to the key-value slot holding its tasks.
// Signed-in users without an id fall back to the anonymous bucket.
func BucketKey(id model.Identity) string {
	return keyPrefix + Scope(id)
}

// Scope names the identity inside keys, so data kept next to the tasks
// (event index, colors) is partitioned the same way.
func Scope(id model.Identity) string {
	userID := strings.TrimSpace(id.UserID)
	if !id.SignedIn || userID == "" {
		return "anonymous"
	}
	return "user:" + userID
}
