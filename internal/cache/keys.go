package cache

import (
	"fmt"
	"time"

	"videotube/internal/models"
)

const (
	contentRefKeyPrefix = "content:%s:%s"
	userKeyPrefix       = "user:%s"
)

// ContentRefTTL bounds how long a content identity is cached when no TTL is configured.
const ContentRefTTL = 5 * time.Minute

// ContentRefKey is the cache key of a content item's identity.
func ContentRefKey(kind models.ContentKind, id string) string {
	return fmt.Sprintf(contentRefKeyPrefix, kind, id)
}

// UserKey is the cache key of a user's existence record.
func UserKey(id string) string {
	return fmt.Sprintf(userKeyPrefix, id)
}
