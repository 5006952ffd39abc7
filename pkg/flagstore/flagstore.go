// Package flagstore holds small named flags that belong to one client device, such as
// the one-shot "pending onboarding" marker and the onboarding snooze expiry.
package flagstore

import (
	"context"
	"time"
)

// FlagStore defines get/set/clear on named string keys.
// A ttl of zero means the key does not expire on its own.
type FlagStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Clear(ctx context.Context, key string) error
}
