package identity

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/v4/auth"
)

// ErrUserNotFound is returned when the identity provider has no such user.
var ErrUserNotFound = errors.New("identity user not found")

// UserInfo is what the rest of the service needs to know about an account.
type UserInfo struct {
	UID         string   `json:"uid"`
	Email       string   `json:"email,omitempty"`
	DisplayName string   `json:"displayName,omitempty"`
	Providers   []string `json:"providers"`
}

// Directory looks up accounts at the identity provider.
type Directory interface {
	LookupUser(ctx context.Context, uid string) (*UserInfo, error)
}

// UserGetter is the subset of *auth.Client used by FirebaseDirectory.
type UserGetter interface {
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
}

// FirebaseDirectory implements Directory over Firebase Auth.
type FirebaseDirectory struct {
	client UserGetter
}

// NewFirebaseDirectory wraps a Firebase Auth client.
func NewFirebaseDirectory(client UserGetter) *FirebaseDirectory {
	return &FirebaseDirectory{client: client}
}

// LookupUser returns the account with its linked provider ids, e.g. "google.com", "phone".
func (d *FirebaseDirectory) LookupUser(ctx context.Context, uid string) (*UserInfo, error) {
	rec, err := d.client.GetUser(ctx, uid)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, uid)
		}
		return nil, fmt.Errorf("firebase get user %s: %w", uid, err)
	}

	info := &UserInfo{UID: uid, Providers: make([]string, 0, len(rec.ProviderUserInfo))}
	if rec.UserInfo != nil {
		info.Email = rec.Email
		info.DisplayName = rec.DisplayName
	}
	for _, p := range rec.ProviderUserInfo {
		if p == nil || p.ProviderID == "" {
			continue
		}
		info.Providers = append(info.Providers, p.ProviderID)
	}
	return info, nil
}

// LinkedProviders lists the sign-in methods attached to uid.
func LinkedProviders(ctx context.Context, dir Directory, uid string) ([]string, error) {
	info, err := dir.LookupUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	return info.Providers, nil
}
