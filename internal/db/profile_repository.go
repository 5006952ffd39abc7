package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"vyap-onboarding-go/internal/models"
)

const usersCollection = "users"

// ErrNotFound is returned (wrapped) when a document does not exist.
var ErrNotFound = errors.New("document not found")

// firestoreProfileRepository implements ProfileRepository using Firestore.
type firestoreProfileRepository struct {
	client *firestore.Client
	now    func() time.Time
}

// NewFirestoreProfileRepository creates a new instance of firestoreProfileRepository.
func NewFirestoreProfileRepository(client *firestore.Client) ProfileRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for ProfileRepository.")
	}
	return &firestoreProfileRepository{client: client, now: time.Now}
}

func (r *firestoreProfileRepository) doc(userID string) *firestore.DocumentRef {
	return r.client.Collection(usersCollection).Doc(userID)
}

// EnsureExists creates the user document with an incomplete onboarding sub-object.
// The user ID (Firebase Auth UID) is the document ID. An existing document is left as is.
func (r *firestoreProfileRepository) EnsureExists(ctx context.Context, userID string, seed models.ProfileSeed) error {
	if userID == "" {
		return errors.New("userID cannot be empty for EnsureExists operation")
	}
	data := map[string]interface{}{
		"onboarding": map[string]interface{}{"complete": false},
		"createdAt":  firestore.ServerTimestamp,
		"updatedAt":  firestore.ServerTimestamp,
	}
	if seed.DisplayName != "" {
		data["displayName"] = seed.DisplayName
	}
	if seed.Email != "" {
		data["email"] = seed.Email
	}

	_, err := r.doc(userID).Create(ctx, data)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil
		}
		return fmt.Errorf("failed to create profile for user '%s': %w", userID, err)
	}
	return nil
}

// FetchProfile retrieves a user document by user ID.
func (r *firestoreProfileRepository) FetchProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for FetchProfile operation")
	}
	snap, err := r.doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("profile for user '%s' not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile for user '%s': %w", userID, err)
	}

	var profile models.UserProfile
	if err := snap.DataTo(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile for user '%s': %w", userID, err)
	}
	profile.ID = snap.Ref.ID
	return &profile, nil
}

// GetOnboardingStatus reads only `onboarding.complete`. Missing documents and missing
// fields read as incomplete.
func (r *firestoreProfileRepository) GetOnboardingStatus(ctx context.Context, userID string) (models.OnboardingStatus, error) {
	snap, err := r.doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return models.OnboardingStatus{}, nil
		}
		return models.OnboardingStatus{}, fmt.Errorf("failed to read onboarding status for user '%s': %w", userID, err)
	}
	v, err := snap.DataAt("onboarding.complete")
	if err != nil {
		return models.OnboardingStatus{}, nil
	}
	complete, _ := v.(bool)
	return models.OnboardingStatus{Complete: complete}, nil
}

// UpdateProfile applies a field-path update. Only the paths named by the patch are
// written; `onboarding.complete` is written only to re-assert true.
func (r *firestoreProfileRepository) UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) error {
	var updates []firestore.Update
	if patch.DisplayName != nil {
		updates = append(updates, firestore.Update{Path: "displayName", Value: *patch.DisplayName})
	}
	if patch.Answers != nil {
		fields := patch.Answers.AnswerUpdates()
		paths := make([]string, 0, len(fields))
		for p := range fields {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			updates = append(updates, firestore.Update{Path: p, Value: fields[p]})
		}
	}
	if patch.MarkComplete {
		updates = append(updates, firestore.Update{Path: "onboarding.complete", Value: true})
	}
	if len(updates) == 0 {
		return nil
	}
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: firestore.ServerTimestamp})

	if _, err := r.doc(userID).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("profile for user '%s' not found: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to update profile for user '%s': %w", userID, err)
	}
	return nil
}

// SaveOnboarding replaces the whole `onboarding` sub-object. Writing a whole value makes
// a retried save land on the same document as a single successful one.
func (r *firestoreProfileRepository) SaveOnboarding(ctx context.Context, userID string, answers models.OnboardingAnswers, opts SaveOnboardingOptions) error {
	onboarding := models.NewOnboarding(answers, opts.Complete)
	if opts.Complete {
		completedAt := r.now().UTC()
		onboarding.CompletedAt = &completedAt
	}
	data := map[string]interface{}{
		"onboarding": onboarding,
		"updatedAt":  firestore.ServerTimestamp,
	}
	_, err := r.doc(userID).Set(ctx, data, firestore.Merge([]string{"onboarding"}, []string{"updatedAt"}))
	if err != nil {
		return fmt.Errorf("failed to save onboarding for user '%s': %w", userID, err)
	}
	return nil
}
