package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"vyap-onboarding-go/internal/models"
)

const auditLogsCollection = "audit_logs"

// firestoreAuditRepository implements AuditRepository using Firestore.
type firestoreAuditRepository struct {
	client *firestore.Client
}

// NewFirestoreAuditRepository creates a new instance of firestoreAuditRepository.
func NewFirestoreAuditRepository(client *firestore.Client) AuditRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for AuditRepository.")
	}
	return &firestoreAuditRepository{client: client}
}

// Create adds an audit entry with an auto-generated ID. Timestamp is set server-side.
func (r *firestoreAuditRepository) Create(ctx context.Context, logEntry models.AuditLog) error {
	if logEntry.UserID == "" {
		return errors.New("audit log entry requires a userId")
	}
	if _, _, err := r.client.Collection(auditLogsCollection).Add(ctx, logEntry); err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// ListByUser returns the newest entries for userID, newest first.
func (r *firestoreAuditRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.AuditLog, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for ListByUser operation")
	}
	query := r.client.Collection(auditLogsCollection).
		Where("userId", "==", userID).
		OrderBy("timestamp", firestore.Desc).
		Limit(limit)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var entries []*models.AuditLog
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate audit logs for user '%s': %w", userID, err)
		}
		var entry models.AuditLog
		if err := snap.DataTo(&entry); err != nil {
			return nil, fmt.Errorf("failed to decode audit log '%s': %w", snap.Ref.ID, err)
		}
		entry.ID = snap.Ref.ID
		entries = append(entries, &entry)
	}
	return entries, nil
}
