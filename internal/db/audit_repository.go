package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"flowproject-backend-go/internal/models"
)

type firestoreAuditRepository struct {
	client *firestore.Client
}

// NewFirestoreAuditRepository creates an AuditRepository writing to companies/{companyId}/auditLogs.
func NewFirestoreAuditRepository(client *firestore.Client) AuditRepository {
	return &firestoreAuditRepository{client: client}
}

func (r *firestoreAuditRepository) Create(ctx context.Context, companyID string, logEntry models.AuditLog) error {
	col := companyCollection(r.client, companyID, auditLogsCollection)
	var docRef *firestore.DocumentRef
	if logEntry.ID != "" {
		docRef = col.Doc(logEntry.ID)
	} else {
		docRef = col.NewDoc()
	}
	if _, err := docRef.Create(ctx, logEntry); err != nil {
		return fmt.Errorf("failed to create audit log in company '%s': %w", companyID, err)
	}
	return nil
}
