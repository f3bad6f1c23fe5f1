package port

import (
	"context"

	"shipdocs/internal/domain"
)

// StoredRecord wraps a ShipmentRecord with the bookkeeping the store owns.
type StoredRecord struct {
	Record       domain.ShipmentRecord   `json:"record"`
	Reports      []domain.DocumentReport `json:"documents,omitempty"`
	DocumentKeys []string                `json:"document_keys,omitempty"`
}

// RecordStore persists processed shipment records.
type RecordStore interface {
	Save(ctx context.Context, rec *StoredRecord) (string, error)
	Get(ctx context.Context, id string) (*StoredRecord, error)
	List(ctx context.Context) ([]StoredRecord, error)
	Delete(ctx context.Context, id string) error
	// FindByDocumentKeys returns the ID of a record whose source documents
	// overlap the given storage keys, or "" when none matches. Used to update
	// rather than duplicate a record when the same upload batch is reprocessed.
	FindByDocumentKeys(ctx context.Context, keys []string) (string, error)
}
