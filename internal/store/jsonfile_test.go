package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipdocs/internal/domain"
	"shipdocs/internal/port"
	"shipdocs/internal/store"
)

func strPtr(s string) *string { return &s }

func newStore(t *testing.T) (*store.JSONFileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.json")
	s, err := store.NewJSONFileStore(path)
	require.NoError(t, err)
	return s, path
}

func sampleRecord(bol string, keys ...string) *port.StoredRecord {
	return &port.StoredRecord{
		Record: domain.ShipmentRecord{
			BillOfLadingNumber: strPtr(bol),
		},
		DocumentKeys: keys,
	}
}

func TestSaveAssignsIDAndPersists(t *testing.T) {
	s, path := newStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, sampleRecord("ZMLU34110002", "key-1"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// A fresh store over the same file sees the record.
	reopened, err := store.NewJSONFileStore(path)
	require.NoError(t, err)

	got, err := reopened.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.Record.ID)
	require.NotNil(t, got.Record.BillOfLadingNumber)
	assert.Equal(t, "ZMLU34110002", *got.Record.BillOfLadingNumber)
	assert.Equal(t, []string{"key-1"}, got.DocumentKeys)
	assert.False(t, got.Record.CreatedAt.IsZero())
}

func TestSaveWithIDReplacesAndKeepsCreatedAt(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, sampleRecord("FIRST"))
	require.NoError(t, err)

	original, err := s.Get(ctx, id)
	require.NoError(t, err)

	updated := sampleRecord("SECOND")
	updated.Record.ID = id
	savedID, err := s.Save(ctx, updated)
	require.NoError(t, err)
	assert.Equal(t, id, savedID)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "SECOND", *got.Record.BillOfLadingNumber)
	assert.Equal(t, original.Record.CreatedAt, got.Record.CreatedAt)

	records, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestGetMissingIsNotFound(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.Get(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, sampleRecord("ZMLU34110002"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, id))

	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, id), domain.ErrNotFound)
}

func TestListOrderedByCreation(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	idA, err := s.Save(ctx, sampleRecord("A"))
	require.NoError(t, err)
	idB, err := s.Save(ctx, sampleRecord("B"))
	require.NoError(t, err)

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	got := []string{records[0].Record.ID, records[1].Record.ID}
	assert.Contains(t, got, idA)
	assert.Contains(t, got, idB)
	assert.False(t, records[0].Record.CreatedAt.After(records[1].Record.CreatedAt))
}

func TestFindByDocumentKeys(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, sampleRecord("ZMLU34110002", "key-1", "key-2"))
	require.NoError(t, err)
	_, err = s.Save(ctx, sampleRecord("OTHER", "key-9"))
	require.NoError(t, err)

	// Overlap on any key matches.
	found, err := s.FindByDocumentKeys(ctx, []string{"key-2", "unrelated"})
	require.NoError(t, err)
	assert.Equal(t, id, found)

	found, err = s.FindByDocumentKeys(ctx, []string{"nope"})
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = s.FindByDocumentKeys(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s, err := store.NewJSONFileStore(path)
	require.NoError(t, err)

	records, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}
