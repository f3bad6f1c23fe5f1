package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"shipdocs/internal/port"
)

// MockRecordStore is a mock implementation of port.RecordStore.
type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) Save(ctx context.Context, rec *port.StoredRecord) (string, error) {
	args := m.Called(ctx, rec)
	return args.String(0), args.Error(1)
}

func (m *MockRecordStore) Get(ctx context.Context, id string) (*port.StoredRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.StoredRecord), args.Error(1)
}

func (m *MockRecordStore) List(ctx context.Context) ([]port.StoredRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.StoredRecord), args.Error(1)
}

func (m *MockRecordStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRecordStore) FindByDocumentKeys(ctx context.Context, keys []string) (string, error) {
	args := m.Called(ctx, keys)
	return args.String(0), args.Error(1)
}
