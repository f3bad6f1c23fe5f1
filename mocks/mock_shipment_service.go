package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"shipdocs/internal/domain"
	"shipdocs/internal/port"
	"shipdocs/internal/service"
)

// MockShipmentService is a mock implementation of service.ShipmentService.
type MockShipmentService struct {
	mock.Mock
}

func (m *MockShipmentService) ProcessDocuments(ctx context.Context, req *service.ProcessRequest) (*service.ProcessOutput, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProcessOutput), args.Error(1)
}

func (m *MockShipmentService) GetRecord(ctx context.Context, id string) (*port.StoredRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.StoredRecord), args.Error(1)
}

func (m *MockShipmentService) ListRecords(ctx context.Context) ([]port.StoredRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.StoredRecord), args.Error(1)
}

func (m *MockShipmentService) UpdateRecord(ctx context.Context, id string, edited *domain.ShipmentRecord) (*port.StoredRecord, error) {
	args := m.Called(ctx, id, edited)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.StoredRecord), args.Error(1)
}

func (m *MockShipmentService) Reaggregate(record *domain.ShipmentRecord, sets []domain.FieldSet) {
	m.Called(record, sets)
}

func (m *MockShipmentService) DeleteRecord(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockShipmentService) GetRawDocument(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
