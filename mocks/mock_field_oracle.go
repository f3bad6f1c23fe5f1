package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"shipdocs/internal/domain"
	"shipdocs/internal/port"
)

// MockFieldOracle is a mock implementation of port.FieldOracle.
type MockFieldOracle struct {
	mock.Mock
}

func (m *MockFieldOracle) ExtractFields(ctx context.Context, prompt port.ExtractionPrompt) (domain.FieldSet, error) {
	args := m.Called(ctx, prompt)
	return args.Get(0).(domain.FieldSet), args.Error(1)
}
