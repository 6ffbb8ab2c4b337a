package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/OpenNSW/tradestats/internal/trade/model"
)

// MockReferenceSource is a mock implementation of ReferenceSource
type MockReferenceSource struct {
	mock.Mock
}

func (m *MockReferenceSource) ListCountries(ctx context.Context) ([]model.Country, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Country), args.Error(1)
}

func (m *MockReferenceSource) ListHSCodes(ctx context.Context) ([]model.HSCode, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.HSCode), args.Error(1)
}

func TestLoadReferences(t *testing.T) {
	ctx := context.Background()
	kenya := model.Country{BaseModel: model.BaseModel{ID: uuid.New()}, Name: "Kenya", Code: "KE"}
	kraft := model.HSCode{BaseModel: model.BaseModel{ID: uuid.New()}, Code: "4804.11.00"}
	blank := model.HSCode{BaseModel: model.BaseModel{ID: uuid.New()}, Code: "n/a"}

	src := new(MockReferenceSource)
	src.On("ListCountries", ctx).Return([]model.Country{kenya}, nil).Once()
	src.On("ListHSCodes", ctx).Return([]model.HSCode{kraft, blank}, nil).Once()

	refs, err := LoadReferences(ctx, src)
	require.NoError(t, err)

	id, ok := refs.HSCode("48041100")
	assert.True(t, ok)
	assert.Equal(t, kraft.ID, id)

	id, ok = refs.HSCode("4804 11 00")
	assert.True(t, ok)
	assert.Equal(t, kraft.ID, id)

	_, ok = refs.HSCode("abc")
	assert.False(t, ok, "codes without digits never resolve")

	_, ok = refs.HSCode("9999.99.99")
	assert.False(t, ok)

	id, ok = refs.Country(" ke")
	assert.True(t, ok)
	assert.Equal(t, kenya.ID, id)

	_, ok = refs.Country("ZZ")
	assert.False(t, ok)

	countries, hsCodes := refs.Size()
	assert.Equal(t, 1, countries)
	assert.Equal(t, 1, hsCodes)
	src.AssertExpectations(t)
}

func TestLoadReferences_SourceError(t *testing.T) {
	ctx := context.Background()
	src := new(MockReferenceSource)
	src.On("ListCountries", ctx).Return(nil, errors.New("connection refused"))

	refs, err := LoadReferences(ctx, src)
	assert.Nil(t, refs)
	assert.ErrorContains(t, err, "failed to load countries")
	src.AssertNotCalled(t, "ListHSCodes", ctx)
}
