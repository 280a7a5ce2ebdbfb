package mocks

import (
	"context"

	"doclib/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockListCache struct {
	mock.Mock
}

func (m *MockListCache) GetList(ctx context.Context) ([]model.Document, bool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]model.Document), args.Bool(1), args.Error(2)
}

func (m *MockListCache) SetList(ctx context.Context, docs []model.Document) error {
	args := m.Called(ctx, docs)
	return args.Error(0)
}

func (m *MockListCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
