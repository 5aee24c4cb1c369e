package mocks

import (
	"context"

	"github.com/brettbedarf/stagefs"
	"github.com/brettbedarf/stagefs/config"
	"github.com/stretchr/testify/mock"
)

// MockBackingStore implements stagefs.BackingStore for testing across packages
type MockBackingStore struct {
	mock.Mock
}

func (m *MockBackingStore) FileExists(ctx context.Context, path string) bool {
	args := m.Called(ctx, path)
	return args.Bool(0)
}

func (m *MockBackingStore) DirectoryExists(ctx context.Context, path string) bool {
	args := m.Called(ctx, path)
	return args.Bool(0)
}

func (m *MockBackingStore) ReadFile(ctx context.Context, path string) (string, error) {
	args := m.Called(ctx, path)
	return args.String(0), args.Error(1)
}

func (m *MockBackingStore) ReadDir(ctx context.Context, path string) ([]stagefs.DirEntry, error) {
	args := m.Called(ctx, path)

	// Handle nil returns
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]stagefs.DirEntry), args.Error(1)
}

func (m *MockBackingStore) WriteFile(ctx context.Context, path string, text string) error {
	args := m.Called(ctx, path, text)
	return args.Error(0)
}

func (m *MockBackingStore) Mkdir(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func (m *MockBackingStore) Delete(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func (m *MockBackingStore) Move(ctx context.Context, src, dest string) error {
	args := m.Called(ctx, src, dest)
	return args.Error(0)
}

func (m *MockBackingStore) Copy(ctx context.Context, src, dest string) error {
	args := m.Called(ctx, src, dest)
	return args.Error(0)
}

func (m *MockBackingStore) Glob(ctx context.Context, patterns []string) ([]string, error) {
	args := m.Called(ctx, patterns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockBackingStore) IsCaseSensitive() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockBackingStore) CurrentDirectory() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockBackingStore) Realpath(path string) string {
	args := m.Called(path)
	return args.String(0)
}

var _ stagefs.BackingStore = (*MockBackingStore)(nil)

// MockStoreProvider implements stagefs.StoreProvider for testing across packages
type MockStoreProvider struct {
	mock.Mock
}

func (m *MockStoreProvider) NewStore(cfg *config.StoreConfig) (stagefs.BackingStore, error) {
	args := m.Called(cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(stagefs.BackingStore), args.Error(1)
}

var _ stagefs.StoreProvider = (*MockStoreProvider)(nil)
