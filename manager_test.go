package storekit_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gobeaver/storekit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStore implements storekit.Store for testing
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Type() storekit.StoreType {
	return storekit.TypeS3
}

func (m *MockStore) Connect(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockStore) Close() error {
	return m.Called().Error(0)
}

func (m *MockStore) LS(ctx context.Context, path string) (*storekit.DirListing, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storekit.DirListing), args.Error(1)
}

func (m *MockStore) List(ctx context.Context, path string, opts ...storekit.Option) (*storekit.ListingResult, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storekit.ListingResult), args.Error(1)
}

func (m *MockStore) Exists(ctx context.Context, path string, opts ...storekit.Option) (bool, error) {
	args := m.Called(ctx, path)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, path string, opts ...storekit.Option) error {
	return m.Called(ctx, path).Error(0)
}

func (m *MockStore) UploadFile(ctx context.Context, localPath, remote string, opts ...storekit.Option) error {
	return m.Called(ctx, localPath, remote).Error(0)
}

func (m *MockStore) UploadDir(ctx context.Context, localDir, remote string, opts ...storekit.Option) error {
	return m.Called(ctx, localDir, remote).Error(0)
}

func (m *MockStore) DownloadFile(ctx context.Context, remote, localPath string, opts ...storekit.Option) error {
	return m.Called(ctx, remote, localPath).Error(0)
}

func (m *MockStore) DownloadDir(ctx context.Context, remote, localDir string, opts ...storekit.Option) error {
	return m.Called(ctx, remote, localDir).Error(0)
}

func TestNewManager(t *testing.T) {
	_, err := storekit.NewManager(nil)
	assert.ErrorIs(t, err, storekit.ErrNilStore)

	m, err := storekit.NewManager(&MockStore{}, storekit.WithBasePath("s3://bucket/root"))
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/root", m.BasePath())

	m.SetBasePath("s3://bucket/other")
	assert.Equal(t, "s3://bucket/other", m.BasePath())
}

func TestManagerLSSortsAndResolves(t *testing.T) {
	store := &MockStore{}
	store.On("LS", mock.Anything, "s3://bucket/root/x").Return(&storekit.DirListing{
		Files: []string{"b.txt", "a.txt"},
		Dirs:  []string{"z", "y"},
	}, nil)

	m, err := storekit.NewManager(store, storekit.WithBasePath("s3://bucket/root"))
	require.NoError(t, err)

	listing, err := m.LS(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, listing.Files)
	assert.Equal(t, []string{"y", "z"}, listing.Dirs)
	store.AssertExpectations(t)
}

func TestManagerPathResolution(t *testing.T) {
	tests := []struct {
		name string
		base string
		path string
		want string
	}{
		{"no base", "", "x", "x"},
		{"url base", "s3://bucket/root", "x/y", "s3://bucket/root/x/y"},
		{"leading slash", "s3://bucket/root", "/x", "s3://bucket/root/x"},
		{"full address", "s3://bucket/root", "s3://other/k", "s3://other/k"},
		{"absolute local", "/srv/data", "/etc/x", "/etc/x"},
		{"relative local", "/srv/data", "x", "/srv/data/x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MockStore{}
			store.On("Exists", mock.Anything, tt.want).Return(true, nil)
			store.On("Delete", mock.Anything, tt.want).Return(nil)

			m, err := storekit.NewManager(store, storekit.WithBasePath(tt.base))
			require.NoError(t, err)

			ok, err := m.Exists(context.Background(), tt.path)
			require.NoError(t, err)
			assert.True(t, ok)
			require.NoError(t, m.Delete(context.Background(), tt.path))
			store.AssertExpectations(t)
		})
	}
}

func TestManagerTransfers(t *testing.T) {
	ctx := context.Background()
	store := &MockStore{}
	store.On("UploadFile", mock.Anything, "local.csv", "s3://bucket/root").Return(nil)
	store.On("UploadDir", mock.Anything, "out", "s3://bucket/root/runs").Return(nil)
	store.On("DownloadFile", mock.Anything, "s3://bucket/root/data.csv", "data.csv").Return(nil)
	store.On("DownloadDir", mock.Anything, "s3://bucket/root/train", "/tmp/train").Return(nil)

	m, err := storekit.NewManager(store, storekit.WithBasePath("s3://bucket/root"))
	require.NoError(t, err)

	require.NoError(t, m.UploadFile(ctx, "local.csv", ""))
	require.NoError(t, m.UploadDir(ctx, "out", "runs"))
	require.NoError(t, m.DownloadFile(ctx, "data.csv", ""))
	require.NoError(t, m.DownloadDir(ctx, "train", "/tmp/train"))
	store.AssertExpectations(t)
}

func TestManagerConnect(t *testing.T) {
	boom := errors.New("dial failed")
	store := &MockStore{}
	store.On("Connect", mock.Anything).Return(boom).Once()
	store.On("Connect", mock.Anything).Return(nil)
	store.On("Close").Return(nil)

	m, err := storekit.NewManager(store)
	require.NoError(t, err)

	assert.ErrorIs(t, m.Connect(context.Background()), boom)
	assert.NoError(t, m.Connect(context.Background()))
	assert.NoError(t, m.Close())

	env, err := m.Environ(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, env)
}

func TestManagerForType(t *testing.T) {
	ctx := context.Background()
	m, err := storekit.ManagerForType(storekit.TypeMemory, nil, nil, storekit.WithBasePath("mem://bucket/base"))
	require.NoError(t, err)
	assert.Equal(t, storekit.TypeMemory, m.Store().Type())

	local := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(local, []byte("data"), 0o644))
	require.NoError(t, m.UploadFile(ctx, local, "in", storekit.WithBasename(true)))

	listing, err := m.LS(ctx, "in")
	require.NoError(t, err)
	assert.Equal(t, []string{"f.txt"}, listing.Files)

	_, err = storekit.ManagerForType(storekit.StoreType("ftp"), nil, nil)
	assert.ErrorIs(t, err, storekit.ErrUnrecognizedStoreType)
}
