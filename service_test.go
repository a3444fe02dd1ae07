package mediagate_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sagarc03/mediagate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type SpyMetaDataRepo struct {
	mock.Mock
}

func (s *SpyMetaDataRepo) Get(ctx context.Context, key string) (mediagate.MetaData, error) {
	args := s.Called(ctx, key)
	return args.Get(0).(mediagate.MetaData), args.Error(1)
}

func (s *SpyMetaDataRepo) Upsert(ctx context.Context, entry mediagate.ObjectEntry) (mediagate.MetaData, bool, error) {
	args := s.Called(ctx, entry)
	return args.Get(0).(mediagate.MetaData), args.Bool(1), args.Error(2)
}

func (s *SpyMetaDataRepo) Delete(ctx context.Context, key string) error {
	args := s.Called(ctx, key)
	return args.Error(0)
}

func (s *SpyMetaDataRepo) List(ctx context.Context, q mediagate.ListQuery) (mediagate.ListResult, error) {
	args := s.Called(ctx, q)
	return args.Get(0).(mediagate.ListResult), args.Error(1)
}

func (s *SpyMetaDataRepo) ListPendingCleanup(ctx context.Context, q mediagate.ListQuery) (mediagate.ListResult, error) {
	args := s.Called(ctx, q)
	return args.Get(0).(mediagate.ListResult), args.Error(1)
}

func (s *SpyMetaDataRepo) MarkCleanedUp(ctx context.Context, id uuid.UUID) error {
	args := s.Called(ctx, id)
	return args.Error(0)
}

type SpyBlobStorage struct {
	mock.Mock
}

func (s *SpyBlobStorage) Get(ctx context.Context, key string) (io.ReadSeekCloser, error) {
	args := s.Called(ctx, key)
	if rsc := args.Get(0); rsc != nil {
		return rsc.(io.ReadSeekCloser), args.Error(1)
	}
	return nil, args.Error(1)
}

func (s *SpyBlobStorage) Stage(ctx context.Context, obj mediagate.CreateObject, content io.Reader) (mediagate.StagedBlob, error) {
	args := s.Called(ctx, obj, content)
	if staged := args.Get(0); staged != nil {
		return staged.(mediagate.StagedBlob), args.Error(1)
	}
	return nil, args.Error(1)
}

type SpyStagedBlob struct {
	mock.Mock
	result mediagate.SaveResult
}

func (s *SpyStagedBlob) Result() mediagate.SaveResult {
	return s.result
}

func (s *SpyStagedBlob) Commit(ctx context.Context) error {
	return s.Called(ctx).Error(0)
}

func (s *SpyStagedBlob) Discard(ctx context.Context) error {
	return s.Called(ctx).Error(0)
}

func (s *SpyBlobStorage) Delete(ctx context.Context, key string) error {
	args := s.Called(ctx, key)
	return args.Error(0)
}

func (s *SpyBlobStorage) List(ctx context.Context) ([]mediagate.ObjectEntry, error) {
	args := s.Called(ctx)
	return args.Get(0).([]mediagate.ObjectEntry), args.Error(1)
}

type nopReadSeekCloser struct {
	*bytes.Reader
}

func (nopReadSeekCloser) Close() error { return nil }

func NewService(t *testing.T) (*mediagate.Service, *SpyMetaDataRepo, *SpyBlobStorage) {
	t.Helper()
	spyRepo := new(SpyMetaDataRepo)
	spyStorage := new(SpyBlobStorage)
	s, err := mediagate.NewService(spyRepo, spyStorage, mediagate.ServiceConfig{})
	require.NoError(t, err, "new service")
	return s, spyRepo, spyStorage
}

func TestNewService(t *testing.T) {
	t.Run("nil repo", func(t *testing.T) {
		_, err := mediagate.NewService(nil, new(SpyBlobStorage), mediagate.ServiceConfig{})
		assert.ErrorIs(t, err, mediagate.ErrInvalidInput)
	})

	t.Run("nil storage", func(t *testing.T) {
		_, err := mediagate.NewService(new(SpyMetaDataRepo), nil, mediagate.ServiceConfig{})
		assert.ErrorIs(t, err, mediagate.ErrInvalidInput)
	})
}

func TestService_Populate(t *testing.T) {
	t.Run("success with multiple blobs", func(t *testing.T) {
		service, repo, storage := NewService(t)
		ctx := context.Background()

		blobs := []mediagate.ObjectEntry{
			{Key: "intro.mp4", ContentType: "video/mp4", Size: 1000, ETag: "etag1"},
			{Key: "avatar.png", ContentType: "image/png", Size: 10, ETag: "etag2"},
		}

		storage.On("List", ctx).Return(blobs, nil)
		repo.On("Upsert", ctx, blobs[0]).Return(mediagate.MetaData{}, true, nil)
		repo.On("Upsert", ctx, blobs[1]).Return(mediagate.MetaData{}, true, nil)

		assert.NoError(t, service.Populate(ctx))

		storage.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("storage list error", func(t *testing.T) {
		service, repo, storage := NewService(t)
		ctx := context.Background()

		storage.On("List", ctx).Return([]mediagate.ObjectEntry{}, io.ErrUnexpectedEOF)

		err := service.Populate(ctx)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
		repo.AssertNotCalled(t, "Upsert")
	})

	t.Run("upsert error stops processing", func(t *testing.T) {
		service, repo, storage := NewService(t)
		ctx := context.Background()

		blobs := []mediagate.ObjectEntry{
			{Key: "a.bin", Size: 1},
			{Key: "b.bin", Size: 2},
		}
		upsertErr := errors.New("database locked")

		storage.On("List", ctx).Return(blobs, nil)
		repo.On("Upsert", ctx, blobs[0]).Return(mediagate.MetaData{}, false, upsertErr)

		err := service.Populate(ctx)
		assert.ErrorIs(t, err, upsertErr)
		assert.Contains(t, err.Error(), "a.bin")
		repo.AssertNotCalled(t, "Upsert", ctx, blobs[1])
	})

	t.Run("context cancelled before operation", func(t *testing.T) {
		service, _, storage := NewService(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.ErrorIs(t, service.Populate(ctx), context.Canceled)
		storage.AssertNotCalled(t, "List")
	})
}

func TestService_Create(t *testing.T) {
	t.Run("success - stages, records metadata, then commits", func(t *testing.T) {
		service, repo, storage := NewService(t)
		ctx := context.Background()

		content := bytes.NewReader([]byte("0123456789"))
		obj := mediagate.CreateObject{Key: "avatar.png", ContentType: "image/png"}
		expected := mediagate.MetaData{
			ID:            uuid.New(),
			Key:           "avatar.png",
			ContentType:   "image/png",
			Etag:          "abc",
			FileSizeBytes: 10,
		}

		var order []string
		staged := &SpyStagedBlob{result: mediagate.SaveResult{BytesWritten: 10, Etag: "abc"}}
		staged.On("Commit", ctx).Run(func(mock.Arguments) { order = append(order, "commit") }).Return(nil)

		repo.On("Get", ctx, "avatar.png").Return(mediagate.MetaData{}, mediagate.ErrNotFound)
		storage.On("Stage", ctx, obj, content).Return(staged, nil)
		repo.On("Upsert", ctx, mediagate.ObjectEntry{
			Key:         "avatar.png",
			Size:        10,
			ETag:        "abc",
			ContentType: "image/png",
		}).Run(func(mock.Arguments) { order = append(order, "upsert") }).Return(expected, true, nil)

		got, err := service.Create(ctx, obj, content)
		require.NoError(t, err)
		assert.Equal(t, expected, got)
		assert.Equal(t, []string{"upsert", "commit"}, order)

		staged.AssertNotCalled(t, "Discard", mock.Anything)
		storage.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("success - empty content type defaults to octet-stream", func(t *testing.T) {
		service, repo, storage := NewService(t)
		ctx := context.Background()

		content := bytes.NewReader([]byte("x"))
		stored := mediagate.CreateObject{Key: "notes.bin", ContentType: mediagate.DefaultContentType}

		staged := &SpyStagedBlob{result: mediagate.SaveResult{BytesWritten: 1, Etag: "e"}}
		staged.On("Commit", ctx).Return(nil)

		repo.On("Get", ctx, "notes.bin").Return(mediagate.MetaData{}, mediagate.ErrNotFound)
		storage.On("Stage", ctx, stored, content).Return(staged, nil)
		repo.On("Upsert", ctx, mock.MatchedBy(func(e mediagate.ObjectEntry) bool {
			return e.ContentType == mediagate.DefaultContentType
		})).Return(mediagate.MetaData{Key: "notes.bin"}, true, nil)

		_, err := service.Create(ctx, mediagate.CreateObject{Key: "notes.bin"}, content)
		require.NoError(t, err)

		storage.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("error - empty key", func(t *testing.T) {
		service, repo, storage := NewService(t)

		_, err := service.Create(context.Background(), mediagate.CreateObject{}, bytes.NewReader(nil))
		assert.ErrorIs(t, err, mediagate.ErrInvalidInput)

		storage.AssertNotCalled(t, "Stage")
		repo.AssertNotCalled(t, "Upsert")
	})

	t.Run("error - invalid keys never touch storage", func(t *testing.T) {
		service, repo, storage := NewService(t)

		for _, key := range []string{"../etc/passwd", "/abs/key.png", "a//b.png", "dir/"} {
			_, err := service.Create(context.Background(), mediagate.CreateObject{Key: key}, bytes.NewReader(nil))
			assert.ErrorIs(t, err, mediagate.ErrInvalidInput, key)
		}

		storage.AssertNotCalled(t, "Stage")
		repo.AssertNotCalled(t, "Upsert")
	})

	t.Run("error - reading current metadata fails", func(t *testing.T) {
		service, repo, storage := NewService(t)
		ctx := context.Background()

		repo.On("Get", ctx, "a.bin").Return(mediagate.MetaData{}, errors.New("connection reset"))

		_, err := service.Create(ctx, mediagate.CreateObject{Key: "a.bin"}, bytes.NewReader([]byte("x")))

		var upstream *mediagate.UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, "read metadata", upstream.Op)
		storage.AssertNotCalled(t, "Stage")
	})

	t.Run("error - staging fails", func(t *testing.T) {
		service, repo, storage := NewService(t)
		ctx := context.Background()

		content := bytes.NewReader([]byte("x"))
		obj := mediagate.CreateObject{Key: "a.bin", ContentType: "application/pdf"}
		writeErr := errors.New("disk full")

		repo.On("Get", ctx, "a.bin").Return(mediagate.MetaData{}, mediagate.ErrNotFound)
		storage.On("Stage", ctx, obj, content).Return(nil, writeErr)

		_, err := service.Create(ctx, obj, content)
		assert.ErrorIs(t, err, writeErr)

		var upstream *mediagate.UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, "write object", upstream.Op)
		repo.AssertNotCalled(t, "Upsert")
	})

	t.Run("error - failed upsert discards the staged blob and keeps the old one", func(t *testing.T) {
		service, repo, storage := NewService(t)
		ctx := context.Background()

		content := bytes.NewReader([]byte("replacement"))
		obj := mediagate.CreateObject{Key: "a.bin", ContentType: "application/pdf"}
		upsertErr := errors.New("constraint violation")

		staged := &SpyStagedBlob{result: mediagate.SaveResult{BytesWritten: 11, Etag: "new"}}
		staged.On("Discard", mock.Anything).Return(nil)

		repo.On("Get", ctx, "a.bin").Return(mediagate.MetaData{Key: "a.bin", Etag: "old", FileSizeBytes: 16}, nil)
		storage.On("Stage", ctx, obj, content).Return(staged, nil)
		repo.On("Upsert", ctx, mock.Anything).Return(mediagate.MetaData{}, false, upsertErr)

		_, err := service.Create(ctx, obj, content)
		assert.ErrorIs(t, err, upsertErr)

		var upstream *mediagate.UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, "record metadata", upstream.Op)

		staged.AssertCalled(t, "Discard", mock.Anything)
		staged.AssertNotCalled(t, "Commit", mock.Anything)
		storage.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("error - discard failure does not mask the upsert error", func(t *testing.T) {
		service, repo, storage := NewService(t)
		ctx := context.Background()

		content := bytes.NewReader([]byte("x"))
		obj := mediagate.CreateObject{Key: "a.bin", ContentType: "application/pdf"}
		upsertErr := errors.New("constraint violation")

		staged := &SpyStagedBlob{result: mediagate.SaveResult{BytesWritten: 1, Etag: "e"}}
		staged.On("Discard", mock.Anything).Return(errors.New("permission denied"))

		repo.On("Get", ctx, "a.bin").Return(mediagate.MetaData{}, mediagate.ErrNotFound)
		storage.On("Stage", ctx, obj, content).Return(staged, nil)
		repo.On("Upsert", ctx, mock.Anything).Return(mediagate.MetaData{}, false, upsertErr)

		_, err := service.Create(ctx, obj, content)
		assert.ErrorIs(t, err, upsertErr)
	})

	t.Run("error - failed commit restores the previous metadata", func(t *testing.T) {
		service, repo, storage := NewService(t)
		ctx := context.Background()

		content := bytes.NewReader([]byte("v2"))
		obj := mediagate.CreateObject{Key: "a.bin", ContentType: "application/pdf"}
		prev := mediagate.MetaData{Key: "a.bin", ContentType: "application/pdf", Etag: "old", FileSizeBytes: 16}
		commitErr := errors.New("rename failed")

		staged := &SpyStagedBlob{result: mediagate.SaveResult{BytesWritten: 2, Etag: "new"}}
		staged.On("Commit", ctx).Return(commitErr)
		staged.On("Discard", mock.Anything).Return(nil)

		repo.On("Get", ctx, "a.bin").Return(prev, nil)
		storage.On("Stage", ctx, obj, content).Return(staged, nil)
		repo.On("Upsert", ctx, mediagate.ObjectEntry{Key: "a.bin", Size: 2, ETag: "new", ContentType: "application/pdf"}).
			Return(mediagate.MetaData{}, false, nil)
		repo.On("Upsert", mock.Anything, mediagate.ObjectEntry{Key: "a.bin", Size: 16, ETag: "old", ContentType: "application/pdf"}).
			Return(prev, false, nil)

		_, err := service.Create(ctx, obj, content)
		assert.ErrorIs(t, err, commitErr)

		var upstream *mediagate.UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, "commit object", upstream.Op)

		repo.AssertExpectations(t)
		staged.AssertCalled(t, "Discard", mock.Anything)
	})

	t.Run("error - failed commit of a new key removes its metadata", func(t *testing.T) {
		service, repo, storage := NewService(t)
		ctx := context.Background()

		content := bytes.NewReader([]byte("v1"))
		obj := mediagate.CreateObject{Key: "a.bin", ContentType: "application/pdf"}

		staged := &SpyStagedBlob{result: mediagate.SaveResult{BytesWritten: 2, Etag: "new"}}
		staged.On("Commit", ctx).Return(errors.New("rename failed"))
		staged.On("Discard", mock.Anything).Return(nil)

		repo.On("Get", ctx, "a.bin").Return(mediagate.MetaData{}, mediagate.ErrNotFound)
		storage.On("Stage", ctx, obj, content).Return(staged, nil)
		repo.On("Upsert", ctx, mock.Anything).Return(mediagate.MetaData{}, true, nil)
		repo.On("Delete", mock.Anything, "a.bin").Return(nil)

		_, err := service.Create(ctx, obj, content)
		require.Error(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("error - context cancelled during staging", func(t *testing.T) {
		service, repo, storage := NewService(t)
		ctx, cancel := context.WithCancel(context.Background())

		content := bytes.NewReader([]byte("x"))
		obj := mediagate.CreateObject{Key: "a.bin", ContentType: "application/pdf"}

		repo.On("Get", ctx, "a.bin").Return(mediagate.MetaData{}, mediagate.ErrNotFound)
		storage.On("Stage", ctx, obj, content).
			Run(func(mock.Arguments) { cancel() }).
			Return(nil, context.Canceled)

		_, err := service.Create(ctx, obj, content)
		assert.ErrorIs(t, err, context.Canceled)

		var upstream *mediagate.UpstreamError
		assert.False(t, errors.As(err, &upstream))
		repo.AssertNotCalled(t, "Upsert")
	})
}

func TestService_Get(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		service, repo, storage := NewService(t)
		ctx := context.Background()

		metadata := mediagate.MetaData{Key: "intro.mp4", ContentType: "video/mp4", FileSizeBytes: 5}
		file := nopReadSeekCloser{bytes.NewReader([]byte("hello"))}

		repo.On("Get", ctx, "intro.mp4").Return(metadata, nil)
		storage.On("Get", ctx, "intro.mp4").Return(file, nil)

		m, rsc, err := service.Get(ctx, "intro.mp4")
		require.NoError(t, err)
		assert.Equal(t, metadata, m)
		assert.Equal(t, file, rsc)

		body, err := io.ReadAll(rsc)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(body), "reader is rewound after measuring")
	})

	t.Run("blob swapped while reading retries with fresh metadata", func(t *testing.T) {
		service, repo, storage := NewService(t)
		ctx := context.Background()

		stale := mediagate.MetaData{Key: "a.bin", Etag: "v1", FileSizeBytes: 10}
		fresh := mediagate.MetaData{Key: "a.bin", Etag: "v2", FileSizeBytes: 5}

		repo.On("Get", ctx, "a.bin").Return(stale, nil).Once()
		repo.On("Get", ctx, "a.bin").Return(fresh, nil).Once()
		storage.On("Get", ctx, "a.bin").Return(nopReadSeekCloser{bytes.NewReader([]byte("BBBBB"))}, nil).Once()
		storage.On("Get", ctx, "a.bin").Return(nopReadSeekCloser{bytes.NewReader([]byte("BBBBB"))}, nil).Once()

		m, rsc, err := service.Get(ctx, "a.bin")
		require.NoError(t, err)
		assert.Equal(t, fresh, m)

		body, err := io.ReadAll(rsc)
		require.NoError(t, err)
		assert.Equal(t, "BBBBB", string(body))
	})

	t.Run("error - blob never matches metadata", func(t *testing.T) {
		service, repo, storage := NewService(t)
		ctx := context.Background()

		repo.On("Get", ctx, "a.bin").Return(mediagate.MetaData{Key: "a.bin", FileSizeBytes: 10}, nil)
		storage.On("Get", ctx, "a.bin").Return(nopReadSeekCloser{bytes.NewReader([]byte("BBBBB"))}, nil)

		_, rsc, err := service.Get(ctx, "a.bin")
		assert.Nil(t, rsc)

		var upstream *mediagate.UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, "read object", upstream.Op)
		repo.AssertNumberOfCalls(t, "Get", 3)
	})

	t.Run("error - empty key", func(t *testing.T) {
		service, repo, _ := NewService(t)

		_, _, err := service.Get(context.Background(), "")
		assert.ErrorIs(t, err, mediagate.ErrNotFound)
		repo.AssertNotCalled(t, "Get")
	})

	t.Run("error - metadata not found", func(t *testing.T) {
		service, repo, storage := NewService(t)
		ctx := context.Background()

		repo.On("Get", ctx, "missing.png").Return(mediagate.MetaData{}, mediagate.ErrNotFound)

		_, _, err := service.Get(ctx, "missing.png")
		assert.ErrorIs(t, err, mediagate.ErrNotFound)
		storage.AssertNotCalled(t, "Get")
	})

	t.Run("error - repo failure is upstream", func(t *testing.T) {
		service, repo, _ := NewService(t)
		ctx := context.Background()

		repo.On("Get", ctx, "a.png").Return(mediagate.MetaData{}, errors.New("connection reset"))

		_, _, err := service.Get(ctx, "a.png")
		var upstream *mediagate.UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, "read metadata", upstream.Op)
	})

	t.Run("error - blob missing while metadata exists", func(t *testing.T) {
		service, repo, storage := NewService(t)
		ctx := context.Background()

		repo.On("Get", ctx, "a.png").Return(mediagate.MetaData{Key: "a.png"}, nil)
		storage.On("Get", ctx, "a.png").Return(nil, mediagate.ErrNotFound)

		_, _, err := service.Get(ctx, "a.png")
		assert.ErrorIs(t, err, mediagate.ErrNotFound)
	})

	t.Run("error - storage failure is upstream", func(t *testing.T) {
		service, repo, storage := NewService(t)
		ctx := context.Background()

		repo.On("Get", ctx, "a.png").Return(mediagate.MetaData{Key: "a.png"}, nil)
		storage.On("Get", ctx, "a.png").Return(nil, errors.New("bucket unreachable"))

		_, _, err := service.Get(ctx, "a.png")
		var upstream *mediagate.UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, "open object", upstream.Op)
	})
}

func TestService_Delete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		service, repo, storage := NewService(t)
		ctx := context.Background()

		repo.On("Delete", ctx, "a.png").Return(nil)

		assert.NoError(t, service.Delete(ctx, "a.png"))
		storage.AssertNotCalled(t, "Delete")
	})

	t.Run("error - empty key", func(t *testing.T) {
		service, _, _ := NewService(t)
		assert.ErrorIs(t, service.Delete(context.Background(), ""), mediagate.ErrInvalidInput)
	})

	t.Run("error - not found", func(t *testing.T) {
		service, repo, _ := NewService(t)
		ctx := context.Background()

		repo.On("Delete", ctx, "a.png").Return(mediagate.ErrNotFound)

		assert.ErrorIs(t, service.Delete(ctx, "a.png"), mediagate.ErrNotFound)
	})
}

func TestService_List(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		service, repo, _ := NewService(t)
		ctx := context.Background()

		query := mediagate.ListQuery{KeyPrefix: "clips/", Limit: 2}
		expected := mediagate.ListResult{
			Items:      []mediagate.MetaData{{Key: "clips/a.mp4"}, {Key: "clips/b.mp4"}},
			NextCursor: "next",
		}
		repo.On("List", ctx, query).Return(expected, nil)

		got, err := service.List(ctx, query)
		require.NoError(t, err)
		assert.Equal(t, expected, got)
	})

	t.Run("error - repository list fails", func(t *testing.T) {
		service, repo, _ := NewService(t)
		ctx := context.Background()

		listErr := errors.New("boom")
		repo.On("List", ctx, mediagate.ListQuery{}).Return(mediagate.ListResult{}, listErr)

		_, err := service.List(ctx, mediagate.ListQuery{})
		assert.ErrorIs(t, err, listErr)
	})
}

func TestService_Tombstone(t *testing.T) {
	t.Run("success - processes multiple pages", func(t *testing.T) {
		service, repo, storage := NewService(t)
		ctx := context.Background()

		id1, id2 := uuid.New(), uuid.New()

		repo.On("ListPendingCleanup", ctx, mediagate.ListQuery{Limit: 1}).Return(mediagate.ListResult{
			Items:      []mediagate.MetaData{{ID: id1, Key: "old/a.png"}},
			NextCursor: "c1",
		}, nil)
		repo.On("ListPendingCleanup", ctx, mediagate.ListQuery{Limit: 1, Cursor: "c1"}).Return(mediagate.ListResult{
			Items: []mediagate.MetaData{{ID: id2, Key: "old/b.png"}},
		}, nil)
		storage.On("Delete", ctx, "old/a.png").Return(nil)
		storage.On("Delete", ctx, "old/b.png").Return(nil)
		repo.On("MarkCleanedUp", ctx, id1).Return(nil)
		repo.On("MarkCleanedUp", ctx, id2).Return(nil)

		count, err := service.Tombstone(ctx, mediagate.ListQuery{Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		repo.AssertExpectations(t)
		storage.AssertExpectations(t)
	})

	t.Run("success - blob already gone is still marked", func(t *testing.T) {
		service, repo, storage := NewService(t)
		ctx := context.Background()

		id := uuid.New()
		repo.On("ListPendingCleanup", ctx, mediagate.ListQuery{}).Return(mediagate.ListResult{
			Items: []mediagate.MetaData{{ID: id, Key: "gone.png"}},
		}, nil)
		storage.On("Delete", ctx, "gone.png").Return(mediagate.ErrNotFound)
		repo.On("MarkCleanedUp", ctx, id).Return(nil)

		count, err := service.Tombstone(ctx, mediagate.ListQuery{})
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("error - storage delete fails", func(t *testing.T) {
		service, repo, storage := NewService(t)
		ctx := context.Background()

		id1, id2 := uuid.New(), uuid.New()
		repo.On("ListPendingCleanup", ctx, mediagate.ListQuery{}).Return(mediagate.ListResult{
			Items: []mediagate.MetaData{{ID: id1, Key: "a.png"}, {ID: id2, Key: "b.png"}},
		}, nil)
		storage.On("Delete", ctx, "a.png").Return(nil)
		repo.On("MarkCleanedUp", ctx, id1).Return(nil)
		storage.On("Delete", ctx, "b.png").Return(errors.New("permission denied"))

		count, err := service.Tombstone(ctx, mediagate.ListQuery{})
		assert.Error(t, err)
		assert.Equal(t, 1, count)
		repo.AssertNotCalled(t, "MarkCleanedUp", ctx, id2)
	})

	t.Run("error - context cancelled before operation", func(t *testing.T) {
		service, repo, _ := NewService(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		count, err := service.Tombstone(ctx, mediagate.ListQuery{})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, count)
		repo.AssertNotCalled(t, "ListPendingCleanup")
	})
}
