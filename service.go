package mediagate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// MetaDataRepo defines the interface for managing object metadata persistence.
// Implementations must handle concurrent access safely and ensure data consistency.
//
// All methods accept a context for cancellation and timeout control.
// Implementations should respect context cancellation and return appropriate errors.
type MetaDataRepo interface {
	// Get retrieves metadata for a live object by its key.
	//
	// Returns ErrNotFound if the key doesn't exist or has been soft-deleted.
	Get(ctx context.Context, key string) (MetaData, error)

	// Upsert creates or updates metadata for an object.
	// If an entry with the same key exists, it updates the existing entry and
	// clears any soft-delete markers. The returned bool is true when a new entry
	// was created.
	Upsert(ctx context.Context, entry ObjectEntry) (MetaData, bool, error)

	// Delete soft-deletes the metadata for a key.
	//
	// Returns ErrNotFound if the key doesn't exist or is already deleted.
	Delete(ctx context.Context, key string) error

	// List retrieves a page of live metadata entries ordered by creation time and key.
	List(ctx context.Context, q ListQuery) (ListResult, error)

	// ListPendingCleanup retrieves a page of soft-deleted entries whose blobs
	// have not yet been removed (deleted_at IS NOT NULL AND cleaned_up_at IS NULL).
	ListPendingCleanup(ctx context.Context, q ListQuery) (ListResult, error)

	// MarkCleanedUp records that the blob of a soft-deleted entry was removed.
	//
	// Returns ErrNotFound if the entry doesn't exist or isn't pending cleanup.
	MarkCleanedUp(ctx context.Context, id uuid.UUID) error
}

// BlobStorage defines the interface for the bytes of stored objects.
// Implementations can use the local filesystem, S3, or any other backend.
//
// All methods accept a context for cancellation and timeout control.
// Implementations should respect context cancellation during long-running
// transfers.
type BlobStorage interface {
	// Get opens a blob for reading.
	//
	// The returned ReadSeekCloser lets callers serve byte ranges by seeking
	// instead of reading and discarding a prefix. The caller must close it.
	// Returns ErrNotFound if the blob doesn't exist.
	Get(ctx context.Context, key string) (io.ReadSeekCloser, error)

	// Stage streams content into storage without making it visible under
	// obj.Key. Nothing readable changes until the returned blob is committed,
	// and a failed or cancelled stage leaves no trace.
	Stage(ctx context.Context, obj CreateObject, content io.Reader) (StagedBlob, error)

	// Delete removes a blob. Returns ErrNotFound if the blob doesn't exist.
	//
	// This only deletes the bytes, not the metadata. Callers coordinate both.
	Delete(ctx context.Context, key string) error

	// List returns every blob currently in storage with its size, entity tag and
	// content type. It is used to rebuild metadata (see Service.Populate) and can
	// be expensive on large stores.
	List(ctx context.Context) ([]ObjectEntry, error)
}

// StagedBlob is content held by a BlobStorage but not yet addressable.
type StagedBlob interface {
	// Result reports the byte count and entity tag of the staged content.
	Result() SaveResult

	// Commit makes the content visible under its key, replacing any
	// existing blob in one step.
	Commit(ctx context.Context) error

	// Discard drops the staged content. It does nothing after Commit.
	Discard(ctx context.Context) error
}

// maxReadAttempts bounds how often Get retries when the blob it opened does
// not match the metadata it read, which happens while a write commits.
const maxReadAttempts = 3

var errBlobChanged = errors.New("blob does not match its metadata")

// Service pairs a metadata repository with blob storage.
type Service struct {
	repo           MetaDataRepo
	storage        BlobStorage
	cleanupTimeout time.Duration
}

// ServiceConfig holds configuration options for Service.
type ServiceConfig struct {
	CleanupTimeout time.Duration // Timeout for compensating deletes (default: 30s)
}

func NewService(repo MetaDataRepo, storage BlobStorage, cfg ServiceConfig) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("new service: %w: metadata repo is required", ErrInvalidInput)
	}
	if storage == nil {
		return nil, fmt.Errorf("new service: %w: blob storage is required", ErrInvalidInput)
	}

	cleanupTimeout := cfg.CleanupTimeout
	if cleanupTimeout <= 0 {
		cleanupTimeout = 30 * time.Second
	}

	return &Service{
		repo:           repo,
		storage:        storage,
		cleanupTimeout: cleanupTimeout,
	}, nil
}

// Populate indexes every blob present in storage into the metadata repository.
// It is used when pointing the gateway at an existing store or after metadata
// loss. Processing stops at the first error and is not atomic.
func (s *Service) Populate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("populate: %w", err)
	}

	blobs, listErr := s.storage.List(ctx)
	if listErr != nil {
		return fmt.Errorf("populate: %w", listErr)
	}

	for _, blob := range blobs {
		if _, _, upsertErr := s.repo.Upsert(ctx, blob); upsertErr != nil {
			return fmt.Errorf("populate '%s': %w", blob.Key, upsertErr)
		}
	}

	return nil
}

// Create stores content under obj.Key and records its metadata.
//
// The blob is streamed into a staging area; nothing is buffered here. The
// metadata is written next and the blob is committed last, so a failed upsert
// leaves any previous version of the object untouched. If the commit fails,
// the previous metadata is put back. Staged content is discarded with a
// background context bounded by the cleanup timeout, so a cancelled request
// still cleans up.
//
// Error types returned:
//   - ErrInvalidInput: empty or invalid key
//   - context.Canceled or context.DeadlineExceeded: context was cancelled
//   - *UpstreamError: storage write, metadata upsert or commit failed
func (s *Service) Create(ctx context.Context, obj CreateObject, content io.Reader) (MetaData, error) {
	if err := ctx.Err(); err != nil {
		return MetaData{}, fmt.Errorf("create object: %w", err)
	}

	if obj.Key == "" {
		return MetaData{}, fmt.Errorf("create object: %w: key cannot be empty", ErrInvalidInput)
	}

	if !IsValidKey(obj.Key) {
		return MetaData{}, fmt.Errorf("create object %s: %w: invalid key", obj.Key, ErrInvalidInput)
	}

	if obj.ContentType == "" {
		obj.ContentType = DefaultContentType
	}

	prev, err := s.repo.Get(ctx, obj.Key)
	hadPrev := err == nil
	if err != nil && !errors.Is(err, ErrNotFound) {
		return MetaData{}, fmt.Errorf("create object %s: %w", obj.Key, &UpstreamError{Op: "read metadata", Err: err})
	}

	staged, stageErr := s.storage.Stage(ctx, obj, content)
	if stageErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return MetaData{}, fmt.Errorf("create object %s: %w", obj.Key, ctxErr)
		}
		return MetaData{}, fmt.Errorf("create object %s: %w", obj.Key, &UpstreamError{Op: "write object", Err: stageErr})
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		cleanupCtx, cancel := context.WithTimeout(context.Background(), s.cleanupTimeout)
		defer cancel()
		if discardErr := staged.Discard(cleanupCtx); discardErr != nil {
			slog.Warn("discard staged object", "key", obj.Key, "err", discardErr)
		}
	}()

	result := staged.Result()
	metaData, _, upsertErr := s.repo.Upsert(ctx, ObjectEntry{
		Key:         obj.Key,
		Size:        result.BytesWritten,
		ETag:        result.Etag,
		ContentType: obj.ContentType,
	})
	if upsertErr != nil {
		return MetaData{}, fmt.Errorf("create object %s: %w", obj.Key, &UpstreamError{Op: "record metadata", Err: upsertErr})
	}

	if commitErr := staged.Commit(ctx); commitErr != nil {
		upstream := &UpstreamError{Op: "commit object", Err: commitErr}
		if restoreErr := s.restore(obj.Key, prev, hadPrev); restoreErr != nil {
			return MetaData{}, fmt.Errorf("create object %s: %w (restore metadata failed: %v)", obj.Key, upstream, restoreErr)
		}
		return MetaData{}, fmt.Errorf("create object %s: %w", obj.Key, upstream)
	}
	committed = true

	return metaData, nil
}

// restore puts back the metadata a failed commit replaced, or removes the row
// when the key was new.
func (s *Service) restore(key string, prev MetaData, hadPrev bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cleanupTimeout)
	defer cancel()

	if !hadPrev {
		return s.repo.Delete(ctx, key)
	}

	_, _, err := s.repo.Upsert(ctx, ObjectEntry{
		Key:         prev.Key,
		Size:        prev.FileSizeBytes,
		ETag:        prev.Etag,
		ContentType: prev.ContentType,
	})
	return err
}

// Get returns the metadata and an open reader for a live object. The reader
// is positioned at the start and its length matches the metadata; if a
// concurrent write swaps the blob between the two reads, Get tries again and
// finally reports an UpstreamError. The caller must close the reader.
func (s *Service) Get(ctx context.Context, key string) (MetaData, io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return MetaData{}, nil, fmt.Errorf("get object: %w", err)
	}

	if key == "" {
		return MetaData{}, nil, fmt.Errorf("get object: %w", ErrNotFound)
	}

	var mismatch error
	for range maxReadAttempts {
		m, f, err := s.open(ctx, key)
		if err != nil {
			return MetaData{}, nil, fmt.Errorf("get object %s: %w", key, err)
		}

		size, err := blobSize(f)
		if err != nil {
			_ = f.Close()
			return MetaData{}, nil, fmt.Errorf("get object %s: %w", key, &UpstreamError{Op: "open object", Err: err})
		}
		if size == m.FileSizeBytes {
			return m, f, nil
		}

		_ = f.Close()
		mismatch = fmt.Errorf("%w: metadata has %d bytes, blob has %d", errBlobChanged, m.FileSizeBytes, size)
	}

	return MetaData{}, nil, fmt.Errorf("get object %s: %w", key, &UpstreamError{Op: "read object", Err: mismatch})
}

func (s *Service) open(ctx context.Context, key string) (MetaData, io.ReadSeekCloser, error) {
	m, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return MetaData{}, nil, err
		}
		return MetaData{}, nil, &UpstreamError{Op: "read metadata", Err: err}
	}

	f, err := s.storage.Get(ctx, m.Key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return MetaData{}, nil, err
		}
		return MetaData{}, nil, &UpstreamError{Op: "open object", Err: err}
	}

	return m, f, nil
}

// blobSize measures an open blob by seeking to its end and back.
func blobSize(rs io.Seeker) (int64, error) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	return size, nil
}

// Delete soft-deletes an object. The blob stays in storage until Tombstone runs.
func (s *Service) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}

	if key == "" {
		return fmt.Errorf("delete object: %w: key cannot be empty", ErrInvalidInput)
	}

	if err := s.repo.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}

	return nil
}

func (s *Service) List(ctx context.Context, q ListQuery) (ListResult, error) {
	if err := ctx.Err(); err != nil {
		return ListResult{}, fmt.Errorf("list objects: %w", err)
	}

	result, err := s.repo.List(ctx, q)
	if err != nil {
		return ListResult{}, fmt.Errorf("list objects: %w", err)
	}

	return result, nil
}

// Tombstone permanently removes the blobs of all soft-deleted objects and
// marks their metadata as cleaned up, paging through until none remain.
//
// A blob that is already gone (ErrNotFound) is still marked, which finishes a
// previous run that deleted the bytes but failed to update the metadata.
// It returns the number of entries cleaned up, including on error.
func (s *Service) Tombstone(ctx context.Context, q ListQuery) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("tombstone: %w", err)
	}

	totalCleaned := 0
	cursor := q.Cursor

	for {
		if err := ctx.Err(); err != nil {
			return totalCleaned, fmt.Errorf("tombstone: %w", err)
		}

		query := ListQuery{
			KeyPrefix: q.KeyPrefix,
			Limit:     q.Limit,
			Cursor:    cursor,
		}

		result, listErr := s.repo.ListPendingCleanup(ctx, query)
		if listErr != nil {
			return totalCleaned, fmt.Errorf("tombstone: %w", listErr)
		}

		if len(result.Items) == 0 {
			break
		}

		for _, item := range result.Items {
			deleteErr := s.storage.Delete(ctx, item.Key)
			if deleteErr != nil && !errors.Is(deleteErr, ErrNotFound) {
				return totalCleaned, fmt.Errorf("tombstone '%s': %w", item.Key, deleteErr)
			}

			if updateErr := s.repo.MarkCleanedUp(ctx, item.ID); updateErr != nil {
				return totalCleaned, fmt.Errorf("tombstone '%s': %w", item.Key, updateErr)
			}

			totalCleaned++
		}

		if result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}

	return totalCleaned, nil
}
