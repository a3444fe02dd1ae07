// Package filesystem stores media blobs under a sandboxed directory.
//
// Writes are staged in a hidden temp file that is renamed into place on commit,
// so readers never observe a partial blob.
// Entity tags are the hex SHA-256 of the content.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/sagarc03/mediagate"
)

const tmpPrefix = ".mediagate-tmp-"

// Store implements mediagate.BlobStorage on top of an os.Root.
type Store struct {
	root *os.Root
}

// New wraps an already opened root. The root confines every operation, so
// keys cannot escape the directory even if they slip past key validation.
func New(root *os.Root) *Store {
	return &Store{root: root}
}

// Open creates dir if needed and returns a Store rooted at it.
// Close releases the underlying root.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("open filesystem store %s: %w", dir, err)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open filesystem store %s: %w", dir, err)
	}

	return New(root), nil
}

func (s *Store) Close() error {
	return s.root.Close()
}

// Get opens a blob for reading. The returned *os.File lets net/http use
// sendfile when the body is copied to a TCP connection.
func (s *Store) Get(ctx context.Context, key string) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.root.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("open blob %s: %w", key, mediagate.ErrNotFound)
		}
		return nil, fmt.Errorf("open blob %s: %w", key, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat blob %s: %w", key, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("open blob %s: %w", key, mediagate.ErrNotFound)
	}

	return f, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Stage streams content into a temp file at the root, hashing it on the way.
// The file is synced but stays invisible to Get and List until Commit renames
// it over obj.Key. The content type is not persisted here; the metadata
// repository owns it.
func (s *Store) Stage(ctx context.Context, obj mediagate.CreateObject, content io.Reader) (mediagate.StagedBlob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmpName := tmpPrefix + uuid.NewString()
	tmp, err := s.root.Create(tmpName)
	if err != nil {
		return nil, fmt.Errorf("stage blob %s: create temp file: %w", obj.Key, err)
	}

	staged := &stagedFile{root: s.root, tmpName: tmpName, key: obj.Key}
	fail := func(err error) (mediagate.StagedBlob, error) {
		_ = tmp.Close()
		staged.remove()
		return nil, err
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(h, tmp), &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return fail(fmt.Errorf("stage blob %s: copy: %w", obj.Key, err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("stage blob %s: sync: %w", obj.Key, err))
	}
	if err := tmp.Close(); err != nil {
		staged.remove()
		return nil, fmt.Errorf("stage blob %s: close: %w", obj.Key, err)
	}

	staged.result = mediagate.SaveResult{BytesWritten: n, Etag: hex.EncodeToString(h.Sum(nil))}
	return staged, nil
}

type stagedFile struct {
	root    *os.Root
	tmpName string
	key     string
	result  mediagate.SaveResult
	done    bool
}

func (f *stagedFile) Result() mediagate.SaveResult {
	return f.result
}

// Commit renames the temp file over the key, creating parent directories.
// Readers holding the old file keep reading the old content.
func (f *stagedFile) Commit(ctx context.Context) error {
	if f.done {
		return fmt.Errorf("commit blob %s: already finished", f.key)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if dir := path.Dir(f.key); dir != "." {
		if err := f.root.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("commit blob %s: create directories: %w", f.key, err)
		}
	}

	if err := f.root.Rename(f.tmpName, f.key); err != nil {
		return fmt.Errorf("commit blob %s: rename: %w", f.key, err)
	}
	f.done = true
	return nil
}

func (f *stagedFile) Discard(context.Context) error {
	if f.done {
		return nil
	}
	f.done = true
	if err := f.root.Remove(f.tmpName); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("discard blob %s: %w", f.key, err)
	}
	return nil
}

func (f *stagedFile) remove() {
	if err := f.root.Remove(f.tmpName); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("remove temp file", "key", f.key, "err", err)
	}
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.root.Remove(key); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("delete blob %s: %w", key, mediagate.ErrNotFound)
		}
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	return nil
}

// List walks the whole root, hashing every blob. Leftover temp files from
// interrupted writes are skipped.
func (s *Store) List(ctx context.Context) ([]mediagate.ObjectEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entries []mediagate.ObjectEntry

	walkErr := fs.WalkDir(s.root.FS(), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), tmpPrefix) {
			return nil
		}

		entry, err := s.describe(p)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("list blobs: %w", walkErr)
	}

	return entries, nil
}

func (s *Store) describe(key string) (mediagate.ObjectEntry, error) {
	f, err := s.root.Open(key)
	if err != nil {
		return mediagate.ObjectEntry{}, fmt.Errorf("describe %s: %w", key, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("close blob", "key", key, "err", closeErr)
		}
	}()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return mediagate.ObjectEntry{}, fmt.Errorf("describe %s: %w", key, err)
	}

	return mediagate.ObjectEntry{
		Key:         key,
		Size:        n,
		ETag:        hex.EncodeToString(h.Sum(nil)),
		ContentType: detectContentType(key),
	}, nil
}

func detectContentType(key string) string {
	return mediagate.ResolveContentType(key, false, mime.TypeByExtension(path.Ext(key)))
}
