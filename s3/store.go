// Package s3 stores media blobs in an S3-compatible bucket via minio-go.
//
// Uploads are staged under a temporary key and copied into place on commit.
// Entity tags are the hex SHA-256 of the content, as with the filesystem
// backend; objects written by other tools fall back to the bucket's ETag.
package s3

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sagarc03/mediagate"
)

const (
	minPartSize = 5 << 20

	// tmpPrefix holds staged uploads until they are committed.
	tmpPrefix  = ".mediagate-tmp/"
	sha256Meta = "Mediagate-Sha256"
)

type Config struct {
	Endpoint  string `mapstructure:"endpoint" validate:"required"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket" validate:"required"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	PathStyle bool   `mapstructure:"path_style"`
	// PartSize bounds the memory used per streaming upload. Zero uses 16 MiB.
	PartSize uint64 `mapstructure:"part_size"`
}

// Store implements mediagate.BlobStorage on an S3 bucket.
type Store struct {
	cl       *minio.Client
	bucket   string
	region   string
	partSize uint64
}

func New(cfg Config) (*Store, error) {
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}

	cl, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("new s3 store: %w", err)
	}

	partSize := cfg.PartSize
	if partSize == 0 {
		partSize = 16 << 20
	}
	if partSize < minPartSize {
		partSize = minPartSize
	}

	return &Store{cl: cl, bucket: cfg.Bucket, region: cfg.Region, partSize: partSize}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.cl.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("ensure bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}

	if err := s.cl.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("ensure bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Get returns a seekable object stream pinned to the version present when it
// was opened: reads carry If-Match, so a concurrent overwrite fails the read
// instead of mixing versions. Seeking issues ranged GET requests, so only the
// requested window is transferred.
func (s *Store) Get(ctx context.Context, key string) (io.ReadSeekCloser, error) {
	info, err := s.cl.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, mapError(err))
	}

	var opts minio.GetObjectOptions
	if err := opts.SetMatchETag(info.ETag); err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}

	obj, err := s.cl.GetObject(ctx, s.bucket, key, opts)
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, mapError(err))
	}
	return obj, nil
}

// Stage streams content to a temporary object with an unknown length,
// hashing it on the way. minio-go splits the stream into multipart chunks of
// PartSize. The object under obj.Key is untouched until Commit.
func (s *Store) Stage(ctx context.Context, obj mediagate.CreateObject, content io.Reader) (mediagate.StagedBlob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmpKey := tmpPrefix + uuid.NewString()
	h := sha256.New()

	info, err := s.cl.PutObject(ctx, s.bucket, tmpKey, io.TeeReader(content, h), -1, minio.PutObjectOptions{
		ContentType: obj.ContentType,
		PartSize:    s.partSize,
	})
	if err != nil {
		return nil, fmt.Errorf("stage object %s: %w", obj.Key, err)
	}

	return &stagedObject{
		store:       s,
		tmpKey:      tmpKey,
		key:         obj.Key,
		contentType: obj.ContentType,
		result:      mediagate.SaveResult{BytesWritten: info.Size, Etag: hex.EncodeToString(h.Sum(nil))},
	}, nil
}

type stagedObject struct {
	store       *Store
	tmpKey      string
	key         string
	contentType string
	result      mediagate.SaveResult
	done        bool
}

func (o *stagedObject) Result() mediagate.SaveResult {
	return o.result
}

// Commit copies the staged object over the key server side, recording the
// SHA-256 entity tag as user metadata, then drops the temporary object.
func (o *stagedObject) Commit(ctx context.Context) error {
	if o.done {
		return fmt.Errorf("commit object %s: already finished", o.key)
	}

	dst := minio.CopyDestOptions{
		Bucket:          o.store.bucket,
		Object:          o.key,
		ReplaceMetadata: true,
		UserMetadata: map[string]string{
			"Content-Type": o.contentType,
			sha256Meta:     o.result.Etag,
		},
	}
	src := minio.CopySrcOptions{Bucket: o.store.bucket, Object: o.tmpKey}

	if _, err := o.store.cl.ComposeObject(ctx, dst, src); err != nil {
		return fmt.Errorf("commit object %s: %w", o.key, err)
	}
	o.done = true

	if err := o.store.cl.RemoveObject(ctx, o.store.bucket, o.tmpKey, minio.RemoveObjectOptions{}); err != nil {
		slog.Warn("remove staged object", "key", o.key, "tmp", o.tmpKey, "err", err)
	}
	return nil
}

func (o *stagedObject) Discard(ctx context.Context) error {
	if o.done {
		return nil
	}
	o.done = true
	if err := o.store.cl.RemoveObject(ctx, o.store.bucket, o.tmpKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("discard object %s: %w", o.key, err)
	}
	return nil
}

// Delete removes an object. S3 deletes are idempotent, so the key is checked
// first to report ErrNotFound like the other backends.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.cl.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		return fmt.Errorf("delete object %s: %w", key, mapError(err))
	}

	if err := s.cl.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// List describes every committed object. Staged objects are skipped.
func (s *Store) List(ctx context.Context) ([]mediagate.ObjectEntry, error) {
	// Stops the listing goroutine when returning early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var entries []mediagate.ObjectEntry

	for o := range s.cl.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if o.Err != nil {
			return nil, fmt.Errorf("list objects: %w", o.Err)
		}
		if strings.HasPrefix(o.Key, tmpPrefix) {
			continue
		}

		// Listings omit the content type, so each object is stat'ed.
		info, err := s.cl.StatObject(ctx, s.bucket, o.Key, minio.StatObjectOptions{})
		if err != nil {
			return nil, fmt.Errorf("list objects: stat %s: %w", o.Key, mapError(err))
		}

		entries = append(entries, mediagate.ObjectEntry{
			Key:         o.Key,
			Size:        info.Size,
			ETag:        entityTag(info),
			ContentType: mediagate.ResolveContentType(o.Key, false, info.ContentType),
		})
	}

	return entries, nil
}

// entityTag prefers the SHA-256 recorded on commit and falls back to the
// bucket's ETag for objects written by other tools.
func entityTag(info minio.ObjectInfo) string {
	if sum := info.UserMetadata[sha256Meta]; sum != "" {
		return sum
	}
	if sum := info.Metadata.Get("X-Amz-Meta-" + sha256Meta); sum != "" {
		return sum
	}
	return strings.Trim(info.ETag, `"`)
}

func mapError(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return mediagate.ErrNotFound
	}
	return err
}
