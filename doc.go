// Package mediagate provides a gateway that serves objects from a content store
// over HTTP, with byte-range support for streaming media and shared-secret
// protected uploads.
//
// The package holds the domain layer: the object service that pairs a metadata
// repository with blob storage, the range negotiator, the content-type resolver,
// the shared-secret authenticator, and the record service backing the sibling
// user and todo routes.
//
// # Key Components
//
//   - Service: combines a MetaDataRepo and a BlobStorage into create/get/delete/list
//   - MetaDataRepo: interface for object metadata persistence (PostgreSQL, SQLite)
//   - BlobStorage: interface for blob bytes (filesystem, S3-compatible stores)
//   - NegotiateRange: pure parser turning a Range header into a ByteRange
//   - SharedSecret: constant-time bearer token check guarding uploads
//   - RecordService: users and todos over a RecordRepo
//
// # Example Usage
//
//	service, err := mediagate.NewService(repo, storage, mediagate.ServiceConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store an object
//	metadata, err := service.Create(ctx, mediagate.CreateObject{Key: "clip.mp4", ContentType: "video/mp4"}, reader)
//
//	// Read a window of it
//	obj, content, err := service.Get(ctx, "clip.mp4")
//	rng, err := mediagate.NegotiateRange("bytes=500-999", obj.FileSizeBytes)
//
// See the http package for the HTTP surface and the database packages for the
// metadata backends.
package mediagate
