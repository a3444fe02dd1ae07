// Package config provides configuration loading and validation for mediagate.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (MEDIAGATE_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with MEDIAGATE_ prefix:
//   - server.port → MEDIAGATE_SERVER_PORT
//   - storage.s3.bucket → MEDIAGATE_STORAGE_S3_BUCKET
//   - auth.secret → MEDIAGATE_AUTH_SECRET
//
// # Upload Tokens
//
// With only auth.secret set, uploads are checked against that one value. When
// auth.tokens lists entries inline or points at a JSON file, AuthConfig.UploadVerifier
// builds a keybackend.Keyring holding them plus the secret as "default", so old
// and new tokens can be accepted side by side while clients are rotated.
//
// # Configuration Structure
//
// The Config struct contains:
//   - Server: port, API prefix, upload cap, cache lifetime, media ranges, timeouts
//   - Service: cleanup_timeout for compensating deletes
//   - Database: type, DSN, and table names
//   - Storage: filesystem path or S3 bucket settings
//   - Auth: upload secret (inline or from a file) and optional named tokens
//   - CORS: cross-origin resource sharing settings
//   - Log: level and environment (development or production)
package config
