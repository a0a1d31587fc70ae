// Package config provides configuration loading and validation for storefront.
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
//  3. Environment variables (STOREFRONT_ prefix)
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
// All config keys map to environment variables with STOREFRONT_ prefix:
//   - server.port → STOREFRONT_SERVER_PORT
//   - storage.remote.bucket → STOREFRONT_STORAGE_REMOTE_BUCKET
//   - auth.jwt_secret → STOREFRONT_AUTH_JWT_SECRET
//
// # Configuration Structure
//
// The Config struct contains:
//   - Env: dev (tinted text logs) or prod (JSON logs, jwt_secret required)
//   - Server: port, public_url for local file URLs, max_upload_size
//   - Service: cleanup_timeout and cleanup_concurrency for discards
//   - Database: type, DSN, auto_migrate and table names
//   - Storage: local.path and the optional S3 compatible remote
//   - Upload: per-file size limits and the additional image count
//   - Auth: JWT secret, issuer, token TTL and the admin cache
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level
package config
