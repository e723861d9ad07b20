// Package config provides configuration loading and validation for siack.
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
//  3. Environment variables (SIACK_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx = config.WithContext(ctx, cfg)
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with the SIACK_ prefix:
//   - server.port → SIACK_SERVER_PORT
//   - storage.backend → SIACK_STORAGE_BACKEND
//   - storage.remote.host → SIACK_STORAGE_REMOTE_HOST
//   - auth.secret → SIACK_AUTH_SECRET
//
// # Configuration Structure
//
//   - Env: dev or prod, selects the log handler
//   - Server: port and max_upload_size
//   - Service: cleanup_timeout in seconds for orphaned objects
//   - Database: type (sqlite/postgres), DSN and table names
//   - Storage: backend (local/remote) with per-backend settings
//   - Auth: signing secret or secret file, token_ttl_ms, bcrypt_cost
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level
//
// # Validation
//
// Struct tags cover ranges and enumerations. Table names and the settings
// required by the selected storage backend are checked afterwards; a remote
// backend without host, username, private_key_path or upload_path fails with
// siack.ErrConfiguration.
package config
