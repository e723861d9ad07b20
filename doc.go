// Package siack provides an image upload gateway: bearer-token
// authentication and a storage abstraction with local filesystem and
// remote SFTP backends.
//
// # Key Components
//
//   - TokenAuthenticator: issues and verifies HS256 bearer tokens
//   - Storage: the read/write contract implemented by every backend
//   - FileService: writes uploads through Storage and records FileRecord metadata
//   - UserService: registration and login backed by bcrypt password hashes
//   - FileRepo/UserRepo: metadata persistence (PostgreSQL, SQLite)
//
// # Storage Categories
//
// Write classifies the extension before touching the backend. jpg, jpeg and
// png (any case) map to CategoryImages; anything else fails with
// ErrUnsupportedType. Stored names are a random UUID followed by the
// lower-cased extension, placed under <root>/<category>/.
//
// # Example Usage
//
//	tokens, err := siack.NewTokenAuthenticator(siack.TokenConfig{Secret: secret, TTL: time.Hour})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	token, _ := tokens.Issue("alice", []string{"ROLE_USER"})
//	principal, err := tokens.Verify(token)
//
//	files := siack.NewFileService(fileRepo, userRepo, store, siack.ServiceConfig{})
//	rec, err := files.Upload(ctx, &principal, siack.UploadRequest{OriginalName: "cat.png", Content: data})
//
// See the filesystem and sftpstore packages for the backends, the storage
// package for backend selection and the http package for the REST API.
package siack
