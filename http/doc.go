// Package http provides the siack HTTP API.
//
// Every route passes through AuthenticationGate, which attaches the
// Principal of a valid bearer token to the request context and otherwise
// lets the request continue anonymously. Routes that need an identity add
// RequirePrincipal, which answers 401.
//
// # Routes
//
//	POST /v1/user/register        create an account (JSON RegisterRequest)
//	POST /v1/user/login           exchange credentials for a token
//	GET  /v1/user/check-username  {"available": bool}
//	GET  /v1/user/check-email     {"available": bool}
//	GET  /v1/user/check-nickname  {"available": bool}
//	GET  /v1/userinfo             the caller's account
//	POST /v1/userinfo/modify      change the caller's nickname
//	POST /v1/files/write          multipart upload, field "file"
//	GET  /v1/files/read?path=     {"content": "<base64>"}
//	GET  /v1/files                caller's records, newest first
//	GET  /v1/files/{id}           one record owned by the caller
//
// Errors are JSON ErrorResponse bodies. HandleError maps siack sentinel
// errors onto status codes.
//
// # Usage
//
//	handler := http.NewHandler(&http.HandlerConfig{MaxUploadSize: 10 << 20}, tokens, files, users)
//	srv := &nethttp.Server{Addr: ":8080", Handler: handler.Router()}
package http
