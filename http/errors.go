package http

import (
	"errors"
	"net/http"

	"github.com/dakgu/siack"
)

// ErrMissingFile is returned when an upload carries no "file" part.
var ErrMissingFile = errors.New("missing file part")

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// errorMappings is checked in order; the first match wins.
var errorMappings = []errorMapping{
	{siack.ErrUnsupportedType, http.StatusBadRequest, "unsupported_type", "Unsupported file type"},
	{siack.ErrInvalidInput, http.StatusBadRequest, "invalid_input", "Invalid input"},
	{ErrMissingFile, http.StatusBadRequest, "invalid_input", "Missing file"},
	{siack.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated", "Authentication required"},
	{siack.ErrForbidden, http.StatusForbidden, "forbidden", "Forbidden"},
	{siack.ErrNotFound, http.StatusNotFound, "not_found", "Not found"},
	{siack.ErrConflict, http.StatusConflict, "conflict", "Already exists"},
	{siack.ErrConnect, http.StatusBadGateway, "storage_unavailable", "Storage backend unavailable"},
}

func classify(err error) errorMapping {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errorMapping{status: http.StatusRequestEntityTooLarge, code: "too_large", message: "Upload too large"}
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m
		}
	}

	return errorMapping{status: http.StatusInternalServerError, code: "internal_error", message: "Internal server error"}
}
