package siack

import (
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsValidReadPath validates a backend path supplied by a client.
// It checks that the path:
//   - is not empty
//   - is valid UTF-8
//   - does not contain a ".." segment
//   - does not contain null bytes or control characters (< 0x20, 0x7f)
//
// It does not confine the path to an upload root; see the local backend's
// ConfineReads option for that.
func IsValidReadPath(p string) bool {
	if p == "" {
		return false
	}

	if !utf8.ValidString(p) {
		return false
	}

	for seg := range strings.FieldsFuncSeq(p, isPathSeparator) {
		if seg == ".." {
			return false
		}
	}

	for _, r := range p {
		if r == 0 || r < 0x20 || r == 0x7f {
			return false
		}
	}

	return true
}

func isPathSeparator(r rune) bool {
	return r == '/' || r == '\\'
}

// ExtensionOf returns the extension of a client-supplied file name without
// the leading dot, or "" when the name has none.
func ExtensionOf(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexFunc(name, isPathSeparator); i >= 0 {
		name = name[i+1:]
	}
	ext := path.Ext(name)
	if ext == name || len(ext) <= 1 {
		return ""
	}
	return ext[1:]
}

// CleanOriginalName strips directories and surrounding whitespace from a
// client-supplied file name.
func CleanOriginalName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexFunc(name, isPathSeparator); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimFunc(name, unicode.IsControl)
}
