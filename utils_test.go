package siack_test

import (
	"testing"

	"github.com/dakgu/siack"
	"github.com/stretchr/testify/assert"
)

func TestIsValidReadPath(t *testing.T) {
	invalidUTF8 := string([]byte{'/', 'a', 0xff, 'b'})

	tt := []struct {
		Name string
		Path string
		Want bool
	}{
		{Name: "absolute path", Path: "/srv/uploads/images/a.png", Want: true},
		{Name: "relative path", Path: "images/a.png", Want: true},
		{Name: "windows path", Path: `C:\uploads\images\a.png`, Want: true},
		{Name: "dots inside name", Path: "/srv/a..b.png", Want: true},

		{Name: "empty path", Path: "", Want: false},
		{Name: "parent segment", Path: "/srv/uploads/../etc/passwd", Want: false},
		{Name: "leading parent segment", Path: "../a.png", Want: false},
		{Name: "backslash parent segment", Path: `C:\uploads\..\secret`, Want: false},
		{Name: "null byte", Path: "/srv/a\x00.png", Want: false},
		{Name: "newline", Path: "/srv/a\n.png", Want: false},
		{Name: "del", Path: "/srv/a\x7f.png", Want: false},
		{Name: "invalid utf8", Path: invalidUTF8, Want: false},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			assert.Equal(t, tc.Want, siack.IsValidReadPath(tc.Path))
		})
	}
}

func TestExtensionOf(t *testing.T) {
	tt := []struct {
		Name string
		In   string
		Want string
	}{
		{Name: "simple", In: "cat.png", Want: "png"},
		{Name: "upper case kept", In: "CAT.PNG", Want: "PNG"},
		{Name: "multiple dots", In: "archive.tar.gz", Want: "gz"},
		{Name: "no extension", In: "README", Want: ""},
		{Name: "trailing dot", In: "name.", Want: ""},
		{Name: "dotfile", In: ".png", Want: ""},
		{Name: "with directories", In: "photos/2024/cat.jpg", Want: "jpg"},
		{Name: "windows directories", In: `C:\photos\cat.jpeg`, Want: "jpeg"},
		{Name: "dot in directory only", In: "v1.2/README", Want: ""},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			assert.Equal(t, tc.Want, siack.ExtensionOf(tc.In))
		})
	}
}

func TestCleanOriginalName(t *testing.T) {
	assert.Equal(t, "cat.png", siack.CleanOriginalName("  ../../cat.png "))
	assert.Equal(t, "cat.png", siack.CleanOriginalName(`C:\Users\me\cat.png`))
	assert.Equal(t, "cat.png", siack.CleanOriginalName("cat.png"))
}
