package sftpstore_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dakgu/siack"
	"github.com/dakgu/siack/sftpstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

func testConfig() sftpstore.Config {
	return sftpstore.Config{
		Host:           "files.example.com",
		Username:       "uploader",
		PrivateKeyPath: "/etc/siack/id_ed25519",
		UploadPath:     "/srv/uploads",
	}
}

func newStore(t *testing.T, r *recorder) *sftpstore.Store {
	t.Helper()
	s, err := sftpstore.New(testConfig(), sftpstore.WithDialer(r))
	require.NoError(t, err)
	return s
}

func assertReleased(t *testing.T, r *recorder) {
	t.Helper()
	transports, channels := r.Open()
	assert.Zero(t, transports, "transport left open")
	assert.Zero(t, channels, "channel left open")

	events := r.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, "close-transport", events[len(events)-1], "transport must close last")
	for i, e := range events {
		if e == "close-channel" {
			require.Less(t, i+1, len(events))
			assert.Equal(t, "close-transport", events[i+1], "channel must close right before the transport")
		}
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*sftpstore.Config)
		want   string
	}{
		{name: "missing host", mutate: func(c *sftpstore.Config) { c.Host = "" }, want: "host"},
		{name: "missing user", mutate: func(c *sftpstore.Config) { c.Username = "" }, want: "username"},
		{name: "missing key", mutate: func(c *sftpstore.Config) { c.PrivateKeyPath = "" }, want: "private_key_path"},
		{name: "missing upload path", mutate: func(c *sftpstore.Config) { c.UploadPath = "" }, want: "upload_path"},
		{name: "bad port", mutate: func(c *sftpstore.Config) { c.Port = 70000 }, want: "invalid port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)

			_, err := sftpstore.New(cfg)
			assert.ErrorIs(t, err, siack.ErrConfiguration)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestStore_ChannelTimeout(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		r := newRecorder()
		s := newStore(t, r)

		_, err := s.Write(context.Background(), pngHeader, "png")
		require.NoError(t, err)
		assert.Equal(t, sftpstore.DefaultChannelTimeout, r.ChannelTimeout())
	})

	t.Run("configured", func(t *testing.T) {
		r := newRecorder()
		cfg := testConfig()
		cfg.ChannelTimeout = 250 * time.Millisecond
		s, err := sftpstore.New(cfg, sftpstore.WithDialer(r))
		require.NoError(t, err)

		_, err = s.Write(context.Background(), pngHeader, "png")
		require.NoError(t, err)
		assert.Equal(t, 250*time.Millisecond, r.ChannelTimeout())
	})
}

func TestStore_Write_Success(t *testing.T) {
	r := newRecorder("/srv", "/srv/uploads", "/srv/uploads/images")
	s := newStore(t, r)

	result, err := s.Write(context.Background(), pngHeader, "png")

	require.NoError(t, err)
	assert.Equal(t, siack.CategoryImages, result.Category)
	assert.Equal(t, "png", result.Extension)
	assert.Equal(t, "/srv/uploads/images/"+result.StoredName, result.FullPath)
	assert.Equal(t, []string{result.FullPath}, r.FileNames())
	assertReleased(t, r)

	for _, e := range r.Events() {
		assert.False(t, strings.HasPrefix(e, "mkdir"), "existing directories must not be created: %s", e)
	}
}

func TestStore_Write_ProvisionsMissingDirectories(t *testing.T) {
	r := newRecorder("/srv")
	s := newStore(t, r)

	_, err := s.Write(context.Background(), pngHeader, "jpg")
	require.NoError(t, err)

	var mkdirs []string
	for _, e := range r.Events() {
		if strings.HasPrefix(e, "mkdir") {
			mkdirs = append(mkdirs, e)
		}
	}
	assert.Equal(t, []string{"mkdir /srv/uploads", "mkdir /srv/uploads/images"}, mkdirs)
	assertReleased(t, r)
}

func TestStore_Write_UpperCaseExtension(t *testing.T) {
	r := newRecorder()
	s := newStore(t, r)

	result, err := s.Write(context.Background(), pngHeader, "PNG")

	require.NoError(t, err)
	assert.Equal(t, siack.CategoryImages, result.Category)
	assert.Equal(t, "png", result.Extension)
	assert.True(t, strings.HasSuffix(result.StoredName, ".png"))
}

func TestStore_Write_UnsupportedTypeNeverConnects(t *testing.T) {
	r := newRecorder()
	s := newStore(t, r)

	_, err := s.Write(context.Background(), []byte("GIF89a"), "gif")

	assert.ErrorIs(t, err, siack.ErrUnsupportedType)
	assert.Empty(t, r.Events())
	assert.Empty(t, r.FileNames())
}

func TestStore_Write_FailureMidTransfer(t *testing.T) {
	r := newRecorder("/srv", "/srv/uploads", "/srv/uploads/images")
	r.writeLimit = 3
	s := newStore(t, r)

	_, err := s.Write(context.Background(), pngHeader, "png")

	assert.ErrorIs(t, err, siack.ErrTransfer)
	assert.ErrorIs(t, err, errConnectionLost)
	assert.Empty(t, r.FileNames(), "partial upload must be removed")
	assertReleased(t, r)
}

func TestStore_Write_RenameFailure(t *testing.T) {
	r := newRecorder("/srv", "/srv/uploads", "/srv/uploads/images")
	r.renameErr = errors.New("permission denied")
	s := newStore(t, r)

	_, err := s.Write(context.Background(), pngHeader, "png")

	assert.ErrorIs(t, err, siack.ErrTransfer)
	assert.Empty(t, r.FileNames())
	assertReleased(t, r)
}

func TestStore_Write_StatFailure(t *testing.T) {
	r := newRecorder()
	r.statErr = errors.New("bad message")
	s := newStore(t, r)

	_, err := s.Write(context.Background(), pngHeader, "png")

	assert.ErrorIs(t, err, siack.ErrTransfer)
	assertReleased(t, r)
}

func TestStore_Write_PathComponentIsFile(t *testing.T) {
	r := newRecorder("/srv")
	r.files["/srv/uploads"] = []byte("x")
	s := newStore(t, r)

	_, err := s.Write(context.Background(), pngHeader, "png")

	assert.ErrorIs(t, err, siack.ErrTransfer)
	assert.ErrorContains(t, err, "not a directory")
	assertReleased(t, r)
}

func TestStore_Write_DialFailure(t *testing.T) {
	r := newRecorder()
	r.dialErr = errors.New("connection refused")
	s := newStore(t, r)

	_, err := s.Write(context.Background(), pngHeader, "png")

	assert.ErrorIs(t, err, siack.ErrConnect)
	assert.Equal(t, []string{"dial"}, r.Events())
}

func TestStore_Write_ConfigurationFailure(t *testing.T) {
	r := newRecorder()
	r.dialErr = fmt.Errorf("read private key: %w", siack.ErrConfiguration)
	s := newStore(t, r)

	_, err := s.Write(context.Background(), pngHeader, "png")

	assert.ErrorIs(t, err, siack.ErrConfiguration)
	assert.NotErrorIs(t, err, siack.ErrConnect)
}

func TestStore_Write_ChannelFailure(t *testing.T) {
	r := newRecorder()
	r.channelErr = errors.New("subsystem request failed")
	s := newStore(t, r)

	_, err := s.Write(context.Background(), pngHeader, "png")

	assert.ErrorIs(t, err, siack.ErrConnect)
	assert.Equal(t, []string{"dial", "open-channel", "close-transport"}, r.Events())
	assertReleased(t, r)
}

func TestStore_Write_ContextCanceled(t *testing.T) {
	r := newRecorder()
	s := newStore(t, r)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Write(ctx, pngHeader, "png")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, r.Events())
}

func TestStore_WriteTwice_DistinctAndReadable(t *testing.T) {
	r := newRecorder()
	s := newStore(t, r)
	ctx := context.Background()

	first, err := s.Write(ctx, pngHeader, "png")
	require.NoError(t, err)
	second, err := s.Write(ctx, pngHeader, "png")
	require.NoError(t, err)

	assert.NotEqual(t, first.StoredName, second.StoredName)
	for _, res := range []siack.StorageResult{first, second} {
		got, err := s.Read(ctx, res.FullPath)
		require.NoError(t, err)
		assert.Equal(t, pngHeader, got)
	}
	assertReleased(t, r)
}

func TestStore_Read_NotFound(t *testing.T) {
	r := newRecorder()
	s := newStore(t, r)

	_, err := s.Read(context.Background(), "/srv/uploads/images/missing.png")

	assert.ErrorIs(t, err, siack.ErrNotFound)
	assertReleased(t, r)
}

func TestStore_Remove(t *testing.T) {
	r := newRecorder()
	s := newStore(t, r)
	ctx := context.Background()

	res, err := s.Write(ctx, pngHeader, "png")
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, res.FullPath))
	assert.Empty(t, r.FileNames())
	assert.ErrorIs(t, s.Remove(ctx, res.FullPath), siack.ErrNotFound)
	assertReleased(t, r)
}

func TestStore_SSHDialer_MissingKey(t *testing.T) {
	cfg := testConfig()
	cfg.PrivateKeyPath = filepath.Join(t.TempDir(), "missing")
	s, err := sftpstore.New(cfg)
	require.NoError(t, err)

	_, err = s.Write(context.Background(), pngHeader, "png")
	assert.ErrorIs(t, err, siack.ErrConfiguration)

	_, err = s.Read(context.Background(), "/srv/uploads/images/a.png")
	assert.ErrorIs(t, err, siack.ErrConfiguration)
}
