// Package sftpstore provides the remote storage backend for siack. Every
// operation opens its own SSH connection and SFTP channel and closes both
// before returning, whatever the outcome. Sessions are never pooled.
package sftpstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/dakgu/siack"
	"github.com/google/uuid"
)

const (
	// DefaultPort is the SSH port used when Config.Port is zero.
	DefaultPort = 22
	// DefaultConnectTimeout bounds the SSH handshake when Config.ConnectTimeout is not positive.
	DefaultConnectTimeout = 10 * time.Second
	// DefaultChannelTimeout bounds opening the SFTP channel when Config.ChannelTimeout is not positive.
	DefaultChannelTimeout = 5 * time.Second
)

// Config describes the remote host and the upload directory on it.
type Config struct {
	Host                  string
	Port                  int
	Username              string
	PrivateKeyPath        string
	PrivateKeyPassphrase  string
	ConnectTimeout        time.Duration
	ChannelTimeout        time.Duration
	UploadPath            string
	KnownHostsPath        string
	InsecureIgnoreHostKey bool
}

func (c Config) withDefaults() Config {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.ChannelTimeout <= 0 {
		c.ChannelTimeout = DefaultChannelTimeout
	}
	return c
}

func (c Config) validate() error {
	var missing []string
	if c.Host == "" {
		missing = append(missing, "host")
	}
	if c.Username == "" {
		missing = append(missing, "username")
	}
	if c.PrivateKeyPath == "" {
		missing = append(missing, "private_key_path")
	}
	if c.UploadPath == "" {
		missing = append(missing, "upload_path")
	}
	if len(missing) > 0 {
		return siack.StorageErrorf("configure", "", siack.ErrConfiguration, "missing %s", strings.Join(missing, ", "))
	}
	if c.Port < 1 || c.Port > 65535 {
		return siack.StorageErrorf("configure", "", siack.ErrConfiguration, "invalid port %d", c.Port)
	}
	return nil
}

// Store implements siack.Storage over SFTP. It holds only configuration and
// is safe for concurrent use.
type Store struct {
	cfg    Config
	dialer Dialer
}

// Option configures a Store.
type Option func(*Store)

// WithDialer replaces the SSH dialer, typically with a test double.
func WithDialer(d Dialer) Option {
	return func(s *Store) {
		s.dialer = d
	}
}

// New validates cfg and returns a Store. The private key is not read until
// the first operation.
func New(cfg Config, opts ...Option) (*Store, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.UploadPath = path.Clean(cfg.UploadPath)

	s := &Store{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.dialer == nil {
		s.dialer = NewSSHDialer(cfg)
	}
	return s, nil
}

// Read returns the whole remote file at p.
func (s *Store) Read(ctx context.Context, p string) ([]byte, error) {
	var data []byte
	err := s.withSession(ctx, "read", p, func(ch Channel) error {
		f, err := ch.Open(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return siack.NewStorageError("read", p, siack.ErrNotFound, err)
			}
			return siack.NewStorageError("read", p, siack.ErrTransfer, err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil {
				slog.Warn("failed to close remote file", "path", p, "err", closeErr)
			}
		}()

		b, err := io.ReadAll(f)
		if err != nil {
			return siack.NewStorageError("read", p, siack.ErrTransfer, err)
		}
		data = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Write classifies the extension, provisions <upload_path>/<category> one
// component at a time, uploads to a temporary name and renames it into place.
func (s *Store) Write(ctx context.Context, content []byte, extension string) (siack.StorageResult, error) {
	category, ext, err := siack.ClassifyExtension(extension)
	if err != nil {
		return siack.StorageResult{}, err
	}

	storedName := siack.NewStoredName(ext)
	dir := path.Join(s.cfg.UploadPath, category)
	fullPath := path.Join(dir, storedName)

	err = s.withSession(ctx, "write", fullPath, func(ch Channel) error {
		if err := ensureDir(ch, dir); err != nil {
			return siack.NewStorageError("write", fullPath, siack.ErrTransfer, err)
		}

		tmp := path.Join(dir, ".t"+uuid.New().String())
		if err := upload(ch, tmp, content); err != nil {
			removeQuietly(ch, tmp)
			return siack.NewStorageError("write", fullPath, siack.ErrTransfer, err)
		}

		if err := ch.Rename(tmp, fullPath); err != nil {
			removeQuietly(ch, tmp)
			return siack.NewStorageError("write", fullPath, siack.ErrTransfer, fmt.Errorf("rename: %w", err))
		}
		return nil
	})
	if err != nil {
		return siack.StorageResult{}, err
	}

	slog.Info("stored object", "backend", "remote", "host", s.cfg.Host, "path", fullPath, "bytes", len(content))

	return siack.StorageResult{
		StoredName: storedName,
		FullPath:   fullPath,
		Category:   category,
		Extension:  ext,
	}, nil
}

// Remove deletes the remote file at p.
func (s *Store) Remove(ctx context.Context, p string) error {
	return s.withSession(ctx, "remove", p, func(ch Channel) error {
		if err := ch.Remove(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return siack.NewStorageError("remove", p, siack.ErrNotFound, err)
			}
			return siack.NewStorageError("remove", p, siack.ErrTransfer, err)
		}
		return nil
	})
}

// withSession runs fn with a fresh channel. The channel and then the
// transport are closed on every return path.
func (s *Store) withSession(ctx context.Context, op, p string, fn func(Channel) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tr, err := s.dialer.Dial(ctx)
	if err != nil {
		kind := siack.ErrConnect
		if errors.Is(err, siack.ErrConfiguration) {
			kind = siack.ErrConfiguration
		}
		return siack.NewStorageError(op, p, kind, err)
	}
	defer func() {
		if closeErr := tr.Close(); closeErr != nil {
			slog.Warn("failed to close ssh transport", "host", s.cfg.Host, "err", closeErr)
		}
	}()

	ch, err := tr.OpenChannel(ctx, s.cfg.ChannelTimeout)
	if err != nil {
		return siack.NewStorageError(op, p, siack.ErrConnect, err)
	}
	defer func() {
		if closeErr := ch.Close(); closeErr != nil {
			slog.Warn("failed to close sftp channel", "host", s.cfg.Host, "err", closeErr)
		}
	}()

	return fn(ch)
}

// ensureDir creates every missing component of dir. A component created
// concurrently by another writer is not an error.
func ensureDir(ch Channel, dir string) error {
	current := ""
	if strings.HasPrefix(dir, "/") {
		current = "/"
	}

	for _, part := range strings.Split(strings.Trim(dir, "/"), "/") {
		if part == "" || part == "." {
			continue
		}
		current = path.Join(current, part)

		info, err := ch.Stat(current)
		switch {
		case err == nil:
			if !info.IsDir() {
				return fmt.Errorf("stat %s: not a directory", current)
			}
			continue
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("stat %s: %w", current, err)
		}

		if mkErr := ch.Mkdir(current); mkErr != nil {
			if info, statErr := ch.Stat(current); statErr == nil && info.IsDir() {
				continue
			}
			return fmt.Errorf("mkdir %s: %w", current, mkErr)
		}
	}
	return nil
}

func upload(ch Channel, p string, content []byte) error {
	f, err := ch.Create(p)
	if err != nil {
		return fmt.Errorf("create %s: %w", p, err)
	}

	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("put %s: %w", p, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", p, err)
	}
	return nil
}

func removeQuietly(ch Channel, p string) {
	if err := ch.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to remove remote tmp file", "path", p, "err", err)
	}
}
