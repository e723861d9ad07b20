// Package storage selects and constructs the single storage backend used by
// a siack process.
package storage

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dakgu/siack"
	"github.com/dakgu/siack/filesystem"
	"github.com/dakgu/siack/sftpstore"
)

// LocalConfig configures the filesystem backend.
type LocalConfig struct {
	Path         string `mapstructure:"path"`
	ConfineReads bool   `mapstructure:"confine_reads"`
}

// RemoteConfig configures the SFTP backend.
type RemoteConfig struct {
	Host                  string `mapstructure:"host"`
	Port                  int    `mapstructure:"port" validate:"min=0,max=65535"`
	Username              string `mapstructure:"username"`
	PrivateKeyPath        string `mapstructure:"private_key_path"`
	PrivateKeyPassphrase  string `mapstructure:"private_key_passphrase"`
	ConnectTimeoutMS      int    `mapstructure:"connect_timeout_ms" validate:"min=0"`
	ChannelTimeoutMS      int    `mapstructure:"channel_timeout_ms" validate:"min=0"`
	UploadPath            string `mapstructure:"upload_path"`
	KnownHostsPath        string `mapstructure:"known_hosts_path"`
	InsecureIgnoreHostKey bool   `mapstructure:"insecure_ignore_host_key"`
}

// Config holds the storage section of the configuration.
type Config struct {
	Backend string       `mapstructure:"backend" validate:"required,oneof=local remote"`
	Local   LocalConfig  `mapstructure:"local"`
	Remote  RemoteConfig `mapstructure:"remote"`
}

// Validate checks the settings required by the selected backend.
func (c Config) Validate() error {
	backend, err := siack.ParseBackendType(c.Backend)
	if err != nil {
		return fmt.Errorf("validate storage: %w", err)
	}

	var missing []string
	switch backend {
	case siack.BackendLocal:
		if c.Local.Path == "" {
			missing = append(missing, "storage.local.path")
		}
	case siack.BackendRemote:
		r := c.Remote
		for key, val := range map[string]string{
			"storage.remote.host":             r.Host,
			"storage.remote.username":         r.Username,
			"storage.remote.private_key_path": r.PrivateKeyPath,
			"storage.remote.upload_path":      r.UploadPath,
		} {
			if val == "" {
				missing = append(missing, key)
			}
		}
	}

	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("validate storage: %s backend requires %s: %w", backend, strings.Join(missing, ", "), siack.ErrConfiguration)
	}
	return nil
}

// Open constructs exactly one backend for cfg.Backend. The returned cleanup
// function releases backend resources and must be called on shutdown.
func Open(cfg Config) (siack.Storage, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	switch siack.BackendType(cfg.Backend) {
	case siack.BackendLocal:
		return openLocal(cfg.Local)
	default:
		return openRemote(cfg.Remote)
	}
}

func openLocal(cfg LocalConfig) (siack.Storage, func(), error) {
	store, err := filesystem.Open(cfg.Path, filesystem.WithConfinedReads(cfg.ConfineReads))
	if err != nil {
		return nil, nil, fmt.Errorf("open local storage: %w", err)
	}

	slog.Info("storage backend ready", "backend", siack.BackendLocal, "path", store.Dir(), "confine_reads", cfg.ConfineReads)

	cleanup := func() {
		if err := store.Close(); err != nil {
			slog.Warn("failed to close local storage", "err", err)
		}
	}
	return store, cleanup, nil
}

func openRemote(cfg RemoteConfig) (siack.Storage, func(), error) {
	store, err := sftpstore.New(sftpstore.Config{
		Host:                  cfg.Host,
		Port:                  cfg.Port,
		Username:              cfg.Username,
		PrivateKeyPath:        cfg.PrivateKeyPath,
		PrivateKeyPassphrase:  cfg.PrivateKeyPassphrase,
		ConnectTimeout:        time.Duration(cfg.ConnectTimeoutMS) * time.Millisecond,
		ChannelTimeout:        time.Duration(cfg.ChannelTimeoutMS) * time.Millisecond,
		UploadPath:            cfg.UploadPath,
		KnownHostsPath:        cfg.KnownHostsPath,
		InsecureIgnoreHostKey: cfg.InsecureIgnoreHostKey,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open remote storage: %w", err)
	}

	slog.Info("storage backend ready", "backend", siack.BackendRemote, "host", cfg.Host, "upload_path", cfg.UploadPath,
		"host_key_check", !cfg.InsecureIgnoreHostKey)

	return store, func() {}, nil
}
