package keybackend

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dakgu/siack"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// DefaultKnownHostsPath returns ~/.ssh/known_hosts.
func DefaultKnownHostsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("known hosts: %w: %w", siack.ErrConfiguration, err)
	}
	return filepath.Join(home, ".ssh", "known_hosts"), nil
}

// HostKeyCallback verifies server keys against a known_hosts file. An empty
// path selects DefaultKnownHostsPath. With insecure set every host key is
// accepted and a warning is logged.
func HostKeyCallback(path string, insecure bool) (ssh.HostKeyCallback, error) {
	if insecure {
		slog.Warn("remote host key verification is disabled")
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // explicitly requested by configuration
	}

	if path == "" {
		var err error
		if path, err = DefaultKnownHostsPath(); err != nil {
			return nil, err
		}
	}

	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("load known hosts %s: %w: %w", path, siack.ErrConfiguration, err)
	}
	return cb, nil
}
