// Package keybackend loads key material used by siack: the SSH identity and
// host keys of the remote storage backend and the token signing secret.
// Every failure wraps siack.ErrConfiguration.
package keybackend

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/dakgu/siack"
	"golang.org/x/crypto/ssh"
)

// LoadSigner reads a PEM or OpenSSH private key from path. passphrase may be
// empty for unencrypted keys.
func LoadSigner(path, passphrase string) (ssh.Signer, error) {
	if path == "" {
		return nil, fmt.Errorf("load private key: path is empty: %w", siack.ErrConfiguration)
	}

	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return nil, fmt.Errorf("read private key: %w: %w", siack.ErrConfiguration, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("read private key %s: %w: %w", path, ErrEmptyKey, siack.ErrConfiguration)
	}

	var signer ssh.Signer
	if passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(data, []byte(passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(data)
	}
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("parse private key %s: passphrase required: %w", path, siack.ErrConfiguration)
		}
		return nil, fmt.Errorf("parse private key %s: %w: %w", path, siack.ErrConfiguration, err)
	}

	return signer, nil
}

// ReadSecretFile returns the trimmed contents of a secret file.
func ReadSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return "", fmt.Errorf("read secret file: %w: %w", siack.ErrConfiguration, err)
	}

	secret := string(bytes.TrimSpace(data))
	if secret == "" {
		return "", fmt.Errorf("read secret file %s: %w: %w", path, ErrEmptyKey, siack.ErrConfiguration)
	}
	return secret, nil
}

// SecretConfig holds the token signing secret, inline or in a file.
type SecretConfig struct {
	Secret string `mapstructure:"secret"`
	File   string `mapstructure:"secret_file"`
}

// ResolveSecret returns the configured signing secret. The file takes
// precedence over the inline value when both are set.
func ResolveSecret(cfg SecretConfig) (string, error) {
	if cfg.File != "" {
		return ReadSecretFile(cfg.File)
	}
	if cfg.Secret == "" {
		return "", fmt.Errorf("resolve secret: no secret configured: %w", siack.ErrConfiguration)
	}
	return cfg.Secret, nil
}
