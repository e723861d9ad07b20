package keybackend_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/dakgu/siack"
	"github.com/dakgu/siack/keybackend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func writeTestFile(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "key")
	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err)

	return path
}

func generateKey(t *testing.T, passphrase string) (ed25519.PublicKey, string) {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	var block *pem.Block
	if passphrase == "" {
		block, err = ssh.MarshalPrivateKey(priv, "test")
	} else {
		block, err = ssh.MarshalPrivateKeyWithPassphrase(priv, "test", []byte(passphrase))
	}
	require.NoError(t, err)

	return pub, string(pem.EncodeToMemory(block))
}

func TestLoadSigner_Valid(t *testing.T) {
	t.Parallel()

	pub, key := generateKey(t, "")
	path := writeTestFile(t, key)

	signer, err := keybackend.LoadSigner(path, "")
	require.NoError(t, err)

	want, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)
	assert.Equal(t, want.Marshal(), signer.PublicKey().Marshal())
}

func TestLoadSigner_Passphrase(t *testing.T) {
	t.Parallel()

	_, key := generateKey(t, "hunter22")
	path := writeTestFile(t, key)

	_, err := keybackend.LoadSigner(path, "hunter22")
	require.NoError(t, err)

	_, err = keybackend.LoadSigner(path, "")
	assert.ErrorIs(t, err, siack.ErrConfiguration)
	assert.ErrorContains(t, err, "passphrase required")

	_, err = keybackend.LoadSigner(path, "wrong")
	assert.ErrorIs(t, err, siack.ErrConfiguration)
}

func TestLoadSigner_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{name: "empty path", path: func(*testing.T) string { return "" }},
		{name: "missing file", path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope") }},
		{name: "empty file", path: func(t *testing.T) string { return writeTestFile(t, "  \n") }},
		{name: "garbage", path: func(t *testing.T) string { return writeTestFile(t, "not a key") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := keybackend.LoadSigner(tt.path(t), "")
			assert.ErrorIs(t, err, siack.ErrConfiguration)
		})
	}
}

func TestReadSecretFile(t *testing.T) {
	t.Parallel()

	secret, err := keybackend.ReadSecretFile(writeTestFile(t, "  s3cr3t\n"))
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", secret)

	_, err = keybackend.ReadSecretFile(writeTestFile(t, "\n"))
	assert.ErrorIs(t, err, keybackend.ErrEmptyKey)
	assert.ErrorIs(t, err, siack.ErrConfiguration)

	_, err = keybackend.ReadSecretFile(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, siack.ErrConfiguration)
}

func TestResolveSecret(t *testing.T) {
	t.Parallel()

	path := writeTestFile(t, "from-file")

	tests := []struct {
		name    string
		cfg     keybackend.SecretConfig
		want    string
		wantErr bool
	}{
		{name: "inline", cfg: keybackend.SecretConfig{Secret: "inline"}, want: "inline"},
		{name: "file wins", cfg: keybackend.SecretConfig{Secret: "inline", File: path}, want: "from-file"},
		{name: "nothing", cfg: keybackend.SecretConfig{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := keybackend.ResolveSecret(tt.cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, siack.ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
