package keybackend_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"net"
	"path/filepath"
	"testing"

	"github.com/dakgu/siack"
	"github.com/dakgu/siack/keybackend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

func newHostKey(t *testing.T) ssh.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	key, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)
	return key
}

func TestHostKeyCallback_KnownHosts(t *testing.T) {
	t.Parallel()

	known := newHostKey(t)
	other := newHostKey(t)
	path := writeTestFile(t, knownhosts.Line([]string{"files.example.com"}, known)+"\n")
	addr := &net.TCPAddr{IP: net.ParseIP("192.0.2.10"), Port: 22}

	cb, err := keybackend.HostKeyCallback(path, false)
	require.NoError(t, err)

	assert.NoError(t, cb("files.example.com:22", addr, known))
	assert.Error(t, cb("files.example.com:22", addr, other))
	assert.Error(t, cb("unknown.example.com:22", addr, known))
}

func TestHostKeyCallback_Insecure(t *testing.T) {
	t.Parallel()

	cb, err := keybackend.HostKeyCallback(filepath.Join(t.TempDir(), "missing"), true)
	require.NoError(t, err)

	assert.NoError(t, cb("anything:22", &net.TCPAddr{}, newHostKey(t)))
}

func TestHostKeyCallback_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := keybackend.HostKeyCallback(filepath.Join(t.TempDir(), "missing"), false)
	assert.ErrorIs(t, err, siack.ErrConfiguration)
}
