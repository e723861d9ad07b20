package sftpstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/dakgu/siack/keybackend"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// Dialer opens the transport layer of a remote session.
type Dialer interface {
	Dial(ctx context.Context) (Transport, error)
}

// Transport is an authenticated connection to the remote host.
type Transport interface {
	// OpenChannel starts a file-transfer channel, giving up after timeout.
	OpenChannel(ctx context.Context, timeout time.Duration) (Channel, error)
	Close() error
}

// Channel is the file-transfer subset the store needs.
type Channel interface {
	Stat(p string) (os.FileInfo, error)
	Mkdir(p string) error
	Create(p string) (io.WriteCloser, error)
	Open(p string) (io.ReadCloser, error)
	// Rename moves a file into place, replacing nothing.
	Rename(oldname, newname string) error
	Remove(p string) error
	Close() error
}

// SSHDialer dials the configured host with golang.org/x/crypto/ssh. Key
// material and host keys are loaded on every dial.
type SSHDialer struct {
	cfg Config
}

// NewSSHDialer returns a Dialer for the host described by cfg.
func NewSSHDialer(cfg Config) *SSHDialer {
	return &SSHDialer{cfg: cfg}
}

// Dial opens an authenticated SSH connection, verifying the host key unless
// InsecureIgnoreHostKey is set.
func (d *SSHDialer) Dial(ctx context.Context) (Transport, error) {
	signer, err := keybackend.LoadSigner(d.cfg.PrivateKeyPath, d.cfg.PrivateKeyPassphrase)
	if err != nil {
		return nil, err
	}

	hostKeyCallback, err := keybackend.HostKeyCallback(d.cfg.KnownHostsPath, d.cfg.InsecureIgnoreHostKey)
	if err != nil {
		return nil, err
	}

	clientCfg := &ssh.ClientConfig{
		User:            d.cfg.Username,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         d.cfg.ConnectTimeout,
	}

	addr := net.JoinHostPort(d.cfg.Host, strconv.Itoa(d.cfg.Port))

	dialCtx, cancel := context.WithTimeout(ctx, d.cfg.ConnectTimeout)
	defer cancel()

	var nd net.Dialer
	conn, err := nd.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	// The handshake shares the connect deadline.
	if deadline, ok := dialCtx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, clientCfg)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ssh handshake %s: %w", addr, err)
	}
	_ = conn.SetDeadline(time.Time{})

	return &sshTransport{client: ssh.NewClient(c, chans, reqs)}, nil
}

type sshTransport struct {
	client *ssh.Client
}

type channelResult struct {
	client *sftp.Client
	err    error
}

func (t *sshTransport) OpenChannel(ctx context.Context, timeout time.Duration) (Channel, error) {
	done := make(chan channelResult, 1)
	go func() {
		c, err := sftp.NewClient(t.client)
		done <- channelResult{client: c, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("open sftp channel: %w", res.err)
		}
		return WrapClient(res.client), nil
	case <-timer.C:
		go discardLate(done)
		return nil, fmt.Errorf("open sftp channel: timed out after %s", timeout)
	case <-ctx.Done():
		go discardLate(done)
		return nil, fmt.Errorf("open sftp channel: %w", ctx.Err())
	}
}

// discardLate closes a channel that finished opening after its caller gave up.
func discardLate(done <-chan channelResult) {
	if res := <-done; res.err == nil {
		_ = res.client.Close()
	}
}

func (t *sshTransport) Close() error {
	return t.client.Close()
}

const posixRenameExtension = "posix-rename@openssh.com"

type sftpChannel struct {
	client *sftp.Client
}

// WrapClient adapts an established *sftp.Client to Channel.
func WrapClient(c *sftp.Client) Channel {
	return &sftpChannel{client: c}
}

func (c *sftpChannel) Stat(p string) (os.FileInfo, error) {
	return c.client.Stat(p)
}

func (c *sftpChannel) Mkdir(p string) error {
	return c.client.Mkdir(p)
}

func (c *sftpChannel) Create(p string) (io.WriteCloser, error) {
	return c.client.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL)
}

func (c *sftpChannel) Open(p string) (io.ReadCloser, error) {
	return c.client.Open(p)
}

func (c *sftpChannel) Rename(oldname, newname string) error {
	if _, ok := c.client.HasExtension(posixRenameExtension); ok {
		return c.client.PosixRename(oldname, newname)
	}
	return c.client.Rename(oldname, newname)
}

func (c *sftpChannel) Remove(p string) error {
	return c.client.Remove(p)
}

func (c *sftpChannel) Close() error {
	err := c.client.Close()
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

var (
	_ Dialer  = (*SSHDialer)(nil)
	_ Channel = (*sftpChannel)(nil)
)
