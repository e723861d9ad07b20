package sftpstore_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/dakgu/siack/sftpstore"
)

var errConnectionLost = errors.New("connection lost")

// recorder is an in-memory remote host that records session lifecycle events.
type recorder struct {
	mu     sync.Mutex
	events []string
	dirs   map[string]bool
	files  map[string][]byte

	openTransports int
	openChannels   int
	channelTimeout time.Duration

	dialErr    error
	channelErr error
	statErr    error
	renameErr  error
	// writeLimit fails uploads after this many bytes; negative disables it.
	writeLimit int
}

func newRecorder(dirs ...string) *recorder {
	r := &recorder{
		dirs:       map[string]bool{"/": true},
		files:      map[string][]byte{},
		writeLimit: -1,
	}
	for _, d := range dirs {
		r.dirs[d] = true
	}
	return r
}

func (r *recorder) record(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) Open() (transports, channels int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.openTransports, r.openChannels
}

func (r *recorder) ChannelTimeout() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channelTimeout
}

func (r *recorder) FileNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.files))
	for n := range r.files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *recorder) Dial(context.Context) (sftpstore.Transport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("dial")
	if r.dialErr != nil {
		return nil, r.dialErr
	}
	r.openTransports++
	return &fakeTransport{r: r}, nil
}

type fakeTransport struct {
	r *recorder
}

func (t *fakeTransport) OpenChannel(_ context.Context, timeout time.Duration) (sftpstore.Channel, error) {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	t.r.record("open-channel")
	t.r.channelTimeout = timeout
	if t.r.channelErr != nil {
		return nil, t.r.channelErr
	}
	t.r.openChannels++
	return &fakeChannel{r: t.r}, nil
}

func (t *fakeTransport) Close() error {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	t.r.record("close-transport")
	t.r.openTransports--
	return nil
}

type fakeChannel struct {
	r *recorder
}

func (c *fakeChannel) Stat(p string) (os.FileInfo, error) {
	c.r.mu.Lock()
	defer c.r.mu.Unlock()
	c.r.record("stat %s", p)
	if c.r.statErr != nil {
		return nil, c.r.statErr
	}
	if c.r.dirs[p] {
		return fakeInfo{name: path.Base(p), dir: true}, nil
	}
	if b, ok := c.r.files[p]; ok {
		return fakeInfo{name: path.Base(p), size: int64(len(b))}, nil
	}
	return nil, &fs.PathError{Op: "stat", Path: p, Err: fs.ErrNotExist}
}

func (c *fakeChannel) Mkdir(p string) error {
	c.r.mu.Lock()
	defer c.r.mu.Unlock()
	c.r.record("mkdir %s", p)
	if parent := path.Dir(p); parent != "." && !c.r.dirs[parent] {
		return &fs.PathError{Op: "mkdir", Path: p, Err: fs.ErrNotExist}
	}
	if c.r.dirs[p] {
		return &fs.PathError{Op: "mkdir", Path: p, Err: fs.ErrExist}
	}
	c.r.dirs[p] = true
	return nil
}

func (c *fakeChannel) Create(p string) (io.WriteCloser, error) {
	c.r.mu.Lock()
	defer c.r.mu.Unlock()
	c.r.record("create %s", p)
	if !c.r.dirs[path.Dir(p)] {
		return nil, &fs.PathError{Op: "create", Path: p, Err: fs.ErrNotExist}
	}
	c.r.files[p] = nil
	return &fakeWriter{r: c.r, path: p}, nil
}

func (c *fakeChannel) Open(p string) (io.ReadCloser, error) {
	c.r.mu.Lock()
	defer c.r.mu.Unlock()
	c.r.record("open %s", p)
	b, ok := c.r.files[p]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (c *fakeChannel) Rename(oldname, newname string) error {
	c.r.mu.Lock()
	defer c.r.mu.Unlock()
	c.r.record("rename %s %s", oldname, newname)
	if c.r.renameErr != nil {
		return c.r.renameErr
	}
	b, ok := c.r.files[oldname]
	if !ok {
		return &fs.PathError{Op: "rename", Path: oldname, Err: fs.ErrNotExist}
	}
	delete(c.r.files, oldname)
	c.r.files[newname] = b
	return nil
}

func (c *fakeChannel) Remove(p string) error {
	c.r.mu.Lock()
	defer c.r.mu.Unlock()
	c.r.record("remove %s", p)
	if _, ok := c.r.files[p]; !ok {
		return &fs.PathError{Op: "remove", Path: p, Err: fs.ErrNotExist}
	}
	delete(c.r.files, p)
	return nil
}

func (c *fakeChannel) Close() error {
	c.r.mu.Lock()
	defer c.r.mu.Unlock()
	c.r.record("close-channel")
	c.r.openChannels--
	return nil
}

type fakeWriter struct {
	r    *recorder
	path string
	buf  bytes.Buffer
}

func (w *fakeWriter) Write(p []byte) (int, error) {
	w.r.mu.Lock()
	defer w.r.mu.Unlock()
	if w.r.writeLimit >= 0 && w.buf.Len()+len(p) > w.r.writeLimit {
		n := w.r.writeLimit - w.buf.Len()
		w.buf.Write(p[:n])
		w.r.files[w.path] = w.buf.Bytes()
		return n, errConnectionLost
	}
	w.buf.Write(p)
	w.r.files[w.path] = w.buf.Bytes()
	return len(p), nil
}

func (w *fakeWriter) Close() error {
	return nil
}

type fakeInfo struct {
	name string
	size int64
	dir  bool
}

func (i fakeInfo) Name() string { return i.name }
func (i fakeInfo) Size() int64  { return i.size }
func (i fakeInfo) Mode() fs.FileMode {
	if i.dir {
		return fs.ModeDir | 0o755
	}
	return 0o644
}
func (i fakeInfo) ModTime() time.Time { return time.Time{} }
func (i fakeInfo) IsDir() bool        { return i.dir }
func (i fakeInfo) Sys() any           { return nil }
