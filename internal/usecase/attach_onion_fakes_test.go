package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	vo "ikedadada/go-onionctl/internal/domain/value_object"
	"ikedadada/go-onionctl/internal/usecase/service"
)

// hangup makes the fake daemon end the stream at that point.
const hangup = "\x00hangup"

// fakeDaemon is an in-memory control channel. respond maps each written
// command to the reply lines the daemon sends back.
type fakeDaemon struct {
	mu      sync.Mutex
	written []string
	respond func(cmd string) []string

	lines     chan string
	closed    chan struct{}
	closeOnce sync.Once
	closes    atomic.Int32
}

func newFakeDaemon(respond func(cmd string) []string) *fakeDaemon {
	return &fakeDaemon{respond: respond, lines: make(chan string, 64), closed: make(chan struct{})}
}

func (d *fakeDaemon) ReadLine() (string, error) {
	select {
	case <-d.closed:
		return "", net.ErrClosed
	default:
	}
	select {
	case l := <-d.lines:
		if l == hangup {
			return "", io.EOF
		}
		return l, nil
	case <-d.closed:
		return "", net.ErrClosed
	}
}

func (d *fakeDaemon) WriteLine(l string) error {
	select {
	case <-d.closed:
		return net.ErrClosed
	default:
	}
	d.mu.Lock()
	d.written = append(d.written, l)
	d.mu.Unlock()
	if d.respond != nil {
		for _, r := range d.respond(l) {
			d.lines <- r
		}
	}
	return nil
}

func (d *fakeDaemon) Close() error {
	d.closes.Add(1)
	d.closeOnce.Do(func() { close(d.closed) })
	return nil
}

func (d *fakeDaemon) push(l string) { d.lines <- l }

func (d *fakeDaemon) commands() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.written...)
}

type fakeDialer struct {
	ch  *fakeDaemon
	err error
}

func (f fakeDialer) Dial(context.Context) (service.ControlChannel, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ch, nil
}

// fakeListener records what the use case does to the listener.
type fakeListener struct {
	port uint16

	mu         sync.Mutex
	hooks      []func()
	closed     bool
	closeCalls int
	published  []vo.OnionAddress
	failures   []error

	ready     chan struct{}
	readyOnce sync.Once
}

func newFakeListener(port uint16) *fakeListener {
	return &fakeListener{port: port, ready: make(chan struct{})}
}

func (l *fakeListener) LocalPort() uint16 { return l.port }

func (l *fakeListener) OnClose(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		fn()
		return
	}
	l.hooks = append(l.hooks, fn)
	l.mu.Unlock()
}

func (l *fakeListener) Publish(addr vo.OnionAddress) {
	l.mu.Lock()
	l.published = append(l.published, addr)
	l.mu.Unlock()
	l.readyOnce.Do(func() { close(l.ready) })
}

func (l *fakeListener) Fail(err error) {
	l.mu.Lock()
	l.failures = append(l.failures, err)
	l.mu.Unlock()
	l.readyOnce.Do(func() { close(l.ready) })
}

func (l *fakeListener) Close() error {
	l.mu.Lock()
	l.closeCalls++
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	hooks := l.hooks
	l.hooks = nil
	l.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
	return nil
}

func (l *fakeListener) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *fakeListener) snapshot() ([]vo.OnionAddress, []error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]vo.OnionAddress(nil), l.published...), append([]error(nil), l.failures...)
}

var errDial = errors.New("connection refused")

// fmtSscanPorts reads "<pub>,<local>" from an ADD_ONION command.
func fmtSscanPorts(cmd string, pub, local *int) (int, error) {
	i := strings.LastIndex(cmd, "Port=")
	if i < 0 {
		return 0, errors.New("no Port= in command")
	}
	return fmt.Sscanf(cmd[i:], "Port=%d,%d", pub, local)
}
