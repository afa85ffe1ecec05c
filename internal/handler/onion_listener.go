package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	vo "ikedadada/go-onionctl/internal/domain/value_object"
	"ikedadada/go-onionctl/internal/usecase"
)

// OnionListener is a loopback listener published as a hidden service. It
// accepts like any net.Listener; Addr switches to the onion address once
// the daemon has published it.
type OnionListener struct {
	inner  net.Listener
	logger *slog.Logger

	mu        sync.Mutex
	addr      vo.OnionAddress
	published bool
	err       error
	closed    bool
	hooks     []func()

	ready     chan struct{}
	readyOnce sync.Once

	done   chan struct{}
	out    usecase.AttachOnionOutput
	runErr error
}

var (
	_ net.Listener           = (*OnionListener)(nil)
	_ usecase.ListenerHandle = (*OnionListener)(nil)
)

// NewOnionListener wraps an already bound listener.
func NewOnionListener(inner net.Listener, logger *slog.Logger) *OnionListener {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &OnionListener{inner: inner, logger: logger, ready: make(chan struct{}), done: make(chan struct{})}
}

// Listen binds a random loopback port and starts attaching it with uc. The
// returned listener is usable at once; WaitReady reports the outcome.
func Listen(ctx context.Context, uc usecase.AttachOnionUseCase, opts vo.OnionOptions, logger *slog.Logger) (*OnionListener, error) {
	inner, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("bind loopback listener: %w", err)
	}
	l := NewOnionListener(inner, logger)
	l.Start(ctx, uc, opts)
	return l, nil
}

// Start runs the attachment in the background. Call it once.
func (l *OnionListener) Start(ctx context.Context, uc usecase.AttachOnionUseCase, opts vo.OnionOptions) {
	go func() {
		defer close(l.done)
		out, err := uc.Handle(ctx, usecase.AttachOnionInput{Listener: l, Options: opts})
		l.mu.Lock()
		l.out, l.runErr = out, err
		l.mu.Unlock()
		l.logger.Debug("attachment finished", "session", out.SessionID, "state", out.State.String(), "err", err)
	}()
}

func (l *OnionListener) Accept() (net.Conn, error) { return l.inner.Accept() }

// Addr returns the onion address after publication and the loopback
// address before.
func (l *OnionListener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.published {
		return l.addr
	}
	return l.inner.Addr()
}

func (l *OnionListener) LocalAddr() net.Addr { return l.inner.Addr() }

func (l *OnionListener) LocalPort() uint16 {
	if a, ok := l.inner.Addr().(*net.TCPAddr); ok {
		return uint16(a.Port)
	}
	return 0
}

// OnClose registers fn to run when the listener closes, or runs it now if
// it already has.
func (l *OnionListener) OnClose(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		fn()
		return
	}
	l.hooks = append(l.hooks, fn)
	l.mu.Unlock()
}

func (l *OnionListener) Publish(addr vo.OnionAddress) {
	l.readyOnce.Do(func() {
		l.mu.Lock()
		l.addr, l.published = addr, true
		l.mu.Unlock()
		close(l.ready)
	})
}

func (l *OnionListener) Fail(err error) {
	l.readyOnce.Do(func() {
		l.mu.Lock()
		l.err = err
		l.mu.Unlock()
		close(l.ready)
	})
}

// Close stops accepting and runs the close hooks. Later calls do nothing.
func (l *OnionListener) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	hooks := l.hooks
	l.hooks = nil
	l.mu.Unlock()

	err := l.inner.Close()
	for _, fn := range hooks {
		fn()
	}
	l.Fail(usecase.ErrListenerClosed)
	return err
}

// Ready is closed once the service is published or has failed.
func (l *OnionListener) Ready() <-chan struct{} { return l.ready }

// WaitReady blocks until the service is published or has failed.
func (l *OnionListener) WaitReady(ctx context.Context) (vo.OnionAddress, error) {
	select {
	case <-l.ready:
	case <-ctx.Done():
		return vo.OnionAddress{}, ctx.Err()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.addr, l.err
}

// Done is closed when the attachment session has ended.
func (l *OnionListener) Done() <-chan struct{} { return l.done }

// Result is the finished session. Valid after Done.
func (l *OnionListener) Result() (usecase.AttachOnionOutput, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out, l.runErr
}
