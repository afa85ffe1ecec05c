package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"ikedadada/go-onionctl/internal/domain/entity"
	"ikedadada/go-onionctl/internal/domain/repository"
	vo "ikedadada/go-onionctl/internal/domain/value_object"
	"ikedadada/go-onionctl/internal/usecase/service"
)

// ListenerHandle is the locally bound listener a hidden service is attached
// to. The use case observes and augments it but does not own the socket.
type ListenerHandle interface {
	// LocalPort is the bound loopback port the service forwards to.
	LocalPort() uint16
	// OnClose registers fn to run once when the listener closes. If it is
	// already closed fn runs immediately.
	OnClose(fn func())
	// Publish swaps the reported address and fires readiness.
	Publish(addr vo.OnionAddress)
	// Fail fires readiness with err.
	Fail(err error)
	Close() error
}

// AttachOnionInput starts one attachment.
type AttachOnionInput struct {
	Listener ListenerHandle
	Options  vo.OnionOptions
}

// AttachOnionOutput describes the finished session.
type AttachOnionOutput struct {
	SessionID string          `json:"session_id"`
	Dialect   vo.Dialect      `json:"dialect"`
	Address   vo.OnionAddress `json:"-"`
	State     vo.SessionState `json:"state"`
	Failed    bool            `json:"failed"`
}

// AttachOnionUseCase publishes a listener as a hidden service and keeps the
// two tied together. Handle returns when the session ends: after a failure,
// or once either the listener or the control channel closes.
type AttachOnionUseCase interface {
	Handle(ctx context.Context, in AttachOnionInput) (AttachOnionOutput, error)
}

type attachOnionUseCaseImpl struct {
	dialer     service.ControlDialer
	parser     service.ControlLineParser
	negotiator service.DialectNegotiator
	keys       repository.KeyMaterialRepository
	strategies map[vo.Dialect]service.AttachmentStrategy
	logger     *slog.Logger
}

// NewAttachOnionUseCase wires the controller. Each strategy serves the
// dialect it reports.
func NewAttachOnionUseCase(
	d service.ControlDialer,
	p service.ControlLineParser,
	n service.DialectNegotiator,
	keys repository.KeyMaterialRepository,
	logger *slog.Logger,
	strategies ...service.AttachmentStrategy,
) AttachOnionUseCase {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m := make(map[vo.Dialect]service.AttachmentStrategy, len(strategies))
	for _, s := range strategies {
		m[s.Dialect()] = s
	}
	return &attachOnionUseCaseImpl{dialer: d, parser: p, negotiator: n, keys: keys, strategies: m, logger: logger}
}

func (uc *attachOnionUseCaseImpl) Handle(ctx context.Context, in AttachOnionInput) (AttachOnionOutput, error) {
	sess := entity.NewControlSession(in.Options.ResolvePort())
	a := &attachment{
		uc:     uc,
		sess:   sess,
		in:     in,
		logger: uc.logger.With("session", sess.ID().String()),
	}
	err := a.run(ctx)
	return a.output(), err
}

// attachment is the state of one Handle call. Everything except
// listenerClosed is touched only by the goroutine running Handle.
type attachment struct {
	uc     *attachOnionUseCaseImpl
	sess   *entity.ControlSession
	in     AttachOnionInput
	logger *slog.Logger

	ch          service.ControlChannel
	strategy    service.AttachmentStrategy
	req         service.AttachRequest
	getinfoOpen bool
	failed      bool

	listenerClosed atomic.Bool
}

func (a *attachment) run(ctx context.Context) error {
	if err := a.in.Options.Validate(); err != nil {
		return a.fail(fmt.Errorf("invalid onion options: %w", err))
	}
	if err := a.sess.Transition(vo.StateConnecting); err != nil {
		return a.fail(err)
	}
	a.logger.Debug("opening control channel", "port", a.sess.Port(), "local_port", a.in.Listener.LocalPort())

	ch, err := a.uc.dialer.Dial(ctx)
	if err != nil {
		return a.fail(fmt.Errorf("%w: %v", ErrChannelUnavailable, err))
	}
	a.ch = ch
	defer ch.Close()

	if err := a.sess.Transition(vo.StateNegotiating); err != nil {
		return a.fail(err)
	}
	// The daemon drops services added over this connection when it closes,
	// so listener and channel go down together.
	a.in.Listener.OnClose(func() {
		a.listenerClosed.Store(true)
		ch.Close()
	})
	stop := context.AfterFunc(ctx, func() { ch.Close() })
	defer stop()

	if err := a.uc.negotiator.Query(ch); err != nil {
		return a.fail(a.channelError(ctx, err))
	}

	for {
		line, err := ch.ReadLine()
		if err != nil {
			return a.channelEnded(ctx, err)
		}
		ev := a.uc.parser.Parse(line)
		a.logger.Debug("control reply", "kind", ev.Kind.String(), "state", a.sess.State().String())
		if ev.Kind == vo.EventUnrecognized {
			return a.fail(&ProtocolViolationError{Line: ev.Raw, Reason: "unrecognized reply"})
		}
		if err := a.dispatch(ctx, ev); err != nil {
			return a.fail(err)
		}
	}
}

func (a *attachment) dispatch(ctx context.Context, ev vo.ControlEvent) error {
	switch a.sess.State() {
	case vo.StateNegotiating:
		if ev.Kind != vo.EventVersionInfo {
			return &ProtocolViolationError{Line: ev.Raw, Reason: "expected version reply"}
		}
		return a.negotiated(ctx, ev.Value)

	case vo.StateAttaching:
		// GETINFO ends with its own 250 OK, which arrives ahead of any reply
		// to the attach command. A strategy line showing up first means the
		// daemon did not send one.
		if a.getinfoOpen {
			a.getinfoOpen = false
			if ev.Kind == vo.EventCommandOK {
				return nil
			}
		}
		done, err := a.strategy.Handle(a.sess, a.req, ev)
		if err != nil {
			return err
		}
		if done {
			return a.attached()
		}
		return nil

	default:
		return &ProtocolViolationError{Line: ev.Raw, Reason: "unexpected reply in state " + a.sess.State().String()}
	}
}

func (a *attachment) negotiated(ctx context.Context, version string) error {
	d := a.uc.negotiator.Select(version)
	if err := a.sess.SetDialect(d); err != nil {
		return err
	}
	strategy, ok := a.uc.strategies[d]
	if !ok {
		return fmt.Errorf("no attachment strategy for dialect %s", d)
	}
	a.strategy = strategy
	a.logger.Info("negotiated control dialect", "version", version, "dialect", d.String())

	a.req = service.AttachRequest{
		LocalPort: a.in.Listener.LocalPort(),
		Options:   a.in.Options,
		Stored:    a.storedKey(),
	}
	lines, err := strategy.Attach(a.sess, a.req)
	if err != nil {
		return err
	}
	if err := a.sess.Transition(vo.StateAttaching); err != nil {
		return err
	}
	a.getinfoOpen = true
	for _, l := range lines {
		if err := a.ch.WriteLine(l); err != nil {
			return a.channelError(ctx, err)
		}
	}
	return nil
}

// storedKey loads a previous credential. Without caching any stored copy is
// removed instead. Load failures mean "no credential".
func (a *attachment) storedKey() vo.KeyBlob {
	ref := a.in.Options.KeyRef
	if !a.in.Options.CacheKeyMaterial {
		if err := a.uc.keys.Delete(ref); err != nil {
			a.logger.Warn("could not remove cached key material", "ref", ref.String(), "err", err)
		}
		return vo.KeyBlob{}
	}
	blob, err := a.uc.keys.Load(ref)
	if err != nil {
		a.logger.Warn("could not load key material, requesting a new identity", "ref", ref.String(), "err", err)
		return vo.KeyBlob{}
	}
	if !blob.IsEmpty() {
		a.logger.Info("reusing stored key material", "ref", ref.String(), "kind", string(blob.Kind()), "service_id", blob.Name().String())
	}
	return blob
}

func (a *attachment) attached() error {
	if err := a.sess.Transition(vo.StateAttached); err != nil {
		return err
	}
	addr, _ := a.sess.Address()
	a.in.Listener.Publish(addr)
	a.logger.Info("onion service published", "address", addr.String(), "dialect", a.sess.Dialect().String())
	return nil
}

// channelEnded handles the end of the reply stream. After attachment this is
// an orderly close from either side; before it, the attachment failed.
func (a *attachment) channelEnded(ctx context.Context, err error) error {
	if a.sess.State() != vo.StateAttached {
		return a.fail(a.channelError(ctx, err))
	}
	a.in.Listener.Close()
	if terr := a.sess.Transition(vo.StateClosed); terr != nil {
		return terr
	}
	a.logger.Info("onion service closed", "listener_closed", a.listenerClosed.Load())
	if ctx.Err() != nil && !a.listenerClosed.Load() {
		return ctx.Err()
	}
	return nil
}

// channelError names why reading or writing the channel failed.
func (a *attachment) channelError(ctx context.Context, err error) error {
	switch {
	case a.listenerClosed.Load():
		return ErrListenerClosed
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, io.EOF):
		return fmt.Errorf("%w: closed by daemon", ErrChannelUnavailable)
	default:
		return fmt.Errorf("%w: %v", ErrChannelUnavailable, err)
	}
}

// fail ends the session: readiness waiters get err and the listener (and
// with it the channel) is closed.
func (a *attachment) fail(err error) error {
	a.failed = true
	if terr := a.sess.Transition(vo.StateFailed); terr != nil {
		a.logger.Debug("session already past failure point", "err", terr)
	}
	a.logger.Error("onion attachment failed", "state", a.sess.State().String(), "err", err)
	a.in.Listener.Fail(err)
	a.in.Listener.Close()
	if a.ch != nil {
		a.ch.Close()
	}
	_ = a.sess.Transition(vo.StateClosed)
	return err
}

func (a *attachment) output() AttachOnionOutput {
	addr, _ := a.sess.Address()
	return AttachOnionOutput{
		SessionID: a.sess.ID().String(),
		Dialect:   a.sess.Dialect(),
		Address:   addr,
		State:     a.sess.State(),
		Failed:    a.failed,
	}
}
