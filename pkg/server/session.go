package server

import (
	"context"
	stderrors "errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/vango-dev/kinesis/internal/errors"
	"github.com/vango-dev/kinesis/pkg/controller"
	"github.com/vango-dev/kinesis/pkg/dispatch"
	"github.com/vango-dev/kinesis/pkg/host"
	"github.com/vango-dev/kinesis/pkg/host/remote"
	"github.com/vango-dev/kinesis/pkg/ident"
	"github.com/vango-dev/kinesis/pkg/protocol"
	"github.com/vango-dev/kinesis/pkg/vdom"
)

// Session is one connected client.
type Session struct {
	ID      string
	Created time.Time

	conn         *websocket.Conn
	surface      *remote.Surface
	ctrl         *controller.Controller
	events       chan protocol.Event
	limiter      *rate.Limiter
	done         chan struct{}
	closeOnce    sync.Once
	writeMu      sync.Mutex
	writeTimeout time.Duration
	logger       *slog.Logger
	metrics      *metrics
}

func newSession(id string, conn *websocket.Conn, cfg Config, logger *slog.Logger, m *metrics, opts []controller.Option) *Session {
	surface := remote.New()
	logger = logger.With("session", id)
	opts = append([]controller.Option{controller.WithLogger(logger)}, opts...)
	return &Session{
		ID:           id,
		Created:      time.Now(),
		conn:         conn,
		surface:      surface,
		ctrl:         controller.New(surface, opts...),
		events:       make(chan protocol.Event, cfg.QueueSize),
		limiter:      newLimiter(cfg),
		done:         make(chan struct{}),
		writeTimeout: cfg.WriteTimeout,
		logger:       logger,
		metrics:      m,
	}
}

// newLimiter returns nil when events are not rate limited.
func newLimiter(cfg Config) *rate.Limiter {
	if cfg.EventRate <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(cfg.EventRate), cfg.EventBurst)
}

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close ends the session. It is safe to call more than once and from any
// goroutine.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

// WriteFrame sends f to the client. It implements remote.FrameWriter.
func (s *Session) WriteFrame(f *protocol.Frame) error {
	buf, err := f.Encode()
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, buf); err != nil {
		return err
	}
	s.metrics.frame(directionOut, f.Type.String())
	return nil
}

func (s *Session) sendError(code, message string, fatal bool) {
	s.metrics.error(code)
	msg := &protocol.ErrorMessage{Code: code, Message: message, Fatal: fatal}
	if err := s.WriteFrame(msg.Frame()); err != nil {
		s.logger.Debug("error frame not sent", "error", err)
	}
}

func (s *Session) flush() error {
	return s.surface.Flush(s)
}

// run mounts app, then serves queued events until the session ends. It owns
// the controller for the session's whole life.
func (s *Session) run(ctx context.Context, app vdom.Component) {
	defer s.Close()
	defer s.teardown(ctx)

	if err := s.WriteFrame((&protocol.Hello{Session: s.ID}).Frame()); err != nil {
		s.logger.Debug("hello not sent", "error", err)
		return
	}
	if err := s.ctrl.Mount(ctx, app, host.Append(s.surface.Root())); err != nil {
		s.logger.Error("mount failed", "error", err)
		s.sendError(codeOf(err), err.Error(), true)
		return
	}
	if err := s.flush(); err != nil {
		s.logger.Debug("initial flush failed", "error", err)
		return
	}
	s.logger.Info("session mounted", "nodes", s.surface.Len())

	go s.readLoop()

	for {
		select {
		case ev := <-s.events:
			if !s.handle(ctx, ev) {
				return
			}
		case <-s.done:
			return
		case <-ctx.Done():
			s.sendError(errors.CodeSessionClosed, "server shutting down", true)
			return
		}
	}
}

// handle dispatches one event and flushes the resulting ops. It reports
// false when the session must end.
func (s *Session) handle(ctx context.Context, ev protocol.Event) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ke := panicError(r)
			s.logger.Error("dispatch panic", "error", ke.FormatCompact(), "programming", errors.IsProgramming(r), "stack", string(debug.Stack()))
			s.sendError(codeOf(ke), ke.Error(), true)
			ok = false
		}
	}()

	err := s.ctrl.Dispatch(ctx, dispatch.RawEvent{Kind: ev.Kind, Value: ev.Value}, ident.ID(ev.ID))
	// A failed undo leaves the client out of step; the session cannot go on.
	fatal := errors.HasCode(err, errors.CodeRollbackFail)
	if err != nil {
		s.logger.Warn("dispatch failed", "id", ident.ID(ev.ID), "kind", ev.Kind, "error", err)
		s.sendError(codeOf(err), err.Error(), fatal)
	}
	// Ops issued by a rolled back commit are flushed too so the client ends
	// in the same state.
	if err := s.flush(); err != nil {
		s.logger.Debug("flush failed", "error", err)
		return false
	}
	return !fatal
}

func (s *Session) readLoop() {
	defer s.Close()
	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("read error", "error", err)
			}
			return
		}
		f, err := protocol.DecodeFrame(msg)
		if err != nil {
			s.logger.Warn("frame decode error", "error", err)
			s.sendError(errors.CodeFrameDecode, err.Error(), false)
			continue
		}
		s.metrics.frame(directionIn, f.Type.String())
		if f.Type != protocol.FrameEvent {
			s.logger.Debug("ignoring frame", "type", f.Type)
			continue
		}
		ev, err := protocol.DecodeEvent(f.Payload)
		if err != nil {
			s.logger.Warn("event decode error", "error", err)
			s.sendError(errors.CodeFrameDecode, err.Error(), false)
			continue
		}
		if s.limiter != nil && !s.limiter.Allow() {
			s.sendError(errors.CodeEventRate, errors.New(errors.CodeEventRate).Message, false)
			continue
		}
		select {
		case s.events <- *ev:
		case <-s.done:
			return
		default:
			s.sendError(errors.CodeEventQueueFull, errors.New(errors.CodeEventQueueFull).Message, false)
		}
	}
}

func (s *Session) teardown(ctx context.Context) {
	if s.ctrl.Status() == controller.Mounted {
		if err := s.ctrl.Unmount(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("unmount failed", "error", err)
		}
	}
	s.surface.Close()
	s.logger.Info("session closed", "duration", time.Since(s.Created))
}

// panicError turns a recovered value into a KinesisError. Engine misuse
// panics already carry their code.
func panicError(r any) *errors.KinesisError {
	if err, ok := r.(error); ok {
		return errors.FromError(err, errors.CodeSessionClosed)
	}
	return errors.Newf(errors.CategoryLifecycle, "handler panic: %v", r)
}

// codeOf picks the code reported to the client for a failed cycle.
func codeOf(err error) string {
	if errors.HasCode(err, errors.CodeRollbackFail) {
		return errors.CodeRollbackFail
	}
	var he *host.Error
	if stderrors.As(err, &he) {
		return errors.CodeHostRefused
	}
	var ke *errors.KinesisError
	if stderrors.As(err, &ke) && ke.Code != "" {
		return ke.Code
	}
	if ke != nil {
		return errors.CodeSessionClosed
	}
	return "handler"
}
