// Copyright 2024-2026 Aiku AI

// Package supervisor keeps a transport connected.
//
// [Supervisor.Run] is an explicit loop: connect, serve until the transport
// returns, classify the failure, wait, and connect again. The wait depends
// on the failure's [connerr.Kind]:
//
//	rate_limited   1s, backoff unchanged
//	task_stopped   3s
//	transient      1s
//	service        current backoff (1s doubling to 60s), reset by hello
//	auth_failure   stop retrying, return ErrDeactivated
//	unknown        return the error to the caller
//
// Cancelling the context passed to Run, or calling Stop, ends the loop at
// the next connection boundary and interrupts any pending wait.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aiku/slacktail/pkg/connerr"
	"github.com/aiku/slacktail/pkg/directory"
	"github.com/aiku/slacktail/pkg/model"
)

const (
	MinBackoff = time.Second
	MaxBackoff = 60 * time.Second

	rateLimitedDelay = time.Second
	taskStoppedDelay = 3 * time.Second
	transientDelay   = time.Second
)

// ErrDeactivated is returned by Run when the service rejected the
// credentials for good.
var ErrDeactivated = errors.New("account deactivated or token invalid")

// Handler receives a connection's lifecycle and message events. The
// transport calls it synchronously from within Run.
type Handler interface {
	OnHello()
	OnMessage(evt model.Event)
}

// Transport is one connection attempt. Run blocks until the connection
// ends: nil for a clean close, a classified error otherwise. Stop may be
// called from any goroutine and more than once.
type Transport interface {
	Directory() directory.Directory
	Run(ctx context.Context, h Handler) error
	Stop()
}

// Processor handles the message events of one connection.
type Processor interface {
	Process(evt model.Event)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

type Options struct {
	// NewTransport builds a fresh, unconnected transport per attempt.
	NewTransport func() Transport
	// NewProcessor builds a fresh processor bound to the transport's
	// directory.
	NewProcessor func(dir directory.Directory) Processor
	Log          zerolog.Logger
	// Sleep defaults to a context-aware timer.
	Sleep SleepFunc
}

// Supervisor owns the outer connection lifecycle.
type Supervisor struct {
	newTransport func() Transport
	newProcessor func(dir directory.Directory) Processor
	sleep        SleepFunc
	log          zerolog.Logger

	// backoff is only touched by the Run goroutine; the transport calls
	// OnHello synchronously from that same goroutine.
	backoff  time.Duration
	attempts int

	mu        sync.Mutex
	state     State
	stopped   bool
	cancelRun context.CancelFunc
	current   Transport
}

func New(opts Options) *Supervisor {
	s := &Supervisor{
		newTransport: opts.NewTransport,
		newProcessor: opts.NewProcessor,
		sleep:        opts.Sleep,
		log:          opts.Log.With().Str("component", "supervisor").Logger(),
		backoff:      MinBackoff,
		state:        StateIdle,
	}
	if s.sleep == nil {
		s.sleep = sleepContext
	}
	return s
}

// Run connects and reconnects until the context is cancelled, Stop is
// called, the credentials are rejected, or an unclassified error occurs.
// A stop request returns nil.
func (s *Supervisor) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.stopped {
		s.state = StateStopped
		s.mu.Unlock()
		return nil
	}
	s.cancelRun = cancel
	s.mu.Unlock()

	for {
		if s.stopRequested(runCtx) {
			return s.finishStopped()
		}

		err := s.start(runCtx)

		if s.stopRequested(runCtx) {
			return s.finishStopped()
		}
		if err == nil {
			s.log.Info().Msg("Connection closed, reconnecting")
			s.backoff = MinBackoff
			continue
		}

		delay, err := s.classify(err)
		if err != nil {
			return err
		}

		s.setState(StateBackoff)
		if serr := s.sleep(runCtx, delay); serr != nil {
			return s.finishStopped()
		}
	}
}

// classify maps a failed attempt to the delay before the next one, or to
// the error Run must return.
func (s *Supervisor) classify(err error) (time.Duration, error) {
	kind := connerr.KindOf(err)
	logEvt := func(e *zerolog.Event, delay time.Duration) {
		e.Err(err).
			Str("kind", kind.String()).
			Int("attempt", s.attempts).
			Dur("delay", delay).
			Msg("Connection failed, retrying")
	}

	switch kind {
	case connerr.KindRateLimited:
		logEvt(s.log.Warn(), rateLimitedDelay)
		return rateLimitedDelay, nil
	case connerr.KindTaskStopped:
		logEvt(s.log.Warn(), taskStoppedDelay)
		return taskStoppedDelay, nil
	case connerr.KindTransient:
		logEvt(s.log.Warn(), transientDelay)
		return transientDelay, nil
	case connerr.KindService:
		delay := s.backoff
		s.backoff = min(s.backoff*2, MaxBackoff)
		logEvt(s.log.Error(), delay)
		return delay, nil
	case connerr.KindAuthFailure:
		s.log.Error().Err(err).
			Str("code", connerr.CodeOf(err)).
			Msg("Credentials rejected, giving up")
		s.setState(StateDeactivated)
		return 0, fmt.Errorf("%w: %w", ErrDeactivated, err)
	default:
		s.log.Error().Err(err).Msg("Unclassified connection failure")
		s.setState(StateStopped)
		return 0, err
	}
}

func (s *Supervisor) start(ctx context.Context) error {
	t := s.newTransport()
	p := s.newProcessor(t.Directory())

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.current = t
	s.state = StateConnecting
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.current = nil
		s.mu.Unlock()
	}()

	s.attempts++
	s.log.Debug().Int("attempt", s.attempts).Msg("Connecting")
	return t.Run(ctx, &connHandler{s: s, p: p})
}

// Stop asks Run to return. It closes the live connection, if any, and is
// safe to call repeatedly and from any goroutine.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	s.stopped = true
	cancel := s.cancelRun
	current := s.current
	s.mu.Unlock()

	if current != nil {
		current.Stop()
	}
	if cancel != nil {
		cancel()
	}
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Supervisor) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Supervisor) stopRequested(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped || ctx.Err() != nil
}

func (s *Supervisor) finishStopped() error {
	s.setState(StateStopped)
	s.log.Info().Msg("Stopped")
	return nil
}

// connHandler binds one connection's events to the supervisor and to that
// connection's processor.
type connHandler struct {
	s *Supervisor
	p Processor
}

func (h *connHandler) OnHello() {
	h.s.backoff = MinBackoff
	h.s.setState(StateConnected)
	h.s.log.Info().Int("attempt", h.s.attempts).Msg("Connected")
}

func (h *connHandler) OnMessage(evt model.Event) {
	h.p.Process(evt)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
