// Package server owns the hermes network listener and its run loop: binding
// the socket, spawning worker processes that share it, and driving the
// serving state machine to an orderly stop.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"sync"
	"time"

	"hermes/metrics"

	"go.uber.org/zap"
)

// ErrBind is returned when the listener cannot be bound, e.g. the port is
// already in use or requires privileges the process lacks. Bind failures are
// fatal; the deployment model treats them as non-transient.
var ErrBind = errors.New("bind failed")

// State is the lifecycle state of the listener.
type State int32

const (
	Unbound State = iota
	Bound
	Serving
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Unbound:
		return "unbound"
	case Bound:
		return "bound"
	case Serving:
		return "serving"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Supervisor binds the TCP listener and runs the configured number of worker
// processes against it. All workers accept from the one bound socket; the
// kernel distributes incoming connections.
type Supervisor struct {
	addr    string
	workers int
	handler http.Handler
	logger  *zap.SugaredLogger

	mu         sync.Mutex
	state      State
	listener   net.Listener
	httpServer *http.Server
	children   []*exec.Cmd
	stopOnce   sync.Once
}

// NewSupervisor creates a supervisor for the given listen address and worker
// count. The handler is the request layer served by each worker.
func NewSupervisor(addr string, workers int, handler http.Handler, logger *zap.SugaredLogger) *Supervisor {
	return &Supervisor{
		addr:    addr,
		workers: workers,
		handler: handler,
		logger:  logger,
		state:   Unbound,
	}
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Addr returns the bound address, useful when the configured port is 0.
func (s *Supervisor) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Bind acquires the listening socket. It transitions Unbound to Bound and is
// the only step that touches network resources; on failure nothing is leaked
// and the caller must treat the error as fatal.
func (s *Supervisor) Bind() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Unbound {
		return fmt.Errorf("cannot bind in state %s", s.state)
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBind, s.addr, err)
	}

	s.listener = listener
	s.state = Bound
	s.logger.Infow("Listener bound", "addr", listener.Addr().String(), "workers", s.workers)
	return nil
}

// Adopt takes ownership of an already-bound listener inherited from the
// parent process. Used by workers; transitions Unbound to Bound.
func (s *Supervisor) Adopt(listener net.Listener) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Unbound {
		return fmt.Errorf("cannot adopt listener in state %s", s.state)
	}
	s.listener = listener
	s.state = Bound
	return nil
}

// Serve runs the listener until the context is cancelled or Stop is called.
// With one worker it serves directly in this process; otherwise it spawns the
// worker processes and supervises them. It blocks until Stopped.
func (s *Supervisor) Serve(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Bound {
		s.mu.Unlock()
		return fmt.Errorf("cannot serve in state %s", s.state)
	}
	s.mu.Unlock()

	if s.workers <= 1 {
		return s.serveHere(ctx)
	}
	return s.superviseWorkers(ctx)
}

// serveHere runs the HTTP loop on the bound listener in this process.
func (s *Supervisor) serveHere(ctx context.Context) error {
	s.mu.Lock()
	s.httpServer = &http.Server{Handler: s.handler}
	s.state = Serving
	listener := s.listener
	s.mu.Unlock()

	s.logger.Infow("Serving", "addr", listener.Addr().String())
	metrics.WorkersRunning.Set(1)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	err := s.httpServer.Serve(listener)
	s.Stop()
	if errors.Is(err, http.ErrServerClosed) || errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// superviseWorkers spawns the worker processes, each inheriting the bound
// listener file, then waits for shutdown or for all workers to exit.
func (s *Supervisor) superviseWorkers(ctx context.Context) error {
	tcpListener, ok := s.listener.(*net.TCPListener)
	if !ok {
		return fmt.Errorf("listener %T cannot be shared with workers", s.listener)
	}
	listenerFile, err := tcpListener.File()
	if err != nil {
		return fmt.Errorf("failed to dup listener for workers: %w", err)
	}
	defer listenerFile.Close()

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to resolve own executable: %w", err)
	}

	s.mu.Lock()
	for i := 0; i < s.workers; i++ {
		cmd := exec.Command(executable, os.Args[1:]...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		cmd.ExtraFiles = []*os.File{listenerFile}
		cmd.Env = append(os.Environ(),
			fmt.Sprintf("%s=%d", workerFDEnv, workerFDStart),
			fmt.Sprintf("%s=%d", workerIDEnv, i),
		)
		if err := cmd.Start(); err != nil {
			s.mu.Unlock()
			s.Stop()
			return fmt.Errorf("failed to spawn worker %d: %w", i, err)
		}
		s.children = append(s.children, cmd)
		s.logger.Infow("Worker spawned", "worker", i, "pid", cmd.Process.Pid)
	}
	s.state = Serving
	children := append([]*exec.Cmd(nil), s.children...)
	s.mu.Unlock()

	metrics.WorkersRunning.Set(float64(len(children)))

	done := make(chan struct{})
	go func() {
		for _, child := range children {
			if err := child.Wait(); err != nil && ctx.Err() == nil {
				s.logger.Warnw("Worker exited abnormally", "pid", child.Process.Pid, "error", err)
			}
			metrics.WorkersRunning.Dec()
		}
		close(done)
	}()

	select {
	case <-ctx.Done():
		s.Stop()
		<-done
	case <-done:
		s.Stop()
	}
	return nil
}

// Stop drives Serving through Stopping to Stopped: stop accepting new
// connections, stop the loop, interrupt workers. There is no drain period;
// in-flight requests are not guaranteed to complete.
func (s *Supervisor) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		if s.state == Serving {
			s.state = Stopping
			s.logger.Info("Stopping listener")
		}
		httpServer := s.httpServer
		listener := s.listener
		children := append([]*exec.Cmd(nil), s.children...)
		s.mu.Unlock()

		for _, child := range children {
			if child.Process != nil {
				_ = child.Process.Signal(os.Interrupt)
			}
		}
		if httpServer != nil {
			_ = httpServer.Close()
		} else if listener != nil {
			_ = listener.Close()
		}

		// Give interrupted workers a moment before they are reaped by
		// superviseWorkers; a worker that ignores the signal is killed.
		if len(children) > 0 {
			time.AfterFunc(10*time.Second, func() {
				for _, child := range children {
					if child.Process != nil {
						_ = child.Process.Kill()
					}
				}
			})
		}

		s.mu.Lock()
		s.state = Stopped
		s.mu.Unlock()
	})
}
