// session.go - one Machine per terminal connection, run on its own
// execution context (spec §5 concurrency model).
//
// Grounded the same way the teacher's IPCServer (runtime_ipc.go) guards
// its listener lifecycle: a done channel closed once the worker
// goroutine exits, and a sync.Once so repeated Stop calls are safe.

package main

import (
	"fmt"
	"sync"
)

// Session owns one Machine, its terminal, and the goroutine that runs
// the Machine's CCP loop. Sessions share no mutable state with each
// other; the only shared structure across sessions is the SessionRegistry.
type Session struct {
	ID       string
	Machine  *Machine
	terminal *BufferedTerminal
	gateway  *HostDiskGateway

	stopping sync.Once
	stopped  chan struct{}
	stopFlag struct {
		mu sync.Mutex
		v  bool
	}
}

// NewSession constructs a Machine bound to a fresh BufferedTerminal
// whose output is routed through emit, optionally seeding the virtual
// disk from diskDir and flushing back to it on shutdown.
func NewSession(id string, diskDir string, emit func(byte)) *Session {
	term := NewBufferedTerminal(emit)
	s := &Session{
		ID:       id,
		Machine:  NewMachine(term),
		terminal: term,
		stopped:  make(chan struct{}),
	}
	if diskDir != "" {
		s.gateway = NewHostDiskGateway(diskDir)
	}
	return s
}

// Terminal returns the session's BufferedTerminal, for wiring a
// TerminalHost (or any other input source) into it before Run.
func (s *Session) Terminal() *BufferedTerminal {
	return s.terminal
}

// RegisterProgram exposes Machine.RegisterProgram before Start.
func (s *Session) RegisterProgram(name string, handler ProgramHandler) {
	s.Machine.RegisterProgram(name, handler)
}

// Input delivers one incoming byte from the transport into the
// session's terminal input queue.
func (s *Session) Input(b byte) {
	s.terminal.EnqueueByte(b)
}

// shouldStop reports whether Stop has been called; passed to the CCP
// loop so it observes shutdown instead of running forever.
func (s *Session) shouldStop() bool {
	s.stopFlag.mu.Lock()
	defer s.stopFlag.mu.Unlock()
	return s.stopFlag.v
}

// Run boots the Machine and blocks until its CCP loop exits, either
// because a guest EXIT was typed or Stop was called. Any uncaught
// systems-level failure is reported through the terminal as a single
// "System error: <message>" line before Run returns (spec §7). Callers
// typically invoke Run in its own goroutine, one per connection.
func (s *Session) Run() {
	defer close(s.stopped)
	defer s.flush()

	if s.gateway != nil {
		if err := s.gateway.Load(s.Machine.Disk); err != nil {
			s.terminal.WriteLine(fmt.Sprintf("System error: %v", err))
			return
		}
	}

	defer func() {
		if r := recover(); r != nil {
			s.terminal.WriteLine(fmt.Sprintf("System error: %v", r))
		}
	}()

	s.Machine.Start(s.shouldStop)
}

func (s *Session) flush() {
	if s.gateway == nil {
		return
	}
	_ = s.gateway.Flush(s.Machine.Disk)
}

// Stop marks the session for shutdown: it halts the CPU, so a running
// ".COM" file stops stepping at its next instruction boundary, and sets
// the flag the CCP loop checks between lines. A read blocked waiting for
// terminal input (the CCP's ReadLine or a guest console read) is not
// interrupted; the CCP loop exits once that line has been read and
// dispatched. Stop does not wait for Run to return; use Wait for that.
func (s *Session) Stop() {
	s.stopping.Do(func() {
		s.stopFlag.mu.Lock()
		s.stopFlag.v = true
		s.stopFlag.mu.Unlock()
		s.Machine.Stop()
	})
}

// Wait blocks until Run has returned.
func (s *Session) Wait() {
	<-s.stopped
}

// SessionRegistry maps connection identifiers to their Session, guarded
// by a mutex at insert/remove boundaries only (spec §5 isolation: the
// session itself is owned by its own execution context, never the
// registry).
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionRegistry returns an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*Session)}
}

// Insert adds s under s.ID.
func (r *SessionRegistry) Insert(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

// Remove deletes the session registered under id, if any.
func (r *SessionRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Get returns the session registered under id, if any.
func (r *SessionRegistry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Len reports the number of active sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
