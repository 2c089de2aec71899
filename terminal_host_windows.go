//go:build windows

package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

func init() {
	compiledFeatures = append(compiledFeatures, "terminal-host:windows")
}

// TerminalHost reads raw stdin and feeds bytes into a BufferedTerminal.
// Only instantiated in main.go for interactive use - never in tests.
type TerminalHost struct {
	terminal     *BufferedTerminal
	stopCh       chan struct{}
	done         chan struct{}
	stopped      sync.Once
	fd           int
	oldTermState *term.State
}

// NewTerminalHost creates a host adapter that reads stdin into terminal.
func NewTerminalHost(terminal *BufferedTerminal) *TerminalHost {
	return &TerminalHost{
		terminal: terminal,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start puts stdin in raw mode and begins reading in a goroutine. Call
// Stop() to restore stdin.
func (h *TerminalHost) Start() {
	h.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "terminal_host: failed to set raw mode: %v\n", err)
		close(h.done)
		return
	}
	h.oldTermState = oldState

	go func() {
		defer close(h.done)
		buf := make([]byte, 1)

		for {
			select {
			case <-h.stopCh:
				return
			default:
			}

			n, err := os.Stdin.Read(buf)
			if n > 0 {
				b := buf[0]
				if b == 0x7F {
					b = charBackspace
				}
				h.terminal.EnqueueByte(b)
			}
			if err != nil {
				return
			}
			if n == 0 {
				time.Sleep(5 * time.Millisecond)
			}
		}
	}()
}

// Stop terminates the stdin reading goroutine and restores terminal state.
func (h *TerminalHost) Stop() {
	h.stopped.Do(func() {
		close(h.stopCh)
	})
	<-h.done
	if h.oldTermState != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
	}
}
