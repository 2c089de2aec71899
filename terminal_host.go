//go:build !windows

package main

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"
)

func init() {
	compiledFeatures = append(compiledFeatures, "terminal-host:unix")
}

// TerminalHost reads raw stdin and feeds bytes into a BufferedTerminal.
// Only instantiated in main.go for interactive use — never in tests.
type TerminalHost struct {
	terminal     *BufferedTerminal
	stopCh       chan struct{}
	done         chan struct{}
	stopped      sync.Once
	fd           int
	nonblockSet  bool
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

// Start puts stdin in raw, non-blocking mode and begins reading in a
// goroutine. Call Stop() to restore stdin.
func (h *TerminalHost) Start() {
	h.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "terminal_host: failed to set raw mode: %v\n", err)
		close(h.done)
		return
	}
	h.oldTermState = oldState

	if err := syscall.SetNonblock(h.fd, true); err != nil {
		fmt.Fprintf(os.Stderr, "terminal_host: failed to set nonblocking stdin: %v\n", err)
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
		close(h.done)
		return
	}
	h.nonblockSet = true

	go func() {
		defer close(h.done)
		buf := make([]byte, 1)

		for {
			select {
			case <-h.stopCh:
				return
			default:
			}

			n, err := syscall.Read(h.fd, buf)
			if n > 0 {
				b := buf[0]
				// Raw mode sends CR for Enter, which ReadLine already
				// treats as a line terminator, so it passes through
				// unchanged. DEL (0x7F), which many terminals send for
				// the Backspace key, is mapped to BS.
				if b == 0x7F {
					b = charBackspace
				}
				h.terminal.EnqueueByte(b)
			}
			if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
				time.Sleep(5 * time.Millisecond)
				continue
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

// Stop terminates the stdin reading goroutine and restores stdin to
// blocking, cooked mode.
func (h *TerminalHost) Stop() {
	h.stopped.Do(func() {
		close(h.stopCh)
	})
	<-h.done
	if h.nonblockSet {
		_ = syscall.SetNonblock(h.fd, false)
		h.nonblockSet = false
	}
	if h.oldTermState != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
	}
}
