// main.go - interactive CLI entry point
//
// Built with github.com/spf13/cobra the way oisee-z80-optimizer's
// cmd/z80opt/main.go wires flags onto a single root command, rather
// than hand-rolling flag.Parse the way a bare-stdlib CLI would.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	var diskDir string
	var bootFile string
	var showVersion bool

	root := &cobra.Command{
		Use:   "cpm8080",
		Short: "Intel 8080 / CP/M 2.2 personal computer emulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				printFeatures()
				return nil
			}
			return runInteractive(diskDir, bootFile)
		},
	}

	root.Flags().StringVar(&diskDir, "disk", "", "host directory backing the virtual disk (loaded at boot, flushed at shutdown)")
	root.Flags().StringVar(&bootFile, "boot", "", "COM file (and optional args) to auto-run once at boot, e.g. \"HELLO.COM world\"")
	root.Flags().BoolVar(&showVersion, "version", false, "print version and compiled features")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runInteractive boots a single Session against the real controlling
// terminal: stdin is put in raw mode and fed byte-by-byte into the
// session's input queue, every guest-written byte goes straight to
// stdout, and SIGINT or SIGTERM delivered to the process triggers an
// orderly session shutdown rather than killing the process
// mid-instruction. While stdin is in raw mode, a Ctrl-C keystroke
// reaches the guest as byte 0x03 and raises no signal.
func runInteractive(diskDir, bootFile string) error {
	session := NewSession("local", diskDir, func(b byte) {
		os.Stdout.Write([]byte{b})
	})
	if bootFile != "" {
		session.Machine.SetBootCommand(bootFile)
	}

	host := NewTerminalHost(session.Terminal())
	host.Start()
	defer host.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		session.Stop()
	}()

	session.Run()
	return nil
}
