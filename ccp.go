// ccp.go - the Console Command Processor prompt loop and built-ins

package main

import "strings"

// TransientLoader resolves a command name that is not one of the CCP's
// built-ins: first the Machine's registered-program table, then (on a
// miss) the disk-resident ".COM" loader. It returns true if the name
// was recognized at all, handled or not.
type TransientLoader func(command, args string) bool

// CCP implements the prompt loop described in spec §4.6: read a line,
// split it into COMMAND and ARGS, dispatch to a built-in or fall
// through to the transient loader.
type CCP struct {
	mem      *Memory
	disk     *VirtualDisk
	terminal Terminal
	loadFn   TransientLoader

	stopped bool
}

// NewCCP returns a CCP bound to mem, disk and terminal. loadFn is
// consulted for any command that is not one of the built-ins.
func NewCCP(mem *Memory, disk *VirtualDisk, terminal Terminal, loadFn TransientLoader) *CCP {
	return &CCP{mem: mem, disk: disk, terminal: terminal, loadFn: loadFn}
}

// Stop asks the prompt loop to exit after its current line.
func (p *CCP) Stop() {
	p.stopped = true
}

// Run drives the prompt loop until EXIT is typed or Stop is called.
// shouldStop, when non-nil, is polled once per iteration so the host
// can terminate the loop on session shutdown (spec §5 cancellation).
func (p *CCP) Run(shouldStop func() bool) {
	p.stopped = false
	for !p.stopped {
		if shouldStop != nil && shouldStop() {
			return
		}
		p.prompt()
		line := strings.TrimSpace(p.terminal.ReadLine())
		if line == "" {
			continue
		}
		p.dispatch(line)
	}
}

func (p *CCP) prompt() {
	p.terminal.WriteString(driveLetter(p.disk.CurrentDrive()) + ">")
}

func driveLetter(drive int) string {
	return string(rune('A' + drive))
}

// splitCommand splits line on the first space into COMMAND and ARGS,
// upper-cases COMMAND and trims ARGS; ARGS is empty when line has no
// space.
func splitCommand(line string) (cmd, args string) {
	idx := strings.IndexByte(line, ' ')
	if idx < 0 {
		return strings.ToUpper(line), ""
	}
	cmd = strings.ToUpper(line[:idx])
	args = strings.TrimSpace(line[idx+1:])
	return cmd, args
}

func (p *CCP) dispatch(line string) {
	cmd, args := splitCommand(line)

	// Bare "X:" switches the current drive.
	if len(cmd) == 2 && cmd[1] == ':' && cmd[0] >= 'A' && cmd[0] <= 'Z' && args == "" {
		p.disk.SetCurrentDrive(int(cmd[0] - 'A'))
		return
	}

	switch cmd {
	case "DIR":
		p.cmdDir(args)
		return
	case "TYPE":
		p.cmdType(args)
		return
	case "ERA":
		p.cmdEra(args)
		return
	case "REN":
		p.cmdRen(args)
		return
	case "USER":
		p.cmdUser(args)
		return
	case "EXIT":
		p.stopped = true
		return
	case "SAVE":
		// Design Note (d): recognized and politely refused, not
		// implemented. Real CP/M dumps N pages of the TPA to a file.
		p.terminal.WriteLine("SAVE not supported")
		return
	}

	if p.loadFn == nil || !p.loadFn(cmd, args) {
		p.terminal.WriteLine(cmd + "?")
	}
}

func (p *CCP) cmdDir(pattern string) {
	if pattern == "" {
		pattern = "*.*"
	}
	names := p.disk.ListMatching(pattern)
	if len(names) == 0 {
		p.terminal.WriteLine("No file")
		return
	}
	drivePrefix := driveLetter(p.disk.CurrentDrive()) + ": "
	for i, name := range names {
		if i%4 == 0 {
			if i > 0 {
				p.terminal.WriteString("\r\n")
			}
			p.terminal.WriteString(drivePrefix)
			drivePrefix = "" // prefix only on the first row of each block
		} else {
			p.terminal.WriteString("  ")
		}
		p.terminal.WriteString(formatDirEntry(name))
	}
	p.terminal.WriteString("\r\n")
}

// formatDirEntry renders a "NAME.EXT" key as "NAME     EXT": name
// padded to 8 columns, extension to 3, separated by a single space.
func formatDirEntry(name string) string {
	base, ext := splitNameExt(name)
	return padField(base, fcbNameLen) + " " + padField(ext, fcbExtLen)
}

// normalizeTypeName adds ".COM" only when the caller supplied neither a
// dot nor a wildcard, matching the CCP's general name-normalization
// rule (spec §4.6).
func normalizeTypeName(name string) string {
	if strings.ContainsAny(name, ".*?") {
		return name
	}
	return name + ".COM"
}

func (p *CCP) cmdType(name string) {
	if name == "" {
		p.terminal.WriteLine("Type what?")
		return
	}
	text, ok := p.disk.ReadText(normalizeTypeName(name))
	if !ok {
		p.terminal.WriteLine("No file")
		return
	}
	p.terminal.WriteString(text)
}

func (p *CCP) cmdEra(pattern string) {
	if pattern == "" {
		p.terminal.WriteLine("Era what?")
		return
	}
	matches := p.disk.ListMatching(pattern)
	for _, m := range matches {
		p.disk.Delete(m)
	}
}

func (p *CCP) cmdRen(spec string) {
	idx := strings.IndexByte(spec, '=')
	if idx < 0 {
		p.terminal.WriteLine("Ren what?")
		return
	}
	newName := strings.TrimSpace(spec[:idx])
	oldName := strings.TrimSpace(spec[idx+1:])
	if newName == "" || oldName == "" {
		p.terminal.WriteLine("Ren what?")
		return
	}
	if !p.disk.Rename(oldName, newName) {
		p.terminal.WriteLine(strings.ToUpper(oldName) + "?")
	}
}

func (p *CCP) cmdUser(arg string) {
	n := 0
	for _, r := range arg {
		if r < '0' || r > '9' {
			return
		}
		n = n*10 + int(r-'0')
	}
	p.disk.SetCurrentUser(n)
}
