// bdos.go - the BDOS system-call dispatcher (a subset of functions 0-35)

package main

// dmaDefault is the guest address the DMA pointer starts at.
const dmaDefault uint16 = 0x0080

const recordSize = 128

// openFile tracks per-FCB sequential read/write position. Keyed by the
// FCB's guest address, matching the spec's "open-file state keyed by
// the FCB address in guest memory."
type openFile struct {
	name   string
	offset int
}

// BDOS implements CP/M 2.2 system calls 0-35 (a defined subset) against
// a virtual disk, reading the function number from C and the operand
// from DE, and returning results in A (and HL where the function
// demands it).
type BDOS struct {
	mem      *Memory
	disk     *VirtualDisk
	terminal Terminal

	dmaAddr uint16

	openFiles map[uint16]*openFile

	searchPattern string
	searchMatches []string
	searchIndex   int
}

// NewBDOS returns a BDOS with the default DMA address and no open files.
func NewBDOS(mem *Memory, disk *VirtualDisk, terminal Terminal) *BDOS {
	return &BDOS{
		mem:       mem,
		disk:      disk,
		terminal:  terminal,
		dmaAddr:   dmaDefault,
		openFiles: make(map[uint16]*openFile),
	}
}

// DMAAddress returns the current DMA pointer.
func (b *BDOS) DMAAddress() uint16 { return b.dmaAddr }

// Dispatch services one BDOS call: cpu.C selects the function, cpu.DE()
// is the operand, and the result lands in cpu.A (and cpu.HL for the
// functions that return one).
func (b *BDOS) Dispatch(cpu *CPU) {
	de := cpu.DE()
	switch cpu.C {
	case 0: // system reset: treated the same as a warm boot from BDOS
		cpu.Halted = true
	case 1: // C_READ
		cpu.A = b.terminal.ReadChar()
	case 2: // C_WRITE
		b.terminal.Write(cpu.E)
	case 6: // Direct console I/O
		if cpu.E == 0xFF {
			if b.terminal.KeyAvailable() {
				cpu.A = b.terminal.ReadChar()
			} else {
				cpu.A = 0
			}
		} else {
			b.terminal.Write(cpu.E)
		}
	case 9: // C_WRITESTR
		b.writeString(de)
	case 10: // C_READSTR
		b.readString(de)
	case 11: // C_STAT
		if b.terminal.KeyAvailable() {
			cpu.A = 0xFF
		} else {
			cpu.A = 0
		}
	case 12: // S_BDOSVER
		cpu.A = 0x22
		cpu.H = 0x00
		cpu.L = 0x22
	case 13: // DISK_RESET
		b.disk.SetCurrentDrive(0)
		b.disk.SetCurrentUser(0)
		cpu.A = 0
	case 14: // DRV_SET
		b.disk.SetCurrentDrive(int(cpu.E))
		cpu.A = 0
	case 15: // F_OPEN
		cpu.A = b.open(de)
	case 16: // F_CLOSE
		delete(b.openFiles, de)
		cpu.A = 0
	case 17: // F_SFIRST
		cpu.A = b.searchFirst(de)
	case 18: // F_SNEXT
		cpu.A = b.searchNext()
	case 19: // F_DELETE
		cpu.A = b.delete(de)
	case 20: // F_READ
		cpu.A = b.readSequential(de)
	case 21: // F_WRITE
		cpu.A = b.writeSequential(de)
	case 22: // F_MAKE
		cpu.A = b.makeFile(de)
	case 23: // F_RENAME
		cpu.A = b.rename(de)
	case 24: // DRV_ALLOCVEC (login vector)
		cpu.SetHL(0x0001)
	case 25: // DRV_GET
		cpu.A = byte(b.disk.CurrentDrive())
	case 26: // F_DMAOFF
		b.dmaAddr = de
	case 32: // F_USERNUM
		if cpu.E == 0xFF {
			cpu.A = byte(b.disk.CurrentUser())
		} else {
			b.disk.SetCurrentUser(int(cpu.E))
		}
	case 33: // F_READRAND
		cpu.A = b.readRandom(de)
	case 34: // F_WRITERAND
		cpu.A = b.writeRandom(de)
	case 35: // F_SIZE
		b.computeSize(de)
		cpu.A = 0
	default:
		cpu.A = 0xFF
	}
}

func (b *BDOS) writeString(addr uint16) {
	for {
		ch := b.mem.Read(addr)
		if ch == '$' {
			return
		}
		b.terminal.Write(ch)
		addr++
	}
}

func (b *BDOS) readString(addr uint16) {
	max := int(b.mem.Read(addr))
	line := b.terminal.ReadLine()
	if len(line) > max {
		line = line[:max]
	}
	b.mem.Write(addr+1, byte(len(line)))
	for i := 0; i < len(line); i++ {
		b.mem.Write(addr+2+uint16(i), line[i])
	}
}

func (b *BDOS) open(fcbAddr uint16) byte {
	fcb := ReadFCB(b.mem, fcbAddr)
	name := fcb.DiskName()
	if !b.disk.Exists(name) {
		return 0xFF
	}
	SetCurrentRecord(b.mem, fcbAddr, 0)
	b.openFiles[fcbAddr] = &openFile{name: name}
	return 0
}

func (b *BDOS) makeFile(fcbAddr uint16) byte {
	fcb := ReadFCB(b.mem, fcbAddr)
	name := fcb.DiskName()
	b.disk.WriteBytes(name, nil)
	SetCurrentRecord(b.mem, fcbAddr, 0)
	b.openFiles[fcbAddr] = &openFile{name: name}
	return 0
}

func (b *BDOS) delete(fcbAddr uint16) byte {
	fcb := ReadFCB(b.mem, fcbAddr)
	matches := b.disk.ListMatching(fcb.DiskName())
	if len(matches) == 0 {
		return 0xFF
	}
	for _, m := range matches {
		b.disk.Delete(m)
	}
	return 0
}

func (b *BDOS) rename(fcbAddr uint16) byte {
	oldFCB := ReadFCB(b.mem, fcbAddr)
	newFCB := ReadFCB(b.mem, fcbAddr+16)
	if b.disk.Rename(oldFCB.DiskName(), newFCB.DiskName()) {
		return 0
	}
	return 0xFF
}

func (b *BDOS) searchFirst(fcbAddr uint16) byte {
	fcb := ReadFCB(b.mem, fcbAddr)
	b.searchPattern = fcb.DiskName()
	b.searchMatches = b.disk.ListMatching(b.searchPattern)
	b.searchIndex = 0
	return b.searchNext()
}

func (b *BDOS) searchNext() byte {
	if b.searchIndex >= len(b.searchMatches) {
		return 0xFF
	}
	name := b.searchMatches[b.searchIndex]
	b.searchIndex++
	b.writeDirectoryEntry(name)
	return 0
}

// writeDirectoryEntry fills the DMA buffer with a 32-byte
// directory-entry-shaped FCB: drive byte, padded name, padded
// extension, the rest zero.
func (b *BDOS) writeDirectoryEntry(name string) {
	fcb := ParseFCBName(name)
	for i := 0; i < 32; i++ {
		b.mem.Write(b.dmaAddr+uint16(i), 0)
	}
	b.mem.Write(b.dmaAddr, fcb.Drive)
	for i := 0; i < fcbNameLen; i++ {
		b.mem.Write(b.dmaAddr+1+uint16(i), fcb.Name[i])
	}
	for i := 0; i < fcbExtLen; i++ {
		b.mem.Write(b.dmaAddr+1+fcbNameLen+uint16(i), fcb.Ext[i])
	}
}

func (b *BDOS) readSequential(fcbAddr uint16) byte {
	of, ok := b.openFiles[fcbAddr]
	if !ok {
		return 9
	}
	data, ok := b.disk.ReadBytes(of.name)
	if !ok {
		return 9
	}
	if of.offset >= len(data) {
		return 1
	}
	end := of.offset + recordSize
	chunk := data[of.offset:min(end, len(data))]
	for i := 0; i < recordSize; i++ {
		if i < len(chunk) {
			b.mem.Write(b.dmaAddr+uint16(i), chunk[i])
		} else {
			b.mem.Write(b.dmaAddr+uint16(i), 0x1A)
		}
	}
	of.offset += recordSize
	rec := byte(of.offset / recordSize)
	SetCurrentRecord(b.mem, fcbAddr, rec)
	return 0
}

func (b *BDOS) writeSequential(fcbAddr uint16) byte {
	of, ok := b.openFiles[fcbAddr]
	if !ok {
		return 9
	}
	data, _ := b.disk.ReadBytes(of.name)
	data = growTo(data, of.offset+recordSize)
	for i := 0; i < recordSize; i++ {
		data[of.offset+i] = b.mem.Read(b.dmaAddr + uint16(i))
	}
	b.disk.WriteBytes(of.name, data)
	of.offset += recordSize
	rec := byte(of.offset / recordSize)
	SetCurrentRecord(b.mem, fcbAddr, rec)
	return 0
}

func (b *BDOS) readRandom(fcbAddr uint16) byte {
	of, ok := b.openFiles[fcbAddr]
	if !ok {
		return 9
	}
	record := RandomRecordNumber(b.mem, fcbAddr)
	offset := int(record) * recordSize
	data, ok := b.disk.ReadBytes(of.name)
	if !ok || offset >= len(data) {
		return 6
	}
	end := offset + recordSize
	chunk := data[offset:min(end, len(data))]
	for i := 0; i < recordSize; i++ {
		if i < len(chunk) {
			b.mem.Write(b.dmaAddr+uint16(i), chunk[i])
		} else {
			b.mem.Write(b.dmaAddr+uint16(i), 0x1A)
		}
	}
	of.offset = offset + recordSize
	return 0
}

func (b *BDOS) writeRandom(fcbAddr uint16) byte {
	of, ok := b.openFiles[fcbAddr]
	if !ok {
		return 9
	}
	record := RandomRecordNumber(b.mem, fcbAddr)
	offset := int(record) * recordSize
	data, _ := b.disk.ReadBytes(of.name)
	data = growTo(data, offset+recordSize)
	for i := 0; i < recordSize; i++ {
		data[offset+i] = b.mem.Read(b.dmaAddr + uint16(i))
	}
	b.disk.WriteBytes(of.name, data)
	of.offset = offset + recordSize
	return 0
}

func (b *BDOS) computeSize(fcbAddr uint16) {
	fcb := ReadFCB(b.mem, fcbAddr)
	size, ok := b.disk.Size(fcb.DiskName())
	if !ok {
		size = 0
	}
	records := (size + recordSize - 1) / recordSize
	SetRandomRecordCount(b.mem, fcbAddr, uint32(records))
}

func growTo(data []byte, n int) []byte {
	if len(data) >= n {
		return data
	}
	grown := make([]byte, n)
	copy(grown, data)
	return grown
}
