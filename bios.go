// bios.go - the fixed BIOS jump table and its entry-point handlers

package main

// BIOSBase is the guest address where the 15-entry, 3-byte-per-entry
// jump table lives: a RET sled the CPU would execute if the handling
// CALL were ever left unintercepted.
const BIOSBase uint16 = 0xFE00

const biosEntrySize = 3

// BIOS entry offsets from BIOSBase, in table order.
const (
	biosBOOT = iota * biosEntrySize
	biosWBOOT
	biosCONST
	biosCONIN
	biosCONOUT
	biosLIST
	biosPUNCH
	biosREADER
	biosHOME
	biosSELDSK
	biosSETTRK
	biosSETSEC
	biosSETDMA
	biosREAD
	biosWRITE
)

// BIOS implements the low-level console/disk entry points CP/M's BDOS
// and CCP ultimately fall through to. It owns no state beyond a
// reference to the terminal; disk geometry calls are answered with the
// fixed "always succeeds" response the spec calls for since there is no
// real sector geometry underneath the virtual disk.
type BIOS struct {
	mem      *Memory
	terminal Terminal
}

// NewBIOS returns a BIOS bound to mem and terminal.
func NewBIOS(mem *Memory, terminal Terminal) *BIOS {
	return &BIOS{mem: mem, terminal: terminal}
}

// InstallJumpTable fills the entire BIOS band (BIOSBase..0xFFFF) with a
// repeating C9 00 00 (RET, NOP, NOP) pattern, so that any address in
// range the Machine's call hook does not recognize still behaves
// harmlessly if ever actually executed.
func (b *BIOS) InstallJumpTable() {
	for addr := uint32(BIOSBase); addr <= 0xFFFF; addr += biosEntrySize {
		b.mem.Write(uint16(addr), 0xC9)
		if addr+1 <= 0xFFFF {
			b.mem.Write(uint16(addr+1), 0x00)
		}
		if addr+2 <= 0xFFFF {
			b.mem.Write(uint16(addr+2), 0x00)
		}
	}
}

// Handle services a CALL into the BIOS band. offset is addr-BIOSBase;
// entries beyond the 15 defined ones, and any offset that doesn't land
// on an entry boundary, are a no-op success as the spec requires.
func (b *BIOS) Handle(cpu *CPU, offset uint16) {
	switch offset {
	case biosBOOT, biosWBOOT:
		cpu.Halted = true
	case biosCONST:
		if b.terminal.KeyAvailable() {
			cpu.A = 0xFF
		} else {
			cpu.A = 0x00
		}
	case biosCONIN:
		cpu.A = b.terminal.ReadChar()
	case biosCONOUT:
		b.terminal.Write(cpu.C)
	case biosLIST, biosPUNCH:
		// discarded: no printer, no paper tape punch
	case biosREADER:
		cpu.A = 0x1A // EOF: no paper tape reader
	case biosHOME, biosSELDSK, biosSETTRK, biosSETSEC, biosSETDMA, biosREAD, biosWRITE:
		cpu.A = 0
		cpu.SetHL(0)
	default:
		// unrecognized BIOS-range call: no-op success
	}
}
