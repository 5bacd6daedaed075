package sim

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// EEPROMSize matches the 512 byte EEPROM of the reference part.
const EEPROMSize = 512

// EEPROM is a byte-addressed non-volatile store, optionally backed by an
// image file so calibration survives between runs.
type EEPROM struct {
	cells [EEPROMSize]uint8
	path  string
	dirty bool

	writes int
}

// OpenEEPROM loads the image at path. A missing file, or an empty path,
// yields an erased device.
func OpenEEPROM(path string) (*EEPROM, error) {
	e := &EEPROM{path: path}
	for i := range e.cells {
		e.cells[i] = 0xFF
	}
	if path == "" {
		return e, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return e, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read EEPROM image: %w", err)
	}
	if len(data) != EEPROMSize {
		return nil, fmt.Errorf("EEPROM image %s: %d bytes, want %d", path, len(data), EEPROMSize)
	}
	copy(e.cells[:], data)
	return e, nil
}

func (e *EEPROM) ReadCell(addr uint16) uint8 {
	if int(addr) >= EEPROMSize {
		return 0xFF
	}
	return e.cells[addr]
}

func (e *EEPROM) WriteCell(addr uint16, v uint8) {
	if int(addr) >= EEPROMSize {
		return
	}
	e.cells[addr] = v
	e.dirty = true
	e.writes++
}

// Writes returns the number of cell writes since open.
func (e *EEPROM) Writes() int { return e.writes }

// Flush writes the image back to its file if anything changed.
func (e *EEPROM) Flush() error {
	if e.path == "" || !e.dirty {
		return nil
	}
	if err := os.WriteFile(e.path, e.cells[:], 0o644); err != nil {
		return fmt.Errorf("write EEPROM image: %w", err)
	}
	e.dirty = false
	return nil
}
