package core

// EEPROMDriver is the byte-addressed non-volatile store.
type EEPROMDriver interface {
	// ReadCell returns the byte at addr. Erased cells read 0xFF.
	ReadCell(addr uint16) uint8

	// WriteCell programs the byte at addr, blocking until the write completes.
	WriteCell(addr uint16, v uint8)
}

// Calibration storage layout.
const (
	CalibrationAddress uint16 = 0
	// CalibrationErased is the erased-cell value and means "never calibrated".
	CalibrationErased uint8 = 0xFF
)

// RestoreCalibration applies a previously stored trim value. It returns the
// value and true if one was found; an erased cell leaves the register alone.
func RestoreCalibration(store EEPROMDriver, trim TrimRegister) (uint8, bool) {
	v := store.ReadCell(CalibrationAddress)
	if v == CalibrationErased {
		return 0, false
	}
	trim.Set(v)
	RecordTrace(EvtCalRestored, v, 0, 0)
	return v, true
}

// StoreCalibration persists a trim value for the next boot.
func StoreCalibration(store EEPROMDriver, v uint8) {
	store.WriteCell(CalibrationAddress, v)
	RecordTrace(EvtCalStored, v, 0, 0)
}
