package core

import "testing"

func TestRestoreCalibrationErased(t *testing.T) {
	eep := newFakeEEPROM()
	osc := linearOscillator(0, 1)
	osc.trim = 0x5A

	v, ok := RestoreCalibration(eep, osc)

	if ok {
		t.Errorf("Expected nothing restored from an erased cell, got %#x", v)
	}
	if len(osc.sets) != 0 || osc.trim != 0x5A {
		t.Errorf("Expected trim register untouched, got sets %v trim %#x", osc.sets, osc.trim)
	}
}

func TestRestoreCalibrationStored(t *testing.T) {
	testCases := []uint8{0x00, 0x01, 0x80, 0xFE}

	for _, stored := range testCases {
		eep := newFakeEEPROM()
		eep.cells[CalibrationAddress] = stored
		osc := linearOscillator(0, 1)

		v, ok := RestoreCalibration(eep, osc)

		if !ok || v != stored {
			t.Errorf("stored %#x: expected restore, got %#x ok=%v", stored, v, ok)
		}
		if osc.trim != stored {
			t.Errorf("stored %#x: trim register holds %#x", stored, osc.trim)
		}
		if osc.measure != 0 {
			t.Errorf("stored %#x: restore measured %d frames", stored, osc.measure)
		}
	}
}

func TestStoreCalibration(t *testing.T) {
	ClearTrace()
	eep := newFakeEEPROM()

	StoreCalibration(eep, 0x88)

	if eep.cells[CalibrationAddress] != 0x88 {
		t.Errorf("Expected cell 0 to hold 0x88, got %#x", eep.cells[CalibrationAddress])
	}
	if eep.writes != 1 {
		t.Errorf("Expected 1 write, got %d", eep.writes)
	}
	events := TraceEvents()
	if len(events) != 1 || events[0].EventType != EvtCalStored || events[0].Arg != 0x88 {
		t.Errorf("Expected one stored event for 0x88, got %+v", events)
	}
}
