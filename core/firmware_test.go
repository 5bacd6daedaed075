package core

import (
	"errors"
	"reflect"
	"testing"

	"gopad/protocol"
)

func bootRig(t *testing.T, r *testRig) *Firmware {
	t.Helper()
	fw, err := New(DefaultConfig(), r.drivers())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := fw.Boot(); err != nil {
		t.Fatalf("Boot failed: %v", err)
	}
	return fw
}

func TestBootOrder(t *testing.T) {
	r := newTestRig()
	fw := bootRig(t, r)

	want := []string{
		"eeprom.read",
		"usb.disconnect",
		"sleep",
		"usb.connect",
		"gpio.output",
		"wdt.configure",
		"wdt.start",
		"adc.init",
		"usb.init",
		"gpio.set",
	}
	if !reflect.DeepEqual(r.log.calls, want) {
		t.Errorf("Expected boot sequence %v, got %v", want, r.log.calls)
	}
	if len(r.slept) != 1 || r.slept[0] != 300 {
		t.Errorf("Expected one 300ms disconnect, got %v", r.slept)
	}
	if r.wdt.timeout != 1000 || !r.wdt.started {
		t.Errorf("Expected watchdog started at 1000ms, got %d started=%v", r.wdt.timeout, r.wdt.started)
	}
	if !r.usb.connected {
		t.Error("Expected USB connected after boot")
	}
	if !fw.Recording().Recording() {
		t.Error("Expected recording after boot")
	}
	if r.gpio.levels[1] {
		t.Error("Expected active-low indicator driven low")
	}
	if fw.Calibrations() != 0 {
		t.Errorf("Expected no calibration before a bus reset, got %d", fw.Calibrations())
	}
}

func TestBootRestoresBeforeMeasuring(t *testing.T) {
	r := newTestRig()
	r.eep.cells[CalibrationAddress] = 0x87
	bootRig(t, r)

	if r.log.calls[0] != "eeprom.read" || r.log.calls[1] != "trim.set" {
		t.Fatalf("Expected restore to lead the boot sequence, got %v", r.log.calls)
	}
	if r.osc.trim != 0x87 {
		t.Errorf("Expected trim 0x87 restored, got %#x", r.osc.trim)
	}
	if r.osc.measure != 0 {
		t.Errorf("Expected no frame measurement during boot, got %d", r.osc.measure)
	}
}

func TestBusResetCalibratesAndStores(t *testing.T) {
	r := newTestRig()
	fw := bootRig(t, r)
	if r.usb.resetReady == nil {
		t.Fatal("Expected bus reset callback registered with the USB driver")
	}

	r.usb.resetReady()

	if r.osc.measure != CalibrationProbes {
		t.Errorf("Expected %d measurements, got %d", CalibrationProbes, r.osc.measure)
	}
	if r.osc.trim != 136 {
		t.Errorf("Expected trim 136, got %d", r.osc.trim)
	}
	if r.eep.cells[CalibrationAddress] != 136 || r.eep.writes != 1 {
		t.Errorf("Expected 136 stored once, got %d after %d writes", r.eep.cells[CalibrationAddress], r.eep.writes)
	}
	if fw.Calibrations() != 1 {
		t.Errorf("Expected 1 calibration, got %d", fw.Calibrations())
	}

	// A second reset recalibrates from scratch.
	r.usb.resetReady()
	if r.osc.measure != 2*CalibrationProbes || fw.Calibrations() != 2 {
		t.Errorf("Expected a full second calibration, got %d measurements", r.osc.measure)
	}
}

func TestStoredCalibrationSurvivesReboot(t *testing.T) {
	r := newTestRig()
	bootRig(t, r)
	r.usb.resetReady()

	// Power cycle: same EEPROM, trim register back at its factory value.
	r2 := newTestRig()
	r2.eep = r.eep
	r2.eep.log = r2.log
	bootRig(t, r2)

	if r2.osc.trim != 136 {
		t.Errorf("Expected trim 136 restored, got %d", r2.osc.trim)
	}
}

func TestStepOrder(t *testing.T) {
	r := newTestRig()
	fw := bootRig(t, r)
	r.log.calls = nil

	fw.Step()

	want := []string{"wdt.update", "usb.poll", "usb.send", "adc.start"}
	if !reflect.DeepEqual(r.log.calls, want) {
		t.Errorf("Expected step sequence %v, got %v", want, r.log.calls)
	}
}

func TestStepSkipsBusyEndpoint(t *testing.T) {
	r := newTestRig()
	r.usb.readyEvery = 3
	fw := bootRig(t, r)

	for i := 0; i < 9; i++ {
		fw.Step()
	}

	if len(r.usb.sent) != 3 {
		t.Errorf("Expected 3 reports, got %d", len(r.usb.sent))
	}
	if r.wdt.updates != 9 {
		t.Errorf("Expected the watchdog fed every step, got %d", r.wdt.updates)
	}
}

func TestReportsTrackSamples(t *testing.T) {
	r := newTestRig()
	r.adc.codes = []ADCValue{100, 200, 120, 104}
	fw := bootRig(t, r)

	for i := 0; i < 6; i++ {
		fw.Step()
	}

	// Reports are built before the poll that harvests, so each lags by a step.
	want := [][]byte{
		{0x00, 0x00, 0x00, 0x00, 0x01},
		{0x00, 0x00, 0x00, 0x00, 0x01},
		{0x00, 0xFA, 0x00, 0x00, 0x01},
		{0x00, 0xFA, 0x01, 0xF4, 0x01},
		{0x01, 0x2C, 0x01, 0xF4, 0x01},
		{0x01, 0x2C, 0x01, 0x04, 0x01},
	}
	if !reflect.DeepEqual(r.usb.sent, want) {
		t.Errorf("Expected reports %x, got %x", want, r.usb.sent)
	}
}

func TestGetReportMatchesInterruptReport(t *testing.T) {
	r := newTestRig()
	r.adc.codes = []ADCValue{120, 104}
	fw := bootRig(t, r)
	for i := 0; i < 3; i++ {
		fw.Step()
	}

	got := r.usb.setup(SetupPacket{RequestType: 0xA1, Request: HIDGetReport, Value: 0x0100, Length: 5})
	want := []byte{0x01, 0x2C, 0x01, 0x04, 0x01}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected GET_REPORT % x, got % x", want, got)
	}
}

func TestRunHalts(t *testing.T) {
	r := newTestRig()
	fw := bootRig(t, r)

	steps := 0
	fw.Run(func() bool {
		steps++
		return steps > 5
	})

	if r.usb.polls != 5 {
		t.Errorf("Expected 5 iterations, got %d", r.usb.polls)
	}
}

func TestNewMissingDriver(t *testing.T) {
	testCases := []struct {
		name  string
		strip func(*Drivers)
	}{
		{"adc", func(d *Drivers) { d.ADC = nil }},
		{"trim", func(d *Drivers) { d.Trim = nil }},
		{"eeprom", func(d *Drivers) { d.EEPROM = nil }},
		{"gpio", func(d *Drivers) { d.GPIO = nil }},
		{"usb", func(d *Drivers) { d.USB = nil }},
		{"watchdog", func(d *Drivers) { d.Watchdog = nil }},
		{"sleep", func(d *Drivers) { d.Sleep = nil }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			drv := newTestRig().drivers()
			tc.strip(&drv)
			if _, err := New(DefaultConfig(), drv); !errors.Is(err, ErrMissingDriver) {
				t.Errorf("Expected ErrMissingDriver, got %v", err)
			}
		})
	}
}

func TestBootWrapsDriverErrors(t *testing.T) {
	initErr := errors.New("no endpoint")

	r := newTestRig()
	r.usb.initErr = initErr
	fw, err := New(DefaultConfig(), r.drivers())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := fw.Boot(); !errors.Is(err, initErr) {
		t.Errorf("Expected wrapped USB error, got %v", err)
	}

	r = newTestRig()
	r.adc.initErr = initErr
	fw = MustNew(DefaultConfig(), r.drivers())
	if err := fw.Boot(); !errors.Is(err, initErr) {
		t.Errorf("Expected wrapped ADC error, got %v", err)
	}
}

func TestMustNewPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected MustNew to panic without drivers")
		}
	}()
	MustNew(DefaultConfig(), Drivers{})
}

func TestFirmwareTelemetry(t *testing.T) {
	r := newTestRig()
	r.eep.cells[CalibrationAddress] = 0x40
	drv := r.drivers()
	drv.Telemetry = func(frame []byte) {
		r.tx = append(r.tx, append([]byte(nil), frame...))
	}
	cfg := DefaultConfig()
	cfg.TelemetryReportEvery = 2

	fw, err := New(cfg, drv)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := fw.Boot(); err != nil {
		t.Fatalf("Boot failed: %v", err)
	}
	r.usb.resetReady()
	for i := 0; i < 4; i++ {
		fw.Step()
	}

	var names []string
	var last protocol.Message
	for i, frame := range r.tx {
		msg, err := protocol.DecodeFrame(frame)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if msg.Sequence != uint8(i)&protocol.FrameSeqMask {
			t.Errorf("frame %d: sequence %d", i, msg.Sequence)
		}
		names = append(names, msg.Name())
		if msg.ID == protocol.MsgCalibrationResult {
			last = msg
		}
	}

	// restored, recording, 11 probes, result, 2 decimated reports
	if len(names) != 2+CalibrationProbes+1+2 {
		t.Fatalf("Expected %d frames, got %d: %v", 2+CalibrationProbes+1+2, len(names), names)
	}
	if names[0] != "calibration_restored" || names[1] != "recording" {
		t.Errorf("Expected restore then recording, got %v", names[:2])
	}
	if last.Arg("trim") != 136 || last.Arg("deviation") != 4 {
		t.Errorf("Expected result trim=136 deviation=4, got %s", last)
	}
	if names[len(names)-1] != "report" {
		t.Errorf("Expected trailing report frames, got %v", names[len(names)-2:])
	}
}
