// Firmware composition root and main loop
package core

import "fmt"

// Config is the compile-time firmware configuration.
type Config struct {
	// CPUFrequency is the nominal core clock the oscillator is tuned to.
	CPUFrequency uint32

	Acquisition AcquisitionConfig

	IndicatorPin       GPIOPin
	IndicatorActiveLow bool

	WatchdogTimeoutMillis uint32

	// DisconnectMillis is how long D- is released at boot to force the
	// host to re-enumerate.
	DisconnectMillis uint32

	// TelemetryReportEvery mirrors every Nth sent report to telemetry.
	TelemetryReportEvery uint16
}

// DefaultConfig returns the configuration of the reference board: an
// ATtiny45 at 16.5MHz from the PLL, axes on PB4 (ADC2) and PB3 (ADC3),
// active-low LED on PB1.
func DefaultConfig() Config {
	return Config{
		CPUFrequency: 16500000,
		Acquisition: AcquisitionConfig{
			ADC: ADCConfig{
				Reference: RefInternal2V56,
				Prescaler: 128,
			},
			MuxA: MuxADC2,
			MuxB: MuxADC3,
		},
		IndicatorPin:          1,
		IndicatorActiveLow:    true,
		WatchdogTimeoutMillis: 1000,
		DisconnectMillis:      300,
		TelemetryReportEvery:  50,
	}
}

// Drivers are the platform collaborators. Telemetry is optional.
type Drivers struct {
	ADC       ADCDriver
	Trim      TrimRegister
	EEPROM    EEPROMDriver
	GPIO      GPIODriver
	USB       USBDriver
	Watchdog  Watchdog
	Sleep     func(ms uint32)
	Telemetry TelemetrySink
}

func (d Drivers) validate() error {
	switch {
	case d.ADC == nil:
		return fmt.Errorf("ADC: %w", ErrMissingDriver)
	case d.Trim == nil:
		return fmt.Errorf("trim register: %w", ErrMissingDriver)
	case d.EEPROM == nil:
		return fmt.Errorf("EEPROM: %w", ErrMissingDriver)
	case d.GPIO == nil:
		return fmt.Errorf("GPIO: %w", ErrMissingDriver)
	case d.USB == nil:
		return fmt.Errorf("USB: %w", ErrMissingDriver)
	case d.Watchdog == nil:
		return fmt.Errorf("watchdog: %w", ErrMissingDriver)
	case d.Sleep == nil:
		return fmt.Errorf("sleep: %w", ErrMissingDriver)
	}
	return nil
}

// Firmware owns every core component and drives them from a single
// cooperative loop. Nothing in it is safe for concurrent use.
type Firmware struct {
	cfg Config
	drv Drivers

	acq *AnalogAcquisition
	cal *OscillatorCalibrator
	rec *RecordingState
	hid *HIDClass
	tel *Telemetry

	calibrations int
}

// New wires the components to the platform drivers. No hardware is
// touched until Boot.
func New(cfg Config, drv Drivers) (*Firmware, error) {
	if err := drv.validate(); err != nil {
		return nil, err
	}

	f := &Firmware{
		cfg: cfg,
		drv: drv,
		acq: NewAnalogAcquisition(drv.ADC, cfg.Acquisition),
		cal: NewOscillatorCalibrator(drv.Trim, drv.USB, cfg.CPUFrequency),
		rec: NewRecordingState(drv.GPIO, cfg.IndicatorPin, cfg.IndicatorActiveLow),
	}
	f.hid = NewHIDClass(f.acq.Report)

	if drv.Telemetry != nil {
		f.tel = NewTelemetry(drv.Telemetry, cfg.TelemetryReportEvery)
		f.cal.SetTelemetry(f.tel)
		f.rec.SetTelemetry(f.tel)
	}
	return f, nil
}

// MustNew is New for target main packages, which have nowhere to report
// a wiring mistake.
func MustNew(cfg Config, drv Drivers) *Firmware {
	f, err := New(cfg, drv)
	if err != nil {
		panic(err.Error())
	}
	return f
}

// Boot brings the device up: stored calibration first, then a forced
// re-enumeration, the watchdog, the converter and the USB engine. The
// device starts recording.
func (f *Firmware) Boot() error {
	if v, ok := RestoreCalibration(f.drv.EEPROM, f.drv.Trim); ok {
		f.tel.CalibrationRestored(v)
		DebugPrintln("calibration restored trim=" + hex8(v))
	}

	f.drv.USB.Disconnect()
	f.drv.Sleep(f.cfg.DisconnectMillis)
	f.drv.USB.Connect()

	if err := f.rec.Init(); err != nil {
		return fmt.Errorf("indicator: %w", err)
	}
	if err := f.drv.Watchdog.Configure(f.cfg.WatchdogTimeoutMillis); err != nil {
		return fmt.Errorf("watchdog configure: %w", err)
	}
	if err := f.drv.Watchdog.Start(); err != nil {
		return fmt.Errorf("watchdog start: %w", err)
	}
	if err := f.acq.Init(); err != nil {
		return fmt.Errorf("ADC: %w", err)
	}
	if err := f.drv.USB.Init(f.hid.Setup, f.OnBusResetReady); err != nil {
		return fmt.Errorf("USB: %w", err)
	}
	return f.rec.Set(true)
}

// OnBusResetReady calibrates the oscillator against the host's frame timing
// and persists the result. The USB driver calls it once per bus reset; it
// blocks for the whole search.
func (f *Firmware) OnBusResetReady() {
	RecordTrace(EvtBusReset, 0, 0, 0)
	v := f.cal.Calibrate()
	StoreCalibration(f.drv.EEPROM, v)
	f.calibrations++
	DebugPrintln("calibrated trim=" + hex8(v) + " target=" + itoa(f.cal.Target()))
}

// Step runs one main loop iteration: feed the watchdog, service USB, send
// a report if the endpoint is free, then advance acquisition. Acquisition
// runs last, so a report may lag the newest sample by one iteration.
func (f *Firmware) Step() {
	f.drv.Watchdog.Update()
	f.drv.USB.Poll()
	if f.drv.USB.InterruptReady() {
		a, b := f.acq.Samples()
		r := BuildReport(a, b)
		f.drv.USB.SetInterrupt(r[:])
		f.tel.Report(a, b)
	}
	f.acq.Poll()
}

// Run steps the main loop until halt returns true. A nil halt runs forever.
func (f *Firmware) Run(halt func() bool) {
	for halt == nil || !halt() {
		f.Step()
	}
}

// Acquisition returns the analog acquisition state machine.
func (f *Firmware) Acquisition() *AnalogAcquisition { return f.acq }

// Calibrator returns the oscillator calibrator.
func (f *Firmware) Calibrator() *OscillatorCalibrator { return f.cal }

// Recording returns the recording state.
func (f *Firmware) Recording() *RecordingState { return f.rec }

// HID returns the class request handler.
func (f *Firmware) HID() *HIDClass { return f.hid }

// Calibrations returns how many bus resets have been handled since boot.
func (f *Firmware) Calibrations() int { return f.calibrations }
