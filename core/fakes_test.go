package core

// Test doubles for the HAL interfaces. Each records calls into an optional
// shared log so ordering can be asserted across drivers.

type callLog struct {
	calls []string
}

func (l *callLog) add(s string) {
	if l != nil {
		l.calls = append(l.calls, s)
	}
}

// fakeADC returns codes in order, one per Read, and stays busy for busyFor
// Busy() calls after every Start.
type fakeADC struct {
	log *callLog

	codes   []ADCValue
	busyFor int

	busyLeft int
	reads    int
	starts   int
	selects  []ADCMux
	cfg      ADCConfig
	inits    int
	initErr  error
}

func (f *fakeADC) Init(cfg ADCConfig) error {
	f.log.add("adc.init")
	f.inits++
	f.cfg = cfg
	return f.initErr
}

func (f *fakeADC) Busy() bool {
	if f.busyLeft > 0 {
		f.busyLeft--
		return true
	}
	return false
}

func (f *fakeADC) Read() ADCValue {
	var v ADCValue
	if f.reads < len(f.codes) {
		v = f.codes[f.reads]
	}
	f.reads++
	return v
}

func (f *fakeADC) Select(mux ADCMux) {
	f.selects = append(f.selects, mux)
}

func (f *fakeADC) Start() {
	f.log.add("adc.start")
	f.starts++
	f.busyLeft = f.busyFor
}

// fakeOscillator is a trim register whose frame meter reading is a function
// of the current trim value.
type fakeOscillator struct {
	log *callLog

	trim    uint8
	freq    func(trim uint8) int
	sets    []uint8
	probes  []uint8
	measure int
}

func (o *fakeOscillator) Get() uint8 { return o.trim }

func (o *fakeOscillator) Set(v uint8) {
	o.log.add("trim.set")
	o.trim = v
	o.sets = append(o.sets, v)
}

func (o *fakeOscillator) MeasureFrameLength() int {
	o.log.add("usb.measure")
	o.measure++
	o.probes = append(o.probes, o.trim)
	return o.freq(o.trim)
}

// linearOscillator reads base + slope*trim.
func linearOscillator(base, slope int) *fakeOscillator {
	return &fakeOscillator{freq: func(trim uint8) int { return base + slope*int(trim) }}
}

type fakeEEPROM struct {
	log    *callLog
	cells  [512]uint8
	writes int
}

func newFakeEEPROM() *fakeEEPROM {
	e := &fakeEEPROM{}
	for i := range e.cells {
		e.cells[i] = 0xFF
	}
	return e
}

func (e *fakeEEPROM) ReadCell(addr uint16) uint8 {
	e.log.add("eeprom.read")
	return e.cells[addr]
}

func (e *fakeEEPROM) WriteCell(addr uint16, v uint8) {
	e.log.add("eeprom.write")
	e.writes++
	e.cells[addr] = v
}

type fakeGPIO struct {
	log       *callLog
	outputs   map[GPIOPin]bool
	levels    map[GPIOPin]bool
	configErr error
}

func newFakeGPIO() *fakeGPIO {
	return &fakeGPIO{outputs: map[GPIOPin]bool{}, levels: map[GPIOPin]bool{}}
}

func (g *fakeGPIO) ConfigureOutput(pin GPIOPin) error {
	g.log.add("gpio.output")
	g.outputs[pin] = true
	return g.configErr
}

func (g *fakeGPIO) SetPin(pin GPIOPin, value bool) error {
	g.log.add("gpio.set")
	g.levels[pin] = value
	return nil
}

// fakeUSB accepts a report every readyEvery polls.
type fakeUSB struct {
	*fakeOscillator

	readyEvery int
	polls      int
	sent       [][]byte
	connected  bool
	setup      SetupHandler
	resetReady func()
	initErr    error
}

func (u *fakeUSB) Init(setup SetupHandler, resetReady func()) error {
	u.log.add("usb.init")
	u.setup = setup
	u.resetReady = resetReady
	return u.initErr
}

func (u *fakeUSB) Connect() {
	u.log.add("usb.connect")
	u.connected = true
}

func (u *fakeUSB) Disconnect() {
	u.log.add("usb.disconnect")
	u.connected = false
}

func (u *fakeUSB) Poll() {
	u.log.add("usb.poll")
	u.polls++
}

func (u *fakeUSB) InterruptReady() bool {
	return u.readyEvery > 0 && u.polls%u.readyEvery == 0
}

func (u *fakeUSB) SetInterrupt(data []byte) {
	u.log.add("usb.send")
	u.sent = append(u.sent, append([]byte(nil), data...))
}

type fakeWatchdog struct {
	log     *callLog
	timeout uint32
	started bool
	updates int
}

func (w *fakeWatchdog) Configure(timeoutMillis uint32) error {
	w.log.add("wdt.configure")
	w.timeout = timeoutMillis
	return nil
}

func (w *fakeWatchdog) Start() error {
	w.log.add("wdt.start")
	w.started = true
	return nil
}

func (w *fakeWatchdog) Update() {
	w.log.add("wdt.update")
	w.updates++
}

// testRig bundles a full set of fakes sharing one call log.
type testRig struct {
	log   *callLog
	adc   *fakeADC
	osc   *fakeOscillator
	eep   *fakeEEPROM
	gpio  *fakeGPIO
	usb   *fakeUSB
	wdt   *fakeWatchdog
	slept []uint32
	tx    [][]byte
}

func newTestRig() *testRig {
	log := &callLog{}
	osc := linearOscillator(1000, 10)
	osc.log = log
	r := &testRig{
		log:  log,
		adc:  &fakeADC{log: log},
		osc:  osc,
		eep:  newFakeEEPROM(),
		gpio: newFakeGPIO(),
		wdt:  &fakeWatchdog{log: log},
	}
	r.eep.log = log
	r.gpio.log = log
	r.usb = &fakeUSB{fakeOscillator: osc, readyEvery: 1}
	return r
}

func (r *testRig) drivers() Drivers {
	return Drivers{
		ADC:      r.adc,
		Trim:     r.osc,
		EEPROM:   r.eep,
		GPIO:     r.gpio,
		USB:      r.usb,
		Watchdog: r.wdt,
		Sleep: func(ms uint32) {
			r.log.add("sleep")
			r.slept = append(r.slept, ms)
		},
	}
}
