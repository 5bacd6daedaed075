package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TraceEvent captures one firmware event for post-mortem analysis
type TraceEvent struct {
	EventType uint8  // Event type code
	Arg       uint8  // Trim value, channel or state, depending on type
	Seq       uint32 // Monotonic event counter
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtCalProbe    = 1 // Arg=trim, v1=target, v2=measurement
	EvtCalResult   = 2 // Arg=trim, v1=target, v2=deviation
	EvtCalRestored = 3 // Arg=trim read back from storage
	EvtCalStored   = 4 // Arg=trim written to storage
	EvtBusReset    = 5 // bus reset ready callback entered
	EvtRecording   = 6 // Arg=new recording state
)

const (
	TraceRingSize = 32 // Keep last 32 events; one calibration uses 13
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	traceRing     [TraceRingSize]TraceEvent
	traceRingHead uint8
	traceSeq      uint32
	traceEnabled  bool = true
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, stdout, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// SetTraceEnabled turns event capture on or off
func SetTraceEnabled(enabled bool) {
	traceEnabled = enabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordTrace captures an event in the ring buffer
func RecordTrace(eventType, arg uint8, value1, value2 uint32) {
	if !traceEnabled {
		return
	}
	traceSeq++
	idx := traceRingHead
	traceRing[idx] = TraceEvent{
		EventType: eventType,
		Arg:       arg,
		Seq:       traceSeq,
		Value1:    value1,
		Value2:    value2,
	}
	traceRingHead = (idx + 1) % TraceRingSize
}

// TraceEvents returns the captured events, oldest first
func TraceEvents() []TraceEvent {
	events := make([]TraceEvent, 0, TraceRingSize)
	start := traceRingHead
	for i := uint8(0); i < TraceRingSize; i++ {
		evt := traceRing[(start+i)%TraceRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		events = append(events, evt)
	}
	return events
}

// DumpTrace outputs the ring buffer through the debug writer
func DumpTrace() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TRACE] === Trace Ring Dump ===")
	for _, evt := range TraceEvents() {
		var name string
		switch evt.EventType {
		case EvtCalProbe:
			name = "CAL_PROBE"
		case EvtCalResult:
			name = "CAL_RESULT"
		case EvtCalRestored:
			name = "CAL_RESTORED"
		case EvtCalStored:
			name = "CAL_STORED"
		case EvtBusReset:
			name = "BUS_RESET"
		case EvtRecording:
			name = "RECORDING"
		default:
			name = "UNKNOWN"
		}

		debugPrintln("[TRACE] " + name +
			" seq=" + utoa(evt.Seq) +
			" arg=" + itoa(int(evt.Arg)) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[TRACE] === End Dump ===")
}

// ClearTrace clears the ring buffer
func ClearTrace() {
	for i := range traceRing {
		traceRing[i] = TraceEvent{}
	}
	traceRingHead = 0
	traceSeq = 0
}
