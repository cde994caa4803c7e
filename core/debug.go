package core

import "sync"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// EventType identifies an entry in the event ring
type EventType uint8

// Event type codes
const (
	EvtArm            EventType = 1 // countdown armed, v1=ticks
	EvtExpire         EventType = 2 // countdown reached zero
	EvtSignalStart    EventType = 3 // morse playback started, v1=len, v2=repeat
	EvtSignalIdle     EventType = 4 // morse playback finished
	EvtReadTimeout    EventType = 5 // bounded read gave up, v1=ticks
	EvtIndicatorError EventType = 6 // pin write failed, v1=pin, v2=error count
	EvtFatal          EventType = 7 // fault beacon raised, v1=was running
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

func (t EventType) String() string {
	switch t {
	case EvtArm:
		return "ARM"
	case EvtExpire:
		return "EXPIRE"
	case EvtSignalStart:
		return "SIGNAL_START"
	case EvtSignalIdle:
		return "SIGNAL_IDLE"
	case EvtReadTimeout:
		return "READ_TIMEOUT"
	case EvtIndicatorError:
		return "GPIO_ERROR"
	case EvtFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether synchronous debug output is active
	debugEnabled bool

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function.
// Hosts route it to their logger, MCU targets to a spare UART.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables synchronous debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug starts the async debug output goroutine.
// Call this from main() after SetDebugWriter.
func InitAsyncDebug() {
	debugChan = make(chan string, 16)
	go debugOutputWorker(debugChan)
}

func debugOutputWorker(ch <-chan string) {
	for msg := range ch {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer.
// Blocks while the writer runs; never call it from the tick context.
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output.
// Drops the message if the queue is full or async output was never started.
func DebugAsync(msg string) {
	if debugChan != nil {
		select {
		case debugChan <- msg:
		default:
		}
	}
}

// Event captures a platform event for post-mortem analysis
type Event struct {
	Type   EventType
	Clock  uint32 // tick count at the time of the event
	Value1 uint32
	Value2 uint32
}

// EventLog is a fixed-size ring of recent events. A nil *EventLog is valid
// and records nothing.
type EventLog struct {
	mu    sync.Mutex
	ring  [EventRingSize]Event
	head  uint8
	clock func() uint32
}

// NewEventLog creates an empty event ring.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// SetClock sets the source used to stamp events.
func (l *EventLog) SetClock(clock func() uint32) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.clock = clock
	l.mu.Unlock()
}

// Record appends an event, overwriting the oldest when full.
func (l *EventLog) Record(t EventType, v1, v2 uint32) {
	if l == nil {
		return
	}
	l.mu.Lock()
	var now uint32
	if l.clock != nil {
		now = l.clock()
	}
	l.ring[l.head] = Event{Type: t, Clock: now, Value1: v1, Value2: v2}
	l.head = (l.head + 1) % EventRingSize
	l.mu.Unlock()
}

// Events returns the recorded events, oldest first.
func (l *EventLog) Events() []Event {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, 0, EventRingSize)
	for i := uint8(0); i < EventRingSize; i++ {
		evt := l.ring[(l.head+i)%EventRingSize]
		if evt.Type == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// Dump writes every recorded event to w, oldest first.
func (l *EventLog) Dump(w DebugWriter) {
	if w == nil {
		return
	}
	w("[EVENTS] === Event Ring Dump ===")
	for _, evt := range l.Events() {
		w("[EVENTS] " + evt.Type.String() +
			" tick=" + utoa(evt.Clock) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	w("[EVENTS] === End Dump ===")
}

// Clear empties the ring.
func (l *EventLog) Clear() {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.ring = [EventRingSize]Event{}
	l.head = 0
	l.mu.Unlock()
}
