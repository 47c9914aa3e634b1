package dispatch

import (
	"fmt"
	"runtime/debug"
	"time"
)

// PanicRecord tags a captured handler panic with the acting plugin name and
// message type name, per the "panic containment" design note: panics must
// not poison shared state, so every detail needed to escalate or diagnose
// is captured here instead of being allowed to propagate.
type PanicRecord struct {
	Plugin      string
	MessageType string
	Payload     string
	Stack       string
	At          time.Time
}

func newPanicRecord(plugin, msgType string, recovered any) PanicRecord {
	return PanicRecord{
		Plugin:      plugin,
		MessageType: msgType,
		Payload:     fmt.Sprint(recovered),
		Stack:       string(debug.Stack()),
		At:          time.Now(),
	}
}

// PanicChannel is the dedicated channel the dispatcher publishes captured
// handler panics to, for the lifecycle supervisor to observe. The open
// question left by the source implementation (how many pending panics the
// channel buffers before drops start) is resolved here at capacity 1,
// matching the behaviour of the system this kernel was modelled on: a
// supervisor only needs to know a plugin has become unhealthy, not how many
// times, so a saturated channel just means the signal has already been
// raised and a drop is harmless.
const PanicChannelCapacity = 1

// NewPanicChannel returns a channel sized per PanicChannelCapacity.
func NewPanicChannel() chan PanicRecord {
	return make(chan PanicRecord, PanicChannelCapacity)
}

// publish is a non-blocking send: if the channel is saturated the record is
// dropped rather than stalling the dispatcher, consistent with the capacity
// rationale above.
func publish(ch chan<- PanicRecord, rec PanicRecord) {
	if ch == nil {
		return
	}
	select {
	case ch <- rec:
	default:
	}
}
