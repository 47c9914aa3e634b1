package messages

import "github.com/go-edge/edged/message"

// Measurement carries a single named, timestamped sample, the shape sysstat,
// mqttbridge, and measurementfilter all pass around.
type Measurement struct {
	Name      string
	Value     float64
	Unit      string
	TimestampUnixMilli int64
}

func (Measurement) TypeName() string      { return "messages.Measurement" }
func (Measurement) Reply() message.NoReply { return message.NoReply{} }

// FileEvent is emitted by fswatch for every fsnotify event it observes.
type FileEvent struct {
	Path string
	Op   string
}

func (FileEvent) TypeName() string       { return "messages.FileEvent" }
func (FileEvent) Reply() message.NoReply { return message.NoReply{} }
