package directory

import (
	"github.com/go-edge/edged/bundle"
	"github.com/go-edge/edged/message"
)

// StopCore is the control message the core task listens for: an empty
// payload, no reply. Receipt cancels the root cancellation token.
type StopCore struct{}

func (StopCore) TypeName() string       { return "directory.StopCore" }
func (StopCore) Reply() message.NoReply { return message.NoReply{} }

// NewCoreBundle returns the fixed bundle the core sink accepts.
func NewCoreBundle() bundle.Bundle {
	return bundle.Of1[StopCore]()
}
