package address

import "github.com/go-edge/edged/message"

// Envelope is the erased carrier placed on a sink: a boxed message plus a
// one-shot reply sender, itself boxed. Typed senders build an Envelope and
// typed handlers reify it by identity; nothing in between inspects its
// contents.
type Envelope struct {
	// TypeID is the identity of Message's concrete type, cached at
	// construction so the dispatch thunk need not re-derive it.
	TypeID message.Identity
	// TypeName is Message's human-readable type name, for diagnostics.
	TypeName string
	// Message is the boxed message value.
	Message message.Message
	// reply is the boxed *ReplySender[R] for the message's declared reply
	// type. Every send sets it; it is nil only for an Envelope built
	// directly rather than through a send.
	reply any
}

// ReplySlot returns the envelope's boxed reply sender for handler code that
// already knows the concrete R (it downcasts via a type assertion). Returns
// false if there is no reply slot.
func (e Envelope) ReplySlot() (any, bool) {
	if e.reply == nil {
		return nil, false
	}
	return e.reply, true
}
