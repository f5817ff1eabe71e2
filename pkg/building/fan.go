package building

import (
	"github.com/robotalks/msgport/pkg/msgs"
)

// Fan is the actuation stub answering fan commands from a table.
type Fan struct {
	Acks    map[msgs.FanCmd]msgs.FanAck
	Default msgs.FanAck
}

// NewFan creates a Fan acknowledging every command with FanAckOk.
func NewFan() *Fan {
	return &Fan{Default: msgs.FanAckOk}
}

// Actuate returns the acknowledgement of cmd.
func (f *Fan) Actuate(cmd msgs.FanCmd) msgs.FanAck {
	if ack, ok := f.Acks[cmd]; ok {
		return ack
	}
	return f.Default
}
