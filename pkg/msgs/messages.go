package msgs

import (
	"github.com/golang/protobuf/proto"
)

// TempUnit is the unit of a temperature reading.
type TempUnit int32

// Temperature units
const (
	TempUnitKelvin TempUnit = iota
	TempUnitCelsius
	TempUnitFahrenheit
)

var tempUnitNames = map[TempUnit]string{
	TempUnitKelvin:     "K",
	TempUnitCelsius:    "C",
	TempUnitFahrenheit: "F",
}

func (u TempUnit) String() string {
	if name, ok := tempUnitNames[u]; ok {
		return name
	}
	return "?"
}

// FanCmd is the command sent to a fan.
type FanCmd int32

// Fan commands
const (
	FanCmdOn FanCmd = iota
	FanCmdOff
)

func (c FanCmd) String() string {
	switch c {
	case FanCmdOn:
		return "On"
	case FanCmdOff:
		return "Off"
	}
	return "Unknown"
}

// FanAck is the reply of a fan to a command.
type FanAck int32

// Fan acknowledgements
const (
	FanAckOk FanAck = iota
	FanAckError
)

func (a FanAck) String() string {
	switch a {
	case FanAckOk:
		return "Ok"
	case FanAckError:
		return "Error"
	}
	return "Unknown"
}

// Raw is opaque bytes.
type Raw struct {
	Data []byte `protobuf:"bytes,1,opt,name=data,proto3" json:"data,omitempty"`
}

// NewContent implements Content.
func (m *Raw) NewContent() Content { return &Raw{} }

// TypeID implements Content.
func (m *Raw) TypeID() uint32 { return RawTypeID }

// Serializable implements Content.
func (m *Raw) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Raw) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Raw) Reset() { *m = Raw{} }

// String implements proto.Message.
func (m *Raw) String() string { return proto.CompactTextString(m) }

// Temperature is an event reporting current temperature.
type Temperature struct {
	Degree float32  `protobuf:"fixed32,1,opt,name=degree,proto3" json:"degree,omitempty"`
	Unit   TempUnit `protobuf:"varint,2,opt,name=unit,proto3" json:"unit,omitempty"`
}

// NewContent implements Content.
func (m *Temperature) NewContent() Content { return &Temperature{} }

// TypeID implements Content.
func (m *Temperature) TypeID() uint32 { return TemperatureTypeID }

// Serializable implements Content.
func (m *Temperature) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Temperature) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Temperature) Reset() { *m = Temperature{} }

// String implements proto.Message.
func (m *Temperature) String() string { return proto.CompactTextString(m) }

// FanCommand turns the fan on or off.
type FanCommand struct {
	Cmd FanCmd `protobuf:"varint,1,opt,name=cmd,proto3" json:"cmd,omitempty"`
}

// NewContent implements Content.
func (m *FanCommand) NewContent() Content { return &FanCommand{} }

// TypeID implements Content.
func (m *FanCommand) TypeID() uint32 { return FanCommandTypeID }

// Serializable implements Content.
func (m *FanCommand) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *FanCommand) ProtoMessage() {}

// Reset implements proto.Message.
func (m *FanCommand) Reset() { *m = FanCommand{} }

// String implements proto.Message.
func (m *FanCommand) String() string { return proto.CompactTextString(m) }

// FanAcknowledge is the reply to FanCommand.
type FanAcknowledge struct {
	Ack FanAck `protobuf:"varint,1,opt,name=ack,proto3" json:"ack,omitempty"`
}

// NewContent implements Content.
func (m *FanAcknowledge) NewContent() Content { return &FanAcknowledge{} }

// TypeID implements Content.
func (m *FanAcknowledge) TypeID() uint32 { return FanAcknowledgeTypeID }

// Serializable implements Content.
func (m *FanAcknowledge) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *FanAcknowledge) ProtoMessage() {}

// Reset implements proto.Message.
func (m *FanAcknowledge) Reset() { *m = FanAcknowledge{} }

// String implements proto.Message.
func (m *FanAcknowledge) String() string { return proto.CompactTextString(m) }

// TypeID Groups
const (
	GroupData     uint32 = 0x00010000
	GroupBuilding uint32 = 0x00020000
	GroupCustom   uint32 = 0x7f000000 // base group id for custom contents.
)

// TypeIDs
const (
	RawTypeID            uint32 = GroupData | 0x0000
	TemperatureTypeID    uint32 = GroupBuilding | TypeIDKindEvent | 0x0000
	FanCommandTypeID     uint32 = GroupBuilding | 0x0001
	FanAcknowledgeTypeID uint32 = FanCommandTypeID | TypeIDMaskReply
)
