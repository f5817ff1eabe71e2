package msgs

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/golang/protobuf/proto"
)

// TypeID masks
const (
	TypeIDMaskKind  uint32 = 0x80000000
	TypeIDMaskGroup uint32 = 0x7fff0000
	TypeIDMaskID    uint32 = 0x0000ffff
	TypeIDMaskReply uint32 = 0x00008000
)

// Content Kinds
const (
	TypeIDKindCommand uint32 = 0x00000000
	TypeIDKindEvent   uint32 = 0x80000000
)

// Content is the tagged variant of everything sent through a port.
type Content interface {
	TypeID() uint32
	Serializable() proto.Message
	NewContent() Content
}

// ErrUnknownType indicates unknown type id.
type ErrUnknownType struct {
	TypeID uint32
}

// Error implements error.
func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown type: %x", e.TypeID)
}

var (
	// ErrNilContent indicates nil is encoded.
	ErrNilContent = errors.New("nil content")
)

// ContentTypes are predefined mapping of type ID to contents.
var ContentTypes = map[uint32]Content{
	RawTypeID:            (*Raw)(nil),
	TemperatureTypeID:    (*Temperature)(nil),
	FanCommandTypeID:     (*FanCommand)(nil),
	FanAcknowledgeTypeID: (*FanAcknowledge)(nil),
}

// Typed wraps a content with type information.
type Typed struct {
	TypeId  uint32 `protobuf:"varint,1,opt,name=type_id,json=typeId,proto3" json:"type_id,omitempty"`
	Message []byte `protobuf:"bytes,2,opt,name=message,proto3" json:"message,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Typed) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Typed) Reset() { *m = Typed{} }

// String implements proto.Message.
func (m *Typed) String() string { return proto.CompactTextString(m) }

// TypedFrom creates a Typed from a content.
func TypedFrom(c Content) (*Typed, error) {
	if c == nil {
		return nil, ErrNilContent
	}
	data, err := proto.Marshal(c.Serializable())
	if err != nil {
		return nil, err
	}
	return &Typed{TypeId: c.TypeID(), Message: data}, nil
}

// Decode decodes the envelope into actual content.
func (m *Typed) Decode() (Content, error) {
	contentType, ok := ContentTypes[m.TypeId]
	if !ok {
		return nil, &ErrUnknownType{TypeID: m.TypeId}
	}
	c := contentType.NewContent()
	if err := proto.Unmarshal(m.Message, c.Serializable()); err != nil {
		return nil, err
	}
	return c, nil
}

// Encode encodes the Typed to bytes.
func (m *Typed) Encode() ([]byte, error) {
	return proto.Marshal(m)
}

// Kind gets content kind from type ID.
func (m *Typed) Kind() uint32 {
	return m.TypeId & TypeIDMaskKind
}

// IsCommand determines if the content is a command.
func (m *Typed) IsCommand() bool {
	return m.Kind() == TypeIDKindCommand
}

// IsEvent determines if the content is an event.
func (m *Typed) IsEvent() bool {
	return m.Kind() == TypeIDKindEvent
}

// DecodeTyped decodes bytes into Typed.
func DecodeTyped(data []byte) (*Typed, error) {
	var typed Typed
	if err := proto.Unmarshal(data, &typed); err != nil {
		return nil, err
	}
	return &typed, nil
}

// Encode serializes a content into bytes.
func Encode(c Content) ([]byte, error) {
	typed, err := TypedFrom(c)
	if err != nil {
		return nil, err
	}
	return typed.Encode()
}

// Decode deserializes bytes produced by Encode.
func Decode(data []byte) (Content, error) {
	typed, err := DecodeTyped(data)
	if err != nil {
		return nil, err
	}
	return typed.Decode()
}

// SizeOf computes the length of encoded content without encoding it.
func SizeOf(c Content) int {
	if c == nil {
		return 0
	}
	var size int
	if id := c.TypeID(); id != 0 {
		size += 1 + proto.SizeVarint(uint64(id))
	}
	if n := proto.Size(c.Serializable()); n > 0 {
		size += 1 + proto.SizeVarint(uint64(n)) + n
	}
	return size
}

// TypeName returns the name of the content type.
func TypeName(content Content) string {
	return reflect.Indirect(reflect.ValueOf(content)).Type().Name()
}
