package channel

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Framing selects how a message is laid out in queue frames.
type Framing int

const (
	// FramingTwoPhase sends a size frame followed by the payload frame,
	// compatible with legacy peers using struct { long mtype; size_t size; }.
	FramingTwoPhase Framing = iota
	// FramingSingle sends one frame [4-byte big-endian length][payload].
	FramingSingle
)

// SizeFrameLen is the body length of a size frame.
const SizeFrameLen = 8

// SingleHeaderLen is the length header of a single frame.
const SingleHeaderLen = 4

func (f Framing) String() string {
	switch f {
	case FramingTwoPhase:
		return "two-phase"
	case FramingSingle:
		return "single"
	}
	return fmt.Sprintf("Framing(%d)", int(f))
}

// ParseFraming parses the name of a Framing.
func ParseFraming(s string) (Framing, error) {
	switch strings.ToLower(s) {
	case "", "two-phase", "twophase", "legacy":
		return FramingTwoPhase, nil
	case "single":
		return FramingSingle, nil
	}
	return FramingTwoPhase, fmt.Errorf("unknown framing: %s", s)
}

// Set implements flag.Value.
func (f *Framing) Set(s string) (err error) {
	*f, err = ParseFraming(s)
	return
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Framing) UnmarshalText(text []byte) error {
	return f.Set(string(text))
}

// EncodeSizeFrame encodes the body of a size frame.
// The size is in native byte order as the legacy size_t.
func EncodeSizeFrame(size int) []byte {
	body := make([]byte, SizeFrameLen)
	binary.NativeEndian.PutUint64(body, uint64(size))
	return body
}

// DecodeSizeFrame decodes the body of a size frame.
func DecodeSizeFrame(body []byte) (uint64, bool) {
	if len(body) != SizeFrameLen {
		return 0, false
	}
	return binary.NativeEndian.Uint64(body), true
}

// EncodeSingleFrame encodes payload into a single frame.
func EncodeSingleFrame(payload []byte) []byte {
	frame := make([]byte, SingleHeaderLen+len(payload))
	binary.BigEndian.PutUint32(frame, uint32(len(payload)))
	copy(frame[SingleHeaderLen:], payload)
	return frame
}

// DecodeSingleFrame extracts payload from a single frame.
// It returns the announced length and false if the frame is malformed.
func DecodeSingleFrame(frame []byte) ([]byte, int, bool) {
	if len(frame) < SingleHeaderLen {
		return nil, -1, false
	}
	announced := int(binary.BigEndian.Uint32(frame))
	payload := frame[SingleHeaderLen:]
	return payload, announced, announced == len(payload)
}
