package comm

import (
	"encoding/binary"
	"errors"

	"github.com/robotalks/msgport/pkg/ipc"
)

// PacketHeaderLen is the length of the tag prefixing each packet.
const PacketHeaderLen = 8

// ErrShortPacket indicates a packet is shorter than its header.
var ErrShortPacket = errors.New("short packet")

// EncodePacket encodes a queue message into a packet:
// 8-byte big-endian tag followed by data.
func EncodePacket(tag ipc.Tag, data []byte) []byte {
	pkt := make([]byte, PacketHeaderLen+len(data))
	binary.BigEndian.PutUint64(pkt, uint64(tag))
	copy(pkt[PacketHeaderLen:], data)
	return pkt
}

// DecodePacket decodes a packet into a queue message.
func DecodePacket(pkt []byte) (ipc.Tag, []byte, error) {
	if len(pkt) < PacketHeaderLen {
		return 0, nil, ErrShortPacket
	}
	return ipc.Tag(binary.BigEndian.Uint64(pkt)), pkt[PacketHeaderLen:], nil
}
