package stream

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

type bufferStream struct {
	bytes.Buffer
}

func TestReadWriter(t *testing.T) {
	var s bufferStream
	rw := New(&s)
	require.NoError(t, rw.WritePacket([]byte("abc")))
	require.NoError(t, rw.WritePacket(nil))
	require.Equal(t, []byte{3, 0, 0, 0, 'a', 'b', 'c', 0, 0, 0, 0}, s.Bytes())

	pkt, err := rw.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), pkt)
	pkt, err = rw.ReadPacket()
	require.NoError(t, err)
	require.Empty(t, pkt)
	_, err = rw.ReadPacket()
	require.Error(t, err)
}

func TestReadWriterTooLarge(t *testing.T) {
	var s bufferStream
	s.Write([]byte{0xff, 0xff, 0xff, 0x7f})
	_, err := New(&s).ReadPacket()
	require.Error(t, err)
}
