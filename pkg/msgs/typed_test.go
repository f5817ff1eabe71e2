package msgs

import (
	"testing"

	"github.com/golang/protobuf/proto"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	testCases := []struct {
		name    string
		content Content
	}{
		{"raw", &Raw{Data: []byte("abc")}},
		{"empty raw", &Raw{}},
		{"temperature", &Temperature{Degree: 56, Unit: TempUnitFahrenheit}},
		{"fan on", &FanCommand{Cmd: FanCmdOn}},
		{"fan off", &FanCommand{Cmd: FanCmdOff}},
		{"fan ack", &FanAcknowledge{Ack: FanAckError}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := Encode(tc.content)
			require.NoError(t, err)
			require.Equal(t, len(data), SizeOf(tc.content))
			decoded, err := Decode(data)
			require.NoError(t, err)
			require.IsType(t, tc.content, decoded)
			require.True(t, proto.Equal(tc.content.Serializable(), decoded.Serializable()))
		})
	}
}

func TestDecodeUnknownType(t *testing.T) {
	data, err := (&Typed{TypeId: GroupCustom | 0x1234}).Encode()
	require.NoError(t, err)
	_, err = Decode(data)
	require.Error(t, err)
	unknown, ok := err.(*ErrUnknownType)
	require.True(t, ok)
	require.Equal(t, GroupCustom|0x1234, unknown.TypeID)
	require.Equal(t, "unknown type: 7f001234", err.Error())
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode([]byte{0xff, 0xff, 0xff})
	require.Error(t, err)
}

func TestEncodeNil(t *testing.T) {
	_, err := Encode(nil)
	require.Equal(t, ErrNilContent, err)
	require.Equal(t, 0, SizeOf(nil))
}

func TestTypedKind(t *testing.T) {
	temp, err := TypedFrom(&Temperature{Degree: 70})
	require.NoError(t, err)
	require.True(t, temp.IsEvent())
	cmd, err := TypedFrom(&FanCommand{})
	require.NoError(t, err)
	require.True(t, cmd.IsCommand())
}

func TestEnumNames(t *testing.T) {
	require.Equal(t, "F", TempUnitFahrenheit.String())
	require.Equal(t, "Off", FanCmdOff.String())
	require.Equal(t, "Ok", FanAckOk.String())
	require.Equal(t, "Unknown", FanAck(9).String())
}

func TestTypeName(t *testing.T) {
	require.Equal(t, "Temperature", TypeName(&Temperature{}))
	require.Equal(t, "FanAcknowledge", TypeName(&FanAcknowledge{}))
}
