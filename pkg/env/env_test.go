package env

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/msgport/pkg/channel"
	"github.com/robotalks/msgport/pkg/ipc"
	"github.com/robotalks/msgport/pkg/ipc/comm"
	"github.com/robotalks/msgport/pkg/msgs"
)

func TestNewTransport(t *testing.T) {
	testCases := []struct {
		url    string
		expect interface{}
	}{
		{"mem://", &ipc.Memory{}},
		{"fifo:///tmp/ports", &comm.Transport{}},
		{"mqtt://localhost:1883/building", &comm.Transport{}},
		{"ws://localhost:8080/ports", &comm.Transport{}},
	}
	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			tr, err := NewTransport(tc.url, "test")
			require.NoError(t, err)
			require.IsType(t, tc.expect, tr)
		})
	}
	for _, url := range []string{"fifo://", "amqp://localhost", "://bad"} {
		_, err := NewTransport(url, "test")
		require.Error(t, err, url)
	}
}

func TestShortID(t *testing.T) {
	require.Equal(t, "abc", shortID("abc"))
	require.Len(t, shortID("0123456789abcdef0123456789abcdef"), 23-len(AppID)-1)
}

func TestProcessID(t *testing.T) {
	id := ProcessID()
	require.True(t, strings.HasSuffix(id, "-"+strconv.FormatInt(int64(os.Getpid()), 36)), id)
	require.LessOrEqual(t, len(id), 23-len(AppID)-1)
	require.Equal(t, id, shortID(id))
}

func TestWithClientID(t *testing.T) {
	u, err := url.Parse("mqtt://localhost:1883/msgport")
	require.NoError(t, err)
	withID, err := url.Parse(withClientID(u, "machine1-7f"))
	require.NoError(t, err)
	require.Equal(t, "msgport-machine1-7f", withID.Query().Get("client-id"))

	u, err = url.Parse("mqtt://localhost:1883/msgport?client-id=fixed")
	require.NoError(t, err)
	withID, err = url.Parse(withClientID(u, "machine1-7f"))
	require.NoError(t, err)
	require.Equal(t, "fixed", withID.Query().Get("client-id"))

	conf := &Config{TransportURL: "mem://"}
	_, err = conf.NewEnv()
	require.NoError(t, err)
	require.Equal(t, ProcessID(), conf.ComponentID)
}

func TestEnvChannels(t *testing.T) {
	conf := &Config{TransportURL: "mem://", Framing: channel.FramingSingle, ComponentID: "test"}
	e, err := conf.NewEnv()
	require.NoError(t, err)

	ch, err := e.Create(100)
	require.NoError(t, err)
	defer ch.Remove()
	require.Equal(t, channel.FramingSingle, ch.Framing)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, e.Sender(100, 7).Send(ctx, &msgs.Raw{Data: []byte("abc")}))
	msg, err := ch.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, channel.Port(7), msg.Port)
	content, err := msgs.Decode(msg.Payload)
	require.NoError(t, err)
	require.Equal(t, &msgs.Raw{Data: []byte("abc")}, content)

	peer, err := e.Open(100)
	require.NoError(t, err)
	require.False(t, peer.Owner())
	_, err = e.Open(101)
	require.Error(t, err)
}

type testFile struct {
	Env   *Config `toml:"env"`
	Other struct {
		Value int `toml:"value"`
	} `toml:"other"`
}

func writeFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "msgport.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDecodeFile(t *testing.T) {
	path := writeFile(t, `
[env]
transport = "fifo:///var/run/ports"
framing = "single"
max_message_size = 1024

[other]
value = 3
`)
	conf := NewConfig()
	f := testFile{Env: conf}
	require.NoError(t, DecodeFile(path, &f))
	require.Equal(t, "fifo:///var/run/ports", conf.TransportURL)
	require.Equal(t, channel.FramingSingle, conf.Framing)
	require.Equal(t, 1024, conf.MaxMessageSize)
	require.Equal(t, 3, f.Other.Value)
}

func TestDecodeFileErrors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"unknown key", "[env]\ntransprot = \"mem://\"\n"},
		{"unknown section", "[nothing]\nvalue = 1\n"},
		{"bad framing", "[env]\nframing = \"triple\"\n"},
		{"syntax", "[env\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := testFile{Env: NewConfig()}
			require.Error(t, DecodeFile(writeFile(t, tc.content), &f))
		})
	}
	require.Error(t, DecodeFile(filepath.Join(t.TempDir(), "missing.toml"), &testFile{}))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvConfigFile, "")
	require.NoError(t, LoadDefaults(&testFile{}))

	t.Setenv(EnvConfigFile, writeFile(t, "[other]\nvalue = 5\n"))
	var f testFile
	require.NoError(t, LoadDefaults(&f))
	require.Equal(t, 5, f.Other.Value)
}
