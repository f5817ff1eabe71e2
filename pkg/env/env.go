// Package env sets up the environment shared by components of
// a process: the transport carrying channels and the framing.
package env

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/msgport/pkg/channel"
	"github.com/robotalks/msgport/pkg/ipc"
	"github.com/robotalks/msgport/pkg/port"
)

// Environment variables
const (
	EnvTransport  = "MSGPORT_TRANSPORT"
	EnvFraming    = "MSGPORT_FRAMING"
	EnvConfigFile = "MSGPORT_CONFIG"
)

// DefaultTransportURL uses System V message queues.
const DefaultTransportURL = "sysv://"

// Config provides common options to setup an env.
type Config struct {
	// TransportURL selects the transport, e.g.
	// sysv://, mem://, fifo:///tmp/ports, mqtt://host:1883/prefix,
	// ws://host:8080/ports.
	TransportURL string `toml:"transport"`
	// Framing must be the same for all peers.
	Framing channel.Framing `toml:"framing"`
	// MaxMessageSize limits payloads, 0 means channel.DefaultMaxMessageSize.
	MaxMessageSize int `toml:"max_message_size"`
	// ComponentID identifies this process, e.g. as MQTT client id.
	ComponentID string `toml:"component_id"`
}

var defaultConfig = Config{
	TransportURL: DefaultTransportURL,
}

func init() {
	if val := os.Getenv(EnvTransport); val != "" {
		defaultConfig.TransportURL = val
	}
	if val := os.Getenv(EnvFraming); val != "" {
		if err := defaultConfig.Framing.Set(val); err != nil {
			glog.Warningf("%s: %v", EnvFraming, err)
		}
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.TransportURL, "transport", defaultConfig.TransportURL, "Transport URL: sysv://, mem://, fifo:///dir, mqtt://host:port/prefix, ws://host:port/path")
	flag.Var(&defaultConfig.Framing, "framing", "Framing of messages: two-phase or single")
	flag.IntVar(&defaultConfig.MaxMessageSize, "max-message-size", defaultConfig.MaxMessageSize, "Maximum payload size, 0 for default")
	flag.StringVar(&defaultConfig.ComponentID, "id", defaultConfig.ComponentID, "Component ID, defaults to one derived from machine ID and process ID")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Env is the env shared by components.
type Env struct {
	Config    *Config
	Transport ipc.Transport
}

// NewEnv creates Env from config.
func (c *Config) NewEnv() (*Env, error) {
	if c.ComponentID == "" {
		c.ComponentID = ProcessID()
	}
	t, err := NewTransport(c.TransportURL, c.ComponentID)
	if err != nil {
		return nil, fmt.Errorf("create transport %q error: %w", c.TransportURL, err)
	}
	glog.Infof("transport %s, framing %s", c.TransportURL, c.Framing)
	return &Env{Config: c, Transport: t}, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	e, err := c.NewEnv()
	if err != nil {
		glog.Exitln(err)
	}
	return e
}

// Create creates a channel owned by the caller.
func (e *Env) Create(key ipc.Key) (*channel.Channel, error) {
	ch, err := channel.Create(e.Transport, key)
	if err != nil {
		return nil, err
	}
	e.setup(ch)
	return ch, nil
}

// Open opens an existing channel.
func (e *Env) Open(key ipc.Key) (*channel.Channel, error) {
	ch, err := channel.Open(e.Transport, key)
	if err != nil {
		return nil, err
	}
	e.setup(ch)
	return ch, nil
}

// Sender creates a Sender to port of the channel identified by key.
func (e *Env) Sender(key ipc.Key, p channel.Port) *port.Sender {
	return &port.Sender{
		Transport:      e.Transport,
		Key:            key,
		Port:           p,
		Framing:        e.Config.Framing,
		MaxMessageSize: e.Config.MaxMessageSize,
	}
}

func (e *Env) setup(ch *channel.Channel) {
	ch.Framing = e.Config.Framing
	ch.MaxMessageSize = e.Config.MaxMessageSize
}
