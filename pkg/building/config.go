package building

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/robotalks/msgport/pkg/channel"
	"github.com/robotalks/msgport/pkg/ipc"
)

// Role is a set of components run by a process.
type Role int

// Roles
const (
	RoleSensor Role = 1 << iota
	RoleControl
	RoleFan

	RoleAll = RoleSensor | RoleControl | RoleFan
)

var roleNames = []struct {
	role Role
	name string
}{
	{RoleSensor, "sensor"},
	{RoleControl, "control"},
	{RoleFan, "fan"},
}

// ParseRoles parses comma separated role names, "all" for all roles.
func ParseRoles(s string) (Role, error) {
	var roles Role
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name == "all" {
			roles |= RoleAll
			continue
		}
		found := false
		for _, r := range roleNames {
			if r.name == name {
				roles |= r.role
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown role: %q", name)
		}
	}
	return roles, nil
}

// Has determines if the role r1 is included.
func (r Role) Has(r1 Role) bool {
	return r&r1 == r1
}

func (r Role) String() string {
	var names []string
	for _, rn := range roleNames {
		if r.Has(rn.role) {
			names = append(names, rn.name)
		}
	}
	return strings.Join(names, ",")
}

// Set implements flag.Value.
func (r *Role) Set(s string) (err error) {
	*r, err = ParseRoles(s)
	return
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	return r.Set(string(text))
}

// Config defines the configuration of the building control system.
type Config struct {
	Roles Role `toml:"roles"`

	// ControlKey is the inbox of the controller.
	ControlKey ipc.Key `toml:"control_key"`
	// FanKey is the inbox of the fan.
	FanKey ipc.Key `toml:"fan_key"`

	TempPort   channel.Port `toml:"temp_port"`
	FanCmdPort channel.Port `toml:"fan_cmd_port"`
	FanAckPort channel.Port `toml:"fan_ack_port"`

	FanOnAbove  float64 `toml:"fan_on_above"`
	FanOffBelow float64 `toml:"fan_off_below"`

	SensePeriod time.Duration `toml:"sense_period"`

	Temp TempConfig `toml:"temp"`
}

// Defaults
const (
	DefaultControlKey  ipc.Key      = 100
	DefaultFanKey      ipc.Key      = 101
	DefaultTempPort    channel.Port = 1
	DefaultFanCmdPort  channel.Port = 2
	DefaultFanAckPort  channel.Port = 3
	DefaultFanOnAbove  float64      = 80
	DefaultFanOffBelow float64      = 70
	DefaultSensePeriod              = time.Second
)

var defaultConfig = Config{
	Roles:       RoleAll,
	ControlKey:  DefaultControlKey,
	FanKey:      DefaultFanKey,
	TempPort:    DefaultTempPort,
	FanCmdPort:  DefaultFanCmdPort,
	FanAckPort:  DefaultFanAckPort,
	FanOnAbove:  DefaultFanOnAbove,
	FanOffBelow: DefaultFanOffBelow,
	SensePeriod: DefaultSensePeriod,
	Temp:        DefaultTempConfig(),
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.Var(&defaultConfig.Roles, "roles", "Components to run: sensor,control,fan or all.")
	flag.Var(&defaultConfig.ControlKey, "control-key", "Queue key of the controller inbox.")
	flag.Var(&defaultConfig.FanKey, "fan-key", "Queue key of the fan inbox.")
	flag.Int64Var((*int64)(&defaultConfig.TempPort), "temp-port", int64(defaultConfig.TempPort), "Port of temperature readings.")
	flag.Int64Var((*int64)(&defaultConfig.FanCmdPort), "fan-cmd-port", int64(defaultConfig.FanCmdPort), "Port of fan commands.")
	flag.Int64Var((*int64)(&defaultConfig.FanAckPort), "fan-ack-port", int64(defaultConfig.FanAckPort), "Port of fan acknowledgements.")
	flag.Float64Var(&defaultConfig.FanOnAbove, "fan-on-above", defaultConfig.FanOnAbove, "Turn fan on above this temperature.")
	flag.Float64Var(&defaultConfig.FanOffBelow, "fan-off-below", defaultConfig.FanOffBelow, "Turn fan off below this temperature.")
	flag.DurationVar(&defaultConfig.SensePeriod, "sense-period", defaultConfig.SensePeriod, "Period of temperature readings.")
	flag.IntVar(&defaultConfig.Temp.MinTemp, "min-temp", defaultConfig.Temp.MinTemp, "Lower bound of simulated temperature.")
	flag.IntVar(&defaultConfig.Temp.MaxTemp, "max-temp", defaultConfig.Temp.MaxTemp, "Upper bound of simulated temperature.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Roles == 0 {
		return fmt.Errorf("at least one role is required")
	}
	for _, p := range []channel.Port{c.TempPort, c.FanCmdPort, c.FanAckPort} {
		if p <= 0 {
			return fmt.Errorf("invalid port %d", p)
		}
	}
	if c.Roles.Has(RoleControl|RoleFan) && c.ControlKey == c.FanKey {
		return fmt.Errorf("control and fan inboxes must use different keys")
	}
	if c.TempPort == c.FanAckPort {
		return fmt.Errorf("temperature and fan ack ports must differ on the controller inbox")
	}
	if c.FanOffBelow > c.FanOnAbove {
		return fmt.Errorf("fan-off-below %v is above fan-on-above %v", c.FanOffBelow, c.FanOnAbove)
	}
	if c.Temp.MinTemp > c.Temp.MaxTemp {
		return fmt.Errorf("min-temp %d is above max-temp %d", c.Temp.MinTemp, c.Temp.MaxTemp)
	}
	return nil
}
