package building

import (
	"github.com/robotalks/msgport/pkg/msgs"
)

// TempConfig defines the bounds and steps of the simulated temperature.
type TempConfig struct {
	MinTemp     int           `toml:"min"`
	MaxTemp     int           `toml:"max"`
	InitialStep int           `toml:"initial_step"`
	RaiseStep   int           `toml:"raise_step"`
	LowerStep   int           `toml:"lower_step"`
	Unit        msgs.TempUnit `toml:"unit"`
}

// Defaults of TempConfig.
const (
	DefaultMinTemp     = 55
	DefaultMaxTemp     = 100
	DefaultInitialStep = 1
	DefaultRaiseStep   = 4
	DefaultLowerStep   = -4
)

// DefaultTempConfig returns the default TempConfig.
func DefaultTempConfig() TempConfig {
	return TempConfig{
		MinTemp:     DefaultMinTemp,
		MaxTemp:     DefaultMaxTemp,
		InitialStep: DefaultInitialStep,
		RaiseStep:   DefaultRaiseStep,
		LowerStep:   DefaultLowerStep,
		Unit:        msgs.TempUnitFahrenheit,
	}
}

// TempSensor produces a sawtooth temperature oscillating around
// [MinTemp, MaxTemp]. A reading may pass a bound by less than a step
// before the direction flips.
type TempSensor struct {
	Config TempConfig

	reading     int
	step        int
	initialized bool
}

// NewTempSensor creates a TempSensor.
func NewTempSensor(conf TempConfig) *TempSensor {
	return &TempSensor{Config: conf}
}

// Next advances one tick and returns the reading.
func (s *TempSensor) Next() *msgs.Temperature {
	if !s.initialized {
		s.reading, s.step, s.initialized = s.Config.MinTemp, s.Config.InitialStep, true
	}
	s.reading += s.step
	if s.reading < s.Config.MinTemp {
		s.step = s.Config.RaiseStep
	} else if s.reading > s.Config.MaxTemp {
		s.step = s.Config.LowerStep
	}
	return &msgs.Temperature{Degree: float32(s.reading), Unit: s.Config.Unit}
}

// Reading returns the last reading.
func (s *TempSensor) Reading() int {
	return s.reading
}

// Step returns the step applied on next tick.
func (s *TempSensor) Step() int {
	return s.step
}

// Initialized indicates Next has been called.
func (s *TempSensor) Initialized() bool {
	return s.initialized
}
