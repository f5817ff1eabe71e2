// Package building implements a building control system exchanging
// temperature readings and fan commands through port channels.
//
// The controller owns the ControlKey channel receiving temperatures
// and fan acknowledgements. The fan owns the FanKey channel receiving
// fan commands. The sensor has no inbox.
package building

import (
	"github.com/golang/glog"

	"github.com/robotalks/msgport/pkg/channel"
	"github.com/robotalks/msgport/pkg/env"
	fx "github.com/robotalks/msgport/pkg/framework"
	"github.com/robotalks/msgport/pkg/ipc"
	"github.com/robotalks/msgport/pkg/port"
)

// System is the set of components in a process.
type System struct {
	Env    *env.Env
	Config *Config

	Sensor  *SensorComponent
	Control *ControlComponent
	Fan     *FanComponent

	inboxes   []*channel.Channel
	receivers []fx.Runnable
}

// NewSystem creates the components for configured roles and their
// inbox channels.
func (c *Config) NewSystem(e *env.Env) (*System, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	s := &System{Env: e, Config: c}
	if c.Roles.Has(RoleControl) {
		if err := s.createInbox(c.ControlKey); err != nil {
			return nil, err
		}
		s.Control = &ControlComponent{
			Key:         c.ControlKey,
			TempPort:    c.TempPort,
			FanAckPort:  c.FanAckPort,
			FanOnAbove:  float32(c.FanOnAbove),
			FanOffBelow: float32(c.FanOffBelow),
			Out:         SenderOf(e.Sender(c.FanKey, c.FanCmdPort)),
		}
	}
	if c.Roles.Has(RoleFan) {
		if err := s.createInbox(c.FanKey); err != nil {
			s.Close()
			return nil, err
		}
		s.Fan = &FanComponent{
			Key:        c.FanKey,
			FanCmdPort: c.FanCmdPort,
			Fan:        NewFan(),
			Out:        SenderOf(e.Sender(c.ControlKey, c.FanAckPort)),
		}
	}
	if c.Roles.Has(RoleSensor) {
		s.Sensor = &SensorComponent{
			Sensor: NewTempSensor(c.Temp),
			Out:    SenderOf(e.Sender(c.ControlKey, c.TempPort)),
			Period: c.SensePeriod,
		}
	}
	return s, nil
}

func (s *System) createInbox(key ipc.Key) error {
	ch, err := s.Env.Create(key)
	if err != nil {
		return err
	}
	s.inboxes = append(s.inboxes, ch)
	s.receivers = append(s.receivers, port.NewReceiver(ch))
	return nil
}

// AddToLoop implements fx.LoopAdder.
func (s *System) AddToLoop(l *fx.Loop) {
	if s.Sensor != nil {
		l.Add(s.Sensor)
	}
	if s.Control != nil {
		l.Add(s.Control)
	}
	if s.Fan != nil {
		l.Add(s.Fan)
	}
	l.AddRunnable(s.receivers...)
}

// Close removes the inbox channels.
func (s *System) Close() {
	for _, ch := range s.inboxes {
		ch.Remove()
	}
	s.inboxes = nil
	glog.V(2).Info("building system closed")
}
