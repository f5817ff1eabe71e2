package building

import (
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/msgport/pkg/channel"
	fx "github.com/robotalks/msgport/pkg/framework"
	"github.com/robotalks/msgport/pkg/ipc"
	"github.com/robotalks/msgport/pkg/msgs"
	"github.com/robotalks/msgport/pkg/port"
)

// ContentSender sends contents to a port.
type ContentSender interface {
	Send(cc fx.ControlContext, content msgs.Content) error
}

type portSender struct {
	*port.Sender
}

func (s portSender) Send(cc fx.ControlContext, content msgs.Content) error {
	return s.Sender.Send(cc.Context(), content)
}

// SenderOf adapts port.Sender to ContentSender.
func SenderOf(s *port.Sender) ContentSender {
	return portSender{Sender: s}
}

// SensorComponent reads the temperature and reports it.
type SensorComponent struct {
	Sensor *TempSensor
	Out    ContentSender
	// Period between readings, 0 reads on every tick.
	Period time.Duration

	last time.Time
}

// AddToLoop implements fx.LoopAdder.
func (c *SensorComponent) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvSense, c)
}

// Control implements fx.Controller.
func (c *SensorComponent) Control(cc fx.ControlContext) error {
	if c.Period > 0 && !c.last.IsZero() && cc.Time().Sub(c.last) < c.Period {
		return nil
	}
	c.last = cc.Time()
	temp := c.Sensor.Next()
	glog.V(3).Infof("tick %d: temperature %v%s", cc.Tick(), temp.Degree, temp.Unit)
	return c.Out.Send(cc, temp)
}

// ControlComponent turns the fan on when it's hot and off when
// it's cool enough.
type ControlComponent struct {
	Key         ipc.Key
	TempPort    channel.Port
	FanAckPort  channel.Port
	FanOnAbove  float32
	FanOffBelow float32
	Out         ContentSender

	fanOn    bool
	commands int
	acks     int
	failures int
}

// AddToLoop implements fx.LoopAdder.
func (c *ControlComponent) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvControl, c)
}

// Control implements fx.Controller.
func (c *ControlComponent) Control(cc fx.ControlContext) error {
	var errs fx.AggregatedError
	port.Take(cc, c.Key, c.TempPort, func(content msgs.Content) {
		temp, ok := content.(*msgs.Temperature)
		if !ok {
			glog.Warningf("port %d: unexpected %T", c.TempPort, content)
			return
		}
		errs.Add(c.update(cc, temp))
	})
	port.Take(cc, c.Key, c.FanAckPort, func(content msgs.Content) {
		ack, ok := content.(*msgs.FanAcknowledge)
		if !ok {
			glog.Warningf("port %d: unexpected %T", c.FanAckPort, content)
			return
		}
		c.acks++
		if ack.Ack != msgs.FanAckOk {
			c.failures++
			glog.Warningf("fan acknowledged %s", ack.Ack)
		}
	})
	return errs.Aggregate()
}

func (c *ControlComponent) update(cc fx.ControlContext, temp *msgs.Temperature) error {
	fanOn := c.fanOn
	switch {
	case temp.Degree > c.FanOnAbove:
		fanOn = true
	case temp.Degree < c.FanOffBelow:
		fanOn = false
	}
	if fanOn == c.fanOn && c.commands > 0 {
		return nil
	}
	cmd := msgs.FanCmdOff
	if fanOn {
		cmd = msgs.FanCmdOn
	}
	glog.Infof("temperature %v%s, fan %s", temp.Degree, temp.Unit, cmd)
	if err := c.Out.Send(cc, &msgs.FanCommand{Cmd: cmd}); err != nil {
		return err
	}
	c.fanOn = fanOn
	c.commands++
	return nil
}

// FanOn reports the last state commanded.
func (c *ControlComponent) FanOn() bool {
	return c.fanOn
}

// Commands is the number of commands sent.
func (c *ControlComponent) Commands() int {
	return c.commands
}

// Acks is the number of acknowledgements received and how many of
// them are failures.
func (c *ControlComponent) Acks() (int, int) {
	return c.acks, c.failures
}

// FanComponent actuates the fan on commands and acknowledges.
type FanComponent struct {
	Key        ipc.Key
	FanCmdPort channel.Port
	Fan        *Fan
	Out        ContentSender

	actuated int
}

// AddToLoop implements fx.LoopAdder.
func (c *FanComponent) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvActuate, c)
}

// Control implements fx.Controller.
func (c *FanComponent) Control(cc fx.ControlContext) error {
	var errs fx.AggregatedError
	port.Take(cc, c.Key, c.FanCmdPort, func(content msgs.Content) {
		cmd, ok := content.(*msgs.FanCommand)
		if !ok {
			glog.Warningf("port %d: unexpected %T", c.FanCmdPort, content)
			return
		}
		ack := c.Fan.Actuate(cmd.Cmd)
		c.actuated++
		glog.V(2).Infof("fan %s: %s", cmd.Cmd, ack)
		errs.Add(c.Out.Send(cc, &msgs.FanAcknowledge{Ack: ack}))
	})
	return errs.Aggregate()
}

// Actuated is the number of commands actuated.
func (c *FanComponent) Actuated() int {
	return c.actuated
}
