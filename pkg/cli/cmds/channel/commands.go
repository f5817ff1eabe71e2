package channel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/msgport/pkg/channel"
	"github.com/robotalks/msgport/pkg/cli/sh"
	"github.com/robotalks/msgport/pkg/msgs"
)

// ParseContent parses a content from command arguments:
//
//	raw TEXT...
//	temp DEGREE [F|C|K]
//	fan on|off
//	ack ok|error
func ParseContent(args []string) (msgs.Content, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("TYPE required")
	}
	typ, args := strings.ToLower(args[0]), args[1:]
	switch typ {
	case "raw":
		return &msgs.Raw{Data: []byte(strings.Join(args, " "))}, nil
	case "temp", "temperature":
		if len(args) < 1 {
			return nil, fmt.Errorf("DEGREE required")
		}
		val, err := strconv.ParseFloat(args[0], 32)
		if err != nil {
			return nil, fmt.Errorf("invalid DEGREE: %v", err)
		}
		content := &msgs.Temperature{Degree: float32(val), Unit: msgs.TempUnitFahrenheit}
		if len(args) > 1 {
			if content.Unit, err = parseTempUnit(args[1]); err != nil {
				return nil, err
			}
		}
		return content, nil
	case "fan":
		if len(args) < 1 {
			return nil, fmt.Errorf("on|off required")
		}
		switch strings.ToLower(args[0]) {
		case "on":
			return &msgs.FanCommand{Cmd: msgs.FanCmdOn}, nil
		case "off":
			return &msgs.FanCommand{Cmd: msgs.FanCmdOff}, nil
		}
		return nil, fmt.Errorf("invalid fan command: %s", args[0])
	case "ack":
		if len(args) < 1 {
			return nil, fmt.Errorf("ok|error required")
		}
		switch strings.ToLower(args[0]) {
		case "ok":
			return &msgs.FanAcknowledge{Ack: msgs.FanAckOk}, nil
		case "error", "err":
			return &msgs.FanAcknowledge{Ack: msgs.FanAckError}, nil
		}
		return nil, fmt.Errorf("invalid ack: %s", args[0])
	}
	return nil, fmt.Errorf("unknown TYPE: %s", typ)
}

func parseTempUnit(s string) (msgs.TempUnit, error) {
	for _, unit := range []msgs.TempUnit{msgs.TempUnitKelvin, msgs.TempUnitCelsius, msgs.TempUnitFahrenheit} {
		if strings.EqualFold(unit.String(), s) {
			return unit, nil
		}
	}
	return 0, fmt.Errorf("invalid unit: %s", s)
}

func parsePort(s string) (channel.Port, error) {
	val, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid PORT: %v", err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid PORT: %d", val)
	}
	return channel.Port(val), nil
}

func send(c *ishell.Context, encode bool) {
	if len(c.Args) < 2 {
		c.Err(fmt.Errorf("PORT and content required"))
		return
	}
	p, err := parsePort(c.Args[0])
	if err != nil {
		c.Err(err)
		return
	}
	var payload []byte
	if encode {
		content, err := ParseContent(c.Args[1:])
		if err != nil {
			c.Err(err)
			return
		}
		if payload, err = msgs.Encode(content); err != nil {
			c.Err(err)
			return
		}
	} else {
		payload = []byte(strings.Join(c.Args[1:], " "))
	}
	s := sh.ShellFrom(c)
	ctx, cancel := s.Context()
	defer cancel()
	if err := s.Current.Send(ctx, p, payload); err != nil {
		c.Err(err)
		return
	}
	if !s.OutputJSON {
		c.Printf("sent %d bytes to port %d\n", len(payload), p)
	}
}

func receive(c *ishell.Context, decode bool) {
	s := sh.ShellFrom(c)
	p := channel.AnyPort
	if len(c.Args) > 0 {
		var err error
		if p, err = parsePort(c.Args[0]); err != nil {
			c.Err(err)
			return
		}
	}
	ctx, cancel := s.Context()
	defer cancel()
	var msg channel.Message
	var err error
	if p == channel.AnyPort {
		msg, err = s.Current.Receive(ctx)
	} else {
		msg, err = s.Current.ReceivePort(ctx, p)
	}
	if err != nil {
		c.Err(err)
		return
	}
	if !decode {
		c.Printf("[%d] %q\n", msg.Port, msg.Payload)
		return
	}
	content, err := msgs.Decode(msg.Payload)
	if err != nil {
		c.Err(fmt.Errorf("port %d: %v", msg.Port, err))
		return
	}
	if err := sh.PrintContent(c, msg.Port, content); err != nil {
		c.Err(err)
	}
}

var (
	// SendCmd sends a content.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "PORT raw TEXT | temp DEGREE [F|C|K] | fan on|off | ack ok|error",
		Func: sh.MustHaveChannel(func(c *ishell.Context) {
			send(c, true)
		}),
	}

	// SendRawCmd sends text as payload without encoding.
	SendRawCmd = ishell.Cmd{
		Name:    "send.raw",
		Aliases: []string{"sr"},
		Help:    "PORT TEXT",
		Func: sh.MustHaveChannel(func(c *ishell.Context) {
			send(c, false)
		}),
	}

	// ReceiveCmd receives and decodes a content.
	ReceiveCmd = ishell.Cmd{
		Name:    "recv",
		Aliases: []string{"r"},
		Help:    "[PORT]",
		Func: sh.MustHaveChannel(func(c *ishell.Context) {
			receive(c, true)
		}),
	}

	// ReceiveRawCmd receives a payload without decoding.
	ReceiveRawCmd = ishell.Cmd{
		Name:    "recv.raw",
		Aliases: []string{"rr"},
		Help:    "[PORT]",
		Func: sh.MustHaveChannel(func(c *ishell.Context) {
			receive(c, false)
		}),
	}
)

func init() {
	sh.AddCmds(
		&SendCmd,
		&SendRawCmd,
		&ReceiveCmd,
		&ReceiveRawCmd,
	)
}
