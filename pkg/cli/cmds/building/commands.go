package building

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/msgport/pkg/building"
	"github.com/robotalks/msgport/pkg/cli/sh"
	"github.com/robotalks/msgport/pkg/msgs"
)

var (
	// TempGenCmd prints readings of the temperature generator.
	TempGenCmd = ishell.Cmd{
		Name:    "temp.gen",
		Aliases: []string{"tg"},
		Help:    "[COUNT]",
		Func: func(c *ishell.Context) {
			count := 10
			if len(c.Args) > 0 {
				val, err := strconv.Atoi(c.Args[0])
				if err != nil || val <= 0 {
					c.Err(fmt.Errorf("invalid COUNT: %s", c.Args[0]))
					return
				}
				count = val
			}
			sensor := building.NewTempSensor(building.Default().Temp)
			readings := make([]string, count)
			for n := range readings {
				temp := sensor.Next()
				readings[n] = strconv.FormatFloat(float64(temp.Degree), 'f', -1, 32)
			}
			c.Println(strings.Join(readings, " "))
		},
	}

	// TempSendCmd sends readings of the temperature generator to the
	// current channel, one per call of the generator.
	TempSendCmd = ishell.Cmd{
		Name:    "temp.send",
		Aliases: []string{"ts"},
		Help:    "[COUNT]",
		Func: sh.MustHaveChannel(func(c *ishell.Context) {
			count := 1
			if len(c.Args) > 0 {
				val, err := strconv.Atoi(c.Args[0])
				if err != nil || val <= 0 {
					c.Err(fmt.Errorf("invalid COUNT: %s", c.Args[0]))
					return
				}
				count = val
			}
			s := sh.ShellFrom(c)
			conf := building.Default()
			sensor := building.NewTempSensor(conf.Temp)
			ctx, cancel := s.Context()
			defer cancel()
			for i := 0; i < count; i++ {
				payload, err := msgs.Encode(sensor.Next())
				if err == nil {
					err = s.Current.Send(ctx, conf.TempPort, payload)
				}
				if err != nil {
					c.Err(err)
					return
				}
			}
			c.Printf("sent %d readings to port %d\n", count, conf.TempPort)
		}),
	}

	// FanActuateCmd runs the fan actuation stub locally.
	FanActuateCmd = ishell.Cmd{
		Name:    "fan.actuate",
		Aliases: []string{"fa"},
		Help:    "on|off",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("on|off required"))
				return
			}
			var cmd msgs.FanCmd
			switch strings.ToLower(c.Args[0]) {
			case "on":
				cmd = msgs.FanCmdOn
			case "off":
				cmd = msgs.FanCmdOff
			default:
				c.Err(fmt.Errorf("invalid fan command: %s", c.Args[0]))
				return
			}
			c.Println(building.NewFan().Actuate(cmd))
		},
	}
)

func init() {
	sh.AddCmds(
		&TempGenCmd,
		&TempSendCmd,
		&FanActuateCmd,
	)
}
