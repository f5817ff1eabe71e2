package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang/glog"

	"github.com/robotalks/msgport/pkg/channel"
	"github.com/robotalks/msgport/pkg/env"
	"github.com/robotalks/msgport/pkg/ipc/comm"
	"github.com/robotalks/msgport/pkg/ipc/comm/mqtt"
	"github.com/robotalks/msgport/pkg/msgs"
)

var (
	mqttURL = "mqtt://localhost:1883/msgport/"
)

func init() {
	if val := os.Getenv(env.EnvTransport); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

// describe tells what a frame carries: a size frame, a single frame or
// a bare payload.
func describe(data []byte) string {
	content, err := msgs.Decode(data)
	if err == nil {
		return msgs.TypeName(content) + " " + content.Serializable().String()
	}
	if size, ok := channel.DecodeSizeFrame(data); ok {
		return "size " + strconv.FormatUint(size, 10)
	}
	if payload, _, ok := channel.DecodeSingleFrame(data); ok {
		if content, err := msgs.Decode(payload); err == nil {
			return "single " + msgs.TypeName(content) + " " + content.Serializable().String()
		}
	}
	return fmt.Sprintf("%d bytes: %v", len(data), err)
}

func main() {
	flag.Parse()

	c, err := mqtt.NewClientFromURL(mqttURL)
	if err != nil {
		glog.Exitln(err)
	}
	if err := c.Connect(); err != nil {
		glog.Exitln(err)
	}
	defer c.Close()

	c.Sub(mqtt.QueueTopicPrefix+"+", func(topic string, payload []byte) {
		key, err := mqtt.QueueKey(topic)
		if err != nil {
			glog.Warning(err)
			return
		}
		tag, data, err := comm.DecodePacket(payload)
		if err != nil {
			glog.Warningf("%d: bad packet: %v", key, err)
			return
		}
		glog.Infof("%d: [%d] %s", key, tag, describe(data))
	})
	<-(chan struct{})(nil)
}
