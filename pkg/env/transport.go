package env

import (
	"fmt"
	"net/url"

	"github.com/robotalks/msgport/pkg/ipc"
	"github.com/robotalks/msgport/pkg/ipc/comm"
	"github.com/robotalks/msgport/pkg/ipc/comm/mqtt"
	"github.com/robotalks/msgport/pkg/ipc/comm/stream"
	"github.com/robotalks/msgport/pkg/ipc/comm/websocket"
	"github.com/robotalks/msgport/pkg/ipc/sysv"
)

// NewTransport creates a transport from URL.
// componentID names the MQTT client unless client-id is in the URL.
func NewTransport(transportURL, componentID string) (ipc.Transport, error) {
	u, err := url.Parse(transportURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "mem":
		return ipc.NewMemory(), nil
	case "sysv":
		if !sysv.Supported {
			return nil, sysv.ErrUnsupported
		}
		return sysv.New(), nil
	case "fifo":
		if u.Path == "" {
			return nil, fmt.Errorf("fifo directory required")
		}
		return comm.NewTransport(stream.NewFIFODialer(u.Path)), nil
	case "mqtt", "tcp", "ssl":
		dialer, err := mqtt.NewDialer(withClientID(u, componentID))
		if err != nil {
			return nil, err
		}
		return comm.NewTransport(dialer), nil
	case "ws", "wss":
		return comm.NewTransport(websocket.NewDialer(transportURL)), nil
	}
	return nil, fmt.Errorf("unsupported transport scheme %q", u.Scheme)
}

// withClientID sets client-id from componentID unless the URL has one.
// Brokers disconnect an existing session when another client connects
// with the same id, so componentID must be unique per process.
func withClientID(u *url.URL, componentID string) string {
	if componentID != "" && u.Query().Get("client-id") == "" {
		q := u.Query()
		q.Set("client-id", AppID+"-"+shortID(componentID))
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// MQTT client ids are limited to 23 characters by MQTT 3.1.
func shortID(id string) string {
	const maxLen = 23 - len(AppID) - 1
	if len(id) > maxLen {
		return id[:maxLen]
	}
	return id
}
