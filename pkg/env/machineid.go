package env

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strconv"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// AppID salts the machine ID so it's not exposed on the wire.
const AppID = "msgport"

// MachineID retrieves the unique ID identifying the machine.
// It falls back to the hostname when the machine ID isn't available.
func MachineID() string {
	id, err := machineid.ProtectedID(AppID)
	if err == nil {
		return id
	}
	glog.V(2).Infof("machine id unavailable: %v", err)
	host, _ := os.Hostname()
	sum := sha256.Sum256([]byte(AppID + "/" + host))
	return hex.EncodeToString(sum[:])
}

// ProcessID identifies this process among others on the machine,
// short enough to fit in an MQTT client id.
func ProcessID() string {
	id := MachineID()
	if len(id) > 8 {
		id = id[:8]
	}
	return id + "-" + strconv.FormatInt(int64(os.Getpid()), 36)
}
