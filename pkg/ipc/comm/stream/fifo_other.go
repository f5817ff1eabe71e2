//go:build !linux

package stream

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/robotalks/msgport/pkg/ipc"
	"github.com/robotalks/msgport/pkg/ipc/comm"
)

// ErrFIFOUnsupported indicates named pipes are not available.
var ErrFIFOUnsupported = errors.New("named pipes not supported on this platform")

// FIFODialer links queues to named pipes in a directory.
type FIFODialer struct {
	Dir  string
	Perm uint32
}

// NewFIFODialer creates a FIFODialer.
func NewFIFODialer(dir string) *FIFODialer {
	return &FIFODialer{Dir: dir, Perm: 0666}
}

// Path returns the path of the named pipe for key.
func (d *FIFODialer) Path(key ipc.Key) string {
	return filepath.Join(d.Dir, fmt.Sprintf("port-%d.fifo", key))
}

// Dial implements comm.Dialer.
func (d *FIFODialer) Dial(key ipc.Key) (comm.PacketReadWriter, error) {
	return nil, ErrFIFOUnsupported
}
