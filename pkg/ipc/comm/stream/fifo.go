//go:build linux

package stream

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"golang.org/x/sys/unix"

	"github.com/robotalks/msgport/pkg/ipc"
	"github.com/robotalks/msgport/pkg/ipc/comm"
)

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

// Dial implements comm.Dialer. The pipe is opened read-write so
// opening never blocks waiting for a peer.
func (d *FIFODialer) Dial(key ipc.Key) (comm.PacketReadWriter, error) {
	path := d.Path(key)
	if err := unix.Mkfifo(path, d.Perm); err != nil && !errors.Is(err, unix.EEXIST) {
		return nil, &os.PathError{Op: "mkfifo", Path: path, Err: err}
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	glog.V(2).Infof("fifo %s opened", path)
	return New(f), nil
}
