//go:build darwin || linux

package server

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// reuseAddr marks the listening socket SO_REUSEADDR before bind, so a
// restarted server can rebind while old connections linger in TIME_WAIT.
func reuseAddr(network, address string, rc syscall.RawConn) error {
	var serr error
	if err := rc.Control(func(fd uintptr) {
		serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	}); err != nil {
		return err
	}
	return serr
}
