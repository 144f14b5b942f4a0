//go:build !darwin && !linux

package server

import "syscall"

func reuseAddr(network, address string, rc syscall.RawConn) error {
	return nil
}
