//go:build !windows

package listener

import (
	"syscall"
)

// reuseAddrControl sets SO_REUSEADDR on the listening socket before bind,
// mirroring the original listener's reuseAddr configuration knob.
func reuseAddrControl(_, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}
