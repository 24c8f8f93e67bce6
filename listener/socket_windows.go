//go:build windows

package listener

import "syscall"

// reuseAddrControl is a no-op on Windows: SO_REUSEADDR has different
// (unsafe) semantics there, so cfg.ReuseAddr is ignored rather than
// mapped to the nearest Windows equivalent.
func reuseAddrControl(_, _ string, _ syscall.RawConn) error {
	return nil
}
