//go:build !linux

package process

import "syscall"

// sysProcAttr returns nil: only Linux offers a parent-death signal. On other
// platforms orphans are found later with FindOrphanedAgents.
func sysProcAttr() *syscall.SysProcAttr {
	return nil
}
