package process

import "syscall"

// sysProcAttr makes the kernel kill the agent if claudectl dies without
// stopping it. Pdeathsig is tied to the thread that forked the child, so
// start keeps that goroutine locked to its thread until the agent exits.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Pdeathsig: syscall.SIGKILL}
}
