//go:build unix

package release

import (
	"runtime"

	"golang.org/x/sys/unix"
)

func hostMachine() string {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return runtime.GOARCH
	}
	machine := unix.ByteSliceToString(u.Machine[:])
	if machine == "" {
		return runtime.GOARCH
	}
	return machine
}
