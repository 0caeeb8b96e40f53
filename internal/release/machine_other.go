//go:build !unix

package release

import "runtime"

func hostMachine() string {
	return runtime.GOARCH
}
