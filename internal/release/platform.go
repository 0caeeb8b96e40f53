package release

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

var ErrUnsupportedArch = errors.New("release: unsupported architecture")

// Platform is the os/arch pair used to pick a release archive.
type Platform struct {
	OS      string
	Arch    string
	Machine string
}

var archAliases = map[string]string{
	"x86_64":  "amd64",
	"amd64":   "amd64",
	"x64":     "amd64",
	"aarch64": "arm64",
	"arm64":   "arm64",
	"i386":    "386",
	"i686":    "386",
	"x86":     "386",
	"386":     "386",
}

// Detect reads the running host. The arch comes from the kernel machine
// name so a translated binary still picks the native archive.
func Detect() (Platform, error) {
	machine := hostMachine()
	arch, err := NormalizeArch(machine)
	if err != nil {
		return Platform{}, err
	}
	return Platform{OS: runtime.GOOS, Arch: arch, Machine: machine}, nil
}

// NormalizeArch maps a uname machine value to the vendor arch token.
func NormalizeArch(machine string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(machine))
	if arch, ok := archAliases[key]; ok {
		return arch, nil
	}
	return "", fmt.Errorf("%w: Architecture not supported: %s", ErrUnsupportedArch, machine)
}

func (p Platform) String() string {
	return p.OS + "/" + p.Arch
}
