package main

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/hashicorp/go-version"
	"golang.org/x/sys/unix"
)

const minimumKernelVersion = "3.10"

// checkPlatform warns when not running as root, since some files will not be readable
func checkPlatform(w io.Writer) {
	if unix.Geteuid() != 0 {
		warningColor.Fprintln(w, "Warning: not running as root, files you cannot read will be recorded as failures")
	}
}

// kernelRelease returns the running kernel release string
func kernelRelease() (string, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", err
	}
	return unix.ByteSliceToString(uts.Release[:]), nil
}

// checkKernelVersion refuses to run on Linux kernels older than minimumKernelVersion
func checkKernelVersion() error {
	if runtime.GOOS != "linux" {
		return nil
	}
	release, err := kernelRelease()
	if err != nil {
		return nil
	}
	return requireKernel(release, minimumKernelVersion)
}

// requireKernel compares the numeric prefix of release ("5.15.0-91-generic"
// is 5.15.0) against minimum. Releases that cannot be parsed are accepted.
func requireKernel(release, minimum string) error {
	numeric := release
	if idx := strings.IndexFunc(release, func(r rune) bool {
		return r != '.' && (r < '0' || r > '9')
	}); idx != -1 {
		numeric = release[:idx]
	}
	current, err := version.NewVersion(strings.TrimSuffix(numeric, "."))
	if err != nil {
		return nil
	}
	required := version.Must(version.NewVersion(minimum))
	if current.LessThan(required) {
		return fmt.Errorf("kernel %s is not supported, %s or newer is required", release, minimum)
	}
	return nil
}
