package enroll

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

// UserAgent identifies the client and the host platform, for example
// "voice-enroll/0.1.0 (ubuntu 22.04; linux/amd64)".
func UserAgent(version string) string {
	return fmt.Sprintf("voice-enroll/%s (%s; %s/%s)", version, platformVersion(), runtime.GOOS, runtime.GOARCH)
}

func platformVersion() string {
	info, err := host.Info()
	if err != nil {
		return "unknown"
	}

	version := strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
	if version == "" {
		version = info.KernelVersion
	}
	if version == "" {
		return "unknown"
	}
	return version
}
