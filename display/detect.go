package display

import (
	"context"
	"errors"
	"os"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/host"
)

// SessionKind names the detected display technology.
type SessionKind string

const (
	SessionX11     SessionKind = "x11"
	SessionWayland SessionKind = "wayland"
	SessionUnknown SessionKind = "unknown"
)

// ErrUnsupportedSession is returned by DetectSession when neither an
// X11 nor a Wayland session can be inferred from the environment.
var ErrUnsupportedSession = errors.New("display: could not determine session type (XDG_SESSION_TYPE/WAYLAND_DISPLAY/DISPLAY all unset)")

// DetectSession infers the running session's display technology from
// environment variables, the same signals every desktop-facing CLI on
// Linux checks (WAYLAND_DISPLAY / DISPLAY / XDG_SESSION_TYPE). It also
// logs host platform details via gopsutil, since a probe failure is
// much easier to triage with the OS/kernel version attached to it than
// without.
func DetectSession(log zerolog.Logger) (SessionKind, error) {
	if info, err := host.InfoWithContext(context.Background()); err == nil {
		log.Info().
			Str("platform", info.Platform).
			Str("platform_version", info.PlatformVersion).
			Str("kernel_version", info.KernelVersion).
			Msg("host platform detected")
	} else {
		log.Warn().Err(err).Msg("could not read host platform info")
	}

	switch os.Getenv("XDG_SESSION_TYPE") {
	case "wayland":
		return SessionWayland, nil
	case "x11":
		return SessionX11, nil
	}
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		return SessionWayland, nil
	}
	if os.Getenv("DISPLAY") != "" {
		return SessionX11, nil
	}
	return SessionUnknown, ErrUnsupportedSession
}
