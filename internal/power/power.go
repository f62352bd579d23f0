// Package power answers the question the daemon asks before every batch of
// checks: is the machine plugged in, and has the user been away long enough?
//
// AC state comes from /sys/class/power_supply. Idle time comes from the KDE
// screensaver D-Bus interface with an xprintidle fallback. Probe failures are
// treated permissively (assume AC present, assume idle) so the daemon keeps
// working on desktops without a battery or without either idle tool.
package power

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"watchdog/internal/logging"
)

// Probe reports raw platform state. Implementations must be safe for
// concurrent use.
type Probe interface {
	// OnACPower reports whether the machine draws mains power. When the
	// platform exposes no AC supply at all, implementations return true.
	OnACPower(ctx context.Context) (bool, error)
	// IdleFor reports how long the user has been inactive.
	IdleFor(ctx context.Context) (time.Duration, error)
}

// Eligibility is the gate's verdict for one tick.
type Eligibility struct {
	Eligible bool
	Reason   string
	OnAC     bool
	Idle     time.Duration
}

// Gate decides whether checks may run under the current power and idle
// policy from the topics file.
type Gate struct {
	probe  Probe
	logger *slog.Logger
}

// NewGate builds a gate around the given probe. A nil probe uses the
// platform probe.
func NewGate(probe Probe, logger *slog.Logger) *Gate {
	if probe == nil {
		probe = NewPlatformProbe("")
	}
	return &Gate{probe: probe, logger: logging.WithComponent(logger, "power")}
}

// Evaluate applies the policy. Checks run only when AC power is present (if
// required) and the user has been idle for at least the threshold. A zero
// threshold disables idle gating entirely.
func (g *Gate) Evaluate(ctx context.Context, requireAC bool, idleThreshold time.Duration) Eligibility {
	onAC, err := g.probe.OnACPower(ctx)
	if err != nil {
		g.logger.Debug("ac probe failed, assuming mains power", logging.Error(err))
		onAC = true
	}

	idle, err := g.probe.IdleFor(ctx)
	if err != nil {
		g.logger.Debug("idle probe failed, assuming user away", logging.Error(err))
		idle = idleThreshold
	}

	result := Eligibility{OnAC: onAC, Idle: idle}
	if requireAC && !onAC {
		result.Reason = "on battery"
		return result
	}
	if idleThreshold > 0 && idle < idleThreshold {
		result.Reason = "user active"
		return result
	}
	result.Eligible = true
	return result
}

// PlatformProbe reads AC state from sysfs and idle time from the desktop
// session.
type PlatformProbe struct {
	supplyGlob string
}

// NewPlatformProbe builds the Linux probe. An empty glob uses the standard
// sysfs location.
func NewPlatformProbe(supplyGlob string) *PlatformProbe {
	if strings.TrimSpace(supplyGlob) == "" {
		supplyGlob = "/sys/class/power_supply/AC*/online"
	}
	return &PlatformProbe{supplyGlob: supplyGlob}
}

// OnACPower reports mains power by reading the AC supply's online flag.
// Machines without an AC supply entry (desktops, VMs) report true.
func (p *PlatformProbe) OnACPower(_ context.Context) (bool, error) {
	matches, err := filepath.Glob(p.supplyGlob)
	if err != nil {
		return true, fmt.Errorf("glob power supplies: %w", err)
	}
	if len(matches) == 0 {
		return true, nil
	}
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(data)) == "1" {
			return true, nil
		}
	}
	return false, nil
}

// IdleFor queries the KDE screensaver over D-Bus, then falls back to
// xprintidle. KDE reports seconds, xprintidle milliseconds.
func (p *PlatformProbe) IdleFor(ctx context.Context) (time.Duration, error) {
	if idle, err := queryQDBusIdle(ctx); err == nil {
		return idle, nil
	}
	return queryXPrintIdle(ctx)
}

func queryQDBusIdle(ctx context.Context) (time.Duration, error) {
	out, err := runCommand(ctx, "qdbus", "org.kde.screensaver", "/ScreenSaver", "GetSessionIdleTime")
	if err != nil {
		return 0, err
	}
	return parseIdleSeconds(out)
}

func queryXPrintIdle(ctx context.Context) (time.Duration, error) {
	out, err := runCommand(ctx, "xprintidle")
	if err != nil {
		return 0, err
	}
	return parseIdleMillis(out)
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return stdout.String(), nil
}

func parseIdleSeconds(out string) (time.Duration, error) {
	seconds, err := strconv.ParseInt(strings.TrimSpace(out), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse idle seconds: %w", err)
	}
	return time.Duration(seconds) * time.Second, nil
}

func parseIdleMillis(out string) (time.Duration, error) {
	millis, err := strconv.ParseInt(strings.TrimSpace(out), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse idle milliseconds: %w", err)
	}
	return time.Duration(millis) * time.Millisecond, nil
}
