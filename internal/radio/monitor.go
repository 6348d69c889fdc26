// Package radio puts a wireless interface into monitor mode and pins it
// to a single fixed channel. Radio/driver control is a thin external
// collaborator: it shells out to iw/ip and does not parse or interpret
// 802.11 frames itself.
package radio

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// CommandExecutor abstracts system command execution for testing.
type CommandExecutor interface {
	Execute(name string, args ...string) ([]byte, error)
}

// SystemCommandExecutor runs commands via os/exec.
type SystemCommandExecutor struct{}

func (e *SystemCommandExecutor) Execute(name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	return cmd.CombinedOutput()
}

// Driver controls monitor-mode state on one wireless interface.
type Driver struct {
	executor CommandExecutor
	logger   *slog.Logger
}

// NewDriver returns a Driver using the system's iw/ip commands. A nil
// logger falls back to slog.Default().
func NewDriver(logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{executor: &SystemCommandExecutor{}, logger: logger}
}

// SetExecutor overrides the command executor, for tests.
func (d *Driver) SetExecutor(e CommandExecutor) {
	d.executor = e
}

// EnableMonitorMode takes the interface down, switches it to monitor
// type, pins it to channel, and brings it back up.
func (d *Driver) EnableMonitorMode(iface string, channel int) error {
	d.logger.Info("enabling monitor mode", "interface", iface, "channel", channel)

	if err := d.runCmd("ip", "link", "set", iface, "down"); err != nil {
		return err
	}
	if err := d.runCmd("iw", iface, "set", "type", "monitor"); err != nil {
		d.logger.Warn("set monitor type failed; a conflicting process may be holding the interface")
		return err
	}
	if err := d.runCmd("ip", "link", "set", iface, "up"); err != nil {
		return err
	}
	return d.SetChannel(iface, channel)
}

// DisableMonitorMode restores managed mode on the interface.
func (d *Driver) DisableMonitorMode(iface string) {
	d.logger.Info("restoring managed mode", "interface", iface)
	_ = d.runCmd("ip", "link", "set", iface, "down")
	_ = d.runCmd("iw", iface, "set", "type", "managed")
	_ = d.runCmd("ip", "link", "set", iface, "up")
}

// SetChannel pins iface to a fixed channel. An access point never hops
// channels once up, unlike a scanning sniffer.
func (d *Driver) SetChannel(iface string, channel int) error {
	if channel <= 0 {
		return fmt.Errorf("radio: invalid channel %d", channel)
	}
	out, err := d.executor.Execute("iw", iface, "set", "channel", fmt.Sprintf("%d", channel))
	if err != nil {
		return fmt.Errorf("radio: set channel %d on %s: %w (%s)", channel, iface, err, string(out))
	}
	return nil
}

// SupportedChannels parses `iw phy <phy> info` to determine which
// channels the radio backing iface can operate on.
func (d *Driver) SupportedChannels(iface string) ([]int, error) {
	phy, err := d.phyForInterface(iface)
	if err != nil {
		return nil, err
	}

	out, err := d.executor.Execute("iw", "phy", phy, "info")
	if err != nil {
		return nil, err
	}

	var channels []int
	scanner := bufio.NewScanner(bytes.NewReader(out))
	inFrequencies := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "Frequencies:" {
			inFrequencies = true
			continue
		}
		if !inFrequencies {
			continue
		}
		if !strings.HasPrefix(line, "*") {
			break
		}
		if strings.Contains(line, "(disabled)") {
			continue
		}
		open := strings.IndexByte(line, '[')
		close := strings.IndexByte(line, ']')
		if open < 0 || close < open {
			continue
		}
		var ch int
		if _, err := fmt.Sscanf(line[open+1:close], "%d", &ch); err == nil {
			channels = append(channels, ch)
		}
	}
	return channels, nil
}

func (d *Driver) phyForInterface(iface string) (string, error) {
	out, err := d.executor.Execute("iw", "dev")
	if err != nil {
		return "", err
	}

	scanner := bufio.NewScanner(bytes.NewReader(out))
	currentPhy := ""
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "phy#") {
			currentPhy = line
		} else if strings.HasPrefix(line, "Interface "+iface) {
			return strings.Replace(currentPhy, "#", "", 1), nil
		}
	}
	return "", fmt.Errorf("radio: interface %s not found in iw dev output", iface)
}

func (d *Driver) runCmd(name string, args ...string) error {
	out, err := d.executor.Execute(name, args...)
	if err != nil {
		d.logger.Warn("command failed", "cmd", name, "args", args, "output", string(out))
		return err
	}
	return nil
}
