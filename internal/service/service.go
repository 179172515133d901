// Package service enables and starts system services through systemd, or
// through the SysV tools when systemd is absent.
package service

import (
	"fmt"
	"strings"

	"github.com/open-edge-platform/rabbitmq-provisioner/internal/utils/logger"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/utils/shell"
)

// Supervisor manages services on the host or inside ChrootPath.
type Supervisor struct {
	ChrootPath string

	initSystem string
}

// NewSupervisor returns a supervisor for chrootPath ("" for the host).
func NewSupervisor(chrootPath string) *Supervisor {
	return &Supervisor{ChrootPath: chrootPath}
}

// InitSystem reports "systemd", "update-rc.d" or "chkconfig". The result is
// detected once.
func (s *Supervisor) InitSystem() (string, error) {
	if s.initSystem != "" {
		return s.initSystem, nil
	}
	for _, candidate := range []string{"systemctl", "update-rc.d", "chkconfig"} {
		exists, err := shell.IsCommandExist(candidate, s.ChrootPath)
		if err != nil {
			return "", fmt.Errorf("failed to detect init system: %w", err)
		}
		if exists {
			if candidate == "systemctl" {
				candidate = "systemd"
			}
			s.initSystem = candidate
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no supported init system found (systemctl, update-rc.d, chkconfig)")
}

// IsEnabled reports whether name starts at boot.
func (s *Supervisor) IsEnabled(name string) (bool, error) {
	initSystem, err := s.InitSystem()
	if err != nil {
		return false, err
	}
	var out string
	switch initSystem {
	case "systemd":
		out, err = shell.ExecCmdSilent("systemctl is-enabled "+name, false, s.ChrootPath, nil)
		return err == nil && strings.TrimSpace(out) == "enabled", nil
	case "update-rc.d":
		_, err = shell.ExecCmdSilent(fmt.Sprintf("ls /etc/rc2.d/S??%s", name), false, s.ChrootPath, nil)
		return err == nil, nil
	default:
		out, err = shell.ExecCmdSilent("chkconfig --list "+name, false, s.ChrootPath, nil)
		return err == nil && strings.Contains(out, "3:on"), nil
	}
}

// IsActive reports whether name is currently running.
func (s *Supervisor) IsActive(name string) (bool, error) {
	initSystem, err := s.InitSystem()
	if err != nil {
		return false, err
	}
	if initSystem == "systemd" {
		out, err := shell.ExecCmdSilent("systemctl is-active "+name, false, s.ChrootPath, nil)
		return err == nil && strings.TrimSpace(out) == "active", nil
	}
	_, err = shell.ExecCmdSilent("service "+name+" status", false, s.ChrootPath, nil)
	return err == nil, nil
}

// Enable marks name to start at boot. It reports whether anything changed.
func (s *Supervisor) Enable(name string) (bool, error) {
	enabled, err := s.IsEnabled(name)
	if err != nil {
		return false, err
	}
	if enabled {
		logger.Logger().Debugf("service %s already enabled", name)
		return false, nil
	}

	var cmd string
	switch s.initSystem {
	case "systemd":
		cmd = "systemctl enable " + name
	case "update-rc.d":
		cmd = "update-rc.d " + name + " defaults"
	default:
		cmd = "chkconfig " + name + " on"
	}
	if _, err := shell.ExecCmd(cmd, false, s.ChrootPath, nil); err != nil {
		return false, fmt.Errorf("failed to enable service %s: %w", name, err)
	}
	logger.Logger().Infof("enabled service %s", name)
	return true, nil
}

// Start starts name unless it is already running.
func (s *Supervisor) Start(name string) (bool, error) {
	active, err := s.IsActive(name)
	if err != nil {
		return false, err
	}
	if active {
		logger.Logger().Debugf("service %s already running", name)
		return false, nil
	}

	cmd := "service " + name + " start"
	if s.initSystem == "systemd" {
		cmd = "systemctl start " + name
	}
	if _, err := shell.ExecCmd(cmd, false, s.ChrootPath, nil); err != nil {
		return false, fmt.Errorf("failed to start service %s: %w", name, err)
	}
	logger.Logger().Infof("started service %s", name)
	return true, nil
}
