// Package installer drives the distribution package managers.
package installer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/open-edge-platform/rabbitmq-provisioner/internal/ospackage"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/utils/logger"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/utils/shell"
)

// readLocalVersion is replaced in tests that do not build real packages.
var readLocalVersion = ospackage.ReadLocalVersion

// Manager installs packages with the tool of one distribution family,
// optionally inside a chroot.
type Manager struct {
	Family     ospackage.Family
	Tool       string // apt, yum, dnf or zypper
	ChrootPath string
}

// NewManager picks the package tool for family. Fedora uses dnf, the rest of
// the rhel family uses yum.
func NewManager(family ospackage.Family, platform string, chrootPath string) (*Manager, error) {
	m := &Manager{Family: family, ChrootPath: chrootPath}
	switch family {
	case ospackage.Debian:
		m.Tool = "apt"
	case ospackage.RHEL:
		m.Tool = "yum"
		if strings.EqualFold(platform, "fedora") {
			m.Tool = "dnf"
		}
	case ospackage.Suse:
		m.Tool = "zypper"
	default:
		return nil, fmt.Errorf("%w: no package manager for family %q", ospackage.ErrUnsupportedPlatform, family)
	}
	return m, nil
}

// InstalledVersion returns the installed version-release of name. A package
// the database does not know is reported as not installed, not as an error.
func (m *Manager) InstalledVersion(name string) (string, bool, error) {
	var cmd string
	if m.Family == ospackage.Debian {
		cmd = fmt.Sprintf("dpkg-query -W -f='${Status} ${Version}' %s", name)
	} else {
		cmd = fmt.Sprintf("rpm -q --qf '%%{VERSION}-%%{RELEASE}' %s", name)
	}

	output, err := shell.ExecCmdSilent(cmd, false, m.ChrootPath, nil)
	if err != nil {
		return "", false, nil
	}
	output = strings.TrimSpace(output)

	if m.Family == ospackage.Debian {
		if !strings.HasPrefix(output, "install ok installed") {
			return "", false, nil
		}
		fields := strings.Fields(output)
		return fields[len(fields)-1], true, nil
	}
	if output == "" || strings.Contains(output, "not installed") {
		return "", false, nil
	}
	return output, true, nil
}

// Install installs every package in names that is not installed yet, in a
// single package-manager transaction. It reports the packages it installed.
func (m *Manager) Install(names ...string) ([]string, error) {
	log := logger.Logger()

	var missing []string
	for _, name := range names {
		if version, ok, _ := m.InstalledVersion(name); ok {
			log.Debugf("%s %s already installed", name, version)
			continue
		}
		missing = append(missing, name)
	}
	if len(missing) == 0 {
		return nil, nil
	}

	cmd, env := m.installCmd(missing)
	log.Infof("installing %s with %s", strings.Join(missing, " "), m.Tool)
	if _, err := shell.ExecCmdWithStream(cmd, false, m.ChrootPath, env); err != nil {
		return nil, fmt.Errorf("failed to install %s: %w", strings.Join(missing, " "), err)
	}
	return missing, nil
}

func (m *Manager) installCmd(names []string) (string, []string) {
	pkgs := strings.Join(names, " ")
	switch m.Tool {
	case "apt":
		return "apt-get install -y -q " + pkgs, []string{"DEBIAN_FRONTEND=noninteractive"}
	case "zypper":
		return "zypper --non-interactive install " + pkgs, nil
	default:
		return m.Tool + " install -y " + pkgs, nil
	}
}

// InstallLocal installs the package file at path (a path inside the chroot)
// unless the installed version of name already equals the file's version.
func (m *Manager) InstallLocal(path, name string) (bool, error) {
	log := logger.Logger()

	if m.Family != ospackage.Debian && m.Family != ospackage.RHEL {
		return false, fmt.Errorf("%w: local packages are not supported for family %q", ospackage.ErrUnsupportedPlatform, m.Family)
	}

	want, err := readLocalVersion(m.Family, filepath.Join(m.ChrootPath, path))
	if err != nil {
		return false, fmt.Errorf("failed to read version of %s: %w", path, err)
	}

	installed, ok, err := m.InstalledVersion(name)
	if err != nil {
		return false, err
	}
	if ok && installed == want {
		log.Debugf("%s %s already installed from %s", name, installed, path)
		return false, nil
	}

	var cmd string
	if m.Family == ospackage.Debian {
		cmd = "dpkg -i " + path
	} else {
		cmd = "rpm -Uvh " + path
	}
	log.Infof("installing %s %s from %s", name, want, path)
	if _, err := shell.ExecCmdWithStream(cmd, false, m.ChrootPath, nil); err != nil {
		return false, fmt.Errorf("failed to install %s: %w", path, err)
	}
	return true, nil
}
