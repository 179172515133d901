package system

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/open-edge-platform/rabbitmq-provisioner/internal/utils/logger"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/utils/shell"
)

var OsReleaseFile = "/etc/os-release"

// OsDistribution contains information about the Linux OS distribution
type OsDistribution struct {
	Name            string   // Distribution name (e.g., "Ubuntu", "CentOS Linux")
	Version         string   // Version (e.g., "14.04", "7")
	ID              string   // Distribution ID (e.g., "ubuntu", "centos")
	IDLike          []string // Related distributions (e.g., ["debian"], ["rhel", "fedora"])
	PackageTypes    []string // Supported package types (e.g., ["deb"], ["rpm"])
	PackageManagers []string // Package managers (e.g., ["apt", "dpkg"], ["yum", "rpm"])
}

// DetectOsDistribution detects the underlying Linux OS distribution and its supported package types
// by parsing /etc/os-release and checking available package managers
func DetectOsDistribution() (*OsDistribution, error) {
	log := logger.Logger()

	osInfo, err := parseOsRelease(OsReleaseFile)
	if err != nil {
		return nil, err
	}

	osInfo.PackageTypes, osInfo.PackageManagers = detectPackageSupport(osInfo.ID, osInfo.IDLike)

	if len(osInfo.PackageTypes) == 0 {
		log.Warnf("Could not determine package type for distribution: %s (ID: %s)", osInfo.Name, osInfo.ID)
	}

	log.Infof("Detected OS distribution: %s %s (ID: %s, Package Types: %v, Package Managers: %v)",
		osInfo.Name, osInfo.Version, osInfo.ID, osInfo.PackageTypes, osInfo.PackageManagers)

	return osInfo, nil
}

func parseOsRelease(path string) (*OsDistribution, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	osInfo := &OsDistribution{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		parts := strings.SplitN(scanner.Text(), "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), "\"'")

		switch key {
		case "NAME":
			osInfo.Name = value
		case "VERSION_ID":
			osInfo.Version = value
		case "ID":
			osInfo.ID = strings.ToLower(value)
		case "ID_LIKE":
			// ID_LIKE can contain multiple space-separated values
			osInfo.IDLike = strings.Fields(strings.ToLower(value))
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return osInfo, nil
}

// detectPackageSupport determines the package types and managers based on distribution ID
func detectPackageSupport(id string, idLike []string) ([]string, []string) {
	if pkgTypes, pkgMgrs := getPackageInfoForID(id); len(pkgTypes) > 0 {
		return pkgTypes, pkgMgrs
	}

	for _, likeID := range idLike {
		if pkgTypes, pkgMgrs := getPackageInfoForID(likeID); len(pkgTypes) > 0 {
			return pkgTypes, pkgMgrs
		}
	}

	return detectFromCommands()
}

// getPackageInfoForID returns package types and managers for a given distribution ID
func getPackageInfoForID(id string) ([]string, []string) {
	switch strings.ToLower(id) {
	case "ubuntu", "debian", "linuxmint", "raspbian":
		return []string{"deb"}, []string{"apt", "dpkg"}
	case "fedora":
		return []string{"rpm"}, []string{"dnf", "rpm"}
	case "rhel", "centos", "rocky", "almalinux", "scientific", "ol", "amzn":
		return []string{"rpm"}, []string{"yum", "rpm"}
	case "opensuse", "opensuse-leap", "opensuse-tumbleweed", "sles", "sled", "suse":
		return []string{"rpm"}, []string{"zypper", "rpm"}
	default:
		return nil, nil
	}
}

// detectFromCommands attempts to detect package support by checking for package manager commands
func detectFromCommands() ([]string, []string) {
	// Order matters for precedence
	checks := []struct {
		cmd          string
		packageTypes []string
		managers     []string
	}{
		{"apt-get", []string{"deb"}, []string{"apt", "dpkg"}},
		{"dnf", []string{"rpm"}, []string{"dnf", "rpm"}},
		{"yum", []string{"rpm"}, []string{"yum", "rpm"}},
		{"zypper", []string{"rpm"}, []string{"zypper", "rpm"}},
	}

	for _, check := range checks {
		exists, err := shell.IsCommandExist(check.cmd, shell.HostPath)
		if err == nil && exists {
			return check.packageTypes, check.managers
		}
	}

	return []string{}, []string{}
}
