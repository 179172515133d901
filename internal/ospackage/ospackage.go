package ospackage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/open-edge-platform/rabbitmq-provisioner/internal/config"
)

// ServerPackage is the broker package name in every supported family.
const ServerPackage = "rabbitmq-server"

// ErrUnsupportedPlatform is returned when a platform does not map to a
// supported distribution family.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Family is the closed set of distribution families the provisioner knows.
type Family string

const (
	Debian Family = "debian"
	RHEL   Family = "rhel"
	Suse   Family = "suse"
)

// Families lists every supported family in a stable order.
var Families = []Family{Debian, RHEL, Suse}

// ParseFamily validates a family name.
func ParseFamily(s string) (Family, error) {
	switch f := Family(strings.ToLower(strings.TrimSpace(s))); f {
	case Debian, RHEL, Suse:
		return f, nil
	default:
		return "", fmt.Errorf("%w: family %q", ErrUnsupportedPlatform, s)
	}
}

// FamilyForPlatform maps a platform name (an os-release ID or a node
// platform attribute) to its family, consulting idLike when the name itself
// is unknown.
func FamilyForPlatform(name string, idLike []string) (Family, error) {
	candidates := append([]string{name}, idLike...)
	for _, c := range candidates {
		switch strings.ToLower(strings.TrimSpace(c)) {
		case "debian", "ubuntu", "linuxmint", "raspbian":
			return Debian, nil
		case "rhel", "redhat", "centos", "fedora", "amazon", "amzn", "scientific",
			"oracle", "ol", "rocky", "almalinux":
			return RHEL, nil
		case "suse", "opensuse", "opensuseleap", "opensuse-leap", "opensuse-tumbleweed", "sles", "sled":
			return Suse, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedPlatform, name)
}

// PackageArtifact describes what has to be installed: either repository
// packages or one downloaded file.
type PackageArtifact struct {
	Family Family

	// RepoPackages is set when the broker comes from the OS repositories.
	RepoPackages []string

	Name        string
	Version     string // upstream version, e.g. 3.5.6
	FullVersion string // version-release as reported by the package manager
	FileName    string
	URL         string
	CachePath   string
	Checksum    string
}

// IsRemote reports whether the artifact is a downloaded package file.
func (a PackageArtifact) IsRemote() bool {
	return a.URL != ""
}

// SignatureURL is where the detached signature of a .deb artifact lives.
func (a PackageArtifact) SignatureURL() string {
	return a.URL + ".asc"
}

// SignaturePath is the cache path of the detached signature.
func (a PackageArtifact) SignaturePath() string {
	return a.CachePath + ".asc"
}

// Resolve computes the artifact for family from attrs. It performs no I/O.
func Resolve(family Family, attrs *config.Attributes, cacheDir string) (PackageArtifact, error) {
	if _, err := ParseFamily(string(family)); err != nil {
		return PackageArtifact{}, err
	}

	version := attrs.Version
	if strings.TrimSpace(version) == "" {
		version = config.DefaultVersion
	}

	artifact := PackageArtifact{
		Family:  family,
		Name:    ServerPackage,
		Version: version,
	}

	switch {
	case family == Suse:
		artifact.RepoPackages = []string{ServerPackage, ServerPackage + "-plugins"}
		return artifact, nil
	case attrs.UseDistroVersion:
		artifact.RepoPackages = []string{ServerPackage}
		return artifact, nil
	}

	artifact.FullVersion = version + "-1"
	switch family {
	case Debian:
		artifact.FileName = fmt.Sprintf("%s_%s_all.deb", ServerPackage, artifact.FullVersion)
	case RHEL:
		artifact.FileName = fmt.Sprintf("%s-%s.noarch.rpm", ServerPackage, artifact.FullVersion)
	}

	base := strings.ReplaceAll(attrs.PackageURL, "{version}", version)
	if base == "" {
		base = strings.ReplaceAll(config.DefaultPackageURL, "{version}", version)
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	artifact.URL = base + artifact.FileName
	artifact.CachePath = filepath.Join(cacheDir, artifact.FileName)
	artifact.Checksum = strings.ToLower(attrs.PackageChecksum)
	return artifact, nil
}
