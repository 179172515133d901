package ospackage

import (
	"fmt"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/ospackage/debutils"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/ospackage/rpmutils"
)

// ReadLocalVersion returns the version-release recorded inside the cached
// artifact file, in the form the family's package manager reports it.
func ReadLocalVersion(family Family, path string) (string, error) {
	switch family {
	case Debian:
		info, err := debutils.ReadControl(path)
		if err != nil {
			return "", err
		}
		return info.Version, nil
	case RHEL:
		info, err := rpmutils.ReadPackageInfo(path)
		if err != nil {
			return "", err
		}
		return info.FullVersion(), nil
	default:
		return "", fmt.Errorf("%w: no local package format for family %q", ErrUnsupportedPlatform, family)
	}
}

// VerifyArtifact checks the OpenPGP signature of a downloaded artifact. rpm
// files carry their signature in the header; .deb files need the detached
// signature at SignaturePath.
func VerifyArtifact(a PackageArtifact, keyring openpgp.EntityList) error {
	switch a.Family {
	case RHEL:
		return rpmutils.VerifySignature(a.CachePath, keyring)
	case Debian:
		return VerifyDetachedSignature(keyring, a.CachePath, a.SignaturePath())
	default:
		return fmt.Errorf("%w: no signature scheme for family %q", ErrUnsupportedPlatform, a.Family)
	}
}
