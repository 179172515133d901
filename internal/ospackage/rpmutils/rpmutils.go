// Package rpmutils reads headers and signatures of local rpm files.
package rpmutils

import (
	"fmt"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
	rpm "github.com/sassoftware/go-rpmutils"
)

// PackageInfo is the identity of an rpm file.
type PackageInfo struct {
	Name    string
	Epoch   string
	Version string
	Release string
	Arch    string
}

// FullVersion returns version-release, the form rpm -q prints with
// %{VERSION}-%{RELEASE}.
func (p PackageInfo) FullVersion() string {
	if p.Release == "" {
		return p.Version
	}
	return p.Version + "-" + p.Release
}

// ReadPackageInfo reads the NEVRA of the rpm at path.
func ReadPackageInfo(path string) (*PackageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rpm %s: %w", path, err)
	}
	defer f.Close()

	hdr, err := rpm.ReadHeader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read rpm header of %s: %w", path, err)
	}
	nevra, err := hdr.GetNEVRA()
	if err != nil {
		return nil, fmt.Errorf("failed to read NEVRA of %s: %w", path, err)
	}
	return &PackageInfo{
		Name:    nevra.Name,
		Epoch:   nevra.Epoch,
		Version: nevra.Version,
		Release: nevra.Release,
		Arch:    nevra.Arch,
	}, nil
}

// VerifySignature checks the embedded header signatures of the rpm at path
// against keyring.
func VerifySignature(path string, keyring openpgp.EntityList) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open rpm %s: %w", path, err)
	}
	defer f.Close()

	_, sigs, err := rpm.Verify(f, keyring)
	if err != nil {
		return fmt.Errorf("signature verification failed for %s: %w", path, err)
	}
	if len(sigs) == 0 {
		return fmt.Errorf("rpm %s carries no signature", path)
	}
	return nil
}
