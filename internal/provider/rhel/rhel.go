// Package rhel provides the install resources for RHEL, CentOS, Fedora and
// Amazon Linux.
package rhel

import (
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/config"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/ospackage"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/provider"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/resource"
)

// EPELPackage enables the EPEL repository that carries erlang on CentOS.
const EPELPackage = "epel-release"

// RHEL implements provider.Provider
type RHEL struct{}

func init() {
	provider.Register(&RHEL{})
}

// Name returns the unique name of the provider
func (p *RHEL) Name() string { return string(ospackage.RHEL) }

// InstallResources installs EPEL first on CentOS, then erlang and the broker.
func (p *RHEL) InstallResources(attrs *config.Attributes, artifact ospackage.PackageArtifact) []resource.Resource {
	var res []resource.Resource
	if attrs.Platform.Name == "centos" {
		res = append(res, &resource.Package{PackageName: EPELPackage})
	}
	if attrs.ErlangPackage != "" {
		res = append(res, &resource.Package{PackageName: attrs.ErlangPackage})
	}

	if !artifact.IsRemote() {
		return append(res, provider.RepoPackages(artifact)...)
	}
	return append(res,
		provider.RemoteArtifact(attrs, artifact),
		&resource.LocalPackage{Kind: resource.TypeRpm, Path: artifact.CachePath, PackageName: artifact.Name},
	)
}
