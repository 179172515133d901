// Package suse provides the install resources for SLES and openSUSE, which
// always take the broker from their own repositories.
package suse

import (
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/config"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/ospackage"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/provider"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/resource"
)

// Suse implements provider.Provider
type Suse struct{}

func init() {
	provider.Register(&Suse{})
}

// Name returns the unique name of the provider
func (p *Suse) Name() string { return string(ospackage.Suse) }

// InstallResources installs the server and plugins packages. Erlang arrives
// as a dependency of the server package.
func (p *Suse) InstallResources(attrs *config.Attributes, artifact ospackage.PackageArtifact) []resource.Resource {
	return provider.RepoPackages(artifact)
}
