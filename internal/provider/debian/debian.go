// Package debian provides the install resources for Debian and Ubuntu.
package debian

import (
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/brokerconf"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/config"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/ospackage"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/provider"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/resource"
)

// PolicyRcD is consulted by invoke-rc.d before a maintainer script starts a
// service; exit code 101 forbids the start.
const PolicyRcD = "/usr/sbin/policy-rc.d"

// Debian implements provider.Provider
type Debian struct{}

func init() {
	provider.Register(&Debian{})
}

// Name returns the unique name of the provider
func (p *Debian) Name() string { return string(ospackage.Debian) }

// InstallResources keeps apt non-interactive, installs erlang and logrotate,
// then the broker. A downloaded .deb is installed between the two halves of
// the auto-start guard so the package cannot start the broker before its
// configuration is written.
func (p *Debian) InstallResources(attrs *config.Attributes, artifact ospackage.PackageArtifact) []resource.Resource {
	res := []resource.Resource{
		&resource.Template{
			Path:    brokerconf.AptForceYesPath,
			Source:  "90forceyes",
			Owner:   "root",
			Group:   "root",
			Mode:    0644,
			Content: brokerconf.RenderAptForceYes(),
		},
	}
	if attrs.ErlangPackage != "" {
		res = append(res, &resource.Package{PackageName: attrs.ErlangPackage})
	}
	res = append(res, &resource.Package{PackageName: "logrotate"})

	if !artifact.IsRemote() {
		return append(res, provider.RepoPackages(artifact)...)
	}

	return append(res,
		provider.RemoteArtifact(attrs, artifact),
		&resource.Execute{Label: "disable auto-start 1/2", Command: "echo exit 101 > " + PolicyRcD},
		&resource.Execute{Label: "disable auto-start 2/2", Command: "chmod a+x " + PolicyRcD},
		&resource.LocalPackage{Kind: resource.TypeDpkg, Path: artifact.CachePath, PackageName: artifact.Name},
		&resource.Execute{Label: "undo service disable hack", Command: "echo exit 0 > " + PolicyRcD},
	)
}
