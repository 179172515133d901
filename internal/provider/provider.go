package provider

import (
	"fmt"
	"sort"

	"github.com/open-edge-platform/rabbitmq-provisioner/internal/config"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/ospackage"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/resource"
)

// Provider is the interface every distribution family plugin must implement.
type Provider interface {
	// Name is the family name, e.g. "debian".
	Name() string

	// InstallResources returns the ordered resources that put the broker
	// package and its dependencies on the target.
	InstallResources(attrs *config.Attributes, artifact ospackage.PackageArtifact) []resource.Resource
}

var (
	providers = make(map[string]Provider)
)

// Register makes a Provider available under its Name().
func Register(p Provider) {
	providers[p.Name()] = p
}

// Get returns the Provider by name.
func Get(name string) (Provider, bool) {
	p, ok := providers[name]
	return p, ok
}

// ForFamily returns the provider registered for family.
func ForFamily(family ospackage.Family) (Provider, error) {
	p, ok := Get(string(family))
	if !ok {
		return nil, fmt.Errorf("%w: no provider registered for family %q", ospackage.ErrUnsupportedPlatform, family)
	}
	return p, nil
}

// Names lists registered providers in sorted order.
func Names() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RepoPackages turns the artifact's repository packages into resources.
func RepoPackages(artifact ospackage.PackageArtifact) []resource.Resource {
	res := make([]resource.Resource, 0, len(artifact.RepoPackages))
	for _, name := range artifact.RepoPackages {
		res = append(res, &resource.Package{PackageName: name})
	}
	return res
}

// RemoteArtifact returns the remote_file resource that caches the artifact.
func RemoteArtifact(attrs *config.Attributes, artifact ospackage.PackageArtifact) resource.Resource {
	return &resource.RemoteFile{Artifact: artifact, SigningKey: attrs.SigningKey}
}
