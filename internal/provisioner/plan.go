// Package provisioner builds the ordered resource plan for one run and
// converges it.
package provisioner

import (
	"fmt"

	"github.com/open-edge-platform/rabbitmq-provisioner/internal/brokerconf"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/config"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/ospackage"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/provider"
	_ "github.com/open-edge-platform/rabbitmq-provisioner/internal/provider/debian"
	_ "github.com/open-edge-platform/rabbitmq-provisioner/internal/provider/rhel"
	_ "github.com/open-edge-platform/rabbitmq-provisioner/internal/provider/suse"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/resource"
)

// Phase names a stage of the run. Phases run in declaration order and never
// go back.
type Phase string

const (
	PhaseInstall   Phase = "install"
	PhaseConfigure Phase = "configure"
	PhaseSupervise Phase = "supervise"
)

// Step is one resource scheduled in a phase.
type Step struct {
	Phase    Phase
	Resource resource.Resource
}

// Plan is the resolved, ordered list of resources for one run.
type Plan struct {
	Family     ospackage.Family
	Platform   config.PlatformInfo
	Artifact   ospackage.PackageArtifact
	Attributes *config.Attributes
	Steps      []Step
}

// ResolveFamily picks the family from the declared family, or from the
// platform name when no family is declared.
func ResolveFamily(platform config.PlatformInfo) (ospackage.Family, error) {
	if platform.Family != "" {
		return ospackage.ParseFamily(platform.Family)
	}
	if platform.Name == "" {
		return "", fmt.Errorf("%w: no platform declared or detected", ospackage.ErrUnsupportedPlatform)
	}
	return ospackage.FamilyForPlatform(platform.Name, nil)
}

// BuildPlan resolves attrs into a plan. It performs no I/O, so an
// unsupported platform fails here before anything is installed.
func BuildPlan(attrs *config.Attributes, cacheDir string) (*Plan, error) {
	family, err := ResolveFamily(attrs.Platform)
	if err != nil {
		return nil, fmt.Errorf("resolve failed: %w", err)
	}
	artifact, err := ospackage.Resolve(family, attrs, cacheDir)
	if err != nil {
		return nil, fmt.Errorf("resolve failed: %w", err)
	}
	p, err := provider.ForFamily(family)
	if err != nil {
		return nil, fmt.Errorf("resolve failed: %w", err)
	}

	plan := &Plan{
		Family:     family,
		Platform:   attrs.Platform,
		Artifact:   artifact,
		Attributes: attrs,
	}
	for _, r := range p.InstallResources(attrs, artifact) {
		plan.add(PhaseInstall, r)
	}
	for _, r := range configureResources(attrs) {
		plan.add(PhaseConfigure, r)
	}
	if attrs.ManageService {
		plan.add(PhaseSupervise, &resource.Service{
			ServiceName: attrs.ServiceName,
			Actions:     []string{"enable", "start"},
		})
	}
	return plan, nil
}

func configureResources(attrs *config.Attributes) []resource.Resource {
	res := []resource.Resource{
		&resource.Directory{Path: attrs.MnesiaDir, Owner: attrs.User, Group: attrs.Group, Mode: 0775},
	}
	if attrs.LogDir != "" {
		res = append(res, &resource.Directory{Path: attrs.LogDir, Owner: attrs.User, Group: attrs.Group, Mode: 0775})
	}
	return append(res,
		&resource.Directory{Path: attrs.ConfigRoot, Owner: "root", Group: "root", Mode: 0755},
		&resource.Template{
			Path: brokerconf.EnvPath(attrs), Source: "rabbitmq-env.conf",
			Owner: "root", Group: "root", Mode: 0644,
			Content: brokerconf.RenderEnv(attrs),
		},
		&resource.Template{
			Path: brokerconf.ConfigPath(attrs), Source: "rabbitmq.config",
			Owner: "root", Group: "root", Mode: 0644,
			Content: brokerconf.RenderConfig(attrs),
		},
		&resource.Template{
			Path: brokerconf.DefaultPath(attrs), Source: "default.rabbitmq-server",
			Owner: "root", Group: "root", Mode: 0644,
			Content: brokerconf.RenderDefault(attrs),
		},
	)
}

func (p *Plan) add(phase Phase, r resource.Resource) {
	p.Steps = append(p.Steps, Step{Phase: phase, Resource: r})
}

// Find returns the resource of type typ named name, or nil.
func (p *Plan) Find(typ, name string) resource.Resource {
	for _, s := range p.Steps {
		if s.Resource.Type() == typ && s.Resource.Name() == name {
			return s.Resource
		}
	}
	return nil
}

// Index returns the position of the resource in the plan, or -1.
func (p *Plan) Index(typ, name string) int {
	for i, s := range p.Steps {
		if s.Resource.Type() == typ && s.Resource.Name() == name {
			return i
		}
	}
	return -1
}

// Phase returns the resources of one phase in order.
func (p *Plan) Phase(phase Phase) []resource.Resource {
	var res []resource.Resource
	for _, s := range p.Steps {
		if s.Phase == phase {
			res = append(res, s.Resource)
		}
	}
	return res
}
