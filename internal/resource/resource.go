// Package resource holds the declarative resources a provisioning plan is
// made of. Apply converges one resource and reports whether it changed
// anything on the target.
package resource

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/open-edge-platform/rabbitmq-provisioner/internal/pkgfetcher"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/utils/shell"
)

// Resource types as they appear in plans and reports.
const (
	TypeDirectory  = "directory"
	TypeTemplate   = "template"
	TypePackage    = "package"
	TypeDpkg       = "dpkg_package"
	TypeRpm        = "rpm_package"
	TypeRemoteFile = "remote_file"
	TypeExecute    = "execute"
	TypeService    = "service"
)

// Resource is one declared piece of target state.
type Resource interface {
	Type() string
	Name() string
	Action() string
	Apply(ctx context.Context, env *Env) (bool, error)
}

// PackageManager installs repository and local packages.
type PackageManager interface {
	Install(names ...string) ([]string, error)
	InstallLocal(path, name string) (bool, error)
}

// ServiceManager enables and starts services.
type ServiceManager interface {
	Enable(name string) (bool, error)
	Start(name string) (bool, error)
}

// FetchFunc downloads url to dest unless dest exists.
type FetchFunc func(ctx context.Context, url, dest string) (bool, error)

// Env carries what resources need to touch the target.
type Env struct {
	// Root is the target's root directory, "" for the running host.
	Root     string
	Packages PackageManager
	Services ServiceManager
	Fetch    FetchFunc
}

// NewEnv returns an Env for root with the default fetcher.
func NewEnv(root string, packages PackageManager, services ServiceManager) *Env {
	return &Env{Root: root, Packages: packages, Services: services, Fetch: pkgfetcher.FetchIfMissing}
}

// HostPath maps a target path to the path seen by this process.
func (e *Env) HostPath(p string) string {
	if e.Root == "" {
		return p
	}
	return filepath.Join(e.Root, p)
}

// ID formats a resource the way plans and reports print it.
func ID(r Resource) string {
	return fmt.Sprintf("%s[%s]", r.Type(), r.Name())
}

// Execute runs a shell command on the target every time it is applied.
type Execute struct {
	Label   string
	Command string
}

func (e *Execute) Type() string   { return TypeExecute }
func (e *Execute) Name() string   { return e.Label }
func (e *Execute) Action() string { return "run" }

func (e *Execute) Apply(ctx context.Context, env *Env) (bool, error) {
	if _, err := shell.ExecCmd(e.Command, false, env.Root, nil); err != nil {
		return false, fmt.Errorf("execute %q failed: %w", e.Label, err)
	}
	return true, nil
}

// Package installs a package from the OS repositories.
type Package struct {
	PackageName string
}

func (p *Package) Type() string   { return TypePackage }
func (p *Package) Name() string   { return p.PackageName }
func (p *Package) Action() string { return "install" }

func (p *Package) Apply(ctx context.Context, env *Env) (bool, error) {
	installed, err := env.Packages.Install(p.PackageName)
	if err != nil {
		return false, err
	}
	return len(installed) > 0, nil
}

// LocalPackage installs a package file already present on the target, as
// dpkg_package or rpm_package.
type LocalPackage struct {
	Kind        string // TypeDpkg or TypeRpm
	Path        string
	PackageName string
}

func (p *LocalPackage) Type() string   { return p.Kind }
func (p *LocalPackage) Name() string   { return p.Path }
func (p *LocalPackage) Action() string { return "install" }

func (p *LocalPackage) Apply(ctx context.Context, env *Env) (bool, error) {
	return env.Packages.InstallLocal(p.Path, p.PackageName)
}

// Service enables and starts a service.
type Service struct {
	ServiceName string
	Actions     []string // subset of enable, start; applied in order
}

func (s *Service) Type() string   { return TypeService }
func (s *Service) Name() string   { return s.ServiceName }
func (s *Service) Action() string { return strings.Join(s.Actions, ", ") }

// Has reports whether the resource declares action.
func (s *Service) Has(action string) bool {
	for _, a := range s.Actions {
		if a == action {
			return true
		}
	}
	return false
}

func (s *Service) Apply(ctx context.Context, env *Env) (bool, error) {
	changed := false
	for _, action := range s.Actions {
		var (
			c   bool
			err error
		)
		switch action {
		case "enable":
			c, err = env.Services.Enable(s.ServiceName)
		case "start":
			c, err = env.Services.Start(s.ServiceName)
		default:
			return changed, fmt.Errorf("unsupported service action %q", action)
		}
		if err != nil {
			return changed, err
		}
		changed = changed || c
	}
	return changed, nil
}
