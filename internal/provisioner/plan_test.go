package provisioner

import (
	"errors"
	"testing"

	"github.com/open-edge-platform/rabbitmq-provisioner/internal/config"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/ospackage"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attrsFor(name string) *config.Attributes {
	attrs := config.DefaultAttributes()
	attrs.Platform = config.PlatformInfo{Name: name}
	return &attrs
}

func planIDs(p *Plan) []string {
	out := make([]string, 0, len(p.Steps))
	for _, s := range p.Steps {
		out = append(out, resource.ID(s.Resource))
	}
	return out
}

func TestResolveFamily(t *testing.T) {
	tests := []struct {
		name     string
		platform config.PlatformInfo
		want     ospackage.Family
		wantErr  bool
	}{
		{name: "ubuntu", platform: config.PlatformInfo{Name: "ubuntu"}, want: ospackage.Debian},
		{name: "centos", platform: config.PlatformInfo{Name: "centos"}, want: ospackage.RHEL},
		{name: "opensuse", platform: config.PlatformInfo{Name: "opensuse"}, want: ospackage.Suse},
		{name: "declared family wins", platform: config.PlatformInfo{Name: "mydistro", Family: "rhel"}, want: ospackage.RHEL},
		{name: "unknown", platform: config.PlatformInfo{Name: "windows"}, wantErr: true},
		{name: "bad family", platform: config.PlatformInfo{Name: "ubuntu", Family: "arch"}, wantErr: true},
		{name: "empty", platform: config.PlatformInfo{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveFamily(tt.platform)
			if tt.wantErr {
				assert.ErrorIs(t, err, ospackage.ErrUnsupportedPlatform)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildPlanUnsupportedPlatform(t *testing.T) {
	_, err := BuildPlan(attrsFor("gentoo"), "/var/cache")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ospackage.ErrUnsupportedPlatform))
}

func TestBuildPlanDebianArtifact(t *testing.T) {
	plan, err := BuildPlan(attrsFor("ubuntu"), "/var/cache")
	require.NoError(t, err)

	assert.Equal(t, ospackage.Debian, plan.Family)
	assert.Equal(t, "/var/cache/rabbitmq-server_3.5.6-1_all.deb", plan.Artifact.CachePath)
	assert.Equal(t, []string{
		"template[/etc/apt/apt.conf.d/90forceyes]",
		"package[erlang]",
		"package[logrotate]",
		"remote_file[/var/cache/rabbitmq-server_3.5.6-1_all.deb]",
		"execute[disable auto-start 1/2]",
		"execute[disable auto-start 2/2]",
		"dpkg_package[/var/cache/rabbitmq-server_3.5.6-1_all.deb]",
		"execute[undo service disable hack]",
		"directory[/var/lib/rabbitmq/mnesia]",
		"directory[/etc/rabbitmq]",
		"template[/etc/rabbitmq/rabbitmq-env.conf]",
		"template[/etc/rabbitmq/rabbitmq.config]",
		"template[/etc/default/rabbitmq-server]",
		"service[rabbitmq-server]",
	}, planIDs(plan))
}

func TestBuildPlanAutoStartGuardBracketsInstall(t *testing.T) {
	plan, err := BuildPlan(attrsFor("debian"), "/var/cache")
	require.NoError(t, err)

	disable := plan.Index(resource.TypeExecute, "disable auto-start 2/2")
	install := plan.Index(resource.TypeDpkg, plan.Artifact.CachePath)
	undo := plan.Index(resource.TypeExecute, "undo service disable hack")
	cfg := plan.Index(resource.TypeTemplate, "/etc/rabbitmq/rabbitmq.config")
	svc := plan.Index(resource.TypeService, "rabbitmq-server")

	require.NotEqual(t, -1, install)
	assert.Less(t, disable, install)
	assert.Less(t, install, undo)
	assert.Less(t, undo, cfg)
	assert.Less(t, cfg, svc)
}

func TestBuildPlanDistroVersion(t *testing.T) {
	attrs := attrsFor("ubuntu")
	attrs.UseDistroVersion = true

	plan, err := BuildPlan(attrs, "/var/cache")
	require.NoError(t, err)

	assert.NotNil(t, plan.Find(resource.TypePackage, "rabbitmq-server"))
	assert.Equal(t, -1, plan.Index(resource.TypeExecute, "disable auto-start 1/2"))
	for _, s := range plan.Steps {
		assert.NotEqual(t, resource.TypeRemoteFile, s.Resource.Type())
	}
}

func TestBuildPlanRHEL(t *testing.T) {
	plan, err := BuildPlan(attrsFor("centos"), "/var/cache")
	require.NoError(t, err)

	install := plan.Phase(PhaseInstall)
	require.NotEmpty(t, install)
	assert.Equal(t, "package[epel-release]", resource.ID(install[0]))
	assert.NotNil(t, plan.Find(resource.TypeRpm, plan.Artifact.CachePath))

	plan, err = BuildPlan(attrsFor("fedora"), "/var/cache")
	require.NoError(t, err)
	assert.Nil(t, plan.Find(resource.TypePackage, "epel-release"))
}

func TestBuildPlanSuseUsesRepositories(t *testing.T) {
	plan, err := BuildPlan(attrsFor("opensuse"), "/var/cache")
	require.NoError(t, err)

	assert.NotNil(t, plan.Find(resource.TypePackage, "rabbitmq-server"))
	assert.False(t, plan.Artifact.IsRemote())
}

func TestBuildPlanManageService(t *testing.T) {
	attrs := attrsFor("ubuntu")
	attrs.ManageService = false

	plan, err := BuildPlan(attrs, "/var/cache")
	require.NoError(t, err)
	assert.Empty(t, plan.Phase(PhaseSupervise))

	attrs.ManageService = true
	attrs.ServiceName = "rabbitmq"
	plan, err = BuildPlan(attrs, "/var/cache")
	require.NoError(t, err)
	svc, ok := plan.Find(resource.TypeService, "rabbitmq").(*resource.Service)
	require.True(t, ok)
	assert.True(t, svc.Has("enable"))
	assert.True(t, svc.Has("start"))
	assert.NotNil(t, plan.Find(resource.TypeTemplate, "/etc/default/rabbitmq"))
}

func TestBuildPlanDirectories(t *testing.T) {
	attrs := attrsFor("ubuntu")
	attrs.LogDir = "/var/log/rabbitmq"
	attrs.MnesiaDir = "/data/mnesia"

	plan, err := BuildPlan(attrs, "/var/cache")
	require.NoError(t, err)

	mnesia, ok := plan.Find(resource.TypeDirectory, "/data/mnesia").(*resource.Directory)
	require.True(t, ok)
	assert.Equal(t, "rabbitmq", mnesia.Owner)
	assert.EqualValues(t, 0775, mnesia.Mode)

	logs, ok := plan.Find(resource.TypeDirectory, "/var/log/rabbitmq").(*resource.Directory)
	require.True(t, ok)
	assert.Equal(t, "rabbitmq", logs.Group)

	root, ok := plan.Find(resource.TypeDirectory, "/etc/rabbitmq").(*resource.Directory)
	require.True(t, ok)
	assert.Equal(t, "root", root.Owner)
	assert.EqualValues(t, 0755, root.Mode)
}
