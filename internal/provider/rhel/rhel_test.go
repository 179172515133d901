package rhel

import (
	"testing"

	"github.com/open-edge-platform/rabbitmq-provisioner/internal/config"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/ospackage"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/provider"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/resource"
)

// TestRHELProviderInterface tests that RHEL implements Provider interface
func TestRHELProviderInterface(t *testing.T) {
	var _ provider.Provider = (*RHEL)(nil) // Compile-time interface check
}

func TestInstallResources(t *testing.T) {
	tests := []struct {
		name      string
		platform  string
		useDistro bool
		want      []string
	}{
		{
			name:     "centos artifact",
			platform: "centos",
			want: []string{
				"package[epel-release]",
				"package[erlang]",
				"remote_file[/tmp/rabbitmq-server-3.5.6-1.noarch.rpm]",
				"rpm_package[/tmp/rabbitmq-server-3.5.6-1.noarch.rpm]",
			},
		},
		{
			name:     "redhat artifact",
			platform: "redhat",
			want: []string{
				"package[erlang]",
				"remote_file[/tmp/rabbitmq-server-3.5.6-1.noarch.rpm]",
				"rpm_package[/tmp/rabbitmq-server-3.5.6-1.noarch.rpm]",
			},
		},
		{
			name:      "fedora distro",
			platform:  "fedora",
			useDistro: true,
			want:      []string{"package[erlang]", "package[rabbitmq-server]"},
		},
		{
			name:      "centos distro",
			platform:  "centos",
			useDistro: true,
			want:      []string{"package[epel-release]", "package[erlang]", "package[rabbitmq-server]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := config.DefaultAttributes()
			attrs.Platform = config.PlatformInfo{Name: tt.platform}
			attrs.UseDistroVersion = tt.useDistro
			artifact, err := ospackage.Resolve(ospackage.RHEL, &attrs, "/tmp")
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}

			res := (&RHEL{}).InstallResources(&attrs, artifact)
			if len(res) != len(tt.want) {
				t.Fatalf("expected %d resources, got %d", len(tt.want), len(res))
			}
			for i, r := range res {
				if got := resource.ID(r); got != tt.want[i] {
					t.Errorf("resource %d = %s, want %s", i, got, tt.want[i])
				}
			}
		})
	}
}
