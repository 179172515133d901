package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParseAttributesDefaults(t *testing.T) {
	attrs, err := ParseAttributes(nil)
	if err != nil {
		t.Fatalf("ParseAttributes failed: %v", err)
	}
	if attrs.Version != DefaultVersion {
		t.Errorf("expected default version %s, got %s", DefaultVersion, attrs.Version)
	}
	if !attrs.ManageService {
		t.Error("expected manage_service to default to true")
	}
	if attrs.UseDistroVersion {
		t.Error("expected use_distro_version to default to false")
	}
	if attrs.ServiceName != "rabbitmq-server" {
		t.Errorf("unexpected service name %q", attrs.ServiceName)
	}
	if attrs.LoopbackUsers.Set {
		t.Error("expected loopback_users to be unset by default")
	}
	if attrs.MnesiaDir != "/var/lib/rabbitmq/mnesia" {
		t.Errorf("unexpected mnesiadir %q", attrs.MnesiaDir)
	}
}

func TestParseAttributesOverrides(t *testing.T) {
	data := []byte(`
platform:
  name: Ubuntu
  version: "14.04"
rabbitmq:
  version: 3.6.1
  manage_service: false
  server_additional_erl_args: test123
  additional_env_settings:
    - USE_LONGNAME=true
    - WHATS_ON_THE_TELLY=penguin
  ssl_ciphers:
    - "{ecdhe_ecdsa,aes_128_cbc,sha256}"
  additional_rabbit_configs:
    foo: bar
    frame_max: 131072
`)
	attrs, err := ParseAttributes(data)
	if err != nil {
		t.Fatalf("ParseAttributes failed: %v", err)
	}
	if attrs.Platform.Name != "ubuntu" || attrs.Platform.Version != "14.04" {
		t.Errorf("unexpected platform %+v", attrs.Platform)
	}
	if attrs.Version != "3.6.1" {
		t.Errorf("expected version 3.6.1, got %s", attrs.Version)
	}
	if attrs.ManageService {
		t.Error("expected manage_service false")
	}
	if attrs.ServerAdditionalErlArgs != "test123" {
		t.Errorf("unexpected erl args %q", attrs.ServerAdditionalErlArgs)
	}
	wantEnv := []string{"USE_LONGNAME=true", "WHATS_ON_THE_TELLY=penguin"}
	if !reflect.DeepEqual(attrs.AdditionalEnvSettings, wantEnv) {
		t.Errorf("expected %v, got %v", wantEnv, attrs.AdditionalEnvSettings)
	}
	if attrs.SSLCiphers[0] != "{ecdhe_ecdsa,aes_128_cbc,sha256}" {
		t.Errorf("unexpected cipher %q", attrs.SSLCiphers[0])
	}
	if attrs.AdditionalRabbitConfigs["foo"] != "bar" || attrs.AdditionalRabbitConfigs["frame_max"] != "131072" {
		t.Errorf("unexpected additional configs %v", attrs.AdditionalRabbitConfigs)
	}
	// Untouched keys keep their defaults.
	if attrs.Port != 5672 || attrs.DefaultUser != "guest" {
		t.Errorf("expected defaults for undeclared keys, got port=%d user=%s", attrs.Port, attrs.DefaultUser)
	}
}

func TestParseAttributesLoopbackUsers(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantSet bool
		want    []string
	}{
		{name: "unset", data: "rabbitmq:\n  version: 3.5.6\n", wantSet: false},
		{name: "null", data: "rabbitmq:\n  loopback_users: null\n", wantSet: false},
		{name: "empty", data: "rabbitmq:\n  loopback_users: []\n", wantSet: true, want: []string{}},
		{name: "single", data: "rabbitmq:\n  loopback_users: [foo]\n", wantSet: true, want: []string{"foo"}},
		{name: "multiple", data: "rabbitmq:\n  loopback_users: [foo, bar]\n", wantSet: true, want: []string{"foo", "bar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs, err := ParseAttributes([]byte(tt.data))
			if err != nil {
				t.Fatalf("ParseAttributes failed: %v", err)
			}
			if attrs.LoopbackUsers.Set != tt.wantSet {
				t.Fatalf("expected Set=%v, got %v", tt.wantSet, attrs.LoopbackUsers.Set)
			}
			if tt.wantSet && !reflect.DeepEqual(attrs.LoopbackUsers.Items, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, attrs.LoopbackUsers.Items)
			}
		})
	}
}

func TestParseAttributesEmptyVersionFallsBack(t *testing.T) {
	attrs, err := ParseAttributes([]byte("rabbitmq:\n  version: \"\"\n  service_name: \"\"\n"))
	if err != nil {
		t.Fatalf("ParseAttributes failed: %v", err)
	}
	if attrs.Version != DefaultVersion {
		t.Errorf("expected fallback to %s, got %q", DefaultVersion, attrs.Version)
	}
	if attrs.ServiceName != DefaultServiceName {
		t.Errorf("expected fallback to %s, got %q", DefaultServiceName, attrs.ServiceName)
	}
}

func TestParseAttributesSchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "unknown key", data: "rabbitmq:\n  verison: 3.5.6\n"},
		{name: "unknown family", data: "platform:\n  family: gentoo\n"},
		{name: "wrong type", data: "rabbitmq:\n  manage_service: sometimes\n"},
		{name: "malformed yaml", data: "rabbitmq: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs, err := ParseAttributes([]byte(tt.data))
			if err == nil {
				t.Fatalf("expected error, got %+v", attrs)
			}
			if attrs != nil {
				t.Error("expected nil attributes on error")
			}
		})
	}
}

func TestLoadAttributes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.yml")
	if err := os.WriteFile(path, []byte("rabbitmq:\n  use_distro_version: true\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	attrs, err := LoadAttributes(path)
	if err != nil {
		t.Fatalf("LoadAttributes failed: %v", err)
	}
	if !attrs.UseDistroVersion {
		t.Error("expected use_distro_version true")
	}

	if _, err := LoadAttributes(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestArtifactBaseURL(t *testing.T) {
	attrs := DefaultAttributes()
	if got := attrs.ArtifactBaseURL(); got != "https://www.rabbitmq.com/releases/rabbitmq-server/v3.5.6/" {
		t.Errorf("unexpected base URL %q", got)
	}

	attrs.PackageURL = "http://mirror.local/rabbitmq"
	if got := attrs.ArtifactBaseURL(); got != "http://mirror.local/rabbitmq/" {
		t.Errorf("expected trailing slash, got %q", got)
	}
}

func TestWarnings(t *testing.T) {
	attrs := DefaultAttributes()
	warnings := attrs.Warnings()
	if len(warnings) != 1 || !strings.Contains(warnings[0], "default_pass") {
		t.Errorf("expected a weak password warning for guest, got %v", warnings)
	}

	attrs.DefaultPass = "Tr0ub4dor&3-horse-staple"
	attrs.SSL = true
	attrs.UseDistroVersion = true
	attrs.PackageChecksum = strings.Repeat("a", 64)
	warnings = attrs.Warnings()
	if len(warnings) != 2 {
		t.Fatalf("expected ssl and checksum warnings, got %v", warnings)
	}
	if !strings.Contains(warnings[0], "ssl") || !strings.Contains(warnings[1], "package_checksum") {
		t.Errorf("unexpected warnings %v", warnings)
	}
}

func TestOptionalListMarshalYAML(t *testing.T) {
	var unset OptionalList
	if v, _ := unset.MarshalYAML(); v != nil {
		t.Errorf("expected nil for unset list, got %v", v)
	}
	empty := NewOptionalList()
	if v, _ := empty.MarshalYAML(); !reflect.DeepEqual(v, []string{}) {
		t.Errorf("expected empty slice, got %#v", v)
	}
}
