package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/muesli/crunchy"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/config/validate"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/utils/logger"
	"gopkg.in/yaml.v3"
	sigsyaml "sigs.k8s.io/yaml"
)

const (
	DefaultVersion     = "3.5.6"
	DefaultServiceName = "rabbitmq-server"
	DefaultPackageURL  = "https://www.rabbitmq.com/releases/rabbitmq-server/v{version}/"
)

// PlatformInfo identifies the target host. An empty Name means "detect from
// the running host".
type PlatformInfo struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Family  string `yaml:"family"`
}

// IsEmpty reports whether no platform was declared.
func (p PlatformInfo) IsEmpty() bool {
	return p.Name == "" && p.Family == ""
}

// OptionalList is a list attribute that distinguishes "unset" from "empty".
type OptionalList struct {
	Set   bool
	Items []string
}

// NewOptionalList returns a set list holding items, which may be empty.
func NewOptionalList(items ...string) OptionalList {
	if items == nil {
		items = []string{}
	}
	return OptionalList{Set: true, Items: items}
}

func (l *OptionalList) UnmarshalYAML(value *yaml.Node) error {
	if value.Tag == "!!null" {
		*l = OptionalList{}
		return nil
	}
	var items []string
	if err := value.Decode(&items); err != nil {
		return err
	}
	*l = NewOptionalList(items...)
	return nil
}

func (l OptionalList) MarshalYAML() (interface{}, error) {
	if !l.Set {
		return nil, nil
	}
	return l.Items, nil
}

// KernelAttributes are rendered into the kernel section of rabbitmq.config.
type KernelAttributes struct {
	InetDistListenMin int `yaml:"inet_dist_listen_min"`
	InetDistListenMax int `yaml:"inet_dist_listen_max"`
}

// Attributes is the declared desired state of one provisioning run.
type Attributes struct {
	Platform PlatformInfo `yaml:"-"`

	Version          string `yaml:"version"`
	UseDistroVersion bool   `yaml:"use_distro_version"`
	ManageService    bool   `yaml:"manage_service"`
	ServiceName      string `yaml:"service_name"`
	PackageURL       string `yaml:"package_url"`
	PackageChecksum  string `yaml:"package_checksum"`
	SigningKey       string `yaml:"signing_key"`
	ErlangPackage    string `yaml:"erlang_package"`

	User       string `yaml:"user"`
	Group      string `yaml:"group"`
	ConfigRoot string `yaml:"config_root"`
	MnesiaDir  string `yaml:"mnesiadir"`
	LogDir     string `yaml:"logdir"`

	NodeName      string `yaml:"nodename"`
	Address       string `yaml:"address"`
	Port          int    `yaml:"port"`
	OpenFileLimit int    `yaml:"open_file_limit"`

	ServerAdditionalErlArgs string   `yaml:"server_additional_erl_args"`
	CtlErlArgs              string   `yaml:"ctl_erl_args"`
	AdditionalEnvSettings   []string `yaml:"additional_env_settings"`

	SSL                   bool         `yaml:"ssl"`
	SSLPort               int          `yaml:"ssl_port"`
	SSLCACert             string       `yaml:"ssl_cacert"`
	SSLCert               string       `yaml:"ssl_cert"`
	SSLKey                string       `yaml:"ssl_key"`
	SSLVerify             string       `yaml:"ssl_verify"`
	SSLFailIfNoPeerCert   bool         `yaml:"ssl_fail_if_no_peer_cert"`
	SSLVersions           []string     `yaml:"ssl_versions"`
	SSLCiphers            []string     `yaml:"ssl_ciphers"`
	WebConsoleSSL         bool         `yaml:"web_console_ssl"`
	WebConsoleSSLPort     int          `yaml:"web_console_ssl_port"`
	LoopbackUsers         OptionalList `yaml:"loopback_users"`
	DefaultUser           string       `yaml:"default_user"`
	DefaultPass           string       `yaml:"default_pass"`
	Heartbeat             int          `yaml:"heartbeat"`
	VMMemoryHighWatermark string       `yaml:"vm_memory_high_watermark"`
	DiskFreeLimit         string       `yaml:"disk_free_limit"`

	Cluster                  bool     `yaml:"cluster"`
	ClusterDiskNodes         []string `yaml:"cluster_disk_nodes"`
	ClusterPartitionHandling string   `yaml:"cluster_partition_handling"`

	Kernel                  KernelAttributes  `yaml:"kernel"`
	AdditionalRabbitConfigs map[string]string `yaml:"additional_rabbit_configs"`
}

// attributeFile is the on-disk layout: platform plus the rabbitmq namespace.
type attributeFile struct {
	Platform PlatformInfo `yaml:"platform"`
	RabbitMQ Attributes   `yaml:"rabbitmq"`
}

// DefaultAttributes returns the attribute set used when a key is not declared.
func DefaultAttributes() Attributes {
	return Attributes{
		Version:                  DefaultVersion,
		ManageService:            true,
		ServiceName:              DefaultServiceName,
		PackageURL:               DefaultPackageURL,
		ErlangPackage:            "erlang",
		User:                     "rabbitmq",
		Group:                    "rabbitmq",
		ConfigRoot:               "/etc/rabbitmq",
		MnesiaDir:                "/var/lib/rabbitmq/mnesia",
		Port:                     5672,
		SSLPort:                  5671,
		SSLVerify:                "verify_none",
		WebConsoleSSLPort:        15671,
		DefaultUser:              "guest",
		DefaultPass:              "guest",
		ClusterPartitionHandling: "ignore",
	}
}

// LoadAttributes reads, schema-validates and decodes an attribute file.
func LoadAttributes(path string) (*Attributes, error) {
	log := logger.Logger()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read attribute file %s: %w", path, err)
	}

	attrs, err := parseAttributes(data)
	if err != nil {
		return nil, fmt.Errorf("invalid attribute file %s: %w", path, err)
	}

	for _, w := range attrs.Warnings() {
		log.Warnf("%s: %s", path, w)
	}
	log.Debugf("loaded attributes from %s (version=%s, platform=%s)", path, attrs.Version, attrs.Platform.Name)
	return attrs, nil
}

// ParseAttributes decodes attribute data that is already in memory.
func ParseAttributes(data []byte) (*Attributes, error) {
	return parseAttributes(data)
}

func parseAttributes(data []byte) (*Attributes, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		attrs := DefaultAttributes()
		return &attrs, nil
	}

	jsonData, err := sigsyaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to convert attributes to JSON: %w", err)
	}
	if err := validate.ValidateAttributesJSON(jsonData); err != nil {
		return nil, err
	}

	file := attributeFile{RabbitMQ: DefaultAttributes()}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode attributes: %w", err)
	}

	attrs := file.RabbitMQ
	attrs.Platform = file.Platform
	attrs.normalize()
	return &attrs, nil
}

// normalize restores compiled-in defaults for keys declared empty.
func (a *Attributes) normalize() {
	if strings.TrimSpace(a.Version) == "" {
		a.Version = DefaultVersion
	}
	if a.ServiceName == "" {
		a.ServiceName = DefaultServiceName
	}
	if a.PackageURL == "" {
		a.PackageURL = DefaultPackageURL
	}
	a.Platform.Name = strings.ToLower(a.Platform.Name)
	a.Platform.Family = strings.ToLower(a.Platform.Family)
}

// ArtifactBaseURL returns PackageURL with the version placeholder expanded.
func (a *Attributes) ArtifactBaseURL() string {
	base := strings.ReplaceAll(a.PackageURL, "{version}", a.Version)
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

// Warnings reports suspicious but accepted attribute values.
func (a *Attributes) Warnings() []string {
	var warnings []string

	if a.DefaultPass != "" {
		if err := crunchy.NewValidator().Check(a.DefaultPass); err != nil {
			warnings = append(warnings, fmt.Sprintf("default_pass for user %q is weak: %v", a.DefaultUser, err))
		}
	}
	if (a.SSL || a.WebConsoleSSL) && (a.SSLCert == "" || a.SSLKey == "") {
		warnings = append(warnings, "ssl is enabled but ssl_cert or ssl_key is empty")
	}
	if a.UseDistroVersion && a.PackageChecksum != "" {
		warnings = append(warnings, "package_checksum is ignored when use_distro_version is true")
	}
	return warnings
}
