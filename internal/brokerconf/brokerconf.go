// Package brokerconf renders the broker's configuration files. Every renderer
// is a pure function of the attributes: identical input gives identical bytes.
package brokerconf

import (
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/open-edge-platform/rabbitmq-provisioner/internal/config"
)

const generatedBy = "Generated by rabbitmq-provisioner"

// Well-known file locations, relative to the managed root.
const (
	AptForceYesPath = "/etc/apt/apt.conf.d/90forceyes"
	DefaultDir      = "/etc/default"
)

// EnvPath is the location of rabbitmq-env.conf.
func EnvPath(attrs *config.Attributes) string {
	return path.Join(attrs.ConfigRoot, "rabbitmq-env.conf")
}

// ConfigPath is the location of rabbitmq.config.
func ConfigPath(attrs *config.Attributes) string {
	return path.Join(attrs.ConfigRoot, "rabbitmq.config")
}

// DefaultPath is the location of the init defaults file.
func DefaultPath(attrs *config.Attributes) string {
	return path.Join(DefaultDir, attrs.ServiceName)
}

// RenderEnv renders rabbitmq-env.conf. Unset attributes produce no line.
func RenderEnv(attrs *config.Attributes) []byte {
	var b strings.Builder
	b.WriteString("###\n# " + generatedBy + "\n# Changes will be overwritten\n###\n")

	line := func(key, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s=%s\n", key, value)
		}
	}
	line("NODENAME", attrs.NodeName)
	line("NODE_IP_ADDRESS", attrs.Address)
	if attrs.Port > 0 {
		line("NODE_PORT", strconv.Itoa(attrs.Port))
	}
	if attrs.ConfigRoot != "" {
		// CONFIG_FILE takes the path without the .config extension
		line("CONFIG_FILE", strings.TrimSuffix(ConfigPath(attrs), ".config"))
	}
	line("MNESIA_DIR", attrs.MnesiaDir)
	line("LOG_BASE", attrs.LogDir)
	if attrs.ServerAdditionalErlArgs != "" {
		line("SERVER_ADDITIONAL_ERL_ARGS", "'"+attrs.ServerAdditionalErlArgs+"'")
	}
	if attrs.CtlErlArgs != "" {
		line("CTL_ERL_ARGS", "'"+attrs.CtlErlArgs+"'")
	}

	if len(attrs.AdditionalEnvSettings) > 0 {
		b.WriteString("# Additional ENV settings\n")
		for _, setting := range attrs.AdditionalEnvSettings {
			b.WriteString(setting + "\n")
		}
	}
	return []byte(b.String())
}

// RenderConfig renders rabbitmq.config as Erlang terms.
func RenderConfig(attrs *config.Attributes) []byte {
	var sections []string
	if kernel := kernelSection(attrs); kernel != "" {
		sections = append(sections, kernel)
	}
	sections = append(sections, rabbitSection(attrs))
	if attrs.WebConsoleSSL {
		sections = append(sections, managementSection(attrs))
	}

	var b strings.Builder
	b.WriteString("%%%\n% " + generatedBy + "\n% Changes will be overwritten\n%%%\n")
	b.WriteString("[\n")
	b.WriteString(strings.Join(sections, ",\n"))
	b.WriteString("\n].\n")
	return []byte(b.String())
}

func kernelSection(attrs *config.Attributes) string {
	var items []string
	if attrs.Kernel.InetDistListenMin > 0 {
		items = append(items, fmt.Sprintf("{inet_dist_listen_min, %d}", attrs.Kernel.InetDistListenMin))
	}
	if attrs.Kernel.InetDistListenMax > 0 {
		items = append(items, fmt.Sprintf("{inet_dist_listen_max, %d}", attrs.Kernel.InetDistListenMax))
	}
	if len(items) == 0 {
		return ""
	}
	return section("kernel", items)
}

func rabbitSection(attrs *config.Attributes) string {
	items := []string{fmt.Sprintf("{tcp_listeners, [%s]}", listener(attrs.Address, attrs.Port))}

	if attrs.SSL {
		items = append(items,
			fmt.Sprintf("{ssl_listeners, [%s]}", listener(attrs.Address, attrs.SSLPort)),
			fmt.Sprintf("{ssl_options, [%s]}", strings.Join(sslOptions(attrs, true), ",")),
		)
	}

	if attrs.LoopbackUsers.Set {
		users := make([]string, 0, len(attrs.LoopbackUsers.Items))
		for _, u := range attrs.LoopbackUsers.Items {
			users = append(users, binary(u))
		}
		items = append(items, fmt.Sprintf("{loopback_users, [%s]}", strings.Join(users, ",")))
	}

	if attrs.DefaultUser != "" {
		items = append(items, fmt.Sprintf("{default_user, %s}", binary(attrs.DefaultUser)))
	}
	if attrs.DefaultPass != "" {
		items = append(items, fmt.Sprintf("{default_pass, %s}", binary(attrs.DefaultPass)))
	}
	if attrs.Heartbeat > 0 {
		items = append(items, fmt.Sprintf("{heartbeat, %d}", attrs.Heartbeat))
	}
	if attrs.VMMemoryHighWatermark != "" {
		items = append(items, fmt.Sprintf("{vm_memory_high_watermark, %s}", attrs.VMMemoryHighWatermark))
	}
	if attrs.DiskFreeLimit != "" {
		items = append(items, fmt.Sprintf("{disk_free_limit, %s}", attrs.DiskFreeLimit))
	}

	if attrs.Cluster {
		nodes := make([]string, 0, len(attrs.ClusterDiskNodes))
		for _, n := range attrs.ClusterDiskNodes {
			nodes = append(nodes, "'"+n+"'")
		}
		items = append(items,
			fmt.Sprintf("{cluster_nodes, {[%s], disc}}", strings.Join(nodes, ",")),
			fmt.Sprintf("{cluster_partition_handling, %s}", attrs.ClusterPartitionHandling),
		)
	}

	// pass-through, neither keys nor values are escaped
	keys := make([]string, 0, len(attrs.AdditionalRabbitConfigs))
	for k := range attrs.AdditionalRabbitConfigs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		items = append(items, fmt.Sprintf("{%s, %s}", k, attrs.AdditionalRabbitConfigs[k]))
	}

	return section("rabbit", items)
}

func managementSection(attrs *config.Attributes) string {
	opts := fmt.Sprintf("{listener, [{port, %d},{ssl, true},{ssl_opts, [%s]}]}",
		attrs.WebConsoleSSLPort, strings.Join(sslOptions(attrs, false), ","))
	return section("rabbitmq_management", []string{opts})
}

// sslOptions lists the TLS options. The broker listener also carries the
// peer verification and protocol version settings.
func sslOptions(attrs *config.Attributes, listener bool) []string {
	var opts []string
	if attrs.SSLCACert != "" {
		opts = append(opts, fmt.Sprintf("{cacertfile,%q}", attrs.SSLCACert))
	}
	if attrs.SSLCert != "" {
		opts = append(opts, fmt.Sprintf("{certfile,%q}", attrs.SSLCert))
	}
	if attrs.SSLKey != "" {
		opts = append(opts, fmt.Sprintf("{keyfile,%q}", attrs.SSLKey))
	}
	if listener {
		opts = append(opts,
			fmt.Sprintf("{verify,%s}", attrs.SSLVerify),
			fmt.Sprintf("{fail_if_no_peer_cert,%t}", attrs.SSLFailIfNoPeerCert),
		)
		if len(attrs.SSLVersions) > 0 {
			versions := make([]string, 0, len(attrs.SSLVersions))
			for _, v := range attrs.SSLVersions {
				versions = append(versions, "'"+v+"'")
			}
			opts = append(opts, fmt.Sprintf("{versions,[%s]}", strings.Join(versions, ",")))
		}
	}
	if len(attrs.SSLCiphers) > 0 {
		opts = append(opts, fmt.Sprintf("{ciphers,[%s]}", strings.Join(attrs.SSLCiphers, ",")))
	}
	return opts
}

func listener(address string, port int) string {
	if address == "" {
		return strconv.Itoa(port)
	}
	return fmt.Sprintf("{%q, %d}", address, port)
}

func binary(s string) string {
	return "<<\"" + s + "\">>"
}

func section(name string, items []string) string {
	return fmt.Sprintf("  {%s, [\n    %s\n  ]}", name, strings.Join(items, ",\n    "))
}

// RenderDefault renders /etc/default/<service_name>, sourced by the init
// script before the broker starts.
func RenderDefault(attrs *config.Attributes) []byte {
	var b strings.Builder
	b.WriteString("#\n# " + generatedBy + "\n#\n")
	b.WriteString("# This file is sourced by /etc/init.d/" + attrs.ServiceName + ". Its primary\n")
	b.WriteString("# reason for existing is to allow adjustment of system limits for the\n")
	b.WriteString("# " + attrs.ServiceName + " process.\n")
	if attrs.OpenFileLimit > 0 {
		fmt.Fprintf(&b, "\nulimit -n %d\n", attrs.OpenFileLimit)
	}
	return []byte(b.String())
}

// RenderAptForceYes renders the apt snippet that keeps package installs
// non-interactive.
func RenderAptForceYes() []byte {
	return []byte("APT::Get::Assume-Yes \"true\";\nAPT::Get::force-yes \"true\";\n")
}
