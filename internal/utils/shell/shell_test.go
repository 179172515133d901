package shell

import (
	"errors"
	"os/exec"
	"strings"
	"testing"
)

// checkShellAvailable checks if a shell is available for testing
func checkShellAvailable(t *testing.T) {
	t.Helper()
	shells := []string{"/bin/bash", "/usr/bin/bash", "/bin/sh"}
	for _, shell := range shells {
		if _, err := exec.LookPath(shell); err == nil {
			return
		}
	}
	t.Skip("No shell (bash or sh) available in test environment")
}

func TestGetFullCmdStr(t *testing.T) {
	cmd, err := GetFullCmdStr("echo hello", false, HostPath, nil)
	if err != nil {
		t.Fatalf("GetFullCmdStr failed: %v", err)
	}
	if cmd != "echo hello" {
		t.Errorf("Expected command 'echo hello', got: %s", cmd)
	}
}

func TestGetFullCmdStrWithEnv(t *testing.T) {
	cmd, err := GetFullCmdStr("apt-get install -y logrotate", false, HostPath, []string{"DEBIAN_FRONTEND=noninteractive"})
	if err != nil {
		t.Fatalf("GetFullCmdStr failed: %v", err)
	}
	if !strings.HasPrefix(cmd, "DEBIAN_FRONTEND=noninteractive apt-get") {
		t.Errorf("Expected env prefix, got: %s", cmd)
	}
}

func TestGetFullCmdStrChroot(t *testing.T) {
	root := t.TempDir()
	cmd, err := GetFullCmdStr("echo 'exit 101' > /usr/sbin/policy-rc.d", false, root, nil)
	if err != nil {
		t.Fatalf("GetFullCmdStr failed: %v", err)
	}
	if !strings.Contains(cmd, "chroot "+root+" /bin/sh -c ") {
		t.Errorf("Expected chroot prefix, got: %s", cmd)
	}
	if !strings.Contains(cmd, `'\''exit 101'\''`) {
		t.Errorf("Expected single quotes to be escaped, got: %s", cmd)
	}
}

func TestGetFullCmdStrMissingChroot(t *testing.T) {
	if _, err := GetFullCmdStr("true", false, "/nonexistent/chroot/path", nil); err == nil {
		t.Error("Expected error for missing chroot path")
	}
}

func TestExecCmd(t *testing.T) {
	checkShellAvailable(t)

	out, err := ExecCmd("echo test-exec-cmd", false, HostPath, nil)
	if err != nil {
		t.Fatalf("ExecCmd failed: %v", err)
	}
	if !strings.Contains(out, "test-exec-cmd") {
		t.Errorf("Expected output to contain 'test-exec-cmd', got: %s", out)
	}
}

func TestExecCmdFailure(t *testing.T) {
	checkShellAvailable(t)

	if _, err := ExecCmd("exit 3", false, HostPath, nil); err == nil {
		t.Error("Expected error for non-zero exit")
	}
}

func TestExecCmdWithStream(t *testing.T) {
	checkShellAvailable(t)

	out, err := ExecCmdWithStream("echo test-exec-stream", false, HostPath, nil)
	if err != nil {
		t.Fatalf("ExecCmdWithStream failed: %v", err)
	}
	if !strings.Contains(out, "test-exec-stream") {
		t.Errorf("Expected output to contain 'test-exec-stream', got: %s", out)
	}
}

func TestExecCmdWithInput(t *testing.T) {
	checkShellAvailable(t)

	out, err := ExecCmdWithInput("input-line", "cat", false, HostPath, nil)
	if err != nil {
		t.Fatalf("ExecCmdWithInput failed: %v", err)
	}
	if !strings.Contains(out, "input-line") {
		t.Errorf("Expected output to contain 'input-line', got: %s", out)
	}
}

func TestIsCommandExist(t *testing.T) {
	originalExecutor := Default
	defer func() { Default = originalExecutor }()

	Default = NewMockExecutor([]MockCommand{
		{Pattern: "command -v systemctl", Output: "/usr/bin/systemctl\n"},
		{Pattern: "command -v zypper", Output: "", Error: errors.New("exit status 1")},
	})

	exists, err := IsCommandExist("systemctl", HostPath)
	if err != nil || !exists {
		t.Errorf("expected systemctl to exist, got %v, %v", exists, err)
	}
	exists, err = IsCommandExist("zypper", HostPath)
	if err != nil || exists {
		t.Errorf("expected zypper to be missing, got %v, %v", exists, err)
	}
}

func TestMockExecutor(t *testing.T) {
	originalExecutor := Default
	defer func() { Default = originalExecutor }()

	mock := NewMockExecutor([]MockCommand{
		{Pattern: "dpkg-query", Output: "install ok installed 3.5.6-1"},
	})
	Default = mock

	out, err := ExecCmd("dpkg-query -W rabbitmq-server", false, HostPath, nil)
	if err != nil {
		t.Fatalf("mock ExecCmd failed: %v", err)
	}
	if out != "install ok installed 3.5.6-1" {
		t.Errorf("unexpected mock output %q", out)
	}
	if _, err := ExecCmd("rm -rf /", true, HostPath, nil); err == nil {
		t.Error("expected unmatched command to fail")
	}
	if !mock.Ran("dpkg-query") || len(mock.Commands()) != 2 {
		t.Errorf("unexpected recorded commands %v", mock.Commands())
	}
}
