package shell

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/open-edge-platform/rabbitmq-provisioner/internal/utils/logger"
)

// HostPath is the chroot path meaning "run on the host".
const HostPath = ""

// Executor runs shell command strings, optionally with sudo or inside a chroot.
type Executor interface {
	ExecCmd(cmdStr string, sudo bool, chrootPath string, envVal []string) (string, error)
	ExecCmdSilent(cmdStr string, sudo bool, chrootPath string, envVal []string) (string, error)
	ExecCmdWithStream(cmdStr string, sudo bool, chrootPath string, envVal []string) (string, error)
	ExecCmdWithInput(inputStr string, cmdStr string, sudo bool, chrootPath string, envVal []string) (string, error)
}

// DefaultExecutor runs commands through the system shell.
type DefaultExecutor struct{}

// Default is the executor used by the package-level helpers. Tests swap it
// for a MockExecutor.
var Default Executor = &DefaultExecutor{}

func ExecCmd(cmdStr string, sudo bool, chrootPath string, envVal []string) (string, error) {
	return Default.ExecCmd(cmdStr, sudo, chrootPath, envVal)
}

func ExecCmdSilent(cmdStr string, sudo bool, chrootPath string, envVal []string) (string, error) {
	return Default.ExecCmdSilent(cmdStr, sudo, chrootPath, envVal)
}

func ExecCmdWithStream(cmdStr string, sudo bool, chrootPath string, envVal []string) (string, error) {
	return Default.ExecCmdWithStream(cmdStr, sudo, chrootPath, envVal)
}

func ExecCmdWithInput(inputStr string, cmdStr string, sudo bool, chrootPath string, envVal []string) (string, error) {
	return Default.ExecCmdWithInput(inputStr, cmdStr, sudo, chrootPath, envVal)
}

// GetOSEnvirons returns the system environment variables
func GetOSEnvirons() map[string]string {
	environ := make(map[string]string)
	for _, env := range os.Environ() {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) == 2 {
			environ[parts[0]] = parts[1]
		}
	}
	return environ
}

// GetOSProxyEnvirons retrieves HTTP and HTTPS proxy environment variables
func GetOSProxyEnvirons() map[string]string {
	osEnv := GetOSEnvirons()
	proxyEnv := make(map[string]string)

	for key, value := range osEnv {
		if strings.Contains(strings.ToLower(key), "http_proxy") ||
			strings.Contains(strings.ToLower(key), "https_proxy") ||
			strings.Contains(strings.ToLower(key), "no_proxy") {
			proxyEnv[key] = value
		}
	}

	return proxyEnv
}

// getShell returns the preferred shell, falling back to /bin/sh if bash is not available
func getShell() string {
	shells := []string{"/bin/bash", "/usr/bin/bash", "/bin/sh"}
	for _, shell := range shells {
		if _, err := os.Stat(shell); err == nil {
			return shell
		}
	}
	return "/bin/sh"
}

// IsCommandExist checks if a command exists on the host or in a chroot environment
func IsCommandExist(cmd string, chrootPath string) (bool, error) {
	output, err := ExecCmdSilent("command -v "+cmd, false, chrootPath, nil)
	if err != nil {
		// command -v exits non-zero when the command is missing
		return false, nil
	}
	return len(strings.TrimSpace(output)) > 0, nil
}

// GetFullCmdStr prepares a command string with sudo, env and chroot prefixes
func GetFullCmdStr(cmdStr string, sudo bool, chrootPath string, envVal []string) (string, error) {
	var fullCmdStr string
	log := logger.Logger()
	envValStr := ""
	for _, env := range envVal {
		envValStr += env + " "
	}

	if chrootPath != HostPath {
		if _, err := os.Stat(chrootPath); os.IsNotExist(err) {
			return cmdStr, fmt.Errorf("chroot path %s does not exist", chrootPath)
		}

		for key, value := range GetOSProxyEnvirons() {
			envValStr += key + "=" + value + " "
		}

		prefix := ""
		if sudo {
			prefix = "sudo "
		}
		fullCmdStr = prefix + envValStr + "chroot " + chrootPath + " /bin/sh -c '" + strings.ReplaceAll(cmdStr, "'", `'\''`) + "'"
		log.Debugf("Chroot %s Exec: [%s]", filepath.Base(chrootPath), cmdStr)
	} else if sudo {
		for key, value := range GetOSProxyEnvirons() {
			envValStr += key + "=" + value + " "
		}
		fullCmdStr = "sudo " + envValStr + cmdStr
		log.Debugf("Exec: [sudo %s]", cmdStr)
	} else {
		fullCmdStr = envValStr + cmdStr
		log.Debugf("Exec: [%s]", cmdStr)
	}

	return fullCmdStr, nil
}

// ExecCmd executes a command and returns its combined output
func (e *DefaultExecutor) ExecCmd(cmdStr string, sudo bool, chrootPath string, envVal []string) (string, error) {
	return e.exec(cmdStr, sudo, chrootPath, envVal, true)
}

// ExecCmdSilent executes a command without logging its output
func (e *DefaultExecutor) ExecCmdSilent(cmdStr string, sudo bool, chrootPath string, envVal []string) (string, error) {
	return e.exec(cmdStr, sudo, chrootPath, envVal, false)
}

func (e *DefaultExecutor) exec(cmdStr string, sudo bool, chrootPath string, envVal []string, logOutput bool) (string, error) {
	log := logger.Logger()
	fullCmdStr, err := GetFullCmdStr(cmdStr, sudo, chrootPath, envVal)
	if err != nil {
		return "", fmt.Errorf("failed to get full command string: %w", err)
	}

	cmd := exec.Command(getShell(), "-c", fullCmdStr)
	output, err := cmd.CombinedOutput()
	outputStr := string(output)

	if err != nil {
		if outputStr != "" && logOutput {
			log.Info(outputStr)
		}
		return outputStr, fmt.Errorf("failed to exec %s: %w", fullCmdStr, err)
	}
	if outputStr != "" && logOutput {
		log.Debug(outputStr)
	}
	return outputStr, nil
}

// ExecCmdWithStream executes a command and streams its output to the log
func (e *DefaultExecutor) ExecCmdWithStream(cmdStr string, sudo bool, chrootPath string, envVal []string) (string, error) {
	var outputStr string
	log := logger.Logger()

	fullCmdStr, err := GetFullCmdStr(cmdStr, sudo, chrootPath, envVal)
	if err != nil {
		return "", fmt.Errorf("failed to get full command string: %w", err)
	}

	cmd := exec.Command(getShell(), "-c", fullCmdStr)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("failed to get stdout pipe for command %s: %w", fullCmdStr, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("failed to get stderr pipe for command %s: %w", fullCmdStr, err)
	}

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to start command %s: %w", fullCmdStr, err)
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			str := scanner.Text()
			if str != "" {
				outputStr += str + "\n"
				log.Info(str)
			}
		}
	}()

	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			if str := scanner.Text(); str != "" {
				log.Info(str)
			}
		}
	}()

	wg.Wait()

	if err := cmd.Wait(); err != nil {
		return outputStr, fmt.Errorf("failed to wait for command %s: %w", fullCmdStr, err)
	}

	return outputStr, nil
}

// ExecCmdWithInput executes a command with input string on stdin
func (e *DefaultExecutor) ExecCmdWithInput(inputStr string, cmdStr string, sudo bool, chrootPath string, envVal []string) (string, error) {
	log := logger.Logger()
	fullCmdStr, err := GetFullCmdStr(cmdStr, sudo, chrootPath, envVal)
	if err != nil {
		return "", fmt.Errorf("failed to get full command string: %w", err)
	}

	cmd := exec.Command(getShell(), "-c", fullCmdStr)
	cmd.Stdin = bytes.NewBufferString(inputStr)

	output, err := cmd.CombinedOutput()
	outputStr := string(output)

	if err != nil {
		if outputStr != "" {
			log.Info(outputStr)
		}
		return outputStr, fmt.Errorf("failed to exec %s with input: %w", fullCmdStr, err)
	}
	if outputStr != "" {
		log.Debug(outputStr)
	}
	return outputStr, nil
}
