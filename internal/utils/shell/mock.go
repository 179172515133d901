package shell

import (
	"fmt"
	"strings"
	"sync"
)

// MockCommand maps a command substring to a canned result.
type MockCommand struct {
	Pattern string
	Output  string
	Error   error
}

// MockExecutor answers commands from a list of MockCommand entries. The first
// entry whose Pattern is contained in the command wins. Every command is
// recorded in Executed in call order.
type MockExecutor struct {
	mu       sync.Mutex
	commands []MockCommand
	Executed []string
}

// NewMockExecutor returns an executor answering from cmds.
func NewMockExecutor(cmds []MockCommand) *MockExecutor {
	return &MockExecutor{commands: cmds}
}

func (m *MockExecutor) lookup(cmdStr string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Executed = append(m.Executed, cmdStr)
	for _, c := range m.commands {
		if strings.Contains(cmdStr, c.Pattern) {
			return c.Output, c.Error
		}
	}
	return "", fmt.Errorf("unexpected command for mock executor: %s", cmdStr)
}

func (m *MockExecutor) ExecCmd(cmdStr string, sudo bool, chrootPath string, envVal []string) (string, error) {
	return m.lookup(cmdStr)
}

func (m *MockExecutor) ExecCmdSilent(cmdStr string, sudo bool, chrootPath string, envVal []string) (string, error) {
	return m.lookup(cmdStr)
}

func (m *MockExecutor) ExecCmdWithStream(cmdStr string, sudo bool, chrootPath string, envVal []string) (string, error) {
	return m.lookup(cmdStr)
}

func (m *MockExecutor) ExecCmdWithInput(inputStr string, cmdStr string, sudo bool, chrootPath string, envVal []string) (string, error) {
	return m.lookup(cmdStr)
}

// Commands returns a copy of the executed commands.
func (m *MockExecutor) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Executed...)
}

// Ran reports whether a command containing pattern was executed.
func (m *MockExecutor) Ran(pattern string) bool {
	for _, c := range m.Commands() {
		if strings.Contains(c, pattern) {
			return true
		}
	}
	return false
}
