package resource

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/open-edge-platform/rabbitmq-provisioner/internal/utils/shell"
)

// LookupOwner returns "user:group" of a target path. Chown changes it.
// Both run on the target so names resolve against its own user database.
var (
	LookupOwner = func(root, path string) (string, error) {
		out, err := shell.ExecCmdSilent("stat -c '%U:%G' "+path, false, root, nil)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(out), nil
	}
	Chown = func(root, path, owner, group string) error {
		_, err := shell.ExecCmd(fmt.Sprintf("chown %s:%s %s", owner, group, path), false, root, nil)
		return err
	}
)

func ensureOwner(env *Env, path, owner, group string) (bool, error) {
	if owner == "" {
		return false, nil
	}
	if group == "" {
		group = owner
	}
	current, err := LookupOwner(env.Root, path)
	if err == nil && current == owner+":"+group {
		return false, nil
	}
	if err := Chown(env.Root, path, owner, group); err != nil {
		return false, fmt.Errorf("failed to chown %s to %s:%s: %w", path, owner, group, err)
	}
	return true, nil
}

func ensureMode(hostPath string, mode os.FileMode) (bool, error) {
	info, err := os.Stat(hostPath)
	if err != nil {
		return false, err
	}
	if info.Mode().Perm() == mode.Perm() {
		return false, nil
	}
	if err := os.Chmod(hostPath, mode.Perm()); err != nil {
		return false, fmt.Errorf("failed to chmod %s: %w", hostPath, err)
	}
	return true, nil
}

// Directory ensures a directory with the given owner and mode.
type Directory struct {
	Path  string
	Owner string
	Group string
	Mode  os.FileMode
}

func (d *Directory) Type() string   { return TypeDirectory }
func (d *Directory) Name() string   { return d.Path }
func (d *Directory) Action() string { return "create" }

func (d *Directory) Apply(ctx context.Context, env *Env) (bool, error) {
	hostPath := env.HostPath(d.Path)
	changed := false

	info, err := os.Stat(hostPath)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(hostPath, d.Mode.Perm()); err != nil {
			return false, fmt.Errorf("failed to create directory %s: %w", d.Path, err)
		}
		changed = true
	case err != nil:
		return false, fmt.Errorf("failed to stat %s: %w", d.Path, err)
	case !info.IsDir():
		return false, fmt.Errorf("%s exists and is not a directory", d.Path)
	}

	// MkdirAll is subject to the umask
	modeChanged, err := ensureMode(hostPath, d.Mode)
	if err != nil {
		return changed, err
	}
	ownerChanged, err := ensureOwner(env, d.Path, d.Owner, d.Group)
	if err != nil {
		return changed, err
	}
	return changed || modeChanged || ownerChanged, nil
}

// Template writes rendered content to a file. The file is only rewritten
// when its bytes differ.
type Template struct {
	Path    string
	Source  string
	Owner   string
	Group   string
	Mode    os.FileMode
	Content []byte
}

func (t *Template) Type() string   { return TypeTemplate }
func (t *Template) Name() string   { return t.Path }
func (t *Template) Action() string { return "create" }

func (t *Template) Apply(ctx context.Context, env *Env) (bool, error) {
	hostPath := env.HostPath(t.Path)
	changed := false

	current, err := os.ReadFile(hostPath)
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to read %s: %w", t.Path, err)
	}
	if err != nil || !bytes.Equal(current, t.Content) {
		if err := writeFileAtomic(hostPath, t.Content, t.Mode); err != nil {
			return false, fmt.Errorf("failed to write %s: %w", t.Path, err)
		}
		changed = true
	}

	modeChanged, err := ensureMode(hostPath, t.Mode)
	if err != nil {
		return changed, err
	}
	ownerChanged, err := ensureOwner(env, t.Path, t.Owner, t.Group)
	if err != nil {
		return changed, err
	}
	return changed || modeChanged || ownerChanged, nil
}

func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(mode.Perm()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
