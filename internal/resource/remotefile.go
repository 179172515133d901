package resource

import (
	"context"
	"fmt"
	"os"

	"github.com/open-edge-platform/rabbitmq-provisioner/internal/ospackage"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/utils/logger"
)

// RemoteFile downloads a package artifact into the cache unless it is
// already there. A freshly downloaded file is checked against the artifact's
// checksum and, when SigningKey is set, its OpenPGP signature. A file that
// fails either check is removed so the next run downloads it again.
type RemoteFile struct {
	Artifact   ospackage.PackageArtifact
	SigningKey string
}

func (r *RemoteFile) Type() string   { return TypeRemoteFile }
func (r *RemoteFile) Name() string   { return r.Artifact.CachePath }
func (r *RemoteFile) Action() string { return "create_if_missing" }

func (r *RemoteFile) Apply(ctx context.Context, env *Env) (bool, error) {
	log := logger.Logger()
	dest := env.HostPath(r.Artifact.CachePath)

	fetched, err := env.Fetch(ctx, r.Artifact.URL, dest)
	if err != nil {
		return false, err
	}
	if !fetched {
		return false, nil
	}

	if err := r.verify(ctx, env, dest); err != nil {
		os.Remove(dest)
		return true, err
	}
	log.Debugf("verified %s", dest)
	return true, nil
}

func (r *RemoteFile) verify(ctx context.Context, env *Env, dest string) error {
	if r.Artifact.Checksum != "" {
		if err := ospackage.VerifyChecksum(dest, r.Artifact.Checksum); err != nil {
			return err
		}
	}
	if r.SigningKey == "" {
		return nil
	}

	keyring, err := ospackage.LoadKeyRing(r.SigningKey)
	if err != nil {
		return err
	}
	local := r.Artifact
	local.CachePath = dest
	if local.Family == ospackage.Debian {
		if _, err := env.Fetch(ctx, r.Artifact.SignatureURL(), local.SignaturePath()); err != nil {
			return fmt.Errorf("failed to fetch signature for %s: %w", r.Artifact.FileName, err)
		}
	}
	return ospackage.VerifyArtifact(local, keyring)
}
