package pkgfetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/open-edge-platform/rabbitmq-provisioner/internal/utils/logger"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/utils/network"
	"github.com/schollz/progressbar/v3"
)

// ProgressWriter receives the download progress bar. Tests set it to
// io.Discard.
var ProgressWriter io.Writer = os.Stderr

// NewClient builds the HTTP client used for downloads.
var NewClient = func() *http.Client {
	return network.NewSecureHTTPClient(network.DefaultTimeout)
}

// FetchIfMissing downloads url to dest unless dest already exists. It reports
// whether a transfer took place.
func FetchIfMissing(ctx context.Context, url, dest string) (bool, error) {
	log := logger.Logger()

	if info, err := os.Stat(dest); err == nil {
		if info.IsDir() {
			return false, fmt.Errorf("download destination %s is a directory", dest)
		}
		log.Debugf("%s already cached, skipping download", dest)
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat %s: %w", dest, err)
	}

	if err := Fetch(ctx, url, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Fetch downloads url into dest. The body is written to dest.part and renamed
// once complete, so an interrupted transfer never leaves a partial dest.
func Fetch(ctx context.Context, url, dest string) error {
	log := logger.Logger()
	name := path.Base(url)

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("invalid download url %s: %w", url, err)
	}

	log.Infof("downloading %s", url)
	resp, err := NewClient().Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading %s failed: bad status: %s", url, resp.Status)
	}

	partial := dest + ".part"
	out, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", partial, err)
	}

	bar := progressbar.NewOptions64(resp.ContentLength,
		progressbar.OptionSetWriter(ProgressWriter),
		progressbar.OptionSetDescription(fmt.Sprintf("downloading %s", name)),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
	)

	written, err := io.Copy(io.MultiWriter(out, bar), resp.Body)
	_ = bar.Finish()
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(partial)
		return fmt.Errorf("downloading %s failed: %w", url, err)
	}

	if err := os.Rename(partial, dest); err != nil {
		os.Remove(partial)
		return fmt.Errorf("failed to move %s into place: %w", dest, err)
	}

	log.Infof("downloaded %s (%d bytes) to %s", name, written, dest)
	return nil
}
