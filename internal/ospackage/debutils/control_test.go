package debutils_test

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/ospackage/debutils"
	"github.com/ulikunitz/xz"
)

const testControl = `Package: rabbitmq-server
Version: 3.5.6-1
Architecture: all
Maintainer: RabbitMQ Team <packaging@rabbitmq.com>
Depends: erlang-nox (>= 1:13.b.3) | esl-erlang, adduser, logrotate
Description: AMQP server written in Erlang
 RabbitMQ is an implementation of AMQP, the emerging standard for high
 performance enterprise messaging.
`

func controlTar(t *testing.T, control string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	files := []struct{ name, body string }{
		{"./md5sums", "d41d8cd98f00b204e9800998ecf8427e  usr/sbin/rabbitmqctl\n"},
		{"./control", control},
	}
	for _, f := range files {
		if err := tw.WriteHeader(&tar.Header{Name: f.name, Mode: 0644, Size: int64(len(f.body))}); err != nil {
			t.Fatalf("tar header: %v", err)
		}
		if _, err := tw.Write([]byte(f.body)); err != nil {
			t.Fatalf("tar write: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar close: %v", err)
	}
	return buf.Bytes()
}

func compress(t *testing.T, ext string, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	var w io.WriteCloser
	var err error
	switch ext {
	case ".gz":
		w = gzip.NewWriter(&buf)
	case ".xz":
		w, err = xz.NewWriter(&buf)
	case ".zst":
		w, err = zstd.NewWriter(&buf)
	default:
		return data
	}
	if err != nil {
		t.Fatalf("compressor: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("compress: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("compress close: %v", err)
	}
	return buf.Bytes()
}

func arMember(name string, data []byte) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%-16s%-12d%-6d%-6d%-8s%-10d`\n", name, 0, 0, 0, "100644", len(data))
	buf.Write(data)
	if len(data)%2 == 1 {
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func buildDeb(t *testing.T, controlExt string) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("!<arch>\n")
	// odd-sized first member exercises padding handling
	buf.Write(arMember("debian-binary", []byte("2.0\n\n")))
	buf.Write(arMember("control.tar"+controlExt, compress(t, controlExt, controlTar(t, testControl))))
	buf.Write(arMember("data.tar.gz", compress(t, ".gz", []byte("payload"))))
	return buf.Bytes()
}

func TestReadControl(t *testing.T) {
	for _, ext := range []string{".gz", ".xz", ".zst", ""} {
		t.Run("control.tar"+ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "rabbitmq-server_3.5.6-1_all.deb")
			if err := os.WriteFile(path, buildDeb(t, ext), 0644); err != nil {
				t.Fatalf("write deb: %v", err)
			}

			info, err := debutils.ReadControl(path)
			if err != nil {
				t.Fatalf("ReadControl failed: %v", err)
			}
			if info.Package != "rabbitmq-server" || info.Version != "3.5.6-1" || info.Architecture != "all" {
				t.Errorf("unexpected control info %+v", info)
			}
			if !strings.Contains(info.Fields["Description"], "performance enterprise messaging") {
				t.Errorf("expected folded description, got %q", info.Fields["Description"])
			}
		})
	}
}

func TestReadControlErrors(t *testing.T) {
	dir := t.TempDir()

	notDeb := filepath.Join(dir, "not.deb")
	if err := os.WriteFile(notDeb, []byte("this is not an ar archive"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := debutils.ReadControl(notDeb); err == nil {
		t.Error("expected error for non-ar file")
	}

	var noControl bytes.Buffer
	noControl.WriteString("!<arch>\n")
	noControl.Write(arMember("debian-binary", []byte("2.0\n")))
	noControlPath := filepath.Join(dir, "nocontrol.deb")
	if err := os.WriteFile(noControlPath, noControl.Bytes(), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := debutils.ReadControl(noControlPath); err == nil || !strings.Contains(err.Error(), "control archive not found") {
		t.Errorf("expected missing control error, got %v", err)
	}

	if _, err := debutils.ReadControl(filepath.Join(dir, "missing.deb")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseControl(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{name: "valid", data: "Package: logrotate\nVersion: 3.8.7-1ubuntu1\n"},
		{name: "leading blank lines", data: "\n\nPackage: erlang\nVersion: 1:16.b.3\n"},
		{name: "missing version", data: "Package: erlang\n", wantErr: true},
		{name: "malformed", data: "Package erlang\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := debutils.ParseControl([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseControl() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
