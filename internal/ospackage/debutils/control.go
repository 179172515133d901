// Package debutils reads metadata out of .deb archives without dpkg.
package debutils

import (
	"archive/tar"
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

const (
	arMagic        = "!<arch>\n"
	arHeaderLength = 60
)

// ControlInfo holds the fields of a package's control file.
type ControlInfo struct {
	Package      string
	Version      string
	Architecture string
	Fields       map[string]string
}

// ReadControl opens the .deb at path and parses its control file.
func ReadControl(path string) (*ControlInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open deb %s: %w", path, err)
	}
	defer f.Close()

	info, err := ParseControlFromDeb(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read control of %s: %w", path, err)
	}
	return info, nil
}

// ParseControlFromDeb walks the ar members of a .deb stream and parses the
// control file inside control.tar.{gz,xz,zst}.
func ParseControlFromDeb(r io.Reader) (*ControlInfo, error) {
	br := bufio.NewReader(r)
	magic := make([]byte, len(arMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, fmt.Errorf("reading ar magic: %w", err)
	}
	if string(magic) != arMagic {
		return nil, fmt.Errorf("not a deb archive")
	}

	header := make([]byte, arHeaderLength)
	for {
		if _, err := io.ReadFull(br, header); err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("control archive not found")
			}
			return nil, fmt.Errorf("reading ar header: %w", err)
		}

		name := strings.TrimSuffix(strings.TrimSpace(string(header[0:16])), "/")
		size, err := strconv.ParseInt(strings.TrimSpace(string(header[48:58])), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ar member size for %s: %w", name, err)
		}

		member := io.LimitReader(br, size)
		if strings.HasPrefix(name, "control.tar") {
			return parseControlTar(name, member)
		}

		if _, err := io.Copy(io.Discard, member); err != nil {
			return nil, fmt.Errorf("skipping ar member %s: %w", name, err)
		}
		// ar members are aligned to even offsets
		if size%2 == 1 {
			if _, err := br.Discard(1); err != nil && err != io.EOF {
				return nil, err
			}
		}
	}
}

func parseControlTar(name string, r io.Reader) (*ControlInfo, error) {
	var tr *tar.Reader
	switch path.Ext(name) {
	case ".gz":
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		tr = tar.NewReader(gz)
	case ".xz":
		xzr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		tr = tar.NewReader(xzr)
	case ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		defer zr.Close()
		tr = tar.NewReader(zr)
	case ".tar":
		tr = tar.NewReader(r)
	default:
		return nil, fmt.Errorf("unsupported control archive %s", name)
	}

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("control file not found in %s", name)
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		if path.Clean(strings.TrimPrefix(hdr.Name, "./")) != "control" {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("reading control: %w", err)
		}
		return ParseControl(data)
	}
}

// ParseControl parses the first stanza of a control file. Continuation lines
// are folded into the preceding field.
func ParseControl(data []byte) (*ControlInfo, error) {
	fields := make(map[string]string)
	var last string

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if len(fields) > 0 {
				break
			}
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			if last != "" {
				fields[last] += "\n" + strings.TrimSpace(line)
			}
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("malformed control line %q", line)
		}
		last = strings.TrimSpace(key)
		fields[last] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	info := &ControlInfo{
		Package:      fields["Package"],
		Version:      fields["Version"],
		Architecture: fields["Architecture"],
		Fields:       fields,
	}
	if info.Package == "" || info.Version == "" {
		return nil, fmt.Errorf("control file lacks Package or Version")
	}
	return info, nil
}
