package composer

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sandeepkv93/tasknotes/internal/media"
)

const (
	MaxFiles    = 6
	MaxFileSize = 10 * 1024 * 1024
)

// File is one pending upload. Content is opened lazily at submit time.
type File struct {
	Name     string
	MIMEType string
	Size     int64
	open     func() (io.ReadCloser, error)
	// id is assigned when the file joins a composer.
	id uint64
}

func (f File) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, fmt.Errorf("composer: file %q has no content", f.Name)
	}
	return f.open()
}

func (f File) Category() media.Category {
	return media.Classify(f.MIMEType)
}

// FileFromBytes wraps in-memory content such as a finished recording.
func FileFromBytes(name, mimeType string, data []byte) File {
	return File{
		Name:     name,
		MIMEType: mimeType,
		Size:     int64(len(data)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// FileFromPath stats a local file; its bytes are read only on submit.
func FileFromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("composer: %s is a directory", path)
	}
	return File{
		Name:     filepath.Base(path),
		MIMEType: detectMIME(path),
		Size:     info.Size(),
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// ExpandPatterns resolves file arguments, expanding ** globs. Patterns with
// no glob metacharacters are returned as-is so a missing file surfaces as a
// stat error.
func ExpandPatterns(patterns []string) ([]string, error) {
	var out []string
	for _, p := range patterns {
		p = expandHome(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if !strings.ContainsAny(p, "*?[{") {
			out = append(out, p)
			continue
		}
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", p, err)
		}
		sort.Strings(matches)
		out = append(out, matches...)
	}
	return out, nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

func detectMIME(path string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); t != "" {
		return t
	}
	f, err := os.Open(path)
	if err != nil {
		return "application/octet-stream"
	}
	defer f.Close()
	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	return http.DetectContentType(head[:n])
}

// Rejection names a file refused for exceeding MaxFileSize.
type Rejection struct {
	Name string
	Size int64
}

func (r Rejection) String() string {
	return fmt.Sprintf("%s (%s)", r.Name, media.FormatSize(r.Size))
}

// RejectionMessage is the single combined alert for a batch.
func RejectionMessage(rejected []Rejection) string {
	if len(rejected) == 0 {
		return ""
	}
	parts := make([]string, 0, len(rejected))
	for _, r := range rejected {
		parts = append(parts, r.String())
	}
	return fmt.Sprintf("These files exceed the %s limit and were not added: %s",
		media.FormatSize(MaxFileSize), strings.Join(parts, ", "))
}
