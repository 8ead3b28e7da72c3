// Package storage persists uploaded payloads in a flat public directory.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const (
	maxBaseNameLength = 100
	sniffLimit        = 3072
	partSuffix        = ".part"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// ErrInvalidName is returned for stored names that would escape the upload directory.
var ErrInvalidName = errors.New("invalid stored file name")

// StoredFile describes a payload written by the MediaStore.
type StoredFile struct {
	Name     string
	URL      string
	Size     int64
	MimeType string
}

// MediaStore writes uploads to a single directory on an afero filesystem.
type MediaStore struct {
	fs        afero.Fs
	dir       string
	urlPrefix string
	now       func() time.Time
	token     func() string
}

// NewMediaStore returns a store rooted at dir whose files are published under urlPrefix.
func NewMediaStore(fs afero.Fs, dir, urlPrefix string) *MediaStore {
	return &MediaStore{
		fs:        fs,
		dir:       filepath.Clean(dir),
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
		now:       time.Now,
		token:     randomToken,
	}
}

// Dir returns the upload directory.
func (s *MediaStore) Dir() string {
	return s.dir
}

// Check creates the upload directory if needed and verifies it is a directory.
func (s *MediaStore) Check() error {
	if err := s.fs.MkdirAll(s.dir, 0o750); err != nil {
		return err
	}
	info, err := s.fs.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.dir)
	}
	return nil
}

// Save streams r into a freshly named file. The payload is written to a
// temporary sibling first so a failed write never leaves a file at the final name.
func (s *MediaStore) Save(ctx context.Context, originalName string, r io.Reader) (*StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.fs.MkdirAll(s.dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	name := s.GenerateName(originalName)
	final := filepath.Join(s.dir, name)
	tmp := final + partSuffix

	f, err := s.fs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o640)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}

	head := &prefixBuffer{limit: sniffLimit}
	n, copyErr := io.Copy(f, io.TeeReader(r, head))
	closeErr := f.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		_ = s.fs.Remove(tmp)
		return nil, fmt.Errorf("write %s: %w", name, copyErr)
	}

	if err := s.fs.Rename(tmp, final); err != nil {
		_ = s.fs.Remove(tmp)
		return nil, fmt.Errorf("finalize %s: %w", name, err)
	}

	return &StoredFile{
		Name:     name,
		URL:      s.URL(name),
		Size:     n,
		MimeType: mimetype.Detect(head.Bytes()).String(),
	}, nil
}

// WriteFile stores data under an explicit name. Used for derived files such as previews.
func (s *MediaStore) WriteFile(name string, data []byte) (string, error) {
	if !isPlainName(name) {
		return "", ErrInvalidName
	}
	if err := s.fs.MkdirAll(s.dir, 0o750); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	if err := afero.WriteFile(s.fs, filepath.Join(s.dir, name), data, 0o640); err != nil {
		return "", err
	}
	return s.URL(name), nil
}

// Open opens a stored file for reading.
func (s *MediaStore) Open(name string) (afero.File, error) {
	if !isPlainName(name) {
		return nil, ErrInvalidName
	}
	return s.fs.Open(filepath.Join(s.dir, name))
}

// Remove deletes a stored file. Missing files are not an error.
func (s *MediaStore) Remove(name string) error {
	if !isPlainName(name) {
		return ErrInvalidName
	}
	err := s.fs.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// URL returns the public path of a stored name.
func (s *MediaStore) URL(name string) string {
	return path.Join(s.urlPrefix, name)
}

// FileSystem exposes the upload directory for static serving.
func (s *MediaStore) FileSystem() http.FileSystem {
	return afero.NewHttpFs(s.fs).Dir(s.dir)
}

// GenerateName builds "<unixMillis>_<token>_<base><ext>" from a client file name.
// Directory components are dropped and unsafe characters replaced with "_".
func (s *MediaStore) GenerateName(originalName string) string {
	base := path.Base(strings.ReplaceAll(originalName, "\\", "/"))
	if base == "." || base == "/" {
		base = ""
	}

	ext := path.Ext(base)
	if ext == base {
		ext = ""
	}
	stem := strings.TrimSuffix(base, ext)
	if len(stem) > maxBaseNameLength {
		stem = stem[:maxBaseNameLength]
	}
	if stem == "" {
		stem = "file"
	}

	return fmt.Sprintf("%d_%s_%s%s",
		s.now().UnixMilli(),
		s.token(),
		SanitizeName(stem),
		SanitizeName(ext),
	)
}

// SanitizeName replaces every character outside [A-Za-z0-9_.-] with "_".
func SanitizeName(name string) string {
	return unsafeNameChars.ReplaceAllString(name, "_")
}

func randomToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func isPlainName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`)
}

type prefixBuffer struct {
	buf   []byte
	limit int
}

func (p *prefixBuffer) Write(b []byte) (int, error) {
	if room := p.limit - len(p.buf); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		p.buf = append(p.buf, b[:room]...)
	}
	return len(b), nil
}

func (p *prefixBuffer) Bytes() []byte {
	return p.buf
}
