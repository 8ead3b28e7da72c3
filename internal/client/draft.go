// Package client is a Go client for the fileshare API, including the
// deduplicating post draft used by the CLI.
package client

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// FileKey identifies a selected file by name, size and modification time (Unix milliseconds).
type FileKey struct {
	Name    string
	Size    int64
	ModTime int64
}

// DraftFile is a file selected for the next post.
type DraftFile struct {
	Key  FileKey
	Open func() (io.ReadCloser, error)
}

// Draft holds the text and the deduplicated file set of a post being composed.
type Draft struct {
	Text  string
	files map[FileKey]DraftFile
	order []FileKey
}

// NewDraft returns an empty draft.
func NewDraft() *Draft {
	return &Draft{files: make(map[FileKey]DraftFile)}
}

// AddFile adds f unless a file with the same key is already selected.
// It reports whether the file was added.
func (d *Draft) AddFile(f DraftFile) bool {
	if d.files == nil {
		d.files = make(map[FileKey]DraftFile)
	}
	if _, dup := d.files[f.Key]; dup {
		return false
	}
	d.files[f.Key] = f
	d.order = append(d.order, f.Key)
	return true
}

// AddPath selects a file from fs.
func (d *Draft) AddPath(fs afero.Fs, path string) (bool, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, fmt.Errorf("%s is a directory", path)
	}

	return d.AddFile(DraftFile{
		Key: FileKey{
			Name:    filepath.Base(path),
			Size:    info.Size(),
			ModTime: info.ModTime().UnixMilli(),
		},
		Open: func() (io.ReadCloser, error) {
			return fs.Open(path)
		},
	}), nil
}

// Remove deselects a file.
func (d *Draft) Remove(key FileKey) {
	if _, ok := d.files[key]; !ok {
		return
	}
	delete(d.files, key)
	for i, k := range d.order {
		if k == key {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// Files returns the selected files in selection order.
func (d *Draft) Files() []DraftFile {
	out := make([]DraftFile, 0, len(d.order))
	for _, k := range d.order {
		out = append(out, d.files[k])
	}
	return out
}

// Len returns the number of selected files.
func (d *Draft) Len() int {
	return len(d.order)
}

// Empty reports whether the draft has neither text nor files.
func (d *Draft) Empty() bool {
	return strings.TrimSpace(d.Text) == "" && len(d.order) == 0
}

// Reset clears the text and the file set.
func (d *Draft) Reset() {
	d.Text = ""
	d.files = make(map[FileKey]DraftFile)
	d.order = nil
}
