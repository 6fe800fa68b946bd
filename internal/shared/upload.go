package shared

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/gabriel-vasile/mimetype"
)

// Upload is a script file that passed [ValidateUpload].
type Upload struct {
	Path     string
	Name     string
	MIMEType string
	Size     int64
}

// ValidateUpload checks a script file before it is sent for formatting.
//
// The content type is detected from the file's bytes, not its extension.
// allowed holds MIME types without parameters; an empty list accepts anything.
func ValidateUpload(path string, maxBytes int64, allowed []string) (*Upload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidInput, path)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrFileTooLarge, filepath.Base(path), info.Size(), maxBytes)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if len(allowed) > 0 && !mimeAllowed(mt, allowed) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, mt.String())
	}

	return &Upload{
		Path:     path,
		Name:     filepath.Base(path),
		MIMEType: mt.String(),
		Size:     info.Size(),
	}, nil
}

// mimeAllowed walks the detected type's parents, so text subtypes such as text/csv count as text/plain.
func mimeAllowed(mt *mimetype.MIME, allowed []string) bool {
	for m := mt; m != nil; m = m.Parent() {
		if slices.ContainsFunc(allowed, m.Is) {
			return true
		}
	}
	return false
}
