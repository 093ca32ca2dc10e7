package selector

import (
	"errors"
	"io"
	"os"
	"path"
	"strings"

	"github.com/src-d/enry/v2"
)

// Skip reasons reported by Filter.
const (
	reasonMissing    = "missing"
	reasonIrregular  = "not a regular file"
	reasonExcluded   = "excluded"
	reasonVendor     = "vendored"
	reasonTooLarge   = "too large"
	reasonBinary     = "binary"
	reasonUnreadable = "unreadable"
)

// Filter applies the per-file eligibility rules.
type Filter struct {
	cfg Config
}

// NewFilter creates a Filter.
func NewFilter(cfg Config) *Filter {
	return &Filter{cfg: cfg}
}

// SkipDir reports whether a directory and everything below it is filtered by path alone.
func (f *Filter) SkipDir(rel string) bool {
	if f.cfg.SkipVendor && enry.IsVendor(rel+"/") {
		return true
	}

	return f.excluded(rel)
}

// Accept reports whether the file is scanned. The reason is empty when accepted.
func (f *Filter) Accept(rel, abs string) (bool, string) {
	info, err := os.Lstat(abs)
	if err != nil {
		return false, reasonMissing
	}

	if !info.Mode().IsRegular() {
		return false, reasonIrregular
	}

	if f.excluded(rel) {
		return false, reasonExcluded
	}

	if f.cfg.SkipVendor && enry.IsVendor(rel) {
		return false, reasonVendor
	}

	if f.cfg.MaxFileSize > 0 && info.Size() > f.cfg.MaxFileSize {
		return false, reasonTooLarge
	}

	text, err := IsText(abs, f.cfg.sniffBytes())
	if err != nil {
		return false, reasonUnreadable
	}

	if !text {
		return false, reasonBinary
	}

	return true, ""
}

func (f *Filter) excluded(rel string) bool {
	if len(f.cfg.Exclude) == 0 {
		return false
	}

	for p := rel; p != "." && p != "/" && p != ""; p = path.Dir(p) {
		for _, glob := range f.cfg.Exclude {
			if ok, _ := path.Match(glob, p); ok {
				return true
			}

			if ok, _ := path.Match(glob, path.Base(p)); ok && !strings.Contains(glob, "/") {
				return true
			}
		}
	}

	return false
}

// IsText reads up to sniff bytes of the file and reports whether they look like text.
func IsText(abs string, sniff int) (bool, error) {
	file, err := os.Open(abs)
	if err != nil {
		return false, err
	}
	defer file.Close()

	buf := make([]byte, sniff)

	n, err := io.ReadFull(file, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}

	return !enry.IsBinary(buf[:n]), nil
}
