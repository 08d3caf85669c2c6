// Package lists loads the inclusion and exclusion list files.
package lists

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/linkrank/internal/domain"
	"github.com/kailas-cloud/linkrank/internal/domain/linkfilter"
)

// Repo reads list files from disk on every Load, so edits apply without a restart.
type Repo struct {
	exclusionPath string
	inclusionPath string
}

// New creates a list repository.
func New(exclusionPath, inclusionPath string) *Repo {
	return &Repo{exclusionPath: exclusionPath, inclusionPath: inclusionPath}
}

// Load reads both lists. A missing file yields an empty list and a
// ListNotFoundError; the other list is still returned.
func (r *Repo) Load() (linkfilter.Lists, error) {
	var out linkfilter.Lists
	var errs []error

	excl, err := ReadFile(r.exclusionPath)
	if err != nil {
		errs = append(errs, err)
	}
	out.Exclusion = excl

	incl, err := ReadFile(r.inclusionPath)
	if err != nil {
		errs = append(errs, err)
	}
	out.Inclusion = incl

	return out, errors.Join(errs...)
}

// ReadFile reads one list file.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.NewListNotFound(path, err)
		}
		return nil, fmt.Errorf("open list %s: %w", path, err)
	}
	defer f.Close()

	entries, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("read list %s: %w", path, err)
	}
	return entries, nil
}

// Parse returns one entry per line, skipping blank lines and '#' comments.
func Parse(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err //nolint:wrapcheck // wrapped by caller
	}
	return out, nil
}
