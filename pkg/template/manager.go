package template

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// Manager holds the set of templates discovered under one directory.
// Each immediate subdirectory is treated as a candidate template package;
// packages that fail to parse are logged and skipped rather than failing
// the whole scan. The resulting collection is ordered by directory name
// and indexable.
type Manager struct {
	dir     string
	layouts []*Layout
}

// NewManager scans dir for template packages and parses each one.
// logger may be nil, in which case scan diagnostics are discarded.
func NewManager(dir string, opts Options, logger *log.Logger) (*Manager, error) {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan template dir: %w", err)
	}

	m := &Manager{dir: dir}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sub := filepath.Join(dir, entry.Name())
		l, err := Parse(sub, opts)
		if err != nil {
			logger.Warn("skipping template", "dir", entry.Name(), "err", err)
			continue
		}
		logger.Debug("loaded template", "dir", entry.Name(), "name", l.Name, "placements", len(l.Placements))
		m.layouts = append(m.layouts, l)
	}
	return m, nil
}

// Dir returns the scanned directory.
func (m *Manager) Dir() string { return m.dir }

// Count returns the number of successfully parsed templates.
func (m *Manager) Count() int { return len(m.layouts) }

// At returns the template at index i in scan order.
func (m *Manager) At(i int) *Layout { return m.layouts[i] }

// Layouts returns the templates in scan order. The returned slice is a
// copy; the Layouts themselves are shared and read-only.
func (m *Manager) Layouts() []*Layout {
	out := make([]*Layout, len(m.layouts))
	copy(out, m.layouts)
	return out
}

// Find returns the first template whose Name matches, if any.
func (m *Manager) Find(name string) (*Layout, bool) {
	for _, l := range m.layouts {
		if l.Name == name {
			return l, true
		}
	}
	return nil, false
}
