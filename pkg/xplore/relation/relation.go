// Package relation partitions linkbase files into relationship kinds by
// file name.
package relation

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
)

// Kind is a relationship linkbase kind.
type Kind int

const (
	Presentation Kind = iota
	Definition
	Calculation
)

// Kinds lists every kind in classification precedence order.
var Kinds = []Kind{Presentation, Definition, Calculation}

func (k Kind) String() string {
	switch k {
	case Presentation:
		return "presentation"
	case Definition:
		return "definition"
	case Calculation:
		return "calculation"
	default:
		return "unknown"
	}
}

// Markers are the file-name substrings identifying each kind.
type Markers struct {
	Presentation string `yaml:"presentation"`
	Definition   string `yaml:"definition"`
	Calculation  string `yaml:"calculation"`
}

// DefaultMarkers returns the markers used by EDINET-style taxonomies.
func DefaultMarkers() Markers {
	return Markers{
		Presentation: "_pre_",
		Definition:   "_def_",
		Calculation:  "_cal_",
	}
}

// Of returns the marker of kind k.
func (m Markers) Of(k Kind) string {
	switch k {
	case Presentation:
		return m.Presentation
	case Definition:
		return m.Definition
	case Calculation:
		return m.Calculation
	}
	return ""
}

// Files holds classified file paths per kind, each list sorted.
type Files struct {
	Presentation []string
	Definition   []string
	Calculation  []string
}

// Of returns the files of kind k.
func (f Files) Of(k Kind) []string {
	switch k {
	case Presentation:
		return f.Presentation
	case Definition:
		return f.Definition
	case Calculation:
		return f.Calculation
	}
	return nil
}

// Len returns the total number of classified files.
func (f Files) Len() int {
	return len(f.Presentation) + len(f.Definition) + len(f.Calculation)
}

// Classifier assigns files to relationship kinds.
type Classifier struct {
	markers Markers
	logger  *slog.Logger
}

// NewClassifier creates a Classifier. A nil logger uses slog.Default().
func NewClassifier(markers Markers, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{markers: markers, logger: logger}
}

// Classify returns the kind of the file called name. When a name
// contains several markers, presentation wins over definition, which
// wins over calculation.
func (c *Classifier) Classify(name string) (Kind, bool) {
	for _, k := range Kinds {
		if m := c.markers.Of(k); m != "" && strings.Contains(name, m) {
			return k, true
		}
	}
	return 0, false
}

// Walk classifies every file under root. Entries that cannot be read
// are skipped; a missing root yields no files.
func (c *Classifier) Walk(root string) Files {
	var files Files
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			c.logger.Debug("skipping inaccessible path", "path", path, "err", err)
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		kind, ok := c.Classify(d.Name())
		if !ok {
			return nil
		}
		switch kind {
		case Presentation:
			files.Presentation = append(files.Presentation, path)
		case Definition:
			files.Definition = append(files.Definition, path)
		case Calculation:
			files.Calculation = append(files.Calculation, path)
		}
		return nil
	})

	sort.Strings(files.Presentation)
	sort.Strings(files.Definition)
	sort.Strings(files.Calculation)

	c.logger.Info("relationship files classified",
		"root", root,
		"presentation", len(files.Presentation),
		"definition", len(files.Definition),
		"calculation", len(files.Calculation),
	)
	return files
}
