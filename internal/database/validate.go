package database

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
)

// Audit runs a deep consistency check over a loaded database, collecting
// every finding instead of stopping at the first. Findings the data model
// tolerates (dangling pattern case names, duplicate case names) come back
// as warnings; problems that would break run generation,
// such as an unreadable tree template, are aggregated into the returned
// error.
func (db *Database) Audit() (warnings []string, err error) {
	for i, s := range db.Suites {
		names := make(map[string]bool, len(s.Cases))
		for _, c := range s.Cases {
			if names[c.Name] {
				warnings = append(warnings, fmt.Sprintf(
					"suite %d (%s): duplicate case name %q; lookups use the first declaration",
					i, s.Description, c.Name))
			}
			names[c.Name] = true
		}
		for j, p := range s.Patterns {
			if s.GetCase(p.CaseName) == nil {
				warnings = append(warnings, fmt.Sprintf(
					"suite %d (%s): pattern %d names unknown case %q and selects nothing",
					i, s.Description, j, p.CaseName))
			}
		}
	}

	for tree, templateFile := range db.Trees {
		path := templateFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(db.Dir, path)
		}
		info, statErr := os.Stat(path)
		switch {
		case statErr != nil:
			err = multierr.Append(err, fmt.Errorf("tree %q: template %s: %w", tree, templateFile, statErr))
		case !info.Mode().IsRegular():
			err = multierr.Append(err, fmt.Errorf("tree %q: template %s is not a regular file", tree, templateFile))
		}
	}

	return warnings, err
}
