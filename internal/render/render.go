// Package render turns a tree template plus run parameters into the final
// run description text. Templates are plain Go templates resolved relative
// to the database root; files with an .xml extension render through
// html/template so interpolated values are escaped for markup, everything
// else renders through text/template verbatim.
package render

import (
	"fmt"
	htmltemplate "html/template"
	"os"
	"path/filepath"
	"strings"
	texttemplate "text/template"
)

// Context is the fixed binding set a tree template receives. The field names
// mirror the template contract, which predates this implementation, so they
// keep their document-facing spelling. SRC_PATH_SET may be empty, which
// templates must treat as "include everything"; SUITE_SET always holds the
// complete suite set, unfiltered, so template logic can perform the match
// itself via the match_suite_set and match_case_set functions.
type Context struct {
	DESCRIPTION  string
	KURL         string
	ARCH         string
	TREE         string
	SRC_PATH_SET []string
	SUITE_SET    []any
}

// Environment renders templates from a root directory.
type Environment struct {
	Root string
}

// Render loads the named template file, installs funcs, and executes it with
// data. A missing template file, a parse error or an execution error is
// fatal to the current render; no partial output is returned.
func (e Environment) Render(name string, funcs map[string]any, data any) (string, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.Root, path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading template %s: %w", name, err)
	}

	var out strings.Builder
	if strings.EqualFold(filepath.Ext(name), ".xml") {
		t, err := htmltemplate.New(name).
			Funcs(htmltemplate.FuncMap(funcs)).
			Option("missingkey=error").
			Parse(string(raw))
		if err != nil {
			return "", fmt.Errorf("parsing template %s: %w", name, err)
		}
		if err := t.Execute(&out, data); err != nil {
			return "", fmt.Errorf("executing template %s: %w", name, err)
		}
	} else {
		t, err := texttemplate.New(name).
			Funcs(texttemplate.FuncMap(funcs)).
			Option("missingkey=error").
			Parse(string(raw))
		if err != nil {
			return "", fmt.Errorf("parsing template %s: %w", name, err)
		}
		if err := t.Execute(&out, data); err != nil {
			return "", fmt.Errorf("executing template %s: %w", name, err)
		}
	}
	return out.String(), nil
}
