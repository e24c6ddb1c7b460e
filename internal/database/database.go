// Package database loads a versioned test database from a directory of YAML
// documents and selects the test suites and cases that cover a set of changed
// source files. Construction performs one eager, recursive resolve pass over
// index.yaml and every referenced suite document; the resulting Database and
// everything it owns are immutable, so concurrent read-only use requires no
// synchronization.
package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/papapumpkin/magnetar/internal/render"
	"github.com/papapumpkin/magnetar/internal/schema"
	"github.com/papapumpkin/magnetar/internal/xmllint"
)

// IndexFile is the document that makes a directory a database.
const IndexFile = "index.yaml"

// Database is a loaded test database: the suites it aggregates and the map
// of tree names to template files, both relative to Dir.
type Database struct {
	Dir    string
	Suites []*Suite
	Trees  map[string]string
}

// IsDir reports whether dir is a valid database directory, which is the case
// iff it contains an index file.
func IsDir(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, IndexFile))
	return err == nil && info.Mode().IsRegular()
}

// indexSchema describes index.yaml. The current shape lists suite document
// paths in order; the legacy shape keyed them by suite name. Legacy indexes
// are migrated by flattening the map to its values, sorted by key so the
// result is deterministic.
func indexSchema() *schema.Node {
	current := schema.StrictStruct(
		[]schema.Field{
			{Name: "schema", Schema: schema.StrictStruct(
				[]schema.Field{{Name: "version", Schema: schema.Int()}},
				nil,
			)},
			{Name: "suites", Schema: schema.List(schema.YAMLFile(suiteClass()))},
			{Name: "trees", Schema: schema.Dict(schema.String())},
		},
		nil,
	)
	legacy := schema.StrictStruct(
		[]schema.Field{
			{Name: "schema", Schema: schema.StrictStruct(
				[]schema.Field{{Name: "version", Schema: schema.Int()}},
				nil,
			)},
			{Name: "suites", Schema: schema.Dict(schema.YAMLFile(suiteClass()))},
			{Name: "trees", Schema: schema.Dict(schema.String())},
		},
		nil,
	)

	migrate := func(old any) any {
		data := old.(map[string]any)
		byName := data["suites"].(map[string]any)
		names := make([]string, 0, len(byName))
		for name := range byName {
			names = append(names, name)
		}
		sort.Strings(names)
		suites := make([]any, 0, len(names))
		for _, name := range names {
			suites = append(suites, byName[name])
		}
		out := make(map[string]any, len(data))
		for k, v := range data {
			out[k] = v
		}
		out["suites"] = suites
		return out
	}

	return schema.ScopedYAMLFile(schema.Ancestry(current, schema.Migration{
		Migrate: migrate,
		Prior:   legacy,
	}))
}

// Load opens the database in dir, resolving index.yaml and every referenced
// suite document. Any I/O or schema failure aborts the load; no partial
// Database is ever returned.
func Load(dir string) (*Database, error) {
	if !IsDir(dir) {
		return nil, fmt.Errorf("%q is not a database directory: no %s", dir, IndexFile)
	}

	m, err := bind("database", indexSchema(), filepath.Join(dir, IndexFile))
	if err != nil {
		return nil, err
	}

	db := &Database{
		Dir:   dir,
		Trees: make(map[string]string),
	}
	for _, item := range required[[]any](m, "database", "suites") {
		db.Suites = append(db.Suites, item.(*Suite))
	}
	for name, path := range required[map[string]any](m, "database", "trees") {
		db.Trees[name] = path.(string)
	}
	return db, nil
}

// MatchSuiteSet returns the suites responsible for testing any of the given
// source paths, in database order. An empty path set selects every suite.
func (db *Database) MatchSuiteSet(paths []string) []*Suite {
	var out []*Suite
	for _, s := range db.Suites {
		if s.Matches(paths) {
			out = append(out, s)
		}
	}
	return out
}

// MatchCaseSet returns the union over all suites of the cases responsible
// for testing any of the given source paths. An empty path set selects every
// case of every suite.
func (db *Database) MatchCaseSet(paths []string) []*Case {
	var out []*Case
	for _, s := range db.Suites {
		out = append(out, s.MatchCaseSet(paths)...)
	}
	return out
}

// RunParams are the inputs to GenerateRun.
type RunParams struct {
	Description    string
	Tree           string
	Arch           string
	KernelLocation string
	SourcePaths    []string
	Lint           bool
}

// GenerateRun renders the tree's template with the run parameters and the
// full suite set, returning the run description text. The tree must be a
// known key of Trees: tree names come from a fixed operator-known set, so
// an unknown one here is a violated precondition, not an input error;
// callers validate user-supplied tree names before calling. When Lint is
// set the rendered text is reformatted as canonical XML and the whole
// operation fails if it is not well-formed.
func (db *Database) GenerateRun(p RunParams) (string, error) {
	templateFile, ok := db.Trees[p.Tree]
	if !ok {
		panic(fmt.Sprintf("database: unknown tree %q", p.Tree))
	}

	ctx := &render.Context{
		DESCRIPTION:  p.Description,
		KURL:         p.KernelLocation,
		ARCH:         p.Arch,
		TREE:         p.Tree,
		SRC_PATH_SET: p.SourcePaths,
		SUITE_SET:    anySlice(db.Suites),
	}
	funcs := map[string]any{
		"match_suite_set": func(paths []string) []*Suite { return db.MatchSuiteSet(paths) },
		"match_case_set":  func(paths []string) []*Case { return db.MatchCaseSet(paths) },
		"getenv": func(key string) any {
			if v, ok := os.LookupEnv(key); ok {
				return v
			}
			return nil
		},
	}

	env := render.Environment{Root: db.Dir}
	text, err := env.Render(templateFile, funcs, ctx)
	if err != nil {
		return "", fmt.Errorf("rendering tree %q: %w", p.Tree, err)
	}

	if p.Lint {
		text, err = xmllint.Format(text)
		if err != nil {
			return "", fmt.Errorf("linting rendered run for tree %q: %w", p.Tree, err)
		}
	}
	return text, nil
}

// anySlice erases the suite slice's element type so templates can range over
// SUITE_SET without the render package importing this one.
func anySlice(suites []*Suite) []any {
	out := make([]any, len(suites))
	for i, s := range suites {
		out[i] = s
	}
	return out
}
