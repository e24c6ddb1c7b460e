// Package schema validates, resolves and migrates heterogeneous nested data
// loaded from YAML documents. A schema is a closed tree of Node variants
// (scalars, structs, lists, dicts, file references and typed-record wrappers)
// dispatched by kind. Resolving turns raw, possibly abbreviated input into a
// canonical in-memory value: scalars are coerced to their declared kind,
// referenced sub-documents are loaded and recursively resolved, and optional
// struct fields are left absent rather than defaulted. Resolving a value that
// is already canonical is a no-op, which is what allows migrated legacy data
// to be passed back through the current schema (see Ancestry).
package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Kind discriminates the closed set of Node variants.
type Kind int

const (
	KindInt Kind = iota
	KindString
	KindBoolean
	KindRegex
	KindStruct
	KindList
	KindDict
	KindYAMLFile
	KindScopedYAMLFile
	KindClass
	KindAncestry
)

// Field is one named member of a Struct node. Fields are kept in declaration
// order so that resolution and error reporting are deterministic.
type Field struct {
	Name   string
	Schema *Node
}

// Node describes one shape of data. Which members are meaningful depends on
// Kind; the constructor functions below are the only supported way to build
// nodes.
type Node struct {
	Kind Kind

	// Struct members.
	Required []Field
	Optional []Field
	Strict   bool

	// List element or Dict value schema.
	Elem *Node

	// Wrapped schema for YAMLFile, ScopedYAMLFile, Class and Ancestry
	// (for Ancestry this is the current schema).
	Inner *Node

	// Class members: Name identifies the bound record type in error
	// messages, Is reports whether a value is already a bound instance,
	// and New constructs one from raw data.
	Name string
	Is   func(v any) bool
	New  func(raw any) (any, error)

	// Ancestry prior schemas with their migration functions, tried in order.
	Priors []Migration
}

// Int returns a schema accepting integer scalars.
func Int() *Node { return &Node{Kind: KindInt} }

// String returns a schema accepting string scalars.
func String() *Node { return &Node{Kind: KindString} }

// Boolean returns a schema accepting boolean scalars.
func Boolean() *Node { return &Node{Kind: KindBoolean} }

// Regex returns a schema accepting regular expression strings. The resolved
// value is a compiled *regexp.Regexp anchored at the start of its input,
// matching the selection semantics of pattern lists.
func Regex() *Node { return &Node{Kind: KindRegex} }

// Struct returns a schema for an ordered struct with the given required and
// optional fields. Unrecognized input keys are ignored.
func Struct(required, optional []Field) *Node {
	checkDisjoint(required, optional)
	return &Node{Kind: KindStruct, Required: required, Optional: optional}
}

// StrictStruct is Struct with unrecognized input keys rejected instead of
// ignored.
func StrictStruct(required, optional []Field) *Node {
	n := Struct(required, optional)
	n.Strict = true
	return n
}

// List returns a schema for a homogeneous sequence of elem values.
func List(elem *Node) *Node { return &Node{Kind: KindList, Elem: elem} }

// Dict returns a schema for a homogeneous string-keyed map of value values.
func Dict(value *Node) *Node { return &Node{Kind: KindDict, Elem: value} }

// YAMLFile returns a schema accepting a path to a YAML file whose decoded
// contents resolve against inner. Relative paths are resolved against the
// scope directory established by the nearest enclosing ScopedYAMLFile.
func YAMLFile(inner *Node) *Node { return &Node{Kind: KindYAMLFile, Inner: inner} }

// ScopedYAMLFile is YAMLFile, but the loaded file's directory becomes the
// scope for relative paths inside the document.
func ScopedYAMLFile(inner *Node) *Node { return &Node{Kind: KindScopedYAMLFile, Inner: inner} }

// Class returns a schema that binds data resolved by inner into a typed
// record. is reports whether a value is already an instance of the record
// type (such values pass through resolve untouched); construct builds an
// instance from raw data, typically via the entity's constructor.
func Class(name string, inner *Node, is func(v any) bool, construct func(raw any) (any, error)) *Node {
	return &Node{Kind: KindClass, Name: name, Inner: inner, Is: is, New: construct}
}

func checkDisjoint(required, optional []Field) {
	seen := make(map[string]bool, len(required))
	for _, f := range required {
		seen[f.Name] = true
	}
	for _, f := range optional {
		if seen[f.Name] {
			panic(fmt.Sprintf("schema: field %q declared both required and optional", f.Name))
		}
	}
}

// Resolve turns raw input into this schema's canonical value. It fails with
// an InvalidDataError when the input cannot be coerced into any recognized
// shape. Relative file references are resolved against the process working
// directory until a ScopedYAMLFile establishes a scope.
func (n *Node) Resolve(raw any) (any, error) {
	return n.resolve("", raw)
}

func (n *Node) resolve(scope string, raw any) (any, error) {
	switch n.Kind {
	case KindInt:
		switch v := raw.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		}
		return nil, invalidf("expected an integer, got %T", raw)

	case KindString:
		if s, ok := raw.(string); ok {
			return s, nil
		}
		return nil, invalidf("expected a string, got %T", raw)

	case KindBoolean:
		if b, ok := raw.(bool); ok {
			return b, nil
		}
		return nil, invalidf("expected a boolean, got %T", raw)

	case KindRegex:
		switch v := raw.(type) {
		case *regexp.Regexp:
			return v, nil
		case string:
			re, err := regexp.Compile(`\A(?:` + v + `)`)
			if err != nil {
				return nil, invalidf("invalid regular expression %q: %v", v, err)
			}
			return re, nil
		}
		return nil, invalidf("expected a regular expression string, got %T", raw)

	case KindStruct:
		return n.resolveStruct(scope, raw)

	case KindList:
		items, ok := raw.([]any)
		if !ok {
			return nil, invalidf("expected a sequence, got %T", raw)
		}
		out := make([]any, 0, len(items))
		for i, item := range items {
			v, err := n.Elem.resolve(scope, item)
			if err != nil {
				return nil, at(fmt.Sprintf("[%d]", i), err)
			}
			out = append(out, v)
		}
		return out, nil

	case KindDict:
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, invalidf("expected a mapping, got %T", raw)
		}
		out := make(map[string]any, len(m))
		for key, val := range m {
			v, err := n.Elem.resolve(scope, val)
			if err != nil {
				return nil, at(key, err)
			}
			out[key] = v
		}
		return out, nil

	case KindYAMLFile, KindScopedYAMLFile:
		return n.resolveFile(scope, raw)

	case KindClass:
		if n.Is(raw) {
			return raw, nil
		}
		v, err := n.New(raw)
		if err != nil {
			return nil, err
		}
		return v, nil

	case KindAncestry:
		return n.resolveAncestry(scope, raw)
	}
	panic(fmt.Sprintf("schema: unknown node kind %d", n.Kind))
}

// resolveStruct resolves a mapping against required and optional fields.
// A bare non-mapping value stands in for a one-required-field struct: the
// mapping shape is tried first, then the shorthand, and the first shape that
// resolves wins.
func (n *Node) resolveStruct(scope string, raw any) (any, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		if len(n.Required) == 1 {
			v, err := n.Required[0].Schema.resolve(scope, raw)
			if err != nil {
				return nil, at(n.Required[0].Name, err)
			}
			return map[string]any{n.Required[0].Name: v}, nil
		}
		return nil, invalidf("expected a mapping, got %T", raw)
	}

	if n.Strict {
		for key := range m {
			if n.field(key) == nil {
				return nil, invalidf("unrecognized key %q", key)
			}
		}
	}

	out := make(map[string]any, len(n.Required)+len(n.Optional))
	for _, f := range n.Required {
		v, ok := m[f.Name]
		if !ok {
			return nil, invalidf("missing required field %q", f.Name)
		}
		resolved, err := f.Schema.resolve(scope, v)
		if err != nil {
			return nil, at(f.Name, err)
		}
		out[f.Name] = resolved
	}
	for _, f := range n.Optional {
		v, ok := m[f.Name]
		if !ok {
			continue
		}
		resolved, err := f.Schema.resolve(scope, v)
		if err != nil {
			return nil, at(f.Name, err)
		}
		out[f.Name] = resolved
	}
	return out, nil
}

// resolveFile loads a referenced YAML document and resolves its contents.
// Already-resolved values pass through to the inner schema unchanged, so
// re-resolving canonical data does not attempt file I/O.
func (n *Node) resolveFile(scope string, raw any) (any, error) {
	path, ok := raw.(string)
	if !ok {
		return n.Inner.resolve(scope, raw)
	}
	if !filepath.IsAbs(path) && scope != "" {
		path = filepath.Join(scope, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, invalidf("cannot read %s: %v", path, err)
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, invalidf("cannot parse %s: %v", path, err)
	}
	inner := scope
	if n.Kind == KindScopedYAMLFile {
		inner = filepath.Dir(path)
	}
	v, err := n.Inner.resolve(inner, doc)
	if err != nil {
		return nil, at(filepath.Base(path), err)
	}
	return v, nil
}

// field returns the schema for a declared field name, or nil.
func (n *Node) field(name string) *Node {
	for _, f := range n.Required {
		if f.Name == name {
			return f.Schema
		}
	}
	for _, f := range n.Optional {
		if f.Name == name {
			return f.Schema
		}
	}
	return nil
}

// Recognize returns the canonical Struct node describing the data a resolve
// through this schema ultimately produces, unwrapping file, class and
// ancestry layers. It returns nil when the schema does not produce a struct.
func (n *Node) Recognize() *Node {
	switch n.Kind {
	case KindStruct:
		return n
	case KindYAMLFile, KindScopedYAMLFile, KindClass, KindAncestry:
		return n.Inner.Recognize()
	}
	return nil
}

// Validate re-checks an already-resolved value against this schema. It is an
// independent second pass used after binder construction to catch
// resolver/binder inconsistencies, and fails with an InvalidDataError
// carrying the document path of the mismatch.
func (n *Node) Validate(v any) error {
	switch n.Kind {
	case KindInt:
		if _, ok := v.(int); !ok {
			return invalidf("expected a resolved integer, got %T", v)
		}
	case KindString:
		if _, ok := v.(string); !ok {
			return invalidf("expected a resolved string, got %T", v)
		}
	case KindBoolean:
		if _, ok := v.(bool); !ok {
			return invalidf("expected a resolved boolean, got %T", v)
		}
	case KindRegex:
		if _, ok := v.(*regexp.Regexp); !ok {
			return invalidf("expected a compiled regular expression, got %T", v)
		}
	case KindStruct:
		m, ok := v.(map[string]any)
		if !ok {
			return invalidf("expected a resolved mapping, got %T", v)
		}
		for _, f := range n.Required {
			fv, ok := m[f.Name]
			if !ok {
				return invalidf("missing required field %q", f.Name)
			}
			if err := f.Schema.Validate(fv); err != nil {
				return at(f.Name, err)
			}
		}
		for _, f := range n.Optional {
			fv, ok := m[f.Name]
			if !ok {
				continue
			}
			if err := f.Schema.Validate(fv); err != nil {
				return at(f.Name, err)
			}
		}
		for key := range m {
			if n.field(key) == nil {
				return invalidf("unrecognized key %q", key)
			}
		}
	case KindList:
		items, ok := v.([]any)
		if !ok {
			return invalidf("expected a resolved sequence, got %T", v)
		}
		for i, item := range items {
			if err := n.Elem.Validate(item); err != nil {
				return at(fmt.Sprintf("[%d]", i), err)
			}
		}
	case KindDict:
		m, ok := v.(map[string]any)
		if !ok {
			return invalidf("expected a resolved mapping, got %T", v)
		}
		for key, val := range m {
			if err := n.Elem.Validate(val); err != nil {
				return at(key, err)
			}
		}
	case KindClass:
		if !n.Is(v) {
			return invalidf("expected a bound %s record, got %T", n.Name, v)
		}
	case KindYAMLFile, KindScopedYAMLFile, KindAncestry:
		return n.Inner.Validate(v)
	default:
		panic(fmt.Sprintf("schema: unknown node kind %d", n.Kind))
	}
	return nil
}
