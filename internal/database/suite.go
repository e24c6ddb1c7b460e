package database

import (
	"regexp"

	"github.com/papapumpkin/magnetar/internal/schema"
)

// Pattern maps source paths matching a compiled regular expression to a test
// case by name. Patterns are evaluated in declaration order; a pattern naming
// a case absent from the suite is inert rather than an error, so authors can
// stage pattern additions ahead of case additions.
type Pattern struct {
	Regex    *regexp.Regexp
	CaseName string
}

// Suite is a named group of test cases plus the path-pattern rules that
// select among them. The optional fields are suite-level defaults that
// templates may consult when a case omits them; the data layer does not
// propagate them onto cases. A Suite is owned exclusively by its Database
// and is immutable after construction.
type Suite struct {
	Description string
	Version     string
	Patterns    []Pattern
	Cases       []*Case

	Tasks        *string
	IgnorePanic  *bool
	HostRequires *string
	Partitions   *string
	Kickstart    *string
}

func suiteStruct() *schema.Node {
	return schema.StrictStruct(
		[]schema.Field{
			{Name: "description", Schema: schema.String()},
			{Name: "version", Schema: schema.String()},
			{Name: "patterns", Schema: schema.List(schema.StrictStruct(
				[]schema.Field{
					{Name: "pattern", Schema: schema.Regex()},
					{Name: "case_name", Schema: schema.String()},
				},
				nil,
			))},
			{Name: "cases", Schema: schema.List(caseClass())},
		},
		[]schema.Field{
			{Name: "tasks", Schema: schema.String()},
			{Name: "ignore_panic", Schema: schema.Boolean()},
			{Name: "hostRequires", Schema: schema.String()},
			{Name: "partitions", Schema: schema.String()},
			{Name: "kickstart", Schema: schema.String()},
		},
	)
}

func suiteClass() *schema.Node {
	return schema.Class("suite", suiteStruct(),
		func(v any) bool { _, ok := v.(*Suite); return ok },
		func(raw any) (any, error) {
			s, err := NewSuite(raw)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
	)
}

// NewSuite binds raw suite data into a Suite record.
func NewSuite(raw any) (*Suite, error) {
	m, err := bind("suite", suiteStruct(), raw)
	if err != nil {
		return nil, err
	}

	s := &Suite{
		Description:  required[string](m, "suite", "description"),
		Version:      required[string](m, "suite", "version"),
		Tasks:        optional[string](m, "suite", "tasks"),
		IgnorePanic:  optional[bool](m, "suite", "ignore_panic"),
		HostRequires: optional[string](m, "suite", "hostRequires"),
		Partitions:   optional[string](m, "suite", "partitions"),
		Kickstart:    optional[string](m, "suite", "kickstart"),
	}

	for _, item := range required[[]any](m, "suite", "patterns") {
		pm := item.(map[string]any)
		s.Patterns = append(s.Patterns, Pattern{
			Regex:    pm["pattern"].(*regexp.Regexp),
			CaseName: pm["case_name"].(string),
		})
	}
	for _, item := range required[[]any](m, "suite", "cases") {
		s.Cases = append(s.Cases, item.(*Case))
	}
	return s, nil
}

// GetCase returns the first case in declaration order with the given name,
// or nil if the suite has no such case. Declaration order is the tie-break
// when duplicate names exist.
func (s *Suite) GetCase(name string) *Case {
	for _, c := range s.Cases {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// MatchCaseSet returns the cases responsible for testing any of the given
// source paths. An empty path set selects every case in the suite. The
// result is deduplicated by case identity and ordered by first match.
func (s *Suite) MatchCaseSet(paths []string) []*Case {
	if len(paths) == 0 {
		out := make([]*Case, len(s.Cases))
		copy(out, s.Cases)
		return out
	}

	var out []*Case
	seen := make(map[*Case]bool)
	for _, p := range s.Patterns {
		for _, path := range paths {
			if !p.Regex.MatchString(path) {
				continue
			}
			c := s.GetCase(p.CaseName)
			if c == nil || seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// Matches reports whether the suite is responsible for testing any of the
// given source paths.
func (s *Suite) Matches(paths []string) bool {
	return len(s.MatchCaseSet(paths)) > 0
}
