package database

import "github.com/papapumpkin/magnetar/internal/schema"

// Case is a single named unit of test work. Optional fields are execution
// hints for the rendered run description; a nil pointer means the field was
// absent from the suite document. A Case is owned exclusively by its Suite
// and is immutable after construction.
type Case struct {
	Name         string
	IgnorePanic  *bool
	HostRequires *string
	Partitions   *string
	Kickstart    *string
	Tasks        *string
}

func caseStruct() *schema.Node {
	return schema.Struct(
		[]schema.Field{
			{Name: "name", Schema: schema.String()},
		},
		[]schema.Field{
			{Name: "ignore_panic", Schema: schema.Boolean()},
			{Name: "hostRequires", Schema: schema.String()},
			{Name: "partitions", Schema: schema.String()},
			{Name: "kickstart", Schema: schema.String()},
			{Name: "tasks", Schema: schema.String()},
		},
	)
}

// caseClass wraps the case schema so suite documents bind list elements
// straight into *Case records.
func caseClass() *schema.Node {
	return schema.Class("case", caseStruct(),
		func(v any) bool { _, ok := v.(*Case); return ok },
		func(raw any) (any, error) {
			c, err := NewCase(raw)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	)
}

// NewCase binds raw case data into a Case record.
func NewCase(raw any) (*Case, error) {
	m, err := bind("case", caseStruct(), raw)
	if err != nil {
		return nil, err
	}
	return &Case{
		Name:         required[string](m, "case", "name"),
		IgnorePanic:  optional[bool](m, "case", "ignore_panic"),
		HostRequires: optional[string](m, "case", "hostRequires"),
		Partitions:   optional[string](m, "case", "partitions"),
		Kickstart:    optional[string](m, "case", "kickstart"),
		Tasks:        optional[string](m, "case", "tasks"),
	}, nil
}
