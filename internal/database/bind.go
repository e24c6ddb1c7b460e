package database

import (
	"fmt"

	"github.com/papapumpkin/magnetar/internal/schema"
)

// bind resolves raw data through s and re-validates the result against the
// recognized struct shape. Resolution failures are user errors and come back
// as a single InvalidDataError naming the entity, hiding nested detail from
// callers above the boundary. Everything after a successful resolve is under
// the schema engine's own contract: a non-struct recognized shape, a failed
// re-validation or a missing required field all indicate a bug in the
// schema/binder pairing and panic.
func bind(entity string, s *schema.Node, raw any) (map[string]any, error) {
	data, err := s.Resolve(raw)
	if err != nil {
		return nil, &schema.InvalidDataError{Msg: "invalid " + entity + " data", Err: err}
	}

	st := s.Recognize()
	if st == nil || st.Kind != schema.KindStruct {
		panic(fmt.Sprintf("database: %s schema does not recognize to a struct", entity))
	}
	if err := st.Validate(data); err != nil {
		panic(fmt.Sprintf("database: resolved %s data is invalid: %v", entity, err))
	}

	m, ok := data.(map[string]any)
	if !ok {
		panic(fmt.Sprintf("database: resolved %s data is %T, not a mapping", entity, data))
	}
	return m, nil
}

// required extracts a required field from bound data. The resolver guarantees
// required fields are present and typed; absence or a type mismatch here is
// an internal inconsistency.
func required[T any](m map[string]any, entity, field string) T {
	v, ok := m[field]
	if !ok {
		panic(fmt.Sprintf("database: resolved %s data lacks required field %q", entity, field))
	}
	t, ok := v.(T)
	if !ok {
		panic(fmt.Sprintf("database: %s field %q holds %T", entity, field, v))
	}
	return t
}

// optional extracts an optional field from bound data, returning nil when the
// field is absent.
func optional[T any](m map[string]any, entity, field string) *T {
	v, ok := m[field]
	if !ok {
		return nil
	}
	t, ok := v.(T)
	if !ok {
		panic(fmt.Sprintf("database: %s field %q holds %T", entity, field, v))
	}
	return &t
}
