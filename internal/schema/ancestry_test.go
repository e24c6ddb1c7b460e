package schema

import (
	"reflect"
	"sort"
	"strings"
	"testing"
)

// listShape is the current generation: items as an ordered sequence.
// mapShape is the legacy generation: items keyed by name. The migration
// flattens the map into a key-sorted list.
func generations() *Node {
	current := StrictStruct(
		[]Field{{Name: "items", Schema: List(String())}},
		nil,
	)
	legacy := StrictStruct(
		[]Field{{Name: "items", Schema: Dict(String())}},
		nil,
	)
	migrate := func(old any) any {
		m := old.(map[string]any)
		byName := m["items"].(map[string]any)
		keys := make([]string, 0, len(byName))
		for k := range byName {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		items := make([]any, 0, len(keys))
		for _, k := range keys {
			items = append(items, byName[k])
		}
		return map[string]any{"items": items}
	}
	return Ancestry(current, Migration{Migrate: migrate, Prior: legacy})
}

func TestAncestryCurrentData(t *testing.T) {
	t.Parallel()

	v, err := generations().Resolve(map[string]any{"items": []any{"a", "b"}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := map[string]any{"items": []any{"a", "b"}}
	if !reflect.DeepEqual(v, want) {
		t.Errorf("got %v, want %v", v, want)
	}
}

func TestAncestryMigratesLegacyData(t *testing.T) {
	t.Parallel()

	v, err := generations().Resolve(map[string]any{
		"items": map[string]any{"beta": "b", "alpha": "a"},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := map[string]any{"items": []any{"a", "b"}}
	if !reflect.DeepEqual(v, want) {
		t.Errorf("got %v, want %v", v, want)
	}
}

func TestAncestryNoGenerationAccepts(t *testing.T) {
	t.Parallel()

	_, err := generations().Resolve(map[string]any{"items": 7})
	if !IsInvalidData(err) {
		t.Fatalf("want InvalidDataError, got %v", err)
	}
	// The surfaced error must be the current schema's, not the prior's.
	if !strings.Contains(err.Error(), "sequence") {
		t.Errorf("error should come from the current generation: %v", err)
	}
}

func TestAncestryBrokenMigrationPanics(t *testing.T) {
	t.Parallel()

	current := StrictStruct([]Field{{Name: "n", Schema: Int()}}, nil)
	prior := StrictStruct([]Field{{Name: "n", Schema: String()}}, nil)
	broken := Ancestry(current, Migration{
		// Leaves the string in place, which the current schema rejects.
		Migrate: func(old any) any { return old },
		Prior:   prior,
	})

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when migrated data is rejected by the current schema")
		}
	}()
	_, _ = broken.Resolve(map[string]any{"n": "seven"})
}

func TestAncestryResolvedDataIsCurrent(t *testing.T) {
	t.Parallel()

	s := generations()
	legacy := map[string]any{"items": map[string]any{"k": "v"}}

	migrated, err := s.Resolve(legacy)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	again, err := s.Resolve(migrated)
	if err != nil {
		t.Fatalf("re-Resolve: %v", err)
	}
	if !reflect.DeepEqual(migrated, again) {
		t.Errorf("migrated data should already be canonical: %v vs %v", migrated, again)
	}
}
