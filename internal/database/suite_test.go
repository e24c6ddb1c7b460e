package database

import (
	"reflect"
	"strings"
	"testing"

	"github.com/papapumpkin/magnetar/internal/schema"
)

func rawSuite() map[string]any {
	return map[string]any{
		"description": "Storage tests",
		"version":     "2.1",
		"patterns": []any{
			map[string]any{"pattern": `drivers/scsi/.*`, "case_name": "scsi"},
			map[string]any{"pattern": `block/.*`, "case_name": "blk"},
			map[string]any{"pattern": `drivers/.*`, "case_name": "generic"},
		},
		"cases": []any{
			map[string]any{"name": "scsi"},
			map[string]any{"name": "blk", "ignore_panic": true},
			map[string]any{"name": "generic", "tasks": "tasks/generic.xml"},
		},
	}
}

func TestNewSuite(t *testing.T) {
	t.Parallel()

	t.Run("binds all fields", func(t *testing.T) {
		t.Parallel()
		s, err := NewSuite(rawSuite())
		if err != nil {
			t.Fatalf("NewSuite: %v", err)
		}
		if s.Description != "Storage tests" || s.Version != "2.1" {
			t.Errorf("got %q / %q", s.Description, s.Version)
		}
		if len(s.Patterns) != 3 || len(s.Cases) != 3 {
			t.Fatalf("got %d patterns, %d cases", len(s.Patterns), len(s.Cases))
		}
		if s.Patterns[0].CaseName != "scsi" {
			t.Errorf("patterns should keep declaration order, got %q first", s.Patterns[0].CaseName)
		}
		if s.Cases[1].IgnorePanic == nil || !*s.Cases[1].IgnorePanic {
			t.Error("ignore_panic should bind to a true pointer")
		}
		if s.Cases[0].IgnorePanic != nil {
			t.Error("absent ignore_panic should bind to nil")
		}
		if s.Tasks != nil {
			t.Error("absent suite tasks should bind to nil")
		}
	})

	t.Run("bare string stands in for a case name", func(t *testing.T) {
		t.Parallel()
		raw := rawSuite()
		raw["cases"] = []any{"smoke"}
		s, err := NewSuite(raw)
		if err != nil {
			t.Fatalf("NewSuite: %v", err)
		}
		if len(s.Cases) != 1 || s.Cases[0].Name != "smoke" {
			t.Errorf("got %v", caseNames(s.Cases))
		}
	})

	t.Run("invalid data names the entity", func(t *testing.T) {
		t.Parallel()
		raw := rawSuite()
		delete(raw, "version")
		_, err := NewSuite(raw)
		if !schema.IsInvalidData(err) {
			t.Fatalf("want InvalidDataError, got %v", err)
		}
		if !strings.Contains(err.Error(), "invalid suite data") {
			t.Errorf("got %v", err)
		}
	})

	t.Run("unknown top-level key is rejected", func(t *testing.T) {
		t.Parallel()
		raw := rawSuite()
		raw["colour"] = "blue"
		_, err := NewSuite(raw)
		if !schema.IsInvalidData(err) {
			t.Fatalf("want InvalidDataError, got %v", err)
		}
		if !strings.Contains(err.Error(), "colour") {
			t.Errorf("error should name the unknown key: %v", err)
		}
	})

	t.Run("unknown pattern key is rejected", func(t *testing.T) {
		t.Parallel()
		raw := rawSuite()
		raw["patterns"] = []any{
			map[string]any{"pattern": `x`, "case_name": "scsi", "case": "typo"},
		}
		_, err := NewSuite(raw)
		if !schema.IsInvalidData(err) {
			t.Fatalf("want InvalidDataError, got %v", err)
		}
	})
}

func TestNewCase(t *testing.T) {
	t.Parallel()

	t.Run("invalid data names the entity", func(t *testing.T) {
		t.Parallel()
		_, err := NewCase(map[string]any{"name": 7})
		if !schema.IsInvalidData(err) {
			t.Fatalf("want InvalidDataError, got %v", err)
		}
		if !strings.Contains(err.Error(), "invalid case data") {
			t.Errorf("got %v", err)
		}
	})
}

func TestGetCase(t *testing.T) {
	t.Parallel()

	t.Run("duplicate names resolve to the first declaration", func(t *testing.T) {
		t.Parallel()
		raw := rawSuite()
		raw["cases"] = []any{
			map[string]any{"name": "dup", "tasks": "first.xml"},
			map[string]any{"name": "dup", "tasks": "second.xml"},
		}
		s, err := NewSuite(raw)
		if err != nil {
			t.Fatalf("NewSuite: %v", err)
		}
		c := s.GetCase("dup")
		if c == nil || c.Tasks == nil || *c.Tasks != "first.xml" {
			t.Errorf("got %v", c)
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		t.Parallel()
		s, err := NewSuite(rawSuite())
		if err != nil {
			t.Fatalf("NewSuite: %v", err)
		}
		if s.GetCase("absent") != nil {
			t.Error("unknown case name should return nil")
		}
	})
}

func TestSuiteMatchCaseSet(t *testing.T) {
	t.Parallel()

	s, err := NewSuite(rawSuite())
	if err != nil {
		t.Fatalf("NewSuite: %v", err)
	}

	t.Run("empty set selects every case", func(t *testing.T) {
		t.Parallel()
		got := caseNames(s.MatchCaseSet(nil))
		want := []string{"scsi", "blk", "generic"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("dedup keeps first-match order", func(t *testing.T) {
		t.Parallel()
		// drivers/scsi/sd.c matches both the scsi and the generic pattern.
		got := caseNames(s.MatchCaseSet([]string{"drivers/scsi/sd.c"}))
		want := []string{"scsi", "generic"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("same case matched by several paths appears once", func(t *testing.T) {
		t.Parallel()
		got := caseNames(s.MatchCaseSet([]string{"block/bio.c", "block/genhd.c"}))
		want := []string{"blk"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("pattern naming no case is inert", func(t *testing.T) {
		t.Parallel()
		raw := rawSuite()
		raw["patterns"] = []any{
			map[string]any{"pattern": `mm/.*`, "case_name": "not-yet-written"},
		}
		dangling, err := NewSuite(raw)
		if err != nil {
			t.Fatalf("NewSuite: %v", err)
		}
		if got := dangling.MatchCaseSet([]string{"mm/slab.c"}); len(got) != 0 {
			t.Errorf("got %v, want nothing", caseNames(got))
		}
	})
}

func TestSuiteMatches(t *testing.T) {
	t.Parallel()

	s, err := NewSuite(rawSuite())
	if err != nil {
		t.Fatalf("NewSuite: %v", err)
	}
	if !s.Matches([]string{"block/bio.c"}) {
		t.Error("suite should match a covered path")
	}
	if s.Matches([]string{"Documentation/index.rst"}) {
		t.Error("suite should not match an uncovered path")
	}
	if !s.Matches(nil) {
		t.Error("empty path set should match any suite with cases")
	}
}
