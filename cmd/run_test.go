package cmd

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/papapumpkin/magnetar/internal/config"
)

func TestChangedFiles_NoPatchesMeansEmptySelector(t *testing.T) {
	t.Parallel()

	paths, err := changedFiles(nil)
	if err != nil {
		t.Fatalf("changedFiles: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("got %v, want no paths", paths)
	}
}

func TestChangedFiles_LocalPatch(t *testing.T) {
	t.Parallel()

	patchFile := filepath.Join(t.TempDir(), "fix.diff")
	content := "--- a/drivers/net/e1000.c\n+++ b/drivers/net/e1000.c\n@@ -1 +1 @@\n"
	if err := os.WriteFile(patchFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	paths, err := changedFiles([]string{patchFile})
	if err != nil {
		t.Fatalf("changedFiles: %v", err)
	}
	want := []string{"drivers/net/e1000.c"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("got %v, want %v", paths, want)
	}
}

func TestOpenDatabase_RejectsNonDatabase(t *testing.T) {
	t.Parallel()

	cfg := config.Config{Database: t.TempDir(), LogLevel: "info"}
	if _, err := openDatabase(cfg, newLogger(cfg)); err == nil {
		t.Fatal("want error for a directory without an index")
	}
}
