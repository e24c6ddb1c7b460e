package patch

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// IsURL reports whether ref is a remote patch reference.
func IsURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Localize ensures every patch reference is a local file, downloading remote
// ones into dir. Local paths pass through unchanged; the returned slice is
// parallel to refs.
func Localize(refs []string, dir string) ([]string, error) {
	out := make([]string, 0, len(refs))
	for i, ref := range refs {
		if !IsURL(ref) {
			out = append(out, ref)
			continue
		}
		local := filepath.Join(dir, fmt.Sprintf("patch-%d", i))
		if err := download(ref, local); err != nil {
			return nil, err
		}
		out = append(out, local)
	}
	return out, nil
}

func download(url, dest string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("fetching patch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching patch %s: unexpected status %s", url, resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("saving patch %s: %w", url, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("saving patch %s: %w", url, err)
	}
	return nil
}
