package dump

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Dumper writes raw provider payloads as indented JSON files for diagnostics.
// A Dumper without a directory is disabled and Dump is a no-op.
type Dumper struct {
	dir string
}

func New(dir string) *Dumper {
	return &Dumper{dir: dir}
}

func (d *Dumper) Enabled() bool {
	return d != nil && d.dir != ""
}

// Dump writes v to <dir>/<name>.json, replacing the file if it exists.
func (d *Dumper) Dump(name string, v any) error {
	if !d.Enabled() {
		return nil
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("create dump dir: %w", err)
	}

	bb, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}

	path := filepath.Join(d.dir, unsafeChars.ReplaceAllString(name, "_")+".json")
	if err := os.WriteFile(path, bb, 0o644); err != nil {
		return fmt.Errorf("write dump %s: %w", path, err)
	}

	return nil
}
