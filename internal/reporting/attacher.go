// internal/reporting/attacher.go
package reporting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"github.com/xkilldash9x/regwizard/internal/scenario"
)

var extensions = map[string]string{
	"image/png":        ".png",
	"text/plain":       ".txt",
	"text/html":        ".html",
	"application/json": ".json",
}

// DirAttacher stores attachments as files under
// <root>/<scenario>/<run id>/<seq>-<step>-<name><ext>.
type DirAttacher struct {
	root string

	mu  sync.Mutex
	seq map[string]int
}

var _ scenario.Attacher = (*DirAttacher)(nil)

func NewDirAttacher(root string) *DirAttacher {
	return &DirAttacher{root: root, seq: make(map[string]int)}
}

// Attach writes a and returns the file path.
func (d *DirAttacher) Attach(ctx context.Context, a scenario.Attachment) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	runID := a.RunID
	if len(runID) > 8 {
		runID = runID[:8]
	}
	dir := filepath.Join(d.root, slug(a.Scenario), runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create attachment dir: %w", err)
	}

	d.mu.Lock()
	d.seq[dir]++
	n := d.seq[dir]
	d.mu.Unlock()

	ext, ok := extensions[a.MediaType]
	if !ok {
		ext = ".bin"
	}
	path := filepath.Join(dir, fmt.Sprintf("%02d-%s-%s%s", n, slug(a.Step), slug(a.Name), ext))
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return "", fmt.Errorf("write attachment: %w", err)
	}
	return path, nil
}

// slug lowercases s and joins its letter and digit runs with dashes.
func slug(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(fields) == 0 {
		return "unnamed"
	}
	return strings.Join(fields, "-")
}
