package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultPathManager implements output path management.
type DefaultPathManager struct {
	root string
}

// NewDefaultPathManager creates a path manager rooted at the given output
// directory. An empty root defaults to "results".
func NewDefaultPathManager(root string) *DefaultPathManager {
	if root == "" {
		root = "results"
	}
	return &DefaultPathManager{root: root}
}

// GetDefaultOutputDir builds the per-strategy output directory, stamped with
// the run date.
func (m *DefaultPathManager) GetDefaultOutputDir(strategyName string) string {
	slug := strings.ToLower(strings.ReplaceAll(strategyName, " ", "_"))
	return filepath.Join(m.root, fmt.Sprintf("%s_%s", slug, time.Now().Format("20060102")))
}

// EnsureDirectoryExists creates the directory if needed.
func (m *DefaultPathManager) EnsureDirectoryExists(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("could not create output directory %s: %w", path, err)
	}
	return nil
}
