package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DefaultResultsDir is the root of all run directories
const DefaultResultsDir = "results"

// DefaultPathManager lays out results/<analysis>_<run-id> directories
type DefaultPathManager struct {
	baseDir string
}

// NewDefaultPathManager creates a path manager rooted at baseDir
func NewDefaultPathManager(baseDir string) *DefaultPathManager {
	if strings.TrimSpace(baseDir) == "" {
		baseDir = DefaultResultsDir
	}
	return &DefaultPathManager{baseDir: baseDir}
}

// NewRunID returns a short random run identifier
func NewRunID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// GetDefaultOutputDir returns the directory of one analysis run
func (p *DefaultPathManager) GetDefaultOutputDir(analysis, runID string) string {
	a := strings.ToLower(strings.TrimSpace(analysis))
	a = strings.ReplaceAll(a, " ", "_")
	if a == "" {
		a = "analysis"
	}
	if runID == "" {
		return filepath.Join(p.baseDir, a)
	}
	return filepath.Join(p.baseDir, fmt.Sprintf("%s_%s", a, runID))
}

// EnsureDirectoryExists creates the parent directory of path
func (p *DefaultPathManager) EnsureDirectoryExists(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}
