package data

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultFileLocator implements FileLocator for a flat folder of ticker files
type DefaultFileLocator struct{}

// NewDefaultFileLocator creates a new default file locator
func NewDefaultFileLocator() *DefaultFileLocator {
	return &DefaultFileLocator{}
}

// TickerFile returns the conventional path folder/TICKER.csv
func (f *DefaultFileLocator) TickerFile(folder, ticker string) string {
	return filepath.Join(folder, strings.ToUpper(strings.TrimSpace(ticker))+".csv")
}

// FindTickerFile checks the upper-case name first, then the name as given
func (f *DefaultFileLocator) FindTickerFile(folder, ticker string) (string, error) {
	candidates := []string{
		f.TickerFile(folder, ticker),
		filepath.Join(folder, strings.TrimSpace(ticker)+".csv"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no history file for %s in %s (tried %s): %w",
		ticker, folder, strings.Join(candidates, ", "), os.ErrNotExist)
}
