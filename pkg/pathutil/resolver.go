// Package pathutil provides centralized path management for the sync database and budget configuration.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathResolver manages paths for the data directory, database, and budgets file.
type PathResolver struct {
	dataDir      string
	databasePath string
	budgetsPath  string
}

// Config represents the configuration for PathResolver.
type Config struct {
	// DataDir is the root directory for local state (e.g., ./data)
	DataDir string
	// DatabasePath is the path to the SQLite database file for sync history
	DatabasePath string
	// BudgetsPath is the path to the YAML budget configuration
	BudgetsPath string
}

// New creates a new PathResolver with the given configuration.
// If DatabasePath is empty, it defaults to {DataDir}/.sync/sync.db
// If BudgetsPath is empty, it defaults to config/budgets.yaml
func New(config Config) *PathResolver {
	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "./data"
	}

	dbPath := config.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, ".sync", "sync.db")
	}

	budgetsPath := config.BudgetsPath
	if budgetsPath == "" {
		budgetsPath = filepath.Join("config", "budgets.yaml")
	}

	return &PathResolver{
		dataDir:      dataDir,
		databasePath: dbPath,
		budgetsPath:  budgetsPath,
	}
}

// GetDataDir returns the data directory.
func (p *PathResolver) GetDataDir() string {
	return p.dataDir
}

// GetDatabasePath returns the database file path.
func (p *PathResolver) GetDatabasePath() string {
	return p.databasePath
}

// GetBudgetsPath returns the budget configuration file path.
func (p *PathResolver) GetBudgetsPath() string {
	return p.budgetsPath
}

// EnsureDir creates a directory if it doesn't exist.
// It creates all parent directories as needed (like mkdir -p).
func (p *PathResolver) EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// EnsureParentDir ensures the parent directory of a file exists.
func (p *PathResolver) EnsureParentDir(filePath string) error {
	return p.EnsureDir(filepath.Dir(filePath))
}

// FileExists checks if a file exists.
func (p *PathResolver) FileExists(filePath string) bool {
	info, err := os.Stat(filePath)
	return err == nil && !info.IsDir()
}
