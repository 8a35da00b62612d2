package paths

import (
	"os"
	"path/filepath"
)

// AppName names the per-user pkgkit directories
const AppName = "pkgkit"

// Resolver centralizes the default pkgkit locations. It follows the XDG
// base directory variables and falls back to HOME.
type Resolver struct {
	homeDir string
	getenv  func(string) string
}

// NewResolver creates a Resolver for the current user
func NewResolver() *Resolver {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		homeDir = os.Getenv("HOME")
	}
	if homeDir == "" {
		homeDir = "."
	}
	return &Resolver{
		homeDir: homeDir,
		getenv:  os.Getenv,
	}
}

// NewResolverWithHome creates a Resolver with an explicit home directory
// and environment lookup (useful for tests)
func NewResolverWithHome(homeDir string, getenv func(string) string) *Resolver {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	return &Resolver{
		homeDir: homeDir,
		getenv:  getenv,
	}
}

// HomeDir returns the resolved home directory
func (r *Resolver) HomeDir() string {
	return r.homeDir
}

// ConfigDir returns $XDG_CONFIG_HOME/pkgkit or ~/.config/pkgkit
func (r *Resolver) ConfigDir() string {
	return filepath.Join(r.xdg("XDG_CONFIG_HOME", ".config"), AppName)
}

// DataDir returns $XDG_DATA_HOME/pkgkit or ~/.local/share/pkgkit
func (r *Resolver) DataDir() string {
	return filepath.Join(r.xdg("XDG_DATA_HOME", filepath.Join(".local", "share")), AppName)
}

// DBFile returns the default history database path
func (r *Resolver) DBFile() string {
	return filepath.Join(r.DataDir(), "history.db")
}

// LogFile returns the default log file path
func (r *Resolver) LogFile() string {
	return filepath.Join(r.DataDir(), AppName+".log")
}

// xdg returns the directory named by env when it is absolute (relative
// XDG values are ignored), or fallback under home
func (r *Resolver) xdg(env, fallback string) string {
	if dir := r.getenv(env); filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(r.homeDir, fallback)
}
