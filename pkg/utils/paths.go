package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const appDirName = "nutriscan"

// DefaultDBPath returns a system-appropriate default path for the database
func DefaultDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "nutriscan.db"
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(homeDir, "AppData", "Roaming", appDirName, "nutriscan.db")
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", appDirName, "nutriscan.db")
	default: // Linux and other UNIX-like systems.
		return filepath.Join(homeDir, ".local", "share", appDirName, "nutriscan.db")
	}
}

// ResolveAndEnsureDBPath expands ~, makes the path absolute and creates the
// parent directory. An empty path selects DefaultDBPath. ":memory:" is
// returned untouched.
func ResolveAndEnsureDBPath(providedPath string) (string, error) {
	if providedPath == ":memory:" {
		return providedPath, nil
	}

	targetPath := providedPath
	if targetPath == "" {
		targetPath = DefaultDBPath()
	}

	if strings.HasPrefix(targetPath, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory to expand path '%s': %w", targetPath, err)
		}
		targetPath = filepath.Join(homeDir, targetPath[2:])
	}

	absPath, err := filepath.Abs(targetPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for '%s': %w", targetPath, err)
	}

	dbDir := filepath.Dir(absPath)
	if _, err := os.Stat(dbDir); os.IsNotExist(err) {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory '%s' for database: %w", dbDir, err)
		}
	} else if err != nil {
		return "", fmt.Errorf("failed to stat directory '%s' for database: %w", dbDir, err)
	}

	return absPath, nil
}

// DateLayout is the YYYY-MM-DD key format used by the journal.
const DateLayout = "2006-01-02"

// LocalDate formats t in local time as a journal date key.
func LocalDate(t time.Time) string {
	return t.Local().Format(DateLayout)
}

var ErrInvalidDate = errors.New("invalid date")

// ValidateDate checks that s is a YYYY-MM-DD date key.
func ValidateDate(s string) error {
	if _, err := time.ParseInLocation(DateLayout, s, time.Local); err != nil {
		return fmt.Errorf("%w %q, expected YYYY-MM-DD", ErrInvalidDate, s)
	}
	return nil
}
