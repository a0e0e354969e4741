package platform

import (
	"errors"
	"os"
	"path/filepath"
)

// ConfigFileName is the project configuration file looked up by the CLI.
const ConfigFileName = "notes.yaml"

// ErrNoConfig is returned by FindConfig when no directory up to the
// filesystem root holds a ConfigFileName.
var ErrNoConfig = errors.New("no " + ConfigFileName + " found")

// FindConfig walks upwards from startDir and returns the absolute path of the
// nearest ConfigFileName. Directories named ConfigFileName are skipped.
func FindConfig(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoConfig
		}
		dir = parent
	}
}
