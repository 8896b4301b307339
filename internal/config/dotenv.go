package config

import (
	"errors"
	"io/fs"
	"os"

	pkgconfig "feedmail/pkg/config"

	"github.com/joho/godotenv"
)

// DefaultDotEnvFile is read from the working directory when present.
const DefaultDotEnvFile = ".env"

// LoadDotEnv loads variables from path into the process environment. Variables
// that are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = DefaultDotEnvFile
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// NewEnv returns the environment reader used for feedmail inputs.
func NewEnv() pkgconfig.Env {
	return pkgconfig.NewEnv(InputPrefix)
}
