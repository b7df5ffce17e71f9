// README: Optional .env bootstrap for local development.
package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadDotEnv walks up from the working directory looking for a .env file and
// loads the first one found. Missing files are not an error; deployed
// environments configure through real env vars.
func LoadDotEnv(maxDepth int) {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for i := 0; i < maxDepth; i++ {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
