package confkit

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/joho/godotenv"
)

// maxAscent bounds the upward walk when searching for the repo root.
const maxAscent = 8

var dotenvOnce sync.Once

// LoadDotenvOnce loads a .env file into the environment exactly once per
// process. ENV_FILE pins an explicit path; otherwise the walk starts at this
// source file and climbs until a go.mod or .git marks the repo root, loading
// any .env it passes. NO_DOTENV=1 disables loading entirely. Variables
// already set win unless DOTENV_OVERLOAD=1.
func LoadDotenvOnce() {
	dotenvOnce.Do(loadDotenv)
}

func loadDotenv() {
	if os.Getenv("NO_DOTENV") == "1" {
		return
	}

	load := godotenv.Load
	if os.Getenv("DOTENV_OVERLOAD") == "1" {
		load = godotenv.Overload
	}

	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		_ = load(envFile)
		return
	}

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		_ = load(".env")
		return
	}

	dir := filepath.Dir(file)
	for i := 0; i < maxAscent; i++ {
		_ = load(filepath.Join(dir, ".env"))
		if fileExists(filepath.Join(dir, "go.mod")) || fileExists(filepath.Join(dir, ".git")) {
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
