package simapi

import (
	"os"
	"path/filepath"
	"runtime"
)

const inputFileName = "simAPI_input.json"

// DefaultDir returns where SayIntentionsAI expects SimAPI files:
// %LOCALAPPDATA%\SayIntentionsAI on Windows, the Application Support
// directory elsewhere.
func DefaultDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "SayIntentionsAI")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, "Library", "Application Support", "SayIntentionsAI")
}
