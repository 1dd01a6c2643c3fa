package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/amonks/tracker/internal/paths"
	"github.com/joho/godotenv"
)

// Env looks up variables in the process environment first and then in
// dotenv files, earlier files winning. Dotenv values never replace a
// variable that is set and non-empty.
type Env struct {
	lookup func(string) (string, bool)
	files  []map[string]string
}

// NewEnv builds an Env over lookup and the given dotenv files. Missing
// files are skipped.
func NewEnv(lookup func(string) (string, bool), dotenvFiles ...string) (*Env, error) {
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}
	env := &Env{lookup: lookup}
	for _, path := range dotenvFiles {
		if path == "" {
			continue
		}
		values, err := godotenv.Read(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read env file %s: %w", path, err)
		}
		env.files = append(env.files, values)
	}
	return env, nil
}

// ProcessEnv reads the process environment, ./.env, and ~/.todo-cli.env.
func ProcessEnv() (*Env, error) {
	files := []string{".env"}
	if userFile, err := paths.EnvFile(); err == nil {
		files = append(files, userFile)
	}
	return NewEnv(os.LookupEnv, files...)
}

// MapEnv is an Env over a fixed set of variables.
func MapEnv(values map[string]string) *Env {
	env, _ := NewEnv(func(name string) (string, bool) {
		value, ok := values[name]
		return value, ok
	})
	return env
}

// Get returns the trimmed value of name, or "".
func (e *Env) Get(name string) string {
	if value, ok := e.lookup(name); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	for _, file := range e.files {
		if value := strings.TrimSpace(file[name]); value != "" {
			return value
		}
	}
	return ""
}

// First returns the first non-empty value among names.
func (e *Env) First(names ...string) string {
	for _, name := range names {
		if value := e.Get(name); value != "" {
			return value
		}
	}
	return ""
}
