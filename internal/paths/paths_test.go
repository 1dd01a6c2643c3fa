package paths

import (
	"path/filepath"
	"testing"
)

func TestHomeDirUsesHome(t *testing.T) {
	t.Setenv("HOME", filepath.Join("/tmp", "test-home"))

	home, err := HomeDir()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if home != filepath.Join("/tmp", "test-home") {
		t.Fatalf("expected %s, got %s", filepath.Join("/tmp", "test-home"), home)
	}
}

func TestUserFilesUseHome(t *testing.T) {
	t.Setenv("HOME", filepath.Join("/tmp", "test-home"))

	tests := []struct {
		name string
		fn   func() (string, error)
		want string
	}{
		{"config", DefaultConfigPath, filepath.Join("/tmp", "test-home", ".config", "todo-tracker", "config.toml")},
		{"token", TokenFile, filepath.Join("/tmp", "test-home", ".todo-cli-token")},
		{"env", EnvFile, filepath.Join("/tmp", "test-home", ".todo-cli.env")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", filepath.Join("/tmp", "test-home"))

	tests := []struct {
		in   string
		want string
	}{
		{"~/Documents/todo.md", filepath.Join("/tmp", "test-home", "Documents", "todo.md")},
		{"~", filepath.Join("/tmp", "test-home")},
		{"/abs/todo.md", "/abs/todo.md"},
		{"~other/todo.md", "~other/todo.md"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ExpandHome(tt.in)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
