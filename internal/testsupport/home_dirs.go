package testsupport

import (
	"testing"
)

// SetupTestHome creates a temp home directory, sets HOME, and clears the
// credential variables the CLI would otherwise pick up from the environment.
func SetupTestHome(t testing.TB) string {
	t.Helper()

	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)
	for _, name := range credentialEnv {
		t.Setenv(name, "")
	}
	return homeDir
}

var credentialEnv = []string{
	"TODO_CLI_TOKEN",
	"TODO_CLI_API_TOKEN",
	"TODO_CLI_SUPABASE_URL",
	"SUPABASE_URL",
	"TODO_CLI_SUPABASE_ANON_KEY",
	"SUPABASE_ANON_KEY",
	"TODO_CLI_SUPABASE_SERVICE_ROLE_KEY",
	"SUPABASE_SERVICE_ROLE_KEY",
	"TODO_CLI_TELEGRAM_CHAT_ID",
	"TELEGRAM_CHAT_ID",
	"TODO_CLI_VERIFY_URL",
}
