package testsupport

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rogpeppe/go-internal/testscript"
)

var (
	buildOnce sync.Once
	todoPath  string
	buildErr  error
)

const fakeRESTKey = "fakerest"

// BuildTodo builds the todo binary once and returns its path.
func BuildTodo(t testing.TB) string {
	t.Helper()

	buildOnce.Do(func() {
		moduleRoot, err := findModuleRoot()
		if err != nil {
			buildErr = err
			return
		}

		binDir, err := os.MkdirTemp("", "todo-bin-")
		if err != nil {
			buildErr = err
			return
		}

		todoPath = filepath.Join(binDir, "todo")
		cmd := exec.Command("go", "build", "-o", todoPath, "./cmd/todo")
		cmd.Dir = moduleRoot
		output, err := cmd.CombinedOutput()
		if err != nil {
			buildErr = fmt.Errorf("build todo: %w: %s", err, strings.TrimSpace(string(output)))
		}
	})

	if buildErr != nil {
		t.Fatalf("%v", buildErr)
	}

	return todoPath
}

// SetupScriptEnv gives each script its own HOME, a fake store, and
// credentials for the legacy service-key mode.
func SetupScriptEnv(t testing.TB, env *testscript.Env) error {
	t.Helper()

	env.Setenv("TODO", BuildTodo(t))

	homeDir := filepath.Join(env.WorkDir, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		return err
	}
	env.Setenv("HOME", homeDir)
	env.Setenv("NO_COLOR", "1")

	fake, err := StartFakeREST(env.WorkDir, nil)
	if err != nil {
		return err
	}
	env.Defer(fake.Close)
	env.Values[fakeRESTKey] = fake

	env.Setenv("TODO_CLI_SUPABASE_URL", fake.URL())
	env.Setenv("TODO_CLI_VERIFY_URL", fake.VerifyURL())
	env.Setenv("TODO_CLI_SUPABASE_ANON_KEY", "anon-key")
	env.Setenv("TODO_CLI_SUPABASE_SERVICE_ROLE_KEY", "service-key")
	env.Setenv("TODO_CLI_TELEGRAM_CHAT_ID", "script-user")
	return nil
}

// CmdEnvSet stores the trimmed contents of a file in an env var.
func CmdEnvSet(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("envset does not support negation")
	}
	if len(args) != 2 {
		ts.Fatalf("usage: envset VAR FILE")
	}

	value := strings.TrimSpace(ts.ReadFile(args[1]))
	ts.Setenv(args[0], value)
}

// CmdIssueToken issues a token in the fake store and stores its secret in
// an env var. A negative TTL such as -1h issues an expired token.
func CmdIssueToken(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("issuetoken does not support negation")
	}
	if len(args) != 3 {
		ts.Fatalf("usage: issuetoken OWNER TTL VAR")
	}
	fake, ok := ts.Value(fakeRESTKey).(*FakeREST)
	if !ok {
		ts.Fatalf("no fake store configured")
	}
	ttl, err := time.ParseDuration(args[1])
	if err != nil {
		ts.Fatalf("parse ttl: %v", err)
	}
	secret, err := fake.IssueToken(context.Background(), args[0], ttl)
	if err != nil {
		ts.Fatalf("issue token: %v", err)
	}
	ts.Setenv(args[2], secret)
}

func findModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find module root (go.mod)")
		}
		dir = parent
	}
}
