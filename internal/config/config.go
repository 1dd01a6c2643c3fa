// Package config loads todo-tracker settings from TOML files, dotenv
// files, and the environment, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/amonks/tracker/internal/paths"
)

// ProjectFile is the per-directory configuration file name.
const ProjectFile = "todo-tracker.toml"

// Store backends.
const (
	BackendREST     = "rest"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Defaults applied when nothing else sets a value.
const (
	DefaultAddr        = ":8080"
	DefaultHTTPTimeout = 20 * time.Second
	DefaultTokenTTL    = 90 * 24 * time.Hour
)

// Config represents the todo-tracker configuration.
type Config struct {
	Store    Store    `toml:"store"`
	Supabase Supabase `toml:"supabase"`
	Telegram Telegram `toml:"telegram"`
	Server   Server   `toml:"server"`
	Auth     Auth     `toml:"auth"`
	HTTP     HTTP     `toml:"http"`
	Export   Export   `toml:"export"`
}

// Store selects where tasks and tokens live.
type Store struct {
	// Backend is "rest" (default), "postgres", or "sqlite".
	Backend string `toml:"backend"`
	// DSN is the database connection string for the SQL backends.
	DSN string `toml:"dsn"`
}

// Supabase holds the hosted project settings.
type Supabase struct {
	URL            string `toml:"url"`
	AnonKey        string `toml:"anon-key"`
	ServiceRoleKey string `toml:"service-role-key"`
	// VerifyURL defaults to URL + "/functions/v1/auth-verify".
	VerifyURL string `toml:"verify-url"`
}

// Telegram holds bot settings.
type Telegram struct {
	BotToken string `toml:"bot-token"`
	// ChatID receives digests and is the legacy CLI owner.
	ChatID        string `toml:"chat-id"`
	WebhookSecret string `toml:"webhook-secret"`
	// APIURL overrides the Bot API base URL.
	APIURL string `toml:"api-url"`
}

// Server configures todod.
type Server struct {
	Addr string `toml:"addr"`
	// Timezone names the IANA zone that decides "today". Defaults to local time.
	Timezone string `toml:"timezone"`
}

// Auth configures token issuance.
type Auth struct {
	// TokenTTL is a Go duration or a whole number of days such as "90d".
	TokenTTL string `toml:"token-ttl"`
}

// HTTP configures outbound clients.
type HTTP struct {
	Timeout string `toml:"timeout"`
}

// Export configures the markdown export.
type Export struct {
	File string `toml:"file"`
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// Path overrides the global config file.
	Path string
	// Dir is searched for ProjectFile. Empty skips the project file.
	Dir string
	// Env supplies overrides. Defaults to an empty environment.
	Env *Env
}

// Load reads the global and project files, then applies environment
// overrides. Missing files are not an error.
func Load(opts LoadOptions) (*Config, error) {
	globalPath := opts.Path
	if globalPath == "" {
		path, err := paths.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		globalPath = path
	}

	globalCfg, globalMeta, err := loadConfigFile(globalPath)
	if err != nil {
		return nil, err
	}
	projectCfg, projectMeta := &Config{}, toml.MetaData{}
	if opts.Dir != "" {
		projectCfg, projectMeta, err = loadConfigFile(filepath.Join(opts.Dir, ProjectFile))
		if err != nil {
			return nil, err
		}
	}

	merged := mergeConfigs(globalCfg, projectCfg, globalMeta, projectMeta)
	env := opts.Env
	if env == nil {
		env = MapEnv(nil)
	}
	applyEnv(merged, env)
	applyDefaults(merged)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

func loadConfigFile(path string) (*Config, toml.MetaData, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, toml.MetaData{}, nil
	}
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, toml.MetaData{}, fmt.Errorf("parse config file %s: unknown key %s", path, undecoded[0])
	}

	return &cfg, meta, nil
}

func mergeConfigs(globalCfg, projectCfg *Config, globalMeta, projectMeta toml.MetaData) *Config {
	merged := Config{}
	fields := []struct {
		key     []string
		dst     *string
		project string
		global  string
	}{
		{[]string{"store", "backend"}, &merged.Store.Backend, projectCfg.Store.Backend, globalCfg.Store.Backend},
		{[]string{"store", "dsn"}, &merged.Store.DSN, projectCfg.Store.DSN, globalCfg.Store.DSN},
		{[]string{"supabase", "url"}, &merged.Supabase.URL, projectCfg.Supabase.URL, globalCfg.Supabase.URL},
		{[]string{"supabase", "anon-key"}, &merged.Supabase.AnonKey, projectCfg.Supabase.AnonKey, globalCfg.Supabase.AnonKey},
		{[]string{"supabase", "service-role-key"}, &merged.Supabase.ServiceRoleKey, projectCfg.Supabase.ServiceRoleKey, globalCfg.Supabase.ServiceRoleKey},
		{[]string{"supabase", "verify-url"}, &merged.Supabase.VerifyURL, projectCfg.Supabase.VerifyURL, globalCfg.Supabase.VerifyURL},
		{[]string{"telegram", "bot-token"}, &merged.Telegram.BotToken, projectCfg.Telegram.BotToken, globalCfg.Telegram.BotToken},
		{[]string{"telegram", "chat-id"}, &merged.Telegram.ChatID, projectCfg.Telegram.ChatID, globalCfg.Telegram.ChatID},
		{[]string{"telegram", "webhook-secret"}, &merged.Telegram.WebhookSecret, projectCfg.Telegram.WebhookSecret, globalCfg.Telegram.WebhookSecret},
		{[]string{"telegram", "api-url"}, &merged.Telegram.APIURL, projectCfg.Telegram.APIURL, globalCfg.Telegram.APIURL},
		{[]string{"server", "addr"}, &merged.Server.Addr, projectCfg.Server.Addr, globalCfg.Server.Addr},
		{[]string{"server", "timezone"}, &merged.Server.Timezone, projectCfg.Server.Timezone, globalCfg.Server.Timezone},
		{[]string{"auth", "token-ttl"}, &merged.Auth.TokenTTL, projectCfg.Auth.TokenTTL, globalCfg.Auth.TokenTTL},
		{[]string{"http", "timeout"}, &merged.HTTP.Timeout, projectCfg.HTTP.Timeout, globalCfg.HTTP.Timeout},
		{[]string{"export", "file"}, &merged.Export.File, projectCfg.Export.File, globalCfg.Export.File},
	}
	for _, field := range fields {
		*field.dst = mergeString(projectMeta.IsDefined(field.key...), field.project, field.global)
	}
	return &merged
}

func mergeString(projectDefined bool, projectValue, globalValue string) string {
	value := globalValue
	if projectDefined {
		value = projectValue
	}
	return strings.TrimSpace(value)
}

// applyEnv overrides file values with environment variables. Within each
// list the first set variable wins.
func applyEnv(cfg *Config, env *Env) {
	overrides := []struct {
		dst   *string
		names []string
	}{
		{&cfg.Store.Backend, []string{"TODO_CLI_STORE"}},
		{&cfg.Store.DSN, []string{"TODO_CLI_DATABASE_URL", "DATABASE_URL"}},
		{&cfg.Supabase.URL, []string{"TODO_CLI_SUPABASE_URL", "SUPABASE_URL"}},
		{&cfg.Supabase.AnonKey, []string{"TODO_CLI_SUPABASE_ANON_KEY", "SUPABASE_ANON_KEY"}},
		{&cfg.Supabase.ServiceRoleKey, []string{"TODO_CLI_SUPABASE_SERVICE_ROLE_KEY", "SUPABASE_SERVICE_ROLE_KEY"}},
		{&cfg.Supabase.VerifyURL, []string{"TODO_CLI_VERIFY_URL"}},
		{&cfg.Telegram.BotToken, []string{"TODO_CLI_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN"}},
		{&cfg.Telegram.ChatID, []string{"TODO_CLI_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID"}},
		{&cfg.Telegram.WebhookSecret, []string{"TODO_CLI_TELEGRAM_WEBHOOK_SECRET", "TELEGRAM_WEBHOOK_SECRET"}},
		{&cfg.Server.Timezone, []string{"TODO_CLI_TIMEZONE"}},
		{&cfg.Auth.TokenTTL, []string{"TODO_CLI_TOKEN_TTL"}},
		{&cfg.HTTP.Timeout, []string{"TODO_CLI_HTTP_TIMEOUT"}},
		{&cfg.Export.File, []string{"TODO_CLI_FILE"}},
	}
	for _, override := range overrides {
		if value := env.First(override.names...); value != "" {
			*override.dst = value
		}
	}

	if addr := env.Get("TODO_CLI_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	} else if port := env.Get("PORT"); port != "" {
		cfg.Server.Addr = ":" + port
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = BackendREST
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}
	cfg.Store.Backend = strings.ToLower(cfg.Store.Backend)
}

// Validate checks the values that are parsed later.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendREST, BackendPostgres, BackendSQLite:
	default:
		return fmt.Errorf("invalid store backend %q (valid: %s, %s, %s)", c.Store.Backend, BackendREST, BackendPostgres, BackendSQLite)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.TokenTTL(); err != nil {
		return err
	}
	if _, err := c.HTTPTimeout(); err != nil {
		return err
	}
	return nil
}

// Location returns the configured time zone, or time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Server.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Server.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Server.Timezone, err)
	}
	return loc, nil
}

// TokenTTL returns how long issued tokens stay valid.
func (c *Config) TokenTTL() (time.Duration, error) {
	if c.Auth.TokenTTL == "" {
		return DefaultTokenTTL, nil
	}
	ttl, err := ParseDuration(c.Auth.TokenTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid token-ttl: %w", err)
	}
	return ttl, nil
}

// HTTPTimeout returns the outbound request timeout.
func (c *Config) HTTPTimeout() (time.Duration, error) {
	if c.HTTP.Timeout == "" {
		return DefaultHTTPTimeout, nil
	}
	timeout, err := ParseDuration(c.HTTP.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid http timeout: %w", err)
	}
	return timeout, nil
}

// VerifyURL returns the token verification endpoint.
func (c *Config) VerifyURL() string {
	if c.Supabase.VerifyURL != "" {
		return c.Supabase.VerifyURL
	}
	if c.Supabase.URL == "" {
		return ""
	}
	return strings.TrimRight(c.Supabase.URL, "/") + "/functions/v1/auth-verify"
}

// ParseDuration accepts Go durations and whole days ("90d").
func ParseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid duration %q", value)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if duration <= 0 {
		return 0, fmt.Errorf("invalid duration %q", value)
	}
	return duration, nil
}
