package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DefaultPath is where the runtime configuration is expected, relative to
// the working directory.
const DefaultPath = "system.yaml"

// Config is the full runtime configuration, loaded from system.yaml with
// WAITLIST_* environment variable overrides.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	OAuth2  OAuth2Config  `mapstructure:"oauth2"`
	Storage StorageConfig `mapstructure:"storage"`
	Notify  NotifyConfig  `mapstructure:"notify"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the host:port pair the HTTP server binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console | json
}

type OAuth2Config struct {
	Google GoogleOAuthConfig `mapstructure:"google"`
}

type GoogleOAuthConfig struct {
	// Insecure selects http for the callback URL scheme. Set false in
	// production so the provider redirects over TLS.
	Insecure          bool     `mapstructure:"insecure"`
	ClientSecretsFile string   `mapstructure:"client_secrets_file"`
	Scopes            []string `mapstructure:"scopes"`
}

// Scheme returns the callback URL scheme implied by the insecure toggle.
func (g GoogleOAuthConfig) Scheme() string {
	if g.Insecure {
		return "http"
	}
	return "https"
}

// Backend identifies which waitlist store implementation to run.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendMongo  Backend = "mongo"
	BackendSQLite Backend = "sqlite"
)

type StorageConfig struct {
	Backend       Backend `mapstructure:"backend"`
	WaitlistFile  string  `mapstructure:"waitlist_file"`
	MongoURI      string  `mapstructure:"mongo_uri"`
	MongoDatabase string  `mapstructure:"mongo_database"`
	SQLitePath    string  `mapstructure:"sqlite_path"`
}

type NotifyConfig struct {
	SMTP SMTPConfig `mapstructure:"smtp"`
}

type SMTPConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	User      string `mapstructure:"user"`
	Password  string `mapstructure:"password"`
	Domain    string `mapstructure:"domain"`
	FromName  string `mapstructure:"from_name"`
	FromEmail string `mapstructure:"from_email"`
}

// FromAddress returns the configured sender address, falling back to
// user@domain when from_email is left empty.
func (s SMTPConfig) FromAddress() string {
	if s.FromEmail != "" {
		return s.FromEmail
	}
	return fmt.Sprintf("%s@%s", s.User, s.Domain)
}

// DefaultScopes is the scope set requested from Google when the config does
// not override it.
var DefaultScopes = []string{
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
	"openid",
}

const defaultTemplate = `server:
  host: localhost
  port: 8000

logging:
  level: debug
  format: console

oauth2:
  google:
    # false in production: the provider will only redirect back over https
    insecure: true
    client_secrets_file: database/secrets/client_secret_google.json
    scopes:
      - https://www.googleapis.com/auth/userinfo.email
      - https://www.googleapis.com/auth/userinfo.profile
      - openid

storage:
  backend: memory # memory | mongo | sqlite
  waitlist_file: database/waitlist.emails.txt
  mongo_uri: mongodb://localhost:27017/
  mongo_database: waitlist-alpha
  sqlite_path: database/waitlist.db

notify:
  smtp:
    host: smtp.gmail.com
    port: 587
    user: ""
    password: ""
    domain: gmail.com
    from_name: XLangAI
    from_email: "" # alias such as no-reply@waitlist.ai, defaults to user@domain
`

// Load reads the configuration file at path. When the file does not exist a
// default template is written in its place and an error is returned, so the
// operator can fill the template in and restart.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeTemplate(path); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
		return nil, fmt.Errorf("config file %s was missing; a default template has been written, fill it in and restart", path)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("WAITLIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8000)
	v.SetDefault("logging.level", "debug")
	v.SetDefault("logging.format", "console")
	v.SetDefault("oauth2.google.insecure", true)
	v.SetDefault("oauth2.google.client_secrets_file", "database/secrets/client_secret_google.json")
	v.SetDefault("storage.backend", string(BackendMemory))
	v.SetDefault("storage.waitlist_file", "database/waitlist.emails.txt")
	v.SetDefault("storage.mongo_uri", "mongodb://localhost:27017/")
	v.SetDefault("storage.mongo_database", "waitlist-alpha")
	v.SetDefault("storage.sqlite_path", "database/waitlist.db")
	v.SetDefault("notify.smtp.port", 587)
	v.SetDefault("notify.smtp.domain", "gmail.com")
	v.SetDefault("notify.smtp.from_name", "XLangAI")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if len(cfg.OAuth2.Google.Scopes) == 0 {
		cfg.OAuth2.Google.Scopes = DefaultScopes
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendMongo, BackendSQLite:
	default:
		return fmt.Errorf("unknown storage backend %q (want memory, mongo or sqlite)", c.Storage.Backend)
	}

	// The OAuth client secrets are the one piece of configuration the
	// service cannot run without.
	if c.OAuth2.Google.ClientSecretsFile == "" {
		return fmt.Errorf("oauth2.google.client_secrets_file is required")
	}
	if _, err := os.Stat(c.OAuth2.Google.ClientSecretsFile); err != nil {
		return fmt.Errorf("google client secrets file %s is not readable (get it from https://console.cloud.google.com/apis/credentials): %w",
			c.OAuth2.Google.ClientSecretsFile, err)
	}
	return nil
}

func writeTemplate(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(defaultTemplate), 0o644)
}
