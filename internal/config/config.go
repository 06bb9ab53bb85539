package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/a3tai/pdf-field-extractor/internal/patterns"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort             = 8080
	DefaultHost             = "127.0.0.1"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "console"
	DefaultMaxFileSize      = 100 * 1024 * 1024 // 100MB
	DefaultRawTextMaxLength = 1000
	DefaultWorkers          = 4
	DefaultFormat           = "csv"
	DefaultDelimiter        = ","

	// EnvPrefix is prepended to every environment variable, e.g. PDF_FIELDS_PORT
	EnvPrefix = "PDF_FIELDS"
)

// Setting keys
const (
	KeyMode             = "mode"
	KeyHost             = "host"
	KeyPort             = "port"
	KeyDir              = "dir"
	KeyLogLevel         = "loglevel"
	KeyLogFormat        = "logformat"
	KeyMaxFileSize      = "maxfilesize"
	KeyPatternsFile     = "patterns"
	KeyCustomPatterns   = "custom_patterns"
	KeyCatchAll         = "catchall"
	KeyIncludeRawText   = "include_raw_text"
	KeyRawTextMaxLength = "raw_text_max_length"
	KeyWorkers          = "workers"
	KeyOutput           = "output"
	KeyFormat           = "format"
	KeyDelimiter        = "delimiter"
	KeyPrivacy          = "privacy"
	KeyPassword         = "password"
)

// flagNames maps setting keys to the command line flags bound to them
var flagNames = map[string]string{
	KeyMode:             "mode",
	KeyHost:             "host",
	KeyPort:             "port",
	KeyDir:              "dir",
	KeyLogLevel:         "loglevel",
	KeyLogFormat:        "logformat",
	KeyMaxFileSize:      "maxfilesize",
	KeyPatternsFile:     "patterns",
	KeyCatchAll:         "catchall",
	KeyIncludeRawText:   "include-raw-text",
	KeyRawTextMaxLength: "raw-text-max-length",
	KeyWorkers:          "workers",
	KeyOutput:           "output",
	KeyFormat:           "format",
	KeyDelimiter:        "delimiter",
	KeyPrivacy:          "privacy",
	KeyPassword:         "password",
}

var validFormats = map[string]bool{
	"csv":    true,
	"xlsx":   true,
	"excel":  true,
	"json":   true,
	"yaml":   true,
	"yml":    true,
	"sqlite": true,
}

// Config holds all configuration for the field extractor
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// PDF configuration
	PDFDirectory string
	MaxFileSize  int64 // Maximum PDF file size in bytes
	Password     string

	// Extraction configuration
	PatternsFile     string
	CustomPatterns   map[string][]string
	CatchAll         bool
	IncludeRawText   bool
	RawTextMaxLength int
	Workers          int

	// Export configuration
	Output    string
	Format    string
	Delimiter string

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
	LogFormat  string
	Privacy    bool
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:             ModeStdio,
		Host:             DefaultHost,
		Port:             DefaultPort,
		PDFDirectory:     currentDir,
		MaxFileSize:      DefaultMaxFileSize,
		CustomPatterns:   map[string][]string{},
		RawTextMaxLength: DefaultRawTextMaxLength,
		Workers:          DefaultWorkers,
		Format:           DefaultFormat,
		Delimiter:        DefaultDelimiter,
		Version:          "1.0.0",
		ServerName:       "pdf-field-extractor",
		LogLevel:         DefaultLogLevel,
		LogFormat:        DefaultLogFormat,
	}
}

// DefineFlags registers the configuration flags on fs, using cfg for defaults
func DefineFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP/SSE server")
	fs.String("host", cfg.Host, "Server host address (server mode only)")
	fs.Int("port", cfg.Port, "Server port (server mode only)")
	fs.String("dir", cfg.PDFDirectory, "Directory containing PDF files")
	fs.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.String("logformat", cfg.LogFormat, "Log format (json, console)")
	fs.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	fs.String("patterns", cfg.PatternsFile, "Custom pattern file (YAML or JSON)")
	fs.Bool("catchall", cfg.CatchAll, "Enable the low-precision catch-all name and date patterns")
	fs.Bool("include-raw-text", cfg.IncludeRawText, "Include truncated raw text in records")
	fs.Int("raw-text-max-length", cfg.RawTextMaxLength, "Maximum length of the raw text kept in records")
	fs.Int("workers", cfg.Workers, "Number of documents processed in parallel")
	fs.StringP("output", "o", cfg.Output, "Output file for exported records")
	fs.StringP("format", "f", cfg.Format, "Export format (csv, xlsx, json, yaml, sqlite)")
	fs.String("delimiter", cfg.Delimiter, "Field delimiter for csv export")
	fs.Bool("privacy", cfg.Privacy, "Redact extracted values and passwords in logs")
	fs.String("password", cfg.Password, "Password for encrypted PDF files")
}

// Settings is the resolved key/value view of the configuration sources
type Settings struct {
	v *viper.Viper
}

// Get returns the resolved value of key, or def when no source sets it
func (s *Settings) Get(key string, def any) any {
	if s == nil || s.v == nil || !s.v.IsSet(key) {
		return def
	}
	return s.v.Get(key)
}

// All returns every resolved setting
func (s *Settings) All() map[string]any {
	if s == nil || s.v == nil {
		return map[string]any{}
	}
	return s.v.AllSettings()
}

// Load resolves the configuration from defaults, an optional config file,
// PDF_FIELDS_* environment variables and the flags in fs, in increasing order
// of precedence. fs may be nil.
func Load(fs *pflag.FlagSet, configFile string) (*Config, *Settings, error) {
	cfg := DefaultConfig()
	v := newViper(cfg)

	var fileCustom any
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
		raw, err := readCustomPatterns(configFile)
		if err != nil {
			return nil, nil, err
		}
		fileCustom = raw
	}

	if fs != nil {
		if err := bindFlags(v, fs); err != nil {
			return nil, nil, err
		}
	}

	settings := &Settings{v: v}
	if err := populate(cfg, settings, fileCustom); err != nil {
		return nil, nil, err
	}

	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, settings, nil
}

// newViper creates an isolated viper instance with defaults and environment
// lookup configured
func newViper(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyMode, cfg.Mode)
	v.SetDefault(KeyHost, cfg.Host)
	v.SetDefault(KeyPort, cfg.Port)
	v.SetDefault(KeyDir, cfg.PDFDirectory)
	v.SetDefault(KeyLogLevel, cfg.LogLevel)
	v.SetDefault(KeyLogFormat, cfg.LogFormat)
	v.SetDefault(KeyMaxFileSize, cfg.MaxFileSize)
	v.SetDefault(KeyPatternsFile, cfg.PatternsFile)
	v.SetDefault(KeyCatchAll, cfg.CatchAll)
	v.SetDefault(KeyIncludeRawText, cfg.IncludeRawText)
	v.SetDefault(KeyRawTextMaxLength, cfg.RawTextMaxLength)
	v.SetDefault(KeyWorkers, cfg.Workers)
	v.SetDefault(KeyOutput, cfg.Output)
	v.SetDefault(KeyFormat, cfg.Format)
	v.SetDefault(KeyDelimiter, cfg.Delimiter)
	v.SetDefault(KeyPrivacy, cfg.Privacy)
	v.SetDefault(KeyPassword, cfg.Password)
	return v
}

// bindFlags binds the flags present in fs to their setting keys
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, name := range flagNames {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// readCustomPatterns decodes the custom_patterns section of a YAML or JSON
// config file with its keys as written. Viper lowercases map keys, which
// would rename field identifiers such as member_ID. Other file types return
// nil and are served by viper.
func readCustomPatterns(configFile string) (any, error) {
	switch strings.ToLower(filepath.Ext(configFile)) {
	case ".yaml", ".yml", ".json":
	default:
		return nil, nil
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var doc struct {
		CustomPatterns map[string]any `yaml:"custom_patterns"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
	}
	if doc.CustomPatterns == nil {
		return nil, nil
	}
	return doc.CustomPatterns, nil
}

// populate fills the config struct with the resolved settings. fileCustom,
// when set, holds the key-preserving custom patterns of the config file.
func populate(cfg *Config, s *Settings, fileCustom any) error {
	v := s.v
	cfg.Mode = v.GetString(KeyMode)
	cfg.Host = v.GetString(KeyHost)
	cfg.Port = v.GetInt(KeyPort)
	cfg.PDFDirectory = v.GetString(KeyDir)
	cfg.LogLevel = v.GetString(KeyLogLevel)
	cfg.LogFormat = v.GetString(KeyLogFormat)
	cfg.MaxFileSize = v.GetInt64(KeyMaxFileSize)
	cfg.PatternsFile = v.GetString(KeyPatternsFile)
	cfg.CatchAll = v.GetBool(KeyCatchAll)
	cfg.IncludeRawText = v.GetBool(KeyIncludeRawText)
	cfg.RawTextMaxLength = v.GetInt(KeyRawTextMaxLength)
	cfg.Workers = v.GetInt(KeyWorkers)
	cfg.Output = v.GetString(KeyOutput)
	cfg.Format = strings.ToLower(v.GetString(KeyFormat))
	cfg.Delimiter = v.GetString(KeyDelimiter)
	cfg.Privacy = v.GetBool(KeyPrivacy)
	cfg.Password = v.GetString(KeyPassword)

	raw := fileCustom
	if raw == nil {
		raw = s.Get(KeyCustomPatterns, nil)
	}
	custom, err := patterns.FromSettings(raw)
	if err != nil {
		return fmt.Errorf("invalid %s setting: %w", KeyCustomPatterns, err)
	}
	cfg.CustomPatterns = custom
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Port only matters when listening
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	// A missing directory is allowed so that placeholder paths such as
	// ${workspaceRoot} survive until the client resolves them
	if _, err := os.Stat(c.PDFDirectory); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.RawTextMaxLength <= 0 {
		return errors.New("raw text maximum length must be positive")
	}

	if c.Workers <= 0 {
		return errors.New("workers must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.LogFormat)
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("invalid export format: %s (must be one of: csv, xlsx, json, yaml, sqlite)", c.Format)
	}

	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", c.Delimiter)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration. The password
// is never included.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, LogLevel: %s, MaxFileSize: %d, "+
		"Format: %s, Workers: %d, CatchAll: %t}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.LogLevel, c.MaxFileSize, c.Format, c.Workers, c.CatchAll)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
