package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Default values applied when the config file or environment leaves a key unset.
const (
	DefaultScheme     = "http"
	DefaultHost       = "127.0.0.1"
	DefaultPort       = "41184"
	DefaultNoteFormat = NoteFormatHTML
	DefaultTimeoutSec = 30
	DefaultMailbox    = "INBOX"
	DefaultIMAPPort   = "993"
)

// EnvPrefix is prepended to every environment override,
// e.g. MAIL2JOPLIN_JOPLIN_TOKEN for joplin.token.
const EnvPrefix = "MAIL2JOPLIN"

// JoplinConfig holds the connection and note settings for the Joplin
// Web Clipper service.
type JoplinConfig struct {
	Scheme string `mapstructure:"scheme" yaml:"scheme"`
	Host   string `mapstructure:"host" yaml:"host"`
	Port   string `mapstructure:"port" yaml:"port"`

	// Token is the Web Clipper authorization token. Usually left empty in
	// the file and kept in the system keyring instead.
	Token string `mapstructure:"token" yaml:"token"`

	// NoteFormat is the preferred body format: "text/html" or "text/plain".
	NoteFormat string `mapstructure:"note_format" yaml:"note_format"`

	// ParentFolder is the notebook id new notes are filed into.
	ParentFolder string `mapstructure:"parent_folder" yaml:"parent_folder"`

	// Tags is a comma separated list of tags added to every note.
	Tags string `mapstructure:"tags" yaml:"tags"`

	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// IMAPConfig describes the mailbox used by the IMAP mail source.
// The password is read from the system keyring.
type IMAPConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Mailbox  string `mapstructure:"mailbox" yaml:"mailbox"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`
}

// HistoryConfig controls the local submission history database.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Joplin  JoplinConfig  `mapstructure:"joplin" yaml:"joplin"`
	IMAP    IMAPConfig    `mapstructure:"imap" yaml:"imap"`
	History HistoryConfig `mapstructure:"history" yaml:"history"`
}

// ConfigDir returns ~/.config/mail2joplin, falling back to the working
// directory when the home directory is unknown.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "mail2joplin")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/mail2joplin/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultHistoryPath returns the default location of the history database.
func DefaultHistoryPath() string {
	return filepath.Join(ConfigDir(), "history.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Joplin: JoplinConfig{
			Scheme:     DefaultScheme,
			Host:       DefaultHost,
			Port:       DefaultPort,
			NoteFormat: DefaultNoteFormat,
			TimeoutSec: DefaultTimeoutSec,
		},
		IMAP: IMAPConfig{
			Port:    DefaultIMAPPort,
			Mailbox: DefaultMailbox,
			TLS:     true,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    DefaultHistoryPath(),
		},
	}
}

// newViper returns a viper instance bound to path with every known key
// defaulted, so that environment overrides apply to keys missing from the file.
func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("joplin.scheme", DefaultScheme)
	v.SetDefault("joplin.host", DefaultHost)
	v.SetDefault("joplin.port", DefaultPort)
	v.SetDefault("joplin.token", "")
	v.SetDefault("joplin.note_format", DefaultNoteFormat)
	v.SetDefault("joplin.parent_folder", "")
	v.SetDefault("joplin.tags", "")
	v.SetDefault("joplin.timeout_sec", DefaultTimeoutSec)
	v.SetDefault("imap.host", "")
	v.SetDefault("imap.port", DefaultIMAPPort)
	v.SetDefault("imap.username", "")
	v.SetDefault("imap.mailbox", DefaultMailbox)
	v.SetDefault("imap.tls", true)
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", DefaultHistoryPath())

	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper,
// then applies MAIL2JOPLIN_* environment overrides. If the file does not
// exist, defaults plus environment are returned.
func LoadConfig(path string) (*AppConfig, error) {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		_, pathErr := err.(*os.PathError)
		if !notFound && !pathErr {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Joplin.TimeoutSec <= 0 {
		cfg.Joplin.TimeoutSec = DefaultTimeoutSec
	}

	if cfg.Joplin.NoteFormat == "" {
		cfg.Joplin.NoteFormat = DefaultNoteFormat
	}
	format, err := ParseNoteFormat(cfg.Joplin.NoteFormat)
	if err != nil {
		return nil, fmt.Errorf("joplin.note_format in %s: %w", path, err)
	}
	cfg.Joplin.NoteFormat = format

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("joplin", cfg.Joplin)
	v.Set("imap", cfg.IMAP)
	v.Set("history", cfg.History)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
