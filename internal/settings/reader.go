// Package settings reads the Joplin settings used by a submission from the
// config file, the environment and the system keyring.
package settings

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/nhle/mail2joplin/internal/credential"
	"github.com/nhle/mail2joplin/internal/model"
)

// SecretFunc looks up a secret by keyring key.
type SecretFunc func(key string) (string, error)

// Reader resolves setting names against the configuration. It holds no
// state of its own: every call re-reads the file and environment.
type Reader struct {
	path   string
	secret SecretFunc
	logger *zap.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithSecrets replaces the keyring lookup used for the API token.
func WithSecrets(fn SecretFunc) Option {
	return func(r *Reader) { r.secret = fn }
}

// WithLogger sets the logger used for keyring diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(r *Reader) { r.logger = l }
}

// NewReader returns a Reader for the config file at path.
func NewReader(path string, opts ...Option) *Reader {
	r := &Reader{
		path:   path,
		secret: credential.Get,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadDotEnv loads KEY=VALUE pairs from a .env file into the process
// environment without overriding variables that are already set.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Get returns the value of a single setting. The boolean is false for
// unknown names and for settings that resolve to an empty string.
func (r *Reader) Get(name string) (string, bool) {
	values, err := r.read()
	if err != nil {
		r.logger.Warn("reading settings", zap.String("setting", name), zap.Error(err))
		return "", false
	}
	v, ok := values[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// GetAll returns the requested settings, or every known setting when no
// name is given. Unknown or unset names map to "".
func (r *Reader) GetAll(names ...string) map[string]string {
	if len(names) == 0 {
		names = model.AllSettings
	}
	out := make(map[string]string, len(names))

	values, err := r.read()
	if err != nil {
		r.logger.Warn("reading settings", zap.Error(err))
	}
	for _, name := range names {
		out[name] = values[name]
	}
	return out
}

// Load reads every setting once and returns a typed snapshot.
func (r *Reader) Load(_ context.Context) (*model.Settings, error) {
	cfg, err := model.LoadConfig(r.path)
	if err != nil {
		return nil, err
	}

	s := &model.Settings{
		Scheme:       cfg.Joplin.Scheme,
		Host:         cfg.Joplin.Host,
		Port:         cfg.Joplin.Port,
		Token:        r.token(cfg.Joplin.Token),
		NoteFormat:   cfg.Joplin.NoteFormat,
		ParentFolder: cfg.Joplin.ParentFolder,
		Tags:         cfg.Joplin.Tags,
		TimeoutSec:   cfg.Joplin.TimeoutSec,
	}
	return s, nil
}

// read loads the configuration and flattens it into setting names.
func (r *Reader) read() (map[string]string, error) {
	cfg, err := model.LoadConfig(r.path)
	if err != nil {
		return nil, err
	}

	return map[string]string{
		model.SettingScheme:       cfg.Joplin.Scheme,
		model.SettingHost:         cfg.Joplin.Host,
		model.SettingPort:         cfg.Joplin.Port,
		model.SettingToken:        r.token(cfg.Joplin.Token),
		model.SettingNoteFormat:   cfg.Joplin.NoteFormat,
		model.SettingParentFolder: cfg.Joplin.ParentFolder,
		model.SettingTags:         cfg.Joplin.Tags,
	}, nil
}

// token prefers the configured value and falls back to the keyring.
func (r *Reader) token(configured string) string {
	if configured != "" || r.secret == nil {
		return configured
	}

	tok, err := r.secret(credential.JoplinTokenKey)
	if err != nil {
		if !errors.Is(err, credential.ErrNotFound) {
			r.logger.Debug("keyring lookup failed", zap.Error(err))
		}
		return ""
	}
	return tok
}
