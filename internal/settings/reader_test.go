package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mail2joplin/internal/credential"
	"github.com/nhle/mail2joplin/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func noSecrets(string) (string, error) {
	return "", credential.ErrNotFound
}

func TestReader_DefaultsWhenFileMissing(t *testing.T) {
	r := NewReader(filepath.Join(t.TempDir(), "missing.yaml"), WithSecrets(noSecrets))

	got := r.GetAll(model.SettingScheme, model.SettingHost, model.SettingPort, model.SettingNoteFormat)
	assert.Equal(t, map[string]string{
		model.SettingScheme:     "http",
		model.SettingHost:       "127.0.0.1",
		model.SettingPort:       "41184",
		model.SettingNoteFormat: "text/html",
	}, got)

	_, ok := r.Get(model.SettingToken)
	assert.False(t, ok)
}

func TestReader_FileValues(t *testing.T) {
	path := writeConfig(t, `
joplin:
  host: notes.local
  port: "8080"
  token: abc
  note_format: text/plain
  parent_folder: folder-1
  tags: work, urgent
`)
	r := NewReader(path, WithSecrets(noSecrets))

	v, ok := r.Get(model.SettingHost)
	require.True(t, ok)
	assert.Equal(t, "notes.local", v)

	s, err := r.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "http://notes.local:8080", s.BaseURL())
	assert.Equal(t, "abc", s.Token)
	assert.Equal(t, model.NoteFormatPlain, s.NoteFormat)
	assert.Equal(t, "folder-1", s.ParentFolder)
	assert.Equal(t, []string{"work", "urgent"}, s.UserTags())
}

func TestReader_RereadsOnEveryCall(t *testing.T) {
	path := writeConfig(t, "joplin:\n  host: first\n")
	r := NewReader(path, WithSecrets(noSecrets))

	v, _ := r.Get(model.SettingHost)
	assert.Equal(t, "first", v)

	require.NoError(t, os.WriteFile(path, []byte("joplin:\n  host: second\n"), 0o600))

	v, _ = r.Get(model.SettingHost)
	assert.Equal(t, "second", v)
}

func TestReader_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "joplin:\n  port: \"1111\"\n")
	t.Setenv("MAIL2JOPLIN_JOPLIN_PORT", "2222")
	t.Setenv("MAIL2JOPLIN_JOPLIN_TOKEN", "from-env")

	r := NewReader(path, WithSecrets(noSecrets))
	got := r.GetAll(model.SettingPort, model.SettingToken)

	assert.Equal(t, "2222", got[model.SettingPort])
	assert.Equal(t, "from-env", got[model.SettingToken])
}

func TestReader_TokenFallsBackToKeyring(t *testing.T) {
	tests := []struct {
		name   string
		config string
		secret SecretFunc
		want   string
	}{
		{
			name:   "keyring used when file token empty",
			config: "joplin:\n  host: h\n",
			secret: func(key string) (string, error) {
				assert.Equal(t, credential.JoplinTokenKey, key)
				return "from-keyring", nil
			},
			want: "from-keyring",
		},
		{
			name:   "file token wins",
			config: "joplin:\n  token: from-file\n",
			secret: func(string) (string, error) {
				t.Fatal("keyring must not be consulted")
				return "", nil
			},
			want: "from-file",
		},
		{
			name:   "keyring error yields empty token",
			config: "joplin:\n  host: h\n",
			secret: func(string) (string, error) {
				return "", errors.New("locked")
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(writeConfig(t, tt.config), WithSecrets(tt.secret))
			s, err := r.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Token)
		})
	}
}

func TestReader_UnknownName(t *testing.T) {
	r := NewReader(writeConfig(t, ""), WithSecrets(noSecrets))

	_, ok := r.Get("nope")
	assert.False(t, ok)
	assert.Equal(t, map[string]string{"nope": ""}, r.GetAll("nope"))
}

func TestLoadDotEnv(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MAIL2JOPLIN_TEST_DOTENV=yes\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("MAIL2JOPLIN_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "yes", os.Getenv("MAIL2JOPLIN_TEST_DOTENV"))
}

func TestReader_GetAllDefaultsToEverySetting(t *testing.T) {
	r := NewReader(writeConfig(t, "joplin:\n  tags: mail\n"), WithSecrets(noSecrets))

	got := r.GetAll()
	assert.Len(t, got, len(model.AllSettings))
	for _, name := range model.AllSettings {
		assert.Contains(t, got, name)
	}
	assert.Equal(t, "mail", got[model.SettingTags])
	assert.Equal(t, "", got[model.SettingToken])
}

func TestReader_InvalidNoteFormat(t *testing.T) {
	r := NewReader(writeConfig(t, "joplin:\n  note_format: html\n"), WithSecrets(noSecrets))
	s, err := r.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.NoteFormatHTML, s.NoteFormat)

	r = NewReader(writeConfig(t, "joplin:\n  note_format: markdown\n"), WithSecrets(noSecrets))
	_, err = r.Load(context.Background())
	require.Error(t, err)

	_, ok := r.Get(model.SettingNoteFormat)
	assert.False(t, ok)
}
