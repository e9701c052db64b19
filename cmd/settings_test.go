package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/mail2joplin/internal/model"
)

func TestDisplayValue(t *testing.T) {
	tests := []struct {
		name      string
		setting   string
		value     string
		showToken bool
		want      string
	}{
		{"plain setting", model.SettingHost, "127.0.0.1", false, "127.0.0.1"},
		{"token masked", model.SettingToken, "abcdef123456", false, "********3456"},
		{"short token masked", model.SettingToken, "abc", false, "***"},
		{"token shown", model.SettingToken, "abcdef", true, "abcdef"},
		{"empty token", model.SettingToken, "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, displayValue(tt.setting, tt.value, tt.showToken))
		})
	}
}

func TestPrintSettings(t *testing.T) {
	var buf bytes.Buffer
	printSettings(&buf, []string{model.SettingHost, model.SettingToken, model.SettingTags}, map[string]string{
		model.SettingHost:  "127.0.0.1",
		model.SettingToken: "secret-token",
	}, false)

	out := buf.String()
	assert.Regexp(t, `joplinHost\s+127\.0\.0\.1`, out)
	assert.Contains(t, out, "********oken")
	assert.NotContains(t, out, "secret-token")
	assert.Contains(t, out, "(unset)")
}
