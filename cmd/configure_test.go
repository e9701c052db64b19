package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mail2joplin/internal/credential"
	"github.com/nhle/mail2joplin/internal/model"
	"github.com/nhle/mail2joplin/internal/ui/configform"
)

// memoryKeyring stands in for the system keyring.
type memoryKeyring map[string]string

func (k memoryKeyring) set(key, value string) error {
	k[key] = value
	return nil
}

func (k memoryKeyring) del(key string) error {
	if _, ok := k[key]; !ok {
		return fmt.Errorf("deleting credential %q: %w", key, credential.ErrNotFound)
	}
	delete(k, key)
	return nil
}

func TestSaveSecrets_StoresIMAPPassword(t *testing.T) {
	ring := memoryKeyring{}
	values := &configform.Values{
		Token:        "tok",
		UseIMAP:      true,
		IMAPUsername: "me@example.com",
		IMAPPassword: "hunter2",
	}

	require.NoError(t, saveSecrets(values.Secrets(), ring.set))
	assert.Equal(t, memoryKeyring{
		credential.JoplinTokenKey:                    "tok",
		credential.IMAPPasswordKey("me@example.com"): "hunter2",
	}, ring)
}

func TestSaveSecrets_EmptyFieldsKeepStored(t *testing.T) {
	ring := memoryKeyring{credential.JoplinTokenKey: "old"}
	values := &configform.Values{UseIMAP: true, IMAPUsername: "me"}

	require.NoError(t, saveSecrets(values.Secrets(), ring.set))
	assert.Equal(t, memoryKeyring{credential.JoplinTokenKey: "old"}, ring)
}

func TestSaveSecrets_StopsOnError(t *testing.T) {
	var written []string
	set := func(key, _ string) error {
		written = append(written, key)
		return errors.New("locked")
	}
	values := &configform.Values{Token: "tok", UseIMAP: true, IMAPUsername: "me", IMAPPassword: "pw"}

	err := saveSecrets(values.Secrets(), set)
	require.Error(t, err)
	assert.Len(t, written, 1)
}

func TestResetSecrets(t *testing.T) {
	cfg := &model.AppConfig{IMAP: model.IMAPConfig{Username: "me"}}
	ring := memoryKeyring{
		credential.JoplinTokenKey:        "tok",
		credential.IMAPPasswordKey("me"): "pw",
		"unrelated":                      "x",
	}

	removed, err := resetSecrets(cfg, ring.del)
	require.NoError(t, err)
	assert.Equal(t, []string{credential.JoplinTokenKey, credential.IMAPPasswordKey("me")}, removed)
	assert.Equal(t, memoryKeyring{"unrelated": "x"}, ring)

	removed, err = resetSecrets(cfg, ring.del)
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestResetSecrets_Error(t *testing.T) {
	del := func(string) error { return errors.New("keyring locked") }

	_, err := resetSecrets(&model.AppConfig{}, del)
	assert.EqualError(t, err, "keyring locked")
}

func TestPrintReset(t *testing.T) {
	var buf bytes.Buffer
	printReset(&buf, nil)
	assert.Contains(t, buf.String(), "No stored credentials.")

	buf.Reset()
	printReset(&buf, []string{credential.JoplinTokenKey})
	assert.Contains(t, buf.String(), credential.JoplinTokenKey)
}
