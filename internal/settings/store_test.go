package settings_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/docsense/internal/settings"
)

func TestOpenDefaults(t *testing.T) {
	st, err := settings.Open(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)

	cur := st.Current()
	assert.Empty(t, cur.APIKey)
	assert.Equal(t, "gpt-4o-2024-08-06", cur.Model)
	assert.Equal(t, 4096, cur.MaxTokens)
	assert.True(t, cur.AutoDeleteUploads)
	assert.Equal(t, 30, cur.RetentionDays)
	assert.False(t, st.APIConfigured())
}

func TestApplyPersistsPartialUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	st, err := settings.Open(path)
	require.NoError(t, err)

	key := "sk-live-0123456789abcdef"
	tokens := 2048
	require.NoError(t, st.Apply(settings.Update{APIKey: &key, MaxTokens: &tokens}))

	// unset fields keep their values
	cur := st.Current()
	assert.Equal(t, key, cur.APIKey)
	assert.Equal(t, 2048, cur.MaxTokens)
	assert.Equal(t, "gpt-4o-2024-08-06", cur.Model)

	// a fresh open reads the flushed file
	st2, err := settings.Open(path)
	require.NoError(t, err)
	assert.Equal(t, key, st2.Current().APIKey)
	assert.True(t, st2.APIConfigured())
}

func TestCredential(t *testing.T) {
	st, err := settings.Open(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)

	_, err = st.Credential()
	assert.ErrorIs(t, err, settings.ErrNotConfigured)

	key := "sk-live-0123456789abcdef"
	require.NoError(t, st.Apply(settings.Update{APIKey: &key}))

	cred, err := st.Credential()
	require.NoError(t, err)
	assert.Equal(t, key, cred.APIKey)
	assert.Equal(t, "gpt-4o-2024-08-06", cred.Model)
	assert.Equal(t, 4096, cred.MaxTokens)
}

func TestMasked(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		masked string
		set    bool
	}{
		{name: "no key", key: "", masked: "", set: false},
		{name: "short key", key: "sk-short", masked: "***configured***", set: true},
		{name: "long key", key: "sk-live-0123456789abcdef", masked: "sk-live-...cdef", set: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := settings.Open(filepath.Join(t.TempDir(), "settings.json"))
			require.NoError(t, err)
			if tt.key != "" {
				require.NoError(t, st.Apply(settings.Update{APIKey: &tt.key}))
			}
			m := st.Masked()
			assert.Equal(t, tt.masked, m["api_key"])
			assert.Equal(t, tt.set, m["api_key_set"])
		})
	}
}
