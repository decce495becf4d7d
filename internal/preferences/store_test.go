package preferences

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testPreferences = `
defaults:
  theme: light
  language: en
users:
  u1:
    theme: dark
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "preferences.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestGetPreferences(t *testing.T) {
	store := NewFileStore(writeFile(t, testPreferences))

	tests := []struct {
		name   string
		userID string
		want   map[string]string
	}{
		{
			name:   "user overrides defaults",
			userID: "u1",
			want:   map[string]string{"theme": "dark", "language": "en"},
		},
		{
			name:   "unknown user gets defaults",
			userID: "u2",
			want:   map[string]string{"theme": "light", "language": "en"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.GetPreferences(context.TODO(), tt.userID)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestGetPreferencesWithoutFile(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.yaml")} {
		got, err := NewFileStore(path).GetPreferences(context.TODO(), "u1")
		require.NoError(t, err)
		require.Empty(t, got)
	}
}

func TestGetPreferencesInvalidYAML(t *testing.T) {
	store := NewFileStore(writeFile(t, "users: [not, a, map"))

	_, err := store.GetPreferences(context.TODO(), "u1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "error parsing preferences")
}
