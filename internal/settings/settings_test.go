package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeSettings(t testing.TB, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeSettings(t, t.TempDir(), "progress_settings.json", `{
		"login": "runner@example.com",
		"password": "hunter2",
		"goal": 1000
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, Settings{
		Login:    "runner@example.com",
		Password: "hunter2",
		Goal:     1000,
	}, cfg)
}

func TestLoadLocalOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeSettings(t, dir, "progress_settings.json", `{"login": "runner@example.com", "goal": 1200.5}`)
	writeSettings(t, dir, "progress_settings.local.json", `{"password": "from-local", "timezone": "Europe/Helsinki"}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "from-local", cfg.Password)
	require.Equal(t, 1200.5, cfg.Goal)
	require.Equal(t, "Europe/Helsinki", cfg.Timezone)
}

func TestLoadLocalOverrideInvalid(t *testing.T) {
	table := []struct {
		name  string
		local string
		field string
	}{
		{name: "zero goal", local: `{"goal": 0}`, field: "goal"},
		{name: "empty password", local: `{"password": ""}`, field: "password"},
	}

	for _, row := range table {
		t.Run(row.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeSettings(t, dir, "progress_settings.json", `{"login": "a", "password": "b", "goal": 1000}`)
			writeSettings(t, dir, "progress_settings.local.json", row.local)

			_, err := Load(path)
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			require.Equal(t, row.field, cfgErr.Field)
		})
	}
}

func TestLoadYaml(t *testing.T) {
	path := writeSettings(t, t.TempDir(), "progress_settings.yaml", "login: runner\npassword: pw\ngoal: 750\nbase_url: http://localhost:8080\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 750.0, cfg.Goal)
	require.Equal(t, "http://localhost:8080", cfg.BaseUrl)
}

func TestLoadErrors(t *testing.T) {
	table := []struct {
		name     string
		contents string
		field    string
	}{
		{name: "missing goal", contents: `{"login": "a", "password": "b"}`, field: "goal"},
		{name: "missing login", contents: `{"password": "b", "goal": 10}`, field: "login"},
		{name: "empty password", contents: `{"login": "a", "password": "", "goal": 10}`, field: "password"},
		{name: "zero goal", contents: `{"login": "a", "password": "b", "goal": 0}`, field: "goal"},
		{name: "negative goal", contents: `{"login": "a", "password": "b", "goal": -5}`, field: "goal"},
		{name: "malformed", contents: `{"login": `},
		{name: "goal is a string", contents: `{"login": "a", "password": "b", "goal": "far"}`},
	}

	for _, row := range table {
		t.Run(row.name, func(t *testing.T) {
			path := writeSettings(t, t.TempDir(), "progress_settings.json", row.contents)

			_, err := Load(path)
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			require.Equal(t, row.field, cfgErr.Field)
			require.Equal(t, path, cfgErr.Path)
			if row.field != "" {
				require.Contains(t, err.Error(), row.field)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "progress_settings.json"))
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	require.ErrorIs(t, err, os.ErrNotExist)
}
