package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/layer-3/ethauth/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testApps = []core.AppConfig{
	{ID: "app-1", Name: "First App", RedirectURI: "https://first.example/callback"},
	{ID: "app-2", Name: "Second App", RedirectURI: "https://second.example/auth"},
}

func TestStatic(t *testing.T) {
	r, err := NewStatic(testApps)
	require.NoError(t, err)

	app, err := r.Lookup("app-1")
	require.NoError(t, err)
	assert.Equal(t, testApps[0], app)

	_, err = r.Lookup("app-3")
	assert.ErrorIs(t, err, core.ErrUnknownApp)

	_, err = r.Lookup("")
	assert.ErrorIs(t, err, core.ErrUnknownApp)

	assert.Equal(t, []string{"app-1", "app-2"}, r.IDs())
}

func TestNewStaticRejectsInvalidApps(t *testing.T) {
	tests := []struct {
		name string
		apps []core.AppConfig
	}{
		{"duplicate id", []core.AppConfig{testApps[0], testApps[0]}},
		{"empty id", []core.AppConfig{{Name: "x", RedirectURI: "https://x.example"}}},
		{"empty name", []core.AppConfig{{ID: "x", RedirectURI: "https://x.example"}}},
		{"relative redirect", []core.AppConfig{{ID: "x", Name: "x", RedirectURI: "/callback"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStatic(tt.apps)
			assert.ErrorIs(t, err, core.ErrConfiguration)
		})
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		path := writeFile(t, "appRegistry.json", `[
			{"id": "app-1", "name": "First App", "redirect_uri": "https://first.example/callback"},
			{"id": "app-2", "name": "Second App", "redirect_uri": "https://second.example/auth"}
		]`)

		r, err := LoadFile(path)
		require.NoError(t, err)
		app, err := r.Lookup("app-2")
		require.NoError(t, err)
		assert.Equal(t, testApps[1], app)
	})

	t.Run("yaml", func(t *testing.T) {
		path := writeFile(t, "apps.yaml", `
- id: app-1
  name: First App
  redirect_uri: https://first.example/callback
`)

		r, err := LoadFile(path)
		require.NoError(t, err)
		app, err := r.Lookup("app-1")
		require.NoError(t, err)
		assert.Equal(t, testApps[0], app)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := LoadFile(writeFile(t, "apps.json", `{"id": "app-1"}`))
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})
}

func TestLoadDB(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	t.Run("rows", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "name", "redirect_uri"}).
			AddRow("app-1", "First App", "https://first.example/callback").
			AddRow("app-2", "Second App", "https://second.example/auth")
		mock.ExpectQuery(regexp.QuoteMeta(selectApps)).WillReturnRows(rows)

		r, err := LoadDB(context.Background(), db)
		require.NoError(t, err)
		assert.Equal(t, []string{"app-1", "app-2"}, r.IDs())
	})

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(selectApps)).WillReturnError(errors.New("connection refused"))

		_, err := LoadDB(context.Background(), db)
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
