package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"workout-sheets-setup/internal/config"
	"workout-sheets-setup/internal/credential"
)

func testConfig(dir string) *config.Config {
	return &config.Config{
		OAuth: config.OAuthConfig{
			ClientSecretFile: filepath.Join(dir, "client_secret.json"),
			TokenFile:        filepath.Join(dir, "token.json"),
			CallbackHost:     "127.0.0.1",
		},
		Sheets: config.SheetsConfig{
			Title:      "Workout App Database",
			ConfigFile: filepath.Join(dir, "sheets_config.json"),
		},
		Log: config.LogConfig{Level: "info", Format: "text"},
	}
}

func writeToken(t *testing.T, path string, rec *credential.Record) {
	require.NoError(t, credential.NewFileStore(path).Save(context.Background(), rec))
}

func newSheetsServer(t *testing.T, status int) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error": {"code": 500, "message": "backend error"}}`)
			return
		}
		fmt.Fprint(w, `{"spreadsheetId": "sheet-123", `+
			`"spreadsheetUrl": "https://docs.google.com/spreadsheets/d/sheet-123/edit", `+
			`"properties": {"title": "Workout App Database"}}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProvisionWithStoredToken(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)

	stored := &credential.Record{
		AccessToken:  "valid-access-token",
		RefreshToken: "refresh-token",
		ClientID:     "client",
		Expiry:       time.Now().Add(time.Hour).UTC(),
	}
	writeToken(t, cfg.OAuth.TokenFile, stored)
	before, err := os.ReadFile(cfg.OAuth.TokenFile)
	require.NoError(t, err)

	srv := newSheetsServer(t, http.StatusOK)

	var out bytes.Buffer
	err = Provision(context.Background(), cfg, &out,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	// a valid token is neither refreshed nor rewritten
	after, err := os.ReadFile(cfg.OAuth.TokenFile)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	payload, err := os.ReadFile(cfg.Sheets.ConfigFile)
	require.NoError(t, err)
	var ref map[string]string
	require.NoError(t, json.Unmarshal(payload, &ref))
	assert.Equal(t, "sheet-123", ref["spreadsheet_id"])
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/sheet-123/edit", ref["spreadsheet_url"])

	assert.Contains(t, out.String(), "Spreadsheet ID: sheet-123")
	assert.Contains(t, out.String(), "Setup complete!")
}

func TestProvisionCreateFailureKeepsRefreshedToken(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)

	var refreshes int
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refreshes++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token": "refreshed-access-token", "expires_in": 3599, "token_type": "Bearer"}`)
	}))
	defer tokenSrv.Close()

	writeToken(t, cfg.OAuth.TokenFile, &credential.Record{
		AccessToken:  "stale-access-token",
		RefreshToken: "refresh-token",
		TokenURI:     tokenSrv.URL,
		ClientID:     "client",
		ClientSecret: "secret",
		Expiry:       time.Now().Add(-time.Hour).UTC(),
	})

	srv := newSheetsServer(t, http.StatusInternalServerError)

	err := Provision(context.Background(), cfg, &bytes.Buffer{},
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.Error(t, err)
	assert.Equal(t, 1, refreshes)

	rec, err := credential.NewFileStore(cfg.OAuth.TokenFile).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refreshed-access-token", rec.AccessToken)
	assert.Equal(t, "refresh-token", rec.RefreshToken)

	_, err = os.Stat(cfg.Sheets.ConfigFile)
	assert.True(t, os.IsNotExist(err))
}
