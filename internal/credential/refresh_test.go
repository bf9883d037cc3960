package credential

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenServer(t *testing.T, rotate bool, calls *int) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "my-refresh-token", r.PostForm.Get("refresh_token"))
		assert.Equal(t, "my-client", r.PostForm.Get("client_id"))
		assert.Equal(t, "my-secret", r.PostForm.Get("client_secret"))

		refresh := ""
		if rotate {
			refresh = `"refresh_token": "rotated-refresh-token",`
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token": "fresh-access-token", %s "expires_in": 3599, "token_type": "Bearer"}`, refresh)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOAuth2RefresherRefresh(t *testing.T) {
	expired := func(tokenURI string) *Record {
		return &Record{
			AccessToken:  "stale-access-token",
			RefreshToken: "my-refresh-token",
			TokenURI:     tokenURI,
			ClientID:     "my-client",
			ClientSecret: "my-secret",
			Scopes:       []string{"scope-a", "scope-b"},
			Expiry:       time.Now().Add(-time.Hour),
		}
	}

	t.Run("KeepsRefreshToken", func(t *testing.T) {
		var calls int
		srv := newTokenServer(t, false, &calls)
		rec := expired(srv.URL)

		next, err := NewOAuth2Refresher().Refresh(context.Background(), rec)
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Equal(t, "fresh-access-token", next.AccessToken)
		assert.Equal(t, "my-refresh-token", next.RefreshToken)
		assert.Equal(t, rec.ClientID, next.ClientID)
		assert.Equal(t, rec.Scopes, next.Scopes)
		assert.True(t, next.Valid(time.Now()))
		assert.Equal(t, "stale-access-token", rec.AccessToken)
	})

	t.Run("RotatedRefreshToken", func(t *testing.T) {
		var calls int
		srv := newTokenServer(t, true, &calls)

		next, err := NewOAuth2Refresher().Refresh(context.Background(), expired(srv.URL))
		require.NoError(t, err)
		assert.Equal(t, "rotated-refresh-token", next.RefreshToken)
	})

	t.Run("Rejected", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error": "invalid_grant", "error_description": "Token has been expired or revoked."}`)
		}))
		defer srv.Close()

		_, err := NewOAuth2Refresher().Refresh(context.Background(), expired(srv.URL))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid_grant")
	})

	t.Run("NoRefreshToken", func(t *testing.T) {
		rec := expired("http://127.0.0.1:0")
		rec.RefreshToken = ""

		_, err := NewOAuth2Refresher().Refresh(context.Background(), rec)
		require.Error(t, err)
	})
}

func TestRecordEndpointDefaultsToGoogle(t *testing.T) {
	rec := &Record{}
	assert.Equal(t, "https://oauth2.googleapis.com/token", rec.Endpoint().TokenURL)
}
