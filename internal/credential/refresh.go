package credential

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// Refresher redeems a record's refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, rec *Record) (*Record, error)
}

// OAuth2Refresher refreshes against the token endpoint stored in the
// record, using the client credentials stored alongside it.
type OAuth2Refresher struct{}

// NewOAuth2Refresher creates a refresher
func NewOAuth2Refresher() *OAuth2Refresher {
	return &OAuth2Refresher{}
}

// Refresh returns a new record with the access token and expiry replaced.
// The input record is left untouched.
func (r *OAuth2Refresher) Refresh(ctx context.Context, rec *Record) (*Record, error) {
	if rec.RefreshToken == "" {
		return nil, fmt.Errorf("credential has no refresh token")
	}

	cfg := &oauth2.Config{
		ClientID:     rec.ClientID,
		ClientSecret: rec.ClientSecret,
		Endpoint:     rec.Endpoint(),
		Scopes:       rec.Scopes,
	}

	tok, err := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: rec.RefreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh access token: %w", err)
	}

	next := *rec
	next.Scopes = append([]string(nil), rec.Scopes...)
	next.AccessToken = tok.AccessToken
	next.Expiry = tok.Expiry.UTC()
	if tok.RefreshToken != "" {
		next.RefreshToken = tok.RefreshToken
	}

	return &next, nil
}
