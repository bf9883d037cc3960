package credential

import (
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// expiryDelta is how early an access token is treated as expired.
const expiryDelta = 10 * time.Second

// Record is the persisted OAuth2 credential. The JSON layout follows
// Google's "authorized user" file so tokens written by other Google
// client libraries load unchanged.
type Record struct {
	// AccessToken authorizes API calls until Expiry.
	AccessToken string `json:"token"`
	// RefreshToken mints new access tokens without user interaction.
	RefreshToken string `json:"refresh_token,omitempty"`
	// TokenURI is the endpoint used to redeem RefreshToken.
	TokenURI     string    `json:"token_uri,omitempty"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret,omitempty"`
	Scopes       []string  `json:"scopes,omitempty"`
	Expiry       time.Time `json:"expiry"`
}

// Expired reports whether the access token has expired at now. A record
// without an expiry never expires.
func (r *Record) Expired(now time.Time) bool {
	if r.Expiry.IsZero() {
		return false
	}
	return !now.Before(r.Expiry.Add(-expiryDelta))
}

// Valid reports whether the record can authorize API calls at now.
func (r *Record) Valid(now time.Time) bool {
	return r != nil && r.AccessToken != "" && !r.Expired(now)
}

// Token converts the record to an oauth2 token.
func (r *Record) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  r.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: r.RefreshToken,
		Expiry:       r.Expiry,
	}
}

// Endpoint returns the token endpoint the record refreshes against.
func (r *Record) Endpoint() oauth2.Endpoint {
	tokenURL := r.TokenURI
	if tokenURL == "" {
		tokenURL = google.Endpoint.TokenURL
	}
	return oauth2.Endpoint{
		AuthURL:   google.Endpoint.AuthURL,
		TokenURL:  tokenURL,
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

// newRecord builds a record from a freshly issued token. Scopes granted
// by the server take precedence over the requested ones.
func newRecord(tok *oauth2.Token, cfg *oauth2.Config) *Record {
	scopes := cfg.Scopes
	if granted, ok := tok.Extra("scope").(string); ok && granted != "" {
		scopes = strings.Fields(granted)
	}

	return &Record{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenURI:     cfg.Endpoint.TokenURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       scopes,
		Expiry:       tok.Expiry.UTC(),
	}
}
