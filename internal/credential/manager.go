// Package credential obtains and persists the OAuth2 credential used to
// call Google APIs on the user's behalf.
//
// A stored credential is reused while valid, refreshed silently once it
// has expired, and replaced through the interactive browser flow when
// there is nothing to refresh.
package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// Authorizer mints a brand new credential, usually with user interaction.
type Authorizer interface {
	Authorize(ctx context.Context) (*Record, error)
}

// ManagerConfig configures a Manager
type ManagerConfig struct {
	Store      Store
	Refresher  Refresher
	Authorizer Authorizer
	// Clock defaults to the real clock.
	Clock clockwork.Clock
	// Log defaults to the standard logrus logger.
	Log logrus.FieldLogger
}

// Manager decides between reusing, refreshing and re-authorizing.
type Manager struct {
	store      Store
	refresher  Refresher
	authorizer Authorizer
	clock      clockwork.Clock
	log        logrus.FieldLogger
}

// NewManager creates a new credential manager
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Store == nil || cfg.Refresher == nil || cfg.Authorizer == nil {
		return nil, fmt.Errorf("store, refresher and authorizer are required")
	}

	m := &Manager{
		store:      cfg.Store,
		refresher:  cfg.Refresher,
		authorizer: cfg.Authorizer,
		clock:      cfg.Clock,
		log:        cfg.Log,
	}
	if m.clock == nil {
		m.clock = clockwork.NewRealClock()
	}
	if m.log == nil {
		m.log = logrus.StandardLogger()
	}

	return m, nil
}

// Acquire returns a usable credential. A stored valid credential is
// returned as is; anything newly minted or refreshed is saved before
// it is returned.
func (m *Manager) Acquire(ctx context.Context) (*Record, error) {
	rec, err := m.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("failed to load credential: %w", err)
		}
		rec = nil
	}

	now := m.clock.Now()
	if rec.Valid(now) {
		m.log.Debug("Using stored credential")
		return rec, nil
	}

	var next *Record
	if rec != nil && rec.Expired(now) && rec.RefreshToken != "" {
		m.log.Info("Refreshing expired token...")
		next, err = m.refresher.Refresh(ctx, rec)
		if err != nil {
			return nil, err
		}
	} else {
		m.log.Info("Starting OAuth flow...")
		next, err = m.authorizer.Authorize(ctx)
		if err != nil {
			return nil, fmt.Errorf("authorization failed: %w", err)
		}
	}

	if err := m.store.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to save credential: %w", err)
	}
	m.log.Info("Credentials saved")

	return next, nil
}
