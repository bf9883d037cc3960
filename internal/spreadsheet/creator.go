package spreadsheet

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

// Creator creates the spreadsheet through the Sheets v4 API
type Creator struct {
	service *sheets.Service
	title   string
	tabs    []Tab
}

// NewCreator creates a Sheets API client. Callers pass the credential as
// a client option, e.g. option.WithTokenSource.
func NewCreator(ctx context.Context, title string, opts ...option.ClientOption) (*Creator, error) {
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}

	return &Creator{
		service: service,
		title:   title,
		tabs:    Schema,
	}, nil
}

// Create creates the spreadsheet and returns its identifiers exactly as
// the API reported them.
func (c *Creator) Create(ctx context.Context) (*Reference, error) {
	body := Build(c.title, c.tabs)

	logrus.WithFields(logrus.Fields{
		"title":  c.title,
		"sheets": len(body.Sheets),
	}).Debug("Creating spreadsheet")

	resp, err := c.service.Spreadsheets.Create(body).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create spreadsheet: %w", err)
	}

	ref := &Reference{
		ID:  resp.SpreadsheetId,
		URL: resp.SpreadsheetUrl,
	}
	if resp.Properties != nil {
		ref.Title = resp.Properties.Title
	}

	return ref, nil
}
