package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"workout-sheets-setup/internal/config"
	"workout-sheets-setup/internal/credential"
	"workout-sheets-setup/internal/spreadsheet"
)

var banner = strings.Repeat("=", 50)

// Run loads the configuration and provisions the spreadsheet
func Run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	cfg.Log.ConfigureLogging()

	return Provision(ctx, cfg, os.Stdout)
}

// Provision authenticates and creates the spreadsheet. Extra options are
// passed to the Sheets client after the credential.
func Provision(ctx context.Context, cfg *config.Config, out io.Writer, opts ...option.ClientOption) error {
	fmt.Fprintln(out, banner)
	fmt.Fprintln(out, "Workout App - Google Sheets Setup")
	fmt.Fprintln(out, banner)
	fmt.Fprintln(out)

	// Step 1: Authenticate
	manager, err := credential.NewManager(credential.ManagerConfig{
		Store:     credential.NewFileStore(cfg.OAuth.TokenFile),
		Refresher: credential.NewOAuth2Refresher(),
		Authorizer: credential.NewLocalServerFlow(credential.FlowConfig{
			ClientSecretFile: cfg.OAuth.ClientSecretFile,
			Scopes:           spreadsheet.Scopes,
			Host:             cfg.OAuth.CallbackHost,
			Port:             cfg.OAuth.CallbackPort,
			OpenBrowser:      cfg.OAuth.OpenBrowser,
			Out:              out,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create credential manager: %w", err)
	}

	rec, err := manager.Acquire(ctx)
	if err != nil {
		return err
	}
	logrus.WithField("token_file", cfg.OAuth.TokenFile).Debug("Credential ready")
	fmt.Fprintln(out, "✅ Authentication successful!")
	fmt.Fprintln(out)

	// Step 2: Create spreadsheet
	fmt.Fprintf(out, "Creating %s spreadsheet...\n", cfg.Sheets.Title)

	clientOpts := append([]option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(rec.Token())),
	}, opts...)
	creator, err := spreadsheet.NewCreator(ctx, cfg.Sheets.Title, clientOpts...)
	if err != nil {
		return err
	}

	ref, err := creator.Create(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\n✅ Created spreadsheet: %s\n", ref.Title)
	fmt.Fprintf(out, "📊 Spreadsheet ID: %s\n", ref.ID)
	fmt.Fprintf(out, "🔗 URL: %s\n", ref.URL)

	if err := spreadsheet.SaveReference(cfg.Sheets.ConfigFile, ref); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n✅ Config saved to %s\n", cfg.Sheets.ConfigFile)

	fmt.Fprintln(out)
	fmt.Fprintln(out, banner)
	fmt.Fprintln(out, "Setup complete! Your spreadsheet is ready.")
	fmt.Fprintln(out, banner)

	return nil
}
