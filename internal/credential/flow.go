package credential

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/cli/browser"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var (
	// ErrAuthorizationDenied is returned when the provider redirects back with an error.
	ErrAuthorizationDenied = errors.New("authorization denied")
	// ErrStateMismatch is returned when the redirect carries an unexpected state.
	ErrStateMismatch = errors.New("oauth state mismatch")
)

const (
	successMessage  = "The authentication flow has completed. You may close this window."
	shutdownTimeout = 5 * time.Second
)

// FlowConfig configures the interactive authorization flow
type FlowConfig struct {
	// ClientSecretFile is the client JSON downloaded from the Cloud console.
	ClientSecretFile string
	Scopes           []string
	// Host and Port of the callback listener. Port 0 picks a free port.
	Host        string
	Port        int
	OpenBrowser bool
	// Out receives the instructions meant for the user.
	Out io.Writer
	Log logrus.FieldLogger
}

// LocalServerFlow is the OAuth2 installed-application flow: the user
// approves access in a browser and the provider redirects the code to
// a listener on the loopback interface.
type LocalServerFlow struct {
	cfg     FlowConfig
	openURL func(string) error
}

type callbackResult struct {
	code string
	err  error
}

// NewLocalServerFlow creates the interactive flow
func NewLocalServerFlow(cfg FlowConfig) *LocalServerFlow {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}

	return &LocalServerFlow{
		cfg:     cfg,
		openURL: browser.OpenURL,
	}
}

// Authorize blocks until the provider redirects back or ctx is done.
func (f *LocalServerFlow) Authorize(ctx context.Context) (*Record, error) {
	secret, err := os.ReadFile(f.cfg.ClientSecretFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read client secret file: %w", err)
	}

	oauthCfg, err := google.ConfigFromJSON(secret, f.cfg.Scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secret file: %w", err)
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(f.cfg.Host, strconv.Itoa(f.cfg.Port)))
	if err != nil {
		return nil, fmt.Errorf("failed to open callback listener: %w", err)
	}

	port := ln.Addr().(*net.TCPAddr).Port
	oauthCfg.RedirectURL = fmt.Sprintf("http://%s/", net.JoinHostPort(f.cfg.Host, strconv.Itoa(port)))

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	authURL := oauthCfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier),
	)

	results := make(chan callbackResult, 1)
	srv := &http.Server{Handler: callbackRouter(state, results)}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			f.cfg.Log.Errorf("Callback server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			f.cfg.Log.Warnf("Callback server shutdown error: %v", err)
		}
	}()

	f.cfg.Log.Debugf("Waiting for OAuth callback on %s", oauthCfg.RedirectURL)
	fmt.Fprintln(f.cfg.Out, "A browser window will open. Sign in with your PERSONAL Google account.")
	fmt.Fprintf(f.cfg.Out, "\nPlease visit this URL to authorize this application:\n%s\n\n", authURL)

	if f.cfg.OpenBrowser {
		if err := f.openURL(authURL); err != nil {
			f.cfg.Log.Warnf("Failed to open browser, open the URL manually: %v", err)
		}
	}

	var res callbackResult
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-results:
	}
	if res.err != nil {
		return nil, res.err
	}

	tok, err := oauthCfg.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	return newRecord(tok, oauthCfg), nil
}

// callbackRouter serves the redirect target. Only the first redirect
// carrying a code or an error is delivered.
func callbackRouter(state string, results chan<- callbackResult) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	var once sync.Once
	router.GET("/", func(c *gin.Context) {
		res, ok := parseCallback(c, state)
		if !ok {
			c.String(http.StatusBadRequest, "Missing authorization code.")
			return
		}

		once.Do(func() { results <- res })

		if res.err != nil {
			c.String(http.StatusBadRequest, "Authorization failed: %v", res.err)
			return
		}
		c.String(http.StatusOK, successMessage)
	})

	return router
}

func parseCallback(c *gin.Context, state string) (callbackResult, bool) {
	code := c.Query("code")
	errParam := c.Query("error")
	if code == "" && errParam == "" {
		return callbackResult{}, false
	}

	if errParam != "" {
		if desc := c.Query("error_description"); desc != "" {
			errParam += ": " + desc
		}
		return callbackResult{err: fmt.Errorf("%w: %s", ErrAuthorizationDenied, errParam)}, true
	}

	if c.Query("state") != state {
		return callbackResult{err: ErrStateMismatch}, true
	}

	return callbackResult{code: code}, true
}
