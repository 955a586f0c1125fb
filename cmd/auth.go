package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/songdl/internal/server"
	"github.com/desertthunder/songdl/internal/services"
	"github.com/desertthunder/songdl/internal/session"
	"github.com/desertthunder/songdl/internal/shared"
	"github.com/urfave/cli/v3"
)

const loginTimeout = 2 * time.Minute

// AuthLogin signs in through the browser.
//
// Starts a local callback server, opens the login page and stores the credential it sends back.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCredentials(); err != nil {
		return err
	}

	credential, err := r.doLogin(ctx, !cmd.Bool("no-browser"))
	if err != nil {
		return err
	}

	if err := r.session.SignIn(ctx, credential); err != nil {
		return err
	}

	r.writePlainln("✓ Signed in")
	r.writePlain("%s\n", session.QuotaMessage(r.session.Quota().Snapshot()))
	return nil
}

// loginURL builds the login page address carrying the callback and state.
func (r *Runner) loginURL(callback, state string) (string, error) {
	u, err := url.Parse(r.config.Auth.LoginURL)
	if err != nil {
		return "", fmt.Errorf("%w: auth.login_url: %v", shared.ErrInvalidConfig, err)
	}
	q := u.Query()
	q.Set("redirect_uri", callback)
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// doLogin executes the browser round trip with a local HTTP server
func (r *Runner) doLogin(ctx context.Context, openBrowser bool) (string, error) {
	state := shared.GenerateID()

	handler := server.NewCallbackHandler(state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger), server.AllowOrigin(r.config.Service.Origin))
	router.Handler(handler)

	serverAddr := r.config.CallbackAddr()
	httpServer := server.NewServer(serverAddr, router)
	r.logger.Debug("callback routes", "routes", router.Routes())

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting callback server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	loginURL, err := r.loginURL(fmt.Sprintf("http://%s/callback", serverAddr), state)
	if err != nil {
		return "", err
	}

	if openBrowser {
		r.writePlain("→ Opening browser to sign in...\n")
		if err := shared.OpenBrowser(loginURL); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			r.writePlain("Please open this URL in your browser:\n%s\n\n", loginURL)
		}
	} else {
		r.writePlain("Open this URL in your browser:\n%s\n\n", loginURL)
	}

	r.writePlain("→ Waiting for sign-in (2 minute timeout)...\n")

	timeout := time.NewTimer(loginTimeout)
	defer timeout.Stop()

	var result server.CallbackResult

	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		return "", fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return "", fmt.Errorf("%w: sign-in timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if result.Error() != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrAuthFailed, result.Error())
	}

	if result.Token == nil || result.Token.AccessToken == "" {
		return "", fmt.Errorf("%w: no credential received", shared.ErrAuthFailed)
	}

	return result.Token.AccessToken, nil
}

// AuthLogout abandons transfers, closes playback and removes the stored credential.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCredentials(); err != nil {
		return err
	}
	if err := r.session.SignOut(); err != nil {
		return err
	}
	return r.writePlain("✓ Signed out\n")
}

// AuthImport stores the credential found in a browser "Copy as cURL" command.
func (r *Runner) AuthImport(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCredentials(); err != nil {
		return err
	}

	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}
	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	var curlHeaders *shared.CurlHeaders
	var err error
	if curlFile != "" {
		curlHeaders, err = shared.ParseCurlFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		curlHeaders, err = shared.ParseCurlCommand(curlCmd)
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}

	credential, err := curlHeaders.Credential()
	if err != nil {
		return err
	}

	if err := r.session.SignIn(ctx, credential); err != nil {
		return err
	}

	r.writePlain("✓ Credential imported\n")
	return r.writePlain("%s\n", session.QuotaMessage(r.session.Quota().Snapshot()))
}

// AuthStatus checks service health, then the signed-in account and its quota.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking auth status")

	r.writePlainHeader("songdl status")
	r.writePlain("Service: %s\n", r.gateway.BaseURL())

	if err := r.session.Songs().Health(ctx); err != nil {
		r.writePlain("Health: ✗ %s\n", services.UserMessage(err))
		return fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
	}
	r.writePlain("Health: ✓ Service is healthy\n")

	if !r.session.Capabilities().SignedIn {
		return r.writePlain("Authentication: ✗ Not signed in\n")
	}

	profile, err := r.session.Profile(ctx)
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
		return r.writePlain("Authentication: ✗ Credential rejected, run 'songdl auth login'\n")
	case err != nil:
		return err
	}

	r.writePlain("Authentication: ✓ %s (%s)\n", profile.Username, profile.Tier)
	if err := r.session.RefreshQuota(ctx); err != nil {
		r.logger.Warn("could not load quota", "error", err)
	}
	return r.writePlain("Quota: %s\n", session.QuotaMessage(r.session.Quota().Snapshot()))
}
