// Package auth drives the sign-in lifecycle: the OIDC authorization-code
// flow against the identity provider, the backend sign-in exchange that
// yields the CSRF token, and the reverse edges on logout or a detected
// invalid session.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/contractintel/cip-client/internal/config"
)

// Flow runs the OIDC authorization-code flow with PKCE. The provider
// redirect lands on a loopback listener; the resulting ID token is handed
// to the backend sign-in exchange and never kept afterwards.
type Flow struct {
	cfg        config.OIDCConfig
	httpClient *http.Client

	// OpenURL sends the user to the provider's authorization page. The
	// default prints the URL for the user to open manually.
	OpenURL func(url string) error
}

// NewFlow creates a flow for the configured provider.
func NewFlow(cfg config.OIDCConfig) *Flow {
	return &Flow{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		OpenURL: func(url string) error {
			fmt.Printf("Open the following URL to sign in:\n\n  %s\n\n", url)
			return nil
		},
	}
}

type discoveryDocument struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
}

// discover resolves the provider's endpoints from its well-known
// configuration document.
func (f *Flow) discover(ctx context.Context) (oauth2.Endpoint, error) {
	url := f.cfg.Issuer + "/.well-known/openid-configuration"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return oauth2.Endpoint{}, err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return oauth2.Endpoint{}, fmt.Errorf("oidc discovery: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return oauth2.Endpoint{}, fmt.Errorf("oidc discovery: unexpected status %d", resp.StatusCode)
	}
	var doc discoveryDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return oauth2.Endpoint{}, fmt.Errorf("oidc discovery: %w", err)
	}
	if doc.AuthorizationEndpoint == "" || doc.TokenEndpoint == "" {
		return oauth2.Endpoint{}, fmt.Errorf("oidc discovery: document missing endpoints")
	}
	return oauth2.Endpoint{AuthURL: doc.AuthorizationEndpoint, TokenURL: doc.TokenEndpoint}, nil
}

type callbackResult struct {
	code string
	err  error
}

// Authorize runs the full code flow and returns the provider-issued ID
// token. It blocks until the provider redirects back to the loopback
// listener or the context is canceled.
func (f *Flow) Authorize(ctx context.Context) (string, error) {
	endpoint, err := f.discover(ctx)
	if err != nil {
		return "", err
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", f.cfg.CallbackPort))
	if err != nil {
		return "", fmt.Errorf("callback listener: %w", err)
	}
	defer listener.Close()

	oc := &oauth2.Config{
		ClientID:     f.cfg.ClientID,
		ClientSecret: f.cfg.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  fmt.Sprintf("http://%s/callback", listener.Addr().String()),
		Scopes:       f.cfg.Scopes,
	}

	state := uuid.NewString()
	nonce := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	results := make(chan callbackResult, 1)
	r := chi.NewRouter()
	r.Get("/callback", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		if errCode := q.Get("error"); errCode != "" {
			results <- callbackResult{err: fmt.Errorf("provider returned error: %s", errCode)}
			http.Error(w, "Sign-in failed. You can close this window.", http.StatusBadRequest)
			return
		}
		if q.Get("state") != state {
			results <- callbackResult{err: fmt.Errorf("callback state mismatch")}
			http.Error(w, "Sign-in failed. You can close this window.", http.StatusBadRequest)
			return
		}
		results <- callbackResult{code: q.Get("code")}
		fmt.Fprintln(w, "Signed in. You can close this window.")
	})

	srv := &http.Server{Handler: r}
	go srv.Serve(listener)
	defer srv.Shutdown(context.Background())

	authURL := oc.AuthCodeURL(state,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("nonce", nonce),
	)
	if err := f.OpenURL(authURL); err != nil {
		return "", fmt.Errorf("open authorization url: %w", err)
	}

	var res callbackResult
	select {
	case res = <-results:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if res.err != nil {
		return "", res.err
	}

	token, err := oc.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	idToken, ok := token.Extra("id_token").(string)
	if !ok || idToken == "" {
		return "", fmt.Errorf("token response missing id_token")
	}
	return idToken, nil
}
