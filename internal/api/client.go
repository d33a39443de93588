// Package api is the authenticated fetch layer: one typed method per
// backend endpoint, with the session cookie and CSRF header attached
// uniformly and every outcome classified into the canonical error taxonomy.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/contractintel/cip-client/internal/domain"
	"github.com/contractintel/cip-client/internal/session"
)

const (
	// CSRFHeader is the header carrying the backend-issued CSRF token.
	CSRFHeader = "X-CSRF-TOKEN"

	// sessionCookieName is the backend session cookie. The client treats
	// the value as opaque; it only persists and replays it.
	sessionCookieName = "session_id"
)

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// Client is the HTTP client for the Contract Intelligence Platform backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    session.Store
}

// NewClient creates a new backend client. Every request carries the session
// cookie and the current CSRF token from the session store; the store is
// also updated whenever the backend rotates the session cookie.
func NewClient(baseURL string, sess session.Store, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		session:    sess,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) setHeaders(req *http.Request) {
	// The token may be empty pre-login; the backend is the arbiter of
	// whether that is acceptable.
	req.Header.Set(CSRFHeader, c.session.CSRFToken())
	req.Header.Set("Accept", "application/json")

	if cookie := c.session.SessionCookie(); cookie != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: cookie})
	}
}

func (c *Client) captureSessionCookie(resp *http.Response) {
	for _, ck := range resp.Cookies() {
		if ck.Name == sessionCookieName {
			_ = c.session.SetSessionCookie(ck.Value)
		}
	}
}

// do performs one request and classifies the outcome. A 401 from any
// endpoint becomes an unauthorized error; every other non-2xx, and a body
// that fails to decode, becomes a request failed error. out may be nil for
// endpoints with empty success bodies.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return domain.ErrRequestFailed("failed to create request").WithCause(err)
	}

	c.setHeaders(httpReq)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.ErrRequestFailed("request failed").WithCause(err)
	}
	defer resp.Body.Close()

	c.captureSessionCookie(resp)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.ErrRequestFailed("failed to read response").WithCause(err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return domain.ErrUnauthorized("session invalid").WithStatusCode(resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.ErrRequestFailed(snippet(respBody)).WithStatusCode(resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return domain.ErrRequestFailed("malformed response body").WithCause(err)
		}
	}
	return nil
}

// doJSON marshals req as the JSON request body.
func (c *Client) doJSON(ctx context.Context, method, path string, req any, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return domain.ErrRequestFailed("failed to marshal request").WithCause(err)
	}
	return c.do(ctx, method, path, bytes.NewReader(body), "application/json", out)
}

// raw performs a GET and returns the response body bytes unclassified by
// shape. Used for the stored document downloads.
func (c *Client) raw(ctx context.Context, path string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, domain.ErrRequestFailed("failed to create request").WithCause(err)
	}

	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, domain.ErrRequestFailed("request failed").WithCause(err)
	}
	defer resp.Body.Close()

	c.captureSessionCookie(resp)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.ErrRequestFailed("failed to read response").WithCause(err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, domain.ErrUnauthorized("session invalid").WithStatusCode(resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.ErrRequestFailed(snippet(respBody)).WithStatusCode(resp.StatusCode)
	}
	return respBody, nil
}

func snippet(body []byte) string {
	const max = 256
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		s = s[:max]
	}
	if s == "" {
		s = "request failed"
	}
	return s
}

// SignIn exchanges an identity-provider ID token for a backend session. The
// returned CSRF token is the caller's to persist; the session cookie set by
// the backend is captured into the session store here.
func (c *Client) SignIn(ctx context.Context, idToken string) (*domain.SignInResult, error) {
	var result domain.SignInResult
	err := c.doJSON(ctx, http.MethodPost, "/user/signin", map[string]string{"token": idToken}, &result)
	if err != nil {
		return nil, fmt.Errorf("signin: %w", err)
	}
	return &result, nil
}

// GetUser fetches the current user profile.
func (c *Client) GetUser(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodGet, "/user/get_user", nil, "", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout invalidates the backend session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/user/logout", nil, "", nil)
}

// ListContracts lists the user's contracts.
func (c *Client) ListContracts(ctx context.Context) ([]domain.ContractBase, error) {
	var contracts []domain.ContractBase
	if err := c.do(ctx, http.MethodGet, "/contract/get_all", nil, "", &contracts); err != nil {
		return nil, err
	}
	return contracts, nil
}

// UploadContract creates a contract from a document. Name, type and file
// are all required; a missing field fails before any network call.
func (c *Client) UploadContract(ctx context.Context, name string, contractType domain.ContractType, filename string, file io.Reader) (*domain.ContractBase, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.ErrValidationIncomplete("contract_name")
	}
	if contractType == "" {
		return nil, domain.ErrValidationIncomplete("contract_type")
	}
	if file == nil {
		return nil, domain.ErrValidationIncomplete("file")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("contract_name", strings.TrimSpace(name)); err != nil {
		return nil, domain.ErrRequestFailed("failed to build upload form").WithCause(err)
	}
	if err := w.WriteField("contract_type", string(contractType)); err != nil {
		return nil, domain.ErrRequestFailed("failed to build upload form").WithCause(err)
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, domain.ErrRequestFailed("failed to build upload form").WithCause(err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, domain.ErrRequestFailed("failed to read upload file").WithCause(err)
	}
	if err := w.Close(); err != nil {
		return nil, domain.ErrRequestFailed("failed to build upload form").WithCause(err)
	}

	var contract domain.ContractBase
	if err := c.do(ctx, http.MethodPost, "/contract/upload", &buf, w.FormDataContentType(), &contract); err != nil {
		return nil, err
	}
	return &contract, nil
}

// GetContract fetches a contract with its validation-aware shape.
func (c *Client) GetContract(ctx context.Context, contractID string) (*domain.Contract, error) {
	var contract domain.Contract
	if err := c.do(ctx, http.MethodGet, "/contract/get/"+url.PathEscape(contractID), nil, "", &contract); err != nil {
		return nil, err
	}
	return &contract, nil
}

// GetContractUnvalidated fetches a contract without validation. Used as a
// fallback when the validated fetch fails.
func (c *Client) GetContractUnvalidated(ctx context.Context, contractID string) (*domain.ContractBase, error) {
	var contract domain.ContractBase
	if err := c.do(ctx, http.MethodGet, "/contract/get_unval/"+url.PathEscape(contractID), nil, "", &contract); err != nil {
		return nil, err
	}
	return &contract, nil
}

// FillContract triggers extraction of the structured fields and returns the
// enriched contract.
func (c *Client) FillContract(ctx context.Context, contractID string) (*domain.Contract, error) {
	var contract domain.Contract
	err := c.doJSON(ctx, http.MethodPost, "/contract/fill", map[string]string{"contract_id": contractID}, &contract)
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// ValidateContract runs validation and returns the fresh report.
func (c *Client) ValidateContract(ctx context.Context, contractID string) (*domain.ValidationReport, error) {
	var report domain.ValidationReport
	err := c.doJSON(ctx, http.MethodPost, "/contract/validate", map[string]string{"contract_id": contractID}, &report)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// GetValidationReport fetches the last stored validation report.
func (c *Client) GetValidationReport(ctx context.Context, contractID string) (*domain.ValidationReport, error) {
	var report domain.ValidationReport
	if err := c.do(ctx, http.MethodGet, "/contract/validate/"+url.PathEscape(contractID), nil, "", &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// GetContractPDF downloads the stored original document.
func (c *Client) GetContractPDF(ctx context.Context, contractID string) ([]byte, error) {
	return c.raw(ctx, "/contract/get_pdf/"+url.PathEscape(contractID))
}

// GetContractMarkdown downloads the derived markdown text.
func (c *Client) GetContractMarkdown(ctx context.Context, contractID string) ([]byte, error) {
	return c.raw(ctx, "/contract/get_md/"+url.PathEscape(contractID))
}

// ListAgents lists the user's agents.
func (c *Client) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	var agents []domain.Agent
	if err := c.do(ctx, http.MethodGet, "/agent/get_all", nil, "", &agents); err != nil {
		return nil, err
	}
	return agents, nil
}

// GetAgent fetches one agent including its message history.
func (c *Client) GetAgent(ctx context.Context, agentID string) (*domain.Agent, error) {
	var agent domain.Agent
	if err := c.do(ctx, http.MethodGet, "/agent/"+url.PathEscape(agentID), nil, "", &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

// CreateAgent creates an agent with a name and an optional bound contract,
// returning the new agent's identifier.
func (c *Client) CreateAgent(ctx context.Context, name, selectedContract string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrValidationIncomplete("name")
	}

	req := map[string]string{"name": name}
	if selectedContract != "" {
		req["selected_contract"] = selectedContract
	}

	var agentID string
	if err := c.doJSON(ctx, http.MethodPost, "/agent", req, &agentID); err != nil {
		return "", err
	}
	return agentID, nil
}

// DeleteAgent deletes an agent.
func (c *Client) DeleteAgent(ctx context.Context, agentID string) error {
	return c.do(ctx, http.MethodDelete, "/agent/"+url.PathEscape(agentID), nil, "", nil)
}

// RenameAgent renames an agent.
func (c *Client) RenameAgent(ctx context.Context, agentID, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return domain.ErrValidationIncomplete("new_name")
	}
	return c.doJSON(ctx, http.MethodPut, "/agent/rename", map[string]string{
		"agent_id": agentID,
		"new_name": newName,
	}, nil)
}

// AddContractToAgent binds a contract to an agent. At most one contract may
// be bound; rebinding is refused client-side.
func (c *Client) AddContractToAgent(ctx context.Context, agentID, contractID string) error {
	return c.doJSON(ctx, http.MethodPut, "/agent/add_contract", map[string]string{
		"agent_id":    agentID,
		"contract_id": contractID,
	}, nil)
}

// CallAgent sends one message and waits for the complete reply. The
// streaming variant is StreamAgent.
func (c *Client) CallAgent(ctx context.Context, agentID, message string) (*domain.Message, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domain.ErrValidationIncomplete("message")
	}

	var reply domain.Message
	err := c.doJSON(ctx, http.MethodPut, "/agent", map[string]string{
		"agent_id": agentID,
		"message":  message,
	}, &reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}
