package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/contractintel/cip-client/internal/domain"
	"github.com/contractintel/cip-client/internal/session"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, session.Store) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sess := session.NewMemoryStore()
	return NewClient(srv.URL, sess, WithHTTPClient(srv.Client())), sess
}

func newSessionWithToken(t *testing.T, token string) session.Store {
	t.Helper()

	sess := session.NewMemoryStore()
	if err := sess.SetCSRFToken(token); err != nil {
		t.Fatalf("SetCSRFToken() error = %v", err)
	}
	return sess
}

func TestClient_AttachesCSRFTokenAndCookie(t *testing.T) {
	var gotToken string
	var gotCookie string

	client, sess := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get(CSRFHeader)
		if ck, err := r.Cookie("session_id"); err == nil {
			gotCookie = ck.Value
		}
		w.Write([]byte(`{"username":"alice","email":"alice@example.com"}`))
	}))

	if err := sess.SetCSRFToken("tok-123"); err != nil {
		t.Fatalf("SetCSRFToken() error = %v", err)
	}
	if err := sess.SetSessionCookie("sid-456"); err != nil {
		t.Fatalf("SetSessionCookie() error = %v", err)
	}

	user, err := client.GetUser(context.Background())
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}

	if gotToken != "tok-123" {
		t.Errorf("CSRF header = %q, want tok-123", gotToken)
	}
	if gotCookie != "sid-456" {
		t.Errorf("session cookie = %q, want sid-456", gotCookie)
	}
	if user.Username != "alice" {
		t.Errorf("Username = %q, want alice", user.Username)
	}
}

func TestClient_EmptyTokenBeforeSignIn(t *testing.T) {
	var sawHeader bool
	var gotToken string

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawHeader = r.Header[http.CanonicalHeaderKey(CSRFHeader)]
		gotToken = r.Header.Get(CSRFHeader)
		w.Write([]byte(`{"username":"u","email":"e","csrf_token":"fresh"}`))
	}))

	if _, err := client.SignIn(context.Background(), "id-token"); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}

	// The header is always present, empty pre-login
	if !sawHeader {
		t.Error("CSRF header missing, want present with empty value")
	}
	if gotToken != "" {
		t.Errorf("CSRF header = %q, want empty pre-login", gotToken)
	}
}

func TestClient_SignInCapturesSessionCookie(t *testing.T) {
	client, sess := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session_id", Value: "sid-new"})
		w.Write([]byte(`{"username":"u","email":"e","csrf_token":"tok-new"}`))
	}))

	result, err := client.SignIn(context.Background(), "id-token")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}

	if result.CSRFToken != "tok-new" {
		t.Errorf("CSRFToken = %q, want tok-new", result.CSRFToken)
	}
	if got := sess.SessionCookie(); got != "sid-new" {
		t.Errorf("SessionCookie() = %q, want sid-new", got)
	}
}

func TestClient_ClassifiesUnauthorized(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))

	_, err := client.GetUser(context.Background())
	if err == nil {
		t.Fatal("GetUser() error = nil, want unauthorized")
	}
	if !domain.IsUnauthorized(err) {
		t.Errorf("IsUnauthorized(%v) = false, want true", err)
	}
}

func TestClient_ClassifiesRequestFailed(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"username":`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, tt.handler)

			_, err := client.GetUser(context.Background())
			if err == nil {
				t.Fatal("GetUser() error = nil, want request failed")
			}

			var ce *domain.ClientError
			if !errors.As(err, &ce) {
				t.Fatalf("error %v is not a ClientError", err)
			}
			if ce.Kind != domain.ErrorKindRequestFailed {
				t.Errorf("Kind = %v, want %v", ce.Kind, domain.ErrorKindRequestFailed)
			}
			if domain.IsUnauthorized(err) {
				t.Error("IsUnauthorized() = true, want false for non-401 failure")
			}
		})
	}
}

func TestClient_UploadContract(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm() error = %v", err)
		}
		if got := r.FormValue("contract_name"); got != "MSA" {
			t.Errorf("contract_name = %q, want MSA", got)
		}
		if got := r.FormValue("contract_type"); got != "SUPPLIER_CONTRACT" {
			t.Errorf("contract_type = %q, want SUPPLIER_CONTRACT", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile() error = %v", err)
		}
		defer file.Close()
		if header.Filename != "msa.pdf" {
			t.Errorf("filename = %q, want msa.pdf", header.Filename)
		}
		w.Write([]byte(`{"user_id":"u","contract_id":"c1","contract_name":"MSA","contract_type":"SUPPLIER_CONTRACT"}`))
	}))

	contract, err := client.UploadContract(context.Background(), "MSA", domain.ContractTypeSupplier, "msa.pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("UploadContract() error = %v", err)
	}
	if contract.ContractID != "c1" {
		t.Errorf("ContractID = %q, want c1", contract.ContractID)
	}
}

func TestClient_UploadContractRequiresFields(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request reached the server, want client-local failure")
	}))

	tests := []struct {
		name         string
		contractName string
		contractType domain.ContractType
		hasFile      bool
	}{
		{name: "missing name", contractName: "  ", contractType: domain.ContractTypeNDA, hasFile: true},
		{name: "missing type", contractName: "NDA", contractType: "", hasFile: true},
		{name: "missing file", contractName: "NDA", contractType: domain.ContractTypeNDA, hasFile: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var file io.Reader
			if tt.hasFile {
				file = strings.NewReader("doc")
			}

			_, err := client.UploadContract(context.Background(), tt.contractName, tt.contractType, "f.pdf", file)
			if err == nil {
				t.Fatal("UploadContract() error = nil, want validation incomplete")
			}
			if domain.KindOf(err) != domain.ErrorKindValidationIncomplete {
				t.Errorf("KindOf(%v) = %v, want %v", err, domain.KindOf(err), domain.ErrorKindValidationIncomplete)
			}
		})
	}
}

func TestClient_CreateAgentTrimsName(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`"agent-1"`))
	}))

	agentID, err := client.CreateAgent(context.Background(), "  Reviewer  ", "c1")
	if err != nil {
		t.Fatalf("CreateAgent() error = %v", err)
	}
	if agentID != "agent-1" {
		t.Errorf("agentID = %q, want agent-1", agentID)
	}

	if _, err := client.CreateAgent(context.Background(), "   ", ""); domain.KindOf(err) != domain.ErrorKindValidationIncomplete {
		t.Errorf("CreateAgent(blank) error kind = %v, want %v", domain.KindOf(err), domain.ErrorKindValidationIncomplete)
	}
}

func TestClient_CallAgentEmptyMessage(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request reached the server, want client-local no-op")
	}))

	if _, err := client.CallAgent(context.Background(), "agent-1", "   "); domain.KindOf(err) != domain.ErrorKindValidationIncomplete {
		t.Errorf("CallAgent(blank) error kind = %v, want %v", domain.KindOf(err), domain.ErrorKindValidationIncomplete)
	}
}
