package session

import (
	"path/filepath"
	"testing"
)

func TestSQLiteStore_TokenRoundTrip(t *testing.T) {
	store, err := OpenSQLite("file:sessmem1?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer store.Close()

	if got := store.CSRFToken(); got != "" {
		t.Errorf("CSRFToken() = %q, want empty before sign-in", got)
	}

	if err := store.SetCSRFToken("tok-abc"); err != nil {
		t.Fatalf("SetCSRFToken() error = %v", err)
	}

	if got := store.CSRFToken(); got != "tok-abc" {
		t.Errorf("CSRFToken() = %q, want tok-abc", got)
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "session.db")

	store, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}

	if err := store.SetCSRFToken("tok-keep"); err != nil {
		t.Fatalf("SetCSRFToken() error = %v", err)
	}
	if err := store.SetSessionCookie("sid-keep"); err != nil {
		t.Fatalf("SetSessionCookie() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Reopen simulates a process restart
	reopened, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite() reopen error = %v", err)
	}
	defer reopened.Close()

	if got := reopened.CSRFToken(); got != "tok-keep" {
		t.Errorf("CSRFToken() after reopen = %q, want tok-keep", got)
	}
	if got := reopened.SessionCookie(); got != "sid-keep" {
		t.Errorf("SessionCookie() after reopen = %q, want sid-keep", got)
	}
}

func TestSQLiteStore_NoticeIsReadOnce(t *testing.T) {
	store, err := OpenSQLite("file:sessmem2?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer store.Close()

	if _, ok := store.TakeNotice(); ok {
		t.Fatal("TakeNotice() = pending, want none before any sign-in")
	}

	if err := store.SetNotice(NoticeSignedIn); err != nil {
		t.Fatalf("SetNotice() error = %v", err)
	}

	n, ok := store.TakeNotice()
	if !ok {
		t.Fatal("TakeNotice() = none, want pending notice")
	}
	if n != NoticeSignedIn {
		t.Errorf("TakeNotice() = %v, want %v", n, NoticeSignedIn)
	}

	if _, ok := store.TakeNotice(); ok {
		t.Error("TakeNotice() second read = pending, want cleared")
	}
}

func TestSQLiteStore_Clear(t *testing.T) {
	store, err := OpenSQLite("file:sessmem3?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer store.Close()

	if err := store.SetCSRFToken("tok-gone"); err != nil {
		t.Fatalf("SetCSRFToken() error = %v", err)
	}
	if err := store.SetSessionCookie("sid-gone"); err != nil {
		t.Fatalf("SetSessionCookie() error = %v", err)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	if got := store.CSRFToken(); got != "" {
		t.Errorf("CSRFToken() after clear = %q, want empty", got)
	}
	if got := store.SessionCookie(); got != "" {
		t.Errorf("SessionCookie() after clear = %q, want empty", got)
	}
}
