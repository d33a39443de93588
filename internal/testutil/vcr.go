// Package testutil holds shared test helpers.
package testutil

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/dnaeon/go-vcr.v2/cassette"
	"gopkg.in/dnaeon/go-vcr.v2/recorder"
)

// NewRecorder creates a VCR recorder replaying from testdata/fixtures.
// Set CIP_VCR=record against a live backend to refresh cassettes. Session
// credentials are scrubbed from recordings so cassettes are safe to commit.
func NewRecorder(t *testing.T, cassetteName string) (*recorder.Recorder, func()) {
	t.Helper()

	mode := recorder.ModeReplaying
	if os.Getenv("CIP_VCR") == "record" {
		mode = recorder.ModeRecording
	}

	cassettePath := filepath.Join("testdata", "fixtures", cassetteName)

	r, err := recorder.NewAsMode(cassettePath, mode, nil)
	if err != nil {
		t.Fatalf("create recorder: %v", err)
	}

	r.AddSaveFilter(func(i *cassette.Interaction) error {
		delete(i.Request.Headers, "X-Csrf-Token")
		delete(i.Request.Headers, "Cookie")
		delete(i.Response.Headers, "Set-Cookie")
		return nil
	})

	// Match on method and URL only; bodies carry timestamps
	r.SetMatcher(func(req *http.Request, i cassette.Request) bool {
		return req.Method == i.Method && req.URL.String() == i.URL
	})

	cleanup := func() {
		if err := r.Stop(); err != nil {
			t.Errorf("stop recorder: %v", err)
		}
	}
	return r, cleanup
}

// HTTPClient returns a client that routes through the recorder.
func HTTPClient(r *recorder.Recorder) *http.Client {
	return &http.Client{Transport: r}
}

// CassetteExists reports whether a recorded cassette is present, letting
// live-backend tests skip cleanly when it is not.
func CassetteExists(cassetteName string) bool {
	_, err := os.Stat(filepath.Join("testdata", "fixtures", cassetteName+".yaml"))
	return err == nil
}
