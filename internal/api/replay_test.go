package api

import (
	"context"
	"testing"

	"github.com/contractintel/cip-client/internal/testutil"
)

// Replays recorded backend traffic when a cassette is present. Record with
// CIP_VCR=record against a live backend and a signed-in session.
func TestClient_ListContracts_Replay(t *testing.T) {
	const name = "contracts_list"
	if !testutil.CassetteExists(name) {
		t.Skip("no recorded cassette")
	}
	rec, cleanup := testutil.NewRecorder(t, name)
	defer cleanup()

	sess := newSessionWithToken(t, "recorded")
	client := NewClient("http://localhost:5000", sess, WithHTTPClient(testutil.HTTPClient(rec)))

	contracts, err := client.ListContracts(context.Background())
	if err != nil {
		t.Fatalf("ListContracts() error = %v", err)
	}
	for _, c := range contracts {
		if c.ContractID == "" {
			t.Errorf("contract with empty id: %+v", c)
		}
	}
}
