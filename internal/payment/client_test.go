package payment_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/labtrack/internal/payment"
)

func TestClient_Decide(t *testing.T) {
	orderID := uuid.MustParse("6f1c2b1e-3f4a-4d2b-9a7e-0c5d8e9f1a2b")

	var (
		gotPath string
		gotAuth string
		gotBody map[string]string
	)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		gotBody = nil
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		if gotBody["reason"] == "boom" {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream unavailable\n"))

			return
		}

		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	c := payment.NewClient(ts.URL+"/v1", "tok")

	t.Run("Approve", func(t *testing.T) {
		err := c.Decide(context.Background(), payment.Request{
			OrganizationID: "lab-1",
			OrderID:        orderID,
			Decision:       payment.DecisionApprove,
		})
		require.NoError(t, err)

		assert.Equal(t, "/v1/organizations/lab-1/orders/"+orderID.String()+"/decision", gotPath)
		assert.Equal(t, "Token tok", gotAuth)
		assert.Equal(t, map[string]string{"decision": "approve"}, gotBody)
	})

	t.Run("RejectWithReason", func(t *testing.T) {
		err := c.Decide(context.Background(), payment.Request{
			OrganizationID: "lab-1",
			OrderID:        orderID,
			Decision:       payment.DecisionReject,
			Reason:         "missing impression",
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"decision": "reject", "reason": "missing impression"}, gotBody)
	})

	t.Run("UpstreamFailure", func(t *testing.T) {
		err := c.Decide(context.Background(), payment.Request{
			OrganizationID: "lab-1",
			OrderID:        orderID,
			Decision:       payment.DecisionReject,
			Reason:         "boom",
		})

		var statusErr *payment.StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusBadGateway, statusErr.Code)
		assert.Equal(t, "upstream unavailable", statusErr.Body)
	})

	t.Run("UnknownDecision", func(t *testing.T) {
		err := c.Decide(context.Background(), payment.Request{OrderID: orderID, Decision: "maybe"})
		assert.Error(t, err)
	})
}
