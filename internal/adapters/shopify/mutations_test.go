package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkPaid_TranslatesToGlobalID(t *testing.T) {
	var captured graphQLRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/api/2024-10/graphql.json", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		fmt.Fprint(w, `{"data":{"orderMarkAsPaid":{"order":{"id":"gid://shopify/Order/42"},"userErrors":[]}}}`)
	})

	client := newTestClient(t, mux)
	err := client.MarkPaid(context.Background(), 42, decimal.RequireFromString("129.00"), "BGN")
	require.NoError(t, err)

	input := captured.Variables["input"].(map[string]interface{})
	assert.Equal(t, "gid://shopify/Order/42", input["id"])
	assert.Contains(t, captured.Query, "orderMarkAsPaid")
}

func TestMarkPaid_AlreadyPaidIsSuccess(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// HTTP 200 with an embedded user error
		fmt.Fprint(w, `{"data":{"orderMarkAsPaid":{"order":null,"userErrors":[
			{"field":["id"],"message":"Order has already been paid."}]}}}`)
	}))

	err := client.MarkPaid(context.Background(), 42, decimal.Zero, "BGN")
	assert.NoError(t, err, "already-paid must be a safe no-op")
}

func TestMarkPaid_AlreadyCancelledIsNotSuccess(t *testing.T) {
	// "already" alone is not enough; only already-paid counts as done
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"orderMarkAsPaid":{"order":null,"userErrors":[
			{"field":["id"],"message":"Order has already been cancelled."}]}}}`)
	}))

	err := client.MarkPaid(context.Background(), 42, decimal.Zero, "BGN")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already been cancelled")
}

func TestMarkPaid_SurfacesOtherUserErrors(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"orderMarkAsPaid":{"order":null,"userErrors":[
			{"field":["id"],"message":"Order cannot be marked as paid."}]}}}`)
	}))

	err := client.MarkPaid(context.Background(), 42, decimal.Zero, "BGN")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be marked as paid")
}

func TestMarkDelivered_BuildsFulfillmentEvent(t *testing.T) {
	var captured graphQLRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/api/2024-10/graphql.json", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		fmt.Fprint(w, `{"data":{"fulfillmentEventCreate":{"fulfillmentEvent":{"id":"gid://shopify/FulfillmentEvent/1"},"userErrors":[]}}}`)
	})

	client := newTestClient(t, mux)
	err := client.MarkDelivered(context.Background(), 42, 77)
	require.NoError(t, err)

	event := captured.Variables["fulfillmentEvent"].(map[string]interface{})
	assert.Equal(t, "gid://shopify/Fulfillment/77", event["fulfillmentId"])
	assert.Equal(t, "DELIVERED", event["status"])
}

func TestMutate_SurfacesTopLevelGraphQLErrors(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors":[{"message":"Throttled"}]}`)
	}))

	err := client.MarkDelivered(context.Background(), 42, 77)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Throttled")
}

func TestMutate_SurfacesHTTPError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	err := client.MarkPaid(context.Background(), 42, decimal.Zero, "BGN")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}
