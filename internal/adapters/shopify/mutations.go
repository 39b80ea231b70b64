package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

// The write mutations go through the GraphQL Admin API, which requires
// numeric order identifiers translated into its opaque global-id format.
// The API can return HTTP 200 with field-level userErrors embedded in the
// body, so both layers are inspected.

const markPaidMutation = `mutation orderMarkAsPaid($input: OrderMarkAsPaidInput!) {
  orderMarkAsPaid(input: $input) {
    order { id }
    userErrors { field message }
  }
}`

const markDeliveredMutation = `mutation fulfillmentEventCreate($fulfillmentEvent: FulfillmentEventInput!) {
  fulfillmentEventCreate(fulfillmentEvent: $fulfillmentEvent) {
    fulfillmentEvent { id }
    userErrors { field message }
  }
}`

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type graphQLResponse struct {
	Data   map[string]mutationPayload `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type mutationPayload struct {
	UserErrors []userError `json:"userErrors"`
}

type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// orderGID translates a numeric order id into the mutation API's global id.
func orderGID(orderID int64) string {
	return fmt.Sprintf("gid://shopify/Order/%d", orderID)
}

// fulfillmentGID translates a numeric fulfillment id into a global id.
func fulfillmentGID(fulfillmentID int64) string {
	return fmt.Sprintf("gid://shopify/Fulfillment/%d", fulfillmentID)
}

// MarkPaid records the order as paid. Idempotent from the caller's
// perspective: an "already paid" user error reports success. Amount and
// currency are for the audit trail; the mutation settles the outstanding
// balance as a whole.
func (c *Client) MarkPaid(ctx context.Context, orderID int64, amount decimal.Decimal, currency string) error {
	c.logger.Debug("marking order as paid",
		"order_id", orderID, "amount", amount.String(), "currency", currency)

	err := c.mutate(ctx, "orderMarkAsPaid", graphQLRequest{
		Query: markPaidMutation,
		Variables: map[string]interface{}{
			"input": map[string]interface{}{"id": orderGID(orderID)},
		},
	})
	if err != nil && isAlreadyDone(err) {
		c.logger.Debug("order already paid", "order_id", orderID)
		return nil
	}
	return err
}

// MarkDelivered records a delivered event against the order's fulfillment.
// Idempotent in the same sense as MarkPaid.
func (c *Client) MarkDelivered(ctx context.Context, orderID, fulfillmentID int64) error {
	c.logger.Debug("marking fulfillment delivered",
		"order_id", orderID, "fulfillment_id", fulfillmentID)

	err := c.mutate(ctx, "fulfillmentEventCreate", graphQLRequest{
		Query: markDeliveredMutation,
		Variables: map[string]interface{}{
			"fulfillmentEvent": map[string]interface{}{
				"fulfillmentId": fulfillmentGID(fulfillmentID),
				"status":        "DELIVERED",
			},
		},
	})
	if err != nil && isAlreadyDone(err) {
		c.logger.Debug("fulfillment already delivered", "order_id", orderID)
		return nil
	}
	return err
}

// mutate posts a GraphQL mutation and surfaces transport errors, top-level
// GraphQL errors, and embedded userErrors uniformly as error values.
func (c *Client) mutate(ctx context.Context, operation string, reqBody graphQLRequest) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal mutation: %w", err)
	}

	endpoint := fmt.Sprintf("%s/admin/api/%s/graphql.json", c.baseURL(), c.cfg.APIVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call shopify api: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("shopify api status %d", resp.StatusCode)
	}

	var body graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if len(body.Errors) > 0 {
		return fmt.Errorf("%s: %s", operation, body.Errors[0].Message)
	}
	if payload, ok := body.Data[operation]; ok && len(payload.UserErrors) > 0 {
		messages := make([]string, 0, len(payload.UserErrors))
		for _, ue := range payload.UserErrors {
			messages = append(messages, ue.Message)
		}
		return fmt.Errorf("%s: %s", operation, strings.Join(messages, "; "))
	}
	return nil
}

// alreadyDonePhrases are the user errors Shopify returns when the target
// state already holds. Only these count as success; other "already …"
// errors (cancelled, archived) must surface.
var alreadyDonePhrases = []string{
	"already been paid",
	"already paid",
	"already been marked as delivered",
	"already marked as delivered",
	"already been delivered",
	"already delivered",
}

// isAlreadyDone recognizes the user errors meaning the mutation's target
// state already holds.
func isAlreadyDone(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, phrase := range alreadyDonePhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
