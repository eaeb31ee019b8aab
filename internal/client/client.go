// Package client provides a transport-agnostic marketplace client and the
// HTTP/JSON and gRPC transports it runs over.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/alfredjeanlab/lots/internal/model"
	"github.com/alfredjeanlab/lots/internal/query"
)

// Transport sends one request and returns the decoded response envelope.
// Connectivity failures are *model.TransportError; non-2xx statuses and
// envelope-level failures are *model.ServerError.
type Transport interface {
	Send(ctx context.Context, method, path string, body any) (*model.Envelope, error)
	Close() error
}

// Client is the marketplace API used by the CLI. It satisfies
// paging.Fetcher and form.Client.
type Client struct {
	transport Transport
	session   model.Session
}

// New creates a Client sending through t on behalf of sess.
func New(t Transport, sess model.Session) *Client {
	return &Client{transport: t, session: sess}
}

// Session returns the session the client was created with.
func (c *Client) Session() model.Session { return c.session }

// Close closes the underlying transport.
func (c *Client) Close() error { return c.transport.Close() }

// --- Listings ---

// FetchPage loads the listing page q.PageIndex.
func (c *Client) FetchPage(ctx context.Context, q model.ListingQuery) (*model.Page, error) {
	env, err := c.transport.Send(ctx, http.MethodGet, query.PageURL(c.session, q), nil)
	if err != nil {
		return nil, err
	}
	var page model.Page
	if err := decodePayload(env, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Promoted returns the promoted lots of a category.
func (c *Client) Promoted(ctx context.Context, categoryID int64) ([]model.Lot, error) {
	path := "/lots/promoted?" + query.KeyCategory + "=" + strconv.FormatInt(categoryID, 10)
	env, err := c.transport.Send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Items []model.Lot `json:"items"`
	}
	if err := decodePayload(env, &resp); err != nil {
		return nil, err
	}
	for i := range resp.Items {
		resp.Items[i].Promoted = true
	}
	return resp.Items, nil
}

// --- Operations ---

// Recipe fetches the field recipe of the operation at path.
func (c *Client) Recipe(ctx context.Context, path string) (*model.Recipe, error) {
	env, err := c.transport.Send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if env.Recipe != nil {
		return env.Recipe, nil
	}
	var recipe model.Recipe
	if err := decodePayload(env, &recipe); err != nil {
		return nil, err
	}
	return &recipe, nil
}

// Submit posts a serialized operation body. The returned envelope carries
// the operation result and, on failure, the re-rendered recipe.
func (c *Client) Submit(ctx context.Context, path string, body map[string]json.RawMessage) (*model.Envelope, error) {
	return c.transport.Send(ctx, http.MethodPost, path, body)
}

// --- Lots ---

// Lot fetches a single lot.
func (c *Client) Lot(ctx context.Context, id int64) (*model.Lot, error) {
	env, err := c.transport.Send(ctx, http.MethodGet, lotPath(id), nil)
	if err != nil {
		return nil, err
	}
	var lot model.Lot
	if err := decodePayload(env, &lot); err != nil {
		return nil, err
	}
	return &lot, nil
}

// SetWatched adds the lot to, or removes it from, the user's watch list and
// returns the updated lot.
func (c *Client) SetWatched(ctx context.Context, id int64, watched bool) (*model.Lot, error) {
	method := http.MethodPost
	if !watched {
		method = http.MethodDelete
	}
	env, err := c.transport.Send(ctx, method, lotPath(id)+"/watch", nil)
	if err != nil {
		return nil, err
	}
	var lot model.Lot
	if err := decodePayload(env, &lot); err != nil {
		return nil, err
	}
	lot.Watched = watched
	return &lot, nil
}

// PlaceBid bids amount on the lot. A rejected bid is a *model.ServerError
// carrying the server's message.
func (c *Client) PlaceBid(ctx context.Context, id int64, amount float64) (*model.OperationResult, error) {
	body := map[string]any{"amount": amount}
	env, err := c.transport.Send(ctx, http.MethodPost, lotPath(id)+"/bids", body)
	if err != nil {
		return nil, err
	}
	res := env.OperationResult
	if res == nil {
		res = &model.OperationResult{}
		if err := decodePayload(env, res); err != nil {
			return nil, err
		}
	}
	if !res.Result {
		return res, &model.ServerError{Code: "bid_rejected", HumanMessage: res.Message}
	}
	return res, nil
}

func lotPath(id int64) string {
	return "/lots/" + strconv.FormatInt(id, 10)
}

// decodePayload unmarshals env.Payload into v. A missing or malformed
// payload is a *model.ServerError wrapping a *model.DeserializationError.
func decodePayload(env *model.Envelope, v any) error {
	if env == nil || len(env.Payload) == 0 || string(env.Payload) == "null" {
		return &model.ServerError{
			Code: "empty_payload",
			Err:  &model.DeserializationError{Err: fmt.Errorf("no payload")},
		}
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return &model.ServerError{
			Code:         "bad_payload",
			HumanMessage: err.Error(),
			Err:          &model.DeserializationError{Err: err},
		}
	}
	return nil
}
