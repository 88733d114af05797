package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/glodinasflexwork/sessionkit/internal/apierrors"
	"github.com/glodinasflexwork/sessionkit/internal/types"
)

// ListSavedItems retrieves the server-side saved-property collection.
func ListSavedItems(ctx context.Context, httpClient *http.Client, baseURL string) ([]types.SavedItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/saved-items", baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, passthroughOrNetwork("list saved items", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		msg, _ := readErrorBody(resp)
		return nil, &apierrors.ServiceError{Err: apierrors.ErrUnauthorized, Message: msg.Message}
	}
	if resp.StatusCode != http.StatusOK {
		_, raw := readErrorBody(resp)
		return nil, apierrors.NewHTTPError(resp.StatusCode, raw, "list saved items")
	}

	var lr types.ListSavedItemsResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, err
	}
	return lr.Items, nil
}

// UpsertSavedItem creates or replaces one saved item keyed by its itemId.
// The server enforces uniqueness, which makes the call idempotent.
func UpsertSavedItem(ctx context.Context, httpClient *http.Client, baseURL string, item types.SavedItem) (*types.SavedItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(types.UpsertSavedItemRequest{
		ItemID:   item.ItemID,
		Snapshot: item.Snapshot,
		SavedAt:  item.SavedAt,
	})
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/saved-items", baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, passthroughOrNetwork("upsert saved item", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		msg, _ := readErrorBody(resp)
		return nil, &apierrors.ServiceError{Err: apierrors.ErrUnauthorized, Message: msg.Message}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		_, raw := readErrorBody(resp)
		return nil, apierrors.NewHTTPError(resp.StatusCode, raw, "upsert saved item")
	}

	var ur types.UpsertSavedItemResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return nil, err
	}
	return &ur.Item, nil
}

// DeleteSavedItem removes an item by ID. The backend returns 204 No Content;
// 404 is treated as success so removal stays idempotent.
func DeleteSavedItem(ctx context.Context, httpClient *http.Client, baseURL, itemID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	url := fmt.Sprintf("%s/saved-items/%s", baseURL, itemID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return passthroughOrNetwork("delete saved item", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusNotFound:
		return nil
	case http.StatusUnauthorized:
		msg, _ := readErrorBody(resp)
		return &apierrors.ServiceError{Err: apierrors.ErrUnauthorized, Message: msg.Message}
	default:
		_, raw := readErrorBody(resp)
		return apierrors.NewHTTPError(resp.StatusCode, raw, "delete saved item")
	}
}

// passthroughOrNetwork keeps auth-state errors raised by the transport layer
// (missing token, exhausted refresh) intact instead of masking them as
// network failures.
func passthroughOrNetwork(op string, err error) error {
	if errors.Is(err, apierrors.ErrUnauthorized) || errors.Is(err, apierrors.ErrSessionExpired) {
		return err
	}
	return &apierrors.NetworkError{Op: op, Cause: err}
}
