// Package api contains the per-endpoint HTTP call functions for the auth
// and collection services. Functions are plain helpers over an injected
// *http.Client so transport concerns (bearer injection, 401 handling, debug
// dumps) stay in the caller's transport stack.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/glodinasflexwork/sessionkit/internal/apierrors"
	"github.com/glodinasflexwork/sessionkit/internal/types"
)

// Login exchanges credentials for an access/refresh token pair.
// Non-2xx responses surface the service's message verbatim.
func Login(ctx context.Context, httpClient *http.Client, baseURL, email, password string) (*types.LoginResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(types.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/login", baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, &apierrors.NetworkError{Op: "login", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, raw := readErrorBody(resp)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, &apierrors.ServiceError{Err: apierrors.ErrInvalidCredentials, Message: msg.Message}
		}
		return nil, apierrors.NewHTTPError(resp.StatusCode, raw, "login")
	}

	var lr types.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, err
	}
	return &lr, nil
}

// Register creates an account. It never yields tokens: the account must be
// verified by email before the first login.
func Register(ctx context.Context, httpClient *http.Client, baseURL string, req types.RegisterRequest) (*types.RegistrationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/register", baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, &apierrors.NetworkError{Op: "register", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
	case resp.StatusCode == http.StatusConflict:
		msg, _ := readErrorBody(resp)
		return nil, &apierrors.ServiceError{Err: apierrors.ErrDuplicateAccount, Message: msg.Message}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		msg, _ := readErrorBody(resp)
		return nil, &apierrors.ValidationError{Message: msg.Message, Fields: msg.Fields}
	default:
		_, raw := readErrorBody(resp)
		return nil, apierrors.NewHTTPError(resp.StatusCode, raw, "register")
	}

	var rr types.RegistrationResult
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, err
	}
	return &rr, nil
}

// Refresh trades the refresh token for a new access token. Any rejection is
// reported as a session expiry; the caller decides whether to log out.
func Refresh(ctx context.Context, httpClient *http.Client, baseURL, refreshToken string) (*types.RefreshResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/refresh", baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+refreshToken)

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, &apierrors.NetworkError{Op: "refresh", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := readErrorBody(resp)
		return nil, &apierrors.ServiceError{Err: apierrors.ErrSessionExpired, Message: msg.Message}
	}

	var rr types.RefreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, err
	}
	return &rr, nil
}

// GetProfile fetches the authenticated user's profile. The Authorization
// header is added by the caller's transport.
func GetProfile(ctx context.Context, httpClient *http.Client, baseURL string) (*types.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/profile", baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, passthroughOrNetwork("get profile", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		msg, _ := readErrorBody(resp)
		return nil, &apierrors.ServiceError{Err: apierrors.ErrUnauthorized, Message: msg.Message}
	}
	if resp.StatusCode != http.StatusOK {
		_, raw := readErrorBody(resp)
		return nil, apierrors.NewHTTPError(resp.StatusCode, raw, "get profile")
	}

	var pr types.ProfileResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, err
	}
	return &pr.User, nil
}

// readErrorBody drains a non-2xx body and decodes the {message, fields}
// shape both services use. The raw body is kept for classified errors.
func readErrorBody(resp *http.Response) (types.ErrorResponse, string) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return types.ErrorResponse{}, ""
	}
	var er types.ErrorResponse
	_ = json.Unmarshal(raw, &er)
	return er, string(raw)
}
