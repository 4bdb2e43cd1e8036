// Package rest speaks the account HTTP API. Failures surface as
// *classify.APIError so the caller can feed them straight into the
// classifier; a status of 0 marks a request that never got a response.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/enkitstudio/accountkit/internal/domain/account"
	"github.com/enkitstudio/accountkit/internal/services/classify"
)

type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func NewClient(baseURL string, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		log:     log,
	}
}

// Authenticate exchanges credentials for a bearer token.
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, error) {
	body, err := c.postJSON(ctx, "/api/authenticate", authenticateRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return "", err
	}

	var payload tokenResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", &classify.APIError{Status: 0, Body: []byte(fmt.Sprintf("decode token response: %v", err))}
	}
	if payload.IDToken == "" {
		return "", &classify.APIError{Status: 0, Body: []byte("token response carried no id_token")}
	}

	return payload.IDToken, nil
}

func (c *Client) Register(ctx context.Context, data account.RegistrationData) (string, error) {
	body, err := c.postJSON(ctx, "/api/register", registerRequest{
		Username: data.Username,
		Email:    data.Email,
		Password: data.Password,
	})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Activate posts the activation token as a plain-text body, matching the
// backend's contract.
func (c *Client) Activate(ctx context.Context, activationToken string) (string, error) {
	body, err := c.postText(ctx, "/api/activate", activationToken)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// RequestPasswordReset posts the email as a plain-text body.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	body, err := c.postText(ctx, "/api/account/reset-password/init", email)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) FinishPasswordReset(ctx context.Context, resetToken, newPassword string) (string, error) {
	body, err := c.postJSON(ctx, "/api/account/reset-password/finish", resetFinishRequest{
		ResetToken:  resetToken,
		NewPassword: newPassword,
	})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Account fetches the authenticated user's profile.
func (c *Client) Account(ctx context.Context) (account.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/account", nil)
	if err != nil {
		return account.Identity{}, &classify.APIError{Status: 0, Body: []byte(err.Error())}
	}

	body, err := c.do(req)
	if err != nil {
		return account.Identity{}, err
	}

	var payload accountResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return account.Identity{}, &classify.APIError{Status: 0, Body: []byte(fmt.Sprintf("decode account response: %v", err))}
	}

	return account.Identity{
		Login:       payload.Login,
		FirstName:   payload.FirstName,
		LastName:    payload.LastName,
		Email:       payload.Email,
		Authorities: payload.Authorities,
	}, nil
}

func (c *Client) UpdateProfile(ctx context.Context, update account.ProfileUpdate) (string, error) {
	body, err := c.postJSON(ctx, "/api/account", profileUpdateRequest{
		FirstName: update.FirstName,
		LastName:  update.LastName,
		Email:     update.Email,
	})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword string) (string, error) {
	body, err := c.postJSON(ctx, "/api/account/change-password", changePasswordRequest{
		CurrentPassword: currentPassword,
		NewPassword:     newPassword,
	})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, &classify.APIError{Status: 0, Body: []byte(err.Error())}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, &classify.APIError{Status: 0, Body: []byte(err.Error())}
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) postText(ctx context.Context, path, body string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(body))
	if err != nil {
		return nil, &classify.APIError{Status: 0, Body: []byte(err.Error())}
	}
	req.Header.Set("Content-Type", "text/plain")

	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if c.log != nil {
			c.log.Debug("request failed before a response",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Error(err),
			)
		}
		return nil, &classify.APIError{Status: 0, Body: []byte(err.Error())}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &classify.APIError{Status: 0, Body: []byte(err.Error())}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if c.log != nil {
			c.log.Debug("request rejected",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Int("status", resp.StatusCode),
			)
		}
		return nil, &classify.APIError{Status: resp.StatusCode, Body: body}
	}

	return body, nil
}
