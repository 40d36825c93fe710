package backend

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/kalambet/crawldash/internal/model"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (string, error) {
	const path = "/auth/login"
	resp, err := c.do(ctx, http.MethodPost, path, "", loginRequest{
		Username: creds.Email,
		Password: creds.Password,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if !ok(resp) {
		return "", &AuthError{Op: "login", Status: resp.StatusCode, Message: errorMessage(resp)}
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", &DecodeError{Path: path, Index: -1, Err: err}
	}
	if lr.AccessToken == "" {
		return "", &AuthError{Op: "login", Message: "response carried no access token"}
	}
	return lr.AccessToken, nil
}

// Register creates an account. It does not log the user in.
func (c *Client) Register(ctx context.Context, creds model.Credentials) error {
	resp, err := c.do(ctx, http.MethodPost, "/auth/register", "", registerRequest{
		Email:    creds.Email,
		Password: creds.Password,
	})
	if err != nil {
		return err
	}
	if !ok(resp) {
		defer resp.Body.Close()
		return &AuthError{Op: "register", Status: resp.StatusCode, Message: errorMessage(resp)}
	}
	drain(resp)
	return nil
}
