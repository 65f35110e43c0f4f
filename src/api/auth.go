package api

import (
	"context"
	"net/http"

	"sensechat/src/models"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token. A 401 carries the
// backend's French detail explaining the rejection.
func (c *Client) Login(ctx context.Context, username, password string) (models.Token, error) {
	var token models.Token
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", loginRequest{
		Username: username,
		Password: password,
	}, &token)
	if err != nil {
		return models.Token{}, err
	}
	return token, nil
}

// Me returns the user behind the installed token. A 401 means the token is
// no longer accepted.
func (c *Client) Me(ctx context.Context) (models.User, error) {
	var user models.User
	if err := c.getJSON(ctx, "/auth/me", &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// VerifyAdmin checks that the installed token belongs to an admin; a 403
// means it does not.
func (c *Client) VerifyAdmin(ctx context.Context) error {
	return c.getJSON(ctx, "/auth/verify-admin", nil)
}
