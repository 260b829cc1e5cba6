package client

import (
	"context"
	"net/http"
	"time"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Status string `json:"status"`
	User   User   `json:"user"`
	Token  string `json:"token"`
}

// Login authenticates and initializes the client session with the issued token.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	body, err := jsonBody(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	var out loginResponse
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/login",
		body:        body,
		contentType: "application/json",
		anonymous:   true,
	}, &out)
	if err != nil {
		return nil, err
	}
	c.session.Init(out.Token)
	return &out.User, nil
}

func (c *Client) Register(ctx context.Context, in RegisterInput) (*User, error) {
	body, err := jsonBody(in)
	if err != nil {
		return nil, err
	}
	var out struct {
		User User `json:"user"`
	}
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/register",
		body:        body,
		contentType: "application/json",
		anonymous:   true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Logout revokes the server-side session. The local session is cleared even
// when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	defer c.session.Clear()
	return c.do(ctx, request{method: http.MethodPost, path: "/logout"}, nil)
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/me"}, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}
