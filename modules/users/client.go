package users

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/guarzo/bcards/common"
	"github.com/guarzo/bcards/common/model"
)

// UsersClient is the lower-level interface to the users endpoint.
type UsersClient interface {
	Register(ctx context.Context, reg model.Registration) (*model.User, error)
	Login(ctx context.Context, creds model.Credentials) (string, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	UpdateUser(ctx context.Context, id string, update model.UserUpdate) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error
	ToggleBusiness(ctx context.Context, id string) (*model.User, error)
}

var (
	errMissingID    = errors.New("user id is required")
	errEmptyToken   = errors.New("login response carried no token")
	errMissingCreds = errors.New("email and password are required")
)

type usersClient struct {
	rest common.RestClient
}

// NewUsersClient constructs a UsersClient over a RestClient rooted at the
// users endpoint.
func NewUsersClient(rest common.RestClient) UsersClient {
	return &usersClient{rest: rest}
}

func (c *usersClient) Register(ctx context.Context, reg model.Registration) (*model.User, error) {
	var user model.User
	if err := c.rest.SendJSON(ctx, http.MethodPost, "", reg, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login returns the session token. The backend answers with the bare token
// as text; a JSON string or {"token": ...} object is accepted as well.
func (c *usersClient) Login(ctx context.Context, creds model.Credentials) (string, error) {
	if creds.Email == "" || creds.Password == "" {
		return "", errMissingCreds
	}
	payload, err := json.Marshal(creds)
	if err != nil {
		return "", err
	}
	data, err := c.rest.DoRequest(ctx, http.MethodPost, "login", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	token := parseToken(data)
	if token == "" {
		return "", errEmptyToken
	}
	return token, nil
}

func (c *usersClient) ListUsers(ctx context.Context) ([]model.User, error) {
	var out []model.User
	if err := c.rest.GetJSON(ctx, "", &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.User{}
	}
	return out, nil
}

func (c *usersClient) GetUser(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, errMissingID
	}
	var user model.User
	if err := c.rest.GetJSON(ctx, url.PathEscape(id), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *usersClient) UpdateUser(ctx context.Context, id string, update model.UserUpdate) (*model.User, error) {
	if id == "" {
		return nil, errMissingID
	}
	var user model.User
	if err := c.rest.SendJSON(ctx, http.MethodPut, url.PathEscape(id), update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *usersClient) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return errMissingID
	}
	_, err := c.rest.DoRequest(ctx, http.MethodDelete, url.PathEscape(id), nil)
	return err
}

func (c *usersClient) ToggleBusiness(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, errMissingID
	}
	var user model.User
	if err := c.rest.SendJSON(ctx, http.MethodPatch, url.PathEscape(id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func parseToken(data []byte) string {
	raw := strings.TrimSpace(string(data))

	var s string
	if err := json.Unmarshal([]byte(raw), &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal([]byte(raw), &obj); err == nil {
		return strings.TrimSpace(obj.Token)
	}
	return raw
}
