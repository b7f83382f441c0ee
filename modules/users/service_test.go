package users_test

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/guarzo/bcards/common"
	"github.com/guarzo/bcards/common/model"
	"github.com/guarzo/bcards/internal/fakeapi"
	"github.com/guarzo/bcards/modules/users"
)

type countingInvalidator struct{ n int }

func (c *countingInvalidator) InvalidateAll() { c.n++ }

type env struct {
	api     *fakeapi.Server
	session *common.MemorySession
	cards   *countingInvalidator
	svc     users.UsersService
	admin   model.User
	alice   model.User
}

func newEnv(t *testing.T) *env {
	t.Helper()
	api := fakeapi.NewServer()
	t.Cleanup(api.Close)

	e := &env{
		api:     api,
		session: common.NewMemorySession(""),
		cards:   &countingInvalidator{},
	}
	hc := common.NewCardsHttpClient("bcards-test", e.session, &http.Client{}, 0)
	client := users.NewUsersClient(common.NewRestClient(api.UsersURL(), hc, nil))
	e.svc = users.NewUsersService(client, e.session, e.cards)

	e.admin = api.AddUser(model.User{
		Name:    model.Name{First: "Ada", Last: "Root"},
		Email:   "admin@example.com",
		IsAdmin: true,
	}, "Admin123!")
	e.alice = api.AddUser(model.User{
		Name:  model.Name{First: "Alice", Last: "Smith"},
		Email: "alice@example.com",
		Phone: "050-0000000",
	}, "Alice123!")
	return e
}

func TestRegisterAndLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user, err := e.svc.Register(ctx, model.Registration{
		Name:       model.Name{First: "Bob", Last: "Biz"},
		Email:      "bob@example.com",
		Password:   "Bob12345!",
		IsBusiness: true,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.ID == "" || user.Password != "" {
		t.Errorf("unexpected registered user %+v", user)
	}

	ident, err := e.svc.Login(ctx, "bob@example.com", "Bob12345!")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if ident.ID != user.ID || !ident.IsBusiness {
		t.Errorf("unexpected identity %+v", ident)
	}
	if e.cards.n != 1 {
		t.Errorf("expected login to invalidate the card cache once, got %d", e.cards.n)
	}

	me, err := e.svc.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if me.Email != "bob@example.com" {
		t.Errorf("unexpected current user %+v", me)
	}
}

func TestLogin_BadPassword(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.Login(context.Background(), "alice@example.com", "wrong")
	if !common.IsStatus(err, http.StatusBadRequest) {
		t.Fatalf("expected 400, got %v", err)
	}
	if _, err := e.session.Token(); !errors.Is(err, common.ErrUnauthenticated) {
		t.Error("a failed login must not store a token")
	}
}

func TestLogout(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	if _, err := e.svc.Login(ctx, "alice@example.com", "Alice123!"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := e.svc.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := e.svc.CurrentIdentity(); !errors.Is(err, common.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated after logout, got %v", err)
	}
	if e.cards.n != 2 {
		t.Errorf("expected login and logout to invalidate, got %d", e.cards.n)
	}
}

func TestUpdateUser_StripsProtectedFields(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_ = e.session.SetToken(e.api.Token(e.alice.ID))

	edited := e.alice
	edited.Phone = "052-1111111"
	edited.Email = "hijack@example.com"
	edited.IsBusiness = true

	// the fake backend answers 400 if _id, email or isBusiness are sent
	got, err := e.svc.UpdateUser(ctx, e.alice.ID, edited)
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if got.Phone != "052-1111111" {
		t.Errorf("expected phone to change, got %q", got.Phone)
	}
	if got.Email != "alice@example.com" || got.IsBusiness {
		t.Errorf("protected fields changed: %+v", got)
	}
}

func TestAdminOperations(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// regular users are stopped client-side before any request
	_ = e.session.SetToken(e.api.Token(e.alice.ID))
	if _, err := e.svc.ListUsers(ctx); !errors.Is(err, common.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if e.api.Calls(http.MethodGet, "/users") != 0 {
		t.Error("forbidden call must not reach the server")
	}

	_ = e.session.SetToken(e.api.Token(e.admin.ID))
	list, err := e.svc.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 users, got %d", len(list))
	}

	promoted, err := e.svc.SetAdmin(ctx, e.alice.ID, true)
	if err != nil {
		t.Fatalf("SetAdmin: %v", err)
	}
	if !promoted.IsAdmin {
		t.Error("expected alice to be admin")
	}

	biz, err := e.svc.ToggleBusiness(ctx, e.alice.ID)
	if err != nil {
		t.Fatalf("ToggleBusiness: %v", err)
	}
	if !biz.IsBusiness {
		t.Error("expected alice to be a business user")
	}

	if err := e.svc.DeleteUser(ctx, e.alice.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := e.svc.GetUser(ctx, e.alice.ID); !common.IsStatus(err, http.StatusNotFound) {
		t.Errorf("expected 404 after delete, got %v", err)
	}
}

func TestToggleBusiness_OnlySelfUnlessAdmin(t *testing.T) {
	e := newEnv(t)
	_ = e.session.SetToken(e.api.Token(e.alice.ID))

	if _, err := e.svc.ToggleBusiness(context.Background(), e.admin.ID); !errors.Is(err, common.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if _, err := e.svc.ToggleBusiness(context.Background(), e.alice.ID); err != nil {
		t.Errorf("expected self toggle to succeed, got %v", err)
	}
}

func TestFilter(t *testing.T) {
	list := []model.User{
		{ID: "1", Name: model.Name{First: "Alice", Last: "Smith"}, Email: "alice@example.com"},
		{ID: "2", Name: model.Name{First: "Bob", Last: "Jones"}, Email: "bob@corp.io"},
	}
	tests := []struct {
		term string
		want []string
	}{
		{"", []string{"1", "2"}},
		{"SMITH", []string{"1"}},
		{"corp", []string{"2"}},
		{"o", []string{"1", "2"}},
		{"zzz", []string{}},
	}
	for _, tt := range tests {
		got := make([]string, 0)
		for _, u := range users.Filter(list, tt.term) {
			got = append(got, u.ID)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Filter(%q) = %v, want %v", tt.term, got, tt.want)
		}
	}
}
