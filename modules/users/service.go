package users

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/guarzo/bcards/common"
	"github.com/guarzo/bcards/common/model"
)

// Invalidator is the part of the cards service a login change must reach.
type Invalidator interface {
	InvalidateAll()
}

// UsersService covers account and admin operations on top of UsersClient
// and keeps the Session in step with login and logout.
type UsersService interface {
	Register(ctx context.Context, reg model.Registration) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.Identity, error)
	Logout() error
	CurrentIdentity() (*model.Identity, error)
	CurrentUser(ctx context.Context) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	UpdateUser(ctx context.Context, id string, user model.User) (*model.User, error)

	// admin
	ListUsers(ctx context.Context) ([]model.User, error)
	DeleteUser(ctx context.Context, id string) error
	SetAdmin(ctx context.Context, id string, admin bool) (*model.User, error)
	ToggleBusiness(ctx context.Context, id string) (*model.User, error)
}

type usersService struct {
	client  UsersClient
	session common.Session
	cards   Invalidator
}

// NewUsersService constructs a UsersService. cards may be nil.
func NewUsersService(client UsersClient, session common.Session, cards Invalidator) UsersService {
	return &usersService{
		client:  client,
		session: session,
		cards:   cards,
	}
}

func (s *usersService) Register(ctx context.Context, reg model.Registration) (*model.User, error) {
	user, err := s.client.Register(ctx, reg)
	if err != nil {
		log.WithError(err).WithField("email", reg.Email).Error("registration failed")
		return nil, err
	}
	return user, nil
}

// Login stores the issued token in the session and returns the identity it
// carries.
func (s *usersService) Login(ctx context.Context, email, password string) (*model.Identity, error) {
	token, err := s.client.Login(ctx, model.Credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	ident, err := common.DecodeToken(token)
	if err != nil {
		return nil, fmt.Errorf("login succeeded but token is unusable: %w", err)
	}
	if err := s.session.SetToken(token); err != nil {
		return nil, err
	}
	s.invalidateCards()
	log.WithField("user", ident.ID).Info("logged in")
	return ident, nil
}

func (s *usersService) Logout() error {
	if err := s.session.Clear(); err != nil {
		return err
	}
	s.invalidateCards()
	return nil
}

func (s *usersService) CurrentIdentity() (*model.Identity, error) {
	return common.IdentityFromSession(s.session)
}

func (s *usersService) CurrentUser(ctx context.Context) (*model.User, error) {
	ident, err := s.CurrentIdentity()
	if err != nil {
		return nil, err
	}
	return s.client.GetUser(ctx, ident.ID)
}

func (s *usersService) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.client.GetUser(ctx, id)
}

// UpdateUser sends the updatable subset of user; email, business status and
// id are dropped.
func (s *usersService) UpdateUser(ctx context.Context, id string, user model.User) (*model.User, error) {
	return s.client.UpdateUser(ctx, id, user.Update())
}

func (s *usersService) ListUsers(ctx context.Context) ([]model.User, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	return s.client.ListUsers(ctx)
}

func (s *usersService) DeleteUser(ctx context.Context, id string) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	if err := s.client.DeleteUser(ctx, id); err != nil {
		return err
	}
	log.WithField("user", id).Info("user deleted")
	return nil
}

// SetAdmin reads the user and writes it back with the admin flag changed.
func (s *usersService) SetAdmin(ctx context.Context, id string, admin bool) (*model.User, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	user, err := s.client.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	user.IsAdmin = admin
	return s.client.UpdateUser(ctx, id, user.Update())
}

// ToggleBusiness flips the business flag. Users may toggle their own; admins
// may toggle anyone's.
func (s *usersService) ToggleBusiness(ctx context.Context, id string) (*model.User, error) {
	ident, err := s.CurrentIdentity()
	if err != nil {
		return nil, err
	}
	if !ident.IsAdmin && ident.ID != id {
		return nil, common.ErrForbidden
	}
	return s.client.ToggleBusiness(ctx, id)
}

func (s *usersService) requireAdmin() error {
	ident, err := s.CurrentIdentity()
	if err != nil {
		return err
	}
	if !ident.IsAdmin {
		return common.ErrForbidden
	}
	return nil
}

func (s *usersService) invalidateCards() {
	if s.cards != nil {
		s.cards.InvalidateAll()
	}
}
