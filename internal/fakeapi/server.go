// Package fakeapi is an in-memory stand-in for the cards/users REST backend,
// used by integration tests. It enforces the same rules the real backend
// does: token auth, ownership, admin-only routes and rejection of
// server-managed fields on update.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/guarzo/bcards/common"
	"github.com/guarzo/bcards/common/model"
)

const signingKey = "fakeapi-signing-key"

// Server is a running fake backend. Users live under URL+"/users" and
// cards under URL+"/cards".
type Server struct {
	*httptest.Server

	auth *jwtauth.JWTAuth

	mu        sync.Mutex
	users     map[string]*model.User
	passwords map[string]string
	cards     map[string]*model.Card
	order     []string
	bizNumber int
	calls     map[string]int
}

// NewServer starts a fake backend. Close it when done.
func NewServer() *Server {
	s := &Server{
		auth:      jwtauth.New("HS256", []byte(signingKey), nil),
		users:     make(map[string]*model.User),
		passwords: make(map[string]string),
		cards:     make(map[string]*model.Card),
		bizNumber: 1000000,
		calls:     make(map[string]int),
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

// UsersURL is the users endpoint base.
func (s *Server) UsersURL() string { return s.URL + "/users" }

// CardsURL is the cards endpoint base.
func (s *Server) CardsURL() string { return s.URL + "/cards" }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.count)

	verify := jwtauth.Verify(s.auth, func(r *http.Request) string {
		return r.Header.Get(common.AuthHeader)
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/", s.register)
		r.Post("/login", s.login)
		r.Group(func(r chi.Router) {
			r.Use(verify, jwtauth.Authenticator)
			r.Get("/", s.listUsers)
			r.Get("/{id}", s.getUser)
			r.Put("/{id}", s.updateUser)
			r.Delete("/{id}", s.deleteUser)
			r.Patch("/{id}", s.toggleBusiness)
		})
	})

	r.Route("/cards", func(r chi.Router) {
		r.Get("/", s.listCards)
		r.Get("/{id}", s.getCard)
		r.Group(func(r chi.Router) {
			r.Use(verify, jwtauth.Authenticator)
			r.Get("/my-cards", s.myCards)
			r.Post("/", s.createCard)
			r.Put("/{id}", s.updateCard)
			r.Delete("/{id}", s.deleteCard)
			r.Patch("/{id}", s.toggleLike)
		})
	})
	return r
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.Method+" "+r.URL.Path]++
		s.mu.Unlock()
		log.WithFields(log.Fields{"method": r.Method, "path": r.URL.Path}).Debug("fakeapi request")
		next.ServeHTTP(w, r)
	})
}

// Calls reports how many requests hit method+path, e.g. Calls("GET", "/cards").
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// ----------------------------------------------------------------------
// Seeding
// ----------------------------------------------------------------------

// AddUser stores user with password and returns it with its id assigned.
func (s *Server) AddUser(user model.User, password string) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Password = ""
	user.CreatedAt = time.Now().UTC()
	s.users[user.ID] = &user
	s.passwords[user.Email] = password
	return user
}

// AddCard stores card and returns it with its id and business number
// assigned.
func (s *Server) AddCard(card model.Card) model.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.insertCard(card)
}

// Token issues a token for a stored user.
func (s *Server) Token(userID string) string {
	s.mu.Lock()
	user, ok := s.users[userID]
	var snapshot model.User
	if ok {
		snapshot = *user
	}
	s.mu.Unlock()
	if !ok {
		return ""
	}
	return s.issue(&snapshot)
}

// Card returns a copy of a stored card.
func (s *Server) Card(id string) (model.Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		return model.Card{}, false
	}
	return c.Clone(), true
}

func (s *Server) insertCard(card model.Card) *model.Card {
	if card.ID == "" {
		card.ID = uuid.NewString()
	}
	if card.Likes == nil {
		card.Likes = model.Likes{}
	}
	s.bizNumber++
	card.BizNumber = s.bizNumber
	card.CreatedAt = time.Now().UTC()
	s.cards[card.ID] = &card
	s.order = append(s.order, card.ID)
	return &card
}

func (s *Server) issue(user *model.User) string {
	claims := map[string]interface{}{
		"_id":        user.ID,
		"isAdmin":    user.IsAdmin,
		"isBusiness": user.IsBusiness,
		"email":      user.Email,
	}
	jwtauth.SetIssuedNow(claims)
	_, tok, err := s.auth.Encode(claims)
	if err != nil {
		log.WithError(err).Error("fakeapi: unable to sign token")
		return ""
	}
	return tok
}

// ----------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------

type caller struct {
	id    string
	admin bool
}

func callerFrom(r *http.Request) caller {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return caller{}
	}
	id, _ := claims["_id"].(string)
	admin, _ := claims["isAdmin"].(bool)
	return caller{id: id, admin: admin}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func fail(w http.ResponseWriter, status int, msg string) {
	http.Error(w, msg, status)
}

// decodeStrict decodes the body into out after rejecting any of the
// forbidden top-level fields.
func decodeStrict(r *http.Request, out interface{}, forbidden ...string) error {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return fmt.Errorf("invalid JSON body: %v", err)
	}
	for _, f := range forbidden {
		if _, present := raw[f]; present {
			return fmt.Errorf("%q is not allowed", f)
		}
	}
	data, _ := json.Marshal(raw)
	return json.Unmarshal(data, out)
}

// ----------------------------------------------------------------------
// Users
// ----------------------------------------------------------------------

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var reg model.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		fail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if reg.Email == "" || reg.Password == "" {
		fail(w, http.StatusBadRequest, "email and password are required")
		return
	}

	s.mu.Lock()
	_, taken := s.passwords[reg.Email]
	s.mu.Unlock()
	if taken {
		fail(w, http.StatusBadRequest, "User already registered")
		return
	}

	user := s.AddUser(model.User{
		Name:       reg.Name,
		Phone:      reg.Phone,
		Email:      reg.Email,
		Image:      reg.Image,
		Address:    reg.Address,
		IsBusiness: reg.IsBusiness,
	}, reg.Password)
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		fail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	s.mu.Lock()
	password, ok := s.passwords[creds.Email]
	var user *model.User
	for _, u := range s.users {
		if u.Email == creds.Email {
			found := *u
			user = &found
			break
		}
	}
	s.mu.Unlock()

	if !ok || password != creds.Password || user == nil {
		fail(w, http.StatusBadRequest, "Invalid email or password")
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(s.issue(user)))
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	if !callerFrom(r).admin {
		fail(w, http.StatusForbidden, "Authorization Error: admin only")
		return
	}
	s.mu.Lock()
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) userForCaller(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	c := callerFrom(r)
	id := chi.URLParam(r, "id")
	if !c.admin && c.id != id {
		fail(w, http.StatusForbidden, "Authorization Error: not your account")
		return nil, false
	}
	s.mu.Lock()
	user, ok := s.users[id]
	s.mu.Unlock()
	if !ok {
		fail(w, http.StatusNotFound, "User not found")
		return nil, false
	}
	return user, true
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	user, ok := s.userForCaller(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	out := *user
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	user, ok := s.userForCaller(w, r)
	if !ok {
		return
	}
	var update model.UserUpdate
	if err := decodeStrict(r, &update, "_id", "email", "isBusiness"); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	user.Name = update.Name
	user.Phone = update.Phone
	user.Image = update.Image
	user.Address = update.Address
	if callerFrom(r).admin {
		user.IsAdmin = update.IsAdmin
	}
	out := *user
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	user, ok := s.userForCaller(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.users, user.ID)
	delete(s.passwords, user.Email)
	out := *user
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) toggleBusiness(w http.ResponseWriter, r *http.Request) {
	user, ok := s.userForCaller(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	user.IsBusiness = !user.IsBusiness
	out := *user
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

// ----------------------------------------------------------------------
// Cards
// ----------------------------------------------------------------------

func (s *Server) listCards(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]model.Card, 0, len(s.order))
	for _, id := range s.order {
		if c, ok := s.cards[id]; ok {
			out = append(out, c.Clone())
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) myCards(w http.ResponseWriter, r *http.Request) {
	c := callerFrom(r)
	s.mu.Lock()
	out := make([]model.Card, 0)
	for _, id := range s.order {
		if card, ok := s.cards[id]; ok && card.UserID == c.id {
			out = append(out, card.Clone())
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getCard(w http.ResponseWriter, r *http.Request) {
	card, ok := s.Card(chi.URLParam(r, "id"))
	if !ok {
		fail(w, http.StatusNotFound, "Card not found")
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) createCard(w http.ResponseWriter, r *http.Request) {
	c := callerFrom(r)
	s.mu.Lock()
	user, ok := s.users[c.id]
	allowed := ok && (user.IsBusiness || user.IsAdmin)
	s.mu.Unlock()
	if !allowed {
		fail(w, http.StatusForbidden, "Authorization Error: only business users can create cards")
		return
	}

	var in model.CardInput
	if err := decodeStrict(r, &in, "_id", "likes", "user_id", "bizNumber"); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	card := s.insertCard(cardFromInput(in, c.id))
	out := card.Clone()
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, out)
}

// cardForEdit loads the card named in the URL and checks the caller is its
// owner or an admin.
func (s *Server) cardForEdit(w http.ResponseWriter, r *http.Request) (*model.Card, bool) {
	c := callerFrom(r)
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	card, ok := s.cards[id]
	s.mu.Unlock()
	if !ok {
		fail(w, http.StatusNotFound, "Card not found")
		return nil, false
	}
	if card.UserID != c.id && !c.admin {
		fail(w, http.StatusForbidden, "Authorization Error: not the card owner")
		return nil, false
	}
	return card, true
}

func (s *Server) updateCard(w http.ResponseWriter, r *http.Request) {
	card, ok := s.cardForEdit(w, r)
	if !ok {
		return
	}
	var in model.CardInput
	if err := decodeStrict(r, &in, "_id", "likes", "user_id", "bizNumber"); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	updated := cardFromInput(in, card.UserID)
	updated.ID = card.ID
	updated.Likes = card.Likes
	updated.BizNumber = card.BizNumber
	updated.CreatedAt = card.CreatedAt
	*card = updated
	out := card.Clone()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) deleteCard(w http.ResponseWriter, r *http.Request) {
	card, ok := s.cardForEdit(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.cards, card.ID)
	for i, id := range s.order {
		if id == card.ID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	out := card.Clone()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) toggleLike(w http.ResponseWriter, r *http.Request) {
	c := callerFrom(r)
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	card, ok := s.cards[id]
	if !ok {
		s.mu.Unlock()
		fail(w, http.StatusNotFound, "Card not found")
		return
	}
	if card.Likes.Contains(c.id) {
		kept := make(model.Likes, 0, len(card.Likes))
		for _, u := range card.Likes {
			if u != c.id {
				kept = append(kept, u)
			}
		}
		card.Likes = kept
	} else {
		card.Likes = append(card.Likes, c.id)
	}
	out := card.Clone()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func cardFromInput(in model.CardInput, owner string) model.Card {
	return model.Card{
		Title:       in.Title,
		Subtitle:    in.Subtitle,
		Description: in.Description,
		Phone:       in.Phone,
		Email:       in.Email,
		Web:         in.Web,
		Image:       in.Image,
		Address:     in.Address,
		UserID:      owner,
	}
}
