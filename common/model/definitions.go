package model

import (
	"encoding/json"
	"time"
)

// JSONUnmarshal decodes API payloads and cached entries.
func JSONUnmarshal(data []byte, out interface{}) error {
	return json.Unmarshal(data, out)
}

// ----------------------------------------------------------------------
// Shared value types
// ----------------------------------------------------------------------

// Image is a url/alt pair attached to both cards and users.
type Image struct {
	URL string `json:"url" yaml:"url"`
	Alt string `json:"alt" yaml:"alt"`
}

// Address is a postal address as stored by the backend.
type Address struct {
	State       string `json:"state" yaml:"state"`
	Country     string `json:"country" yaml:"country"`
	City        string `json:"city" yaml:"city"`
	Street      string `json:"street" yaml:"street"`
	HouseNumber int    `json:"houseNumber" yaml:"houseNumber"`
	Zip         int    `json:"zip,omitempty" yaml:"zip,omitempty"`
}

// ----------------------------------------------------------------------
// Cards
// ----------------------------------------------------------------------

// Likes is the set of user ids that liked a card. Decoding collapses
// duplicate ids so the set invariant holds regardless of the payload.
type Likes []string

func (l *Likes) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*l = nil
		return nil
	}
	seen := make(map[string]struct{}, len(raw))
	out := make(Likes, 0, len(raw))
	for _, id := range raw {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	*l = out
	return nil
}

// Contains reports whether userID is in the set.
func (l Likes) Contains(userID string) bool {
	for _, id := range l {
		if id == userID {
			return true
		}
	}
	return false
}

// Card is a business card as returned by the cards endpoint.
type Card struct {
	ID          string    `json:"_id,omitempty"`
	Title       string    `json:"title"`
	Subtitle    string    `json:"subtitle"`
	Description string    `json:"description"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Web         string    `json:"web,omitempty"`
	Image       Image     `json:"image"`
	Address     Address   `json:"address"`
	BizNumber   int       `json:"bizNumber,omitempty"`
	Likes       Likes     `json:"likes"`
	UserID      string    `json:"user_id,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Input returns the writable subset of the card, dropping every field the
// server manages (id, likes, owner, business number, creation time).
func (c Card) Input() CardInput {
	return CardInput{
		Title:       c.Title,
		Subtitle:    c.Subtitle,
		Description: c.Description,
		Phone:       c.Phone,
		Email:       c.Email,
		Web:         c.Web,
		Image:       c.Image,
		Address:     c.Address,
	}
}

// Clone returns a copy that shares no slices with c. A nil Likes stays nil
// and an empty one stays empty.
func (c Card) Clone() Card {
	if c.Likes != nil {
		c.Likes = append(make(Likes, 0, len(c.Likes)), c.Likes...)
	}
	return c
}

// CardInput is the payload for creating or updating a card.
type CardInput struct {
	Title       string  `json:"title"`
	Subtitle    string  `json:"subtitle"`
	Description string  `json:"description"`
	Phone       string  `json:"phone"`
	Email       string  `json:"email"`
	Web         string  `json:"web,omitempty"`
	Image       Image   `json:"image"`
	Address     Address `json:"address"`
}

// CardForm is the flat shape a card is edited in (one field per input),
// normalized into the nested CardInput before it is sent.
type CardForm struct {
	Title       string `yaml:"title"`
	Subtitle    string `yaml:"subtitle"`
	Description string `yaml:"description"`
	Phone       string `yaml:"phone"`
	Email       string `yaml:"email"`
	Web         string `yaml:"web"`
	URL         string `yaml:"url"`
	Alt         string `yaml:"alt"`
	State       string `yaml:"state"`
	Country     string `yaml:"country"`
	City        string `yaml:"city"`
	Street      string `yaml:"street"`
	HouseNumber int    `yaml:"houseNumber"`
	Zip         int    `yaml:"zip"`
}

// Form flattens the card into its editable form.
func (c Card) Form() CardForm {
	return CardForm{
		Title:       c.Title,
		Subtitle:    c.Subtitle,
		Description: c.Description,
		Phone:       c.Phone,
		Email:       c.Email,
		Web:         c.Web,
		URL:         c.Image.URL,
		Alt:         c.Image.Alt,
		State:       c.Address.State,
		Country:     c.Address.Country,
		City:        c.Address.City,
		Street:      c.Address.Street,
		HouseNumber: c.Address.HouseNumber,
		Zip:         c.Address.Zip,
	}
}

// Normalize nests the flat form fields into a CardInput.
func (f CardForm) Normalize() CardInput {
	return CardInput{
		Title:       f.Title,
		Subtitle:    f.Subtitle,
		Description: f.Description,
		Phone:       f.Phone,
		Email:       f.Email,
		Web:         f.Web,
		Image: Image{
			URL: f.URL,
			Alt: f.Alt,
		},
		Address: Address{
			State:       f.State,
			Country:     f.Country,
			City:        f.City,
			Street:      f.Street,
			HouseNumber: f.HouseNumber,
			Zip:         f.Zip,
		},
	}
}

// ----------------------------------------------------------------------
// Users
// ----------------------------------------------------------------------

// Name is a user's full name.
type Name struct {
	First  string `json:"first" yaml:"first"`
	Middle string `json:"middle,omitempty" yaml:"middle"`
	Last   string `json:"last" yaml:"last"`
}

// Full joins the non-empty name parts.
func (n Name) Full() string {
	out := n.First
	for _, part := range []string{n.Middle, n.Last} {
		if part == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += part
	}
	return out
}

// User is a user record as returned by the users endpoint.
type User struct {
	ID         string    `json:"_id,omitempty"`
	Name       Name      `json:"name"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email"`
	Password   string    `json:"password,omitempty"`
	Image      Image     `json:"image"`
	Address    Address   `json:"address"`
	IsAdmin    bool      `json:"isAdmin"`
	IsBusiness bool      `json:"isBusiness"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Update returns the subset of the user that may be sent to PUT /users/:id.
// Id, email and business status are not updatable through that path.
func (u User) Update() UserUpdate {
	return UserUpdate{
		Name:    u.Name,
		Phone:   u.Phone,
		Image:   u.Image,
		Address: u.Address,
		IsAdmin: u.IsAdmin,
	}
}

// UserUpdate is the payload for PUT /users/:id.
type UserUpdate struct {
	Name    Name    `json:"name"`
	Phone   string  `json:"phone"`
	Image   Image   `json:"image"`
	Address Address `json:"address"`
	IsAdmin bool    `json:"isAdmin"`
}

// Registration is the payload for POST /users.
type Registration struct {
	Name       Name    `json:"name" yaml:"name"`
	Phone      string  `json:"phone" yaml:"phone"`
	Email      string  `json:"email" yaml:"email"`
	Password   string  `json:"password" yaml:"password"`
	Image      Image   `json:"image" yaml:"image"`
	Address    Address `json:"address" yaml:"address"`
	IsBusiness bool    `json:"isBusiness" yaml:"isBusiness"`
}

// Credentials is the payload for POST /users/login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Identity is what the client learns about the current user from the
// session token. Only ID is guaranteed to be present.
type Identity struct {
	ID         string
	Email      string
	Name       string
	IsAdmin    bool
	IsBusiness bool
	IssuedAt   time.Time
	ExpiresAt  time.Time
}
