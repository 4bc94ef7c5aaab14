package model

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"
)

var ErrInvalidLocation = errors.New("model: invalid location")

type Role string

const (
	RoleAdmin          Role = "admin"
	RoleProjectManager Role = "project_manager"
	RoleTeamMember     Role = "team_member"
)

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Color string `json:"color,omitempty"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	// Authors are sometimes returned as a bare id string.
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*u = User{ID: id}
		return nil
	}
	type alias User
	var raw struct {
		alias
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = User(raw.alias)
	if u.ID == "" {
		u.ID = raw.MongoID
	}
	return nil
}

// DisplayName falls back to the email when the name is missing.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	return strings.TrimSpace(u.Email)
}

type Attachment struct {
	URL          string `json:"url"`
	Filename     string `json:"filename,omitempty"`
	FileType     string `json:"fileType"`
	Size         int64  `json:"size"`
	PublicID     string `json:"publicId,omitempty"`
	ResourceType string `json:"resourceType,omitempty"`
}

// Name returns the filename, or the last path segment of the URL.
func (a Attachment) Name() string {
	if a.Filename != "" {
		return a.Filename
	}
	u := strings.TrimRight(a.URL, "/")
	if i := strings.LastIndex(u, "/"); i >= 0 {
		u = u[i+1:]
	}
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	if u == "" {
		return "attachment"
	}
	return u
}

// Location always carries both coordinates.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

func (l Location) Validate() error {
	if math.IsNaN(l.Lat) || math.IsNaN(l.Lng) || math.IsInf(l.Lat, 0) || math.IsInf(l.Lng, 0) {
		return ErrInvalidLocation
	}
	if l.Lat < -90 || l.Lat > 90 || l.Lng < -180 || l.Lng > 180 {
		return ErrInvalidLocation
	}
	return nil
}

// MarshalJSON writes the upload form of a location, address null when unknown.
func (l Location) MarshalJSON() ([]byte, error) {
	var address *string
	if strings.TrimSpace(l.Address) != "" {
		a := l.Address
		address = &a
	}
	return json.Marshal(struct {
		Lat     float64 `json:"lat"`
		Lng     float64 `json:"lng"`
		Address *string `json:"address"`
	}{l.Lat, l.Lng, address})
}

func (l *Location) UnmarshalJSON(data []byte) error {
	var raw struct {
		Lat     *float64 `json:"lat"`
		Lng     *float64 `json:"lng"`
		Address *string  `json:"address"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Lat == nil || raw.Lng == nil {
		return ErrInvalidLocation
	}
	*l = Location{Lat: *raw.Lat, Lng: *raw.Lng}
	if raw.Address != nil {
		l.Address = *raw.Address
	}
	return nil
}

type Note struct {
	ID          string       `json:"id"`
	Author      User         `json:"author"`
	Text        string       `json:"text"`
	CreatedAt   time.Time    `json:"createdAt"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Location    *Location    `json:"location,omitempty"`
}

func (n *Note) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          string          `json:"id"`
		MongoID     string          `json:"_id"`
		Author      *User           `json:"author"`
		User        *User           `json:"user"`
		Text        string          `json:"text"`
		CreatedAt   time.Time       `json:"createdAt"`
		Attachments []Attachment    `json:"attachments"`
		Location    json.RawMessage `json:"location"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*n = Note{
		ID:          raw.ID,
		Text:        raw.Text,
		CreatedAt:   raw.CreatedAt,
		Attachments: raw.Attachments,
	}
	if n.ID == "" {
		n.ID = raw.MongoID
	}
	switch {
	case raw.Author != nil:
		n.Author = *raw.Author
	case raw.User != nil:
		n.Author = *raw.User
	}
	if len(raw.Location) > 0 && string(raw.Location) != "null" {
		var loc Location
		// A partial location is dropped rather than half-attached.
		if err := json.Unmarshal(raw.Location, &loc); err == nil {
			n.Location = &loc
		}
	}
	return nil
}

func (n Note) HasAttachments() bool {
	return len(n.Attachments) > 0
}
