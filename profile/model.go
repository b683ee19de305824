package profile

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when the user has no profile yet.
var ErrNotFound = errors.New("profile not found")

// Profile is the per-user document. Fields never supplied are "" or 0, never null.
type Profile struct {
	UserID      int64     `json:"user_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Age         int       `json:"age"`
	DateOfBirth string    `json:"date_of_birth"`
	Contact     string    `json:"contact"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	Country     string    `json:"country"`
	Bio         string    `json:"bio"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Fields is a partial update. A nil pointer means the field was not supplied
// and keeps its stored value.
type Fields struct {
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	Age         *int    `json:"age,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
	Contact     *string `json:"contact,omitempty"`
	Address     *string `json:"address,omitempty"`
	City        *string `json:"city,omitempty"`
	Country     *string `json:"country,omitempty"`
	Bio         *string `json:"bio,omitempty"`
}

// Empty reports whether no field was supplied.
func (f Fields) Empty() bool {
	return f.FirstName == nil && f.LastName == nil && f.Age == nil &&
		f.DateOfBirth == nil && f.Contact == nil && f.Address == nil &&
		f.City == nil && f.Country == nil && f.Bio == nil
}

// Names returns the JSON names of the supplied fields, comma separated.
func (f Fields) Names() string {
	var names []string
	add := func(set bool, name string) {
		if set {
			names = append(names, name)
		}
	}
	add(f.FirstName != nil, "first_name")
	add(f.LastName != nil, "last_name")
	add(f.Age != nil, "age")
	add(f.DateOfBirth != nil, "date_of_birth")
	add(f.Contact != nil, "contact")
	add(f.Address != nil, "address")
	add(f.City != nil, "city")
	add(f.Country != nil, "country")
	add(f.Bio != nil, "bio")
	return strings.Join(names, ",")
}

// Deleter is the optional delete capability. Only stores that can remove a
// profile implement it.
type Deleter interface {
	Delete(ctx context.Context, userID int64) error
}

// merge applies f onto existing, or builds a new profile when existing is nil.
func merge(existing *Profile, userID int64, f Fields, now time.Time) *Profile {
	now = now.UTC().Truncate(time.Second)

	var p Profile
	if existing != nil {
		p = *existing
	} else {
		p = Profile{UserID: userID, CreatedAt: now}
	}

	setString(&p.FirstName, f.FirstName)
	setString(&p.LastName, f.LastName)
	if f.Age != nil {
		p.Age = *f.Age
	}
	setString(&p.DateOfBirth, f.DateOfBirth)
	setString(&p.Contact, f.Contact)
	setString(&p.Address, f.Address)
	setString(&p.City, f.City)
	setString(&p.Country, f.Country)
	setString(&p.Bio, f.Bio)

	p.UpdatedAt = now
	return &p
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

type options struct {
	now func() time.Time
}

// Option customizes a profile store.
type Option func(*options)

// WithClock overrides the time source used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
