// Package directory holds the business directory: business records, the
// static province and department reference data, and the filter that narrows
// a business list by free text and facets.
package directory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a business id is unknown.
	ErrNotFound = errors.New("business not found")
	// ErrForbidden is returned when a user edits a business they do not own.
	ErrForbidden = errors.New("business belongs to another owner")
	// ErrRemoteFailure marks a failed round trip to the business store.
	ErrRemoteFailure = errors.New("business store unavailable")
)

// Business is a directory listing owned by a registered user.
type Business struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	Category    string
	Subcategory string
	Location    string
	Province    string
	City        string
	Department  string
	Contact     Contact
	Social      Social
	Images      []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Contact holds the ways a business can be reached.
type Contact struct {
	Phone    string
	Email    string
	Website  string
	WhatsApp string
}

// Social holds links to a business's social media profiles.
type Social struct {
	Facebook  string
	Instagram string
	Twitter   string
	LinkedIn  string
	TikTok    string
}

// Clone returns a deep copy of b.
func (b Business) Clone() Business {
	b.Images = slices.Clone(b.Images)
	return b
}

// ValidationError describes a business field rejected before persisting.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid business " + e.Field + ": " + e.Reason
}

// Validate checks required fields and consistency with the reference data.
func (b Business) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	if b.Department != "" {
		dept, ok := LookupDepartment(b.Department)
		if !ok {
			return &ValidationError{Field: "department", Reason: "unknown department " + b.Department}
		}
		if b.Subcategory != "" && !slices.Contains(dept.Subcategories, b.Subcategory) {
			return &ValidationError{Field: "subcategory", Reason: b.Subcategory + " is not part of " + dept.Name}
		}
	}
	if b.Province != "" && !IsProvince(b.Province) {
		return &ValidationError{Field: "province", Reason: "unknown province " + b.Province}
	}
	if b.City != "" {
		if b.Province == "" {
			return &ValidationError{Field: "city", Reason: "requires a province"}
		}
		if !CityInProvince(b.Province, b.City) {
			return &ValidationError{Field: "city", Reason: b.City + " is not in " + b.Province}
		}
	}
	return nil
}

// Repository is the remote business store.
type Repository interface {
	List(ctx context.Context) ([]Business, error)
	GetByID(ctx context.Context, id string) (*Business, error)
	Create(ctx context.Context, b *Business) error
	Update(ctx context.Context, b *Business) error
	// Upsert inserts b or updates the listing with the same name and city.
	// It reports whether a new row was inserted.
	Upsert(ctx context.Context, b *Business) (bool, error)
}
