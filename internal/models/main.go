// Package models defines the core data structures for users, listings and matches.
package models

import "time"

// Role identifies the privilege level of a user account.
type Role string

const (
	// RoleUser is the default role assigned on registration.
	RoleUser Role = "user"
	// RoleAdmin marks an account allowed to manage all listings.
	RoleAdmin Role = "admin"
)

// User represents an application user as returned by the identity endpoint.
type User struct {
	// ID is the unique identifier for the user.
	ID int64 `json:"id"`
	// Name is the display name chosen at registration.
	Name string `json:"name"`
	// Email is the login email address.
	Email string `json:"email"`
	// Role is the privilege level ("user" or "admin").
	Role Role `json:"role"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ItemType distinguishes lost reports from found reports.
type ItemType string

const (
	// ItemLost is a listing for an item the reporter lost.
	ItemLost ItemType = "lost"
	// ItemFound is a listing for an item the reporter found.
	ItemFound ItemType = "found"
)

// ItemStatus is the lifecycle state of a listing.
type ItemStatus string

const (
	// StatusOpen means the listing is active and searchable.
	StatusOpen ItemStatus = "open"
	// StatusMatched means a likely counterpart has been identified.
	StatusMatched ItemStatus = "matched"
	// StatusResolved means the item has been returned to its owner.
	StatusResolved ItemStatus = "resolved"
)

// Item is a lost or found listing in the registry.
type Item struct {
	ID           int64      `json:"id"`
	OwnerID      int64      `json:"owner_id"`
	Type         ItemType   `json:"type"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Category     string     `json:"category,omitempty"`
	Location     string     `json:"location,omitempty"`
	Status       ItemStatus `json:"status"`
	DateReported time.Time  `json:"date_reported"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ItemImage is a stored photograph attached to a listing.
type ItemImage struct {
	// ID is the storage identifier of the image.
	ID string `json:"id"`
	// ItemID is the listing the image belongs to.
	ItemID int64 `json:"item_id"`
	// URL is where the image can be fetched from.
	URL string `json:"image_url"`
}

// Match is one entry of the ranked similarity list for a listing.
type Match struct {
	// ItemID is the candidate counterpart listing.
	ItemID int64 `json:"item_id"`
	// Score is the similarity score in [0, 1], higher is closer.
	Score float64 `json:"score"`
}
