package dashsdk

import (
	"net/url"
	"strconv"
	"time"
)

// Role of a backend user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User is the identity returned by GET /me.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	Name           *string   `json:"name"`
	Bio            *string   `json:"bio"`
	Role           Role      `json:"role"`
	ProfileImageID *string   `json:"profileImageId"`
	ProfileImage   *Image    `json:"profileImage"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// IsAdmin reports whether u may hold a dashboard session.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Image is an uploaded image record.
type Image struct {
	ID        string    `json:"id"`
	URL       *string   `json:"url"`
	PublicID  *string   `json:"publicId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ImageRef is what an upload returns and what a destination cover accepts.
type ImageRef struct {
	URL      *string `json:"url"`
	PublicID *string `json:"publicId,omitempty"`
}

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Gallery struct {
	ID            string    `json:"id"`
	ImageID       *string   `json:"imageId"`
	DestinationID *string   `json:"destinationId"`
	Image         *Image    `json:"image"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Count carries the engagement totals the backend attaches to listings.
type Count struct {
	Likes     int `json:"likes"`
	Bookmarks int `json:"bookmarks"`
}

type Destination struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	Content    *string   `json:"content"`
	Address    *string   `json:"address"`
	Latitude   *float64  `json:"latitude"`
	Longitude  *float64  `json:"longitude"`
	CoverID    *string   `json:"coverId"`
	Cover      *Image    `json:"cover"`
	Price      *float64  `json:"price"`
	CategoryID string    `json:"categoryId"`
	MapURL     *string   `json:"mapUrl"`
	Category   *Category `json:"category"`
	Tags       []Tag     `json:"tags"`
	Galleries  []Gallery `json:"galleries"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Count      Count     `json:"_count"`
}

// Pagination is the backend's page metadata.
type Pagination struct {
	CurrentPage int     `json:"currentPage"`
	NextCursor  *string `json:"nextCursor"`
	PageSize    int     `json:"pageSize"`
	TotalItems  int     `json:"totalItems"`
	TotalPages  int     `json:"totalPages"`
}

// Page is one page of a listing.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type CategoryPage = Page[Category]

type DestinationPage = Page[Destination]

// ListParams selects a page of a listing. The zero value asks the backend
// for its default listing without any query.
type ListParams struct {
	Page  int
	Size  int
	Title string
}

// IsZero reports whether no parameter was given.
func (p ListParams) IsZero() bool {
	return p.Page == 0 && p.Size == 0 && p.Title == ""
}

// Query encodes p with page 1 and size 10 filled in when missing.
func (p ListParams) Query() url.Values {
	page, size := p.Page, p.Size
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 10
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	if p.Title != "" {
		q.Set("title", p.Title)
	}
	return q
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is the payload of POST /login and GET /token.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}
