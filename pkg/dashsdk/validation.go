package dashsdk

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	reasonRequired      = "required"
	reasonInvalidNumber = "invalid number"
	reasonInvalidURL    = "invalid url"
	reasonInvalidCat    = "invalid category id"
)

var reCUID = regexp.MustCompile(`^c[^\s-]{8,}$`)

// CategoryInput is the body of POST /categories.
type CategoryInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// Validate returns a map of field names to error messages, or nil.
func (in CategoryInput) Validate() map[string]string {
	errs := make(map[string]string)

	validateLength(errs, "name", in.Name, 1, 200)
	if in.Description != nil {
		validateLength(errs, "description", *in.Description, 0, 600)
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// CategoryPatch is the body of PATCH /categories/{id}.
type CategoryPatch struct {
	Name        *string          `json:"name,omitempty"`
	Description Nullable[string] `json:"description"`
}

func (p CategoryPatch) Validate() map[string]string {
	errs := make(map[string]string)

	if p.Name != nil {
		validateLength(errs, "name", *p.Name, 1, 200)
	}
	if p.Description.Set && !p.Description.Null {
		validateLength(errs, "description", p.Description.Value, 0, 600)
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Payload returns only the fields that were given.
func (p CategoryPatch) Payload() map[string]any {
	out := make(map[string]any)
	if p.Name != nil {
		out["name"] = *p.Name
	}
	if p.Description.Set {
		out["description"] = p.Description.payloadValue()
	}
	return out
}

// DestinationInput holds the create form. Numbers arrive as the strings the
// user typed and are converted by Payload.
type DestinationInput struct {
	Title      string    `json:"title"`
	Content    *string   `json:"content"`
	Address    *string   `json:"address"`
	MapURL     *string   `json:"mapUrl"`
	Latitude   string    `json:"latitude"`
	Longitude  string    `json:"longitude"`
	CategoryID string    `json:"categoryId"`
	Price      string    `json:"price"`
	Tags       []string  `json:"tags"`
	Cover      *ImageRef `json:"cover"`
}

func (in DestinationInput) Validate() map[string]string {
	errs := make(map[string]string)

	validateLength(errs, "title", in.Title, 1, 200)
	if in.MapURL != nil {
		validateURL(errs, "mapUrl", *in.MapURL)
	}
	validateNumber(errs, "latitude", in.Latitude)
	validateNumber(errs, "longitude", in.Longitude)
	validateNumber(errs, "price", in.Price)
	validateCUID(errs, "categoryId", in.CategoryID)
	validateTags(errs, in.Tags)
	validateCover(errs, in.Cover)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Payload converts the form into the backend body. An unparsable or zero
// price becomes 0; unparsable or zero coordinates become null.
func (in DestinationInput) Payload() map[string]any {
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	out := map[string]any{
		"title":      in.Title,
		"content":    in.Content,
		"address":    in.Address,
		"mapUrl":     in.MapURL,
		"categoryId": in.CategoryID,
		"tags":       tags,
		"cover":      in.Cover,
		"price":      0.0,
		"latitude":   nil,
		"longitude":  nil,
	}
	if n, ok := truthyNumber(in.Price); ok {
		out["price"] = n
	}
	if n, ok := truthyNumber(in.Latitude); ok {
		out["latitude"] = n
	}
	if n, ok := truthyNumber(in.Longitude); ok {
		out["longitude"] = n
	}
	return out
}

// DestinationPatch holds the edit form. Absent fields are left untouched.
type DestinationPatch struct {
	Title      *string            `json:"title,omitempty"`
	Content    Nullable[string]   `json:"content"`
	Address    Nullable[string]   `json:"address"`
	MapURL     Nullable[string]   `json:"mapUrl"`
	Latitude   *string            `json:"latitude,omitempty"`
	Longitude  *string            `json:"longitude,omitempty"`
	CategoryID *string            `json:"categoryId,omitempty"`
	Price      *string            `json:"price,omitempty"`
	Tags       []string           `json:"tags,omitempty"`
	Cover      Nullable[ImageRef] `json:"cover"`
}

func (p DestinationPatch) Validate() map[string]string {
	errs := make(map[string]string)

	if p.Title != nil {
		validateLength(errs, "title", *p.Title, 1, 200)
	}
	if p.MapURL.Set && !p.MapURL.Null {
		validateURL(errs, "mapUrl", p.MapURL.Value)
	}
	if p.Latitude != nil {
		validateNumber(errs, "latitude", *p.Latitude)
	}
	if p.Longitude != nil {
		validateNumber(errs, "longitude", *p.Longitude)
	}
	if p.Price != nil {
		validateNumber(errs, "price", *p.Price)
	}
	if p.CategoryID != nil {
		validateCUID(errs, "categoryId", *p.CategoryID)
	}
	validateTags(errs, p.Tags)
	validateCover(errs, p.Cover.Ptr())

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Payload returns the PATCH body. Fields equal to their value in old are
// dropped, as are numbers that parse to zero. old may be nil.
func (p DestinationPatch) Payload(old *Destination) map[string]any {
	out := make(map[string]any)

	if p.Title != nil && (old == nil || old.Title != *p.Title) {
		out["title"] = *p.Title
	}
	if p.Content.Set && (old == nil || !equalPtr(old.Content, p.Content.Ptr())) {
		out["content"] = p.Content.payloadValue()
	}
	if p.Address.Set && (old == nil || !equalPtr(old.Address, p.Address.Ptr())) {
		out["address"] = p.Address.payloadValue()
	}
	if p.MapURL.Set {
		out["mapUrl"] = p.MapURL.payloadValue()
	}
	if p.CategoryID != nil && (old == nil || old.CategoryID != *p.CategoryID) {
		out["categoryId"] = *p.CategoryID
	}

	numbers := []struct {
		key string
		in  *string
		old *float64
	}{
		{"price", p.Price, fieldOf(old, func(d *Destination) *float64 { return d.Price })},
		{"latitude", p.Latitude, fieldOf(old, func(d *Destination) *float64 { return d.Latitude })},
		{"longitude", p.Longitude, fieldOf(old, func(d *Destination) *float64 { return d.Longitude })},
	}
	for _, n := range numbers {
		if n.in == nil {
			continue
		}
		v, ok := truthyNumber(*n.in)
		if !ok || (n.old != nil && *n.old == v) {
			continue
		}
		out[n.key] = v
	}

	if p.Tags != nil {
		out["tags"] = p.Tags
	}
	if p.Cover.Set {
		out["cover"] = p.Cover.payloadValue()
	}
	return out
}

func validateLength(errs map[string]string, field, v string, minLen, maxLen int) {
	n := utf8.RuneCountInString(v)
	switch {
	case minLen > 0 && n < minLen:
		errs[field] = reasonRequired
	case n > maxLen:
		errs[field] = fmt.Sprintf("too long (max %d)", maxLen)
	}
}

func validateURL(errs map[string]string, field, v string) {
	if !isURL(v) {
		errs[field] = reasonInvalidURL
	}
}

func validateNumber(errs map[string]string, field, v string) {
	if _, ok := parseNumber(v); !ok {
		errs[field] = reasonInvalidNumber
	}
}

func validateCUID(errs map[string]string, field, v string) {
	if !reCUID.MatchString(v) {
		errs[field] = reasonInvalidCat
	}
}

func validateTags(errs map[string]string, tags []string) {
	for i, tag := range tags {
		if tag == "" {
			errs[fmt.Sprintf("tags.%d", i)] = reasonRequired
		}
	}
}

func validateCover(errs map[string]string, cover *ImageRef) {
	if cover != nil && cover.URL != nil && !isURL(*cover.URL) {
		errs["cover.url"] = reasonInvalidURL
	}
}

func isURL(v string) bool {
	u, err := url.Parse(v)
	return err == nil && u.Scheme != "" && (u.Host != "" || u.Opaque != "")
}

// parseNumber accepts a non-empty string that parses as a number once
// surrounding space is trimmed. Whitespace-only input is zero.
func parseNumber(v string) (float64, bool) {
	if v == "" {
		return 0, false
	}
	s := strings.TrimSpace(v)
	if s == "" {
		return 0, true
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

// truthyNumber returns the parsed value when it is a valid non-zero number.
func truthyNumber(v string) (float64, bool) {
	n, ok := parseNumber(v)
	if !ok || n == 0 {
		return 0, false
	}
	return n, true
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func fieldOf(d *Destination, get func(*Destination) *float64) *float64 {
	if d == nil {
		return nil
	}
	return get(d)
}
