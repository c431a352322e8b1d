package hubx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Location is a campus a listing is offered at.
type Location string

const (
	StGeorge    Location = "St. George"
	Mississauga Location = "Mississauga"
	Scarborough Location = "Scarborough"
)

// Locations lists every known campus in display order.
var Locations = []Location{StGeorge, Mississauga, Scarborough}

// Valid reports whether l is a known campus.
func (l Location) Valid() bool {
	for _, v := range Locations {
		if l == v {
			return true
		}
	}
	return false
}

// ParseLocation parses a campus name. The empty string means "any".
func ParseLocation(s string) (Location, error) {
	l := Location(strings.TrimSpace(s))
	if l == "" || l.Valid() {
		return l, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLocation, s)
}

// Listing is an item offered on the marketplace. Listings are never
// mutated once fetched.
type Listing struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Location    Location  `json:"location"`
	DatePosted  Timestamp `json:"datePosted"`
	Images      []string  `json:"images"`
	Category    string    `json:"category,omitempty"`
	Condition   string    `json:"condition,omitempty"`
	SellerID    string    `json:"sellerId,omitempty"`
	SellerName  string    `json:"sellerName,omitempty"`
}

// UnmarshalJSON decodes a listing, accepting a price written either as a
// JSON number or as a numeric string.
func (l *Listing) UnmarshalJSON(data []byte) error {
	type plain Listing
	aux := struct {
		*plain
		Price decimal `json:"price"`
	}{plain: (*plain)(l)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	l.Price = float64(aux.Price)
	return nil
}

// decimal is a number the listings service stores as a decimal and may
// serialize as a string.
type decimal float64

func (d *decimal) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	if s == "" || s == "null" {
		*d = 0
		return nil
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("price: invalid number %s", data)
	}
	*d = decimal(v)
	return nil
}

// Timestamp is a time decoded leniently from the listings service, which
// writes both RFC 3339 and zone-less ISO 8601 stamps.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}

	for _, layout := range timestampLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			t.Time = v
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognized format %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}
