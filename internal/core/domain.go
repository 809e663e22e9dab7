package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the only accepted wire and storage format for transaction dates.
const DateLayout = "2006-01-02"

const (
	maxLabelLength       = 100
	maxDescriptionLength = 500

	// DefaultCategoryColor is applied to categories created without a color.
	DefaultCategoryColor = "#757575"
)

type (
	// Date is a calendar day without time of day, always in UTC.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID          int64     `json:"id"`
		Amount      Money     `json:"amount"`
		Account     string    `json:"account"`
		Category    string    `json:"category"`
		Description string    `json:"description"`
		Date        Date      `json:"date"`
		CreatedAt   time.Time `json:"created_at"`
		// Version increases on every update and tags mirror writes.
		Version int64 `json:"-"`
	}

	Category struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
	}

	// DateRange is an inclusive range of days. A zero bound is open.
	DateRange struct {
		From Date
		To   Date
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyAccount    = errors.New("empty account")
	ErrEmptyCategory   = errors.New("empty category")
	ErrEmptyName       = errors.New("empty category name")
	ErrInvalidColor    = errors.New("invalid color")
	ErrInvalidMonthKey = errors.New("invalid month")
	ErrFieldTooLong    = errors.New("field too long")
)

// NewDate creates a new Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a strict YYYY-MM-DD string. Days that do not exist in the
// given month (2024-02-31) are rejected.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MonthKey returns the calendar month the date falls in.
func (d Date) MonthKey() MonthKey {
	return MonthKey{Year: d.Year(), Month: d.Month()}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidDate)
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: expected YYYY-MM-DD string", ErrInvalidDate)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Contains reports whether d falls inside the range, bounds included.
func (r DateRange) Contains(d Date) bool {
	if !r.From.IsZero() && d.Before(r.From.Time) {
		return false
	}
	if !r.To.IsZero() && d.After(r.To.Time) {
		return false
	}
	return true
}

func (r DateRange) Validate() error {
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From.Time) {
		return fmt.Errorf("%w: end date before start date", ErrInvalidDate)
	}
	return nil
}

// Normalize trims free-text fields in place.
func (t *Transaction) Normalize() {
	t.Account = strings.TrimSpace(t.Account)
	t.Category = strings.TrimSpace(t.Category)
	t.Description = strings.TrimSpace(t.Description)
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Account) == "" {
		return ErrEmptyAccount
	}
	if len(t.Account) > maxLabelLength {
		return fmt.Errorf("%w: account (max %d characters)", ErrFieldTooLong, maxLabelLength)
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Category) > maxLabelLength {
		return fmt.Errorf("%w: category (max %d characters)", ErrFieldTooLong, maxLabelLength)
	}
	if len(t.Description) > maxDescriptionLength {
		return fmt.Errorf("%w: description (max %d characters)", ErrFieldTooLong, maxDescriptionLength)
	}
	return t.Date.Validate()
}

// Normalize trims the name and applies the default color.
func (c *Category) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Color = strings.TrimSpace(c.Color)
	if c.Color == "" {
		c.Color = DefaultCategoryColor
	}
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > maxLabelLength {
		return fmt.Errorf("%w: category name (max %d characters)", ErrFieldTooLong, maxLabelLength)
	}
	if c.Color != "" && !isHexColor(c.Color) {
		return fmt.Errorf("%w: %q", ErrInvalidColor, c.Color)
	}
	return nil
}

func isHexColor(s string) bool {
	if len(s) != 7 && len(s) != 4 {
		return false
	}
	if s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// IsValidation reports whether err originates from domain validation.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidDate, ErrInvalidAmount, ErrEmptyAccount, ErrEmptyCategory,
		ErrEmptyName, ErrInvalidColor, ErrInvalidMonthKey, ErrFieldTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
