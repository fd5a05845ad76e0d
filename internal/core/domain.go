package core

import (
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// DateLayout is the wire and storage format for transaction dates.
	DateLayout = "2006-01-02"

	// MaxDescriptionLen bounds the free-text description field, in runes.
	MaxDescriptionLen = 100
)

type (
	// Date is a calendar date (year-month-day) without a time-of-day component.
	Date struct {
		time.Time
	}

	// Transaction is a single signed monetary record. Positive amounts are
	// income, negative amounts are expenses. CreatedAt and UpdatedAt are owned
	// by the repository and never serialized to API consumers.
	Transaction struct {
		ID          string    `json:"id"`
		Amount      float64   `json:"amount"`
		Description string    `json:"description"`
		Date        Date      `json:"date"`
		Category    string    `json:"category"`
		CreatedAt   time.Time `json:"-"`
		UpdatedAt   time.Time `json:"-"`
	}

	// TransactionUpdate carries a partial set of fields for an update. Nil
	// fields are left untouched on the stored record.
	TransactionUpdate struct {
		Amount      *float64 `json:"amount"`
		Description *string  `json:"description"`
		Date        *Date    `json:"date"`
		Category    *string  `json:"category"`
	}
)

var (
	ErrMissingAmount      = errors.New("missing amount")
	ErrZeroAmount         = errors.New("amount cannot be zero")
	ErrAmountNotFinite    = errors.New("amount must be a finite number")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 100 characters)")
	ErrEmptyCategory      = errors.New("empty category")
	ErrInvalidDate        = errors.New("invalid date (expected YYYY-MM-DD)")
)

// NewDate creates a Date from year, month and day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date in UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate parses a YYYY-MM-DD string. Anything else is ErrInvalidDate.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MonthKey returns the zero-padded "YYYY-MM" bucket key for the date.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

// MarshalJSON encodes the date as a "YYYY-MM-DD" string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string, rejecting malformed input.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		return ErrInvalidDate
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ValidateAmount rejects zero and non-finite amounts.
func ValidateAmount(amount float64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ErrAmountNotFinite
	}
	return nil
}

// Validate checks a full transaction record. The date may be zero: stores fill
// it with the current date on create.
func (t Transaction) Validate() error {
	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// Validate checks only the fields present in the update.
func (u TransactionUpdate) Validate() error {
	if u.Amount != nil {
		if err := ValidateAmount(*u.Amount); err != nil {
			return err
		}
	}
	if u.Description != nil {
		if strings.TrimSpace(*u.Description) == "" {
			return ErrEmptyDescription
		}
		if utf8.RuneCountInString(*u.Description) > MaxDescriptionLen {
			return ErrDescriptionTooLong
		}
	}
	if u.Category != nil && strings.TrimSpace(*u.Category) == "" {
		return ErrEmptyCategory
	}
	if u.Date != nil && u.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// IsEmpty reports whether the update would change nothing.
func (u TransactionUpdate) IsEmpty() bool {
	return u.Amount == nil && u.Description == nil && u.Date == nil && u.Category == nil
}

// ApplyTo merges the update into t: present fields overwrite, absent fields
// are retained.
func (u TransactionUpdate) ApplyTo(t *Transaction) {
	if u.Amount != nil {
		t.Amount = *u.Amount
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Date != nil {
		t.Date = *u.Date
	}
	if u.Category != nil {
		t.Category = *u.Category
	}
}
