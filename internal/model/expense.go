package model

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Category is one of a fixed, closed set of expense categories.
type Category string

const (
	CategoryFood     Category = "Food"
	CategoryTravel   Category = "Travel"
	CategoryBills    Category = "Bills"
	CategoryShopping Category = "Shopping"
	CategoryOthers   Category = "Others"
)

// Categories lists every accepted category in display order.
var Categories = []Category{
	CategoryFood,
	CategoryTravel,
	CategoryBills,
	CategoryShopping,
	CategoryOthers,
}

// Valid reports whether c is a member of Categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Cents is a money amount in hundredths of the currency unit.
//
// Amounts travel as decimal numbers on the wire (12.5) but are stored and
// summed as integers (1250) so report totals are exact.
type Cents int64

// MaxAmount bounds a single expense (100 billion units) so that report sums
// stay far below int64 overflow and exact as JSON numbers.
const MaxAmount Cents = 10_000_000_000_000

// CentsFromFloat converts a decimal amount to Cents, rounding half away from
// zero at the third decimal place.
func CentsFromFloat(amount float64) (Cents, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("amount is not a finite number")
	}
	scaled := math.Round(amount * 100)
	if scaled > math.MaxInt64/2 || scaled < math.MinInt64/2 {
		return 0, fmt.Errorf("amount is out of range")
	}
	return Cents(scaled), nil
}

// Float returns the amount in currency units.
func (c Cents) Float() float64 {
	return float64(c) / 100
}

// MarshalJSON writes the amount as a plain decimal number: 1250 -> 12.5.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(c.Float(), 'f', -1, 64)), nil
}

// UnmarshalJSON accepts a decimal number.
func (c *Cents) UnmarshalJSON(data []byte) error {
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("amount must be a number")
	}
	v, err := CentsFromFloat(f)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

const dateLayout = "2006-01-02"

// Date is a calendar date with no time of day and no timezone.
//
// Internally it is held as midnight UTC so that conversions to and from the
// store never shift the day. The zero Date is "no date".
type Date struct {
	t time.Time
}

// NewDate builds a Date from its parts. Out-of-range parts normalise the same
// way time.Date does (month 13 rolls into the next year).
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t as observed in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return Date{t: t}, nil
}

func (d Date) String() string {
	if d.t.IsZero() {
		return ""
	}
	return d.t.Format(dateLayout)
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time { return d.t }

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) Year() int { return d.t.Year() }

func (d Date) Month() time.Month { return d.t.Month() }

func (d Date) Day() int { return d.t.Day() }

// AddDays returns the date n days later (or earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// AddMonths returns the date n calendar months later.
func (d Date) AddMonths(n int) Date {
	return Date{t: d.t.AddDate(0, n, 0)}
}

func (d Date) Before(other Date) bool { return d.t.Before(other.t) }

func (d Date) After(other Date) bool { return d.t.After(other.t) }

func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }

// MarshalText makes Date encode as "YYYY-MM-DD" in JSON and query strings.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Expense is a single spending record owned by one user.
//
// Notes is a pointer so the JSON view shows null when there are no notes.
type Expense struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Amount    Cents     `json:"amount"`
	Category  Category  `json:"category"`
	Date      Date      `json:"date"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExpenseFilter narrows a listing. Zero values mean "no constraint".
// EndDate is inclusive: the whole day is part of the window.
type ExpenseFilter struct {
	Category  Category
	StartDate Date
	EndDate   Date
	Skip      int
	Limit     int
}

// ExpensePatch is a partial update. A nil field is left untouched.
// A non-nil Notes pointing at "" clears the notes.
type ExpensePatch struct {
	Title    *string
	Amount   *Cents
	Category *Category
	Date     *Date
	Notes    *string
}

// IsEmpty reports whether the patch would change nothing.
func (p ExpensePatch) IsEmpty() bool {
	return p.Title == nil && p.Amount == nil && p.Category == nil && p.Date == nil && p.Notes == nil
}

// Changes returns the subset of p whose values differ from e.
func (p ExpensePatch) Changes(e *Expense) ExpensePatch {
	var out ExpensePatch
	if p.Title != nil && *p.Title != e.Title {
		out.Title = p.Title
	}
	if p.Amount != nil && *p.Amount != e.Amount {
		out.Amount = p.Amount
	}
	if p.Category != nil && *p.Category != e.Category {
		out.Category = p.Category
	}
	if p.Date != nil && !p.Date.Equal(e.Date) {
		out.Date = p.Date
	}
	if p.Notes != nil {
		current := ""
		if e.Notes != nil {
			current = *e.Notes
		}
		if *p.Notes != current {
			out.Notes = p.Notes
		}
	}
	return out
}

// Apply writes the patch onto e. It does not touch timestamps.
func (p ExpensePatch) Apply(e *Expense) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Notes != nil {
		if *p.Notes == "" {
			e.Notes = nil
		} else {
			notes := *p.Notes
			e.Notes = &notes
		}
	}
}
