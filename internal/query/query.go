// Package query holds the list, filter and pagination helpers shared by every
// resource listing.
package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 1000

	// keeps Offset within int
	maxPage = math.MaxInt / MaxLimit
)

type Page struct {
	Page  int
	Limit int
}

// ParsePage reads page and limit, falling back to the defaults for missing,
// malformed or non-positive values. Limit is capped at MaxLimit and page at
// the largest value whose offset still fits in an int.
func ParsePage(page, limit string) Page {
	p := Page{Page: DefaultPage, Limit: DefaultLimit}
	if v, err := strconv.Atoi(page); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(limit); err == nil && v > 0 {
		p.Limit = v
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Page > maxPage {
		p.Page = maxPage
	}
	return p
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

func NewPagination(p Page, total int64) Pagination {
	return Pagination{
		Page:  p.Page,
		Limit: p.Limit,
		Total: total,
		Pages: int(math.Ceil(float64(total) / float64(p.Limit))),
	}
}

// Paginate counts the rows matched by q and loads one page of them into dest.
// q must have a model set.
func Paginate(q *gorm.DB, p Page, order string, dest interface{}) (Pagination, error) {
	base := q.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return Pagination{}, err
	}
	if err := base.Order(order).Offset(p.Offset()).Limit(p.Limit).Find(dest).Error; err != nil {
		return Pagination{}, err
	}
	return NewPagination(p, total), nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// Search restricts q to rows where any column contains term, ignoring case.
// An empty term leaves q untouched.
func Search(q *gorm.DB, term string, columns ...string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return q
	}
	pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"

	clauses := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))
	for _, col := range columns {
		clauses = append(clauses, fmt.Sprintf("LOWER(%s) LIKE ? ESCAPE '!'", col))
		args = append(args, pattern)
	}
	return q.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"}

// ParseDay reads a date or timestamp and truncates it to its UTC day
func ParseDay(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", v)
}

// DayRange returns the [start, end) bounds of the UTC day containing v
func DayRange(v string) (time.Time, time.Time, error) {
	start, err := ParseDay(v)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 0, 1), nil
}

// DateRange accepts a single day or a "start,end" pair. The end day is included.
func DateRange(v string) (time.Time, time.Time, error) {
	parts := strings.SplitN(v, ",", 2)
	if len(parts) == 1 {
		return DayRange(v)
	}
	start, err := ParseDay(parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ParseDay(parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("date range %q ends before it starts", v)
	}
	return start, end.AddDate(0, 0, 1), nil
}

// Within restricts column to the date or date range in v. An empty v leaves q
// untouched.
func Within(q *gorm.DB, column, v string) (*gorm.DB, error) {
	if strings.TrimSpace(v) == "" {
		return q, nil
	}
	start, end, err := DateRange(v)
	if err != nil {
		return q, err
	}
	return q.Where(column+" >= ? AND "+column+" < ?", start, end), nil
}

// Bool parses an optional boolean filter
func Bool(v string) (bool, bool) {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, false
	}
	return b, true
}

// Uint parses an optional id filter
func Uint(v string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// Order builds an ORDER BY clause from a whitelisted field and a direction.
// Unknown fields fall back to def.
func Order(field, direction string, allowed map[string]string, def string) string {
	col, ok := allowed[field]
	if !ok {
		return def
	}
	if strings.EqualFold(direction, "asc") {
		return col + " ASC"
	}
	return col + " DESC"
}
