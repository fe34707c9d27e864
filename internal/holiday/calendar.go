// Package holiday keeps the holiday calendar and the peak-time rule built
// on top of it.
package holiday

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/cineplex-booking/internal/apperr"
)

const dateLayout = "2006-01-02"

// Holiday is one named calendar day.
type Holiday struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

// Calendar is a concurrent set of holidays keyed by calendar date in loc.
type Calendar struct {
	mu   sync.RWMutex
	loc  *time.Location
	days map[string]string
}

func NewCalendar(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{loc: loc, days: map[string]string{}}
}

// ParseDate parses YYYY-MM-DD in the calendar's location.
func (c *Calendar) ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), c.loc)
	if err != nil {
		return time.Time{}, apperr.InvalidArgument("holiday", "date %q must be YYYY-MM-DD", s)
	}
	return d, nil
}

func (c *Calendar) key(t time.Time) string { return t.In(c.loc).Format(dateLayout) }

// Set adds or renames the holiday on t's date.
func (c *Calendar) Set(t time.Time, name string) {
	c.mu.Lock()
	c.days[c.key(t)] = name
	c.mu.Unlock()
}

// Unset removes the holiday on t's date.
func (c *Calendar) Unset(t time.Time) error {
	k := c.key(t)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.days[k]; !ok {
		return apperr.NotFound("unsetHoliday", "%s is not a holiday", k)
	}
	delete(c.days, k)
	return nil
}

func (c *Calendar) IsHoliday(t time.Time) bool {
	c.mu.RLock()
	_, ok := c.days[c.key(t)]
	c.mu.RUnlock()
	return ok
}

// List returns holidays in date order.
func (c *Calendar) List() []Holiday {
	c.mu.RLock()
	out := make([]Holiday, 0, len(c.days))
	for d, n := range c.days {
		out = append(out, Holiday{Date: d, Name: n})
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Load seeds the calendar from "YYYY-MM-DD" or "YYYY-MM-DD=Name" entries.
func (c *Calendar) Load(entries []string) error {
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		date, name, _ := strings.Cut(e, "=")
		d, err := c.ParseDate(date)
		if err != nil {
			return err
		}
		c.Set(d, strings.TrimSpace(name))
	}
	return nil
}
