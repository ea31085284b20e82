package curation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/desertthunder/maestro/internal/shared"
)

const (
	MaxTags         = 10
	MaxSeedSongs    = 5
	MaxFusionGenres = 3
)

// Collection is an ordered set of strings with a size cap.
//
// Membership is case-insensitive. Tag collections also store values lowercased.
type Collection struct {
	noun   string
	plural string
	limit  int
	lower  bool
	items  []string
}

// NewTags returns a tag collection (cap 10, lowercased) seeded with items.
func NewTags(items []string) *Collection {
	return newCollection("tag", "tags", MaxTags, true, items)
}

// NewSeedSongs returns a seed-song collection (cap 5).
func NewSeedSongs(items []string) *Collection {
	return newCollection("seed song", "seed songs", MaxSeedSongs, false, items)
}

// NewFusionGenres returns a fusion-genre collection (cap 3).
func NewFusionGenres(items []string) *Collection {
	return newCollection("fusion genre", "fusion genres", MaxFusionGenres, false, items)
}

// newCollection loads items through Add so stored data that breaks the rules is dropped.
func newCollection(noun, plural string, limit int, lower bool, items []string) *Collection {
	c := &Collection{noun: noun, plural: plural, limit: limit, lower: lower, items: []string{}}
	for _, item := range items {
		_ = c.Add(item)
	}
	return c
}

// Items returns a copy of the values in insertion order.
func (c *Collection) Items() []string {
	return slices.Clone(c.items)
}

// Len returns the number of values.
func (c *Collection) Len() int { return len(c.items) }

// Limit returns the cap.
func (c *Collection) Limit() int { return c.limit }

// Full reports whether the cap has been reached.
func (c *Collection) Full() bool { return len(c.items) >= c.limit }

// Contains reports whether v is present, ignoring case and surrounding whitespace.
func (c *Collection) Contains(v string) bool {
	return c.index(v) >= 0
}

// Add appends v after trimming it.
//
// Empty values, case-insensitive duplicates and additions past the cap fail with
// [shared.ErrValidation] and leave the collection unchanged.
func (c *Collection) Add(v string) error {
	v = c.normalize(v)
	switch {
	case v == "":
		return fmt.Errorf("%w: Please enter a %s.", shared.ErrValidation, c.noun)
	case c.Full():
		return fmt.Errorf("%w: You can add up to %d %s.", shared.ErrValidation, c.limit, c.plural)
	case c.Contains(v):
		return fmt.Errorf("%w: That %s is already added.", shared.ErrValidation, c.noun)
	}
	c.items = append(c.items, v)
	return nil
}

// Remove deletes v, ignoring case. It reports whether anything was removed.
func (c *Collection) Remove(v string) bool {
	i := c.index(v)
	if i < 0 {
		return false
	}
	c.items = slices.Delete(c.items, i, i+1)
	return true
}

// AddManyResult summarizes a bulk add.
type AddManyResult struct {
	Added        int
	Existing     int
	LimitReached bool
}

// AddMany adds every comma-separated value in csv, stopping once the cap is reached.
//
// Values added before the cap are kept. The returned error carries the message to show:
// "Cannot add more than N tags." when the cap stopped the run, "All entered tags already
// exist." when nothing new was given. When only some values already existed the result has
// Existing > 0 and [AddManyResult.Message] describes it.
func (c *Collection) AddMany(csv string) (AddManyResult, error) {
	var result AddManyResult

	var values []string
	for _, part := range strings.Split(csv, ",") {
		if v := c.normalize(part); v != "" {
			values = append(values, v)
		}
	}

	if len(values) == 0 {
		if strings.TrimSpace(csv) != "" {
			return result, fmt.Errorf("%w: Please enter valid %s names.", shared.ErrValidation, c.noun)
		}
		return result, nil
	}

	for _, v := range values {
		if c.Full() {
			result.LimitReached = true
			break
		}
		if c.Contains(v) {
			result.Existing++
			continue
		}
		c.items = append(c.items, v)
		result.Added++
	}

	switch {
	case result.LimitReached:
		return result, fmt.Errorf("%w: Cannot add more than %d %s.", shared.ErrValidation, c.limit, c.plural)
	case result.Added == 0 && result.Existing > 0:
		return result, fmt.Errorf("%w: All entered %s already exist.", shared.ErrValidation, c.plural)
	}
	return result, nil
}

// Message describes a successful bulk add that skipped existing values, or "" otherwise.
func (r AddManyResult) Message(plural string) string {
	if r.Existing == 0 || r.Added == 0 || r.LimitReached {
		return ""
	}
	return fmt.Sprintf("%d of the entered %s already exist. Others added.", r.Existing, plural)
}

// Plural returns the collection's plural noun, e.g. "tags".
func (c *Collection) Plural() string { return c.plural }

func (c *Collection) normalize(v string) string {
	v = strings.TrimSpace(v)
	if c.lower {
		v = strings.ToLower(v)
	}
	return v
}

func (c *Collection) index(v string) int {
	v = strings.TrimSpace(v)
	return slices.IndexFunc(c.items, func(item string) bool {
		return strings.EqualFold(item, v)
	})
}
