package challenge

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/GriffinCanCode/Playground/backend/internal/shared/utils"
	"github.com/microcosm-cc/bluemonday"
)

// Catalog holds the known challenges. Lookups of unknown IDs fall back to
// the default challenge.
type Catalog struct {
	mu        sync.RWMutex
	items     map[string]Challenge
	sanitizer *bluemonday.Policy
}

// NewCatalog creates a catalog containing only the default challenge
func NewCatalog() *Catalog {
	c := &Catalog{
		items:     make(map[string]Challenge),
		sanitizer: bluemonday.UGCPolicy(),
	}
	c.items[DefaultID] = Default()
	return c
}

// Add validates ch, sanitizes its description and stores it. Later entries
// with an existing ID are rejected, except that the default may be
// replaced once.
func (c *Catalog) Add(ch Challenge) error {
	ch, err := c.prepare(ch)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.insert(ch)
}

// ReplaceSource swaps every entry loaded from source for chs in one step.
// Entries of other sources keep their IDs; clashing entries of chs are
// rejected and reported in the returned error.
func (c *Catalog) ReplaceSource(source string, chs []Challenge) (int, error) {
	var errs []error
	prepared := make([]Challenge, 0, len(chs))
	for _, ch := range chs {
		ch, err := c.prepare(ch)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		prepared = append(prepared, ch)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for id, ch := range c.items {
		if ch.Source == source {
			delete(c.items, id)
		}
	}
	added := 0
	for _, ch := range prepared {
		if err := c.insert(ch); err != nil {
			errs = append(errs, err)
			continue
		}
		added++
	}
	return added, errors.Join(errs...)
}

func (c *Catalog) prepare(ch Challenge) (Challenge, error) {
	if !ValidID(ch.ID) {
		return ch, fmt.Errorf("%w: %q", ErrInvalidID, ch.ID)
	}
	if ch.Title == "" {
		ch.Title = ch.ID
	}
	if err := validate(ch); err != nil {
		return ch, fmt.Errorf("%w: %q: %v", ErrInvalidField, ch.ID, err)
	}
	ch.Description = c.sanitizer.Sanitize(ch.Description)
	return ch, nil
}

// insert requires c.mu held for writing
func (c *Catalog) insert(ch Challenge) error {
	if existing, ok := c.items[ch.ID]; ok && existing.Source != "builtin" {
		return fmt.Errorf("%w: %q from %s already loaded from %s", ErrDuplicateID, ch.ID, ch.Source, existing.Source)
	}
	c.items[ch.ID] = ch
	return nil
}

// Get returns the challenge with id, if present
func (c *Catalog) Get(id string) (Challenge, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ch, ok := c.items[id]
	return ch, ok
}

// Resolve returns the challenge with id or the default challenge
func (c *Catalog) Resolve(id string) Challenge {
	if ch, ok := c.Get(id); ok {
		return ch
	}
	ch, _ := c.Get(DefaultID)
	return ch
}

// List returns every challenge sorted by ID, default first
func (c *Catalog) List() []Challenge {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Challenge, 0, len(c.items))
	for _, ch := range c.items {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID == DefaultID || out[j].ID == DefaultID {
			return out[i].ID == DefaultID
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of challenges, default included
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func validate(ch Challenge) error {
	return errors.Join(
		utils.ValidateTitle(ch.Title),
		utils.ValidateDescription(ch.Description),
		utils.ValidateDifficulty(ch.Difficulty),
		utils.ValidateTags(ch.Tags),
	)
}
