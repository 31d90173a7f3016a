// Package memstore is an in-process docstore.Store. It backs the "memory"
// database driver and the service tests.
package memstore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yigit/rosterhub/internal/pkg/docstore"
)

type collection struct {
	docs   map[string]docstore.Document
	order  []string // insertion order
	unique []string
}

// Store keeps every collection in memory behind one RWMutex.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
	guard       *docstore.Guard
}

var _ docstore.Store = (*Store)(nil)

// New creates an empty store. timeout bounds each operation like the real
// drivers do.
func New(timeout time.Duration) *Store {
	return &Store{
		collections: make(map[string]*collection),
		guard:       docstore.NewGuard(timeout),
	}
}

func (s *Store) coll(name string) *collection {
	c, ok := s.collections[name]
	if !ok {
		c = &collection{docs: make(map[string]docstore.Document)}
		s.collections[name] = c
	}
	return c
}

func (s *Store) begin(ctx context.Context, name string) (context.CancelFunc, error) {
	if err := docstore.ValidateCollection(name); err != nil {
		return func() {}, err
	}
	_, cancel, err := s.guard.Begin(ctx)
	return cancel, err
}

func (s *Store) Insert(ctx context.Context, name string, doc docstore.Document) (string, error) {
	cancel, err := s.begin(ctx, name)
	defer cancel()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.coll(name)
	stored := cloneDocument(doc.WithoutID())
	if err := c.checkUnique(stored, ""); err != nil {
		return "", err
	}
	id := uuid.NewString()
	stored[docstore.IDField] = id
	c.docs[id] = stored
	c.order = append(c.order, id)
	return id, nil
}

func (s *Store) FindOne(ctx context.Context, name string, filter docstore.Filter) (docstore.Document, error) {
	docs, err := s.FindMany(ctx, name, filter, docstore.FindOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, docstore.ErrNotFound
	}
	return docs[0], nil
}

func (s *Store) FindMany(ctx context.Context, name string, filter docstore.Filter, opts docstore.FindOptions) ([]docstore.Document, error) {
	cancel, err := s.begin(ctx, name)
	defer cancel()
	if err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.coll(name).match(filter)
	if len(opts.Sort) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, sf := range opts.Sort {
				c := compareValues(matched[i][sf.Field], matched[j][sf.Field])
				if c == 0 {
					continue
				}
				if sf.Descending {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	if opts.Skip > 0 {
		if opts.Skip >= int64(len(matched)) {
			matched = nil
		} else {
			matched = matched[opts.Skip:]
		}
	}
	if opts.Limit > 0 && int64(len(matched)) > opts.Limit {
		matched = matched[:opts.Limit]
	}

	out := make([]docstore.Document, 0, len(matched))
	for _, d := range matched {
		out = append(out, cloneDocument(d))
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, name string, filter docstore.Filter) (int64, error) {
	cancel, err := s.begin(ctx, name)
	defer cancel()
	if err != nil {
		return 0, err
	}
	if err := filter.Validate(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.coll(name).match(filter))), nil
}

func (s *Store) UpdateFields(ctx context.Context, name, id string, fields docstore.Document) error {
	cancel, err := s.begin(ctx, name)
	defer cancel()
	if err != nil {
		return err
	}
	if err := s.ValidateID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.coll(name)
	existing, ok := c.docs[id]
	if !ok {
		return docstore.ErrNotFound
	}
	updated := cloneDocument(existing)
	for k, v := range fields.WithoutID() {
		updated[k] = cloneValue(v)
	}
	if err := c.checkUnique(updated, id); err != nil {
		return err
	}
	c.docs[id] = updated
	return nil
}

func (s *Store) DeleteByID(ctx context.Context, name, id string) error {
	cancel, err := s.begin(ctx, name)
	defer cancel()
	if err != nil {
		return err
	}
	if err := s.ValidateID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.coll(name)
	if _, ok := c.docs[id]; !ok {
		return docstore.ErrNotFound
	}
	c.remove(id)
	return nil
}

func (s *Store) DeleteMany(ctx context.Context, name string, filter docstore.Filter) (int64, error) {
	cancel, err := s.begin(ctx, name)
	defer cancel()
	if err != nil {
		return 0, err
	}
	if err := filter.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.coll(name)
	matched := c.match(filter)
	for _, d := range matched {
		c.remove(d.ID())
	}
	return int64(len(matched)), nil
}

func (s *Store) Upsert(ctx context.Context, name string, filter docstore.Filter, doc docstore.Document) (string, bool, error) {
	cancel, err := s.begin(ctx, name)
	defer cancel()
	if err != nil {
		return "", false, err
	}
	if err := filter.Validate(); err != nil {
		return "", false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.coll(name)
	if matched := c.match(filter); len(matched) > 0 {
		id := matched[0].ID()
		updated := cloneDocument(c.docs[id])
		for k, v := range doc.WithoutID() {
			updated[k] = cloneValue(v)
		}
		if err := c.checkUnique(updated, id); err != nil {
			return "", false, err
		}
		c.docs[id] = updated
		return id, false, nil
	}

	stored := cloneDocument(doc.WithoutID())
	if err := c.checkUnique(stored, ""); err != nil {
		return "", false, err
	}
	id := uuid.NewString()
	stored[docstore.IDField] = id
	c.docs[id] = stored
	c.order = append(c.order, id)
	return id, true, nil
}

func (s *Store) EnsureUniqueIndex(ctx context.Context, name, field string) error {
	cancel, err := s.begin(ctx, name)
	defer cancel()
	if err != nil {
		return err
	}
	if err := docstore.ValidateField(field); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.coll(name)
	for _, f := range c.unique {
		if f == field {
			return nil
		}
	}
	seen := make(map[string]struct{}, len(c.docs))
	for _, d := range c.docs {
		key := fmt.Sprint(d[field])
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: existing documents in %s share %s=%q", docstore.ErrDuplicateKey, name, field, key)
		}
		seen[key] = struct{}{}
	}
	c.unique = append(c.unique, field)
	return nil
}

func (s *Store) ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", docstore.ErrInvalidID, id)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	_, cancel, err := s.guard.Begin(ctx)
	defer cancel()
	return err
}

// Close makes every later call fail with docstore.ErrUnavailable.
func (s *Store) Close(context.Context) error {
	s.guard.Close()
	return nil
}

func (c *collection) match(filter docstore.Filter) []docstore.Document {
	out := make([]docstore.Document, 0)
	for _, id := range c.order {
		d := c.docs[id]
		if matches(d, filter) {
			out = append(out, d)
		}
	}
	return out
}

func (c *collection) remove(id string) {
	delete(c.docs, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *collection) checkUnique(doc docstore.Document, selfID string) error {
	for _, field := range c.unique {
		value, ok := doc[field]
		if !ok {
			continue
		}
		for id, other := range c.docs {
			if id == selfID {
				continue
			}
			if compareValues(other[field], value) == 0 {
				return fmt.Errorf("%w: %s=%v", docstore.ErrDuplicateKey, field, value)
			}
		}
	}
	return nil
}

func matches(doc docstore.Document, filter docstore.Filter) bool {
	for _, cond := range filter {
		value := doc[cond.Field]
		switch cond.Op {
		case docstore.OpEq:
			if compareValues(value, normalize(cond.Value)) != 0 {
				return false
			}
		case docstore.OpIn:
			s, ok := value.(string)
			if !ok {
				return false
			}
			found := false
			for _, candidate := range cond.Value.([]string) {
				if candidate == s {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case docstore.OpContainsFold:
			s, ok := value.(string)
			if !ok || !strings.Contains(strings.ToLower(s), strings.ToLower(cond.Value.(string))) {
				return false
			}
		}
	}
	return true
}

// compareValues orders nil < numbers < strings < everything else, mirroring
// the BSON comparison order closely enough for sorting profile fields.
func compareValues(a, b any) int {
	a, b = normalize(a), normalize(b)
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch av := a.(type) {
	case nil:
		return 0
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case string:
		return strings.Compare(av, b.(string))
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		}
		return 1
	default:
		if reflect.DeepEqual(a, b) {
			return 0
		}
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case float64:
		return 1
	case string:
		return 2
	case bool:
		return 3
	default:
		return 4
	}
}

func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}

func cloneDocument(d docstore.Document) docstore.Document {
	out := make(docstore.Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case docstore.Document:
		return map[string]any(cloneDocument(t))
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return normalize(v)
	}
}
