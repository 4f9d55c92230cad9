// Package icons maps consoles to their system icon URLs.
package icons

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"retroprofile-api/internal/logging"
	"retroprofile-api/internal/metrics"
	"retroprofile-api/internal/model"

	"golang.org/x/sync/singleflight"
)

// DefaultBaseURL is where system icons are served.
const DefaultBaseURL = "https://static.retroachievements.org/assets/images/system"

var slugPattern = regexp.MustCompile(`/([^/]+)\.png$`)

// ConsoleLister fetches the console list.
type ConsoleLister interface {
	GetConsoleIDs(ctx context.Context, activeOnly, gameSystemsOnly bool) ([]model.ConsoleDescriptor, error)
}

// Slug extracts the icon slug from a console icon URL.
func Slug(iconURL string) (string, bool) {
	m := slugPattern.FindStringSubmatch(iconURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Map is an immutable snapshot of console icons.
type Map struct {
	fetchedAt time.Time
	byID      map[int]string
	byName    map[string]string
	consoles  []model.ConsoleIcon
}

var emptyMap = &Map{byID: map[int]string{}, byName: map[string]string{}}

func buildMap(base string, consoles []model.ConsoleDescriptor, now time.Time) *Map {
	m := &Map{
		fetchedAt: now,
		byID:      make(map[int]string, len(consoles)),
		byName:    make(map[string]string, len(consoles)),
		consoles:  make([]model.ConsoleIcon, 0, len(consoles)),
	}
	for _, c := range consoles {
		slug, ok := Slug(c.IconURL)
		if !ok || c.ID == 0 {
			continue
		}
		u := base + "/" + slug + ".png"
		m.byID[c.ID.Int()] = u
		if c.Name != "" {
			m.byName[strings.ToLower(c.Name)] = u
		}
		m.consoles = append(m.consoles, model.ConsoleIcon{ID: c.ID.Int(), Name: c.Name, IconURL: u})
	}
	return m
}

// ByID returns the icon URL for a console id.
func (m *Map) ByID(id int) (string, bool) {
	u, ok := m.byID[id]
	return u, ok
}

// ByName returns the icon URL for a console name, ignoring case.
func (m *Map) ByName(name string) (string, bool) {
	u, ok := m.byName[strings.ToLower(name)]
	return u, ok
}

// Lookup resolves a console id (as decimal text) or name.
func (m *Map) Lookup(idOrName string) (string, bool) {
	if id, err := strconv.Atoi(idOrName); err == nil {
		return m.ByID(id)
	}
	return m.ByName(idOrName)
}

// IDPtr returns the icon URL for id, or nil.
func (m *Map) IDPtr(id int) *string {
	if u, ok := m.ByID(id); ok {
		return &u
	}
	return nil
}

// NamePtr returns the icon URL for name, or nil.
func (m *Map) NamePtr(name string) *string {
	if u, ok := m.ByName(name); ok {
		return &u
	}
	return nil
}

// Consoles returns the consoles that have an icon.
func (m *Map) Consoles() []model.ConsoleIcon {
	out := make([]model.ConsoleIcon, len(m.consoles))
	copy(out, m.consoles)
	return out
}

// Len returns the number of consoles with an icon.
func (m *Map) Len() int {
	return len(m.byID)
}

// Resolver caches the console icon map for a fixed period. The published
// snapshot is swapped atomically; concurrent refreshes share one upstream call.
type Resolver struct {
	lister ConsoleLister
	base   string
	ttl    time.Duration
	now    func() time.Time

	current atomic.Pointer[Map]
	group   singleflight.Group
	mu      sync.Mutex // guards lastErr
	lastErr error
}

// NewResolver creates a resolver. base defaults to DefaultBaseURL.
func NewResolver(lister ConsoleLister, base string, ttl time.Duration) *Resolver {
	if base == "" {
		base = DefaultBaseURL
	}
	return &Resolver{
		lister: lister,
		base:   strings.TrimRight(base, "/"),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock replaces the clock used for expiry.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Snapshot returns a fresh icon map, refreshing it when older than the TTL.
// On upstream failure it returns an empty map and keeps nothing, so the next
// call retries.
func (r *Resolver) Snapshot(ctx context.Context) *Map {
	if m := r.current.Load(); m != nil && r.now().Sub(m.fetchedAt) < r.ttl {
		return m
	}

	v, _, _ := r.group.Do("refresh", func() (interface{}, error) {
		if m := r.current.Load(); m != nil && r.now().Sub(m.fetchedAt) < r.ttl {
			return m, nil
		}

		// The flight is shared; it ignores the leader's cancellation.
		consoles, err := r.lister.GetConsoleIDs(context.WithoutCancel(ctx), true, true)
		r.mu.Lock()
		r.lastErr = err
		r.mu.Unlock()
		if err != nil {
			metrics.IconRefreshes.WithLabelValues("error").Inc()
			logging.Ctx(ctx).Warn().Err(err).Msg("[Icons] failed to fetch console list")
			return emptyMap, nil
		}

		m := buildMap(r.base, consoles, r.now())
		r.current.Store(m)
		metrics.IconRefreshes.WithLabelValues("success").Inc()
		logging.Ctx(ctx).Debug().Int("consoles", m.Len()).Msg("[Icons] console map refreshed")
		return m, nil
	})
	return v.(*Map)
}

// Resolve returns the icon URL for a console id or name.
func (r *Resolver) Resolve(ctx context.Context, idOrName string) (string, bool) {
	return r.Snapshot(ctx).Lookup(idOrName)
}

// Consoles returns all consoles with icons.
func (r *Resolver) Consoles(ctx context.Context) []model.ConsoleIcon {
	return r.Snapshot(ctx).Consoles()
}

// LastError returns the error from the most recent refresh attempt.
func (r *Resolver) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}
