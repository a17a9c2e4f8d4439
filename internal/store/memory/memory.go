package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"paycycle/internal/core"
	"paycycle/internal/store"
)

// Store is an in-memory settings repository for development and tests.
type Store struct {
	mu       sync.Mutex
	nextID   int64
	settings map[int64]store.UserSettings
	tokens   map[string]int64
	periods  map[int64][]store.MaterializedPeriod
	now      func() time.Time
}

func New() *Store {
	return &Store{
		nextID:   1,
		settings: make(map[int64]store.UserSettings),
		tokens:   make(map[string]int64),
		periods:  make(map[int64][]store.MaterializedPeriod),
		now:      time.Now,
	}
}

// NewWithTokens seeds the token table, e.g. from the DEV_API_TOKENS config.
func NewWithTokens(tokens map[string]int64) *Store {
	s := New()
	for tok, uid := range tokens {
		s.tokens[tok] = uid
	}
	return s
}

// SetClock overrides the time source. Test hook.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) GetSettings(_ context.Context, userID int64) (store.UserSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	us, ok := s.settings[userID]
	if !ok {
		return store.UserSettings{}, store.ErrNotFound
	}
	return us, nil
}

func (s *Store) CreateSettings(_ context.Context, userID int64, cfg core.Settings) (store.UserSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.settings[userID]; ok {
		return store.UserSettings{}, store.ErrAlreadyExists
	}
	us := store.UserSettings{
		ID:        s.nextID,
		UserID:    userID,
		Settings:  cfg,
		CreatedAt: s.now().UTC(),
	}
	s.nextID++
	s.settings[userID] = us
	return us, nil
}

func (s *Store) UpdateSettings(_ context.Context, userID int64, cfg core.Settings) (store.UserSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	us, ok := s.settings[userID]
	if !ok {
		return store.UserSettings{}, store.ErrNotFound
	}
	now := s.now().UTC()
	us.Settings = cfg
	us.Settings.UpdatedAt = &now
	us.UpdatedAt = &now
	s.settings[userID] = us
	return us, nil
}

func (s *Store) DeleteSettings(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.settings, userID)
	delete(s.periods, userID)
	return nil
}

func (s *Store) ResolveToken(_ context.Context, token string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uid, ok := s.tokens[token]
	if !ok {
		return 0, store.ErrUnknownToken
	}
	return uid, nil
}

func (s *Store) UpsertPeriods(_ context.Context, userID int64, periods []core.Period, cycleType core.CycleType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	existing := s.periods[userID]
	for _, p := range periods {
		replaced := false
		for i, row := range existing {
			if row.Start.Equal(p.Start) {
				existing[i] = store.MaterializedPeriod{
					UserID: userID, Start: p.Start, End: p.End,
					CycleType: cycleType, ComputedAt: now,
				}
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, store.MaterializedPeriod{
				UserID: userID, Start: p.Start, End: p.End,
				CycleType: cycleType, ComputedAt: now,
			})
		}
	}
	sort.Slice(existing, func(i, j int) bool { return existing[i].Start.Before(existing[j].Start) })
	s.periods[userID] = existing
	return nil
}

func (s *Store) ListPeriods(_ context.Context, userID int64, from, to time.Time) ([]store.MaterializedPeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.MaterializedPeriod
	for _, row := range s.periods[userID] {
		if row.End.After(from) && row.Start.Before(to) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *Store) DeletePeriods(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.periods, userID)
	return nil
}

func (s *Store) ListAllSettings(_ context.Context) ([]store.UserSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.UserSettings, 0, len(s.settings))
	for _, us := range s.settings {
		out = append(out, us)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}
