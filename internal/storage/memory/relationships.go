package memory

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/fdg312/lifeos/internal/storage"
	"github.com/google/uuid"
)

// Commitment: строка relationship_commitments
type Commitment struct {
	ID          string
	Name        string
	Category    *string
	Frequency   string // weekly | monthly | daily
	TargetCount int
	Notes       *string
}

type relationshipPlan struct {
	ID           string
	UserID       string
	CommitmentID string
	PlannedFor   time.Time
	Notes        *string
	IsActive     bool
	UpdatedAt    time.Time
}

type relationshipEvent struct {
	ID           string
	UserID       string
	CommitmentID string
	OccurredAt   time.Time
	Notes        *string
}

// RelationshipsMemoryStorage: commitments, plans, events и v_relationship_status
type RelationshipsMemoryStorage struct {
	parent *MemoryStorage

	mu          sync.RWMutex
	commitments map[string][]Commitment
	plans       []relationshipPlan
	events      []relationshipEvent
}

func newRelationshipsMemoryStorage(parent *MemoryStorage) *RelationshipsMemoryStorage {
	return &RelationshipsMemoryStorage{
		parent:      parent,
		commitments: make(map[string][]Commitment),
	}
}

// AddCommitment добавляет обязательство; пустой ID генерируется
func (s *RelationshipsMemoryStorage) AddCommitment(userID string, c Commitment) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.TargetCount <= 0 {
		c.TargetCount = 1
	}
	s.commitments[userID] = append(s.commitments[userID], c)
	return c.ID
}

func (s *RelationshipsMemoryStorage) CommitmentExists(ctx context.Context, userID, commitmentID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.commitments[userID] {
		if c.ID == commitmentID {
			return true, nil
		}
	}
	return false, nil
}

func (s *RelationshipsMemoryStorage) DeactivateActivePlans(ctx context.Context, userID, commitmentID string) (int, error) {
	now, _ := s.parent.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	closed := 0
	for i := range s.plans {
		p := &s.plans[i]
		if p.UserID == userID && p.CommitmentID == commitmentID && p.IsActive {
			p.IsActive = false
			p.UpdatedAt = now
			closed++
		}
	}
	return closed, nil
}

func (s *RelationshipsMemoryStorage) InsertPlan(ctx context.Context, userID, commitmentID string, plannedFor time.Time, notes *string) error {
	now, _ := s.parent.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.plans = append(s.plans, relationshipPlan{
		ID:           uuid.NewString(),
		UserID:       userID,
		CommitmentID: commitmentID,
		PlannedFor:   plannedFor,
		Notes:        notes,
		IsActive:     true,
		UpdatedAt:    now,
	})
	return nil
}

func (s *RelationshipsMemoryStorage) InsertEvent(ctx context.Context, userID, commitmentID string, occurredAt time.Time, notes *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, relationshipEvent{
		ID:           uuid.NewString(),
		UserID:       userID,
		CommitmentID: commitmentID,
		OccurredAt:   occurredAt,
		Notes:        notes,
	})
	return nil
}

// ActivePlanCount: число активных планов по обязательству
func (s *RelationshipsMemoryStorage) ActivePlanCount(userID, commitmentID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, p := range s.plans {
		if p.UserID == userID && p.CommitmentID == commitmentID && p.IsActive {
			n++
		}
	}
	return n
}

// EventCount: число событий по обязательству
func (s *RelationshipsMemoryStorage) EventCount(userID, commitmentID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.events {
		if e.UserID == userID && e.CommitmentID == commitmentID {
			n++
		}
	}
	return n
}

// ListRelationshipStatus повторяет v_relationship_status:
// completed : событий за период >= target_count
// planned   : есть активный план
// overdue   : до конца периода осталось <= 1 дня
// unplanned : всё остальное
func (s *RelationshipsMemoryStorage) ListRelationshipStatus(ctx context.Context, userID string) ([]storage.RelationshipStatusRow, error) {
	now, loc := s.parent.clock()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]storage.RelationshipStatusRow, 0, len(s.commitments[userID]))
	for _, c := range s.commitments[userID] {
		start, end := periodBounds(today, c.Frequency)
		endExclusive := end.AddDate(0, 0, 1)

		completed := 0
		for _, e := range s.events {
			if e.UserID != userID || e.CommitmentID != c.ID {
				continue
			}
			at := e.OccurredAt.In(loc)
			if !at.Before(start) && at.Before(endExclusive) {
				completed++
			}
		}

		var plannedFor *time.Time
		for _, p := range s.plans {
			if p.UserID == userID && p.CommitmentID == c.ID && p.IsActive {
				t := p.PlannedFor
				plannedFor = &t
			}
		}

		daysRemaining := int(math.Round(end.Sub(today).Hours() / 24))

		status := "unplanned"
		switch {
		case completed >= c.TargetCount:
			status = "completed"
		case plannedFor != nil:
			status = "planned"
		case daysRemaining <= 1:
			status = "overdue"
		}

		rows = append(rows, storage.RelationshipStatusRow{
			UserID:         userID,
			CommitmentID:   c.ID,
			Name:           c.Name,
			Category:       c.Category,
			Frequency:      c.Frequency,
			TargetCount:    c.TargetCount,
			Notes:          c.Notes,
			PeriodStart:    start.Format("2006-01-02"),
			PeriodEnd:      end.Format("2006-01-02"),
			DaysRemaining:  daysRemaining,
			CompletedCount: completed,
			PlannedFor:     plannedFor,
			Status:         status,
		})
	}
	return rows, nil
}

// periodBounds возвращает первый и последний день периода (включительно)
func periodBounds(today time.Time, frequency string) (time.Time, time.Time) {
	switch frequency {
	case "monthly":
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return start, start.AddDate(0, 1, -1)
	case "daily":
		return today, today
	default:
		// неделя с понедельника
		offset := (int(today.Weekday()) + 6) % 7
		start := today.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 6)
	}
}
