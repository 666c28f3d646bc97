package relationships

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fdg312/lifeos/internal/logger"
	"github.com/fdg312/lifeos/internal/storage"
)

var (
	ErrCommitmentNotFound = errors.New("commitment not found")
	ErrInvalidDateTime    = errors.New("invalid datetime")
)

// MissingFieldError: обязательное поле пустое
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "Missing field: " + e.Field
}

type Service struct {
	storage storage.RelationshipsStorage
	log     logger.Logger
	loc     *time.Location
}

func NewService(relationshipsStorage storage.RelationshipsStorage, log logger.Logger, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{storage: relationshipsStorage, log: log, loc: loc}
}

// List при ошибке чтения представления отдаёт пустой список и пишет в лог
func (s *Service) List(ctx context.Context, userID string) *ListResponse {
	rows, err := s.storage.ListRelationshipStatus(ctx, userID)
	if err != nil {
		s.log.Error("relationships", "relationship status read failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		rows = nil
	}

	sorted := make([]storage.RelationshipStatusRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		oi, oj := statusOrder(sorted[i].Status), statusOrder(sorted[j].Status)
		if oi != oj {
			return oi < oj
		}
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})

	resp := &ListResponse{Commitments: make([]CommitmentStatusDTO, 0, len(sorted))}
	for _, r := range sorted {
		resp.Counts.add(r.Status)
		resp.Commitments = append(resp.Commitments, CommitmentStatusDTO{
			CommitmentID:   r.CommitmentID,
			Name:           r.Name,
			Category:       r.Category,
			Frequency:      r.Frequency,
			TargetCount:    r.TargetCount,
			Notes:          r.Notes,
			PeriodStart:    r.PeriodStart,
			PeriodEnd:      r.PeriodEnd,
			DaysRemaining:  r.DaysRemaining,
			CompletedCount: r.CompletedCount,
			PlannedFor:     r.PlannedFor,
			Status:         r.Status,
			StatusLabel:    StatusLabel(r.Status),
		})
	}
	return resp
}

// Plan закрывает активный план и открывает новый
func (s *Service) Plan(ctx context.Context, userID string, req PlanRequest) (*PlanResponse, error) {
	commitmentID, err := requireField("commitment_id", req.CommitmentID)
	if err != nil {
		return nil, err
	}
	rawWhen, err := requireField("planned_for", req.PlannedFor)
	if err != nil {
		return nil, err
	}
	plannedFor, err := ParseLocalDateTime(rawWhen, s.loc)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCommitment(ctx, userID, commitmentID); err != nil {
		return nil, err
	}

	closed, err := s.storage.DeactivateActivePlans(ctx, userID, commitmentID)
	if err != nil {
		return nil, err
	}
	if err := s.storage.InsertPlan(ctx, userID, commitmentID, plannedFor, optional(req.Notes)); err != nil {
		return nil, err
	}

	s.log.Info("relationships", "plan saved", map[string]any{
		"user_id":       userID,
		"commitment_id": commitmentID,
		"planned_for":   plannedFor.Format(time.RFC3339),
		"closed_plans":  closed,
	})
	return &PlanResponse{CommitmentID: commitmentID, PlannedFor: plannedFor, ClosedPlanCount: closed}, nil
}

// Log записывает событие и закрывает активный план
func (s *Service) Log(ctx context.Context, userID string, req LogRequest) (*LogResponse, error) {
	commitmentID, err := requireField("commitment_id", req.CommitmentID)
	if err != nil {
		return nil, err
	}
	rawWhen, err := requireField("occurred_at", req.OccurredAt)
	if err != nil {
		return nil, err
	}
	occurredAt, err := ParseLocalDateTime(rawWhen, s.loc)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCommitment(ctx, userID, commitmentID); err != nil {
		return nil, err
	}

	if err := s.storage.InsertEvent(ctx, userID, commitmentID, occurredAt, optional(req.Notes)); err != nil {
		return nil, err
	}
	closed, err := s.storage.DeactivateActivePlans(ctx, userID, commitmentID)
	if err != nil {
		return nil, err
	}

	s.log.Info("relationships", "event logged", map[string]any{
		"user_id":       userID,
		"commitment_id": commitmentID,
		"occurred_at":   occurredAt.Format(time.RFC3339),
		"closed_plans":  closed,
	})
	return &LogResponse{CommitmentID: commitmentID, OccurredAt: occurredAt, ClosedPlanCount: closed}, nil
}

func (s *Service) ensureCommitment(ctx context.Context, userID, commitmentID string) error {
	ok, err := s.storage.CommitmentExists(ctx, userID, commitmentID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCommitmentNotFound
	}
	return nil
}

// ParseLocalDateTime принимает значение datetime-local ("2026-10-14T18:30"),
// с секундами или без, в loc; RFC 3339 со смещением тоже подходит.
func ParseLocalDateTime(raw string, loc *time.Location) (time.Time, error) {
	v := strings.TrimSpace(raw)
	if len(v) == 16 {
		v += ":00"
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", v, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateTime, raw)
}

func statusOrder(status string) int {
	switch status {
	case "overdue":
		return 0
	case "unplanned":
		return 1
	case "planned":
		return 2
	case "completed":
		return 3
	default:
		return 9
	}
}

func StatusLabel(status string) string {
	switch status {
	case "overdue":
		return "Overdue"
	case "unplanned":
		return "Unplanned"
	case "planned":
		return "Planned"
	case "completed":
		return "Done"
	default:
		return status
	}
}

func (c *StatusCounts) add(status string) {
	c.Total++
	switch status {
	case "overdue":
		c.Overdue++
	case "unplanned":
		c.Unplanned++
	case "planned":
		c.Planned++
	case "completed":
		c.Completed++
	default:
		c.Other++
	}
}

func requireField(name, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", &MissingFieldError{Field: name}
	}
	return v, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
