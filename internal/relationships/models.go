package relationships

import "time"

type CommitmentStatusDTO struct {
	CommitmentID   string     `json:"commitment_id"`
	Name           string     `json:"name"`
	Category       *string    `json:"category"`
	Frequency      string     `json:"frequency"`
	TargetCount    int        `json:"target_count"`
	Notes          *string    `json:"notes"`
	PeriodStart    string     `json:"period_start"`
	PeriodEnd      string     `json:"period_end"`
	DaysRemaining  int        `json:"days_remaining"`
	CompletedCount int        `json:"completed_count"`
	PlannedFor     *time.Time `json:"planned_for"`
	Status         string     `json:"status"`
	StatusLabel    string     `json:"status_label"`
}

type StatusCounts struct {
	Total     int `json:"total"`
	Overdue   int `json:"overdue"`
	Unplanned int `json:"unplanned"`
	Planned   int `json:"planned"`
	Completed int `json:"completed"`
	Other     int `json:"other"`
}

type ListResponse struct {
	Commitments []CommitmentStatusDTO `json:"commitments"`
	Counts      StatusCounts          `json:"counts"`
}

type PlanRequest struct {
	CommitmentID string `json:"commitment_id"`
	PlannedFor   string `json:"planned_for"`
	Notes        string `json:"notes" validate:"max=500"`
}

type LogRequest struct {
	CommitmentID string `json:"commitment_id"`
	OccurredAt   string `json:"occurred_at"`
	Notes        string `json:"notes" validate:"max=500"`
}

type PlanResponse struct {
	CommitmentID    string    `json:"commitment_id"`
	PlannedFor      time.Time `json:"planned_for"`
	ClosedPlanCount int       `json:"closed_plan_count"`
}

type LogResponse struct {
	CommitmentID    string    `json:"commitment_id"`
	OccurredAt      time.Time `json:"occurred_at"`
	ClosedPlanCount int       `json:"closed_plan_count"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
