package ailog

import (
	"context"
	"strings"
	"time"

	"github.com/fdg312/lifeos/internal/ai"
	"github.com/fdg312/lifeos/internal/meals"
)

// TransportError: любой сбой ai_meal_propose, включая пустой ответ
type TransportError struct {
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	return "ai_meal_propose: " + e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// PersistenceError: сбой процедуры хранилища (log_manual_meal, create_saved_meal)
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	msg := e.Err.Error()
	// postgres уже добавляет имя процедуры
	if strings.HasPrefix(msg, e.Op+": ") {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Transport вызывает провайдера и приводит ответ к MealProposal
type Transport struct {
	proposer ai.MealProposer
	timeout  time.Duration
}

func NewTransport(proposer ai.MealProposer, timeout time.Duration) *Transport {
	return &Transport{proposer: proposer, timeout: timeout}
}

func (t *Transport) Propose(ctx context.Context, userID string, ticket *SendTicket) (*meals.MealProposal, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	proposal, err := t.proposer.ProposeMeal(ctx, ai.ProposeRequest{
		UserID:       userID,
		MealType:     ticket.MealType.String(),
		MealDate:     ticket.MealDate,
		Text:         ticket.Text,
		ImageDataURL: ticket.ImageDataURL,
	})
	if err != nil {
		return nil, &TransportError{Message: err.Error(), Err: err}
	}
	if proposal == nil {
		return nil, &TransportError{Message: "missing proposal"}
	}

	proposal.Sanitize()
	return proposal, nil
}
