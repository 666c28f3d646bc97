package ailog

import (
	"context"
	"strings"

	"github.com/fdg312/lifeos/internal/logger"
	"github.com/fdg312/lifeos/internal/storage"
)

type mealsWriter interface {
	LogManualMeal(ctx context.Context, userID string, in storage.ManualMealInput) (int64, error)
	CreateSavedMeal(ctx context.Context, userID string, in storage.SavedMealInput) error
}

type Options struct {
	MaxImageBytes     int64
	AllowedImageTypes []string
}

type Service struct {
	sessions  *SessionStore
	transport *Transport
	meals     mealsWriter
	log       logger.Logger
	opts      Options
}

func NewService(sessions *SessionStore, transport *Transport, mealsStorage mealsWriter, log logger.Logger, opts Options) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		sessions:  sessions,
		transport: transport,
		meals:     mealsStorage,
		log:       log,
		opts:      opts,
	}
}

func (s *Service) Session(userID string) SessionView {
	return s.sessions.Get(userID).View()
}

func (s *Service) Reset(userID string) SessionView {
	s.log.Debug("ailog", "session reset", map[string]any{"user_id": userID})
	return s.sessions.Reset(userID).View()
}

func (s *Service) UpdateDraft(userID string, d Draft) (SessionView, error) {
	session := s.sessions.Get(userID)
	if err := session.Compose(d); err != nil {
		return SessionView{}, err
	}
	return session.View(), nil
}

func (s *Service) AttachImage(userID string, img Image) (SessionView, error) {
	if err := s.checkImage(img); err != nil {
		return SessionView{}, err
	}
	session := s.sessions.Get(userID)
	session.AttachImage(img)
	return session.View(), nil
}

func (s *Service) DetachImage(userID string) SessionView {
	session := s.sessions.Get(userID)
	session.DetachImage()
	return session.View()
}

func (s *Service) checkImage(img Image) error {
	if s.opts.MaxImageBytes > 0 && int64(len(img.Data)) > s.opts.MaxImageBytes {
		return ErrImageTooLarge
	}
	if len(s.opts.AllowedImageTypes) == 0 {
		return nil
	}
	contentType := strings.ToLower(strings.TrimSpace(img.ContentType))
	for _, allowed := range s.opts.AllowedImageTypes {
		if contentType == allowed {
			return nil
		}
	}
	return ErrUnsupportedImage
}

// SendResult.Accepted=false - отправка проигнорирована, запрос уже в полёте
type SendResult struct {
	Accepted bool
	Session  SessionView
	Err      error
}

// Send блокируется до ответа транспорта. Ошибка транспорта не ошибка метода:
// она попадает в SendResult.Err и в переписку.
func (s *Service) Send(ctx context.Context, userID string, d *Draft, img *Image) (SendResult, error) {
	session := s.sessions.Get(userID)

	if img != nil {
		if err := s.checkImage(*img); err != nil {
			return SendResult{}, err
		}
	}

	ticket, err := session.BeginSendWith(d, img)
	if err != nil {
		return SendResult{}, err
	}
	if ticket == nil {
		return SendResult{Accepted: false, Session: session.View()}, nil
	}

	proposal, err := s.transport.Propose(ctx, userID, ticket)
	session.FinishSend(ticket, proposal, err)
	if err != nil {
		s.log.Warn("ailog", "meal proposal failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return SendResult{Accepted: true, Session: session.View(), Err: err}, nil
	}

	s.log.Info("ailog", "meal proposal ready", map[string]any{
		"user_id":  userID,
		"calories": proposal.Totals.Calories,
		"items":    len(proposal.Items),
	})
	return SendResult{Accepted: true, Session: session.View()}, nil
}

// Confirm записывает итоги предложения через log_manual_meal
func (s *Service) Confirm(ctx context.Context, userID string) (int64, SessionView, error) {
	session := s.sessions.Get(userID)

	ticket, err := session.BeginConfirm()
	if err != nil {
		return 0, session.View(), err
	}

	totals := ticket.Proposal.Totals
	id, err := s.meals.LogManualMeal(ctx, userID, storage.ManualMealInput{
		Description: ticket.Proposal.Description,
		MealType:    ticket.MealType.String(),
		Calories:    totals.Calories,
		ProteinG:    totals.ProteinG,
		CarbsG:      totals.CarbsG,
		FatG:        totals.FatG,
	})
	if err != nil {
		perr := &PersistenceError{Op: "log_manual_meal", Err: err}
		session.FinishConfirm(ticket, perr)
		s.log.Error("ailog", "confirm failed", map[string]any{"user_id": userID, "error": perr.Error()})
		return 0, session.View(), perr
	}

	session.FinishConfirm(ticket, nil)
	s.log.Info("ailog", "meal logged", map[string]any{"user_id": userID, "meal_log_id": id})
	return id, session.View(), nil
}

// SaveTemplate сохраняет предложение как шаблон; предложение остаётся в сессии
func (s *Service) SaveTemplate(ctx context.Context, userID, name string) (SessionView, error) {
	session := s.sessions.Get(userID)

	ticket, err := session.BeginSave(name)
	if err != nil {
		return session.View(), err
	}

	n := ticket.Proposal.Totals.Nutrients()
	in := storage.SavedMealInput{
		Name:          ticket.Name,
		Calories:      n.Calories,
		ProteinG:      n.ProteinG,
		CarbsG:        n.CarbsG,
		FatG:          n.FatG,
		SaturatedFatG: n.SaturatedFatG,
		FiberG:        n.FiberG,
		SolubleFiberG: n.SolubleFiberG,
		SugarG:        n.SugarG,
		SodiumMg:      n.SodiumMg,
	}
	if desc := ticket.Proposal.Description; desc != "" {
		in.Description = &desc
	}

	if err := s.meals.CreateSavedMeal(ctx, userID, in); err != nil {
		perr := &PersistenceError{Op: "create_saved_meal", Err: err}
		session.FinishSave(ticket, perr)
		s.log.Error("ailog", "save template failed", map[string]any{"user_id": userID, "error": perr.Error()})
		return session.View(), perr
	}

	session.FinishSave(ticket, nil)
	s.log.Info("ailog", "meal template saved", map[string]any{"user_id": userID, "name": ticket.Name})
	return session.View(), nil
}

func (s *Service) Discard(userID string) (SessionView, error) {
	session := s.sessions.Get(userID)
	if err := session.Discard(); err != nil {
		return session.View(), err
	}
	return session.View(), nil
}
