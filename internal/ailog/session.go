package ailog

import (
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/fdg312/lifeos/internal/meals"
)

type State string

const (
	StateIdle             State = "idle"
	StateComposing        State = "composing"
	StateAwaitingProposal State = "awaiting_proposal"
	StateReviewing        State = "reviewing"
	StateCommitting       State = "committing"
)

var (
	ErrNothingToSend    = errors.New("nothing to send")
	ErrNoProposal       = errors.New("no proposal held")
	ErrConfirmInFlight  = errors.New("confirm already in flight")
	ErrSaveInFlight     = errors.New("save already in flight")
	ErrSendInFlight     = errors.New("proposal request in flight")
	ErrInvalidMealDate  = errors.New("invalid meal date")
	ErrImageTooLarge    = errors.New("image too large")
	ErrUnsupportedImage = errors.New("unsupported image type")
)

// Image: прикреплённая картинка, живёт до отправки
type Image struct {
	Data        []byte
	ContentType string
	Filename    string
}

func (img *Image) dataURL() string {
	return "data:" + img.ContentType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// Draft: частичное обновление черновика; nil поле не трогаем
type Draft struct {
	Text     *string
	MealType *string
	MealDate *string
}

// Session: одна сессия предложения блюда. Все методы потокобезопасны;
// сетевые вызовы идут между Begin* и Finish*, без блокировки.
type Session struct {
	mu sync.Mutex

	state      State
	draftText  string
	image      *Image
	mealType   meals.MealType
	mealDate   string
	transcript Transcript
	proposal   *meals.MealProposal
	saving     bool
	lastError  string
	updatedAt  time.Time
	now        func() time.Time
}

func NewSession() *Session {
	return newSession(time.Now)
}

func newSession(now func() time.Time) *Session {
	return &Session{
		state:      StateIdle,
		mealType:   meals.Snack,
		transcript: newTranscript(),
		updatedAt:  now(),
		now:        now,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Compose(d Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.composeLocked(d)
}

// composeLocked проверяет meal_date до любых изменений
func (s *Session) composeLocked(d Draft) error {
	if d.MealDate != nil {
		date := strings.TrimSpace(*d.MealDate)
		if date != "" {
			if _, err := time.Parse("2006-01-02", date); err != nil {
				return ErrInvalidMealDate
			}
		}
		s.mealDate = date
	}
	if d.MealType != nil {
		s.mealType = meals.AsMealType(*d.MealType)
	}
	if d.Text != nil {
		s.draftText = *d.Text
	}
	s.touch()
	return nil
}

// AttachImage заменяет ранее прикреплённую картинку
func (s *Session) AttachImage(img Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.image = &img
	s.touch()
}

func (s *Session) DetachImage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.image = nil
	s.touch()
}

func (s *Session) canSendLocked() bool {
	return strings.TrimSpace(s.draftText) != "" || s.image != nil
}

// touch пересчитывает Idle/Composing; остальные состояния меняют только переходы
func (s *Session) touch() {
	s.updatedAt = s.now()
	if s.state == StateIdle || s.state == StateComposing {
		s.state = s.restingStateLocked()
	}
}

func (s *Session) busyLocked() bool {
	return s.state == StateAwaitingProposal || s.state == StateCommitting
}

func (s *Session) restingStateLocked() State {
	if s.canSendLocked() {
		return StateComposing
	}
	return StateIdle
}

// SendTicket: снимок запроса к транспорту
type SendTicket struct {
	placeholderID int
	Text          string
	ImageDataURL  string
	MealType      meals.MealType
	MealDate      string
}

// BeginSend забирает черновик и ставит placeholder.
// (nil, nil): запрос уже в полёте или идёт подтверждение, повторная отправка игнорируется.
func (s *Session) BeginSend() (*SendTicket, error) {
	return s.BeginSendWith(nil, nil)
}

// BeginSendWith применяет поля запроса и картинку под той же блокировкой,
// что и проверка на запрос в полёте: проигнорированная отправка ничего не меняет.
func (s *Session) BeginSendWith(d *Draft, img *Image) (*SendTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busyLocked() {
		return nil, nil
	}
	if d != nil {
		if err := s.composeLocked(*d); err != nil {
			return nil, err
		}
	}
	if img != nil {
		cp := *img
		s.image = &cp
		s.touch()
	}
	if !s.canSendLocked() {
		return nil, ErrNothingToSend
	}

	text := strings.TrimSpace(s.draftText)
	userText := text
	if userText == "" {
		userText = imageOnlyText
	}

	ticket := &SendTicket{
		Text:     text,
		MealType: s.mealType,
		MealDate: s.mealDate,
	}
	if s.image != nil {
		ticket.ImageDataURL = s.image.dataURL()
	}

	s.transcript.AppendUser(userText, s.image != nil)
	ticket.placeholderID = s.transcript.AppendAssistant(placeholderText, true)

	s.draftText = ""
	s.image = nil
	s.lastError = ""
	s.state = StateAwaitingProposal
	s.updatedAt = s.now()

	return ticket, nil
}

// FinishSend подставляет результат транспорта в placeholder
func (s *Session) FinishSend(t *SendTicket, proposal *meals.MealProposal, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil || proposal == nil {
		if err == nil {
			err = &TransportError{Message: "missing proposal"}
		}
		s.transcript.Resolve(t.placeholderID, failurePrefix+err.Error())
		s.lastError = err.Error()
		// Composing даже при пустом черновике: прежнее предложение (если было)
		// остаётся, повторить можно сразу после ввода текста
		s.state = StateComposing
		s.updatedAt = s.now()
		return
	}

	// новое предложение заменяет прежнее только при успехе
	p := *proposal
	s.transcript.Resolve(t.placeholderID, draftReadyText+p.Totals.Summary())
	s.proposal = &p
	s.state = StateReviewing
	s.updatedAt = s.now()
}

type ConfirmTicket struct {
	Proposal meals.MealProposal
	MealType meals.MealType
}

func (s *Session) BeginConfirm() (*ConfirmTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateCommitting {
		return nil, ErrConfirmInFlight
	}
	if s.state == StateAwaitingProposal {
		return nil, ErrSendInFlight
	}
	if s.proposal == nil {
		return nil, ErrNoProposal
	}

	s.state = StateCommitting
	s.lastError = ""
	s.updatedAt = s.now()
	return &ConfirmTicket{Proposal: *s.proposal, MealType: s.mealType}, nil
}

func (s *Session) FinishConfirm(t *ConfirmTicket, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updatedAt = s.now()
	if err != nil {
		s.lastError = err.Error()
		s.state = StateReviewing
		return
	}
	s.proposal = nil
	s.state = s.restingStateLocked()
}

type SaveTicket struct {
	Name     string
	Proposal meals.MealProposal
}

// BeginSave не зависит от подтверждения: шаблон можно сохранять параллельно с Confirm
func (s *Session) BeginSave(name string) (*SaveTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saving {
		return nil, ErrSaveInFlight
	}
	if s.state == StateAwaitingProposal {
		return nil, ErrSendInFlight
	}
	if s.proposal == nil {
		return nil, ErrNoProposal
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.TrimSpace(s.proposal.Description)
	}
	if name == "" {
		name = "Saved meal"
	}

	s.saving = true
	s.lastError = ""
	s.updatedAt = s.now()
	return &SaveTicket{Name: name, Proposal: *s.proposal}, nil
}

func (s *Session) FinishSave(t *SaveTicket, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saving = false
	s.updatedAt = s.now()
	if err != nil {
		s.lastError = err.Error()
		return
	}
	s.transcript.AppendAssistant(`Saved meal template: "`+t.Proposal.Description+`"`, false)
}

// Discard сбрасывает предложение без обращения к хранилищу
func (s *Session) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateCommitting {
		return ErrConfirmInFlight
	}
	if s.state == StateAwaitingProposal {
		return ErrSendInFlight
	}
	if s.proposal == nil {
		return nil
	}
	s.proposal = nil
	s.state = s.restingStateLocked()
	s.updatedAt = s.now()
	return nil
}

func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := SessionView{
		State:      string(s.state),
		MealType:   s.mealType.String(),
		DraftText:  s.draftText,
		HasImage:   s.image != nil,
		Transcript: s.transcript.views(),
		Confirming: s.state == StateCommitting,
		Saving:     s.saving,
		CanSend:    s.canSendLocked() && !s.busyLocked(),
		UpdatedAt:  s.updatedAt,
	}
	if s.mealDate != "" {
		d := s.mealDate
		v.MealDate = &d
	}
	if s.image != nil {
		v.Image = &ImageInfo{
			ContentType: s.image.ContentType,
			Filename:    s.image.Filename,
			SizeBytes:   len(s.image.Data),
		}
	}
	if s.proposal != nil {
		v.Proposal = newProposalView(s.proposal)
	}
	if s.lastError != "" {
		e := s.lastError
		v.LastError = &e
	}
	return v
}
