package ailog

import (
	"errors"
	"testing"
	"time"

	"github.com/fdg312/lifeos/internal/meals"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSession() *Session {
	return newSession(func() time.Time { return time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC) })
}

func strPtr(s string) *string { return &s }

func tacosProposal() *meals.MealProposal {
	return &meals.MealProposal{
		Description: "2 tacos",
		Items: []meals.MealItem{
			{Name: "taco", QuantityText: "2", Calories: 320, ProteinG: 18, CarbsG: 30, FatG: 12, Confidence: 0.85},
		},
		Totals:     meals.MealTotals{Calories: 320, ProteinG: 18, CarbsG: 30, FatG: 12},
		Confidence: 0.8,
	}
}

func TestNewSessionStartsIdleWithGreeting(t *testing.T) {
	s := fixedSession()
	v := s.View()

	assert.Equal(t, string(StateIdle), v.State)
	assert.Equal(t, "snack", v.MealType)
	assert.Nil(t, v.MealDate)
	require.Len(t, v.Transcript, 1)
	assert.Equal(t, "assistant", v.Transcript[0].Role)
	assert.Equal(t, greetingText, v.Transcript[0].Text)
	assert.False(t, v.CanSend)
}

func TestComposeTransitions(t *testing.T) {
	s := fixedSession()

	require.NoError(t, s.Compose(Draft{Text: strPtr("2 tacos")}))
	assert.Equal(t, StateComposing, s.State())
	assert.True(t, s.View().CanSend)

	require.NoError(t, s.Compose(Draft{Text: strPtr("   ")}))
	assert.Equal(t, StateIdle, s.State())
	assert.False(t, s.View().CanSend)

	s.AttachImage(Image{Data: []byte("x"), ContentType: "image/png"})
	assert.Equal(t, StateComposing, s.State())
	s.DetachImage()
	assert.Equal(t, StateIdle, s.State())
}

func TestComposeMealTypeAndDate(t *testing.T) {
	s := fixedSession()

	require.NoError(t, s.Compose(Draft{MealType: strPtr("Dinner"), MealDate: strPtr("2026-10-13")}))
	v := s.View()
	assert.Equal(t, "dinner", v.MealType)
	require.NotNil(t, v.MealDate)
	assert.Equal(t, "2026-10-13", *v.MealDate)

	require.NoError(t, s.Compose(Draft{MealType: strPtr("brunch")}))
	assert.Equal(t, "snack", s.View().MealType)

	assert.ErrorIs(t, s.Compose(Draft{MealDate: strPtr("13/10/2026")}), ErrInvalidMealDate)

	require.NoError(t, s.Compose(Draft{MealDate: strPtr("")}))
	assert.Nil(t, s.View().MealDate)
}

func TestBeginSendRejectsBlankDraft(t *testing.T) {
	s := fixedSession()
	require.NoError(t, s.Compose(Draft{Text: strPtr(" \n\t ")}))

	ticket, err := s.BeginSend()
	assert.ErrorIs(t, err, ErrNothingToSend)
	assert.Nil(t, ticket)
	assert.Len(t, s.View().Transcript, 1)
}

func TestBeginSendAppendsTurnsAndClearsDraft(t *testing.T) {
	s := fixedSession()
	require.NoError(t, s.Compose(Draft{Text: strPtr("  2 tacos  "), MealType: strPtr("lunch")}))

	ticket, err := s.BeginSend()
	require.NoError(t, err)
	require.NotNil(t, ticket)
	assert.Equal(t, "2 tacos", ticket.Text)
	assert.Equal(t, meals.Lunch, ticket.MealType)
	assert.Empty(t, ticket.ImageDataURL)

	v := s.View()
	assert.Equal(t, string(StateAwaitingProposal), v.State)
	assert.Empty(t, v.DraftText)
	require.Len(t, v.Transcript, 3)
	assert.Equal(t, TurnView{ID: 1, Role: "user", Text: "2 tacos"}, v.Transcript[1])
	assert.Equal(t, TurnView{ID: 2, Role: "assistant", Text: placeholderText, Pending: true}, v.Transcript[2])
}

func TestImageOnlySend(t *testing.T) {
	s := fixedSession()
	s.AttachImage(Image{Data: []byte("hello"), ContentType: "image/png", Filename: "plate.png"})

	ticket, err := s.BeginSend()
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,aGVsbG8=", ticket.ImageDataURL)
	assert.Empty(t, ticket.Text)

	v := s.View()
	assert.False(t, v.HasImage)
	assert.Nil(t, v.Image)
	assert.Equal(t, imageOnlyText, v.Transcript[1].Text)
	assert.True(t, v.Transcript[1].HasImage)
}

func TestSecondSendWhileAwaitingIsNoop(t *testing.T) {
	s := fixedSession()
	require.NoError(t, s.Compose(Draft{Text: strPtr("2 tacos")}))
	_, err := s.BeginSend()
	require.NoError(t, err)

	require.NoError(t, s.Compose(Draft{Text: strPtr("and a beer")}))
	ticket, err := s.BeginSend()
	require.NoError(t, err)
	assert.Nil(t, ticket)

	v := s.View()
	assert.Len(t, v.Transcript, 3)
	assert.Equal(t, "and a beer", v.DraftText)
	assert.Equal(t, string(StateAwaitingProposal), v.State)
	assert.False(t, v.CanSend)
}

func TestFinishSendReplacesPlaceholderInPlace(t *testing.T) {
	s := fixedSession()
	require.NoError(t, s.Compose(Draft{Text: strPtr("2 tacos")}))
	ticket, err := s.BeginSend()
	require.NoError(t, err)

	s.FinishSend(ticket, tacosProposal(), nil)

	v := s.View()
	require.Len(t, v.Transcript, 3)
	assert.Equal(t, 2, v.Transcript[2].ID)
	assert.False(t, v.Transcript[2].Pending)
	assert.Equal(t, "I've got a draft. Review it before it hits your database:\nCalories 320 • P 18g • C 30g • F 12g", v.Transcript[2].Text)
	assert.Equal(t, string(StateReviewing), v.State)
	require.NotNil(t, v.Proposal)
	assert.Equal(t, "320 calories", v.Proposal.TotalsLabel)
	assert.Equal(t, "85%", v.Proposal.Items[0].ConfidencePct)
}

func TestFinishSendFailureKeepsComposedText(t *testing.T) {
	s := fixedSession()
	require.NoError(t, s.Compose(Draft{Text: strPtr("2 tacos")}))
	ticket, err := s.BeginSend()
	require.NoError(t, err)

	// набрано, пока ждали ответа
	require.NoError(t, s.Compose(Draft{Text: strPtr("actually 3 tacos")}))

	s.FinishSend(ticket, nil, &TransportError{Message: "boom"})

	v := s.View()
	assert.Equal(t, string(StateComposing), v.State)
	assert.Equal(t, "actually 3 tacos", v.DraftText)
	assert.Nil(t, v.Proposal)
	require.NotNil(t, v.LastError)
	assert.Equal(t, "ai_meal_propose: boom", *v.LastError)
	assert.Equal(t, "I tripped over my own shoelaces. Error: ai_meal_propose: boom", v.Transcript[2].Text)
	assert.True(t, v.CanSend)
}

func TestFinishSendNilProposalIsMissingProposal(t *testing.T) {
	s := fixedSession()
	require.NoError(t, s.Compose(Draft{Text: strPtr("x")}))
	ticket, _ := s.BeginSend()

	s.FinishSend(ticket, nil, nil)

	v := s.View()
	assert.Equal(t, string(StateComposing), v.State)
	require.NotNil(t, v.LastError)
	assert.Equal(t, "ai_meal_propose: missing proposal", *v.LastError)
}

func TestSendReplacesHeldProposalOnSuccess(t *testing.T) {
	s := reviewingSession(t)

	require.NoError(t, s.Compose(Draft{Text: strPtr("one more taco")}))
	ticket, err := s.BeginSend()
	require.NoError(t, err)

	// пока ждём ответа, прежнее предложение видно, но действовать по нему нельзя
	v := s.View()
	require.NotNil(t, v.Proposal)
	assert.Equal(t, "2 tacos", v.Proposal.Description)

	_, err = s.BeginConfirm()
	assert.ErrorIs(t, err, ErrSendInFlight)
	_, err = s.BeginSave("")
	assert.ErrorIs(t, err, ErrSendInFlight)
	assert.ErrorIs(t, s.Discard(), ErrSendInFlight)

	three := tacosProposal()
	three.Description = "3 tacos"
	three.Totals.Calories = 480
	s.FinishSend(ticket, three, nil)

	v = s.View()
	assert.Equal(t, string(StateReviewing), v.State)
	require.NotNil(t, v.Proposal)
	assert.Equal(t, "3 tacos", v.Proposal.Description)
	assert.Equal(t, 480.0, v.Proposal.Totals.Calories)
}

func TestFailedSendKeepsHeldProposal(t *testing.T) {
	s := reviewingSession(t)

	require.NoError(t, s.Compose(Draft{Text: strPtr("add a soda")}))
	ticket, err := s.BeginSend()
	require.NoError(t, err)

	s.FinishSend(ticket, nil, &TransportError{Message: "timeout"})

	v := s.View()
	assert.Equal(t, string(StateComposing), v.State)
	assert.False(t, v.CanSend)
	require.NotNil(t, v.Proposal)
	assert.Equal(t, "2 tacos", v.Proposal.Description)
	require.NotNil(t, v.LastError)
	assert.Equal(t, "ai_meal_propose: timeout", *v.LastError)

	// прежнее предложение по-прежнему можно подтвердить
	confirm, err := s.BeginConfirm()
	require.NoError(t, err)
	assert.Equal(t, "2 tacos", confirm.Proposal.Description)
}

func TestIgnoredSendLeavesDraftUntouched(t *testing.T) {
	s := fixedSession()
	require.NoError(t, s.Compose(Draft{Text: strPtr("2 tacos")}))
	_, err := s.BeginSend()
	require.NoError(t, err)

	ticket, err := s.BeginSendWith(
		&Draft{Text: strPtr("stale"), MealType: strPtr("dinner")},
		&Image{Data: []byte{0x89, 'P', 'N', 'G'}, ContentType: "image/png"},
	)
	require.NoError(t, err)
	assert.Nil(t, ticket)

	v := s.View()
	assert.Equal(t, string(StateAwaitingProposal), v.State)
	assert.Equal(t, "", v.DraftText)
	assert.False(t, v.HasImage)
	assert.Equal(t, "snack", v.MealType)
	assert.Len(t, v.Transcript, 3)
}

func TestBeginSendWithInvalidDateChangesNothing(t *testing.T) {
	s := fixedSession()

	_, err := s.BeginSendWith(
		&Draft{Text: strPtr("2 tacos"), MealDate: strPtr("14.10.2026")},
		&Image{Data: []byte{1}, ContentType: "image/png"},
	)
	assert.ErrorIs(t, err, ErrInvalidMealDate)

	v := s.View()
	assert.Equal(t, string(StateIdle), v.State)
	assert.Equal(t, "", v.DraftText)
	assert.False(t, v.HasImage)
}

func reviewingSession(t *testing.T) *Session {
	t.Helper()
	s := fixedSession()
	require.NoError(t, s.Compose(Draft{Text: strPtr("2 tacos")}))
	ticket, err := s.BeginSend()
	require.NoError(t, err)
	s.FinishSend(ticket, tacosProposal(), nil)
	require.Equal(t, StateReviewing, s.State())
	return s
}

func TestConfirmGuards(t *testing.T) {
	s := fixedSession()
	_, err := s.BeginConfirm()
	assert.ErrorIs(t, err, ErrNoProposal)

	s = reviewingSession(t)
	ticket, err := s.BeginConfirm()
	require.NoError(t, err)
	assert.Equal(t, StateCommitting, s.State())

	_, err = s.BeginConfirm()
	assert.ErrorIs(t, err, ErrConfirmInFlight)

	assert.ErrorIs(t, s.Discard(), ErrConfirmInFlight)

	// Save не блокируется подтверждением
	saveTicket, err := s.BeginSave("")
	require.NoError(t, err)
	s.FinishSave(saveTicket, nil)

	s.FinishConfirm(ticket, nil)
	v := s.View()
	assert.Equal(t, string(StateIdle), v.State)
	assert.Nil(t, v.Proposal)
}

func TestConfirmFailureRetainsProposal(t *testing.T) {
	s := reviewingSession(t)
	ticket, err := s.BeginConfirm()
	require.NoError(t, err)

	s.FinishConfirm(ticket, &PersistenceError{Op: "log_manual_meal", Err: errors.New("db down")})

	v := s.View()
	assert.Equal(t, string(StateReviewing), v.State)
	require.NotNil(t, v.Proposal)
	assert.Equal(t, "2 tacos", v.Proposal.Description)
	require.NotNil(t, v.LastError)
	assert.Equal(t, "log_manual_meal: db down", *v.LastError)

	_, err = s.BeginConfirm()
	assert.NoError(t, err)
}

func TestSaveGuardsAndNaming(t *testing.T) {
	s := fixedSession()
	_, err := s.BeginSave("")
	assert.ErrorIs(t, err, ErrNoProposal)

	s = reviewingSession(t)
	ticket, err := s.BeginSave("   ")
	require.NoError(t, err)
	assert.Equal(t, "2 tacos", ticket.Name)

	_, err = s.BeginSave("again")
	assert.ErrorIs(t, err, ErrSaveInFlight)

	// Confirm не блокируется сохранением
	_, err = s.BeginConfirm()
	require.NoError(t, err)

	s.FinishSave(ticket, nil)
	v := s.View()
	assert.False(t, v.Saving)
	last := v.Transcript[len(v.Transcript)-1]
	assert.Equal(t, `Saved meal template: "2 tacos"`, last.Text)
}

func TestSaveFailureAppendsNothing(t *testing.T) {
	s := reviewingSession(t)
	before := len(s.View().Transcript)

	ticket, err := s.BeginSave("Tacos")
	require.NoError(t, err)
	assert.Equal(t, "Tacos", ticket.Name)
	s.FinishSave(ticket, &PersistenceError{Op: "create_saved_meal", Err: errors.New("nope")})

	v := s.View()
	assert.Len(t, v.Transcript, before)
	assert.NotNil(t, v.Proposal)
	assert.Equal(t, string(StateReviewing), v.State)
}

func TestDiscard(t *testing.T) {
	s := fixedSession()
	assert.NoError(t, s.Discard())

	s = reviewingSession(t)
	require.NoError(t, s.Discard())
	v := s.View()
	assert.Nil(t, v.Proposal)
	assert.Equal(t, string(StateIdle), v.State)
}

func TestTranscriptResolveOnlyPending(t *testing.T) {
	tr := newTranscript()
	user := tr.AppendUser("hi", false)
	pending := tr.AppendAssistant("…", true)

	assert.False(t, tr.Resolve(user, "x"))
	assert.False(t, tr.Resolve(0, "x"))
	assert.False(t, tr.Resolve(99, "x"))
	assert.True(t, tr.Resolve(pending, "done"))
	assert.False(t, tr.Resolve(pending, "again"))

	turn, ok := tr.At(pending)
	require.True(t, ok)
	assert.Equal(t, AssistantTurn{Text: "done"}, turn)
}

func TestPersistenceErrorPrefix(t *testing.T) {
	assert.Equal(t, "log_manual_meal: boom", (&PersistenceError{Op: "log_manual_meal", Err: errors.New("boom")}).Error())
	assert.Equal(t, "log_manual_meal: boom", (&PersistenceError{Op: "log_manual_meal", Err: errors.New("log_manual_meal: boom")}).Error())
}
