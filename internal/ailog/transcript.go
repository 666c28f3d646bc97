package ailog

const (
	greetingText    = "Tell me what you ate. You can paste label numbers, speak in fractions, or throw a photo at me. I'll do the math; you just do the chewing."
	imageOnlyText   = "(image only)"
	placeholderText = "Alright, crunching numbers…"
	draftReadyText  = "I've got a draft. Review it before it hits your database:\n"
	failurePrefix   = "I tripped over my own shoelaces. Error: "
)

// Turn - элемент переписки (UserTurn или AssistantTurn)
type Turn interface {
	role() string
}

type UserTurn struct {
	Text     string
	HasImage bool
}

type AssistantTurn struct {
	Text    string
	Pending bool
}

func (UserTurn) role() string      { return "user" }
func (AssistantTurn) role() string { return "assistant" }

// Transcript хранит ходы по порядку; id хода: его позиция, ходы не удаляются
type Transcript struct {
	turns []Turn
}

func newTranscript() Transcript {
	t := Transcript{}
	t.AppendAssistant(greetingText, false)
	return t
}

func (t *Transcript) AppendUser(text string, hasImage bool) int {
	t.turns = append(t.turns, UserTurn{Text: text, HasImage: hasImage})
	return len(t.turns) - 1
}

func (t *Transcript) AppendAssistant(text string, pending bool) int {
	t.turns = append(t.turns, AssistantTurn{Text: text, Pending: pending})
	return len(t.turns) - 1
}

// Resolve заменяет текст ожидающего ответа ассистента на месте.
// false: если id не указывает на ожидающий ход.
func (t *Transcript) Resolve(id int, text string) bool {
	if id < 0 || id >= len(t.turns) {
		return false
	}
	turn, ok := t.turns[id].(AssistantTurn)
	if !ok || !turn.Pending {
		return false
	}
	t.turns[id] = AssistantTurn{Text: text}
	return true
}

func (t *Transcript) Len() int {
	return len(t.turns)
}

func (t *Transcript) At(id int) (Turn, bool) {
	if id < 0 || id >= len(t.turns) {
		return nil, false
	}
	return t.turns[id], true
}

func (t *Transcript) views() []TurnView {
	out := make([]TurnView, 0, len(t.turns))
	for i, turn := range t.turns {
		v := TurnView{ID: i, Role: turn.role()}
		switch tt := turn.(type) {
		case UserTurn:
			v.Text = tt.Text
			v.HasImage = tt.HasImage
		case AssistantTurn:
			v.Text = tt.Text
			v.Pending = tt.Pending
		}
		out = append(out, v)
	}
	return out
}
