package ailog

import (
	"time"

	"github.com/fdg312/lifeos/internal/meals"
)

type TurnView struct {
	ID       int    `json:"id"`
	Role     string `json:"role"`
	Text     string `json:"text"`
	HasImage bool   `json:"has_image,omitempty"`
	Pending  bool   `json:"pending,omitempty"`
}

type ImageInfo struct {
	ContentType string `json:"content_type"`
	Filename    string `json:"filename,omitempty"`
	SizeBytes   int    `json:"size_bytes"`
}

type ProposalItemView struct {
	meals.MealItem
	ConfidencePct string `json:"confidence_pct"`
}

type ProposalView struct {
	Description        string             `json:"description"`
	Items              []ProposalItemView `json:"items"`
	Totals             meals.MealTotals   `json:"totals"`
	TotalsLabel        string             `json:"totals_label"`
	Summary            string             `json:"summary"`
	Assumptions        []string           `json:"assumptions"`
	Confidence         float64            `json:"confidence"`
	ConfidencePct      string             `json:"confidence_pct"`
	NeedsClarification bool               `json:"needs_clarification"`
}

func newProposalView(p *meals.MealProposal) *ProposalView {
	items := make([]ProposalItemView, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, ProposalItemView{
			MealItem:      item,
			ConfidencePct: meals.ConfidencePercent(item.Confidence),
		})
	}
	assumptions := p.Assumptions
	if assumptions == nil {
		assumptions = []string{}
	}
	return &ProposalView{
		Description:        p.Description,
		Items:              items,
		Totals:             p.Totals,
		TotalsLabel:        p.Totals.Label(),
		Summary:            p.Totals.Summary(),
		Assumptions:        assumptions,
		Confidence:         p.Confidence,
		ConfidencePct:      meals.ConfidencePercent(p.Confidence),
		NeedsClarification: p.NeedsClarification,
	}
}

type SessionView struct {
	State      string        `json:"state"`
	MealType   string        `json:"meal_type"`
	MealDate   *string       `json:"meal_date"`
	DraftText  string        `json:"draft_text"`
	HasImage   bool          `json:"has_image"`
	Image      *ImageInfo    `json:"image,omitempty"`
	Transcript []TurnView    `json:"transcript"`
	Proposal   *ProposalView `json:"proposal"`
	Confirming bool          `json:"confirming"`
	Saving     bool          `json:"saving"`
	CanSend    bool          `json:"can_send"`
	LastError  *string       `json:"last_error"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// DraftRequest: PUT /v1/ailog/draft и JSON-вариант POST /v1/ailog/send
type DraftRequest struct {
	Text     *string `json:"text" validate:"omitempty,max=4000"`
	MealType *string `json:"meal_type"`
	MealDate *string `json:"meal_date"`
}

func (r DraftRequest) draft() Draft {
	return Draft{Text: r.Text, MealType: r.MealType, MealDate: r.MealDate}
}

type SaveTemplateRequest struct {
	Name string `json:"name" validate:"max=120"`
}

type SendResponse struct {
	Accepted bool         `json:"accepted"`
	Session  SessionView  `json:"session"`
	Error    *ErrorDetail `json:"error,omitempty"`
}

type ConfirmResponse struct {
	MealLogID int64       `json:"meal_log_id"`
	Session   SessionView `json:"session"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
