package domain

import (
	"strings"
	"time"
)

// ProjectType distinguishes residential from commercial jobs.
type ProjectType string

const (
	ProjectResidential ProjectType = "residential"
	ProjectCommercial  ProjectType = "commercial"
)

// Complexity is the extractor's rough job assessment.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// Customer is what the conversation told us about the customer.
type Customer struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// HasName reports a non-blank name.
func (c Customer) HasName() bool {
	return strings.TrimSpace(c.Name) != ""
}

// HasContact reports at least one contact channel.
func (c Customer) HasContact() bool {
	return strings.TrimSpace(c.Email) != "" ||
		strings.TrimSpace(c.Phone) != "" ||
		strings.TrimSpace(c.Address) != ""
}

// Confidence is a completeness heuristic, not a probability.
type Confidence struct {
	Score         int      `json:"score"`
	MissingFields []string `json:"missingFields"`
	Assumptions   []string `json:"assumptions"`
}

// Analysis is the extractor's qualitative read of the job.
type Analysis struct {
	Complexity            Complexity `json:"complexity"`
	EstimatedDurationDays float64    `json:"estimatedDurationDays"`
	Recommendations       []string   `json:"recommendations"`
}

// ParsedQuoteData is the structured view of a conversation.
type ParsedQuoteData struct {
	Customer    Customer          `json:"customer"`
	ProjectType ProjectType       `json:"projectType"`
	Surfaces    []Surface         `json:"surfaces"`
	Settings    *SettingsOverride `json:"settings,omitempty"`
	Confidence  Confidence        `json:"confidence"`
	Analysis    Analysis          `json:"analysis"`
}

// Clone returns a deep copy so readers never share slices with the store.
func (d ParsedQuoteData) Clone() ParsedQuoteData {
	out := d
	if d.Surfaces != nil {
		out.Surfaces = make([]Surface, len(d.Surfaces))
		for i, s := range d.Surfaces {
			s.PrepWork = append([]PrepWork(nil), s.PrepWork...)
			out.Surfaces[i] = s
		}
	}
	out.Settings = d.Settings.Clone()
	out.Confidence.MissingFields = append([]string(nil), d.Confidence.MissingFields...)
	out.Confidence.Assumptions = append([]string(nil), d.Confidence.Assumptions...)
	out.Analysis.Recommendations = append([]string(nil), d.Analysis.Recommendations...)
	return out
}

// Role identifies who wrote a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one chat message.
type ConversationTurn struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Stage is where a conversation sits in the collect/price lifecycle.
type Stage string

const (
	StageCollecting   Stage = "collecting"
	StageReadyToPrice Stage = "ready_to_price"
	StagePriced       Stage = "priced"
)
