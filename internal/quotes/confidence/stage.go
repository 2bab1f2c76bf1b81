package confidence

import (
	"fmt"

	"paintquote_backend/internal/quotes/domain"

	"github.com/felixgeelhaar/statekit"
)

// Stage machine events.
const (
	EventDataComplete   = "data_complete"
	EventDataIncomplete = "data_incomplete"
	EventConfirm        = "confirm"
	EventForce          = "force"
)

// Untyped so they convert to statekit.StateID; kept equal to domain.Stage values.
const (
	stateCollecting   = "collecting"
	stateReadyToPrice = "ready_to_price"
	statePriced       = "priced"
)

func init() {
	pairs := map[string]domain.Stage{
		stateCollecting:   domain.StageCollecting,
		stateReadyToPrice: domain.StageReadyToPrice,
		statePriced:       domain.StagePriced,
	}
	for state, stage := range pairs {
		if state != string(stage) {
			panic(fmt.Sprintf("stage machine state %q does not match domain stage %q", state, stage))
		}
	}
}

// stageContext is the data the guards look at.
type stageContext struct {
	Data domain.ParsedQuoteData
}

// StageMachine tracks COLLECTING -> READY_TO_PRICE -> PRICED for one
// conversation. COLLECTING may loop forever; PRICED accepts no events.
type StageMachine struct {
	interpreter *statekit.Interpreter[stageContext]
}

// NewStageMachine starts a machine at stage, guarding on data.
func NewStageMachine(stage domain.Stage, data domain.ParsedQuoteData) (*StageMachine, error) {
	if stage == "" {
		stage = domain.StageCollecting
	}

	builder := statekit.NewMachine[stageContext]("quote-stage").
		WithInitial(statekit.StateID(stage)).
		WithContext(stageContext{Data: data}).
		WithGuard("ready", func(ctx stageContext, _ statekit.Event) bool {
			return IsReadyForPricing(ctx.Data)
		}).
		WithGuard("notReady", func(ctx stageContext, _ statekit.Event) bool {
			return !IsReadyForPricing(ctx.Data)
		}).
		WithGuard("complete", func(ctx stageContext, _ statekit.Event) bool {
			return CanAutoComplete(ctx.Data)
		})

	builder.State(stateCollecting).
		On(EventDataComplete).Target(stateReadyToPrice).Guard("ready").
		Done()

	builder.State(stateReadyToPrice).
		On(EventDataIncomplete).Target(stateCollecting).Guard("notReady").
		On(EventConfirm).Target(statePriced).Guard("complete").
		On(EventForce).Target(statePriced).Guard("ready").
		Done()

	builder.State(statePriced).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build stage machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()
	return &StageMachine{interpreter: interpreter}, nil
}

// Send delivers event and reports whether the stage changed.
func (m *StageMachine) Send(event string) bool {
	before := m.Current()
	m.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	return m.Current() != before
}

// Current returns the machine's stage.
func (m *StageMachine) Current() domain.Stage {
	return domain.Stage(m.interpreter.State().Value)
}

// NextStage re-evaluates the stage after an assessment. A priced
// conversation stays priced.
func NextStage(current domain.Stage, data domain.ParsedQuoteData) (domain.Stage, error) {
	m, err := NewStageMachine(current, data)
	if err != nil {
		return current, err
	}
	if IsReadyForPricing(data) {
		m.Send(EventDataComplete)
	} else {
		m.Send(EventDataIncomplete)
	}
	return m.Current(), nil
}

// Finalize moves a conversation to PRICED. force skips the missing-field
// check but never the readiness gate.
func Finalize(current domain.Stage, data domain.ParsedQuoteData, force bool) (domain.Stage, error) {
	m, err := NewStageMachine(current, data)
	if err != nil {
		return current, err
	}
	if m.Current() == domain.StageCollecting {
		m.Send(EventDataComplete)
	}
	event := EventConfirm
	if force {
		event = EventForce
	}
	m.Send(event)
	return m.Current(), nil
}
