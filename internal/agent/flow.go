package agent

import (
	"context"
	"sync"

	"github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"
)

// Input is the request payload for the question-processing flow.
type Input struct {
	Question string         `json:"question"`
	Context  map[string]any `json:"context,omitempty"`
}

// FlowName is the registered name of the flow in Genkit.
const FlowName = "marketlens/processQuestion"

// Flow is the type alias for the question-processing Genkit flow.
type Flow = core.Flow[Input, *Result, struct{}]

// Package-level singleton: genkit.DefineFlow panics on re-registration.
var (
	flowOnce sync.Once
	flow     *Flow
)

// NewFlow returns the flow singleton, initializing it on first call.
// Subsequent calls return the existing flow and ignore the parameters.
func NewFlow(g *genkit.Genkit, agents *Agents) *Flow {
	flowOnce.Do(func() {
		flow = defineFlow(g, agents)
	})
	return flow
}

// ResetFlowForTesting resets the flow singleton so tests can register
// with different configurations. Not safe for concurrent use.
func ResetFlowForTesting() {
	flowOnce = sync.Once{}
	flow = nil
}

// defineFlow wires Process into a Genkit flow for DevUI tracing and
// typed invocation.
func defineFlow(g *genkit.Genkit, agents *Agents) *Flow {
	return genkit.DefineFlow(g, FlowName,
		func(ctx context.Context, input Input) (*Result, error) {
			return agents.Process(ctx, input.Question, input.Context)
		},
	)
}
