package services

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// DefaultRetrieveK is the number of chunks retrieved as context for generation.
const DefaultRetrieveK = 3

// PipelineState is threaded through the pipeline steps. Each step writes only
// its own field, and only once.
type PipelineState struct {
	Question string
	Document []string
	Answer   string

	documentSet bool
	answerSet   bool
}

type pipelineStep struct {
	name string
	run  func(ctx context.Context, state *PipelineState) error
}

// Pipeline runs Retrieve then Generate over a question.
type Pipeline struct {
	index     *VectorIndex
	generator AnswerGenerator
	k         int
	steps     []pipelineStep
}

// NewPipeline creates a pipeline retrieving k chunks per question.
func NewPipeline(index *VectorIndex, generator AnswerGenerator, k int) *Pipeline {
	if k <= 0 {
		k = DefaultRetrieveK
	}
	p := &Pipeline{index: index, generator: generator, k: k}
	p.steps = []pipelineStep{
		{name: "retrieve", run: p.retrieve},
		{name: "generate", run: p.generate},
	}
	return p
}

// Run executes every step in order and returns the final state.
func (p *Pipeline) Run(ctx context.Context, question string) (*PipelineState, error) {
	state := &PipelineState{Question: question}
	for _, step := range p.steps {
		if err := step.run(ctx, state); err != nil {
			return nil, fmt.Errorf("%s step: %w", step.name, err)
		}
	}
	return state, nil
}

func (p *Pipeline) retrieve(ctx context.Context, state *PipelineState) error {
	if state.documentSet {
		return fmt.Errorf("%w: document", ErrStateAlreadyWritten)
	}
	if !p.index.IsInitialized() {
		state.Document = []string{}
		state.documentSet = true
		return nil
	}

	results, err := p.index.Search(ctx, state.Question, p.k)
	if err != nil {
		return err
	}
	docs := make([]string, len(results))
	for i, r := range results {
		docs[i] = r.Text
	}
	log.Printf("PIPELINE: Retrieved %d chunks", len(docs))
	state.Document = docs
	state.documentSet = true
	return nil
}

func (p *Pipeline) generate(ctx context.Context, state *PipelineState) error {
	if state.answerSet {
		return fmt.Errorf("%w: answer", ErrStateAlreadyWritten)
	}
	contextText := strings.Join(state.Document, "\n\n")
	answer, err := p.generator.Generate(ctx, state.Question, contextText)
	if err != nil {
		return err
	}
	state.Answer = answer
	state.answerSet = true
	return nil
}
