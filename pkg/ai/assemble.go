package ai

import (
	"errors"
	"fmt"
	"strings"

	"github.com/trellis-ai/trellis-ai/pkg/types"
)

// ErrOverBudget marks an assembly whose fixed template text alone does
// not fit the prompt window. Chunks and history shrink to fit, the
// template never does.
var ErrOverBudget = errors.New("prompt window exceeded")

// PromptBudget bounds the assembled prompt. The packable window is
// MaxTokens minus the share reserved for the model response.
type PromptBudget struct {
	MaxTokens           int `toml:"max_tokens"`
	ReservedForResponse int `toml:"reserved_for_response"`
}

func (b PromptBudget) Window() int {
	return b.MaxTokens - b.ReservedForResponse
}

// Assembler packs retrieval results and session history into a persona
// template under a token budget. It does no I/O; the outcome depends
// only on the inputs and the counter.
type Assembler struct {
	counter TokenCounter
}

func NewAssembler(counter TokenCounter) *Assembler {
	return &Assembler{counter: counter}
}

// Assemble renders the template with as much retrieval context and
// history as the window allows. Chunks go in by descending score and
// stop at the first one that does not fit. History keeps the most
// recent suffix, rendered chronologically. The query text always comes
// from retrieval.Query.
func (a *Assembler) Assemble(tpl *PromptTemplate, retrieval types.RetrievalResult, history []*types.ChatMessage, budget PromptBudget) (string, error) {
	if err := tpl.Validate(); err != nil {
		return "", err
	}

	window := budget.Window()
	if window <= 0 {
		return "", fmt.Errorf("%w: window is %d tokens", ErrOverBudget, window)
	}

	render := func(passages, histories string) string {
		if passages == "" {
			passages = "null"
		}
		if histories == "" {
			histories = "null"
		}
		tpl.SetVar(PROMPT_VAR_RELEVANT_PASSAGE, passages)
		tpl.SetVar(PROMPT_VAR_HISTORIES, histories)
		tpl.SetVar(PROMPT_VAR_QUERY, retrieval.Query)
		return tpl.Build()
	}

	// Template and query are fixed cost. When they alone blow the
	// window the budget is misconfigured; content is never cut to
	// compensate for that.
	fixed := render("", "")
	if got := a.counter.Count(fixed); got > window {
		return "", fmt.Errorf("%w: template needs %d tokens, window is %d", ErrOverBudget, got, window)
	}

	var packed int
	for packed < len(retrieval.Chunks) {
		trial := render(passageText(retrieval.Chunks[:packed+1]), "")
		if a.counter.Count(trial) > window {
			break
		}
		packed++
	}
	passages := passageText(retrieval.Chunks[:packed])

	start := len(history)
	for start > 0 {
		trial := render(passages, historyText(history[start-1:]))
		if a.counter.Count(trial) > window {
			break
		}
		start--
	}

	prompt := render(passages, historyText(history[start:]))
	if got := a.counter.Count(prompt); got > window {
		return "", fmt.Errorf("%w: assembled prompt needs %d tokens, window is %d", ErrOverBudget, got, window)
	}
	return prompt, nil
}

// passageText renders chunks the way the model sees them. Scores stay
// internal.
func passageText(chunks []types.QueryResult) string {
	s := strings.Builder{}
	for i, v := range chunks {
		if v.Content == "" {
			continue
		}
		if i != 0 {
			s.WriteString("------\n")
		}
		s.WriteString("Source: ")
		s.WriteString(v.Source)
		s.WriteString("\n")
		s.WriteString("Content: ")
		s.WriteString(v.Content)
		s.WriteString("\n")
	}
	return s.String()
}

func historyText(history []*types.ChatMessage) string {
	s := strings.Builder{}
	for _, v := range history {
		s.WriteString(v.Role.String())
		s.WriteString(": ")
		s.WriteString(v.Message)
		s.WriteString("\n")
	}
	return s.String()
}
