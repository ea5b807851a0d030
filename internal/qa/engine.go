package qa

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"chatqa/internal/domain"
)

// ErrInternal is returned when answering fails for a reason other than
// missing data. Callers should treat it as a server-side failure.
var ErrInternal = errors.New("qa: internal failure")

// Engine answers questions against a message set. It keeps no state between
// calls and is safe for concurrent use.
type Engine struct {
	routes   []route
	fallback func(q *query) string
	logger   *slog.Logger
}

// NewEngine creates an engine. A nil logger discards log output.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		routes:   defaultRoutes(),
		fallback: answerGeneric,
		logger:   logger,
	}
}

// Classify returns the intent a question expresses.
func (e *Engine) Classify(question string) domain.Intent {
	lower := strings.ToLower(Normalize(question))
	for _, r := range e.routes {
		if r.matches(lower) {
			return r.intent
		}
	}
	return domain.IntentGeneric
}

// Ask answers question from records and reports the intent and participant
// it settled on.
func (e *Engine) Ask(question string, records []domain.Record) (ans domain.Answer, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("answering question failed", "question", question, "panic", r)
			ans = domain.Answer{Question: question}
			err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	q := &query{
		lower: strings.ToLower(Normalize(question)),
		tr:    buildTranscript(records),
	}
	q.name = ResolveName(question, CandidateNames(records))

	ans = domain.Answer{Question: question, Intent: domain.IntentGeneric, Name: q.name}
	handle := e.fallback
	for _, r := range e.routes {
		if r.matches(q.lower) {
			ans.Intent = r.intent
			handle = r.handle
			break
		}
	}
	ans.Text = handle(q)

	e.logger.Debug("question answered",
		"intent", ans.Intent, "participant", q.name,
		"records", len(records), "participants", len(q.tr.Participants()),
		"unattributed_bytes", len(q.tr.Unattributed()))
	return ans, nil
}

// Answer is Ask without the metadata.
func (e *Engine) Answer(question string, records []domain.Record) (string, error) {
	ans, err := e.Ask(question, records)
	if err != nil {
		return "", err
	}
	return ans.Text, nil
}
