package llm

import (
	"context"
	"time"

	"github.com/abhisek/lessonkit/internal/logger"
	"github.com/abhisek/lessonkit/internal/store"
)

// Journal records LLM calls. store.EventRepo satisfies it.
type Journal interface {
	AppendLLMRequest(ctx context.Context, data store.LLMRequestEventData) error
}

type journaled struct {
	inner   Provider
	journal Journal
	log     *logger.Logger
}

// WithJournal records every attempt, successful or not, in journal.
func WithJournal(p Provider, journal Journal, log *logger.Logger) Provider {
	if log == nil {
		log = logger.Nop()
	}
	return &journaled{inner: p, journal: journal, log: log}
}

func (j *journaled) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := j.inner.Generate(ctx, req)

	data := store.LLMRequestEventData{
		Provider:  j.inner.Name(),
		Model:     j.inner.ModelID(),
		Purpose:   PurposeFrom(ctx),
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
	}
	if resp != nil {
		data.Model = resp.Model
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
	}
	if err != nil {
		data.ErrorMessage = err.Error()
	}

	if jerr := j.journal.AppendLLMRequest(context.WithoutCancel(ctx), data); jerr != nil {
		j.log.Warn("journal LLM request failed", "error", jerr)
	}
	return resp, err
}

func (j *journaled) Name() string    { return j.inner.Name() }
func (j *journaled) ModelID() string { return j.inner.ModelID() }
