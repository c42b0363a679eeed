package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/lessonkit/internal/logger"
)

// New builds the configured provider wrapped as
// caller → retry (with deadline) → journal → provider.
// journal and log may be nil.
func New(ctx context.Context, cfg Config, journal Journal, log *logger.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = newAnthropic(cfg)
	case ProviderOpenAI, ProviderOpenRouter:
		base, err = newOpenAI(cfg)
	case ProviderGemini:
		base, err = newGemini(ctx, cfg)
	case ProviderMock:
		base = NewMock()
	}
	if err != nil {
		return nil, fmt.Errorf("init %s provider: %w", cfg.Provider, err)
	}

	var p Provider = base
	if journal != nil {
		p = WithJournal(p, journal, log)
	}
	return WithRetry(p, cfg.Retry, cfg.Timeout, log), nil
}
