package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/lessonkit/internal/api"
	"github.com/abhisek/lessonkit/internal/config"
	"github.com/abhisek/lessonkit/internal/llm"
	"github.com/abhisek/lessonkit/internal/logger"
	"github.com/abhisek/lessonkit/internal/observability"
	"github.com/abhisek/lessonkit/internal/session"
	"github.com/abhisek/lessonkit/internal/store"
)

// need selects what setup wires beyond config and logging.
type need int

const (
	needJournal need = 1 << iota // fail when journaling is disabled
	needSession                  // API client and learner session
	needTutor                    // LLM provider for the session's tutor
)

var errNoLLM = errors.New("no LLM provider configured: set llm.provider (or LESSONKIT_LLM_PROVIDER) or one of ANTHROPIC_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY, OPENROUTER_API_KEY")

// runtime is the wiring one command invocation runs on.
type runtime struct {
	cfg      config.Config
	log      *logger.Logger
	store    *store.Store // nil when journaling is disabled
	client   *api.Client
	session  *session.Session
	shutdown observability.Shutdown
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if v, _ := flags.GetString("db"); v != "" {
		cfg.Store.Path = v
	}
	if v, _ := flags.GetString("base-url"); v != "" {
		cfg.API.BaseURL = v
	}
	if v, _ := flags.GetString("token"); v != "" {
		cfg.API.Token = v
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	return cfg, nil
}

func setup(cmd *cobra.Command, n need) (*runtime, error) {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, log: log, shutdown: func(context.Context) error { return nil }}
	ok := false
	defer func() {
		if !ok {
			rt.Close()
		}
	}()

	rt.shutdown, err = observability.InitTracing(ctx, log, observability.TraceConfig{
		Enabled:     cfg.Trace.Enabled,
		ServiceName: "lessonkit",
		Version:     version,
		Endpoint:    cfg.Trace.Endpoint,
		Insecure:    cfg.Trace.Insecure,
		SampleRatio: cfg.Trace.SampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	if rt.store, err = openJournal(cfg.Store); err != nil {
		return nil, err
	}
	if n&needJournal != 0 && rt.store == nil {
		return nil, errors.New("the activity journal is disabled (store.disabled or LESSONKIT_NO_JOURNAL)")
	}

	if n&(needSession|needTutor) != 0 {
		if err := rt.openSession(ctx, n&needTutor != 0); err != nil {
			return nil, err
		}
	}

	ok = true
	return rt, nil
}

func openJournal(sc config.StoreConfig) (*store.Store, error) {
	if sc.Disabled {
		return nil, nil
	}
	path := sc.Path
	if path == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve journal path: %w", err)
		}
		path = p
	} else if err := store.EnsureDir(path); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return st, nil
}

func (rt *runtime) journal() store.EventRepo {
	if rt.store == nil {
		return nil
	}
	return rt.store.EventRepo()
}

func (rt *runtime) openSession(ctx context.Context, withTutor bool) error {
	if err := rt.cfg.Validate(); err != nil {
		return err
	}
	journal := rt.journal()

	var rec api.RequestRecorder
	if journal != nil {
		rec = journal
	}
	client, err := api.New(api.Options{
		BaseURL:  rt.cfg.API.BaseURL,
		Token:    rt.cfg.API.Token,
		Timeout:  rt.cfg.API.Timeout,
		Logger:   rt.log,
		Recorder: rec,
	})
	if err != nil {
		return err
	}
	rt.client = client

	deps := session.Deps{
		Client:            client,
		Journal:           journal,
		Logger:            rt.log,
		PassingPercentage: rt.cfg.Quiz.PassingPercentage,
	}
	if withTutor {
		lc, ok := llm.Resolve(rt.cfg.LLM.Provider, rt.cfg.LLM.Model, rt.cfg.LLM.APIKey)
		if !ok {
			return errNoLLM
		}
		var lj llm.Journal
		if journal != nil {
			lj = journal
		}
		if deps.LLM, err = llm.New(ctx, lc, lj, rt.log); err != nil {
			return err
		}
	}

	rt.session, err = session.Open(ctx, deps)
	return err
}

// Close ends the session, flushes traces and closes the journal.
func (rt *runtime) Close() {
	if rt.session != nil {
		if sum, err := rt.session.Summarize(context.Background()); err == nil && sum.Total > 0 {
			rt.log.Info("session activity", "session_id", sum.SessionID, "events", sum.Total)
		}
		rt.session.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.shutdown(ctx); err != nil {
		rt.log.Warn("flush traces", "error", err)
	}

	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			rt.log.Warn("close journal", "error", err)
		}
	}
	rt.log.Sync()
}
