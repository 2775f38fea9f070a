// Package app wires the application together: configuration, stores,
// the Genkit runtime and the agent pipeline. Setup builds everything in
// dependency order and App.Close tears it down in reverse.
package app

import (
	"database/sql"
	"errors"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/marketlens/marketlens/internal/agent"
	"github.com/marketlens/marketlens/internal/config"
	"github.com/marketlens/marketlens/internal/knowledge"
	"github.com/marketlens/marketlens/internal/log"
	"github.com/marketlens/marketlens/internal/session"
	"github.com/marketlens/marketlens/internal/survey"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder

	// ContextDB backs the session store; exposed for readiness checks.
	ContextDB *sql.DB
	Sessions  *session.Store
	Survey    *survey.Store
	Knowledge *knowledge.Store

	Agents *agent.Agents
	Flow   *agent.Flow

	otelCleanup func()
}

// Close gracefully shuts down all resources, in reverse setup order.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down application")
	}

	var errs []error
	if a.Survey != nil {
		if err := a.Survey.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.ContextDB != nil {
		if err := a.ContextDB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
	}

	return errors.Join(errs...)
}
