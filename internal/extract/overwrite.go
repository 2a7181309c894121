package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"avsser/internal/config"
	"avsser/internal/logging"
)

// Prompter asks the operator a yes/no question.
type Prompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// OverwriteGate caches one overwrite decision per group key.
type OverwriteGate struct {
	policy   string
	prompter Prompter
	logger   *slog.Logger

	mu        sync.Mutex
	decisions map[string]bool
	promptMu  sync.Mutex
}

// NewOverwriteGate builds a gate for policy (config.OverwriteAsk,
// OverwriteAlways or OverwriteNever). A nil prompter under the ask policy
// keeps existing files.
func NewOverwriteGate(policy string, prompter Prompter, logger *slog.Logger) *OverwriteGate {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &OverwriteGate{
		policy:    policy,
		prompter:  prompter,
		logger:    logger,
		decisions: make(map[string]bool),
	}
}

// Allow reports whether existing files for groupKey may be replaced. The
// prompter is consulted at most once per key.
func (g *OverwriteGate) Allow(ctx context.Context, groupKey string, existing []string) (bool, error) {
	switch g.policy {
	case config.OverwriteAlways:
		return true, nil
	case config.OverwriteNever:
		return false, nil
	}

	g.mu.Lock()
	if decision, ok := g.decisions[groupKey]; ok {
		g.mu.Unlock()
		return decision, nil
	}
	g.mu.Unlock()

	// Prompts share the terminal; the second check covers a decision made
	// while waiting.
	g.promptMu.Lock()
	defer g.promptMu.Unlock()
	g.mu.Lock()
	if decision, ok := g.decisions[groupKey]; ok {
		g.mu.Unlock()
		return decision, nil
	}
	g.mu.Unlock()

	decision := false
	if g.prompter == nil {
		logging.WarnWithContext(g.logger, "keeping existing sidecars; overwrite confirmation needs a terminal", "overwrite_not_confirmed",
			logging.String(logging.FieldGroup, groupKey),
			logging.Int("existing", len(existing)),
			logging.String(logging.FieldErrorHint, "pass --overwrite always or never for unattended runs"),
		)
	} else {
		var err error
		decision, err = g.prompter.Confirm(ctx, question(groupKey, existing))
		if err != nil {
			return false, fmt.Errorf("overwrite prompt: %w", err)
		}
	}

	g.mu.Lock()
	g.decisions[groupKey] = decision
	g.mu.Unlock()
	return decision, nil
}

func question(groupKey string, existing []string) string {
	names := make([]string, 0, len(existing))
	for i, path := range existing {
		if i == 3 {
			names = append(names, fmt.Sprintf("and %d more", len(existing)-3))
			break
		}
		names = append(names, filepath.Base(path))
	}
	return fmt.Sprintf("Overwrite existing files for %s (%s)?", filepath.Base(groupKey), strings.Join(names, ", "))
}
