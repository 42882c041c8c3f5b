package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rrens/clipboard-ai/internal/daemon"
	"github.com/Rrens/clipboard-ai/internal/domain"
	"github.com/Rrens/clipboard-ai/internal/ipc"
	"github.com/Rrens/clipboard-ai/internal/prompt"
	"github.com/fatih/color"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	good    = color.New(color.FgGreen)
	faint   = color.New(color.FgHiBlack)
	warn    = color.New(color.FgYellow)
	bad     = color.New(color.FgRed)
)

func (a *app) fetchStatus(ctx context.Context) (*domain.Status, error) {
	resp, err := a.client.Do(ctx, ipc.StatusRequest{})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, errors.New(resp.Message)
	}
	if resp.Data == nil {
		return nil, errors.New("status response carried no data")
	}
	return resp.Data, nil
}

// status prints the daemon's view of the conversation
func (a *app) status(ctx context.Context) error {
	if !a.client.Ping(ctx) {
		fmt.Fprintln(a.out, "No active daemon running")
		return nil
	}

	st, err := a.fetchStatus(ctx)
	if err != nil {
		return err
	}

	if !st.Active {
		fmt.Fprintln(a.out, st.Message)
	} else {
		heading.Fprintln(a.out, "Active conversation:")
		fmt.Fprintf(a.out, "  Prompt: %s\n", st.PromptName)
		fmt.Fprintf(a.out, "  Model: %s\n", st.Model)
		fmt.Fprintf(a.out, "  Started: %s\n", st.CreatedAt)
		fmt.Fprintf(a.out, "  Last activity: %s\n", st.LastActivity)
		fmt.Fprintf(a.out, "  Messages: %d\n", st.MessageCount)
		if st.TimeoutHours != nil {
			fmt.Fprintf(a.out, "  Timeout: %g hours\n", *st.TimeoutHours)
		}
	}
	fmt.Fprintf(a.out, "\nArchived conversations: %d\n", st.HistoryCount)
	return nil
}

// listPrompts prints every profile and flags the ones that would fail
func (a *app) listPrompts(ctx context.Context) error {
	store := prompt.NewStore(a.cfg.Paths.PromptsDir, a.cfg.DefaultModel).WithThinking(a.cfg.ThinkingEnabled)
	if err := store.EnsureDefault(); err != nil {
		return err
	}

	profiles, err := store.All()
	if err != nil {
		return err
	}
	names, err := store.Names()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(a.out, "No prompts configured")
		return nil
	}

	var models []string
	if provider, err := daemon.NewRouter(a.cfg).Select(a.cfg.LLM.Provider); err == nil {
		models = provider.AvailableModels()
	}

	heading.Fprintln(a.out, "Available prompts:")
	for _, name := range names {
		p, ok := profiles[name]
		if !ok {
			fmt.Fprintf(a.out, "\n  %s\n", name)
			bad.Fprintln(a.out, "    unreadable profile file")
			continue
		}

		marker := ""
		if name == a.cfg.DefaultPrompt {
			marker = " (default)"
		}
		fmt.Fprintf(a.out, "\n  %s%s\n", name, faint.Sprint(marker))
		fmt.Fprintf(a.out, "    Model: %s | Temp: %g | Thinking: %t\n", p.Model, p.Temperature, p.ThinkingEnabled)
		for _, problem := range prompt.Validate(p, models) {
			warn.Fprintf(a.out, "    ! %s\n", problem)
		}
	}
	fmt.Fprintln(a.out)

	if !a.client.Ping(ctx) {
		return nil
	}
	if st, err := a.fetchStatus(ctx); err == nil && st.Active {
		fmt.Fprintf(a.out, "Current conversation: %s\n", st.PromptName)
		fmt.Fprintf(a.out, "  Started: %s\n", st.CreatedAt)
		fmt.Fprintf(a.out, "  Messages: %d\n", st.MessageCount)
	}
	return nil
}
