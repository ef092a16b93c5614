package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"leaderboard-sync/internal/domain"
	"leaderboard-sync/internal/service"

	"github.com/spf13/cobra"
)

func NewScoresCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "scores",
		Short: "Show the classic leaderboard",
		Long: `Show the classic top scores from the registry.

Falls back to the local cache when no registry is configured or the
registry cannot be reached.`,
		Args: cobra.NoArgs,
		RunE: rootOpts.withServices(func(ctx context.Context, cmd *cobra.Command, _ []string, svc *Services) error {
			scores, err := svc.Scores.FetchScores(ctx, rootOpts.remote(svc.Config), limit)
			if err != nil {
				return commandError("fetch scores", err)
			}
			return rootOpts.formatter(cmd).Print(scores, func(w io.Writer) error {
				return writeScores(w, scores)
			})
		}),
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of rows (1-100)")
	return cmd
}

type entryFlags struct {
	user   string
	score  int64
	level  int64
	date   string
	skills []string
}

func (f *entryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.user, "user", "u", "", "player name")
	cmd.Flags().Int64Var(&f.score, "score", 0, "final score")
	cmd.Flags().Int64Var(&f.level, "level", 0, "final level")
	cmd.Flags().StringVar(&f.date, "date", "", "display date")
	cmd.Flags().StringArrayVar(&f.skills, "skill", nil, "skill used, as name or name=hotkey (repeatable)")
}

func (f *entryFlags) entry() domain.ScoreEntry {
	entry := domain.ScoreEntry{
		User:  f.user,
		Score: f.score,
		Level: f.level,
		Date:  f.date,
	}
	for _, s := range f.skills {
		name, hotkey, ok := strings.Cut(s, "=")
		usage := domain.SkillUsage{Name: name}
		if ok {
			usage.Hotkey = &hotkey
		}
		entry.SkillUsage = append(entry.SkillUsage, usage)
	}
	return entry
}

func NewSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &entryFlags{}

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Record a classic score locally and sync it to the registry",
		Args:  cobra.NoArgs,
		RunE: rootOpts.withServices(func(ctx context.Context, cmd *cobra.Command, _ []string, svc *Services) error {
			result, err := svc.Scores.SubmitScore(ctx, rootOpts.remote(svc.Config), flags.entry())
			if err != nil {
				return commandError("submit score", err)
			}

			out := submitOutput{Entry: result.Entry, Outcome: result.Outcome()}
			if result.LocalErr != nil {
				out.LocalError = result.LocalErr.Error()
			}
			if result.RemoteErr != nil {
				out.RemoteError = result.RemoteErr.Error()
			}

			err = rootOpts.formatter(cmd).Print(out, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s: %d (level %d) %s\n", out.Entry.User, out.Entry.Score, out.Entry.Level, out.Outcome)
				return err
			})
			if err != nil {
				return err
			}
			if result.LocalErr != nil && (result.RemoteErr != nil || result.RemoteSkipped) {
				return WrapExitError(ExitFailure, "score was not stored", result.LocalErr)
			}
			return nil
		}),
	}

	flags.register(cmd)
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

type submitOutput struct {
	Entry       domain.ScoreEntry   `json:"entry"`
	Outcome     service.SyncOutcome `json:"outcome"`
	LocalError  string              `json:"localError,omitempty"`
	RemoteError string              `json:"remoteError,omitempty"`
}
