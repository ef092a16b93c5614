package cli

import (
	"context"
	"fmt"
	"slices"
	"time"

	"leaderboard-sync/internal/config"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose     bool
	Format      string // "json" | "text"
	RegistryURL string
	APIKey      string
	Timeout     time.Duration

	loader Loader
}

var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the leaderboardctl root command. The loader is
// only invoked by commands that talk to the services.
func NewRootCommand(loader Loader) *cobra.Command {
	opts := &RootOptions{loader: loader}

	cmd := &cobra.Command{
		Use:   "leaderboardctl",
		Short: "Leaderboard sync and daily challenge client",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log diagnostics to stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.RegistryURL, "registry-url", "", "registry base URL (overrides REGISTRY_URL)")
	cmd.PersistentFlags().StringVar(&opts.APIKey, "api-key", "", "registry API key (overrides REGISTRY_API_KEY)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 15*time.Second, "overall command timeout")

	cmd.AddCommand(NewScoresCommand(opts))
	cmd.AddCommand(NewSubmitCommand(opts))
	cmd.AddCommand(NewDailyCommand(opts))
	cmd.AddCommand(NewBadgesCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))

	return cmd
}

// withServices starts the service graph for one command run and stops it
// once fn returns.
func (o *RootOptions) withServices(fn func(ctx context.Context, cmd *cobra.Command, args []string, svc *Services) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if o.loader == nil {
			return NewExitError(ExitCommandError, "no service loader configured")
		}
		svc, stop, err := o.loader(o.Verbose)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to start", err)
		}
		defer stop()

		ctx, cancel := context.WithTimeout(cmd.Context(), o.Timeout)
		defer cancel()
		return fn(ctx, cmd, args, svc)
	}
}

func (o *RootOptions) remote(cfg *config.Config) *config.Remote {
	return cfg.ResolveRemote(o.RegistryURL, o.APIKey)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
