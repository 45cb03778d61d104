package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/promptkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/promptkeeper/internal/client/config"
	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
	"github.com/dmitrijs2005/promptkeeper/internal/logging"
)

// runtime holds what PersistentPreRunE builds for the subcommands.
type runtime struct {
	cfgPath   string
	levelVar  *slog.LevelVar
	app       *App
	logCloser io.Closer
	lookupEnv func(string) (string, bool)
	logOut    io.Writer
}

func (rt *runtime) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(rt.cfgPath, rt.lookupEnv)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyFlags(cmd.Flags(), cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (rt *runtime) setup(cmd *cobra.Command) error {
	rt.cfgPath = config.ConfigPath(cmd.Flags(), rt.lookupEnv)
	cfg, err := rt.loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	rt.levelVar = new(slog.LevelVar)
	log, closer, err := logging.New(logging.Options{
		Level:    cfg.LogLevel,
		Format:   cfg.LogFormat,
		File:     cfg.LogFile,
		LevelVar: rt.levelVar,
	}, rt.logOut)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	rt.logCloser = closer

	ctx := cmd.Context()
	app, err := Build(ctx, cfg, log, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		_ = closer.Close()
		return err
	}
	app.Start(ctx)
	rt.app = app
	return nil
}

func (rt *runtime) teardown() error {
	var first error
	if rt.app != nil {
		first = rt.app.Close()
		rt.app = nil
	}
	if rt.logCloser != nil {
		if err := rt.logCloser.Close(); err != nil && first == nil {
			first = err
		}
		rt.logCloser = nil
	}
	return first
}

// run executes cmd and releases what setup opened, also when the command
// failed.
func (rt *runtime) run(ctx context.Context, cmd *cobra.Command) error {
	err := cmd.ExecuteContext(ctx)
	if terr := rt.teardown(); err == nil {
		err = terr
	}
	return err
}

// newRootCommand builds the promptkeeper command tree. Without a subcommand
// it starts the interactive shell.
func newRootCommand(lookupEnv func(string) (string, bool), logOut io.Writer) (*cobra.Command, *runtime) {
	rt := &runtime{lookupEnv: lookupEnv, logOut: logOut}

	root := &cobra.Command{
		Use:           "promptkeeper",
		Short:         "Local-first prompt library with optional cloud sync",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return rt.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt.app.REPL(cmd.Context())
			return nil
		},
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		&cobra.Command{
			Use:   "repl",
			Short: "Start the interactive shell",
			Args:  cobra.NoArgs,
			RunE:  root.RunE,
		},
		addCommand(rt),
		listCommand(rt),
		searchCommand(rt),
		&cobra.Command{
			Use:   "show <id>",
			Short: "Print one prompt",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return rt.app.Show(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a prompt",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return rt.app.Delete(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "sync",
			Short: "Run one sync pass now",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return rt.app.Sync(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show identity, storage and sync state",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return rt.app.Status(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "signup",
			Short: "Create an account",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return rt.app.SignUp(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "login",
			Short: "Sign in and move guest prompts to the account",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return rt.app.Login(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "logout",
			Short: "Sign out",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return rt.app.Logout(cmd.Context())
			},
		},
		daemonCommand(rt),
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				buildinfo.PrintBuildData(cmd.OutOrStdout())
			},
		},
	)
	return root, rt
}

func addCommand(rt *runtime) *cobra.Command {
	var title, body, tags string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a prompt (interactive without --title)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if title == "" {
				return rt.app.Add(cmd.Context())
			}
			return rt.app.AddPrompt(cmd.Context(), models.PromptInput{
				Title: title,
				Body:  body,
				Tags:  ParseTags(tags),
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "prompt title")
	cmd.Flags().StringVar(&body, "body", "", "prompt body")
	cmd.Flags().StringVar(&tags, "tags", "", "comma separated tags")
	return cmd
}

func listCommand(rt *runtime) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List prompts, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.app.List(cmd.Context(), all)
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include deleted prompts")
	return cmd
}

func searchCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find prompts by title, body or tag",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.app.Search(cmd.Context(), strings.Join(args, " "))
		},
	}
}

func daemonCommand(rt *runtime) *cobra.Command {
	var noWatch bool
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Sync in the background until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := DaemonOptions{LevelVar: rt.levelVar}
			if rt.cfgPath != "" && !noWatch {
				w, err := config.NewWatcher(rt.cfgPath, rt.app.cfg, func() (*config.Config, error) {
					return rt.loadConfig(cmd)
				}, rt.app.log)
				if err != nil {
					rt.app.log.Warn(cmd.Context(), "config hot reload disabled", "error", err)
				} else {
					opts.Watcher = w
				}
			}
			return rt.app.Daemon(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload the config file on change")
	return cmd
}

// Execute runs the command line in os.Args with ctx.
func Execute(ctx context.Context) error {
	cmd, rt := newRootCommand(os.LookupEnv, os.Stderr)
	return rt.run(ctx, cmd)
}
