package stowup

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/arthur-debert/stowup/internal/version"
	"github.com/arthur-debert/stowup/pkg/backup"
	"github.com/arthur-debert/stowup/pkg/cobrax/topics"
	"github.com/arthur-debert/stowup/pkg/config"
	"github.com/arthur-debert/stowup/pkg/errors"
	"github.com/arthur-debert/stowup/pkg/executor"
	"github.com/arthur-debert/stowup/pkg/filesystem"
	"github.com/arthur-debert/stowup/pkg/logging"
	"github.com/arthur-debert/stowup/pkg/output"
	"github.com/arthur-debert/stowup/pkg/paths"
	"github.com/arthur-debert/stowup/pkg/plan"
	"github.com/arthur-debert/stowup/pkg/provision"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

//go:embed topics
var topicFiles embed.FS

// globalOptions holds the persistent flags
type globalOptions struct {
	verbosity  int
	dryRun     bool
	configFile string
	root       string
	variant    string
}

// runtime is everything a command needs, resolved from flags and config
type runtime struct {
	cfg    *config.Config
	paths  *paths.Paths
	out    *output.Printer
	runner *executor.Executor
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	// Initialize custom template formatting functions
	initTemplateFormatting()

	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "stowup",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		Args:    cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(opts.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load(cmd, opts.dryRun)
			if err != nil {
				return err
			}
			if err := rt.checkProvisionRoot(); err != nil {
				return err
			}
			p, err := rt.provisioner()
			if err != nil {
				return err
			}

			log.Info().
				Str("root", rt.paths.Root()).
				Str("variant", rt.cfg.Variant).
				Bool("dry_run", opts.dryRun).
				Msg("Provisioning")

			result, err := p.Run(cmd.Context())
			if err != nil {
				return err
			}
			log.Info().
				Int("backups", len(result.Backups)).
				Strs("installed", result.Installed).
				Strs("linked", result.Linked).
				Msg("Provisioning finished")

			if opts.dryRun {
				rt.out.Successf(MsgDryRunDone)
			} else {
				rt.out.Successf(MsgDone)
			}
			return nil
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&opts.verbosity, "verbose", "v", MsgFlagVerbose)
	flags.BoolVar(&opts.dryRun, "dry-run", false, MsgFlagDryRun)
	flags.StringVar(&opts.configFile, "config", "", MsgFlagConfig)
	flags.StringVar(&opts.root, "root", "", MsgFlagRoot)
	flags.StringVar(&opts.variant, "variant", "", MsgFlagVariant)
	_ = rootCmd.RegisterFlagCompletionFunc("variant", cobra.FixedCompletions(
		[]string{config.VariantBasic, config.VariantExtended}, cobra.ShellCompDirectiveNoFileComp))

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return errors.Wrap(err, errors.ErrInvalidInput, MsgErrInvalidFlag)
	})

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "COMMANDS:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "misc",
		Title: "MISC:",
	})

	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(newPlanCmd(opts))
	rootCmd.AddCommand(newBackupsCmd(opts))
	rootCmd.AddCommand(newGenConfigCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newTopicsCmd())
	rootCmd.AddCommand(newCompletionCmd())

	// Topics are embedded, so failing to read them is a build problem
	helpFiles, err := fs.Sub(topicFiles, "topics")
	if err == nil {
		_, err = topics.InitializeWithOptions(rootCmd, helpFiles, topics.Options{
			Renderer: topics.NewGlamourRenderer(),
		})
	}
	if err != nil {
		log.Warn().Err(err).Msg("Help topics unavailable")
	}
	rootCmd.SetHelpCommandGroupID("misc")

	return rootCmd
}

// load resolves paths and configuration and builds the runtime.
// dryRun is separate from the flag so that plan can force it.
func (o *globalOptions) load(cmd *cobra.Command, dryRun bool) (*runtime, error) {
	p, err := paths.New(paths.Options{Root: o.root})
	if err != nil {
		return nil, errors.Wrap(err, errors.GetErrorCode(err), MsgErrInitPaths)
	}
	if p.UsedFallback() {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), MsgFallbackWarning+"\n", p.Root())
	}

	cfg, err := config.Load(config.LoadOptions{
		DotfilesRoot: p.Root(),
		ConfigFile:   o.configFile,
		Variant:      o.variant,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Home != "" {
		p, err = paths.New(paths.Options{Root: p.Root(), Home: cfg.Home})
		if err != nil {
			return nil, errors.Wrap(err, errors.GetErrorCode(err), MsgErrInitPaths)
		}
	}

	log.Debug().
		Str("root", p.Root()).
		Str("home", p.Home()).
		Str("variant", cfg.Variant).
		Str("link_mode", cfg.Link.Mode).
		Msg("Configuration resolved")

	out := output.New(cmd.OutOrStdout())
	return &runtime{
		cfg:   cfg,
		paths: p,
		out:   out,
		runner: executor.New(out, executor.Options{
			DryRun: dryRun,
			Stdin:  cmd.InOrStdin(),
			Stderr: cmd.ErrOrStderr(),
		}),
	}, nil
}

// checkProvisionRoot refuses roots that would link home into itself.
// plan and backups only read, so they keep the fallback warning.
func (rt *runtime) checkProvisionRoot() error {
	if rt.paths.UsedFallback() {
		return errors.New(errors.ErrInvalidInput, MsgErrNoRoot).
			WithDetail(errors.DetailPath, rt.paths.Root())
	}
	if rt.paths.ContainsHome() {
		return errors.Newf(errors.ErrInvalidInput, MsgErrRootHome, rt.paths.Root(), rt.paths.Home()).
			WithDetail(errors.DetailPath, rt.paths.Root())
	}
	return nil
}

func (rt *runtime) provisioner() (*provision.Provisioner, error) {
	return provision.New(provision.Options{
		Config: rt.cfg,
		Paths:  rt.paths,
		FS:     filesystem.NewOS(),
		Runner: rt.runner,
		Out:    rt.out,
	})
}

func newPlanCmd(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:     "plan",
		Short:   MsgPlanShort,
		Long:    MsgPlanLong,
		Example: MsgPlanExample,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load(cmd, true)
			if err != nil {
				return err
			}
			p, err := rt.provisioner()
			if err != nil {
				return err
			}

			doc, err := plan.Build(cmd.Context(), p)
			if err != nil {
				return err
			}
			return plan.Render(cmd.OutOrStdout(), doc, plan.RenderOptions{
				Format: format,
				Styled: output.IsTerminal(cmd.OutOrStdout()),
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", plan.FormatMarkdown, MsgFlagFormat)
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(plan.Formats, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func newBackupsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "backups",
		Short:   MsgBackupsShort,
		Long:    MsgBackupsLong,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load(cmd, true)
			if err != nil {
				return err
			}

			records, err := backup.List(filesystem.NewOS(), rt.paths.Home(), rt.cfg.Backup)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				rt.out.Noticef(MsgNoBackups)
				return nil
			}

			w := cmd.OutOrStdout()
			for _, r := range records {
				_, _ = fmt.Fprintf(w, MsgBackupItem, rt.out.Path(r.Original), r.Backup)
				if !r.Timestamp.IsZero() {
					_, _ = fmt.Fprintf(w, MsgBackupStamp, r.Timestamp.Format("2006-01-02 15:04:05"))
				}
				_, _ = fmt.Fprintln(w)
			}
			return nil
		},
	}
}

func newGenConfigCmd(opts *globalOptions) *cobra.Command {
	var effective bool

	cmd := &cobra.Command{
		Use:     "genconfig",
		Short:   MsgGenConfigShort,
		Long:    MsgGenConfigLong,
		Example: MsgGenConfigExample,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !effective {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GenerateConfigContent())
				return err
			}

			rt, err := opts.load(cmd, true)
			if err != nil {
				return err
			}
			content, err := config.Encode(rt.cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(content)
			return err
		},
	}

	cmd.Flags().BoolVar(&effective, "effective", false, MsgFlagEffective)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), MsgVersionFormat, version.Version, version.Commit, version.Date)
		},
	}
}

func newTopicsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "topics",
		Short:   MsgTopicsShort,
		Long:    MsgTopicsLong,
		GroupID: "misc",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Find the help command and execute it with "topics" argument
			if helpCmd, _, err := cmd.Root().Find([]string{"help"}); err == nil && helpCmd.Run != nil {
				helpCmd.Run(helpCmd, []string{"topics"})
				return nil
			}
			return errors.New(errors.ErrInternal, "help command not found")
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		GroupID:               "misc",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
			return nil
		},
	}
}
