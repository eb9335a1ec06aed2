package stowup

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "Provision a machine from a dotfiles repository"
	MsgPlanShort       = "Show what a run would do"
	MsgBackupsShort    = "List backups made by previous runs"
	MsgGenConfigShort  = "Print a configuration file template"
	MsgVersionShort    = "Print version information"
	MsgTopicsShort     = "Display available documentation topics"
	MsgTopicsLong      = "Display a list of all available help topics that provide additional documentation beyond command help."
	MsgCompletionShort = "Generate shell completion script"

	// Status messages
	MsgDone          = "Provisioning finished"
	MsgDryRunDone    = "Dry run finished, nothing was changed"
	MsgNoBackups     = "No backups found."
	MsgBackupItem    = "  %s -> %s"
	MsgBackupStamp   = " (%s)"
	MsgVersionFormat = "stowup %s (commit %s, built %s)\n"

	// Error messages
	MsgErrInitPaths   = "failed to initialize paths"
	MsgErrInvalidFlag = "invalid flag"
	MsgErrNoRoot      = "no dotfiles repository found, set STOWUP_ROOT or pass --root"
	MsgErrRootHome    = "dotfiles root %s contains the home directory %s"

	// Flag descriptions
	MsgFlagVerbose   = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun    = "Print commands and changes without performing them"
	MsgFlagConfig    = "Read configuration from this file only"
	MsgFlagRoot      = "Dotfiles repository root (default: STOWUP_ROOT, git root, or cwd)"
	MsgFlagVariant   = "Provisioning variant: basic or extended"
	MsgFlagFormat    = "Output format: markdown, yaml or json"
	MsgFlagEffective = "Print the resolved configuration instead of the template"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/plan-long.txt
	msgPlanLongRaw string
	MsgPlanLong    = strings.TrimSpace(msgPlanLongRaw)

	//go:embed msgs/plan-example.txt
	msgPlanExampleRaw string
	MsgPlanExample    = strings.TrimRight(msgPlanExampleRaw, "\n")

	//go:embed msgs/backups-long.txt
	msgBackupsLongRaw string
	MsgBackupsLong    = strings.TrimSpace(msgBackupsLongRaw)

	//go:embed msgs/genconfig-long.txt
	msgGenConfigLongRaw string
	MsgGenConfigLong    = strings.TrimSpace(msgGenConfigLongRaw)

	//go:embed msgs/genconfig-example.txt
	msgGenConfigExampleRaw string
	MsgGenConfigExample    = strings.TrimRight(msgGenConfigExampleRaw, "\n")

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)

	//go:embed msgs/fallback-warning.txt
	msgFallbackWarningRaw string
	MsgFallbackWarning    = strings.TrimSpace(msgFallbackWarningRaw)

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)
)
