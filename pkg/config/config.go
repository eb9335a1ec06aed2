package config

import (
	"os"
	"strconv"

	"github.com/arthur-debert/stowup/pkg/errors"
)

// Variants
const (
	VariantBasic    = "basic"
	VariantExtended = "extended"
)

// Link modes
const (
	LinkModeStow   = "stow"
	LinkModeNative = "native"
)

// Probe kinds decide how an auxiliary package's presence is checked
const (
	// ProbeCommand looks the package name up on PATH
	ProbeCommand = "command"
	// ProbePackage asks the package manager (commands.query)
	ProbePackage = "package"
)

// Config is the complete, read-only provisioning configuration.
// It is built once by Load and handed to the provisioner at construction.
type Config struct {
	Variant  string       `koanf:"variant" toml:"variant" yaml:"variant"`
	Home     string       `koanf:"home" toml:"home" yaml:"home"`
	Repo     Repo         `koanf:"repo" toml:"repo" yaml:"repo"`
	Commands Commands     `koanf:"commands" toml:"commands" yaml:"commands"`
	Features Features     `koanf:"features" toml:"features" yaml:"features"`
	Backup   Backup       `koanf:"backup" toml:"backup" yaml:"backup"`
	Link     Link         `koanf:"link" toml:"link" yaml:"link"`
	SudoRule SudoRule     `koanf:"sudo_rule" toml:"sudo_rule" yaml:"sudo_rule"`
	Services Services     `koanf:"services" toml:"services" yaml:"services"`
	Aux      []AuxPackage `koanf:"aux" toml:"aux" yaml:"aux"`
}

// Repo holds the package-directory filter
type Repo struct {
	Skip          []string `koanf:"skip" toml:"skip" yaml:"skip"`
	AllowedHidden []string `koanf:"allowed_hidden" toml:"allowed_hidden" yaml:"allowed_hidden"`
}

// Commands names the external programs stowup drives
type Commands struct {
	Sudo        string   `koanf:"sudo" toml:"sudo" yaml:"sudo"`
	Stow        string   `koanf:"stow" toml:"stow" yaml:"stow"`
	Install     []string `koanf:"install" toml:"install" yaml:"install"`
	Query       []string `koanf:"query" toml:"query" yaml:"query"`
	InstallFile string   `koanf:"install_file" toml:"install_file" yaml:"install_file"`
	Systemctl   string   `koanf:"systemctl" toml:"systemctl" yaml:"systemctl"`
}

// Features switches the extended provisioning steps on or off
type Features struct {
	SystemPackages  bool `koanf:"system_packages" toml:"system_packages" yaml:"system_packages"`
	SudoRule        bool `koanf:"sudo_rule" toml:"sudo_rule" yaml:"sudo_rule"`
	DisableServices bool `koanf:"disable_services" toml:"disable_services" yaml:"disable_services"`
}

// Backup lists the home-relative paths moved aside before linking
type Backup struct {
	Files           []string `koanf:"files" toml:"files" yaml:"files"`
	EnsureDirs      []string `koanf:"ensure_dirs" toml:"ensure_dirs" yaml:"ensure_dirs"`
	Globs           []string `koanf:"globs" toml:"globs" yaml:"globs"`
	TimestampFormat string   `koanf:"timestamp_format" toml:"timestamp_format" yaml:"timestamp_format"`
	SkipManaged     bool     `koanf:"skip_managed" toml:"skip_managed" yaml:"skip_managed"`
}

// Link configures how package directories become symlink farms
type Link struct {
	Mode           string   `koanf:"mode" toml:"mode" yaml:"mode"`
	SystemPackages []string `koanf:"system_packages" toml:"system_packages" yaml:"system_packages"`
	SystemTarget   string   `koanf:"system_target" toml:"system_target" yaml:"system_target"`
}

// SudoRule is a sudoers drop-in installed verbatim
type SudoRule struct {
	Name    string `koanf:"name" toml:"name" yaml:"name"`
	Dir     string `koanf:"dir" toml:"dir" yaml:"dir"`
	Mode    string `koanf:"mode" toml:"mode" yaml:"mode"`
	Content string `koanf:"content" toml:"content" yaml:"content"`
}

// FileMode parses Mode as an octal permission string
func (s SudoRule) FileMode() (os.FileMode, error) {
	v, err := strconv.ParseUint(s.Mode, 8, 32)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrConfigValid, "sudo_rule.mode %q is not an octal mode", s.Mode)
	}
	if v > 0o777 {
		return 0, errors.Newf(errors.ErrConfigValid, "sudo_rule.mode %q is out of range", s.Mode)
	}
	return os.FileMode(v), nil
}

// Services lists systemd units handled by the provisioner
type Services struct {
	Disable []string `koanf:"disable" toml:"disable" yaml:"disable"`
}

// AuxPackage is an optional system package installed when missing
type AuxPackage struct {
	Name    string `koanf:"name" toml:"name" yaml:"name"`
	Probe   string `koanf:"probe" toml:"probe" yaml:"probe"`
	Enabled bool   `koanf:"enabled" toml:"enabled" yaml:"enabled"`
}

// UsesStow reports whether any step shells out to the stow binary
func (c *Config) UsesStow() bool {
	return c.Link.Mode == LinkModeStow
}

// Validate checks the decoded configuration for values the provisioner
// cannot act on.
func (c *Config) Validate() error {
	switch c.Variant {
	case VariantBasic, VariantExtended:
	default:
		return errors.Newf(errors.ErrConfigValid, "unknown variant %q", c.Variant).
			WithDetail("key", "variant")
	}

	switch c.Link.Mode {
	case LinkModeStow:
		if c.Commands.Stow == "" {
			return errors.New(errors.ErrConfigValid, "commands.stow must be set when link.mode is stow")
		}
	case LinkModeNative:
	default:
		return errors.Newf(errors.ErrConfigValid, "unknown link mode %q", c.Link.Mode).
			WithDetail("key", "link.mode")
	}

	if c.Backup.TimestampFormat == "" {
		return errors.New(errors.ErrConfigValid, "backup.timestamp_format must not be empty")
	}

	for i, aux := range c.Aux {
		if aux.Name == "" {
			return errors.Newf(errors.ErrConfigValid, "aux[%d] has no name", i)
		}
		switch aux.Probe {
		case ProbeCommand:
		case ProbePackage:
			if len(c.Commands.Query) == 0 {
				return errors.Newf(errors.ErrConfigValid, "aux %q probes the package manager but commands.query is empty", aux.Name)
			}
		default:
			return errors.Newf(errors.ErrConfigValid, "aux %q has unknown probe %q", aux.Name, aux.Probe)
		}
	}

	if len(c.Commands.Install) == 0 {
		return errors.New(errors.ErrConfigValid, "commands.install must not be empty")
	}

	if c.Features.SudoRule {
		if c.SudoRule.Name == "" || c.SudoRule.Dir == "" {
			return errors.New(errors.ErrConfigValid, "sudo_rule.name and sudo_rule.dir are required")
		}
		if _, err := c.SudoRule.FileMode(); err != nil {
			return err
		}
	}

	if c.Features.SystemPackages && c.Link.SystemTarget == "" {
		return errors.New(errors.ErrConfigValid, "link.system_target must be set when system packages are enabled")
	}

	return nil
}
