package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/stowup/pkg/errors"
	"github.com/arthur-debert/stowup/pkg/logging"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for environment overrides, e.g. STOWUP_LINK_MODE
const EnvPrefix = "STOWUP_"

// configFileNames are looked up, in order, in the dotfiles root
var configFileNames = []string{"stowup.toml", ".stowup.toml", "stowup.yaml", "stowup.yml"}

// sections lets env keys with underscores map to nested keys:
// STOWUP_SUDO_RULE_NAME -> sudo_rule.name, STOWUP_BACKUP_SKIP_MANAGED -> backup.skip_managed
var sections = []string{"sudo_rule", "repo", "commands", "features", "backup", "link", "services"}

// LoadOptions carries the inputs that do not come from config files
type LoadOptions struct {
	// DotfilesRoot is searched for a stowup.toml / stowup.yaml
	DotfilesRoot string
	// ConfigFile, when set, is the only user file read and must exist
	ConfigFile string
	// Variant overrides the variant key when non-empty
	Variant string

	// embeddedOnly skips the user file and environment layers
	embeddedOnly bool
}

// Load builds the configuration from every layer and validates it
func Load(opts LoadOptions) (*Config, error) {
	logger := logging.GetLogger("config")

	userFile, err := findUserConfig(opts)
	if err != nil {
		return nil, err
	}

	// The variant can come from any layer, so resolve it before deciding
	// whether the extended overlay participates.
	probe, err := buildKoanf(userFile, opts, false)
	if err != nil {
		return nil, err
	}
	variant := probe.String("variant")

	k := probe
	if variant == VariantExtended {
		if k, err = buildKoanf(userFile, opts, true); err != nil {
			return nil, err
		}
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to unmarshal configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Debug().
		Str("variant", cfg.Variant).
		Str("userFile", userFile).
		Str("linkMode", cfg.Link.Mode).
		Msg("Configuration loaded")

	return &cfg, nil
}

// Default returns the embedded configuration for the given variant
func Default(variant string) (*Config, error) {
	return Load(LoadOptions{Variant: variant, embeddedOnly: true})
}

func buildKoanf(userFile string, opts LoadOptions, withOverlay bool) (*koanf.Koanf, error) {
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load defaults")
	}

	// 2. Variant overlay
	if withOverlay {
		if err := k.Load(&rawBytesProvider{bytes: extendedConfig}, toml.Parser()); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load extended overlay")
		}
	}

	// 3. User file
	if userFile != "" {
		var parser koanf.Parser = toml.Parser()
		if ext := strings.ToLower(filepath.Ext(userFile)); ext == ".yaml" || ext == ".yml" {
			parser = yaml.Parser()
		}
		if err := k.Load(file.Provider(userFile), parser); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to load config from %s", userFile).
				WithDetail(errors.DetailPath, userFile)
		}
	}

	// 4. Environment
	if !opts.embeddedOnly {
		if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load env vars")
		}
	}

	// 5. Command-line overrides
	overrides := map[string]interface{}{}
	if opts.Variant != "" {
		overrides["variant"] = opts.Variant
	}
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load overrides")
		}
	}

	return k, nil
}

// envKey maps STOWUP_LINK_MODE to link.mode
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, section := range sections {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + strings.TrimPrefix(key, section+"_")
		}
	}
	return key
}

// findUserConfig picks the user configuration file, if any
func findUserConfig(opts LoadOptions) (string, error) {
	if opts.embeddedOnly {
		return "", nil
	}

	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err != nil {
			return "", errors.Wrapf(err, errors.ErrConfigLoad, "config file %s not readable", opts.ConfigFile).
				WithDetail(errors.DetailPath, opts.ConfigFile)
		}
		return opts.ConfigFile, nil
	}

	if opts.DotfilesRoot != "" {
		for _, name := range configFileNames {
			path := filepath.Join(opts.DotfilesRoot, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
		}
	}

	if path, err := xdg.SearchConfigFile(filepath.Join("stowup", "config.toml")); err == nil {
		return path, nil
	}

	return "", nil
}
