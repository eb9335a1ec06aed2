package backup

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/arthur-debert/stowup/pkg/config"
	"github.com/arthur-debert/stowup/pkg/errors"
	"github.com/arthur-debert/stowup/pkg/filesystem"
	"github.com/arthur-debert/stowup/pkg/logging"
	"github.com/arthur-debert/stowup/pkg/output"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Separator sits between the original path and the timestamp
const Separator = ".bak-"

// Record is one backup, made or found
type Record struct {
	Original  string    `json:"original" yaml:"original"`
	Backup    string    `json:"backup" yaml:"backup"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Options configures a Backuper
type Options struct {
	// TimestampFormat is a Go time layout; defaults to 20060102-150405
	TimestampFormat string
	// ManagedRoot is the dotfiles repository. With SkipManaged set, paths
	// resolving inside it are not backed up.
	ManagedRoot string
	SkipManaged bool
	DryRun      bool
	// Now is the clock; defaults to time.Now
	Now func() time.Time
}

// Backuper renames existing files aside
type Backuper struct {
	fs     filesystem.FS
	out    *output.Printer
	logger zerolog.Logger

	format      string
	now         time.Time
	stamp       string
	managedRoot string
	skipManaged bool
	dryRun      bool
}

// New creates a Backuper and fixes the run's timestamp
func New(fsys filesystem.FS, out *output.Printer, opts Options) *Backuper {
	format := opts.TimestampFormat
	if format == "" {
		format = "20060102-150405"
	}
	clock := opts.Now
	if clock == nil {
		clock = time.Now
	}
	now := clock()

	b := &Backuper{
		fs:          fsys,
		out:         out,
		logger:      logging.GetLogger("backup"),
		format:      format,
		now:         now,
		stamp:       now.Format(format),
		skipManaged: opts.SkipManaged,
		dryRun:      opts.DryRun,
	}
	if opts.ManagedRoot != "" {
		b.managedRoot = filepath.Clean(opts.ManagedRoot)
		if resolved, err := filesystem.RealPath(fsys, b.managedRoot); err == nil {
			b.managedRoot = resolved
		}
	}
	return b
}

// Stamp returns the timestamp suffix of this run's backups
func (b *Backuper) Stamp() string {
	return b.stamp
}

// PathFor returns the backup name of path for this run
func (b *Backuper) PathFor(path string) string {
	return path + Separator + b.stamp
}

// BackupIfExists renames path to its backup name when something, including
// a dangling symlink, is there. It returns nil when nothing was backed up.
func (b *Backuper) BackupIfExists(path string) (*Record, error) {
	exists, err := filesystem.Lexists(b.fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot inspect %s", path).
			WithDetail(errors.DetailPath, path)
	}
	if !exists {
		b.logger.Trace().Str("path", path).Msg("Nothing to back up")
		return nil, nil
	}

	if b.skipManaged && b.IsManaged(path) {
		b.logger.Debug().Str("path", path).Msg("Path already points into the dotfiles repository, not backing up")
		return nil, nil
	}

	dest := b.PathFor(path)
	if taken, _ := filesystem.Lexists(b.fs, dest); taken {
		// Two runs within one second produce the same name
		b.logger.Warn().Str("path", path).Str("backup", dest).Msg("Backup name already exists and may be replaced")
	}

	b.out.Noticef("Backing up %s -> %s", b.out.Path(path), b.out.Path(dest))

	record := &Record{Original: path, Backup: dest, Timestamp: b.now}
	if b.dryRun {
		b.logger.Info().Str("path", path).Str("backup", dest).Msg("Dry run mode - backup would be made")
		return record, nil
	}

	if err := b.fs.Rename(path, dest); err != nil {
		return nil, errors.Wrapf(err, errors.ErrBackup, "failed to back up %s", path).
			WithDetail(errors.DetailPath, path)
	}
	b.logger.Info().Str("path", path).Str("backup", dest).Msg("Backed up")
	return record, nil
}

// IsManaged reports whether path resolves into the dotfiles repository,
// either as a symlink or through a symlinked parent directory.
func (b *Backuper) IsManaged(path string) bool {
	if b.managedRoot == "" {
		return false
	}
	resolved, err := filesystem.RealPath(b.fs, filepath.Clean(path))
	if err != nil {
		return false
	}
	return within(b.managedRoot, resolved)
}

// BackupConfigs backs up the configured set under home: every listed file,
// then every glob match after making sure the listed directories exist.
func (b *Backuper) BackupConfigs(home string, set config.Backup) ([]Record, error) {
	var records []Record

	for _, rel := range set.Files {
		record, err := b.BackupIfExists(filepath.Join(home, rel))
		if err != nil {
			return records, err
		}
		if record != nil {
			records = append(records, *record)
		}
	}

	for _, rel := range set.EnsureDirs {
		dir := filepath.Join(home, rel)
		if b.dryRun {
			b.logger.Info().Str("dir", dir).Msg("Dry run mode - directory would be created")
			continue
		}
		if err := b.fs.MkdirAll(dir, 0755); err != nil {
			return records, errors.Wrapf(err, errors.ErrFileAccess, "failed to create %s", dir).
				WithDetail(errors.DetailPath, dir)
		}
	}

	for _, pattern := range set.Globs {
		matches, err := afero.Glob(b.fs, filepath.Join(home, pattern))
		if err != nil {
			return records, errors.Wrapf(err, errors.ErrInvalidInput, "bad backup glob %q", pattern)
		}
		sort.Strings(matches)
		for _, match := range matches {
			record, err := b.BackupIfExists(match)
			if err != nil {
				return records, err
			}
			if record != nil {
				records = append(records, *record)
			}
		}
	}

	return records, nil
}

// Pending lists the paths BackupConfigs would move aside right now
func (b *Backuper) Pending(home string, set config.Backup) ([]string, error) {
	var candidates []string
	for _, rel := range set.Files {
		candidates = append(candidates, filepath.Join(home, rel))
	}
	for _, pattern := range set.Globs {
		matches, err := afero.Glob(b.fs, filepath.Join(home, pattern))
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidInput, "bad backup glob %q", pattern)
		}
		sort.Strings(matches)
		candidates = append(candidates, matches...)
	}

	var pending []string
	for _, path := range candidates {
		exists, err := filesystem.Lexists(b.fs, path)
		if err != nil || !exists {
			continue
		}
		if b.skipManaged && b.IsManaged(path) {
			continue
		}
		pending = append(pending, path)
	}
	return pending, nil
}

// List finds the backups of the configured set that exist under home, from
// this and earlier runs, sorted by original path and then by age.
func List(fsys filesystem.FS, home string, set config.Backup) ([]Record, error) {
	format := set.TimestampFormat
	if format == "" {
		format = "20060102-150405"
	}

	var patterns []string
	for _, rel := range set.Files {
		patterns = append(patterns, filepath.Join(home, rel)+Separator+"*")
	}
	for _, rel := range set.Globs {
		patterns = append(patterns, filepath.Join(home, rel)+Separator+"*")
	}

	seen := make(map[string]bool)
	var records []Record
	for _, pattern := range patterns {
		matches, err := afero.Glob(fsys, pattern)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidInput, "bad backup glob %q", pattern)
		}
		for _, match := range matches {
			if seen[match] {
				continue
			}
			seen[match] = true

			idx := strings.LastIndex(match, Separator)
			record := Record{Original: match[:idx], Backup: match}
			if ts, err := time.ParseInLocation(format, match[idx+len(Separator):], time.Local); err == nil {
				record.Timestamp = ts
			}
			records = append(records, record)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Original != records[j].Original {
			return records[i].Original < records[j].Original
		}
		return records[i].Backup < records[j].Backup
	})
	return records, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
