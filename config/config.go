/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package config loads spezza project configuration from a config file,
// SPEZZA_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"bennypowers.dev/spezza/chunk"
	"bennypowers.dev/spezza/fs"
	"bennypowers.dev/spezza/modgraph"
	"bennypowers.dev/spezza/packagejson"
)

// Name is the config file base name; viper tries every supported extension.
const Name = "spezza"

// EnvPrefix prefixes environment variables overriding config keys.
const EnvPrefix = "SPEZZA"

// ErrNoEntries is returned when neither the config, the CLI, nor
// package.json names an entry point.
var ErrNoEntries = errors.New("no entry points: configure entries, html, or a package.json main")

// Entry names an entry file. Path may be a doublestar glob relative to the
// root, in which case every match becomes an entry named after its path.
type Entry struct {
	Name string `mapstructure:"name"`
	Path string `mapstructure:"path"`
}

// Config is a validated project configuration. Paths are absolute.
type Config struct {
	Root        string
	Entries     []Entry
	HTML        []string
	Runtime     bool
	Parallel    int
	NodeModules bool
	Extensions  []string
	Conditions  []string
	LogLevel    string
	Format      string
}

// New returns a fresh viper instance prepared by Configure.
func New() *viper.Viper {
	v := viper.New()
	Configure(v)
	return v
}

// Configure registers spezza's defaults, config file name and environment
// binding on v.
func Configure(v *viper.Viper) {
	SetDefaults(v)
	v.SetConfigName(Name)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// SetDefaults registers default values for every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("root", ".")
	v.SetDefault("runtime", false)
	v.SetDefault("parallel", 0)
	v.SetDefault("nodeModules", false)
	v.SetDefault("extensions", modgraph.DefaultExtensions)
	v.SetDefault("conditions", packagejson.DefaultConditions)
	v.SetDefault("logLevel", "info")
	v.SetDefault("logFormat", "console")
	v.SetDefault("format", "json")
}

// ReadFile reads the config file: the explicit file if set, otherwise
// spezza.{yaml,json,toml} in root. A missing implicit config is not an error.
func ReadFile(v *viper.Viper, file, root string) error {
	if file != "" {
		v.SetConfigFile(file)
		return v.ReadInConfig()
	}
	v.AddConfigPath(root)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

// Load builds a Config from v. Entries given as args replace configured
// entries. Either way entries keep the order they were listed in, since that
// order decides how modules are grouped.
func Load(v *viper.Viper, fsys fs.FileSystem, args ...string) (*Config, error) {
	root, err := filepath.Abs(v.GetString("root"))
	if err != nil {
		return nil, fmt.Errorf("invalid root directory: %w", err)
	}

	cfg := &Config{
		Root:        root,
		Runtime:     v.GetBool("runtime"),
		Parallel:    v.GetInt("parallel"),
		NodeModules: v.GetBool("nodeModules"),
		Extensions:  v.GetStringSlice("extensions"),
		Conditions:  v.GetStringSlice("conditions"),
		LogLevel:    v.GetString("logLevel"),
		Format:      v.GetString("format"),
	}

	switch cfg.Format {
	case "json", "text":
	default:
		return nil, fmt.Errorf("invalid format %q: must be one of json, text", cfg.Format)
	}
	if cfg.Parallel < 0 {
		return nil, fmt.Errorf("invalid parallel %d: must not be negative", cfg.Parallel)
	}

	var errs []error
	if len(args) > 0 {
		for _, arg := range args {
			entries, err := cfg.expand(fsys, Entry{Path: arg})
			errs = append(errs, err)
			cfg.Entries = append(cfg.Entries, entries...)
		}
	} else {
		var configured []Entry
		if err := v.UnmarshalKey("entries", &configured); err != nil {
			return nil, fmt.Errorf("invalid entries: %w", err)
		}
		for _, e := range configured {
			entries, err := cfg.expand(fsys, e)
			errs = append(errs, err)
			cfg.Entries = append(cfg.Entries, entries...)
		}

		for _, pattern := range v.GetStringSlice("html") {
			matches, err := fsys.Glob(cfg.abs(pattern))
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid html glob %q: %w", pattern, err))
				continue
			}
			if len(matches) == 0 {
				errs = append(errs, fmt.Errorf("html glob %q matched no files", pattern))
			}
			cfg.HTML = append(cfg.HTML, matches...)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if len(cfg.Entries) == 0 && len(cfg.HTML) == 0 {
		entry, err := cfg.packageEntry(fsys)
		if err != nil {
			return nil, err
		}
		cfg.Entries = []Entry{entry}
	}
	return cfg, nil
}

// expand resolves an entry's path against the root, expanding globs.
func (cfg *Config) expand(fsys fs.FileSystem, e Entry) ([]Entry, error) {
	if e.Path == "" {
		return nil, fmt.Errorf("entry %q has no path", e.Name)
	}
	abs := cfg.abs(e.Path)

	if !isGlob(e.Path) {
		if !fs.IsFile(fsys, abs) {
			return nil, fmt.Errorf("entry %s: %w", e.Path, modgraph.ErrNotFound)
		}
		if e.Name == "" {
			e.Name = cfg.NameFor(abs)
		}
		return []Entry{{Name: e.Name, Path: abs}}, nil
	}

	matches, err := fsys.Glob(abs)
	if err != nil {
		return nil, fmt.Errorf("invalid entry glob %q: %w", e.Path, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("entry glob %q matched no files", e.Path)
	}
	entries := make([]Entry, 0, len(matches))
	for _, m := range matches {
		entries = append(entries, Entry{Name: cfg.NameFor(m), Path: m})
	}
	return entries, nil
}

// packageEntry derives a single entry from package.json in the root.
func (cfg *Config) packageEntry(fsys fs.FileSystem) (Entry, error) {
	pkg, err := packagejson.ParseFile(fsys, filepath.Join(cfg.Root, "package.json"))
	if err != nil {
		return Entry{}, ErrNoEntries
	}
	mainPath := pkg.EntryPoint(cfg.Conditions)
	if mainPath == "" {
		return Entry{}, ErrNoEntries
	}
	name := chunk.SanitizePath(path.Base(pkg.Name))
	if name == "" {
		name = "index"
	}
	abs := cfg.abs(mainPath)
	if !fs.IsFile(fsys, abs) {
		return Entry{}, fmt.Errorf("package.json entry %s: %w", mainPath, modgraph.ErrNotFound)
	}
	return Entry{Name: name, Path: abs}, nil
}

// NameFor derives an entry name from a file path: its root-relative path
// without extension, sanitized for use as a filename.
func (cfg *Config) NameFor(file string) string {
	rel, err := filepath.Rel(cfg.Root, file)
	if err != nil {
		rel = file
	}
	rel = filepath.ToSlash(rel)
	return chunk.SanitizePath(strings.TrimSuffix(rel, path.Ext(rel)))
}

func (cfg *Config) abs(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(cfg.Root, p)
}

func isGlob(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}
