// Package tsconfig reads tsconfig.json files: compiler options relevant to
// module resolution and the set of root files.
package tsconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/v2"

	"github.com/yacobolo/tsclass/internal/checker"
)

// DefaultName is the configuration file name looked up by Find.
const DefaultName = "tsconfig.json"

const maxExtends = 16

// ErrExtendsCycle is returned when extends chains loop.
var ErrExtendsCycle = errors.New("tsconfig extends cycle")

// Extensions are the file extensions collected by FileNames.
var Extensions = []string{".ts", ".tsx", ".mts", ".cts"}

// Config is a loaded tsconfig.json with extends applied. Paths are absolute
// and slash-separated.
type Config struct {
	Path    string
	Dir     string
	Files   []string
	Include []string
	Exclude []string
	Options checker.CompilerOptions

	outDir string
}

// Find walks from dir towards the filesystem root and returns the first
// file called name.
func Find(dir, name string) (string, bool) {
	if name == "" {
		name = DefaultName
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Load reads the configuration at path and every file it extends.
func Load(path string) (*Config, error) {
	cfg, err := load(path, nil)
	if err != nil {
		return nil, err
	}
	if cfg.Files == nil && cfg.Include == nil {
		cfg.Include = []string{join(cfg.Dir, "**/*")}
	}
	if cfg.Exclude == nil {
		for _, d := range []string{"node_modules", "bower_components", "jspm_packages"} {
			cfg.Exclude = append(cfg.Exclude, join(cfg.Dir, d))
		}
		if cfg.outDir != "" {
			cfg.Exclude = append(cfg.Exclude, cfg.outDir)
		}
	}
	return cfg, nil
}

func load(path string, chain []string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	abs = filepath.ToSlash(abs)
	if slices.Contains(chain, abs) || len(chain) > maxExtends {
		return nil, fmt.Errorf("%w: %s", ErrExtendsCycle, strings.Join(append(chain, abs), " -> "))
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", abs, err)
	}
	k := koanf.New(".")
	if err := k.Load(bytesProvider(Clean(data)), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", abs, err)
	}

	dir := filepath.ToSlash(filepath.Dir(abs))
	cfg := &Config{}
	if ext := extendsOf(k); len(ext) > 0 {
		for _, e := range ext {
			base, err := load(resolveExtends(dir, e), append(chain, abs))
			if err != nil {
				return nil, err
			}
			cfg.inherit(base)
		}
	}
	cfg.Path, cfg.Dir = abs, dir

	if k.Exists("files") {
		cfg.Files = resolveAll(dir, k.Strings("files"))
	}
	if k.Exists("include") {
		cfg.Include = resolveAll(dir, k.Strings("include"))
	}
	if k.Exists("exclude") {
		cfg.Exclude = resolveAll(dir, k.Strings("exclude"))
	}
	if v := k.String("compilerOptions.baseUrl"); v != "" {
		cfg.Options.BaseURL = join(dir, v)
	}
	if k.Exists("compilerOptions.paths") {
		cfg.Options.Paths = k.StringsMap("compilerOptions.paths")
		cfg.Options.ConfigDir = dir
	}
	if v := k.String("compilerOptions.jsx"); v != "" {
		cfg.Options.JSX = v
	}
	if v := k.String("compilerOptions.outDir"); v != "" {
		cfg.outDir = join(dir, v)
	}
	if cfg.Options.ConfigDir == "" {
		cfg.Options.ConfigDir = dir
	}
	return cfg, nil
}

func (c *Config) inherit(base *Config) {
	if base.Files != nil {
		c.Files = base.Files
	}
	if base.Include != nil {
		c.Include = base.Include
	}
	if base.Exclude != nil {
		c.Exclude = base.Exclude
	}
	if base.Options.BaseURL != "" {
		c.Options.BaseURL = base.Options.BaseURL
	}
	if base.Options.Paths != nil {
		c.Options.Paths = base.Options.Paths
		c.Options.ConfigDir = base.Options.ConfigDir
	}
	if base.Options.JSX != "" {
		c.Options.JSX = base.Options.JSX
	}
	if base.outDir != "" {
		c.outDir = base.outDir
	}
}

// extendsOf reads the extends key, which is a string or a list.
func extendsOf(k *koanf.Koanf) []string {
	if !k.Exists("extends") {
		return nil
	}
	if list := k.Strings("extends"); len(list) > 0 {
		return list
	}
	if s := k.String("extends"); s != "" {
		return []string{s}
	}
	return nil
}

func resolveExtends(dir, spec string) string {
	if !strings.HasPrefix(spec, ".") && !strings.HasPrefix(spec, "/") && !filepath.IsAbs(spec) {
		p := join(dir, "node_modules/"+spec)
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return p + "/" + DefaultName
		}
		if !strings.HasSuffix(p, ".json") {
			p += ".json"
		}
		return p
	}
	p := join(dir, spec)
	if !strings.HasSuffix(p, ".json") {
		if _, err := os.Stat(p); err != nil {
			p += ".json"
		}
	}
	return p
}

func resolveAll(dir string, patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, join(dir, p))
	}
	return out
}

func join(dir, p string) string {
	p = filepath.ToSlash(p)
	if filepath.IsAbs(p) || strings.HasPrefix(p, "/") {
		return filepath.ToSlash(filepath.Clean(p))
	}
	return filepath.ToSlash(filepath.Join(dir, p))
}

// FileNames returns the root files: the files list followed by every
// TypeScript file matched by include and not matched by exclude. Results
// are sorted and free of duplicates.
func (c *Config) FileNames() ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, f := range c.Files {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}

	var matched []string
	for _, pattern := range c.Include {
		pattern = directoryPattern(pattern)
		files, err := doublestar.FilepathGlob(filepath.FromSlash(pattern), doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("include %q: %w", pattern, err)
		}
		for _, f := range files {
			f = filepath.ToSlash(f)
			if seen[f] || !isSourceFile(f) || c.excluded(f) {
				continue
			}
			seen[f] = true
			matched = append(matched, f)
		}
	}
	slices.Sort(matched)
	return append(out, matched...), nil
}

func (c *Config) excluded(file string) bool {
	for _, pattern := range c.Exclude {
		if ok, _ := doublestar.Match(pattern, file); ok {
			return true
		}
		if ok, _ := doublestar.Match(strings.TrimSuffix(pattern, "/")+"/**", file); ok {
			return true
		}
	}
	return false
}

// directoryPattern expands a literal directory into a recursive pattern.
func directoryPattern(pattern string) string {
	if strings.ContainsAny(pattern, "*?[{") {
		return pattern
	}
	if info, err := os.Stat(filepath.FromSlash(pattern)); err == nil && info.IsDir() {
		return strings.TrimSuffix(pattern, "/") + "/**/*"
	}
	return pattern
}

func isSourceFile(name string) bool {
	for _, ext := range Extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
