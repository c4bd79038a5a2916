// Package program holds the type-checked program for one extraction batch.
// The program grows as files are requested and is rebuilt incrementally on
// top of the previous one, so files already checked keep their types.
package program

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/yacobolo/tsclass/internal/checker"
	"github.com/yacobolo/tsclass/internal/overlay"
	"github.com/yacobolo/tsclass/internal/tsconfig"
)

var (
	// ErrNoConfig is returned when no tsconfig.json is found above Cwd.
	ErrNoConfig = errors.New("no tsconfig.json found")
	// ErrUnresolvable is returned when the program cannot produce a file.
	ErrUnresolvable = errors.New("file is not part of the program")
)

// Options configures a Cache.
type Options struct {
	// Cwd is where configuration lookup starts. Defaults to the process
	// working directory.
	Cwd string
	// ConfigName defaults to tsconfig.json.
	ConfigName string
	// Overlay is shared with the preprocessor. A new store is created when
	// nil.
	Overlay *overlay.Store
	Logger  *log.Logger
}

// Cache owns the program state. It is not safe for concurrent use.
type Cache struct {
	opts    Options
	overlay *overlay.Store
	logger  *log.Logger

	config  *tsconfig.Config
	host    checker.Host
	program *checker.Program
	roots   []string
	isRoot  map[string]bool
}

// New returns an empty cache. Nothing is read until the first Ensure.
func New(opts Options) *Cache {
	if opts.Cwd == "" {
		opts.Cwd, _ = os.Getwd()
	}
	if opts.ConfigName == "" {
		opts.ConfigName = tsconfig.DefaultName
	}
	if opts.Overlay == nil {
		opts.Overlay = overlay.New()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Cache{
		opts:    opts,
		overlay: opts.Overlay,
		logger:  opts.Logger,
		isRoot:  make(map[string]bool),
	}
}

// Overlay returns the overlay store backing the program host.
func (c *Cache) Overlay() *overlay.Store { return c.overlay }

// Ensure returns the parsed file for id, adding id to the root set when it
// is not already a root. Unless id has an overlay entry, fallback is
// registered as its text first.
func (c *Cache) Ensure(id, fallback string) (*checker.SourceFile, error) {
	id = overlay.Key(id)
	if c.program == nil {
		if err := c.init(); err != nil {
			return nil, err
		}
	}

	if !c.isRoot[id] {
		if !c.overlay.Has(id) {
			c.overlay.Set(id, fallback)
		}
		c.addRoot(id)
		c.rebuild()
		c.logger.Debug("program grown", "file", id, "roots", len(c.roots))
	}

	f := c.program.SourceFile(id)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnresolvable, id)
	}
	return f, nil
}

func (c *Cache) init() error {
	path, ok := tsconfig.Find(c.opts.Cwd, c.opts.ConfigName)
	if !ok {
		return fmt.Errorf("%w: searched from %s", ErrNoConfig, c.opts.Cwd)
	}
	cfg, err := tsconfig.Load(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoConfig, err)
	}
	files, err := cfg.FileNames()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoConfig, err)
	}

	c.config = cfg
	// Disk reads are remembered until Reset, so growing the root set only
	// parses the new file.
	c.host = &checker.OverlayHost{Overlay: c.overlay, Base: checker.NewMemoHost(checker.OSHost{})}
	for _, f := range files {
		c.addRoot(f)
	}
	c.rebuild()
	c.logger.Debug("program created", "config", filepath.ToSlash(path), "roots", len(c.roots))
	return nil
}

func (c *Cache) addRoot(id string) {
	id = overlay.Key(id)
	if c.isRoot[id] {
		return
	}
	c.isRoot[id] = true
	c.roots = append(c.roots, id)
}

func (c *Cache) rebuild() {
	old := c.program
	c.program = checker.NewProgram(checker.ProgramOptions{
		Roots:   c.roots,
		Options: c.config.Options,
		Host:    c.host,
		Old:     old,
	})
	if old != nil {
		old.Close(c.program)
	}
}

// Checker returns the type checker of the current program, or nil before
// the first successful Ensure.
func (c *Cache) Checker() *checker.Checker {
	if c.program == nil {
		return nil
	}
	return c.program.TypeChecker()
}

// Program returns the current program, or nil.
func (c *Cache) Program() *checker.Program { return c.program }

// Roots returns the current root identities.
func (c *Cache) Roots() []string {
	return append([]string(nil), c.roots...)
}

// Reset discards the program, the host, the root set and every overlay
// entry.
func (c *Cache) Reset() {
	if c.program != nil {
		c.program.Close(nil)
	}
	c.program = nil
	c.host = nil
	c.config = nil
	c.roots = nil
	clear(c.isRoot)
	c.overlay.Clear()
}
