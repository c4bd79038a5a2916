package tsclass

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/yacobolo/tsclass/internal/literal"
	"github.com/yacobolo/tsclass/internal/program"
	"github.com/yacobolo/tsclass/internal/sfc"
	"github.com/yacobolo/tsclass/internal/split"
)

// Failure kinds. Every error returned by Extract wraps one of these.
var (
	ErrUnsupportedKind = errors.New("unsupported file kind")
	ErrPreprocess      = errors.New("preprocessing failed")
	ErrMissingConfig   = program.ErrNoConfig
	ErrUnresolvable    = program.ErrUnresolvable
)

// Kind classifies a file by its extension.
type Kind int

const (
	KindUnsupported Kind = iota
	// KindScript is a TypeScript file checked as-is.
	KindScript
	// KindComponent is a Vue single-file component, compiled before checking.
	KindComponent
)

func (k Kind) String() string {
	switch k {
	case KindScript:
		return "script"
	case KindComponent:
		return "component"
	}
	return "unsupported"
}

// KindOf returns the kind of the file id.
func KindOf(id string) Kind {
	switch strings.ToLower(filepath.Ext(id)) {
	case ".vue":
		return KindComponent
	case ".ts", ".tsx", ".mts", ".cts":
		return KindScript
	}
	return KindUnsupported
}

// Error is a per-file extraction failure.
type Error struct {
	ID   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("tsclass: failed to extract types from %s: %v", e.ID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Options configures an Extractor.
type Options struct {
	// Split tokenizes resolved literals. Nil means split.Default().
	Split split.Splitter
	// Silent logs per-file failures as warnings instead of returning them.
	Silent bool
	// Cwd anchors relative identities and the tsconfig.json lookup.
	Cwd string
	// ConfigName is the configuration file name, tsconfig.json by default.
	ConfigName string
	Logger     *log.Logger
}

// DefaultOptions returns silent options using the default splitter and the
// process working directory.
func DefaultOptions() Options {
	cwd, _ := os.Getwd()
	return Options{
		Split:  split.Default(),
		Silent: true,
		Cwd:    cwd,
		Logger: log.NewWithOptions(os.Stderr, log.Options{Prefix: "tsclass"}),
	}
}

// Extractor resolves class tokens from files. It keeps a program across
// calls until Reset and is not safe for concurrent use.
type Extractor struct {
	opts  Options
	cache *program.Cache
}

// New returns an Extractor. Zero fields of opts take their defaults.
func New(opts Options) *Extractor {
	def := DefaultOptions()
	if opts.Split == nil {
		opts.Split = def.Split
	}
	if opts.Cwd == "" {
		opts.Cwd = def.Cwd
	}
	if opts.Logger == nil {
		opts.Logger = def.Logger
	}
	return &Extractor{
		opts: opts,
		cache: program.New(program.Options{
			Cwd:        opts.Cwd,
			ConfigName: opts.ConfigName,
			Logger:     opts.Logger,
		}),
	}
}

// Extract adds the tokens of file id with content code to extracted.
// In silent mode failures are logged and nil is returned; otherwise they
// are returned as *Error.
func (e *Extractor) Extract(id, code string, extracted Set) error {
	if extracted == nil {
		return e.fail(id, KindOf(id), errors.New("nil token set"))
	}
	id = e.resolve(id)
	kind := KindOf(id)
	if kind == KindUnsupported {
		return e.fail(id, kind, ErrUnsupportedKind)
	}

	target, fallback := id, code
	if kind == KindComponent {
		oid, err := sfc.Preprocess(e.cache.Overlay(), id, code)
		if err != nil {
			return e.fail(id, kind, fmt.Errorf("%w: %w", ErrPreprocess, err))
		}
		target, fallback = oid, ""
	}

	f, err := e.cache.Ensure(target, fallback)
	if err != nil {
		return e.fail(id, kind, err)
	}
	literal.Collect(f, e.cache.Checker(), e.opts.Split, extracted.Add)
	return nil
}

// Reset drops the program and every overlay entry. Call it once after each
// pass over a set of files.
func (e *Extractor) Reset() {
	e.cache.Reset()
}

func (e *Extractor) resolve(id string) string {
	if !filepath.IsAbs(id) {
		id = filepath.Join(e.opts.Cwd, id)
	}
	return filepath.ToSlash(filepath.Clean(id))
}

func (e *Extractor) fail(id string, kind Kind, err error) error {
	if e.opts.Silent {
		e.opts.Logger.Warn("failed to extract types", "file", id, "kind", kind, "err", err)
		return nil
	}
	return &Error{ID: id, Kind: kind, Err: err}
}
