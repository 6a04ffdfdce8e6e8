package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/token"
	"golang.org/x/text/language"

	"github.com/roach88/novel/internal/compiler"
	"github.com/roach88/novel/internal/locale"
	"github.com/roach88/novel/internal/scenario"
	"github.com/roach88/novel/internal/store"
	"github.com/roach88/novel/internal/store/redisstore"
)

// LoadError represents an error that occurred while loading a scenario.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available

	// Errors lists document validation errors, when that is the cause.
	Errors []scenario.ValidationError
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadScenario reads a YAML or CUE scenario, converting failures into
// LoadErrors with unified codes.
func LoadScenario(path string) (*scenario.Graph, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("scenario not found: %s", path)}
		}
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing scenario: %v", err)}
	}

	g, err := compiler.Load(path)
	if err != nil {
		return nil, convertLoadError(err, path)
	}
	return g, nil
}

// convertLoadError converts a compiler error to a LoadError with position info.
func convertLoadError(err error, path string) *LoadError {
	var docErr *compiler.DocumentError
	if errors.As(err, &docErr) {
		first := docErr.Errors[0]
		return &LoadError{Code: first.Code, Message: first.Message, Errors: docErr.Errors}
	}
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeBuildFailed,
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeLoadFailed,
		Message: fmt.Sprintf("loading %s: %v", path, err),
	}
}

// localesDir returns the localization directory for a scenario: the
// explicit dir if set, else "locales" next to the scenario file.
func localesDir(dir, scenarioPath string) string {
	if dir != "" {
		return dir
	}
	return filepath.Join(filepath.Dir(scenarioPath), "locales")
}

// baseLanguage returns the authored language of g, or und.
func baseLanguage(g *scenario.Graph) (language.Tag, error) {
	if g.Language == "" {
		return language.Und, nil
	}
	tag, err := language.Parse(g.Language)
	if err != nil {
		return language.Und, fmt.Errorf("scenario language %q: %w", g.Language, err)
	}
	return tag, nil
}

// applyLocale adapts g in place to lang using the sets in dir.
func applyLocale(ctx context.Context, g *scenario.Graph, lang, dir string) (locale.Report, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		return locale.Report{}, fmt.Errorf("language %q: %w", lang, err)
	}
	base, err := baseLanguage(g)
	if err != nil {
		return locale.Report{}, err
	}
	sets, err := locale.LoadDir(ctx, dir)
	if err != nil {
		return locale.Report{}, err
	}

	overlay := locale.NewOverlay(base, g, sets...)
	report, err := overlay.Adapt(tag, g)
	if err != nil {
		return report, err
	}
	slog.Debug("localization applied",
		"language", report.Language,
		"applied", report.Applied,
		"missing", len(report.Missing),
		"rejected", len(report.Rejected))
	return report, nil
}

// openSlots opens the slot store: Redis when a URL is configured,
// otherwise the SQLite database at dbPath.
func openSlots(ctx context.Context, opts *RootOptions, dbPath string) (store.SlotStore, error) {
	if url := opts.Config.RedisURL; url != "" {
		prefix := opts.Config.RedisPrefix
		if prefix == "" {
			prefix = redisstore.DefaultPrefix
		}
		slog.Debug("opening redis slot store", "prefix", prefix)
		return redisstore.Open(ctx, url, redisstore.WithPrefix(prefix))
	}
	if dbPath == "" {
		return nil, NewExitError(ExitCommandError, "no slot store: set --db or NOVEL_REDIS_URL")
	}
	slog.Debug("opening sqlite slot store", "path", dbPath)
	return store.Open(dbPath)
}
