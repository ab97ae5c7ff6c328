// Package loader reads the contracts and credentials tables through a table
// source and memoizes them per source.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"ccpp/internal/cache"
	"ccpp/internal/core"
	"ccpp/internal/metrics"
	ports "ccpp/internal/sheets"

	"golang.org/x/sync/singleflight"
)

var (
	ErrDataLoad      = core.ErrDataLoad
	ErrConfiguration = core.ErrConfiguration
)

// Mode selects how cached tables go stale.
type Mode string

const (
	// ModeProcess keeps a table until it is invalidated or the process exits.
	ModeProcess Mode = "process"
	// ModeModTime keys entries by the source fingerprint, so a rewritten
	// source is read again on the next request.
	ModeModTime Mode = "modtime"
)

// ParseMode accepts "process" and "modtime"; empty selects ModeProcess.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeProcess:
		return ModeProcess, nil
	case ModeModTime:
		return ModeModTime, nil
	default:
		return "", fmt.Errorf("unknown cache mode %q", s)
	}
}

type Options struct {
	Mode      Mode
	CacheSize int
	// ReadTimeout bounds a single source read. Reads are shared between
	// callers, so they do not follow any one request's context.
	ReadTimeout time.Duration
	Logger      *slog.Logger
}

const defaultReadTimeout = 30 * time.Second

type Loader struct {
	reader ports.TableReader
	fp     ports.Fingerprinter
	mode   Mode
	cache  *cache.LRUCache[core.Table]
	group  singleflight.Group
	logger *slog.Logger

	readTimeout time.Duration

	// mu orders cache writes after reads against invalidations; generation
	// counts invalidations so a read started before one is not cached.
	mu         sync.Mutex
	generation uint64
}

func New(reader ports.TableReader, opts Options) *Loader {
	if opts.Mode == "" {
		opts.Mode = ModeProcess
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 16
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = defaultReadTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	l := &Loader{
		reader:      reader,
		mode:        opts.Mode,
		cache:       cache.NewLRUCache[core.Table](opts.CacheSize, 0),
		logger:      opts.Logger,
		readTimeout: opts.ReadTimeout,
	}
	if fp, ok := reader.(ports.Fingerprinter); ok {
		l.fp = fp
	} else if l.mode == ModeModTime {
		l.logger.Warn("Data source cannot be fingerprinted, falling back to process cache mode")
		l.mode = ModeProcess
	}
	return l
}

func (l *Loader) Mode() Mode { return l.mode }

// LoadContracts returns the contracts table, failing with ErrConfiguration
// when a required column is absent.
func (l *Loader) LoadContracts(ctx context.Context, source string) (core.Table, error) {
	return l.load(ctx, "contracts", source, core.ContractColumns)
}

// LoadUsers returns the credentials table. Column checks are left to the
// authenticator, which reports them at login time.
func (l *Loader) LoadUsers(ctx context.Context, source string) (core.Table, error) {
	return l.load(ctx, "users", source, nil)
}

func (l *Loader) load(ctx context.Context, kind, source string, required []string) (core.Table, error) {
	key, err := l.key(ctx, source)
	if err != nil {
		return core.Table{}, fmt.Errorf("%w: %s: %w", ErrDataLoad, source, err)
	}

	t, ok := l.cache.Get(key)
	if ok {
		metrics.DataCacheTotal.WithLabelValues("hit").Inc()
	} else {
		metrics.DataCacheTotal.WithLabelValues("miss").Inc()
		ch := l.group.DoChan(key, func() (interface{}, error) {
			if t, ok := l.cache.Get(key); ok {
				return t, nil
			}
			return l.read(ctx, kind, key, source)
		})
		select {
		case res := <-ch:
			if res.Err != nil {
				return core.Table{}, res.Err
			}
			t = res.Val.(core.Table)
		case <-ctx.Done():
			return core.Table{}, fmt.Errorf("%w: %s: %w", ErrDataLoad, source, ctx.Err())
		}
	}

	if len(required) > 0 {
		if err := t.Require(required...); err != nil {
			return core.Table{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
	}
	return t, nil
}

func (l *Loader) read(ctx context.Context, kind, key, source string) (core.Table, error) {
	l.mu.Lock()
	gen := l.generation
	l.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.readTimeout)
	defer cancel()

	start := time.Now()
	t, err := l.reader.ReadTable(ctx, source)
	metrics.DataLoadDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DataLoadsTotal.WithLabelValues(kind, "error").Inc()
		l.logger.ErrorContext(ctx, "Failed to load table", "source", source, "kind", kind, "error", err)
		return core.Table{}, fmt.Errorf("%w: %w", ErrDataLoad, err)
	}
	metrics.DataLoadsTotal.WithLabelValues(kind, "ok").Inc()

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.generation {
		l.logger.InfoContext(ctx, "Source invalidated during load, result not cached", "source", source, "kind", kind)
		return t, nil
	}
	if l.mode == ModeModTime {
		// Drop entries for older fingerprints of the same source.
		l.cache.DeleteFunc(func(k string) bool { return k != key && sourceOf(k) == source })
	}
	l.cache.Set(key, t)
	l.logger.InfoContext(ctx, "Loaded table", "source", source, "kind", kind,
		"rows", t.Len(), "duration", time.Since(start))
	return t, nil
}

func (l *Loader) key(ctx context.Context, source string) (string, error) {
	if l.mode != ModeModTime {
		return source, nil
	}
	fp, err := l.fp.Fingerprint(ctx, source)
	if err != nil {
		if errors.Is(err, ports.ErrSourceNotFound) {
			return "", err
		}
		l.logger.WarnContext(ctx, "Fingerprint failed, using plain key", "source", source, "error", err)
		return source, nil
	}
	return source + "|" + fp, nil
}

func sourceOf(key string) string {
	if i := strings.LastIndex(key, "|"); i >= 0 {
		return key[:i]
	}
	return key
}

// Invalidate drops every cached version of source and reports how many
// entries were removed.
func (l *Loader) Invalidate(source string) int {
	l.mu.Lock()
	l.generation++
	n := l.cache.DeleteFunc(func(k string) bool { return k == source || sourceOf(k) == source })
	l.mu.Unlock()
	l.group.Forget(source)
	l.logger.Info("Data cache invalidated", "source", source, "entries", n)
	return n
}

// InvalidateAll empties the cache.
func (l *Loader) InvalidateAll() {
	l.mu.Lock()
	l.generation++
	l.cache.Clear()
	l.mu.Unlock()
	l.logger.Info("Data cache cleared")
}

// Cached reports the number of tables currently held.
func (l *Loader) Cached() int { return l.cache.Size() }
