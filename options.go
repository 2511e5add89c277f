package xlgrid

import (
	"log/slog"
	"time"

	"github.com/javajack/xlgrid/formula"
)

// DefaultNotifyDelay is how long change notifications are deferred after
// the first mutation of a quiet period.
const DefaultNotifyDelay = 4 * time.Millisecond

// TimestampLayout is the format InsertNow writes.
const TimestampLayout = "2006-01-02 15:04:05"

// Options holds configuration for the Editor.
type Options struct {
	data             [][]any
	mergeCells       []MergeRegion
	metas            []CellMeta
	aliases          map[string]string
	propAlias        map[string]string
	commentNeedAlias bool
	objectRender     string
	valueField       string
	disabled         bool
	notifyDelay      time.Duration
	scheduler        Scheduler
	logger           *slog.Logger
	palette          Palette
	functions        map[string]formula.Func
	now              func() time.Time
}

func defaultOptions() *Options {
	return &Options{
		notifyDelay: DefaultNotifyDelay,
		palette:     DefaultPalette,
		valueField:  formula.DefaultValueField,
		now:         time.Now,
	}
}

// Option configures the Editor.
type Option func(*Options)

// WithData sets the initial matrix. Maps and structs are stored as JSON
// object cells.
func WithData(rows [][]any) Option {
	return func(o *Options) { o.data = rows }
}

// WithMergeCells sets the initial merge regions.
func WithMergeCells(merges ...MergeRegion) Option {
	return func(o *Options) { o.mergeCells = append(o.mergeCells, merges...) }
}

// WithMetas sets initial cell metadata.
func WithMetas(metas ...CellMeta) Option {
	return func(o *Options) { o.metas = append(o.metas, metas...) }
}

// WithAliases declares formula names. Each target is a cell ("B2") or a
// column ("C"); a column alias reads the row of the formula using it.
func WithAliases(aliases map[string]string) Option {
	return func(o *Options) {
		if o.aliases == nil {
			o.aliases = make(map[string]string)
		}
		for name, target := range aliases {
			o.aliases[name] = target
		}
	}
}

// WithPropAlias declares display labels for object properties, keyed by
// property name. Labels are shown in comments and usable in formulas.
func WithPropAlias(labels map[string]string) Option {
	return func(o *Options) {
		if o.propAlias == nil {
			o.propAlias = make(map[string]string)
		}
		for prop, label := range labels {
			o.propAlias[prop] = label
		}
	}
}

// WithCommentNeedAlias limits object comments to aliased properties.
func WithCommentNeedAlias(need bool) Option {
	return func(o *Options) { o.commentNeedAlias = need }
}

// WithObjectRender sets an expression used to display object cells. The
// object's properties are the expression environment, e.g.
// `name + " (" + string(value) + ")"`.
func WithObjectRender(expression string) Option {
	return func(o *Options) { o.objectRender = expression }
}

// WithValueField changes the object property formulas read for a bare
// reference (default: "value").
func WithValueField(name string) Option {
	return func(o *Options) { o.valueField = name }
}

// WithDisabled makes every cell read-only.
func WithDisabled(disabled bool) Option {
	return func(o *Options) { o.disabled = disabled }
}

// WithNotifyDelay sets the change notification delay (default: 4ms).
func WithNotifyDelay(d time.Duration) Option {
	return func(o *Options) { o.notifyDelay = d }
}

// WithScheduler replaces the timer used for deferred notifications.
func WithScheduler(s Scheduler) Option {
	return func(o *Options) { o.scheduler = s }
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.logger = l }
}

// WithClock replaces the time source used by InsertNow.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithPalette replaces the color palette used by ApplyColor and xlsx export.
func WithPalette(p Palette) Option {
	return func(o *Options) { o.palette = p }
}

// WithFunctions registers additional formula functions.
func WithFunctions(funcs map[string]formula.Func) Option {
	return func(o *Options) {
		if o.functions == nil {
			o.functions = make(map[string]formula.Func)
		}
		for name, fn := range funcs {
			o.functions[name] = fn
		}
	}
}
