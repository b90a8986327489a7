package expand

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/redox-os/ion-sub003/core/config"
	"github.com/redox-os/ion-sub003/core/logger"
	"github.com/redox-os/ion-sub003/core/ranges"
	"github.com/redox-os/ion-sub003/core/types"
	"github.com/redox-os/ion-sub003/core/words"
	"github.com/spf13/afero"
)

// Engine expands words. It keeps per-call state and must not be shared
// between goroutines.
type Engine struct {
	x     Expander
	fs    afero.Fs
	pool  *Pool
	log   *logger.SessionLogger
	cfg   config.Expansion
	depth int
}

// Option configures an Engine.
type Option func(*Engine)

// WithFs sets the filesystem globs are matched against, the OS filesystem
// by default.
func WithFs(fs afero.Fs) Option {
	return func(e *Engine) {
		e.fs = fs
	}
}

// WithPool sets the scratch buffer pool.
func WithPool(p *Pool) Option {
	return func(e *Engine) {
		e.pool = p
	}
}

// WithLogger records glob, command and limit events.
func WithLogger(l *logger.SessionLogger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithConfig replaces the default limits.
func WithConfig(cfg config.Expansion) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// New creates an Engine drawing values from x.
func New(x Expander, opts ...Option) *Engine {
	e := &Engine{
		x:   x,
		fs:  afero.NewOsFs(),
		cfg: config.Default().Expansion,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.pool == nil {
		e.pool = NewPool(e.cfg.PoolSize)
	}
	return e
}

// ExpandStatement expands every word of stmt. A word that fails doesn't stop
// the others: the values of every successful word are returned along with
// the joined *WordError of the failures. Only an interrupted command stops
// expansion early.
func (e *Engine) ExpandStatement(ctx context.Context, stmt string) ([]types.Value, error) {
	e.log.Record(logger.EventStatement, logger.Fields{"statement": stmt})

	var (
		out  []types.Value
		errs []error
	)
	for _, w := range words.Split(stmt) {
		values, err := e.ExpandWord(ctx, w.Text)
		if err != nil {
			wordErr := &WordError{Word: w.Text, Offset: w.Offset, Err: err}
			if errors.Is(err, ErrInterrupted) || ctx.Err() != nil {
				return out, errors.Join(append(errs, wordErr)...)
			}
			e.log.Record(logger.EventError, logger.Fields{"word": w.Text, "error": err.Error()})
			errs = append(errs, wordErr)
			continue
		}
		out = append(out, values...)
	}
	return out, errors.Join(errs...)
}

// ExpandString expands every word of text and flattens the result.
func (e *Engine) ExpandString(ctx context.Context, text string) ([]string, error) {
	var out []string
	for _, w := range words.SplitArguments(text) {
		values, err := e.ExpandWord(ctx, w)
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			out = append(out, v.Words()...)
		}
	}
	return out, nil
}

// ExpandWord expands a single word into zero or more values.
func (e *Engine) ExpandWord(ctx context.Context, word string) ([]types.Value, error) {
	res, err := e.expandWord(ctx, word, e.cfg.Glob)
	if err != nil {
		return nil, err
	}
	if res.array {
		return res.values, nil
	}

	var out []types.Value
	for _, f := range res.fields {
		out = append(out, e.glob(f)...)
	}
	return out, nil
}

// field is one candidate output word before globbing.
type field struct {
	text    string
	pattern string
	glob    bool
}

func literalField(s string) field {
	return field{text: s, pattern: escapeGlob(s)}
}

// expansion is a word before globbing. A word made of a single unquoted
// array expression keeps its values, everything else becomes fields.
type expansion struct {
	fields []field
	values []types.Value
	array  bool
}

func (x expansion) strings() []string {
	if x.array {
		var out []string
		for _, v := range x.values {
			out = append(out, v.Words()...)
		}
		return out
	}
	out := make([]string, len(x.fields))
	for i, f := range x.fields {
		out[i] = f.text
	}
	return out
}

func (e *Engine) enter() error {
	if e.depth >= e.cfg.MaxDepth {
		return e.limit("max_depth", ErrTooDeep)
	}
	e.depth++
	return nil
}

func (e *Engine) leave() {
	e.depth--
}

func (e *Engine) limit(name string, err error) error {
	e.log.Record(logger.EventLimit, logger.Fields{"limit": name})
	return err
}

func (e *Engine) expandWord(ctx context.Context, word string, glob bool) (expansion, error) {
	if err := e.enter(); err != nil {
		return expansion{}, err
	}
	defer e.leave()

	segs, err := words.Segments(word, glob)
	if err != nil {
		return expansion{}, err
	}

	if len(segs) == 1 && isArraySegment(segs[0]) && !segs[0].Quoted {
		v, err := e.value(ctx, segs[0])
		if err != nil {
			return expansion{}, err
		}
		return expansion{values: elements(v), array: true}, nil
	}

	parts := make([][]field, 0, len(segs))
	for _, seg := range segs {
		alts, err := e.segment(ctx, seg)
		if err != nil {
			return expansion{}, err
		}
		parts = append(parts, alts)
	}

	fields, err := e.combine(parts)
	if err != nil {
		return expansion{}, err
	}
	return expansion{fields: fields}, nil
}

func isArraySegment(seg words.Segment) bool {
	switch seg.Kind {
	case words.ArrayLiteral, words.ArrayVariable, words.ArrayProcess, words.ArrayMethod:
		return true
	}
	return false
}

// segment returns the alternatives a segment contributes to its word: one,
// except for braces.
func (e *Engine) segment(ctx context.Context, seg words.Segment) ([]field, error) {
	switch seg.Kind {
	case words.Normal:
		if seg.Tilde && !seg.Quoted {
			return []field{e.tilde(seg)}, nil
		}
		return []field{{text: seg.Text, pattern: seg.Pattern, glob: seg.Glob && !seg.Quoted}}, nil

	case words.Whitespace:
		return []field{literalField(seg.Text)}, nil

	case words.Brace:
		return e.brace(ctx, seg)
	}

	v, err := e.value(ctx, seg)
	if err != nil {
		return nil, err
	}
	return []field{literalField(v.String())}, nil
}

// combine builds the cartesian product of the alternatives, leftmost
// outermost.
func (e *Engine) combine(parts [][]field) ([]field, error) {
	total := 1
	for _, alts := range parts {
		if len(alts) == 0 {
			return nil, nil
		}
		if total > e.cfg.MaxBraceWords/len(alts) {
			return nil, e.limit("max_brace_words", ErrTooManyWords)
		}
		total *= len(alts)
	}

	out := make([]field, 0, total)
	idx := make([]int, len(parts))
	for {
		var f field
		e.pool.Use(func(text *Buffer) error {
			return e.pool.Use(func(pattern *Buffer) error {
				for i, alts := range parts {
					alt := alts[idx[i]]
					text.WriteString(alt.text)
					pattern.WriteString(alt.pattern)
					f.glob = f.glob || alt.glob
				}
				f.text, f.pattern = text.String(), pattern.String()
				return nil
			})
		})
		out = append(out, f)

		i := len(parts) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(parts[i]) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return out, nil
		}
	}
}

func (e *Engine) tilde(seg words.Segment) field {
	end := strings.IndexByte(seg.Text, '/')
	if end < 0 {
		end = len(seg.Text)
	}
	patternEnd := strings.IndexByte(seg.Pattern, '/')
	if patternEnd < 0 {
		patternEnd = len(seg.Pattern)
	}

	home := e.x.Tilde(seg.Text[:end])
	return field{
		text:    home + seg.Text[end:],
		pattern: escapeGlob(home) + seg.Pattern[patternEnd:],
		glob:    seg.Glob,
	}
}

func (e *Engine) brace(ctx context.Context, seg words.Segment) ([]field, error) {
	if len(seg.Elements) == 1 {
		seq, ok := ranges.ParseSequence(seg.Elements[0])
		if !ok {
			return []field{literalField("{" + seg.Elements[0] + "}")}, nil
		}
		if seq.Len() > e.cfg.MaxBraceWords {
			return nil, e.limit("max_brace_words", ErrTooManyWords)
		}
		out := make([]field, 0, seq.Len())
		seq.Each(func(item string) bool {
			out = append(out, literalField(item))
			return true
		})
		return out, nil
	}

	var out []field
	for _, element := range seg.Elements {
		res, err := e.expandWord(ctx, element, e.cfg.Glob)
		if err != nil {
			return nil, err
		}
		if res.array {
			for _, v := range res.values {
				out = append(out, literalField(v.String()))
			}
		} else {
			out = append(out, res.fields...)
		}
		if len(out) > e.cfg.MaxBraceWords {
			return nil, e.limit("max_brace_words", ErrTooManyWords)
		}
	}
	return out, nil
}

// value evaluates a substitution segment and applies its selection.
func (e *Engine) value(ctx context.Context, seg words.Segment) (types.Value, error) {
	var (
		v   types.Value
		err error
	)

	switch seg.Kind {
	case words.Variable:
		v, _ = e.x.Variable(seg.Text, seg.Quoted)

	case words.ArrayVariable:
		v, _ = e.x.Variable(seg.Text, seg.Quoted)
		if !v.IsArray() {
			v = types.Array(elements(v)...)
		}

	case words.Process, words.ArrayProcess:
		var out []string
		if out, err = e.command(ctx, seg); err != nil {
			return types.None, err
		}
		switch {
		case seg.Kind == words.ArrayProcess:
			v = types.Strings(out...)
		case seg.Quoted:
			v = types.Str(strings.Join(out, "\n"))
		default:
			v = types.Str(strings.Join(out, " "))
		}

	case words.Arithmetic:
		var expr, result string
		if expr, err = e.text(ctx, seg.Text); err != nil {
			return types.None, err
		}
		if result, err = e.x.Arithmetic(expr); err != nil {
			return types.None, &ArithmeticError{Expr: expr, Err: err}
		}
		v = types.Str(result)

	case words.ArrayLiteral:
		var items []types.Value
		for _, element := range seg.Elements {
			values, err := e.ExpandWord(ctx, element)
			if err != nil {
				return types.None, err
			}
			items = append(items, values...)
		}
		v = types.Array(items...)

	case words.StringMethod:
		call, err := e.methodCall(ctx, seg, false)
		if err != nil {
			return types.None, err
		}
		result, err := stringMethod(call)
		if err != nil {
			return types.None, err
		}
		v = types.Str(result)

	case words.ArrayMethod:
		call, err := e.methodCall(ctx, seg, true)
		if err != nil {
			return types.None, err
		}
		items, err := arrayMethod(call)
		if err != nil {
			return types.None, err
		}
		v = types.Array(items...)

	default:
		v = types.Str(seg.Text)
	}

	if !seg.HasSelection {
		return v, nil
	}
	return e.selectValue(ctx, v, seg.Selection)
}

func (e *Engine) command(ctx context.Context, seg words.Segment) ([]string, error) {
	out, err := e.x.Command(ctx, seg.Text, seg.Quoted)

	result := "ok"
	switch {
	case errors.Is(err, ErrInterrupted):
		result = "interrupted"
	case err != nil:
		result = "error"
	}
	e.log.Record(logger.EventCommand, logger.Fields{"command": seg.Text, "quoted": seg.Quoted, "result": result})

	if err != nil {
		return nil, &CommandError{Command: seg.Text, Err: err}
	}
	return out, nil
}

func (e *Engine) selectValue(ctx context.Context, v types.Value, raw string) (types.Value, error) {
	text, err := e.text(ctx, raw)
	if err != nil {
		return types.None, err
	}

	sel := ranges.ParseSelect(text)
	if v.Map() != nil {
		if sel.Kind != ranges.SelectAll {
			sel = ranges.Key(text)
		}
		return v.Select(sel), nil
	}

	switch sel.Kind {
	case ranges.SelectIndex:
		if i, ok := sel.Index.Resolve(v.Len()); !ok || i >= v.Len() {
			return types.None, &SelectError{Selection: text, Len: v.Len()}
		}
	case ranges.SelectRange:
		if _, _, ok := sel.Range.Bounds(v.Len()); !ok {
			return types.None, &SelectError{Selection: text, Len: v.Len()}
		}
	case ranges.SelectKey:
		return types.None, &SelectError{Selection: text, Len: v.Len()}
	}
	return v.Select(sel), nil
}

func (e *Engine) methodCall(ctx context.Context, seg words.Segment, array bool) (methodCall, error) {
	info, err := resolveMethod(seg.Method, array)
	if err != nil {
		return methodCall{}, err
	}

	receiver, err := e.receiver(ctx, seg.Text)
	if err != nil {
		return methodCall{}, err
	}

	call := methodCall{info: info, receiver: receiver, hasArgs: seg.HasArgs}
	if seg.HasArgs {
		if call.args, err = e.arguments(ctx, seg.Args); err != nil {
			return methodCall{}, err
		}
	}
	return call, nil
}

// receiver resolves the first argument of a method: a bare name is a
// variable, anything else is expanded.
func (e *Engine) receiver(ctx context.Context, text string) (types.Value, error) {
	if isIdentifier(text) {
		v, _ := e.x.Variable(text, false)
		return v, nil
	}

	res, err := e.expandWord(ctx, text, false)
	if err != nil {
		return types.None, err
	}
	if res.array {
		return types.Array(res.values...), nil
	}
	texts := res.strings()
	if len(texts) == 1 {
		return types.Str(texts[0]), nil
	}
	return types.Strings(texts...), nil
}

// arguments expands the comma or whitespace separated method arguments.
func (e *Engine) arguments(ctx context.Context, raw string) ([]string, error) {
	var out []string
	for _, part := range words.SplitTopLevel(raw, ',') {
		for _, w := range words.SplitArguments(part) {
			res, err := e.expandWord(ctx, w, false)
			if err != nil {
				return nil, err
			}
			for _, s := range res.strings() {
				out = append(out, Unescape(s))
			}
		}
	}
	return out, nil
}

// text expands s without globbing and joins the words with spaces.
func (e *Engine) text(ctx context.Context, s string) (string, error) {
	var parts []string
	for _, w := range words.SplitArguments(s) {
		res, err := e.expandWord(ctx, w, false)
		if err != nil {
			return "", err
		}
		parts = append(parts, res.strings()...)
	}
	return strings.Join(parts, " "), nil
}

// glob expands a field against the filesystem. Patterns without matches,
// or that fail to compile, are passed through unchanged.
func (e *Engine) glob(f field) []types.Value {
	if !f.glob {
		return []types.Value{types.Str(f.text)}
	}

	matches, err := afero.Glob(e.fs, f.pattern)
	fields := logger.Fields{"pattern": f.pattern, "matches": logger.Strings(matches)}
	if err != nil {
		fields["error"] = err.Error()
	}
	e.log.Record(logger.EventGlob, fields)

	if err != nil || len(matches) == 0 {
		return []types.Value{types.Str(f.text)}
	}
	sort.Strings(matches)
	return strs(matches)
}

func escapeGlob(s string) string {
	if !strings.ContainsAny(s, `*?[]\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', ']', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '_' && !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
