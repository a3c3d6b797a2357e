package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/metricgraph/pkg/metric"
	"github.com/chazu/metricgraph/pkg/neighbors"
	"github.com/chazu/metricgraph/pkg/pipeline"
	"github.com/chazu/metricgraph/pkg/shortest"
	"github.com/chazu/metricgraph/pkg/transform"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites pipeline source before passing it to zygomys:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal), so
//     keywords never collide with user-defined variables.
//
//  2. Kebab-case to underscore: kneighbors-graph -> kneighbors_graph.
//     zygomys reads a hyphen inside an identifier as subtraction.
//
//  3. ; line comments become // comments.
//
// String literals are left untouched.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		switch {
		case b[i] == '"':
			j := skipString(b, i, '"', true)
			result = append(result, b[i:j]...)
			i = j
			continue
		case b[i] == '`':
			j := skipString(b, i, '`', false)
			result = append(result, b[i:j]...)
			i = j
			continue
		case b[i] == ';':
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		case b[i] == ':' && i+1 < len(b):
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, kwPrefix...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		case b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isLetter(b[i+1]):
			// Hyphen between identifier characters, not a minus operator.
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

// skipString returns the index just past the string literal opening at i.
func skipString(b []byte, i int, quote byte, escapes bool) int {
	j := i + 1
	for j < len(b) && b[j] != quote {
		if escapes && b[j] == '\\' && j+1 < len(b) {
			j += 2
			continue
		}
		j++
	}
	if j < len(b) {
		j++
	}
	return j
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpStep wraps a pipeline step returned by a transformer builtin.
type sexpStep struct {
	step pipeline.Step
}

func (s *sexpStep) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s)", s.step.Name())
}
func (s *sexpStep) Type() *zygo.RegisteredType { return nil }

// sexpPipeline wraps a pipeline returned by `pipeline`.
type sexpPipeline struct {
	p *pipeline.Pipeline
}

func (s *sexpPipeline) SexpString(ps *zygo.PrintState) string {
	parts := make([]string, 0, len(s.p.Steps)+1)
	parts = append(parts, "pipeline")
	for _, name := range s.p.Names() {
		parts = append(parts, "("+name+")")
	}
	return "(" + strings.Join(parts, " ") + ")"
}
func (s *sexpPipeline) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Trailing keyword with no value.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// setter stores one keyword value.
type setter func(v zygo.Sexp) error

// applyKeywords runs the setter of every keyword in pa in name order. Unknown
// keywords and positional arguments are errors.
func applyKeywords(fn string, pa kwArgs, setters map[string]setter) error {
	if len(pa.positional) > 0 {
		return fmt.Errorf("%s: unexpected positional argument %s", fn, pa.positional[0].SexpString(nil))
	}
	names := make([]string, 0, len(pa.kw))
	for name := range pa.kw {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		set, ok := setters[name]
		if !ok {
			return fmt.Errorf("%s: unknown keyword :%s", fn, name)
		}
		if err := set(pa.kw[name]); err != nil {
			return fmt.Errorf("%s: %s: %w", fn, name, err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer; floats are accepted when integral.
func toInt(s zygo.Sexp) (int, error) {
	f, err := toFloat64(s)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("expected integer, got %v", f)
	}
	return int(f), nil
}

// toBool extracts a boolean from true/false.
func toBool(s zygo.Sexp) (bool, error) {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	return false, fmt.Errorf("expected true or false, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_distance) and plain strings
// ("distance").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

func floatInto(dst *float64) setter {
	return func(v zygo.Sexp) error {
		f, err := toFloat64(v)
		*dst = f
		return err
	}
}

func intInto(dst *int) setter {
	return func(v zygo.Sexp) error {
		n, err := toInt(v)
		*dst = n
		return err
	}
}

func boolInto(dst *bool) setter {
	return func(v zygo.Sexp) error {
		b, err := toBool(v)
		*dst = b
		return err
	}
}

// parsedInto converts a keyword or string with parse and stores the result.
func parsedInto[T any](dst *T, parse func(string) (T, error)) setter {
	return func(v zygo.Sexp) error {
		s, err := toKeywordString(v)
		if err != nil {
			return err
		}
		parsed, err := parse(s)
		if err != nil {
			return err
		}
		*dst = parsed
		return nil
	}
}

func parseStateFunc(s string) (transform.StateFunc, error) {
	switch strings.ToLower(s) {
	case "argsort", "ordinal":
		return transform.Argsort, nil
	case "identity":
		return transform.Identity, nil
	}
	return nil, fmt.Errorf("unknown state function %q, expected argsort or identity", s)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// program collects what the builtins construct during one evaluation.
type program struct {
	last *pipeline.Pipeline
}

// registerBuiltins installs the pipeline builtins into a zygomys environment.
//
// Source code must be preprocessed with preprocessSource() before evaluation
// so that :keyword tokens become recognizable string literals and kebab-case
// names match the underscore names registered here.
func registerBuiltins(env *zygo.Zlisp, prog *program) {

	// -----------------------------------------------------------------------
	// (transition-graph :state :argsort)
	// -----------------------------------------------------------------------
	env.AddFunction("transition_graph", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		t := transform.NewTransitionGraph()
		err := applyKeywords("transition-graph", parseArgs(args), map[string]setter{
			"state": parsedInto(&t.StateFunc, parseStateFunc),
		})
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpStep{step: pipeline.Transition(t)}, nil
	})

	// -----------------------------------------------------------------------
	// (kneighbors-graph :n-neighbors 4 :mode :distance :metric :minkowski
	//                   :p 3 :algorithm :brute)
	// -----------------------------------------------------------------------
	env.AddFunction("kneighbors_graph", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		t := transform.NewKNeighborsGraph()
		err := applyKeywords("kneighbors-graph", parseArgs(args), map[string]setter{
			"n-neighbors": intInto(&t.NNeighbors),
			"mode":        parsedInto(&t.Mode, transform.ParseMode),
			"metric":      parsedInto(&t.Metric, metric.ParseMetric),
			"p":           floatInto(&t.P),
			"algorithm":   parsedInto(&t.Algorithm, neighbors.ParseAlgorithm),
		})
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpStep{step: pipeline.KNeighbors(t)}, nil
	})

	// -----------------------------------------------------------------------
	// (graph-geodesic-distance :directed false :unweighted false :method :FW)
	// -----------------------------------------------------------------------
	env.AddFunction("graph_geodesic_distance", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		t := transform.NewGraphGeodesicDistance()
		err := applyKeywords("graph-geodesic-distance", parseArgs(args), map[string]setter{
			"directed":   boolInto(&t.Directed),
			"unweighted": boolInto(&t.Unweighted),
			"method":     parsedInto(&t.Method, shortest.ParseMethod),
		})
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpStep{step: pipeline.Geodesic(t)}, nil
	})

	// -----------------------------------------------------------------------
	// (fermat-distance :p 2 :metric :euclidean :minkowski-p 2
	//                  :n-neighbors 0 :method :D)
	// -----------------------------------------------------------------------
	env.AddFunction("fermat_distance", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		t := transform.NewFermatDistance()
		err := applyKeywords("fermat-distance", parseArgs(args), map[string]setter{
			"p":           floatInto(&t.P),
			"metric":      parsedInto(&t.Metric, metric.ParseMetric),
			"minkowski-p": floatInto(&t.MinkowskiP),
			"n-neighbors": intInto(&t.NNeighbors),
			"method":      parsedInto(&t.Method, shortest.ParseMethod),
		})
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpStep{step: pipeline.Fermat(t)}, nil
	})

	// -----------------------------------------------------------------------
	// (pipeline step ...) where a step may also be a list of steps
	// -----------------------------------------------------------------------
	env.AddFunction("pipeline", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		var steps []pipeline.Step
		for i, arg := range args {
			if s, ok := arg.(*sexpStep); ok {
				steps = append(steps, s.step)
				continue
			}
			items, err := sexpListToSlice(arg)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("pipeline: argument %d: expected step, got %T (%s)",
					i+1, arg, arg.SexpString(nil))
			}
			for _, item := range items {
				s, ok := item.(*sexpStep)
				if !ok {
					return zygo.SexpNull, fmt.Errorf("pipeline: argument %d: expected step, got %T (%s)",
						i+1, item, item.SexpString(nil))
				}
				steps = append(steps, s.step)
			}
		}
		if len(steps) == 0 {
			return zygo.SexpNull, fmt.Errorf("pipeline requires at least one step")
		}
		p := pipeline.New(steps...)
		prog.last = p
		return &sexpPipeline{p: p}, nil
	})
}
