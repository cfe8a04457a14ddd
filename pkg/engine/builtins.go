package engine

import (
	"fmt"
	"slices"
	"strings"

	"github.com/chazu/strata/pkg/kernel"
	"github.com/chazu/strata/pkg/profile"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/samber/lo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms strata Lisp source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: layer-height -> layer_height
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
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

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpSolid wraps a kernel.Solid so it can be passed between builtins.
type sexpSolid struct {
	solid kernel.Solid
	name  string // set once the solid is registered with defpart
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	if s.name != "" {
		return fmt.Sprintf("(part %q)", s.name)
	}
	min, max := s.solid.BoundingBox()
	return fmt.Sprintf("(solid %.1fx%.1fx%.1f)", max[0]-min[0], max[1]-min[1], max[2]-min[2])
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps an x, y, z triple.
type sexpVec3 struct {
	vec [3]float64
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %.1f %.1f %.1f)", v.vec[0], v.vec[1], v.vec[2])
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpProfile is what (profile ...) returns.
type sexpProfile struct {
	p *profile.Profile
}

func (s *sexpProfile) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(profile :layer-height %g :extrusion-width %g)", s.p.LayerHeight, s.p.ExtrusionWidth)
}
func (s *sexpProfile) Type() *zygo.RegisteredType { return nil }

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
// Keywords are identified by the __kw_ prefix added during preprocessing.
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
				// Keyword at end with no value: treat as flag with nil.
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

// unknown returns the keywords of pa not in allowed, sorted.
func (pa kwArgs) unknown(allowed ...string) []string {
	extra := lo.Filter(lo.Keys(pa.kw), func(k string, _ int) bool {
		return !slices.Contains(allowed, k)
	})
	slices.Sort(extra)
	return extra
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

// toInt extracts an integer from a SexpInt.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toBool extracts a boolean from a SexpBool.
func toBool(s zygo.Sexp) (bool, error) {
	if v, ok := s.(*zygo.SexpBool); ok {
		return v.Val, nil
	}
	return false, fmt.Errorf("expected true or false, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_infill) and plain strings ("infill").
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

// toSolid extracts a kernel.Solid from a sexpSolid.
func toSolid(s zygo.Sexp) (kernel.Solid, error) {
	if v, ok := s.(*sexpSolid); ok {
		return v.solid, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts the triple from a sexpVec3.
func toVec3(s zygo.Sexp) ([3]float64, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return [3]float64{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
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

// ---------------------------------------------------------------------------
// Profile settings
// ---------------------------------------------------------------------------

// setting applies one (profile ...) keyword value to a profile.
type setting func(p *profile.Profile, v zygo.Sexp) error

func floatSetting(field func(p *profile.Profile) *float64) setting {
	return func(p *profile.Profile, v zygo.Sexp) error {
		f, err := toFloat64(v)
		if err != nil {
			return err
		}
		*field(p) = f
		return nil
	}
}

func intSetting(field func(p *profile.Profile) *int) setting {
	return func(p *profile.Profile, v zygo.Sexp) error {
		n, err := toInt(v)
		if err != nil {
			return err
		}
		*field(p) = n
		return nil
	}
}

func boolSetting(field func(p *profile.Profile) *bool) setting {
	return func(p *profile.Profile, v zygo.Sexp) error {
		b, err := toBool(v)
		if err != nil {
			return err
		}
		*field(p) = b
		return nil
	}
}

// profileSettings maps (profile ...) keywords onto Profile fields.
var profileSettings = map[string]setting{
	"layer-height":      floatSetting(func(p *profile.Profile) *float64 { return &p.LayerHeight }),
	"extrusion-width":   floatSetting(func(p *profile.Profile) *float64 { return &p.ExtrusionWidth }),
	"import-coarseness": floatSetting(func(p *profile.Profile) *float64 { return &p.ImportCoarseness }),
	"correct-mesh":      boolSetting(func(p *profile.Profile) *bool { return &p.CorrectMesh }),
	"packing-density":   floatSetting(func(p *profile.Profile) *float64 { return &p.PackingDensity }),

	"overlap-removal-scaler":    floatSetting(func(p *profile.Profile) *float64 { return &p.OverlapRemovalScaler }),
	"nozzle-diameter":           floatSetting(func(p *profile.Profile) *float64 { return &p.NozzleDiameter }),
	"bridge-width-multiplier":   floatSetting(func(p *profile.Profile) *float64 { return &p.BridgeWidthMultiplier }),
	"loop-order-ascending-area": boolSetting(func(p *profile.Profile) *bool { return &p.LoopOrderAscendingArea }),

	"layer-print-from": intSetting(func(p *profile.Profile) *int { return &p.LayerPrintFrom }),
	"layer-print-to":   intSetting(func(p *profile.Profile) *int { return &p.LayerPrintTo }),

	"feed-rate":                 floatSetting(func(p *profile.Profile) *float64 { return &p.FeedRate }),
	"perimeter-feed-rate":       floatSetting(func(p *profile.Profile) *float64 { return &p.PerimeterFeedRate }),
	"travel-feed-rate":          floatSetting(func(p *profile.Profile) *float64 { return &p.TravelFeedRate }),
	"bridge-feed-rate-ratio":    floatSetting(func(p *profile.Profile) *float64 { return &p.BridgeFeedRateRatio }),
	"flow-rate-ratio":           floatSetting(func(p *profile.Profile) *float64 { return &p.FlowRateRatio }),
	"perimeter-flow-rate-ratio": floatSetting(func(p *profile.Profile) *float64 { return &p.PerimeterFlowRateRatio }),
	"bridge-flow-rate-ratio":    floatSetting(func(p *profile.Profile) *float64 { return &p.BridgeFlowRateRatio }),

	"workers":      intSetting(func(p *profile.Profile) *int { return &p.Workers }),
	"max-vertices": intSetting(func(p *profile.Profile) *int { return &p.MaxVertices }),
	"max-faces":    intSetting(func(p *profile.Profile) *int { return &p.MaxFaces }),

	"extrusion-print-order": func(p *profile.Profile, v zygo.Sexp) error {
		items, err := sexpListToSlice(v)
		if err != nil {
			return err
		}
		order := make([]string, 0, len(items))
		for _, item := range items {
			k, err := toKeywordString(item)
			if err != nil {
				return err
			}
			order = append(order, k)
		}
		p.ExtrusionPrintOrder = order
		return nil
	},
}

// applySettings applies every keyword of pa to p in sorted keyword order.
// Unknown keywords are rejected before anything is changed.
func applySettings(p *profile.Profile, pa kwArgs) error {
	if extra := pa.unknown(lo.Keys(profileSettings)...); len(extra) > 0 {
		return fmt.Errorf("profile: unknown setting %q", extra[0])
	}
	keys := lo.Keys(pa.kw)
	slices.Sort(keys)
	for _, k := range keys {
		if err := profileSettings[k](p, pa.kw[k]); err != nil {
			return fmt.Errorf("profile: %s: %w", k, err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

type builtinFunc = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// registerBuiltins installs all strata DSL builtins into a zygomys
// environment. The builtins populate job during evaluation and build
// solids with k.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, k kernel.Kernel, job *Job) {

	// -----------------------------------------------------------------------
	// (profile :layer-height 0.3 :extrusion-width 0.5 :correct-mesh true)
	// Later calls refine the settings of earlier ones.
	// -----------------------------------------------------------------------
	env.AddFunction("profile", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) > 0 {
			return zygo.SexpNull, fmt.Errorf("profile: expected only keyword settings, got %s", pa.positional[0].SexpString(nil))
		}
		if err := applySettings(job.Profile, pa); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpProfile{p: job.Profile}, nil
	})

	// needKernel guards the solid builtins.
	needKernel := func(builtin string) error {
		if k == nil {
			return fmt.Errorf("%s: no solid kernel configured", builtin)
		}
		return nil
	}

	// dims reads the named positive dimensions of a primitive.
	dims := func(builtin string, pa kwArgs, names ...string) ([]float64, error) {
		if extra := pa.unknown(names...); len(extra) > 0 {
			return nil, fmt.Errorf("%s: unknown keyword %q", builtin, extra[0])
		}
		out := make([]float64, len(names))
		for i, n := range names {
			v, ok := pa.kw[n]
			if !ok {
				return nil, fmt.Errorf("%s: missing :%s", builtin, n)
			}
			f, err := toFloat64(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %s: %w", builtin, n, err)
			}
			if f <= 0 {
				return nil, fmt.Errorf("%s: %s must be positive, got %v", builtin, n, f)
			}
			out[i] = f
		}
		return out, nil
	}

	// -----------------------------------------------------------------------
	// (box :x 20 :y 20 :z 10), minimum corner at the origin
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := needKernel("box"); err != nil {
			return zygo.SexpNull, err
		}
		d, err := dims("box", parseArgs(args), "x", "y", "z")
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpSolid{solid: k.Box(d[0], d[1], d[2])}, nil
	})

	// -----------------------------------------------------------------------
	// (cylinder :height 10 :radius 4), standing on z=0
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := needKernel("cylinder"); err != nil {
			return zygo.SexpNull, err
		}
		d, err := dims("cylinder", parseArgs(args), "height", "radius")
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpSolid{solid: k.Cylinder(d[0], d[1])}, nil
	})

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var v [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			v[i] = f
		}
		return &sexpVec3{vec: v}, nil
	})

	// -----------------------------------------------------------------------
	// (translate s :by (vec3 10 0 0)) and (rotate s :by (vec3 0 0 90))
	// -----------------------------------------------------------------------
	transform := func(builtin string, apply func(s kernel.Solid, v [3]float64) kernel.Solid) builtinFunc {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := needKernel(builtin); err != nil {
				return zygo.SexpNull, err
			}
			pa := parseArgs(args)
			if len(pa.positional) != 1 {
				return zygo.SexpNull, fmt.Errorf("%s requires one solid argument, got %d", builtin, len(pa.positional))
			}
			s, err := toSolid(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", builtin, err)
			}
			by, ok := pa.kw["by"]
			if !ok {
				return zygo.SexpNull, fmt.Errorf("%s: missing :by", builtin)
			}
			v, err := toVec3(by)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: by: %w", builtin, err)
			}
			return &sexpSolid{solid: apply(s, v)}, nil
		}
	}
	env.AddFunction("translate", transform("translate", func(s kernel.Solid, v [3]float64) kernel.Solid {
		return k.Translate(s, v[0], v[1], v[2])
	}))
	env.AddFunction("rotate", transform("rotate", func(s kernel.Solid, v [3]float64) kernel.Solid {
		return k.Rotate(s, v[0], v[1], v[2])
	}))

	// -----------------------------------------------------------------------
	// (union a b ...), (difference a b ...), (intersection a b ...)
	// folded left to right
	// -----------------------------------------------------------------------
	boolean := func(builtin string, op func(a, b kernel.Solid) kernel.Solid) builtinFunc {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := needKernel(builtin); err != nil {
				return zygo.SexpNull, err
			}
			if len(args) < 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires at least 2 solids, got %d", builtin, len(args))
			}
			acc, err := toSolid(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: operand 1: %w", builtin, err)
			}
			for i, a := range args[1:] {
				s, err := toSolid(a)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: operand %d: %w", builtin, i+2, err)
				}
				acc = op(acc, s)
			}
			return &sexpSolid{solid: acc}, nil
		}
	}
	env.AddFunction("union", boolean("union", func(a, b kernel.Solid) kernel.Solid { return k.Union(a, b) }))
	env.AddFunction("difference", boolean("difference", func(a, b kernel.Solid) kernel.Solid { return k.Difference(a, b) }))
	env.AddFunction("intersection", boolean("intersection", func(a, b kernel.Solid) kernel.Solid { return k.Intersection(a, b) }))

	// -----------------------------------------------------------------------
	// (defpart "name" solid)
	// -----------------------------------------------------------------------
	env.AddFunction("defpart", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("defpart requires a name and a body expression")
		}
		partName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defpart: name: %w", err)
		}
		if job.Lookup(partName) != nil {
			return zygo.SexpNull, fmt.Errorf("defpart: part %q already defined", partName)
		}
		s, err := toSolid(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defpart: %w", err)
		}
		job.Parts = append(job.Parts, Part{Name: partName, Solid: s})
		return &sexpSolid{solid: s, name: partName}, nil
	})

	// -----------------------------------------------------------------------
	// (part "name")
	// -----------------------------------------------------------------------
	env.AddFunction("part", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("part requires a name argument")
		}
		partName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("part: name: %w", err)
		}
		p := job.Lookup(partName)
		if p == nil {
			return zygo.SexpNull, fmt.Errorf("part: no part named %q", partName)
		}
		return &sexpSolid{solid: p.Solid, name: partName}, nil
	})
}
