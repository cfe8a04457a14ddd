// Package engine provides the Lisp evaluation engine for strata.
// It wraps zygomys in a sandboxed environment and produces a Job, the
// slicing profile plus the named parts to slice, from user source code.
package engine

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/strata/pkg/kernel"
	"github.com/chazu/strata/pkg/profile"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when an evaluation outlives the engine's limit.
	ErrTimeout = errors.New("evaluation timed out")
	// ErrSuperseded is returned to a caller whose evaluation finished after
	// a newer one had started.
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error, a runtime error in user code or an invalid profile.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Part is a named solid defined with defpart.
type Part struct {
	Name  string
	Solid kernel.Solid
}

// Job is everything a source defines: the profile to slice with and the
// parts to slice, in definition order.
type Job struct {
	Profile *profile.Profile
	Parts   []Part
}

func newJob() *Job {
	return &Job{Profile: profile.Default()}
}

// Lookup returns the part with the given name, or nil.
func (j *Job) Lookup(name string) *Part {
	for i := range j.Parts {
		if j.Parts[i].Name == name {
			return &j.Parts[i]
		}
	}
	return nil
}

// Engine wraps the zygomys interpreter for strata evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	kernel     kernel.Kernel
	timeout    time.Duration
}

// NewEngine creates a new Engine. Solid builtins build their shapes with
// k; with a nil kernel only profiles can be evaluated.
func NewEngine(k kernel.Kernel) *Engine {
	return &Engine{kernel: k, timeout: EvalTimeout}
}

// SetTimeout replaces the evaluation limit. Non-positive values restore
// EvalTimeout.
func (e *Engine) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = EvalTimeout
	}
	e.mu.Lock()
	e.timeout = d
	e.mu.Unlock()
}

// Evaluate takes Lisp source code and produces a new Job.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns job + nil errors + nil error
//   - On parse/eval failure or an invalid profile: returns nil job + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*Job, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	limit := e.timeout
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		job, evalErrs, err := e.evaluate(source)
		ch <- evalResult{job: job, errors: evalErrs, err: err}
	}()

	return e.await(ch, gen, limit)
}

type evalResult struct {
	job    *Job
	errors []EvalError
	err    error
}

// await returns the result of evaluation gen, or ErrTimeout once limit has
// passed. A timed-out goroutine keeps running and its late result lands in
// the buffered channel unread. A result that arrives after a newer
// evaluation started is reported as ErrSuperseded.
func (e *Engine) await(ch <-chan evalResult, gen uint64, limit time.Duration) (*Job, []EvalError, error) {
	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case res := <-ch:
		e.mu.Lock()
		current := e.generation
		e.mu.Unlock()
		if gen != current {
			return nil, nil, ErrSuperseded
		}
		return res.job, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, limit)
	}
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*Job, []EvalError, error) {
	// Empty source is a valid program that selects the default profile.
	if strings.TrimSpace(source) == "" {
		return newJob(), nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	job := newJob()
	registerBuiltins(env, e.kernel, job)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	if err := job.Profile.Validate(); err != nil {
		return nil, []EvalError{{Message: err.Error()}}, nil
	}
	return job, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?is)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
