// Package engine is the public orchestrator API (§4.12, §6): Run takes one
// or more per-canal machine programs and returns their synchronized tool
// paths, following the teacher's root-package convention of a thin public
// surface over the internal packages (see the original mbflow.go/factory.go
// constructors this module's root package replaces).
package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ncplot7go/ncengine/internal/canal"
	"github.com/ncplot7go/ncengine/internal/canalsync"
	"github.com/ncplot7go/ncengine/internal/domain"
	ncerrors "github.com/ncplot7go/ncengine/internal/domain/errors"
	"github.com/ncplot7go/ncengine/internal/handler"
	"github.com/ncplot7go/ncengine/internal/lexer"
	"github.com/ncplot7go/ncengine/internal/logging"
	"github.com/ncplot7go/ncengine/internal/machine"
	"github.com/ncplot7go/ncengine/internal/telemetry"
)

// ToolValue is a staged cutter-compensation tuple for one tool number,
// supplied per §6's "toolValues" request field.
type ToolValue struct {
	ToolNumber int
	QValue     int
	RValue     float64
}

// CustomVariable seeds state.Parameters before execution (§6).
type CustomVariable struct {
	Name  string
	Value float64
}

// MachineInput is one canal's program and the machine it targets.
type MachineInput struct {
	Program         string
	MachineName     string
	CanalNr         string
	ToolValues      []ToolValue
	CustomVariables []CustomVariable
}

// Point is one plotted vertex.
type Point struct {
	X, Y, Z float64
}

// Segment is one §6 JSON segment: the type (RAPID/LINEAR), source line, the
// active tool number, and the interpolated vertices.
type Segment struct {
	Type       string
	LineNumber int
	ToolNumber int
	Points     []Point
}

// CanalResult is one canal's §6 response payload.
type CanalResult struct {
	Segments      []Segment
	ExecutedLines []int
	Variables     map[string]float64
	Timing        []float64
}

// ExecutionError is the public projection of an internal NCError.
type ExecutionError struct {
	Code    int
	Line    int
	Column  int
	Canal   string
	Message string
}

// Response is the engine's full result across every requested canal.
type Response struct {
	RunID     string
	Canal     map[string]CanalResult
	Message   []string
	Success   bool
	Errors    []ExecutionError
	HasErrors bool
}

// MachineDescriptor is the §6 "list_machines" projection of a registered
// MachineConfig.
type MachineDescriptor struct {
	MachineName    string
	ControlType    string
	VariablePrefix string
}

// Engine owns the shared, read-only machine-config registry (§5) and
// exposes the two §6 actions: ListMachines and Run.
type Engine struct {
	registry   *machine.Registry
	maxSegment float64
	observers  *logging.Manager
}

// Options configures an Engine's deployment-level tunables (§A).
type Options struct {
	// MaxSegment is the default interpolation segment length (mm) used
	// when a canal doesn't override it via state.Extra["max_segment"].
	// Zero selects the motion handler's own default (0.5mm).
	MaxSegment float64
}

// New returns a ready Engine with the built-in Fanuc/Siemens machine
// registry and default tunables.
func New() *Engine {
	return NewWithOptions(Options{})
}

// NewWithOptions is like New but lets the hosting process override §A's
// deployment tunables (e.g. from internal/config.Config).
func NewWithOptions(opts Options) *Engine {
	maxSegment := opts.MaxSegment
	if maxSegment <= 0 {
		maxSegment = 0.5
	}
	return &Engine{registry: machine.NewRegistry(), maxSegment: maxSegment, observers: logging.NewManager()}
}

// Observe registers o to receive a LogEvent for every canal-started/
// completed/failed transition during subsequent Run calls.
func (e *Engine) Observe(o logging.Observer) {
	e.observers.Add(o)
}

// ListMachines returns every distinct registered machine descriptor.
func (e *Engine) ListMachines() []MachineDescriptor {
	cfgs := e.registry.List()
	out := make([]MachineDescriptor, 0, len(cfgs))
	for _, cfg := range cfgs {
		out = append(out, MachineDescriptor{
			MachineName:    cfg.Name,
			ControlType:    cfg.ControlFamily,
			VariablePrefix: cfg.VariablePrefix,
		})
	}
	return out
}

// canalExec bundles the pieces needed after the per-canal walk completes,
// so synchronization and response-building can both use it.
type canalExec struct {
	canalNr string
	state   *domain.CanalState
	result  canal.Result
}

// Run executes every input canal (sequentially per §5), optionally
// synchronizes 2- or 3-canal wait points, and builds the final response.
// On a fatal per-canal error it still returns whatever partial plots were
// computed, alongside the accumulated structured error list (§4.12, §7).
// It is equivalent to RunWithContext(context.Background(), inputs).
func (e *Engine) Run(inputs []MachineInput) Response {
	return e.RunWithContext(context.Background(), inputs)
}

// RunWithContext is Run, with each canal's walk and the multi-canal
// synchronizer pass wrapped in an otel span (internal/telemetry) and
// reported to any observers registered via Observe (internal/logging).
// ctx only bounds the tracing/observation boundary; the walk itself has
// no I/O to cancel (§5: cancellation is external to the engine).
func (e *Engine) RunWithContext(ctx context.Context, inputs []MachineInput) Response {
	resp := Response{RunID: uuid.NewString(), Canal: map[string]CanalResult{}}
	var execs []canalExec

	for _, in := range inputs {
		_, span := telemetry.StartCanalSpan(ctx, in.CanalNr, in.MachineName)
		start := time.Now()
		e.observers.Notify(logging.NewCanalStartedEvent(in.CanalNr))

		cfg := e.registry.Get(in.MachineName)
		state := domain.NewCanalState(cfg)
		seedToolValues(state, in.ToolValues)
		seedCustomVariables(state, in.CustomVariables)

		nodes, parseErrs := parseProgram(in.Program)
		for _, pe := range parseErrs {
			resp.Errors = append(resp.Errors, toPublicError(pe))
			e.observers.Notify(logging.NewParseErrorEvent(in.CanalNr, pe.Line(), pe.Code(), pe))
		}

		cf := handler.NewControlFlowHandler()
		chain := e.buildChain(cf)
		rt := canal.NewRuntime(nodes, state, chain, cf, in.CanalNr)
		result := rt.Run()
		for _, herr := range result.Errors {
			if ncerr, ok := herr.(ncerrors.NCError); ok {
				resp.Errors = append(resp.Errors, toPublicError(ncerr))
				e.observers.Notify(logging.NewHandlerErrorEvent(in.CanalNr, ncerr.Line(), ncerr.Code(), ncerr))
			}
		}

		duration := time.Since(start)
		switch {
		case len(result.ToolPath) == 0 && len(result.Errors) > 0:
			lastErr := result.Errors[len(result.Errors)-1]
			telemetry.RecordError(span, lastErr)
			e.observers.Notify(logging.NewCanalFailedEvent(in.CanalNr, lastErr, duration))
		default:
			e.observers.Notify(logging.NewCanalCompletedEvent(in.CanalNr, duration, len(result.Errors)))
		}
		span.End()

		execs = append(execs, canalExec{canalNr: in.CanalNr, state: state, result: result})
	}

	if len(execs) == 2 || len(execs) == 3 {
		_, syncSpan := telemetry.StartSyncSpan(ctx, len(execs))
		paths := make([][]domain.ToolPathEntry, len(execs))
		nodeLists := make([][]*domain.CommandNode, len(execs))
		for i, ex := range execs {
			paths[i] = ex.result.ToolPath
			nodeLists[i] = ex.result.ToolNodes
		}
		if err := canalsync.Synchronize(paths, nodeLists); err != nil {
			telemetry.RecordError(syncSpan, err)
			if ncerr, ok := err.(ncerrors.NCError); ok {
				resp.Errors = append(resp.Errors, toPublicError(ncerr))
			}
		}
		for i := range execs {
			execs[i].result.ToolPath = paths[i]
		}
		syncSpan.End()
	}

	anyOutput := false
	for _, ex := range execs {
		cr := buildCanalResult(ex)
		if len(cr.Segments) > 0 {
			anyOutput = true
		}
		resp.Canal[ex.canalNr] = cr
	}

	resp.HasErrors = len(resp.Errors) > 0
	resp.Success = anyOutput && !resp.HasErrors
	if len(execs) == 0 {
		resp.Success = !resp.HasErrors
	}
	return resp
}

func seedToolValues(state *domain.CanalState, values []ToolValue) {
	if len(values) == 0 {
		return
	}
	table := make(map[int]domain.ToolComp, len(values))
	for _, v := range values {
		table[v.ToolNumber] = domain.ToolComp{QValue: v.QValue, RValue: v.RValue}
	}
	state.Extra["tool_compensation_data"] = domain.ToolMapValue(table)
}

func seedCustomVariables(state *domain.CanalState, vars []CustomVariable) {
	for _, v := range vars {
		state.Parameters[v.Name] = v.Value
	}
}

// parseProgram splits a program into `;`-joined command lines and parses
// each independently; per-line parse failures are collected, not fatal
// (§4.12 step 2).
func parseProgram(program string) ([]*domain.CommandNode, []ncerrors.NCError) {
	var nodes []*domain.CommandNode
	var errs []ncerrors.NCError

	lineNr := 0
	for _, rawLine := range strings.Split(program, "\n") {
		for _, cmd := range strings.Split(rawLine, ";") {
			cmd = strings.TrimSpace(cmd)
			if cmd == "" {
				continue
			}
			lineNr++
			node, err := lexer.Parse(cmd, lineNr)
			if err != nil {
				if ncerr, ok := err.(ncerrors.NCError); ok {
					errs = append(errs, ncerr)
				}
				continue
			}
			nodes = append(nodes, node)
		}
	}
	return nodes, errs
}

func (e *Engine) buildChain(cf *handler.ControlFlowHandler) *handler.Chain {
	return handler.NewChain(
		handler.VariableHandler{},
		cf,
		handler.ModalHandler{},
		handler.CoordinateHandler{},
		handler.ToolHandler{},
		handler.CutterCompHandler{},
		handler.ToolLengthHandler{},
		handler.CycleHandler{},
		handler.NewMotionHandler(e.maxSegment),
	)
}

func toPublicError(err ncerrors.NCError) ExecutionError {
	return ExecutionError{
		Code:    err.Code(),
		Line:    err.Line(),
		Column:  err.Column(),
		Canal:   err.Canal(),
		Message: err.Error(),
	}
}

func buildCanalResult(ex canalExec) CanalResult {
	cr := CanalResult{Variables: map[string]float64{}}
	toolNumber := int(ex.state.GetExtraFloat("current_tool_number", 0))
	for i, entry := range ex.result.ToolPath {
		node := ex.result.ToolNodes[i]
		segType := "LINEAR"
		if node.HasGCode("G00") || node.HasGCode("G0") {
			segType = "RAPID"
		}
		pts := make([]Point, 0, len(entry.Points))
		for _, p := range entry.Points {
			pts = append(pts, Point{X: p.X, Y: p.Y, Z: p.Z})
		}
		cr.Segments = append(cr.Segments, Segment{
			Type:       segType,
			LineNumber: node.LineNr,
			ToolNumber: toolNumber,
			Points:     pts,
		})
		cr.ExecutedLines = append(cr.ExecutedLines, node.LineNr)
		cr.Timing = append(cr.Timing, entry.Duration)
	}
	for k, v := range ex.state.Parameters {
		cr.Variables[k] = v
	}
	return cr
}
