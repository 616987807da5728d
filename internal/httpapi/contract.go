// Package httpapi is the engine's HTTP boundary: the §6 JSON request/
// response contract plus a websocket event stream, adapted from the
// teacher's internal/infrastructure/api/rest (server.go, middleware.go)
// and internal/infrastructure/websocket (hub.go, client.go, handler.go).
// Nothing in here is part of the core engine; it only marshals requests
// into pkg/engine calls and engine output back into JSON.
package httpapi

import (
	"github.com/ncplot7go/ncengine/internal/domain"
	"github.com/ncplot7go/ncengine/internal/storage"
	"github.com/ncplot7go/ncengine/pkg/engine"
)

// request is the union of the two §6 request shapes: a list_machines
// action, or a batch of machinedata to run.
type request struct {
	Action      string            `json:"action,omitempty"`
	MachineData []machineDataItem `json:"machinedata,omitempty"`
}

type machineDataItem struct {
	Program         string         `json:"program"`
	MachineName     string         `json:"machineName"`
	CanalNr         string         `json:"canalNr"`
	ToolValues      []toolValueDTO `json:"toolValues"`
	CustomVariables []customVarDTO `json:"customVariables"`
}

type toolValueDTO struct {
	ToolNumber int     `json:"toolNumber"`
	QValue     int     `json:"qValue"`
	RValue     float64 `json:"rValue"`
}

type customVarDTO struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// machinesResponse is the list_machines action's response.
type machinesResponse struct {
	Machines []machineDescriptorDTO `json:"machines"`
	Success  bool                   `json:"success"`
}

type machineDescriptorDTO struct {
	MachineName    string `json:"machineName"`
	ControlType    string `json:"controlType"`
	VariablePrefix string `json:"variablePrefix"`
}

// runResponse is the machinedata action's §6 response shape.
type runResponse struct {
	RunID     string                    `json:"runId"`
	Canal     map[string]canalResultDTO `json:"canal"`
	Message   []string                  `json:"message,omitempty"`
	Success   bool                      `json:"success"`
	Errors    []executionErrorDTO       `json:"errors,omitempty"`
	HasErrors bool                      `json:"hasErrors,omitempty"`
}

type canalResultDTO struct {
	Segments      []segmentDTO       `json:"segments"`
	ExecutedLines []int              `json:"executedLines"`
	Variables     map[string]float64 `json:"variables"`
	Timing        []float64          `json:"timing"`
}

type segmentDTO struct {
	Type       string     `json:"type"`
	LineNumber int        `json:"lineNumber"`
	ToolNumber int        `json:"toolNumber"`
	Points     []pointDTO `json:"points"`
}

type pointDTO struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type executionErrorDTO struct {
	Code    int    `json:"code"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Canal   string `json:"canal"`
	Message string `json:"message"`
}

func toMachineInputs(items []machineDataItem) []engine.MachineInput {
	out := make([]engine.MachineInput, 0, len(items))
	for _, it := range items {
		in := engine.MachineInput{
			Program:     it.Program,
			MachineName: it.MachineName,
			CanalNr:     it.CanalNr,
		}
		for _, tv := range it.ToolValues {
			in.ToolValues = append(in.ToolValues, engine.ToolValue{
				ToolNumber: tv.ToolNumber,
				QValue:     tv.QValue,
				RValue:     tv.RValue,
			})
		}
		for _, cv := range it.CustomVariables {
			in.CustomVariables = append(in.CustomVariables, engine.CustomVariable{
				Name:  cv.Name,
				Value: cv.Value,
			})
		}
		out = append(out, in)
	}
	return out
}

func fromResponse(resp engine.Response) runResponse {
	out := runResponse{
		RunID:     resp.RunID,
		Canal:     make(map[string]canalResultDTO, len(resp.Canal)),
		Message:   resp.Message,
		Success:   resp.Success,
		HasErrors: resp.HasErrors,
	}
	for canalNr, cr := range resp.Canal {
		out.Canal[canalNr] = fromCanalResult(cr)
	}
	for _, e := range resp.Errors {
		out.Errors = append(out.Errors, executionErrorDTO{
			Code:    e.Code,
			Line:    e.Line,
			Column:  e.Column,
			Canal:   e.Canal,
			Message: e.Message,
		})
	}
	return out
}

func fromCanalResult(cr engine.CanalResult) canalResultDTO {
	dto := canalResultDTO{
		ExecutedLines: cr.ExecutedLines,
		Variables:     cr.Variables,
		Timing:        cr.Timing,
	}
	for _, seg := range cr.Segments {
		pts := make([]pointDTO, 0, len(seg.Points))
		for _, p := range seg.Points {
			pts = append(pts, pointDTO{X: p.X, Y: p.Y, Z: p.Z})
		}
		dto.Segments = append(dto.Segments, segmentDTO{
			Type:       seg.Type,
			LineNumber: seg.LineNumber,
			ToolNumber: seg.ToolNumber,
			Points:     pts,
		})
	}
	return dto
}

// toCanalPlot flattens cr's segments into the domain.CanalPlot shape
// storage.Store persists, stamping every point in a segment with that
// segment's cumulative duration rather than interpolating within it.
func toCanalPlot(canalNr string, cr engine.CanalResult) domain.CanalPlot {
	plot := domain.CanalPlot{CanalNr: canalNr, ProgramExec: cr.ExecutedLines}
	cumT := 0.0
	for i, seg := range cr.Segments {
		if i < len(cr.Timing) {
			cumT += cr.Timing[i]
		}
		for _, p := range seg.Points {
			plot.Plot = append(plot.Plot, domain.PlotStep{X: p.X, Y: p.Y, Z: p.Z, T: cumT})
		}
	}
	return plot
}

// runRecordDTO is the GET /runs(/{id}) projection of a storage.Run.
type runRecordDTO struct {
	ID          string  `json:"id"`
	CanalNr     string  `json:"canalNr"`
	MachineName string  `json:"machineName"`
	Program     string  `json:"program"`
	Plot        plotDTO `json:"plot"`
	CreatedAt   string  `json:"createdAt"`
	Success     bool    `json:"success"`
}

type plotDTO struct {
	Steps       []pointDTO `json:"steps"`
	ProgramExec []int      `json:"programExec"`
}

func fromRun(run storage.Run) runRecordDTO {
	steps := make([]pointDTO, 0, len(run.Plot.Plot))
	for _, s := range run.Plot.Plot {
		steps = append(steps, pointDTO{X: s.X, Y: s.Y, Z: s.Z})
	}
	return runRecordDTO{
		ID:          run.ID,
		CanalNr:     run.CanalNr,
		MachineName: run.MachineName,
		Program:     run.Program,
		Plot:        plotDTO{Steps: steps, ProgramExec: run.Plot.ProgramExec},
		CreatedAt:   run.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		Success:     true,
	}
}

func fromRuns(runs []storage.Run) []runRecordDTO {
	out := make([]runRecordDTO, 0, len(runs))
	for _, r := range runs {
		out = append(out, fromRun(r))
	}
	return out
}

func fromDescriptors(descs []engine.MachineDescriptor) machinesResponse {
	out := machinesResponse{Success: true}
	for _, d := range descs {
		out.Machines = append(out.Machines, machineDescriptorDTO{
			MachineName:    d.MachineName,
			ControlType:    d.ControlType,
			VariablePrefix: d.VariablePrefix,
		})
	}
	return out
}
