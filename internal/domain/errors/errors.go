// Package errors defines the NC engine's structured error model: a tagged
// sum of CodeErrors, CanalStarErrors and ControlError, all implementing
// NCError so callers can recover code/line/column/canal without a type
// switch on every call site.
package errors

import "fmt"

// NCError is the common surface of every structured engine error.
type NCError interface {
	error
	Code() int
	Line() int
	Column() int
	Canal() string
}

// CodeErrors covers lexer/parser and handler-level structural errors
// (duplicate parameters, modal conflicts, out-of-range tool, invalid arc).
type CodeErrors struct {
	CodeValue   int
	LineValue   int
	ColumnValue int
	Value       string
	Context     string
	CanalValue  string
	Message     string
}

// Error implements the error interface.
func (e *CodeErrors) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("code %d at line %d: %s", e.CodeValue, e.LineValue, e.Message)
	}
	return fmt.Sprintf("code %d at line %d (value %q)", e.CodeValue, e.LineValue, e.Value)
}

func (e *CodeErrors) Code() int      { return e.CodeValue }
func (e *CodeErrors) Line() int      { return e.LineValue }
func (e *CodeErrors) Column() int    { return e.ColumnValue }
func (e *CodeErrors) Canal() string  { return e.CanalValue }

// NewCodeError constructs a CodeErrors with a canonical message for code.
func NewCodeError(code, line, column int, value, context, canal string) *CodeErrors {
	return &CodeErrors{
		CodeValue:   code,
		LineValue:   line,
		ColumnValue: column,
		Value:       value,
		Context:     context,
		CanalValue:  canal,
		Message:     defaultMessage("CodeErrors", code),
	}
}

// CanalStarErrors covers multi-canal synchronizer failures: mismatched
// wait-codes at a sync point (202-207) or iteration-cap exceeded (208).
type CanalStarErrors struct {
	CodeValue  int
	LineValue  int
	Value      string
	Context    string
	CanalValue string
	Message    string
}

// Error implements the error interface.
func (e *CanalStarErrors) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("canal sync code %d (canal %s): %s", e.CodeValue, e.CanalValue, e.Message)
	}
	return fmt.Sprintf("canal sync code %d (canal %s, value %q)", e.CodeValue, e.CanalValue, e.Value)
}

func (e *CanalStarErrors) Code() int     { return e.CodeValue }
func (e *CanalStarErrors) Line() int     { return e.LineValue }
func (e *CanalStarErrors) Column() int   { return 0 }
func (e *CanalStarErrors) Canal() string { return e.CanalValue }

// NewCanalStarError constructs a CanalStarErrors with a canonical message.
func NewCanalStarError(code, line int, value, context, canal string) *CanalStarErrors {
	return &CanalStarErrors{
		CodeValue:  code,
		LineValue:  line,
		Value:      value,
		Context:    context,
		CanalValue: canal,
		Message:    defaultMessage("CanalStarErrors", code),
	}
}

// ControlError wraps any non-structured failure raised inside a handler
// (panics, unexpected nils) so it still carries line/canal context.
type ControlError struct {
	LineValue  int
	CanalValue string
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *ControlError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("control error at line %d (canal %s): %s: %v", e.LineValue, e.CanalValue, e.Message, e.Cause)
	}
	return fmt.Sprintf("control error at line %d (canal %s): %s", e.LineValue, e.CanalValue, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *ControlError) Unwrap() error { return e.Cause }

func (e *ControlError) Code() int     { return 0 }
func (e *ControlError) Line() int     { return e.LineValue }
func (e *ControlError) Column() int   { return 0 }
func (e *ControlError) Canal() string { return e.CanalValue }

// NewControlError wraps cause as a ControlError for the given line/canal.
func NewControlError(line int, canal, message string, cause error) *ControlError {
	return &ControlError{LineValue: line, CanalValue: canal, Message: message, Cause: cause}
}

// Localize resolves a localized message template for err from catalog,
// keyed by "<type>:<code>" (e.g. "CodeErrors:-2"), falling back to the
// error's own raw message when no template exists for the key.
func Localize(err NCError, catalog map[string]string) string {
	typeName := "ControlError"
	switch err.(type) {
	case *CodeErrors:
		typeName = "CodeErrors"
	case *CanalStarErrors:
		typeName = "CanalStarErrors"
	}
	key := fmt.Sprintf("%s:%d", typeName, err.Code())
	if tmpl, ok := catalog[key]; ok && tmpl != "" {
		return tmpl
	}
	return err.Error()
}

// defaultMessage returns the canonical English message for a (type, code)
// pair, mirroring the template keys used by Localize. Unknown codes fall
// back to an empty string so callers compose their own Error() text.
func defaultMessage(typeName string, code int) string {
	switch typeName {
	case "CodeErrors":
		switch code {
		case -2:
			return "duplication of parameter"
		case -3:
			return "bare variable mixed with parameters"
		case -102:
			return "invalid tool quadrant"
		case -104:
			return "conflicting cutter compensation direction"
		case -105:
			return "circular interpolation outside the XY plane is not supported"
		case -107:
			return "invalid tool radius"
		case -108:
			return "arc has zero chord length"
		case 100:
			return "conflicting speed mode"
		case 101:
			return "conflicting feed mode"
		case 110:
			return "conflicting polar mode"
		case 111:
			return "conflicting coordinate system"
		case 120:
			return "conflicting plane selection"
		case 130:
			return "lower-case parameter letter"
		case 200:
			return "tool number out of range"
		}
	case "CanalStarErrors":
		switch {
		case code == 208:
			return "synchronizer iteration cap exceeded"
		case code >= 202 && code <= 207:
			return "mismatched wait code at synchronization point"
		}
	}
	return ""
}
