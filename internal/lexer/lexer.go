// Package lexer turns one NC source line into a domain.CommandNode, or a
// structured domain/errors.CodeErrors value describing why it could not.
package lexer

import (
	"regexp"
	"strings"

	"github.com/ncplot7go/ncengine/internal/domain"
	ncerrors "github.com/ncplot7go/ncengine/internal/domain/errors"
)

// vendorCycleRE matches the vendor cycle/keyword names whose parenthesized
// argument list must be preserved as one opaque token rather than stripped
// as a comment (§4.1, and the parenthesis Open Question in §9).
var vendorCycleRE = regexp.MustCompile(`^(CYCLE\d*|POCKET\d*|SLOT\d*|LONGHOLE|HOLES\d*|MCALL|WORKPIECE|MSG|REPEAT)$`)

var assignmentRE = regexp.MustCompile(`^[A-Z][0-9]+=`)

var fanucAssignRE = regexp.MustCompile(`^#[0-9]+=`)

var loopKeywordRE = regexp.MustCompile(`GOTO|IF|WHILE|END|DO`)

const letterParams = "ABCNTSFDXYZRHUVWKLIQ"

// Parse lexes one NC line into a CommandNode. lineNr is the 1-based source
// index preserved for error reporting and programExec.
func Parse(line string, lineNr int) (*domain.CommandNode, error) {
	raw := line
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "/")

	tokens := tokenize(line)

	node := domain.NewCommandNode(lineNr)

	// A bare sigil reference ("#500" or "R500") with nothing else on the
	// block attaches the whole raw line to variable_command (§4.1). Rn is
	// only recognized here when it is the sole token, since R is otherwise
	// a legitimate arc-radius parameter.
	if len(tokens) == 1 && isBareVariableToken(tokens[0]) {
		full := tokens[0]
		node.VariableCommand = &full
		return node, nil
	}

	// Loop-control tokens (GOTO/IF/WHILE/DO/END) may share a block with
	// ordinary letter parameters (a DO's L count, a line's own N label);
	// pull those tokens aside into LoopCommand and let the remaining
	// tokens flow through the normal classification below.
	var loopParts []string
	var remaining []string
	for _, tok := range tokens {
		if loopKeywordRE.MatchString(tok) {
			loopParts = append(loopParts, tok)
		} else {
			remaining = append(remaining, tok)
		}
	}
	if len(loopParts) > 0 {
		lc := strings.Join(loopParts, " ")
		node.LoopCommand = &lc
	}
	tokens = remaining

	var variableParts []string
	dddpPending := false

	for _, tok := range tokens {
		switch {
		case dddpPending:
			node.DDDPCommand.Add(tok)
			dddpPending = false
		case strings.HasPrefix(tok, ","):
			dddpPending = true
		case strings.HasPrefix(tok, "\"") || isStringLiteral(tok):
			// string-literal tokens are folded into the preceding T="name"
			// handling inside tokenize; reaching here means a bare literal
			// with no key, which we drop as inert.
		case isNamedCycleCall(tok):
			// a vendor cycle/keyword call (CYCLE81(...), SLOT1(...), ...)
			// must reach node.VariableCommand whole, ahead of the generic
			// per-letter-parameter case below, since several of these
			// (SLOT, LONGHOLE, HOLES, WORKPIECE, REPEAT) start with a
			// letter that letterParams also claims as an axis/param key.
			// Appended rather than overwritten so a preceding bare "MCALL"
			// token (handled by the next case) combines with it into one
			// "MCALL CYCLE81(...)" VariableCommand.
			appendVariableCommand(node, tok)
		case vendorCycleRE.MatchString(strings.ToUpper(tok)):
			// a bare vendor keyword with no parenthesized argument list of
			// its own (MCALL, MSG, WORKPIECE, REPEAT, or a named cycle/
			// keyword referenced without "(...)"). Must be checked ahead
			// of the "M" and letterParams cases below: MCALL/MSG otherwise
			// corrupt the M-code parameter slot, and WORKPIECE/REPEAT/SLOT/
			// HOLES start with a letter letterParams also claims.
			appendVariableCommand(node, tok)
		case strings.HasPrefix(tok, "G"):
			node.GCodes.Add(tok)
		case assignmentRE.MatchString(tok), fanucAssignRE.MatchString(tok):
			variableParts = append(variableParts, tok)
		case strings.HasPrefix(tok, "#"):
			if len(node.GCodes) > 0 || len(node.Parameters) > 0 {
				return nil, ncerrors.NewCodeError(-3, lineNr, 1, raw, raw, "")
			}
			full := tok
			node.VariableCommand = &full
		case strings.HasPrefix(tok, "M"):
			if _, dup := node.Parameters["M"]; dup {
				col := strings.Index(raw, tok)
				return nil, ncerrors.NewCodeError(-2, lineNr, col, tok, raw, "")
			}
			node.Parameters["M"] = tok[1:]
		case len(tok) > 0 && strings.ContainsRune(letterParams, rune(tok[0])):
			key := tok[:1]
			if _, dup := node.Parameters[key]; dup {
				col := strings.Index(raw, tok)
				return nil, ncerrors.NewCodeError(-2, lineNr, col, tok, raw, "")
			}
			// Both the bare "X10" and the explicit "X=10" spellings appear
			// in NC source for single-letter parameters; normalize away an
			// optional leading "=" so downstream numeric parsing sees just
			// the value.
			node.Parameters[key] = strings.TrimPrefix(tok[1:], "=")
		case len(tok) > 0 && tok[0] >= 'a' && tok[0] <= 'z':
			col := strings.Index(raw, tok)
			return nil, ncerrors.NewCodeError(130, lineNr, col, tok, raw, "")
		}
	}

	if len(variableParts) > 0 {
		joined := strings.Join(variableParts, " ")
		node.VariableCommand = &joined
	}

	return node, nil
}

// isBareVariableToken reports whether tok is a standalone "#123" or "R123"
// variable reference (no "=", no trailing garbage).
func isBareVariableToken(tok string) bool {
	if len(tok) < 2 {
		return false
	}
	if tok[0] != '#' && tok[0] != 'R' {
		return false
	}
	for _, r := range tok[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// appendVariableCommand adds tok to node's VariableCommand, joining with a
// space if one is already staged. This lets a bare keyword token (e.g.
// "MCALL") and the parenthesized call that follows it on the same block
// (e.g. "CYCLE81(10, 0, 2, -10, 0)") combine into one "MCALL CYCLE81(...)"
// string instead of the later token silently overwriting the first.
func appendVariableCommand(node *domain.CommandNode, tok string) {
	if node.VariableCommand == nil {
		v := tok
		node.VariableCommand = &v
		return
	}
	joined := *node.VariableCommand + " " + tok
	node.VariableCommand = &joined
}

func isStringLiteral(tok string) bool {
	return strings.HasPrefix(tok, `"`) && strings.HasSuffix(tok, `"`)
}

// isNamedCycleCall reports whether tok is a vendor cycle/keyword call whose
// parenthesized argument list tokenize kept attached (e.g. "CYCLE81(10,2,-5)").
func isNamedCycleCall(tok string) bool {
	i := strings.IndexByte(tok, '(')
	if i <= 0 {
		return false
	}
	return vendorCycleRE.MatchString(strings.ToUpper(tok[:i]))
}

// tokenize splits a whitespace-and-comment-stripped line into tokens,
// preserving string literals and vendor-cycle parenthesis groups opaquely.
func tokenize(line string) []string {
	var tokens []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == ' ' || r == '\t':
			flush()
		case r == '"':
			// a literal right after "KEY=" stays in that key's token (T="name")
			if !strings.HasSuffix(current.String(), "=") {
				flush()
			}
			j := i + 1
			for j < len(runes) && runes[j] != '"' {
				j++
			}
			if j < len(runes) {
				current.WriteString(string(runes[i : j+1]))
				i = j
			} else {
				current.WriteString(string(runes[i:]))
				i = len(runes)
			}
			flush()
		case r == '(':
			pendingWord := current.String()
			j := i + 1
			depth := 1
			for j < len(runes) && depth > 0 {
				if runes[j] == '(' {
					depth++
				} else if runes[j] == ')' {
					depth--
				}
				j++
			}
			group := string(runes[i:j])
			if vendorCycleRE.MatchString(strings.ToUpper(pendingWord)) {
				current.WriteString(group)
			}
			// otherwise the parenthesized text is a comment: drop it.
			i = j - 1
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return tokens
}
