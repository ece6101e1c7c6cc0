// Package bindings builds and compiles the reactive binding expressions the
// converter pipeline emits. Expressions are constructed as a small immutable
// tree with constant folding at construction time, so statically decidable
// visibility/enablement collapses to plain true/false before compilation.
package bindings

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tags the closed union of expression nodes.
type Kind int

const (
	KindConstant Kind = iota
	KindPath
	KindNot
	KindAnd
	KindOr
	KindEqual
	KindNotEqual
	KindIfElse
	KindConcat
	KindFormatter
	KindRaw
)

// Expression is one node of an expression tree. Values are immutable after
// construction; the zero value is the constant false.
type Expression struct {
	kind     Kind
	constant any
	model    string
	path     string
	operands []Expression
	module   string
	function string
}

// Constant wraps a literal value.
func Constant(v any) Expression {
	return Expression{kind: KindConstant, constant: v}
}

// True and False are the folded boolean constants.
func True() Expression  { return Constant(true) }
func False() Expression { return Constant(false) }

// PathInModel references a model property. The optional model name targets a
// named model ("ui", "internal"); empty means the default model.
func PathInModel(path string, model ...string) Expression {
	e := Expression{kind: KindPath, path: path}
	if len(model) > 0 {
		e.model = model[0]
	}
	return e
}

// Raw wraps an already-compiled binding string, typically manifest-authored.
// Raw nodes compile verbatim and embed on a best-effort basis.
func Raw(s string) Expression {
	return Expression{kind: KindRaw, path: s}
}

// Parse maps a manifest-authored binding string onto the expression tree:
// boolean literals fold to constants, simple bindings to path nodes, anything
// else stays raw.
func Parse(s string) Expression {
	switch s {
	case "true":
		return True()
	case "false":
		return False()
	case "":
		return True()
	}
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") &&
		!strings.HasPrefix(s, "{=") && !strings.Contains(s, " ") {
		inner := s[1 : len(s)-1]
		if idx := strings.Index(inner, ">"); idx >= 0 {
			return PathInModel(inner[idx+1:], inner[:idx])
		}
		return PathInModel(inner)
	}
	return Raw(s)
}

// Kind returns the node tag.
func (e Expression) Kind() Kind {
	return e.kind
}

// Path returns the referenced model path for path nodes, "" otherwise.
func (e Expression) Path() string {
	if e.kind != KindPath {
		return ""
	}
	if e.model != "" {
		return e.model + ">" + e.path
	}
	return e.path
}

// IsConstant returns the literal payload when the expression folded to a
// constant.
func (e Expression) IsConstant() (any, bool) {
	if e.kind == KindConstant {
		return e.constant, true
	}
	return nil, false
}

// IsTrue reports a folded constant true.
func (e Expression) IsTrue() bool {
	v, ok := e.IsConstant()
	return ok && v == true
}

// IsFalse reports a folded constant false.
func (e Expression) IsFalse() bool {
	v, ok := e.IsConstant()
	return ok && v == false
}

// Equal builds a comparison, folding when both sides are constant.
func Equal(a, b Expression) Expression {
	if av, aok := a.IsConstant(); aok {
		if bv, bok := b.IsConstant(); bok {
			return Constant(av == bv)
		}
	}
	if ExpressionsEqual(a, b) {
		return True()
	}
	return Expression{kind: KindEqual, operands: []Expression{a, b}}
}

// NotEqual builds a negated comparison, folding when both sides are constant.
func NotEqual(a, b Expression) Expression {
	if av, aok := a.IsConstant(); aok {
		if bv, bok := b.IsConstant(); bok {
			return Constant(av != bv)
		}
	}
	if ExpressionsEqual(a, b) {
		return False()
	}
	return Expression{kind: KindNotEqual, operands: []Expression{a, b}}
}

// Not negates an expression, folding constants and double negation.
func Not(e Expression) Expression {
	if v, ok := e.IsConstant(); ok {
		if b, isBool := v.(bool); isBool {
			return Constant(!b)
		}
	}
	if e.kind == KindNot {
		return e.operands[0]
	}
	return Expression{kind: KindNot, operands: []Expression{e}}
}

// And conjoins operands. Literal true operands are dropped, a literal false
// short-circuits the whole expression, nested Ands are flattened and duplicate
// operands collapsed. Zero surviving operands yield true.
func And(operands ...Expression) Expression {
	return nAry(KindAnd, true, operands)
}

// Or disjoins operands with the dual folding rules of And.
func Or(operands ...Expression) Expression {
	return nAry(KindOr, false, operands)
}

func nAry(kind Kind, identity bool, operands []Expression) Expression {
	var kept []Expression
	for _, op := range operands {
		if v, ok := op.IsConstant(); ok {
			if b, isBool := v.(bool); isBool {
				if b == identity {
					continue
				}
				return Constant(!identity)
			}
		}
		if op.kind == kind {
			kept = append(kept, op.operands...)
			continue
		}
		kept = appendUnique(kept, op)
	}
	switch len(kept) {
	case 0:
		return Constant(identity)
	case 1:
		return kept[0]
	}
	return Expression{kind: kind, operands: kept}
}

func appendUnique(list []Expression, e Expression) []Expression {
	for _, existing := range list {
		if ExpressionsEqual(existing, e) {
			return list
		}
	}
	return append(list, e)
}

// IfElse builds a conditional, folding to a branch when the condition is a
// constant and to the condition itself for the true/false branch shape.
func IfElse(condition, onTrue, onFalse Expression) Expression {
	if v, ok := condition.IsConstant(); ok {
		if b, isBool := v.(bool); isBool {
			if b {
				return onTrue
			}
			return onFalse
		}
	}
	if onTrue.IsTrue() && onFalse.IsFalse() {
		return condition
	}
	if onTrue.IsFalse() && onFalse.IsTrue() {
		return Not(condition)
	}
	if ExpressionsEqual(onTrue, onFalse) {
		return onTrue
	}
	return Expression{kind: KindIfElse, operands: []Expression{condition, onTrue, onFalse}}
}

// Concat joins string expressions; adjacent constants merge.
func Concat(operands ...Expression) Expression {
	var kept []Expression
	for _, op := range operands {
		if v, ok := op.IsConstant(); ok {
			if s, isString := v.(string); isString && len(kept) > 0 {
				if prev, prevOk := kept[len(kept)-1].IsConstant(); prevOk {
					if ps, psOk := prev.(string); psOk {
						kept[len(kept)-1] = Constant(ps + s)
						continue
					}
				}
			}
		}
		kept = append(kept, op)
	}
	if len(kept) == 1 {
		return kept[0]
	}
	return Expression{kind: KindConcat, operands: kept}
}

// Formatter defers evaluation to a runtime formatter function identified by
// module and name.
func Formatter(module, function string, args ...Expression) Expression {
	return Expression{kind: KindFormatter, module: module, function: function, operands: args}
}

// ExpressionsEqual reports structural equality of two expression trees.
func ExpressionsEqual(a, b Expression) bool {
	if a.kind != b.kind || a.constant != b.constant || a.model != b.model ||
		a.path != b.path || a.module != b.module || a.function != b.function ||
		len(a.operands) != len(b.operands) {
		return false
	}
	for i := range a.operands {
		if !ExpressionsEqual(a.operands[i], b.operands[i]) {
			return false
		}
	}
	return true
}

// Compile renders an expression to the binding string the target renderer
// understands: bare paths become simple bindings, constants their literal
// form, anything composite a complex binding wrapped in "{= ...}".
func Compile(e Expression) string {
	switch e.kind {
	case KindConstant:
		return constantString(e.constant)
	case KindPath:
		return "{" + e.Path() + "}"
	case KindRaw:
		return e.path
	default:
		return "{= " + embed(e) + "}"
	}
}

func constantString(v any) string {
	switch tv := v.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(tv)
	case string:
		return tv
	case int:
		return strconv.Itoa(tv)
	case int64:
		return strconv.FormatInt(tv, 10)
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", tv)
	}
}

// embed renders a node in complex-binding position.
func embed(e Expression) string {
	switch e.kind {
	case KindConstant:
		if s, ok := e.constant.(string); ok {
			return "'" + strings.ReplaceAll(s, "'", "\\'") + "'"
		}
		return constantString(e.constant)
	case KindPath:
		return "${" + e.Path() + "}"
	case KindNot:
		return "!(" + embed(e.operands[0]) + ")"
	case KindAnd:
		return joinOperands(e.operands, " && ")
	case KindOr:
		return joinOperands(e.operands, " || ")
	case KindEqual:
		return "(" + embed(e.operands[0]) + " === " + embed(e.operands[1]) + ")"
	case KindNotEqual:
		return "(" + embed(e.operands[0]) + " !== " + embed(e.operands[1]) + ")"
	case KindIfElse:
		return "(" + embed(e.operands[0]) + " ? " + embed(e.operands[1]) + " : " + embed(e.operands[2]) + ")"
	case KindConcat:
		return joinOperands(e.operands, " + ")
	case KindRaw:
		s := e.path
		if strings.HasPrefix(s, "{= ") && strings.HasSuffix(s, "}") {
			return "(" + strings.TrimSuffix(strings.TrimPrefix(s, "{= "), "}") + ")"
		}
		if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
			return "$" + s
		}
		return "'" + strings.ReplaceAll(s, "'", "\\'") + "'"
	case KindFormatter:
		args := make([]string, 0, len(e.operands))
		for _, op := range e.operands {
			args = append(args, embed(op))
		}
		return e.module + "." + e.function + "(" + strings.Join(args, ", ") + ")"
	default:
		return "false"
	}
}

func joinOperands(operands []Expression, sep string) string {
	parts := make([]string, 0, len(operands))
	for _, op := range operands {
		parts = append(parts, embed(op))
	}
	return "(" + strings.Join(parts, sep) + ")"
}
