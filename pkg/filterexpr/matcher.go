// Package filterexpr parses a small CEL-based filter and ordering dialect
// used for listing vocabulary and knowledge records. Filters are restricted
// to conjunctions of simple comparisons so that error messages stay
// precise; parsed filters evaluate against per-item attribute maps.
package filterexpr

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// Query wraps inputs that expose raw filter and order_by strings.
type Query interface {
	GetFilter() string
	GetOrderBy() string
}

// ValueKind describes the kind of literal value a field accepts.
type ValueKind string

const (
	KindString    ValueKind = "string"
	KindNumber    ValueKind = "number"
	KindTimestamp ValueKind = "timestamp"
)

// Op represents a supported comparison operation.
type Op string

const (
	OpEQ  Op = "=="
	OpGT  Op = ">"
	OpGTE Op = ">="
	OpLT  Op = "<"
	OpLTE Op = "<="
	OpSW  Op = "startsWith"
	OpIN  Op = "in"
)

// FilterField describes one filterable attribute and the operations allowed
// on it.
type FilterField struct {
	Kind ValueKind
	Ops  []Op
}

func (f FilterField) allows(op Op) bool {
	for _, allowed := range f.Ops {
		if allowed == op {
			return true
		}
	}
	return false
}

// Schema aggregates filtering and ordering rules for a listable resource.
type Schema struct {
	Filter map[string]FilterField
	Order  OrderSchema
}

type predicate struct {
	field string
	op    Op
	value any
}

// Matcher is a compiled filter: a conjunction of atomic predicates evaluated
// against an item's attribute map. The zero predicates matcher matches
// everything.
type Matcher struct {
	predicates []predicate
}

// Bind parses the query's filter and order_by against the schema, returning
// the compiled matcher and the effective ordering keys.
func Bind(q Query, schema Schema) (*Matcher, []OrderKey, error) {
	matcher, err := CompileFilter(q.GetFilter(), schema.Filter)
	if err != nil {
		return nil, nil, fmt.Errorf("filter: %w", err)
	}
	keys, err := parseOrderBy(q.GetOrderBy(), schema.Order)
	if err != nil {
		return nil, nil, fmt.Errorf("order_by: %w", err)
	}
	return matcher, keys, nil
}

// CompileFilter parses a CEL filter expression into a Matcher. An empty
// filter compiles to a match-all matcher.
func CompileFilter(filter string, fields map[string]FilterField) (*Matcher, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return &Matcher{}, nil
	}

	if len(fields) == 0 {
		return nil, errors.New("filter schema has no fields defined")
	}

	env, err := buildEnv(fields)
	if err != nil {
		return nil, err
	}

	ast, issues := env.Parse(filter)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid filter: %w", issues.Err())
	}

	parsed, err := cel.AstToParsedExpr(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to convert AST: %w", err)
	}
	conjuncts, err := extractConjuncts(parsed.GetExpr())
	if err != nil {
		return nil, err
	}

	matcher := &Matcher{predicates: make([]predicate, 0, len(conjuncts))}
	for _, expr := range conjuncts {
		pred, err := parseAtomicPredicate(expr)
		if err != nil {
			return nil, err
		}

		rule, ok := fields[pred.field]
		if !ok {
			return nil, fmt.Errorf("field %q is not allowed", pred.field)
		}
		if !rule.allows(pred.op) {
			return nil, fmt.Errorf("operator %q is not allowed for field %q", string(pred.op), pred.field)
		}
		if err := validateLiteral(rule.Kind, pred.op, pred.value); err != nil {
			return nil, fmt.Errorf("field %q: %w", pred.field, err)
		}

		matcher.predicates = append(matcher.predicates, pred)
	}

	return matcher, nil
}

// Match evaluates the compiled filter against one item's attributes. Every
// field referenced by the filter must be present in attrs; number attributes
// may be any integer or float type.
func (m *Matcher) Match(attrs map[string]any) (bool, error) {
	for _, pred := range m.predicates {
		value, ok := attrs[pred.field]
		if !ok {
			return false, fmt.Errorf("attribute %q missing from item", pred.field)
		}
		matched, err := evalPredicate(pred, value)
		if err != nil {
			return false, err
		}
		if !matched {
			return false, nil
		}
	}
	return true, nil
}

func evalPredicate(pred predicate, attr any) (bool, error) {
	switch want := pred.value.(type) {
	case string:
		got, ok := attr.(string)
		if !ok {
			return false, fmt.Errorf("attribute %q: expected string, got %T", pred.field, attr)
		}
		switch pred.op {
		case OpEQ:
			return got == want, nil
		case OpSW:
			return strings.HasPrefix(got, want), nil
		default:
			return false, fmt.Errorf("operator %q not applicable to strings", string(pred.op))
		}
	case []string:
		got, ok := attr.(string)
		if !ok {
			return false, fmt.Errorf("attribute %q: expected string, got %T", pred.field, attr)
		}
		for _, candidate := range want {
			if got == candidate {
				return true, nil
			}
		}
		return false, nil
	case float64:
		got, err := toFloat(attr)
		if err != nil {
			return false, fmt.Errorf("attribute %q: %w", pred.field, err)
		}
		return compareOrdered(pred.op, compareFloats(got, want))
	case time.Time:
		got, ok := attr.(time.Time)
		if !ok {
			return false, fmt.Errorf("attribute %q: expected time.Time, got %T", pred.field, attr)
		}
		return compareOrdered(pred.op, compareTimes(got, want))
	default:
		return false, fmt.Errorf("unsupported literal type %T", pred.value)
	}
}

func compareOrdered(op Op, cmp int) (bool, error) {
	switch op {
	case OpEQ:
		return cmp == 0, nil
	case OpGT:
		return cmp > 0, nil
	case OpGTE:
		return cmp >= 0, nil
	case OpLT:
		return cmp < 0, nil
	case OpLTE:
		return cmp <= 0, nil
	default:
		return false, fmt.Errorf("operator %q not applicable to ordered values", string(op))
	}
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("expected numeric value, got %T", value)
	}
}

func buildEnv(fields map[string]FilterField) (*cel.Env, error) {
	opts := make([]cel.EnvOption, 0, len(fields))
	for name, rule := range fields {
		celType, err := celTypeForKind(rule.Kind)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		opts = append(opts, cel.Variable(name, celType))
	}
	opts = append(opts, cel.CrossTypeNumericComparisons(true))

	// NOTE: cel-go v0.26.1 does not export an EnvOption for variadic logical operators.
	// We accept the default binary AST shape and flatten nested AND chains in extractConjuncts.
	return cel.NewEnv(opts...)
}

func celTypeForKind(kind ValueKind) (*cel.Type, error) {
	switch kind {
	case KindString:
		return cel.StringType, nil
	case KindNumber:
		return cel.DoubleType, nil
	case KindTimestamp:
		return cel.TimestampType, nil
	default:
		return nil, fmt.Errorf("unsupported field kind %s", kind)
	}
}

func extractConjuncts(expr *exprpb.Expr) ([]*exprpb.Expr, error) {
	if expr == nil {
		return nil, errors.New("empty expression")
	}

	call := expr.GetCallExpr()
	if call == nil {
		return []*exprpb.Expr{expr}, nil
	}

	switch call.Function {
	case "_&&_":
		if len(call.Args) < 2 || call.Target != nil {
			return nil, errors.New("logical AND must have at least two operands")
		}
		var result []*exprpb.Expr
		for _, arg := range call.Args {
			conjuncts, err := extractConjuncts(arg)
			if err != nil {
				return nil, err
			}
			result = append(result, conjuncts...)
		}
		return result, nil
	case "_||_", "_?_:_", "!":
		return nil, fmt.Errorf("logical operator %q is not supported; only AND is allowed", call.Function)
	default:
		return []*exprpb.Expr{expr}, nil
	}
}

func parseAtomicPredicate(expr *exprpb.Expr) (predicate, error) {
	call := expr.GetCallExpr()
	if call == nil {
		return predicate{}, errors.New("unsupported expression; expected comparison or function call")
	}

	switch call.Function {
	case "_==_":
		return parseBinaryPredicate(call, OpEQ)
	case "_>_":
		return parseBinaryPredicate(call, OpGT)
	case "_>=_":
		return parseBinaryPredicate(call, OpGTE)
	case "_<_":
		return parseBinaryPredicate(call, OpLT)
	case "_<=_":
		return parseBinaryPredicate(call, OpLTE)
	case "_in_", "@in":
		return parseInPredicate(call)
	case "startsWith":
		return parseStartsWith(call)
	default:
		return predicate{}, fmt.Errorf("function %q is not supported", call.Function)
	}
}

func parseBinaryPredicate(call *exprpb.Expr_Call, op Op) (predicate, error) {
	if call.Target != nil || len(call.Args) != 2 {
		return predicate{}, fmt.Errorf("operator %q expects two operands", string(op))
	}

	fieldName, err := parseFieldIdent(call.Args[0])
	if err != nil {
		return predicate{}, err
	}

	value, err := parseLiteral(call.Args[1])
	if err != nil {
		return predicate{}, err
	}

	return predicate{field: fieldName, op: op, value: value}, nil
}

func parseInPredicate(call *exprpb.Expr_Call) (predicate, error) {
	var fieldExpr *exprpb.Expr
	var listExpr *exprpb.Expr

	if call.Target != nil {
		if len(call.Args) != 1 {
			return predicate{}, errors.New("in operator with receiver must have exactly one argument")
		}
		listExpr = call.Target
		fieldExpr = call.Args[0]
	} else {
		if len(call.Args) != 2 {
			return predicate{}, errors.New("in operator expects two operands")
		}
		fieldExpr = call.Args[0]
		listExpr = call.Args[1]
	}

	fieldName, err := parseFieldIdent(fieldExpr)
	if err != nil {
		return predicate{}, err
	}

	value, err := parseLiteral(listExpr)
	if err != nil {
		return predicate{}, err
	}

	return predicate{field: fieldName, op: OpIN, value: value}, nil
}

func parseStartsWith(call *exprpb.Expr_Call) (predicate, error) {
	var fieldExpr *exprpb.Expr
	var valueExpr *exprpb.Expr

	if call.Target != nil {
		if len(call.Args) != 1 {
			return predicate{}, errors.New("startsWith with receiver must have exactly one argument")
		}
		fieldExpr = call.Target
		valueExpr = call.Args[0]
	} else {
		if len(call.Args) != 2 {
			return predicate{}, errors.New("startsWith must have exactly two arguments")
		}
		fieldExpr = call.Args[0]
		valueExpr = call.Args[1]
	}

	fieldName, err := parseFieldIdent(fieldExpr)
	if err != nil {
		return predicate{}, err
	}

	value, err := parseLiteral(valueExpr)
	if err != nil {
		return predicate{}, err
	}

	str, ok := value.(string)
	if !ok {
		return predicate{}, errors.New("startsWith requires a string literal argument")
	}

	return predicate{field: fieldName, op: OpSW, value: str}, nil
}

func parseFieldIdent(expr *exprpb.Expr) (string, error) {
	ident := expr.GetIdentExpr()
	if ident == nil {
		return "", errors.New("left-hand side must be an identifier")
	}
	return ident.GetName(), nil
}

func parseLiteral(expr *exprpb.Expr) (any, error) {
	if constant := expr.GetConstExpr(); constant != nil {
		switch constant.ConstantKind.(type) {
		case *exprpb.Constant_StringValue:
			return constant.GetStringValue(), nil
		case *exprpb.Constant_Int64Value:
			return float64(constant.GetInt64Value()), nil
		case *exprpb.Constant_Uint64Value:
			return float64(constant.GetUint64Value()), nil
		case *exprpb.Constant_DoubleValue:
			return constant.GetDoubleValue(), nil
		default:
			return nil, fmt.Errorf("literal type %T is not supported", constant.ConstantKind)
		}
	}

	if list := expr.GetListExpr(); list != nil {
		elements := list.GetElements()
		values := make([]string, len(elements))
		for i, elem := range elements {
			val, err := parseLiteral(elem)
			if err != nil {
				return nil, fmt.Errorf("list literal element %d: %w", i, err)
			}
			str, ok := val.(string)
			if !ok {
				return nil, errors.New("list literal elements must be strings")
			}
			values[i] = str
		}
		return values, nil
	}

	if call := expr.GetCallExpr(); call != nil && call.Function == "timestamp" {
		if call.Target != nil || len(call.Args) != 1 {
			return nil, errors.New("timestamp() expects a single string argument")
		}
		arg := call.Args[0].GetConstExpr()
		if arg == nil {
			return nil, errors.New("timestamp() argument must be a string literal")
		}
		str := arg.GetStringValue()
		if str == "" {
			return time.Time{}, errors.New("timestamp() argument must not be empty")
		}

		if t, err := time.Parse(time.RFC3339Nano, str); err == nil {
			return t, nil
		} else if t, err := time.Parse(time.RFC3339, str); err == nil {
			return t, nil
		} else {
			return nil, fmt.Errorf("timestamp literal %q is not RFC3339", str)
		}
	}

	return nil, errors.New("right-hand side must be a literal, list literal, or timestamp() call")
}

func validateLiteral(kind ValueKind, op Op, value any) error {
	switch kind {
	case KindString:
		switch op {
		case OpIN:
			list, ok := value.([]string)
			if !ok {
				return fmt.Errorf("expected list of %s literals", kind)
			}
			if len(list) == 0 {
				return errors.New("list literal must not be empty")
			}
			for _, item := range list {
				if item == "" {
					return errors.New("list literal must not contain empty strings")
				}
			}
		default:
			if _, ok := value.(string); !ok {
				return fmt.Errorf("expected %s literal", kind)
			}
		}
	case KindNumber:
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("expected %s literal", kind)
		}
	case KindTimestamp:
		if _, ok := value.(time.Time); !ok {
			return fmt.Errorf("expected %s literal", kind)
		}
	default:
		return fmt.Errorf("unsupported field kind %s", kind)
	}
	return nil
}
