package expression

import (
	"fmt"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Engine is a wrapper around expr-lang/expr used to evaluate row-filter
// expressions against the current table. Expressions see the row as a
// `row` map of column key to formatted value, e.g.
//
//	row["milestone"] == "Q3" && CONTAINS(row["system"], "Billing")
type Engine struct {
	programCache map[string]*vm.Program
	mu           sync.RWMutex
}

// NewEngine creates a new expression engine
func NewEngine() *Engine {
	return &Engine{programCache: make(map[string]*vm.Program)}
}

// EvaluateCondition compiles (if needed) and runs an expression against one
// row, coercing the result to a boolean
func (e *Engine) EvaluateCondition(expression string, row map[string]string) (bool, error) {
	program, err := e.getProgram(expression)
	if err != nil {
		return false, err
	}

	env := map[string]interface{}{"row": row}
	output, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}

	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("expression did not evaluate to a boolean: %q", expression)
	}
	return result, nil
}

// Validate reports whether an expression compiles
func (e *Engine) Validate(expression string) error {
	_, err := e.getProgram(expression)
	return err
}

func (e *Engine) getProgram(expression string) (*vm.Program, error) {
	e.mu.RLock()
	if prog, ok := e.programCache[expression]; ok {
		e.mu.RUnlock()
		return prog, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Double check
	if prog, ok := e.programCache[expression]; ok {
		return prog, nil
	}

	options := []expr.Option{
		expr.AllowUndefinedVariables(),
		expr.Function("CONTAINS", func(params ...interface{}) (interface{}, error) {
			a, b, err := twoStrings("CONTAINS", params)
			if err != nil {
				return nil, err
			}
			return strings.Contains(strings.ToLower(a), strings.ToLower(b)), nil
		}),
		expr.Function("STARTS_WITH", func(params ...interface{}) (interface{}, error) {
			a, b, err := twoStrings("STARTS_WITH", params)
			if err != nil {
				return nil, err
			}
			return strings.HasPrefix(strings.ToLower(a), strings.ToLower(b)), nil
		}),
		expr.Function("ENDS_WITH", func(params ...interface{}) (interface{}, error) {
			a, b, err := twoStrings("ENDS_WITH", params)
			if err != nil {
				return nil, err
			}
			return strings.HasSuffix(strings.ToLower(a), strings.ToLower(b)), nil
		}),
		expr.Function("UPPER", func(params ...interface{}) (interface{}, error) {
			s, err := oneString("UPPER", params)
			if err != nil {
				return nil, err
			}
			return strings.ToUpper(s), nil
		}),
		expr.Function("LOWER", func(params ...interface{}) (interface{}, error) {
			s, err := oneString("LOWER", params)
			if err != nil {
				return nil, err
			}
			return strings.ToLower(s), nil
		}),
	}

	program, err := expr.Compile(expression, options...)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}

	e.programCache[expression] = program
	return program, nil
}

func oneString(name string, params []interface{}) (string, error) {
	if len(params) != 1 {
		return "", fmt.Errorf("%s requires 1 argument", name)
	}
	s, ok := params[0].(string)
	if !ok {
		return "", fmt.Errorf("%s argument must be string", name)
	}
	return s, nil
}

func twoStrings(name string, params []interface{}) (string, string, error) {
	if len(params) != 2 {
		return "", "", fmt.Errorf("%s requires 2 arguments", name)
	}
	a, aok := params[0].(string)
	b, bok := params[1].(string)
	if !aok || !bok {
		return "", "", fmt.Errorf("%s arguments must be strings", name)
	}
	return a, b, nil
}
