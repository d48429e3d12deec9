package locals

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoEvaluator indicates no watch evaluator could be resolved.
	ErrNoEvaluator = errors.New("locals: evaluator not configured")
	// ErrEmptyExpression indicates a watch expression was blank.
	ErrEmptyExpression = errors.New("locals: expression must not be empty")
)

// UnrepresentableError describes a value whose type could not produce a
// textual representation. The serializer substitutes a placeholder for it and
// keeps going.
type UnrepresentableError struct {
	Type string
	Err  error
}

func (e *UnrepresentableError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("locals: unrepresentable %s: %v", e.Type, e.Err)
}

func (e *UnrepresentableError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// EvaluationError captures evaluator metadata alongside the originating error.
type EvaluationError struct {
	Engine string
	Expr   string
	Frame  string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("locals: %s evaluator %s frame=%s: %v", e.Engine, describeExpression(e.Expr), e.Frame, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "locals:") {
		return err
	}
	return fmt.Errorf("locals: %s evaluator: %w", engine, err)
}

func wrapEvaluationError(engine, expr, frame string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Frame == "" {
			evalErr.Frame = frame
		}
		return evalErr
	}

	return &EvaluationError{
		Engine: engine,
		Expr:   expr,
		Frame:  frame,
		Err:    err,
	}
}
