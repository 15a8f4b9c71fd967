package paramprog

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/OpenTraceLab/OpenTracePool/pkg/parameter"
)

// baseCommands are available to every program regardless of its owner.
var baseCommands = CommandTable{
	"+":   binary(func(a, b int64) (int64, error) { return a + b, nil }),
	"-":   binary(func(a, b int64) (int64, error) { return a - b, nil }),
	"*":   binary(func(a, b int64) (int64, error) { return a * b, nil }),
	"/":   binary(divide),
	"min": binary(func(a, b int64) (int64, error) { return min(a, b), nil }),
	"max": binary(func(a, b int64) (int64, error) { return max(a, b), nil }),
	"neg": unary(func(a int64) int64 { return -a }),
	"abs": unary(func(a int64) int64 {
		if a < 0 {
			return -a
		}
		return a
	}),
	"dup":           dup,
	"swap":          swap,
	"drop":          drop,
	"dump":          dump,
	"get-parameter": getParameter,
}

// BaseCommandNames lists the generic commands.
func BaseCommandNames() []string {
	names := make([]string, 0, len(baseCommands))
	for n := range baseCommands {
		names = append(names, n)
	}
	return names
}

func binary(fn func(a, b int64) (int64, error)) Handler {
	return func(m *Machine, _ []Argument) error {
		b, err := m.Pop()
		if err != nil {
			return err
		}
		a, err := m.Pop()
		if err != nil {
			return err
		}
		v, err := fn(a, b)
		if err != nil {
			return err
		}
		m.Push(v)
		return nil
	}
}

func unary(fn func(a int64) int64) Handler {
	return func(m *Machine, _ []Argument) error {
		a, err := m.Pop()
		if err != nil {
			return err
		}
		m.Push(fn(a))
		return nil
	}
}

func divide(a, b int64) (int64, error) {
	if b == 0 {
		return 0, errors.New("division by zero")
	}
	return a / b, nil
}

func dup(m *Machine, _ []Argument) error {
	v, err := m.Pop()
	if err != nil {
		return err
	}
	m.Push(v)
	m.Push(v)
	return nil
}

func swap(m *Machine, _ []Argument) error {
	b, err := m.Pop()
	if err != nil {
		return err
	}
	a, err := m.Pop()
	if err != nil {
		return err
	}
	m.Push(b)
	m.Push(a)
	return nil
}

func drop(m *Machine, _ []Argument) error {
	_, err := m.Pop()
	return err
}

func dump(m *Machine, _ []Argument) error {
	slog.Debug("parameter program stack", "stack", m.Stack)
	return nil
}

// getParameter pushes the value of the named parameter.
// Usage: get-parameter [ courtyard_expansion ]
func getParameter(m *Machine, args []Argument) error {
	if len(args) != 1 || args[0].IsNumber {
		return errors.New("expected one parameter name")
	}
	id := parameter.IDFromName(args[0].Word)
	if id == parameter.Invalid {
		return fmt.Errorf("unknown parameter %s", args[0].Word)
	}
	v, ok := m.Params[id]
	if !ok {
		return fmt.Errorf("parameter %s not set", args[0].Word)
	}
	m.Push(v)
	return nil
}
