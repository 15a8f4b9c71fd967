// Package kicadsexp is a streaming S-expression reader for KiCad files.
// Atoms keep their text, quoted or not; lists keep their children in order.
package kicadsexp

import (
	"io"
	"strings"
)

// Sexp is an S-expression node: a Symbol or a *List.
type Sexp interface {
	IsLeaf() bool
	String() string
}

// Symbol is an atom: a keyword, number or string.
type Symbol string

func (s Symbol) IsLeaf() bool   { return true }
func (s Symbol) String() string { return string(s) }

// List is a parenthesized sequence of nodes.
type List struct {
	Line     int
	elements []Sexp
}

func (l *List) IsLeaf() bool { return false }

func (l *List) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, e := range l.elements {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(e.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Len returns the number of elements.
func (l *List) Len() int {
	return len(l.elements)
}

// Get returns the element at index, or nil when out of range.
func (l *List) Get(index int) Sexp {
	if index < 0 || index >= len(l.elements) {
		return nil
	}
	return l.elements[index]
}

// Items returns the elements. The slice must not be modified.
func (l *List) Items() []Sexp {
	return l.elements
}

// Keyword returns the leading symbol of the list, or "".
func (l *List) Keyword() string {
	if len(l.elements) == 0 {
		return ""
	}
	if s, ok := l.elements[0].(Symbol); ok {
		return string(s)
	}
	return ""
}

// NewList builds a list from elements.
func NewList(elements ...Sexp) *List {
	return &List{elements: elements}
}

// Parse reads every top-level expression from r.
func Parse(r io.Reader) ([]Sexp, error) {
	return NewParser(r).ParseAll()
}

// ParseString reads every top-level expression from s.
func ParseString(s string) ([]Sexp, error) {
	return Parse(strings.NewReader(s))
}
