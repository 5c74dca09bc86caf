// Package tree reads and writes flat event tables from ROOT trees and CSV.
package tree

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrMissingColumn  = errors.New("tree: missing column")
	ErrMissingTree    = errors.New("tree: no such tree")
	ErrLengthMismatch = errors.New("tree: column length mismatch")
	ErrColumnSet      = errors.New("tree: tables have different columns")
	ErrFormat         = errors.New("tree: unsupported file format")
)

// Table holds equally long float64 columns in insertion order.
type Table struct {
	names []string
	cols  map[string][]float64
	n     int
}

func NewTable() *Table {
	return &Table{cols: make(map[string][]float64)}
}

func (t *Table) Len() int { return t.n }

func (t *Table) Names() []string { return append([]string(nil), t.names...) }

func (t *Table) Has(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// Column returns the named column without copying.
func (t *Table) Column(name string) ([]float64, error) {
	c, ok := t.cols[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
	}
	return c, nil
}

// Set adds or replaces a column. The first column fixes the table length.
func (t *Table) Set(name string, vals []float64) error {
	resize := len(t.names) == 0 || (len(t.names) == 1 && t.Has(name))
	if !resize && len(vals) != t.n {
		return fmt.Errorf("%w: %s has %d rows, table has %d", ErrLengthMismatch, name, len(vals), t.n)
	}
	if !t.Has(name) {
		t.names = append(t.names, name)
	}
	t.cols[name] = vals
	t.n = len(vals)
	return nil
}

// Append concatenates the rows of o, which must have the same column set.
func (t *Table) Append(o *Table) error {
	if len(t.names) == 0 {
		for _, name := range o.names {
			t.names = append(t.names, name)
			t.cols[name] = append([]float64(nil), o.cols[name]...)
		}
		t.n = o.n
		return nil
	}
	if !sameColumns(t.names, o.names) {
		return ErrColumnSet
	}
	for _, name := range t.names {
		t.cols[name] = append(t.cols[name], o.cols[name]...)
	}
	t.n += o.n
	return nil
}

// Row returns event i in column order.
func (t *Table) Row(i int) []float64 {
	row := make([]float64, len(t.names))
	for j, name := range t.names {
		row[j] = t.cols[name][i]
	}
	return row
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]string(nil), a...)
	y := append([]string(nil), b...)
	sort.Strings(x)
	sort.Strings(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
