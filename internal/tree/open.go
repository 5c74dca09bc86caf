package tree

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Reader loads one file into a Table.
type Reader interface {
	Read(path string) (*Table, error)
}

// ReaderFor picks a reader by file extension.
func ReaderFor(path, treeName string) (Reader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".root":
		return ROOTReader{Tree: treeName}, nil
	case ".csv":
		return CSVReader{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrFormat, path)
}

// Open reads path with the reader its extension selects.
func Open(path, treeName string) (*Table, error) {
	r, err := ReaderFor(path, treeName)
	if err != nil {
		return nil, err
	}
	return r.Read(path)
}

// Write stores t as CSV or ROOT by extension.
func Write(path, treeName string, t *Table) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".root":
		return WriteROOT(path, treeName, t)
	case ".csv":
		return WriteCSV(path, t)
	}
	return fmt.Errorf("%w: %s", ErrFormat, path)
}

// ReadAll reads and appends several files.
func ReadAll(r Reader, paths ...string) (*Table, error) {
	out := NewTable()
	for _, p := range paths {
		t, err := r.Read(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		if err := out.Append(t); err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	return out, nil
}
