package tree

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// CSVReader reads a header row followed by numeric rows.
type CSVReader struct{}

func (CSVReader) Read(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	t := NewTable()
	if len(records) == 0 {
		return t, nil
	}

	header := records[0]
	cols := make([][]float64, len(header))
	for i := range cols {
		cols[i] = make([]float64, 0, len(records)-1)
	}
	for line, rec := range records[1:] {
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("tree: line %d column %s: %w", line+2, header[j], err)
			}
			cols[j] = append(cols[j], v)
		}
	}
	for j, name := range header {
		if err := t.Set(name, cols[j]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func WriteCSV(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Names()); err != nil {
		return err
	}
	row := make([]string, len(t.names))
	for i := 0; i < t.n; i++ {
		for j, name := range t.names {
			row[j] = strconv.FormatFloat(t.cols[name][i], 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
