package tree

import (
	"fmt"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"
)

// DefaultTree is the tree name RapidSim writes.
const DefaultTree = "DecayTree"

// ROOTReader reads every scalar numeric branch of a TTree.
type ROOTReader struct {
	Tree string
}

func (r ROOTReader) Read(path string) (*Table, error) {
	name := r.Tree
	if name == "" {
		name = DefaultTree
	}

	f, err := groot.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	obj, err := f.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s in %s", ErrMissingTree, name, path)
	}
	t, ok := obj.(rtree.Tree)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s is a %s", ErrMissingTree, name, path, obj.Class())
	}

	var rvars []rtree.ReadVar
	for _, rv := range rtree.NewReadVars(t) {
		if _, ok := scalar(rv.Value); ok {
			rvars = append(rvars, rv)
		}
	}

	n := t.Entries()
	cols := make([][]float64, len(rvars))
	for i := range cols {
		cols[i] = make([]float64, 0, n)
	}

	rd, err := rtree.NewReader(t, rvars)
	if err != nil {
		return nil, err
	}
	defer rd.Close()

	err = rd.Read(func(rtree.RCtx) error {
		for i, rv := range rvars {
			v, _ := scalar(rv.Value)
			cols[i] = append(cols[i], v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := NewTable()
	for i, rv := range rvars {
		if err := out.Set(rv.Name, cols[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func scalar(v any) (float64, bool) {
	switch p := v.(type) {
	case *float64:
		return *p, true
	case *float32:
		return float64(*p), true
	case *int8:
		return float64(*p), true
	case *int16:
		return float64(*p), true
	case *int32:
		return float64(*p), true
	case *int64:
		return float64(*p), true
	case *uint8:
		return float64(*p), true
	case *uint16:
		return float64(*p), true
	case *uint32:
		return float64(*p), true
	case *uint64:
		return float64(*p), true
	case *bool:
		if *p {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// WriteROOT stores t as a tree of float64 branches.
func WriteROOT(path, treeName string, t *Table) error {
	if treeName == "" {
		treeName = DefaultTree
	}
	f, err := groot.Create(path)
	if err != nil {
		return err
	}
	if err := writeTree(f, treeName, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeTree(dir riofs.Directory, name string, t *Table) error {
	names := t.Names()
	vals := make([]float64, len(names))
	wvars := make([]rtree.WriteVar, len(names))
	for i, n := range names {
		wvars[i] = rtree.WriteVar{Name: n, Value: &vals[i]}
	}

	w, err := rtree.NewWriter(dir, name, wvars)
	if err != nil {
		return err
	}
	for i := 0; i < t.Len(); i++ {
		for j, n := range names {
			vals[j] = t.cols[n][i]
		}
		if _, err := w.Write(); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}
