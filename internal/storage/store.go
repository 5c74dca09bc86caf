package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/decayprep/internal/limits"
	"github.com/san-kum/decayprep/internal/quantile"
	"github.com/san-kum/decayprep/internal/tensor"
)

var (
	ErrNoSession     = errors.New("storage: no such session")
	ErrBadTensor     = errors.New("storage: malformed tensor file")
	ErrBadTensorName = errors.New("storage: tensor name must be a plain file name")
)

const (
	metadataFile = "metadata.json"
	limitsFile   = "limits.yaml"
	shapePrefix  = "#shape="
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Session describes one frozen preprocessing setup.
type Session struct {
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Source    []string           `json:"source"`
	Tree      string             `json:"tree"`
	Frame     string             `json:"frame"`
	Seed      int64              `json:"seed"`
	Split     float64            `json:"split"`
	Events    int                `json:"events"`
	Variants  []string           `json:"variants"`
	Features  []string           `json:"features,omitempty"`
	Errors    map[string]float64 `json:"round_trip_errors,omitempty"`
	Quantile  *quantile.Params   `json:"phi_quantile,omitempty"`
}

func (s *Store) Dir(id string) string {
	return filepath.Join(s.baseDir, id)
}

// Save writes the session metadata and the limits of each variant. An
// empty ID is filled with a fresh UUID.
func (s *Store) Save(meta Session, lims map[string]limits.Limits) (string, error) {
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if meta.Variants == nil {
		for name := range lims {
			meta.Variants = append(meta.Variants, name)
		}
		sort.Strings(meta.Variants)
	}

	dir := s.Dir(meta.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(dir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	data, err := yaml.Marshal(lims)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, limitsFile), data, 0644); err != nil {
		return "", err
	}

	return meta.ID, nil
}

// List returns every readable session, oldest first.
func (s *Store) List() ([]Session, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Session{}, nil
		}
		return nil, err
	}

	sessions := make([]Session, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		sessions = append(sessions, *meta)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Timestamp.Before(sessions[j].Timestamp)
	})
	return sessions, nil
}

func (s *Store) Load(id string) (*Session, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(id), metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoSession, id)
		}
		return nil, err
	}

	var meta Session
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadLimits(id string) (map[string]limits.Limits, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(id), limitsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoSession, id)
		}
		return nil, err
	}

	lims := make(map[string]limits.Limits)
	if err := yaml.Unmarshal(data, &lims); err != nil {
		return nil, err
	}
	return lims, nil
}

func tensorPath(dir, name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrBadTensorName, name)
	}
	return filepath.Join(dir, name+".csv"), nil
}

// SaveTensor writes t as CSV, one event per row, after a shape line.
func (s *Store) SaveTensor(id, name string, t *tensor.Dense) error {
	path, err := tensorPath(s.Dir(id), name)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	shape := make([]string, t.Dims())
	for i, d := range t.Shape() {
		shape[i] = strconv.Itoa(d)
	}
	if _, err := fmt.Fprintln(file, shapePrefix+strings.Join(shape, ",")); err != nil {
		return err
	}

	w := csv.NewWriter(file)
	rs := t.RowSize()
	data := t.Data()
	row := make([]string, rs)
	for i := 0; i < t.Len(); i++ {
		for j, v := range data[i*rs : (i+1)*rs] {
			row[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (s *Store) LoadTensor(id, name string) (*tensor.Dense, error) {
	path, err := tensorPath(s.Dir(id), name)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	head, body, _ := strings.Cut(string(raw), "\n")
	if !strings.HasPrefix(head, shapePrefix) {
		return nil, fmt.Errorf("%w: %s: no shape line", ErrBadTensor, name)
	}
	var shape []int
	for _, f := range strings.Split(strings.TrimPrefix(head, shapePrefix), ",") {
		d, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadTensor, name, err)
		}
		shape = append(shape, d)
	}

	records, err := csv.NewReader(strings.NewReader(body)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadTensor, name, err)
	}
	data := make([]float64, 0, len(records)*len(shape))
	for _, rec := range records {
		for _, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrBadTensor, name, err)
			}
			data = append(data, v)
		}
	}
	return tensor.FromSlice(data, shape...)
}
