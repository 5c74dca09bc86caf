package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/decayprep/internal/limits"
)

type ExportData struct {
	Session Session                  `json:"session"`
	Limits  map[string]limits.Limits `json:"limits"`
}

// ExportJSON writes a session and its limits to path, or stdout for "-".
func (s *Store) ExportJSON(id, path string) error {
	meta, err := s.Load(id)
	if err != nil {
		return err
	}
	lims, err := s.LoadLimits(id)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if path != "-" {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Session: *meta, Limits: lims})
}
