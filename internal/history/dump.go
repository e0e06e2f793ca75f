// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// DumpYAML writes all records matching f to path as a YAML list.
func (s *Store) DumpYAML(ctx context.Context, f Filter, path string) error {
	recs, err := s.List(ctx, f)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(recs)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// DumpJSON writes all records matching f to path as a JSON array.
func (s *Store) DumpJSON(ctx context.Context, f Filter, path string) error {
	recs, err := s.List(ctx, f)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
