package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"rotacore/pkg/domain"
)

// readRowsFile decodes a list of form records (name, w1..w10, one column per
// instrument, num_weeks, is_leader). JSON input parses as YAML.
func readRowsFile(path string) ([]domain.Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	var records []domain.Record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse rows %s: %w", path, err)
	}
	rows := make([]domain.Row, 0, len(records))
	for i, rec := range records {
		row, err := domain.RowFromRecord(i, rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
