package core

import (
	"fmt"

	"rotacore/pkg/domain"
)

// Normalize validates raw availability rows and produces the indexed roster the
// model builder consumes. Rows are checked in input order and the first problem
// found is returned.
func Normalize(rows []domain.Row) (*domain.Roster, error) {
	people := make([]domain.Person, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for i, row := range rows {
		person, err := normalizeRow(i, row)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[person.Name]; dup {
			return nil, domain.DuplicatePersonError{Name: person.Name}
		}
		seen[person.Name] = struct{}{}
		people = append(people, person)
	}
	return domain.NewRoster(people)
}

// NormalizeRecords converts flat form records into rows and normalizes them.
func NormalizeRecords(records []domain.Record) (*domain.Roster, error) {
	rows := make([]domain.Row, 0, len(records))
	for i, rec := range records {
		row, err := domain.RowFromRecord(i, rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return Normalize(rows)
}

func normalizeRow(index int, row domain.Row) (domain.Person, error) {
	if row.Name == "" {
		return domain.Person{}, domain.MissingFieldError{Row: index, Field: "name"}
	}
	missing := func(field string) error {
		return domain.MissingFieldError{Row: index, Person: row.Name, Field: field}
	}
	if len(row.Availability) < domain.HorizonWeeks {
		return domain.Person{}, missing(domain.WeekColumn(len(row.Availability) + 1))
	}
	if len(row.Availability) > domain.HorizonWeeks {
		return domain.Person{}, domain.ConfigurationError{
			Person: row.Name,
			Field:  "availability",
			Value:  len(row.Availability),
			Reason: fmt.Sprintf("expected %d weeks", domain.HorizonWeeks),
		}
	}
	for inst := range row.Instruments {
		if !inst.Valid() {
			return domain.Person{}, domain.ConfigurationError{Person: row.Name, Field: "instruments", Value: string(inst), Reason: "unknown instrument"}
		}
	}
	person := domain.Person{
		Name:        row.Name,
		Instruments: make(map[domain.Instrument]bool, len(domain.Instruments)),
	}
	copy(person.Availability[:], row.Availability)
	for _, inst := range domain.Instruments {
		capable, ok := row.Instruments[inst]
		if !ok {
			return domain.Person{}, missing(string(inst))
		}
		person.Instruments[inst] = capable
	}
	if row.NumWeeks == nil {
		return domain.Person{}, missing("num_weeks")
	}
	if row.IsLeader == nil {
		return domain.Person{}, missing("is_leader")
	}
	spacing, ok := domain.SpacingFor(*row.NumWeeks)
	if !ok {
		return domain.Person{}, domain.ConfigurationError{
			Person: row.Name,
			Field:  "num_weeks",
			Value:  *row.NumWeeks,
			Reason: fmt.Sprintf("frequency must be between %d and %d", domain.MinFrequency, domain.MaxFrequency),
		}
	}
	person.Frequency = *row.NumWeeks
	person.Spacing = spacing
	person.IsLeader = *row.IsLeader
	return person, nil
}
