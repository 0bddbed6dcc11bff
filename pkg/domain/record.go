package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is a flat form response keyed by column: name, w1..w10, one column per
// instrument, num_weeks and is_leader.
type Record map[string]any

// WeekColumn returns the column label of a 1-based week.
func WeekColumn(week int) string { return fmt.Sprintf("w%d", week) }

// RowFromRecord converts a flat record into a Row. Absent instrument, frequency
// and leader columns stay absent so validation can name them; absent week
// columns are reported immediately because Row availability is positional.
func RowFromRecord(index int, rec Record) (Row, error) {
	var row Row
	if v, ok := rec["name"]; ok && v != nil {
		row.Name = strings.TrimSpace(fmt.Sprint(v))
	}
	row.Availability = make([]bool, 0, HorizonWeeks)
	for week := 1; week <= HorizonWeeks; week++ {
		col := WeekColumn(week)
		v, ok := rec[col]
		if !ok || v == nil {
			return Row{}, MissingFieldError{Row: index, Person: row.Name, Field: col}
		}
		flag, err := parseFlag(v)
		if err != nil {
			return Row{}, ConfigurationError{Person: row.Name, Field: col, Value: v, Reason: err.Error()}
		}
		row.Availability = append(row.Availability, flag)
	}
	row.Instruments = make(map[Instrument]bool, len(Instruments))
	for _, inst := range Instruments {
		v, ok := rec[string(inst)]
		if !ok || v == nil {
			continue
		}
		flag, err := parseFlag(v)
		if err != nil {
			return Row{}, ConfigurationError{Person: row.Name, Field: string(inst), Value: v, Reason: err.Error()}
		}
		row.Instruments[inst] = flag
	}
	if v, ok := rec["num_weeks"]; ok && v != nil {
		n, err := parseInt(v)
		if err != nil {
			return Row{}, ConfigurationError{Person: row.Name, Field: "num_weeks", Value: v, Reason: err.Error()}
		}
		row.NumWeeks = &n
	}
	if v, ok := rec["is_leader"]; ok && v != nil {
		flag, err := parseFlag(v)
		if err != nil {
			return Row{}, ConfigurationError{Person: row.Name, Field: "is_leader", Value: v, Reason: err.Error()}
		}
		row.IsLeader = &flag
	}
	return row, nil
}

// ToRecord flattens a row back into form columns.
func (r Row) ToRecord() Record {
	rec := Record{"name": r.Name}
	for i, avail := range r.Availability {
		rec[WeekColumn(i+1)] = avail
	}
	for inst, flag := range r.Instruments {
		rec[string(inst)] = flag
	}
	if r.NumWeeks != nil {
		rec["num_weeks"] = *r.NumWeeks
	}
	if r.IsLeader != nil {
		rec["is_leader"] = *r.IsLeader
	}
	return rec
}

func parseFlag(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case int:
		return t != 0, nil
	case int64:
		return t != 0, nil
	case float64:
		return t != 0, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(t))
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func parseInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		if t != float64(int(t)) {
			return 0, fmt.Errorf("expected whole number, got %v", t)
		}
		return int(t), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(t))
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}
