package core

import (
	"context"
	"testing"

	"rotacore/internal/solver"
	"rotacore/pkg/domain"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

// testRow builds a complete row available every week and capable of insts.
func testRow(name string, freq int, leader bool, insts ...domain.Instrument) domain.Row {
	row := domain.Row{
		Name:         name,
		Availability: make([]bool, domain.HorizonWeeks),
		Instruments:  make(map[domain.Instrument]bool, len(domain.Instruments)),
		NumWeeks:     intPtr(freq),
		IsLeader:     boolPtr(leader),
	}
	for i := range row.Availability {
		row.Availability[i] = true
	}
	for _, inst := range domain.Instruments {
		row.Instruments[inst] = false
	}
	for _, inst := range insts {
		row.Instruments[inst] = true
	}
	return row
}

// scenarioRows is the smallest feasible band: one guitar-playing leader, one
// pianist, two extra vocalists and a cajon player.
func scenarioRows() []domain.Row {
	return []domain.Row{
		testRow("Lee", 2, true, domain.AcousticGuitar, domain.Vocals),
		testRow("Pat", 2, false, domain.Piano),
		testRow("Val", 2, false, domain.Vocals),
		testRow("Vic", 2, false, domain.Vocals),
		testRow("Xan", 1, false, domain.Cajon),
	}
}

func mustRoster(t *testing.T, rows []domain.Row) *domain.Roster {
	t.Helper()
	roster, err := Normalize(rows)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return roster
}

func mustProblem(t *testing.T, rows []domain.Row, horizon int) *Problem {
	t.Helper()
	problem, err := BuildModel(mustRoster(t, rows), horizon)
	if err != nil {
		t.Fatalf("build model: %v", err)
	}
	if err := problem.ApplyPenalties(DefaultWeights()); err != nil {
		t.Fatalf("apply penalties: %v", err)
	}
	return problem
}

func solveProblem(t *testing.T, p *Problem, seed int64) *solver.Response {
	t.Helper()
	return solver.Solve(context.Background(), p.Model(), solver.Params{Seed: seed})
}

// assertHardRules checks every weekly hard rule directly on a schedule.
func assertHardRules(t *testing.T, roster *domain.Roster, sched domain.Schedule) {
	t.Helper()
	lead := make(map[string]int)
	for _, slot := range sched.Weeks {
		for _, inst := range domain.ScheduledInstruments {
			lo, hi := inst.Coverage()
			if n := len(slot.Assignments[inst]); n < lo || n > hi {
				t.Fatalf("week %d: %s has %d players, want [%d,%d]", slot.Week, inst, n, lo, hi)
			}
		}
		if slot.Leader == "" {
			t.Fatalf("week %d has no leader", slot.Week)
		}
		lead[slot.Leader]++
		leader, _ := roster.Lookup(slot.Leader)
		held := slot.InstrumentsFor(slot.Leader)
		if !containsInstrument(held, domain.Vocals) {
			t.Fatalf("week %d: leader %s not on vocals", slot.Week, slot.Leader)
		}
		switch {
		case leader.Plays(domain.AcousticGuitar):
			if !containsInstrument(held, domain.AcousticGuitar) {
				t.Fatalf("week %d: leader %s not on guitar", slot.Week, slot.Leader)
			}
		case leader.Plays(domain.Piano):
			if !containsInstrument(held, domain.Piano) {
				t.Fatalf("week %d: leader %s not on piano", slot.Week, slot.Leader)
			}
		}
		for _, person := range roster.People() {
			held := slot.InstrumentsFor(person.Name)
			nonVocal, group := 0, 0
			for _, inst := range held {
				if !person.Plays(inst) || !person.Available(slot.Week) {
					t.Fatalf("week %d: %s ineligible for %s", slot.Week, person.Name, inst)
				}
				if inst != domain.Vocals {
					nonVocal++
				}
				if containsInstrument(domain.CannotSingWith, inst) {
					group++
				}
			}
			if nonVocal > 1 || group > 1 {
				t.Fatalf("week %d: %s holds %v", slot.Week, person.Name, held)
			}
		}
	}
	for _, name := range roster.Leaders() {
		if n := lead[name]; n < MinLeadWeeks || n > MaxLeadWeeks {
			t.Fatalf("leader %s leads %d weeks", name, n)
		}
	}
}

func containsInstrument(list []domain.Instrument, inst domain.Instrument) bool {
	for _, candidate := range list {
		if candidate == inst {
			return true
		}
	}
	return false
}
