package core

import (
	"errors"
	"testing"

	"rotacore/internal/solver"
	"rotacore/pkg/domain"
)

func TestBuildModelRejectsHorizon(t *testing.T) {
	roster := mustRoster(t, scenarioRows())
	for _, h := range []int{0, domain.HorizonWeeks + 1} {
		var cfg domain.ConfigurationError
		if _, err := BuildModel(roster, h); !errors.As(err, &cfg) || cfg.Field != "horizon_weeks" {
			t.Fatalf("horizon %d: expected configuration error, got %v", h, err)
		}
	}
	if _, err := BuildModel(nil, 2); err == nil {
		t.Fatalf("expected nil roster error")
	}
}

func TestScenarioIsOptimal(t *testing.T) {
	problem := mustProblem(t, scenarioRows(), 2)
	resp := solveProblem(t, problem, 0)
	if resp.Status != solver.StatusOptimal {
		t.Fatalf("expected optimal, got %s", resp.Status)
	}
	assertHardRules(t, problem.Roster(), problem.ScheduleOf(resp))
	// Lee, Pat, Val and Vic play both weeks: one person spacing breach each,
	// plus Lee leading back to back. Xan takes one cajon week.
	if resp.Objective != 12 {
		t.Fatalf("expected objective 12, got %d", resp.Objective)
	}
}

func TestScenarioWithoutPianistIsInfeasible(t *testing.T) {
	rows := scenarioRows()
	rows = append(rows[:1], rows[2:]...)
	problem := mustProblem(t, rows, 2)
	resp := solveProblem(t, problem, 0)
	if resp.Status != solver.StatusInfeasible {
		t.Fatalf("expected infeasible, got %s", resp.Status)
	}
	if resp.HasSolution() {
		t.Fatalf("infeasible response must not carry values")
	}
}

func TestSingleLeaderCannotCoverLongHorizon(t *testing.T) {
	problem := mustProblem(t, scenarioRows(), 3)
	if resp := solveProblem(t, problem, 0); resp.Status != solver.StatusInfeasible {
		t.Fatalf("one leader cannot lead three weeks, got %s", resp.Status)
	}
}

func TestLeaderFallsBackToPiano(t *testing.T) {
	rows := []domain.Row{
		testRow("Kim", 2, true, domain.Piano, domain.Vocals),
		testRow("Gus", 2, false, domain.AcousticGuitar),
		testRow("Val", 2, false, domain.Vocals),
		testRow("Vic", 2, false, domain.Vocals),
	}
	problem := mustProblem(t, rows, 1)
	resp := solveProblem(t, problem, 0)
	if resp.Status != solver.StatusOptimal {
		t.Fatalf("expected optimal, got %s", resp.Status)
	}
	slot, _ := problem.ScheduleOf(resp).Week(1)
	if slot.Leader != "Kim" || len(slot.Players(domain.Piano)) != 1 || slot.Players(domain.Piano)[0] != "Kim" {
		t.Fatalf("leader should be on piano: %+v", slot)
	}
}

func TestUnavailableWeekIsNeverAssigned(t *testing.T) {
	rows := scenarioRows()
	rows[4].Availability[0] = false
	problem := mustProblem(t, rows, 2)
	resp := solveProblem(t, problem, 0)
	if resp.Status != solver.StatusOptimal {
		t.Fatalf("expected optimal, got %s", resp.Status)
	}
	xan, _ := problem.Roster().IndexOf("Xan")
	if resp.BoolValue(problem.Scheduled(xan, 1)) {
		t.Fatalf("Xan scheduled in an unavailable week")
	}
	if !resp.BoolValue(problem.Assignment(xan, 2, domain.Cajon)) {
		t.Fatalf("optional reward should put Xan on cajon in week 2")
	}
}

func TestBassGuitarHasNoVariables(t *testing.T) {
	problem := mustProblem(t, scenarioRows(), 1)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for bass guitar")
		}
	}()
	problem.Assignment(0, 1, domain.BassGuitar)
}

func TestPenaltiesApplyOnce(t *testing.T) {
	problem := mustProblem(t, scenarioRows(), 2)
	if err := problem.ApplyPenalties(DefaultWeights()); !errors.Is(err, errAlreadyPenalized) {
		t.Fatalf("expected already penalized, got %v", err)
	}
	unpenalized, err := BuildModel(mustRoster(t, scenarioRows()), 2)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := unpenalized.Objective(); !errors.Is(err, errNotPenalized) {
		t.Fatalf("expected not penalized, got %v", err)
	}
	if _, err := unpenalized.Deviation(0); !errors.Is(err, errNotPenalized) {
		t.Fatalf("expected not penalized, got %v", err)
	}
	if err := unpenalized.ApplyPenalties(Weights{Spacing: -1}); err == nil {
		t.Fatalf("expected negative weight rejection")
	}
}
