package domain

import (
	"errors"
	"testing"
)

func TestSpacingLookup(t *testing.T) {
	cases := map[int]int{1: 4, 2: 3, 3: 2, 4: 1}
	for freq, want := range cases {
		got, ok := SpacingFor(freq)
		if !ok || got != want {
			t.Fatalf("SpacingFor(%d) = %d,%v want %d", freq, got, ok, want)
		}
	}
	if _, ok := SpacingFor(5); ok {
		t.Fatalf("expected frequency 5 to be rejected")
	}
}

func TestNewRosterIndexesAndRejectsDuplicates(t *testing.T) {
	people := []Person{
		{Name: "ana", IsLeader: true, Instruments: map[Instrument]bool{Vocals: true}},
		{Name: "ben"},
		{Name: "cy", IsLeader: true},
	}
	r, err := NewRoster(people)
	if err != nil {
		t.Fatalf("new roster: %v", err)
	}
	if r.Len() != 3 {
		t.Fatalf("expected 3 people, got %d", r.Len())
	}
	if i, ok := r.IndexOf("ben"); !ok || i != 1 {
		t.Fatalf("expected ben at index 1, got %d,%v", i, ok)
	}
	leaders := r.Leaders()
	if len(leaders) != 2 || leaders[0] != "ana" || leaders[1] != "cy" {
		t.Fatalf("unexpected leaders %v", leaders)
	}
	// mutating a returned copy must not leak into the roster
	ana, _ := r.Lookup("ana")
	ana.Instruments[Piano] = true
	if again, _ := r.Lookup("ana"); again.Plays(Piano) {
		t.Fatalf("expected roster to be immutable through lookups")
	}

	_, err = NewRoster(append(people, Person{Name: "ben"}))
	var dup DuplicatePersonError
	if !errors.As(err, &dup) || dup.Name != "ben" {
		t.Fatalf("expected DuplicatePersonError for ben, got %v", err)
	}
}

func TestPersonAvailableOutOfRange(t *testing.T) {
	p := Person{}
	p.Availability[0] = true
	if !p.Available(1) {
		t.Fatalf("expected week 1 available")
	}
	if p.Available(0) || p.Available(HorizonWeeks+1) {
		t.Fatalf("expected out of range weeks to be unavailable")
	}
}

func TestInstrumentCoverage(t *testing.T) {
	if lo, hi := Vocals.Coverage(); lo != 3 || hi != 3 {
		t.Fatalf("vocals coverage %d..%d", lo, hi)
	}
	if lo, hi := AcousticGuitar.Coverage(); lo != 1 || hi != 1 {
		t.Fatalf("guitar coverage %d..%d", lo, hi)
	}
	for _, inst := range OptionalInstruments {
		if !inst.Optional() {
			t.Fatalf("expected %s optional", inst)
		}
		if lo, hi := inst.Coverage(); lo != 0 || hi != 1 {
			t.Fatalf("%s coverage %d..%d", inst, lo, hi)
		}
	}
	if _, err := ParseInstrument("kazoo"); err == nil {
		t.Fatalf("expected unknown instrument error")
	}
	if !BassGuitar.Valid() {
		t.Fatalf("expected bass guitar to remain a valid form instrument")
	}
}
