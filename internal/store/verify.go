package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/wavefn/internal/ir"
)

// Mismatch is a stored record whose key is not its content address.
type Mismatch struct {
	Stored   ir.RecordID `json:"stored"`
	Computed ir.RecordID `json:"computed"`
}

// EventProblem is a journaled event that does not line up with the map.
type EventProblem struct {
	Seq    int64       `json:"seq"`
	ID     ir.RecordID `json:"id"`
	Reason string      `json:"reason"`
}

// VerifyReport summarizes a verification pass.
type VerifyReport struct {
	Hasher        ir.Hasher      `json:"hasher"`
	Records       int            `json:"records"`
	Events        int            `json:"events"`
	Mismatches    []Mismatch     `json:"mismatches"`
	EventProblems []EventProblem `json:"event_problems"`
}

// OK reports whether verification found no problems.
func (r VerifyReport) OK() bool {
	return len(r.Mismatches) == 0 && len(r.EventProblems) == 0
}

// Verify replays identity derivation over everything in b.
//
// For each record it recomputes the id from content and compares it to the
// key it is stored under. For each journaled event it checks that the
// event's payload hashes to the event's id and that a record exists at that
// id (the store-before-notify guarantee). A store written under a different
// hash algorithm reports every record as a mismatch.
func Verify(ctx context.Context, b Backend, h ir.Hasher) (VerifyReport, error) {
	report := VerifyReport{
		Hasher:        h,
		Mismatches:    []Mismatch{},
		EventProblems: []EventProblem{},
	}

	err := b.ForEachRecord(ctx, func(id ir.RecordID, rec ir.WaveFunction) error {
		report.Records++
		computed, err := ir.RecordIDOf(h, rec)
		if err != nil {
			return fmt.Errorf("verify record %s: %w", id, err)
		}
		if computed != id {
			report.Mismatches = append(report.Mismatches, Mismatch{Stored: id, Computed: computed})
		}
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("verify: %w", err)
	}

	events, err := b.ReadEvents(ctx, 0)
	if err != nil {
		return report, fmt.Errorf("verify: %w", err)
	}

	for _, ev := range events {
		report.Events++

		computed, err := ir.RecordIDOf(h, ev.Record())
		if err != nil {
			return report, fmt.Errorf("verify event %d: %w", ev.Seq, err)
		}
		if computed != ev.ID {
			report.EventProblems = append(report.EventProblems, EventProblem{
				Seq: ev.Seq, ID: ev.ID, Reason: fmt.Sprintf("payload hashes to %s", computed),
			})
			continue
		}

		if _, err := b.Get(ctx, ev.ID); err != nil {
			if errors.Is(err, ErrNotFound) {
				report.EventProblems = append(report.EventProblems, EventProblem{
					Seq: ev.Seq, ID: ev.ID, Reason: "no record stored at event id",
				})
				continue
			}
			return report, fmt.Errorf("verify event %d: %w", ev.Seq, err)
		}
	}

	return report, nil
}
