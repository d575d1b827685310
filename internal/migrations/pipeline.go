// Package migrations holds the schema history of the famlink store as data:
// an ordered list of steps, each made of pure row transforms. The same
// pipeline drives goose at store-open time and upgrades rows of old backup
// snapshots without touching storage.
package migrations

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/famlink/internal/models"
)

// Row is one stored document.
type Row = models.Doc

// Transform reshapes one row of a table. It receives a private copy and may
// mutate it. Transforms rename, split or backfill fields; they never drop
// user data.
type Transform func(Row) (Row, error)

// TableTransform binds a Transform to the logical table it rewrites.
type TableTransform struct {
	Table string
	Fn    Transform
}

// Step is everything needed to move the schema from Version-1 to Version.
type Step struct {
	Version    int64
	Name       string
	Creates    []string
	Transforms []TableTransform
}

// Pipeline is an ordered, validated list of steps.
type Pipeline struct {
	steps []Step
}

// New validates that versions start at 1 and increase by one.
func New(steps ...Step) (*Pipeline, error) {
	if len(steps) == 0 {
		return nil, errors.New("pipeline has no steps")
	}
	for i, s := range steps {
		if s.Version != int64(i+1) {
			return nil, fmt.Errorf("step %q: version %d out of sequence, want %d", s.Name, s.Version, i+1)
		}
		for _, tt := range s.Transforms {
			if tt.Fn == nil {
				return nil, fmt.Errorf("step %d: nil transform for table %s", s.Version, tt.Table)
			}
		}
	}
	return &Pipeline{steps: steps}, nil
}

// Steps returns a copy of the steps in ascending version order.
func (p *Pipeline) Steps() []Step {
	out := make([]Step, len(p.steps))
	copy(out, p.steps)
	return out
}

// Latest is the schema version a fully migrated store is at.
func (p *Pipeline) Latest() int64 {
	return p.steps[len(p.steps)-1].Version
}

// Upgrade applies to the rows of table every transform of the steps in
// (from, to], in order. The input rows are left untouched. from == to is a
// no-op that returns copies of the input.
func (p *Pipeline) Upgrade(table string, rows []Row, from, to int64) ([]Row, error) {
	if from < 0 || from > to || to > p.Latest() {
		return nil, fmt.Errorf("cannot upgrade %s from version %d to %d (latest %d)", table, from, to, p.Latest())
	}

	out := make([]Row, len(rows))
	for i, r := range rows {
		c, err := r.Clone()
		if err != nil {
			return nil, fmt.Errorf("upgrade %s row %d: %w", table, i, err)
		}
		out[i] = c
	}

	for _, s := range p.steps {
		if s.Version <= from || s.Version > to {
			continue
		}
		for _, tt := range s.Transforms {
			if tt.Table != table {
				continue
			}
			for i := range out {
				next, err := tt.Fn(out[i])
				if err != nil {
					return nil, fmt.Errorf("step %d (%s) on %s row %d: %w", s.Version, s.Name, table, i, err)
				}
				out[i] = next
			}
		}
	}
	return out, nil
}
