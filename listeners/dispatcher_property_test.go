//go:build property
// +build property

package listeners

import (
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/momentics/hioload-sync/core/concurrency"
)

// TestDispatcherProperties checks delivery against a simple model: on
// drain, every listener that joined before the latest pending update
// receives exactly that update.
func TestDispatcherProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Property: a burst of updates before a drain delivers only the last
	properties.Property("latest update wins", prop.ForAll(
		func(values []int, listeners int) bool {
			q := concurrency.NewQueue()
			d := New[*rec]()
			recs := make([]*rec, listeners)
			for i := range recs {
				recs[i] = &rec{}
				d.Subscribe(recs[i], q)
			}
			for _, v := range values {
				if d.Update(price, set(v)) != nil {
					return false
				}
			}
			if q.Process() != 1 {
				return false
			}
			want := []int{values[len(values)-1]}
			for _, r := range recs {
				if !slices.Equal(r.got, want) {
					return false
				}
			}
			return d.calls.Outstanding() == 0
		},
		gen.SliceOfN(8, gen.IntRange(0, 1000)).SuchThat(func(v []int) bool { return len(v) > 0 }),
		gen.IntRange(1, 6),
	))

	// Property: join timestamps filter deliveries across random
	// subscribe/update/drain interleavings (0 = subscribe, 1 = update, 2 = drain)
	properties.Property("late joiners are skipped", prop.ForAll(
		func(ops []int) bool {
			q := concurrency.NewQueue()
			d := New[*rec]()

			type model struct {
				r    *rec
				want []int
			}
			var subs []*model
			var pending *int
			var eligible []*model // joined before the pending update

			for i, op := range ops {
				switch op {
				case 0:
					m := &model{r: &rec{}}
					d.Subscribe(m.r, q)
					subs = append(subs, m)
				case 1:
					v := i
					if d.Update(price, set(v)) != nil {
						return false
					}
					pending = &v
					eligible = slices.Clone(subs)
				case 2:
					q.Process()
					if pending != nil {
						for _, m := range eligible {
							m.want = append(m.want, *pending)
						}
					}
					pending, eligible = nil, nil
				}
			}
			q.Process()
			if pending != nil {
				for _, m := range eligible {
					m.want = append(m.want, *pending)
				}
			}

			for _, m := range subs {
				if !slices.Equal(m.r.got, m.want) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 2)),
	))

	properties.TestingRun(t)
}
