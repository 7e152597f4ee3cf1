package heapmgr

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRandomOperations drives a heap with a seeded random mix of operations and
// checks, after every step, that structure and contents match a simple model
// and that no request that fits in the free bytes is ever refused.
func TestRandomOperations(t *testing.T) {
	const capacity = 512

	for _, seed := range []uint64{1, 2, 3, 42} {
		rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		m := newTestHeap(t, capacity)

		var (
			live  []*Block
			model = map[*Block][]byte{}
		)
		inUse := func() int {
			n := 0
			for _, b := range live {
				n += len(model[b])
			}
			return n
		}

		for step := range 2000 {
			switch op := rng.IntN(4); {
			case op == 0 || len(live) == 0:
				size := 1 + rng.IntN(64)
				b, err := m.Allocate(size)
				if size <= capacity-inUse() {
					require.NoError(t, err, "seed %d step %d: allocate %d", seed, step, size)
					live = append(live, b)
					model[b] = make([]byte, size)
				} else {
					require.ErrorIs(t, err, ErrCapacityExhausted)
				}

			case op == 1:
				i := rng.IntN(len(live))
				b := live[i]
				require.True(t, m.Release(b))
				delete(model, b)
				live = append(live[:i], live[i+1:]...)

			case op == 2:
				b := live[rng.IntN(len(live))]
				newSize := 1 + rng.IntN(96)
				old := model[b]
				_, err := m.Resize(b, newSize)
				if newSize-len(old) <= capacity-inUse() {
					require.NoError(t, err, "seed %d step %d: resize %d -> %d", seed, step, len(old), newSize)
					next := make([]byte, newSize)
					copy(next, old)
					model[b] = next
				} else {
					require.ErrorIs(t, err, ErrCapacityExhausted)
				}

			default:
				b := live[rng.IntN(len(live))]
				p := make([]byte, 1+rng.IntN(len(model[b])))
				for i := range p {
					p[i] = byte(rng.Uint32())
				}
				require.NoError(t, b.Write(p))
				copy(model[b], p)
			}

			require.Equal(t, inUse(), m.InUse())
			require.NoError(t, m.Verify(live...), "seed %d step %d", seed, step)
		}

		for _, b := range live {
			require.True(t, bytes.Equal(model[b], b.Bytes()))
			require.Equal(t, Intact, b.CheckIntegrity())
		}
	}
}
