package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pavanmanishd/heapmgr"
)

type stressConfig struct {
	Workers int
	Ops     int     // per worker; zero runs until the context is done
	Rate    float64 // operations per second across all workers; zero is unlimited
	Seed    uint64
	MaxSize int
}

var stressCfg = stressConfig{MaxSize: 4096}

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVar(&stressCfg.Workers, "workers", 8, "Concurrent workers")
	cmd.Flags().IntVar(&stressCfg.Ops, "ops", 10000, "Operations per worker")
	cmd.Flags().Float64Var(&stressCfg.Rate, "rate", 0, "Operations per second across all workers (0 = unlimited)")
	cmd.Flags().Uint64Var(&stressCfg.Seed, "seed", 1, "Random seed")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stress",
		Short: "Run random concurrent operations and verify the heap afterwards",
		Long: `The stress command runs workers that randomly allocate, write, check,
resize and release blocks on one shared heap. When they finish the heap
structure and every surviving block are verified.

Example:
  heapctl stress
  heapctl stress --workers 32 --ops 100000 --seed 7
  heapctl stress --rate 500 -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openHeap(cmd)
			if err != nil {
				return err
			}
			defer m.Close()

			if err := runStress(cmd.Context(), m, stressCfg); err != nil {
				return err
			}
			printMetrics(cmd.OutOrStdout(), m)
			return nil
		},
	}
}

// runStress drives m with cfg.Workers random workers and verifies the heap
// once they stop. Any corrupted block fails the run.
func runStress(ctx context.Context, m *heapmgr.HeapManager, cfg stressConfig) error {
	if cfg.Workers <= 0 || cfg.Ops < 0 || cfg.MaxSize <= 0 {
		return fmt.Errorf("%w: %d workers, %d ops", heapmgr.ErrInvalidSize, cfg.Workers, cfg.Ops)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Rate), max(1, int(cfg.Rate)/10))
	}

	live := make([][]*heapmgr.Block, cfg.Workers)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for w := range cfg.Workers {
		g.Go(func() error {
			blocks, err := stressWorker(ctx, m, cfg, limiter, rand.New(rand.NewPCG(cfg.Seed, uint64(w))))
			live[w] = blocks
			return err
		})
	}
	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	survivors := slices.Concat(live...)
	if err := m.Verify(survivors...); err != nil {
		return err
	}
	for _, b := range survivors {
		m.Release(b)
	}
	return nil
}

func stressWorker(
	ctx context.Context,
	m *heapmgr.HeapManager,
	cfg stressConfig,
	limiter *rate.Limiter,
	rng *rand.Rand,
) ([]*heapmgr.Block, error) {
	var blocks []*heapmgr.Block
	// contents mirrors what was last written to each block.
	contents := make(map[*heapmgr.Block][]byte)

	for i := 0; cfg.Ops == 0 || i < cfg.Ops; i++ {
		if err := limiter.Wait(ctx); err != nil {
			return blocks, err
		}

		if len(blocks) == 0 {
			b, err := m.Allocate(1 + rng.IntN(cfg.MaxSize))
			if errors.Is(err, heapmgr.ErrCapacityExhausted) {
				continue
			}
			if err != nil {
				return blocks, err
			}
			blocks = append(blocks, b)
			continue
		}

		j := rng.IntN(len(blocks))
		b := blocks[j]
		switch op := rng.IntN(10); {
		case op < 3:
			nb, err := m.Allocate(1 + rng.IntN(cfg.MaxSize))
			if errors.Is(err, heapmgr.ErrCapacityExhausted) {
				continue
			}
			if err != nil {
				return blocks, err
			}
			blocks = append(blocks, nb)
		case op < 5:
			p := make([]byte, 1+rng.IntN(b.Size()))
			for k := range p {
				p[k] = byte(rng.Uint32())
			}
			if err := b.Write(p); err != nil {
				return blocks, err
			}
			contents[b] = p
		case op < 7:
			if got := b.CheckIntegrity(); got != heapmgr.Intact {
				return blocks, fmt.Errorf("block %s: %s", b.DumpInfo(), got)
			}
		case op < 8:
			newSize := 1 + rng.IntN(cfg.MaxSize)
			if _, err := m.Resize(b, newSize); err != nil {
				if errors.Is(err, heapmgr.ErrCapacityExhausted) {
					continue
				}
				return blocks, err
			}
			if p, ok := contents[b]; ok && len(p) > newSize {
				contents[b] = p[:newSize]
			}
			if p := contents[b]; len(p) > 0 && !slices.Equal(b.Bytes()[:len(p)], p) {
				return blocks, fmt.Errorf("block %s: contents lost across resize", b.DumpInfo())
			}
		default:
			delete(contents, b)
			m.Release(b)
			blocks = slices.Delete(blocks, j, j+1)
		}
	}
	return blocks, nil
}

func printMetrics(w io.Writer, m *heapmgr.HeapManager) {
	s := m.Metrics()
	fmt.Fprintln(w, m)
	fmt.Fprintf(w, "allocations: %d  releases: %d  resizes: %d\n", s.Allocs, s.Releases, s.Resizes)
	fmt.Fprintf(w, "exhausted: %d  overflows: %d  corruptions: %d\n", s.Exhausted, s.Overflows, s.Corruptions)
}
