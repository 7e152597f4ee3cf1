package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pavanmanishd/heapmgr"
)

func init() {
	rootCmd.AddCommand(newDemoCmd())
}

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Show that freed space is reusable regardless of fragmentation",
		Long: `The demo command allocates blocks of 2 and 3 bytes, releases the first,
allocates 5 bytes and grows the second block to 10 bytes, printing where each
block lives after every step.

Example:
  heapctl demo
  heapctl demo -m 1 -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openHeap(cmd)
			if err != nil {
				return err
			}
			defer m.Close()
			return runDemo(cmd.OutOrStdout(), m)
		},
	}
}

func runDemo(w io.Writer, m *heapmgr.HeapManager) error {
	b1, err := m.Allocate(2)
	if err != nil {
		return err
	}
	printBlock(w, "block 1", b1, m)

	b2, err := m.Allocate(3)
	if err != nil {
		return err
	}
	printBlock(w, "block 2", b2, m)

	if !m.Release(b1) {
		return fmt.Errorf("release block 1: %w", heapmgr.ErrClosed)
	}
	printBlock(w, "block 2 after release of block 1", b2, m)

	b3, err := m.Allocate(5)
	if err != nil {
		return err
	}
	printBlock(w, "block 3", b3, m)

	if _, err := m.Resize(b2, 10); err != nil {
		return err
	}
	printBlock(w, "block 2 after resize", b2, m)
	printBlock(w, "block 3 after resize", b3, m)

	if err := m.Verify(b2, b3); err != nil {
		return err
	}
	fmt.Fprintln(w, m)
	return nil
}

func printBlock(w io.Writer, label string, b *heapmgr.Block, m *heapmgr.HeapManager) {
	info := b.DumpInfo()
	fmt.Fprintf(w, "%-34s cell %-4d offset %-4d size %-4d frontier %d\n",
		label+":", info.Cell, info.Offset, info.Size, m.InUse())
}
