package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pavanmanishd/heapmgr"
)

var overrunBytes int

func init() {
	cmd := newOverrunCmd()
	cmd.Flags().IntVar(&overrunBytes, "bytes", 4, "Bytes to write past the end of the first block")
	rootCmd.AddCommand(cmd)
}

func newOverrunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overrun",
		Short: "Overrun a block and detect the damage to its neighbour",
		Long: `The overrun command allocates two adjacent 8 byte blocks, writes past the
end of the first one and reports the integrity of both.

Example:
  heapctl overrun
  heapctl overrun --bytes 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openHeap(cmd)
			if err != nil {
				return err
			}
			defer m.Close()
			return runOverrun(cmd.OutOrStdout(), m, overrunBytes)
		},
	}
}

func runOverrun(w io.Writer, m *heapmgr.HeapManager, extra int) error {
	if extra <= 0 {
		return fmt.Errorf("%w: --bytes %d", heapmgr.ErrInvalidSize, extra)
	}

	const size = 8
	first, err := m.Allocate(size)
	if err != nil {
		return err
	}
	second, err := m.Allocate(size)
	if err != nil {
		return err
	}
	if err := second.Write(bytes.Repeat([]byte{0xBB}, size)); err != nil {
		return err
	}

	payload := bytes.Repeat([]byte{0xAA}, size+extra)
	if err := first.Write(payload); err != nil {
		fmt.Fprintf(w, "checked write:   %v\n", err)
	}

	n, err := first.WriteUnchecked(payload)
	if err != nil && !errors.Is(err, heapmgr.ErrOverflow) {
		return err
	}
	fmt.Fprintf(w, "unchecked write: %d bytes stored, %v\n", n, err)

	fmt.Fprintf(w, "first block:     %s\n", first.CheckIntegrity())
	fmt.Fprintf(w, "second block:    %s\n", second.CheckIntegrity())
	fmt.Fprintf(w, "%s\n", second.DumpInfo())
	return nil
}
