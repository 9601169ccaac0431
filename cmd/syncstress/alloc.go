// File: cmd/syncstress/alloc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/momentics/hioload-sync/control"
	"github.com/momentics/hioload-sync/pool"
)

var allocCmd = &cobra.Command{
	Use:   "alloc",
	Short: "Concurrent alloc/free churn with aliasing checks",
	RunE:  runAlloc,
}

func init() {
	allocCmd.Flags().Int("goroutines", 8, "concurrent allocating goroutines")
	allocCmd.Flags().Int("ops", 100000, "alloc/free pairs per goroutine")
	allocCmd.Flags().Int("window", 16, "blocks each goroutine keeps alive at once")
	allocCmd.Flags().Int("byte-limit", 0, "soft memory ceiling in bytes (0 keeps the configured value)")
	allocCmd.Flags().Int("block-size", 0, "block size in bytes (0 keeps the configured value)")
	allocCmd.Flags().Bool("mmap", false, "carve blocks out of anonymous mappings")
	for _, name := range []string{"byte-limit", "block-size", "mmap"} {
		_ = viper.BindPFlag(name, allocCmd.Flags().Lookup(name))
	}
}

func runAlloc(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	goroutines, _ := cmd.Flags().GetInt("goroutines")
	ops, _ := cmd.Flags().GetInt("ops")
	window, _ := cmd.Flags().GetInt("window")
	if window < 1 {
		window = 1
	}

	opts := []pool.Option[[]byte]{
		pool.WithByteLimit[[]byte](cfg.ByteLimit),
		pool.WithBlockSize[[]byte](cfg.BlockSize),
		pool.WithLogger[[]byte](logger),
	}
	var (
		alloc *pool.FixedAllocator[[]byte]
		mm    *pool.MmapSource
	)
	if cfg.Mmap {
		mm = pool.NewMmapSource(cfg.BlockSize)
		alloc = pool.NewFixedAllocator[[]byte](mm, opts...)
	} else {
		alloc = pool.NewBlockAllocator(cfg.BlockSize, opts...)
	}

	reg := control.NewMetricsRegistry()
	reg.RegisterProbe("allocator", func() any { return alloc.Stats() })
	reg.Set("goroutines", goroutines)
	reg.Set("ops", ops)
	if mm != nil {
		reg.RegisterProbe("mmap_chunks", func() any { return mm.Chunks() })
		reg.RegisterProbe("mmap_unmap_failures", func() any { return mm.UnmapFailures() })
	}

	start := time.Now()
	g, ctx := errgroup.WithContext(cmd.Context())
	for i := 0; i < goroutines; i++ {
		g.Go(func() error {
			return churn(ctx, alloc, uint32(i), ops, window)
		})
	}
	err = g.Wait()
	reg.Set("elapsed", time.Since(start).String())
	if err != nil {
		return err
	}

	report(logger, reg)
	alloc.Close()
	if mm != nil {
		if err := mm.Close(); err != nil {
			logger.Warn("unmap failed", slog.Any("error", err))
		}
	}
	return nil
}

// churn keeps up to window live blocks, stamping each with its owner and
// sequence number and checking the stamp before the block is freed.
func churn(ctx context.Context, a *pool.FixedAllocator[[]byte], owner uint32, ops, window int) error {
	live := make([]*pool.Block[[]byte], 0, window)
	seqs := make([]uint32, 0, window)
	defer func() {
		for _, b := range live {
			a.Free(b)
		}
	}()

	for i := 0; i < ops; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if len(live) == window {
			b, seq := live[0], seqs[0]
			if err := checkStamp(b.Value, owner, seq); err != nil {
				return err
			}
			a.Free(b)
			live, seqs = live[1:], seqs[1:]
		}
		b, err := a.Alloc()
		if err != nil {
			return fmt.Errorf("goroutine %d: %w", owner, err)
		}
		stamp(b.Value, owner, uint32(i))
		live = append(live, b)
		seqs = append(seqs, uint32(i))
	}
	return nil
}

func stamp(buf []byte, owner, seq uint32) {
	if len(buf) < 8 {
		return
	}
	binary.LittleEndian.PutUint32(buf[0:4], owner)
	binary.LittleEndian.PutUint32(buf[4:8], seq)
}

func checkStamp(buf []byte, owner, seq uint32) error {
	if len(buf) < 8 {
		return nil
	}
	gotOwner := binary.LittleEndian.Uint32(buf[0:4])
	gotSeq := binary.LittleEndian.Uint32(buf[4:8])
	if gotOwner != owner || gotSeq != seq {
		return fmt.Errorf("block aliased: owner %d seq %d overwritten by owner %d seq %d", owner, seq, gotOwner, gotSeq)
	}
	return nil
}
