// File: cmd/syncstress/broadcast.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/momentics/hioload-sync/control"
	"github.com/momentics/hioload-sync/core/concurrency"
	"github.com/momentics/hioload-sync/listeners"
)

var broadcastCmd = &cobra.Command{
	Use:   "broadcast",
	Short: "Fan coalesced updates out to listeners spread over workers",
	RunE:  runBroadcast,
}

func init() {
	broadcastCmd.Flags().Int("producers", 4, "goroutines issuing updates")
	broadcastCmd.Flags().Int("updates", 10000, "updates per producer")
	broadcastCmd.Flags().Int("workers", 0, "worker goroutines (0 keeps the configured value)")
	broadcastCmd.Flags().Int("listeners", 0, "listeners spread over the workers (0 keeps the configured value)")
	broadcastCmd.Flags().Bool("pin", false, "pin each worker to a CPU")
	for _, name := range []string{"workers", "listeners", "pin"} {
		_ = viper.BindPFlag(name, broadcastCmd.Flags().Lookup(name))
	}
}

type subscriber struct {
	id      int
	updates atomic.Int64
	calls   atomic.Int64
	last    atomic.Int64
}

func runBroadcast(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	producers, _ := cmd.Flags().GetInt("producers")
	updates, _ := cmd.Flags().GetInt("updates")

	workers := make([]*concurrency.Worker, cfg.Workers)
	for i := range workers {
		opts := []concurrency.Option{
			concurrency.WithName(fmt.Sprintf("worker-%d", i)),
			concurrency.WithLogger(logger),
		}
		if cfg.PinWorkers {
			opts = append(opts, concurrency.WithCPU(i%runtime.NumCPU()))
		}
		workers[i] = concurrency.NewWorker(opts...)
	}

	d := listeners.New[*subscriber](listeners.WithLogger[*subscriber](logger))
	subs := make([]*subscriber, cfg.Listeners)
	for i := range subs {
		subs[i] = &subscriber{id: i}
		d.Subscribe(subs[i], workers[i%len(workers)])
	}

	reg := control.NewMetricsRegistry()
	reg.RegisterProbe("dispatcher", func() any { return d.Stats() })
	for _, w := range workers {
		reg.RegisterProbe(w.Name(), func() any { return w.Stats() })
	}

	price := listeners.NewMember("price")
	start := time.Now()
	var g errgroup.Group
	for p := 0; p < producers; p++ {
		g.Go(func() error {
			for i := 0; i < updates; i++ {
				v := int64(p*updates + i)
				if err := d.Update(price, func(s *subscriber) {
					s.updates.Add(1)
					s.last.Store(v)
				}); err != nil {
					return err
				}
				if i%1000 == 0 {
					if err := d.Call(func(s *subscriber) { s.calls.Add(1) }); err != nil {
						return err
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// One last update after every producer finished: all listeners must
	// end on it no matter how much was coalesced before.
	const final = -1
	if err := d.Update(price, func(s *subscriber) { s.last.Store(final) }); err != nil {
		return err
	}
	for _, w := range workers {
		w.Close()
	}
	reg.Set("elapsed", time.Since(start).String())

	for _, s := range subs {
		if got := s.last.Load(); got != final {
			return fmt.Errorf("listener %d ended on %d, want %d", s.id, got, final)
		}
	}
	report(logger, reg)

	for _, s := range subs {
		d.Unsubscribe(s)
	}
	d.Close()
	return nil
}
