// Command schedsim is the user-space driver for the combined MLFQ +
// Stride scheduler in internal/kernel: it boots a Kernel, spawns
// scripted workloads, runs N dispatcher goroutines against it, and
// prints the final process table.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wtrr59/xv6-scheduler/internal/kernel"
	"github.com/wtrr59/xv6-scheduler/internal/metrics"
)

type rootFlags struct {
	nproc       int
	cpus        int
	ticks       int
	metricsAddr string
	verbose     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "schedsim",
		Short: "Drive the MLFQ + Stride scheduler simulation",
	}
	root.PersistentFlags().IntVar(&flags.nproc, "nproc", kernel.DefaultNProc, "process table size")
	root.PersistentFlags().IntVar(&flags.cpus, "cpus", 1, "number of concurrent dispatcher goroutines")
	root.PersistentFlags().IntVar(&flags.ticks, "ticks", 1000, "number of ticks to run before stopping")
	root.PersistentFlags().StringVar(&flags.metricsAddr, "metrics-addr", "", "if set, serve prometheus metrics on this address")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug-level logging")

	root.AddCommand(newRunCmd(flags))
	root.AddCommand(newShareCmd(flags))
	root.AddCommand(newBoostDemoCmd(flags))
	root.AddCommand(newInspectCmd(flags))
	return root
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		log = zap.NewNop()
	}
	return log
}

// buildKernel wires a Kernel to the configured logger and, if
// --metrics-addr is set, a metrics.Recorder served over HTTP.
func buildKernel(flags *rootFlags, log *zap.Logger) (*kernel.Kernel, func(context.Context) error) {
	var serve func(context.Context) error
	opts := []kernel.Option{
		kernel.WithNProc(flags.nproc),
		kernel.WithLogger(log),
	}

	if flags.metricsAddr != "" {
		rec := metrics.NewRecorder()
		opts = append(opts,
			kernel.WithDispatchHook(func(class kernel.SchedClass) {
				rec.Dispatches.WithLabelValues(class.String()).Inc()
			}),
			kernel.WithBoostHook(func() { rec.Boosts.Inc() }),
			kernel.WithDemoteHook(func() { rec.Demotions.Inc() }),
			kernel.WithShareRejectHook(func() { rec.ShareRejected.Inc() }),
		)

		mux := http.NewServeMux()
		mux.Handle("/metrics", rec.Handler())
		srv := &http.Server{Addr: flags.metricsAddr, Handler: mux}
		serve = func(ctx context.Context) error {
			go func() {
				<-ctx.Done()
				_ = srv.Close()
			}()
			log.Info("serving metrics", zap.String("addr", flags.metricsAddr))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		}
	}

	return kernel.NewKernel(opts...), serve
}

// runFor starts flags.cpus dispatcher goroutines against k (plus the
// metrics server, if serve is non-nil) in an errgroup, cancels them
// after flags.ticks microseconds of wall-clock time, and returns the
// group's first error.
func runFor(flags *rootFlags, k *kernel.Kernel, serve func(context.Context) error) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	if serve != nil {
		g.Go(func() error { return serve(ctx) })
	}

	for i := 0; i < flags.cpus; i++ {
		cpu := k.NewCPU(i)
		g.Go(func() error {
			cpu.Run(ctx, k)
			return nil
		})
	}

	// The run is bounded by wall-clock time, not by a tick count: the
	// number of ticks dispatched before cancel() is not fixed.
	time.Sleep(time.Duration(flags.ticks) * time.Microsecond)
	cancel()
	return g.Wait()
}

func busyWorkload(totalTicks int) kernel.Workload {
	ran := 0
	return func(p *kernel.Proc, tick uint64) kernel.StepResult {
		ran++
		if ran >= totalTicks {
			return kernel.StepResult{Signal: kernel.SigExit}
		}
		return kernel.StepResult{Signal: kernel.SigContinue}
	}
}

func newRunCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Boot the kernel, spawn one DEFAULT workload, and run it",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(flags.verbose)
			defer log.Sync() //nolint:errcheck
			k, serve := buildKernel(flags, log)

			p := k.Boot("init")
			p.Workload = busyWorkload(flags.ticks)

			if err := runFor(flags, k, serve); err != nil {
				return err
			}
			k.Dump(os.Stdout)
			return nil
		},
	}
}

func newShareCmd(flags *rootFlags) *cobra.Command {
	var percent int
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Boot the kernel, reserve a CPU share for a second process, and run both",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(flags.verbose)
			defer log.Sync() //nolint:errcheck
			k, serve := buildKernel(flags, log)

			base := k.Boot("init")
			base.Workload = busyWorkload(flags.ticks)

			reserved := k.Fork(base, "reserved")
			if reserved == nil {
				return fmt.Errorf("schedsim: process table full")
			}
			reserved.Workload = busyWorkload(flags.ticks)
			if rc := k.CPUShare(reserved, int64(percent)); rc != 0 {
				return fmt.Errorf("schedsim: cpu_share(%d) rejected", percent)
			}

			if err := runFor(flags, k, serve); err != nil {
				return err
			}
			k.Dump(os.Stdout)
			return nil
		},
	}
	cmd.Flags().IntVar(&percent, "percent", 20, "percentage of CPU to reserve for the second process")
	return cmd
}

func newBoostDemoCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "boost-demo",
		Short: "Boot several MLFQ processes and run long enough to observe a priority boost",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(flags.verbose)
			defer log.Sync() //nolint:errcheck
			k, serve := buildKernel(flags, log)

			init := k.Boot("init")
			init.Workload = busyWorkload(flags.ticks)

			for i := 0; i < 3; i++ {
				child := k.Fork(init, fmt.Sprintf("mlfq-%d", i))
				if child == nil {
					return fmt.Errorf("schedsim: process table full")
				}
				k.RunMLFQ(child)
				child.Workload = busyWorkload(flags.ticks)
			}

			if err := runFor(flags, k, serve); err != nil {
				return err
			}
			k.Dump(os.Stdout)
			return nil
		},
	}
}

func newInspectCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Boot the kernel, run briefly, and dump the final process table",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(flags.verbose)
			defer log.Sync() //nolint:errcheck
			k, serve := buildKernel(flags, log)

			p := k.Boot("init")
			p.Workload = busyWorkload(flags.ticks)

			if err := runFor(flags, k, serve); err != nil {
				return err
			}
			k.Dump(os.Stdout)
			return nil
		},
	}
}
