package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	logAdapter "github.com/scopekit/acquire/internal/adapters/log"
	"github.com/scopekit/acquire/internal/adapters/sim"
	"github.com/scopekit/acquire/internal/cliconfig"
	"github.com/scopekit/acquire/pkg/acquire"
)

const helpDescription = `
Run a multi-dimensional acquisition sequence against simulated imaging
hardware and store the captured frames as chunked raw files.

Highlights:
  - Declarative TOML specs: time, stage, channel and focus axes in any order.
  - Deterministic planning with per-device settle timeouts and safe aborts.
  - Bounded write queue with retries so slow disks never drop frames.
  - Configure via file, environment (ACQUIRE_*) or flags.
`

var longHelp = strings.TrimSpace(helpDescription)

var exampleUsage = strings.TrimSpace(`
  acquire --spec timelapse.toml --output ./run-001
  acquire --spec scan.toml --on-error skip --watch
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "acquire",
		Short:   "Run a multi-dimensional acquisition sequence and store its frames",
		Long:    longHelp,
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first (default $HOME/.acquire/config.toml),
			// then environment, then flag overrides.
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			if cfg.Verbose {
				log = log.Level(zerolog.DebugLevel)
			} else {
				log = log.Level(zerolog.InfoLevel)
			}
			log.Info().Interface("config", cfg).Msg("configuration")

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				log.Info().Msg("received signal, stopping...")
				cancel()
			}()

			if cfg.Watch {
				return watchAndRun(ctx, cfg, log)
			}
			return runOnce(ctx, cfg, log)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.acquire/config.toml)")
	root.Flags().StringVar(&cfg.SpecPath, "spec", "", "path to the acquisition spec file (TOML)")
	root.Flags().StringVar(&cfg.OutputDir, "output", cfg.OutputDir, "chunk storage root for captured frames")

	root.Flags().DurationVar(&cfg.StageTimeout, "stage-timeout", cfg.StageTimeout, "settle timeout for stage moves")
	root.Flags().DurationVar(&cfg.FilterTimeout, "filter-timeout", cfg.FilterTimeout, "settle timeout for filter changes")
	root.Flags().DurationVar(&cfg.ExposureTimeout, "exposure-timeout", cfg.ExposureTimeout, "settle timeout for exposure programming")
	root.Flags().DurationVar(&cfg.CaptureTimeout, "capture-timeout", cfg.CaptureTimeout, "capture timeout on top of the programmed exposure")

	root.Flags().IntVar(&cfg.QueueCapacity, "queue", cfg.QueueCapacity, "frame write queue capacity before dispatch blocks")
	root.Flags().IntVar(&cfg.WriteRetries, "write-retries", cfg.WriteRetries, "persistence attempts per frame")
	root.Flags().StringVar(&cfg.OnError, "on-error", cfg.OnError, "failure policy: halt or skip")
	root.Flags().DurationVar(&cfg.CancelGrace, "cancel-grace", cfg.CancelGrace, "settle window before a cancel escalates to a device abort")

	root.Flags().DurationVar(&cfg.SimStageLatency, "sim-stage-latency", cfg.SimStageLatency, "simulated stage settle latency")
	root.Flags().IntVar(&cfg.SimFailEvery, "sim-fail-every", cfg.SimFailEvery, "make every Nth simulated command fail (0 disables)")
	root.Flags().IntVar(&cfg.SimWidth, "sim-width", cfg.SimWidth, "simulated frame width in pixels")
	root.Flags().IntVar(&cfg.SimHeight, "sim-height", cfg.SimHeight, "simulated frame height in pixels")

	root.Flags().BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable debug logging")
	root.Flags().BoolVar(&cfg.Watch, "watch", cfg.Watch, "rerun the sequence whenever the spec file changes")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("acquire")
		os.Exit(1)
	}
}

// runOnce executes the spec a single time and blocks until the run reaches
// a terminal state or ctx is cancelled.
func runOnce(ctx context.Context, cfg cliconfig.Config, log zerolog.Logger) error {
	spec, err := cliconfig.LoadSpecFile(cfg.SpecPath)
	if err != nil {
		return err
	}

	gatewayCfg := sim.DefaultGatewayConfig()
	gatewayCfg.StageLatency = cfg.SimStageLatency
	gatewayCfg.FailEvery = cfg.SimFailEvery
	gatewayCfg.Width = cfg.SimWidth
	gatewayCfg.Height = cfg.SimHeight

	zerologAdapter := logAdapter.NewZerologAdapterWithLogger(log)
	gateway := sim.NewGateway(gatewayCfg, zerologAdapter)

	libCfg := acquire.DefaultConfig()
	libCfg.OutputDir = cfg.OutputDir
	libCfg.StageTimeout = cfg.StageTimeout
	libCfg.FilterTimeout = cfg.FilterTimeout
	libCfg.ExposureTimeout = cfg.ExposureTimeout
	libCfg.CaptureTimeout = cfg.CaptureTimeout
	libCfg.QueueCapacity = cfg.QueueCapacity
	libCfg.WriteRetries = cfg.WriteRetries
	libCfg.OnError = acquire.FailurePolicy(cfg.OnError)
	libCfg.CancelGrace = cfg.CancelGrace

	ctrl, err := acquire.New(gateway, libCfg,
		acquire.WithLogger(zerologAdapter),
		acquire.WithEventHandler(&cliEvents{log: log}),
	)
	if err != nil {
		return fmt.Errorf("create controller: %w", err)
	}

	if err := ctrl.Start(context.Background(), spec); err != nil {
		return fmt.Errorf("start acquisition: %w", err)
	}

	result, runErr := ctrl.Await(ctx)
	if ctx.Err() != nil && errors.Is(runErr, ctx.Err()) {
		// Interrupted: stop cooperatively and wait for the partial result.
		if err := ctrl.Cancel(); err != nil && !errors.Is(err, acquire.ErrNotRunning) {
			return fmt.Errorf("cancel acquisition: %w", err)
		}
		result, runErr = ctrl.Await(context.Background())
	}

	log.Info().
		Uint64("frames", result.FramesEmitted).
		Uint64("stored", result.FramesStored).
		Int("failed", result.EventsFailed).
		Bool("cancelled", result.Cancelled).
		Msg("run finished")
	if runErr != nil {
		return fmt.Errorf("acquisition failed: %w", runErr)
	}
	return nil
}

// cliEvents logs controller notifications. Callbacks arrive on engine
// goroutines, so it only writes log lines.
type cliEvents struct {
	log zerolog.Logger
}

func (h *cliEvents) OnStateChange(e acquire.StateChangeEvent) {
	h.log.Info().
		Str("from", e.Previous.String()).
		Str("to", e.Current.String()).
		Str("reason", e.Reason).
		Msg("state change")
}

func (h *cliEvents) OnFrame(e acquire.FrameEvent) {
	h.log.Debug().
		Uint64("seq", e.Frame.Seq).
		Str("coord", e.Frame.Coord.String()).
		Int("bytes", len(e.Frame.Pixels)).
		Msg("frame captured")
}

func (h *cliEvents) OnEventFailed(e acquire.EventFailedEvent) {
	h.log.Warn().
		Int("event", e.EventIndex).
		Str("coord", e.Coord.String()).
		Err(e.Err).
		Msg("event failed")
}

func (h *cliEvents) OnStorageError(e acquire.StorageErrorEvent) {
	h.log.Error().
		Uint64("seq", e.Seq).
		Str("coord", e.Coord.String()).
		Err(e.Err).
		Msg("frame write failed")
}
