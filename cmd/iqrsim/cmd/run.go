package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/sarchlab/vcrouter/config"
	"github.com/sarchlab/vcrouter/datarecording"
	"github.com/sarchlab/vcrouter/monitoring"
	"github.com/sarchlab/vcrouter/noc/networking/monitors"
	"github.com/sarchlab/vcrouter/noc/networking/switching/iqrouter"
	"github.com/sarchlab/vcrouter/noc/standalone"
	"github.com/sarchlab/vcrouter/sim"
)

type runOptions struct {
	configFile  string
	traceFile   string
	envFile     string
	maxCycles   uint64
	record      string
	monitor     bool
	monitorPort int
	openBrowser bool
	verbose     bool
	logFile     string
	parallel    bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a trace through a router.",
	Long: "`run --config router.yaml --trace trace.csv` injects the packets " +
		"of the trace, one injector per router input, and drains every " +
		"output into a sink until all the flits are delivered.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		flags := cmd.Flags()
		opts := runOptions{}
		opts.configFile, _ = flags.GetString("config")
		opts.traceFile, _ = flags.GetString("trace")
		opts.envFile, _ = flags.GetString("env")
		opts.maxCycles, _ = flags.GetUint64("cycles")
		opts.record, _ = flags.GetString("record")
		opts.monitor, _ = flags.GetBool("monitor")
		opts.monitorPort, _ = flags.GetInt("monitor-port")
		opts.openBrowser, _ = flags.GetBool("open-browser")
		opts.verbose, _ = flags.GetBool("verbose")
		opts.logFile, _ = flags.GetString("log-file")
		opts.parallel, _ = flags.GetBool("parallel")

		if opts.parallel {
			sim.UseParallelIDGenerator()
		}

		return simulate(opts, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.String("config", "", "The router configuration file")
	flags.String("trace", "", "The packet trace, as CSV")
	flags.String("env", "", "A .env file with VCROUTER_* overrides")
	flags.Uint64("cycles", 1000000, "Stop after this many cycles")
	flags.String("record", "", "Store the monitor summaries in this SQLite database")
	flags.Bool("monitor", false, "Serve the monitoring page while running")
	flags.Int("monitor-port", 0, "The port of the monitoring page")
	flags.Bool("open-browser", false, "Open the monitoring page in a browser")
	flags.Bool("verbose", false, "Trace every flit through the pipeline")
	flags.String("log-file", "", "Write every flit event of the router to this file")
	flags.Bool("parallel", false, "Tick the components on several goroutines")

	_ = runCmd.MarkFlagRequired("config")
	_ = runCmd.MarkFlagRequired("trace")
}

type simulation struct {
	engine   sim.Engine
	router   *iqrouter.Comp
	harness  *standalone.Harness
	switches *monitors.SwitchMonitor
	buffers  *monitors.BufferMonitor
	latency  *monitors.LatencyMonitor
	flits    int
}

func simulate(opts runOptions, out io.Writer) error {
	err := config.LoadEnvFile(opts.envFile)
	if err != nil {
		return err
	}

	f, err := config.Load(opts.configFile)
	if err != nil {
		return err
	}

	entries, err := readTrace(opts.traceFile)
	if err != nil {
		return err
	}

	s, err := buildSimulation(f, entries, opts)
	if err != nil {
		return err
	}

	if opts.logFile != "" {
		logFile, err := os.Create(opts.logFile)
		if err != nil {
			return err
		}
		defer logFile.Close()

		s.router.AcceptHook(monitors.NewFlitLogger(log.New(logFile, "", 0)))
	}

	if opts.monitor {
		err = s.startMonitor(opts.monitorPort, opts.openBrowser)
		if err != nil {
			return err
		}
	}

	var (
		recorder datarecording.DataRecorder
		exec     *datarecording.ExecRecorder
	)

	if opts.record != "" {
		recorder = datarecording.New(opts.record)
		exec = datarecording.NewExecRecorder(recorder)
		exec.Start()
		exec.Note("Config", opts.configFile)
		exec.Note("Trace", opts.traceFile)
	}

	done := s.harness.Run(sim.VTimeInCycle(opts.maxCycles))
	s.report(out)

	if recorder != nil {
		exec.Note("Cycles", fmt.Sprint(s.engine.CurrentTime()))
		exec.End()
		monitors.Record(recorder, s.router.Name(), s.switches, s.buffers)

		err = recorder.Close()
		if err != nil {
			return err
		}
	}

	if !done {
		return fmt.Errorf("%d of %d flits delivered within %d cycles",
			s.harness.NumDelivered(), s.flits, opts.maxCycles)
	}

	return nil
}

func readTrace(filename string) ([]standalone.TraceEntry, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	entries, err := standalone.ParseTrace(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	return entries, nil
}

func buildSimulation(
	f config.File,
	entries []standalone.TraceEntry,
	opts runOptions,
) (*simulation, error) {
	routingFn, lookahead, err := f.RoutingFunction()
	if err != nil {
		return nil, err
	}

	s := &simulation{
		engine:   sim.NewSerialEngine(),
		switches: monitors.NewSwitchMonitor(),
		buffers:  monitors.NewBufferMonitor(),
		latency:  monitors.NewLatencyMonitor(),
	}

	if opts.parallel {
		s.engine = sim.NewParallelEngine()
	}

	builder := iqrouter.MakeBuilder().
		WithEngine(s.engine).
		WithConfig(f.Router).
		WithRouterID(f.RouterID).
		WithRoutingFunction(routingFn)

	if lookahead != nil {
		builder = builder.WithLookahead(lookahead)
	}

	if opts.verbose || f.Verbose {
		builder = builder.WithVerbose()
	}

	s.router = builder.Build("Router")
	s.router.AcceptHook(s.switches)
	s.router.AcceptHook(s.buffers)
	s.router.AcceptHook(s.latency)

	s.harness = standalone.NewHarness(
		s.engine, s.router, f.Router.VCBufSize, f.ChannelLatency)

	err = s.harness.Load(entries)
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		s.flits += e.Size
	}

	return s, nil
}

func (s *simulation) startMonitor(port int, openBrowser bool) error {
	m := monitoring.NewMonitor().WithPortNumber(port)
	m.RegisterEngine(s.engine)
	m.RegisterComponent(s.router)

	for _, inj := range s.harness.Injectors {
		m.RegisterComponent(inj)
	}

	for _, sink := range s.harness.Sinks {
		m.RegisterComponent(sink)
	}

	bar := m.CreateProgressBar("Delivered Flits", uint64(s.flits))
	s.engine.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
		if ctx.Pos == sim.HookPosAfterCycle {
			bar.SetFinished(uint64(s.harness.NumDelivered()))
		}
	}))

	url, err := m.StartServer()
	if err != nil {
		return err
	}

	if openBrowser {
		return browser.OpenURL(url)
	}

	return nil
}

func (s *simulation) report(out io.Writer) {
	fmt.Fprintf(out, "cycles: %d\n", s.engine.CurrentTime())

	for o, sink := range s.harness.Sinks {
		fmt.Fprintf(out, "output %d: %d flits, average latency %.2f cycles\n",
			o, sink.NumDelivered(), sink.AverageLatency())
	}

	fmt.Fprintf(out, "router latency: %.2f cycles average, %d cycles max\n",
		s.latency.AverageLatency(), s.latency.MaxLatency())

	fmt.Fprintf(out, "switch traversals: %d (%d speculative, %d voided grants)\n",
		s.switches.TotalTraversals(), s.switches.SpeculativeTraversals(),
		s.switches.VoidedGrants())
}
