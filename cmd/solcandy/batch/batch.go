package batch

import (
	"context"
	"errors"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.firedancer.io/solcandy/cmd/solcandy/rpcflags"
	"go.firedancer.io/solcandy/pkg/keyfmt"
	"k8s.io/klog/v2"
)

var Cmd = cobra.Command{
	Use:   "batch <jobs.yaml>",
	Short: "List mints of many candy machines",
	Long: "Runs mint discovery for every candy machine listed in a YAML job file,\n" +
		"with several queries in flight. Each candy machine is independent: a failed\n" +
		"query is reported in its result without affecting the others.\n" +
		"\n" +
		"Output is a JSON array of results, in job file order.",
	Args: cobra.ExactArgs(1),
}

var flags = Cmd.Flags()

var (
	flagWorkers     = flags.UintP("workers", "w", uint(runtime.NumCPU()), "Number of concurrent getProgramAccounts queries")
	flagOut         = flags.StringP("out", "o", "", "Write results to file instead of stdout")
	flagStatIvl     = flags.Duration("stat-interval", 5*time.Second, "Stats interval (0 = off)")
	flagMetricsAddr = flags.String("metrics-addr", "", "Serve Prometheus metrics on this address while running")
	flagRPC         = rpcflags.Register(flags)
)

func init() {
	Cmd.Run = run
}

func run(c *cobra.Command, args []string) {
	start := time.Now()

	f, err := os.Open(args[0])
	if err != nil {
		klog.Exitf("Failed to open job file: %s", err)
	}
	jf, err := LoadJobFile(f)
	f.Close()
	if err != nil {
		klog.Exitf("Invalid job file %s: %s", args[0], err)
	}
	jobs, err := jf.Jobs()
	if err != nil {
		klog.Exitf("Invalid job file %s: %s", args[0], err)
	}

	// Flags win over the job file.
	if !flags.Changed("rpc") && jf.RPC != "" {
		flagRPC.RPC = jf.RPC
	}
	if !flags.Changed("commitment") && jf.Commitment != "" {
		flagRPC.Commitment = jf.Commitment
	}
	client, err := flagRPC.Client()
	if err != nil {
		klog.Exitf("Invalid RPC flags: %s", err)
	}
	defer client.Close()

	workers := int(*flagWorkers)
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	klog.Infof("Flags: jobs=%d workers=%d rpc=%s commitment=%s out=%q", len(jobs), workers, flagRPC.Endpoint(), flagRPC.Commitment, *flagOut)

	ctx := c.Context()
	if *flagMetricsAddr != "" {
		stopMetrics := serveMetrics(*flagMetricsAddr)
		defer stopMetrics()
	}

	prog := newProgress(ctx, len(jobs), *flagStatIvl)
	results := Run(ctx, client, jobs, workers, prog.done)
	prog.close()

	out, closeOut, err := keyfmt.OpenOutput(*flagOut)
	if err != nil {
		klog.Exitf("Failed to open output: %s", err)
	}
	err = keyfmt.WriteJSON(out, results)
	closeOut()
	if err != nil {
		klog.Exitf("Failed to write results: %s", err)
	}

	var numMints, numFailed int
	for i := range results {
		if results[i].Failed() {
			numFailed++
			continue
		}
		numMints += len(results[i].Mints)
	}
	klog.Infof("Found %s mints across %d candy machines in %s", humanize.Comma(int64(numMints)), len(results)-numFailed, time.Since(start).Round(time.Millisecond))
	if numFailed > 0 {
		klog.Exitf("%d of %d candy machines failed", numFailed, len(results))
	}
}

func serveMetrics(addr string) (stop func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		klog.Infof("Serving metrics on http://%s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			klog.Errorf("Metrics server failed: %s", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			klog.Warningf("Failed to shut down metrics server: %s", err)
		}
	}
}
