package batch

import (
	"context"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/VividCortex/ewma"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"k8s.io/klog/v2"
)

// progress shows a bar on terminals and logs periodic rate stats.
type progress struct {
	progress *mpb.Progress
	bar      *mpb.Bar
	isAtty   bool
	stop     context.CancelFunc

	numMints  atomic.Uint64
	numFailed atomic.Uint64
}

func newProgress(ctx context.Context, numJobs int, statInterval time.Duration) *progress {
	ctx, cancel := context.WithCancel(ctx)
	p := &progress{stop: cancel}

	var barOutput io.Writer
	p.isAtty = isatty.IsTerminal(os.Stderr.Fd())
	if p.isAtty {
		barOutput = os.Stderr
	} else {
		barOutput = io.Discard
	}

	p.progress = mpb.NewWithContext(ctx, mpb.WithOutput(barOutput))
	p.bar = p.progress.New(int64(numJobs), mpb.BarStyle(),
		mpb.PrependDecorators(
			decor.Spinner(nil),
			decor.CurrentNoUnit(" %d"),
			decor.TotalNoUnit(" / %d candy machines"),
			decor.NewPercentage(" (% d)"),
		),
		mpb.AppendDecorators(
			decor.Name("eta="),
			decor.AverageETA(decor.ET_STYLE_GO),
		))

	if p.isAtty {
		klog.LogToStderr(false)
		klog.SetOutput(p.progress)
	}

	mintRate := ewma.NewMovingAverage(7)
	var lastNumMints uint64
	lastStatsUpdate := time.Now()
	updateEWMA := func() {
		now := time.Now()
		sinceLast := now.Sub(lastStatsUpdate)
		cur := p.numMints.Load()
		mintRate.Add(float64(cur-lastNumMints) / sinceLast.Seconds())
		lastNumMints = cur
		lastStatsUpdate = now
	}
	stats := func() {
		klog.Infof(
			"[stats] mints=%s mints/s=%.0f failed=%d",
			humanize.Comma(int64(p.numMints.Load())),
			mintRate.Value(),
			p.numFailed.Load(),
		)
	}

	if statInterval > 0 {
		statTicker := time.NewTicker(statInterval)
		rateTicker := time.NewTicker(250 * time.Millisecond)
		go func() {
			defer statTicker.Stop()
			defer rateTicker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-statTicker.C:
					stats()
				case <-rateTicker.C:
					updateEWMA()
				}
			}
		}()
	}
	return p
}

func (p *progress) done(res *Result) {
	if res.Failed() {
		p.numFailed.Add(1)
	} else {
		p.numMints.Add(uint64(len(res.Mints)))
	}
	p.bar.Increment()
}

// close waits for the bar to finish rendering and hands klog back to stderr.
func (p *progress) close() {
	if !p.bar.Completed() {
		p.bar.Abort(false)
	}
	p.progress.Wait()
	p.stop()
	if p.isAtty {
		klog.SetOutput(os.Stderr)
		klog.LogToStderr(true)
	}
}
