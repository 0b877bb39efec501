package telemetry

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const report_perf_stats = "perf-stats"

type perfGauges struct {
	cpu        metric.Float64Gauge
	heapMb     metric.Int64Gauge
	goroutines metric.Int64Gauge
}

func newPerfGauges(meter metric.Meter) (perfGauges, error) {
	cpuGauge, err := meter.Float64Gauge("process.cpu_percent")
	if err != nil {
		return perfGauges{}, fmt.Errorf("create cpu gauge: %w", err)
	}
	heapGauge, err := meter.Int64Gauge("process.heap_mb")
	if err != nil {
		return perfGauges{}, fmt.Errorf("create heap gauge: %w", err)
	}
	goroutineGauge, err := meter.Int64Gauge("process.goroutines")
	if err != nil {
		return perfGauges{}, fmt.Errorf("create goroutine gauge: %w", err)
	}
	return perfGauges{cpu: cpuGauge, heapMb: heapGauge, goroutines: goroutineGauge}, nil
}

// sample records one data point on every gauge, cpu usage is measured over a second.
func (g perfGauges) sample(ctx context.Context, tel API) {
	usage, err := cpu.PercentWithContext(ctx, time.Second, false)
	switch {
	case err != nil:
		tel.ReportWarning(report_perf_stats, err)
	case len(usage) > 0:
		g.cpu.Record(ctx, usage[0])
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	g.heapMb.Record(ctx, int64(mem.HeapAlloc/1_000_000))
	g.goroutines.Record(ctx, int64(runtime.NumGoroutine()))
}

// InstrumentPerfStats samples process gauges on the global meter every interval until
// ctx is done. Gauges that cannot be created are reported as broken and nothing is sampled.
func InstrumentPerfStats(ctx context.Context, tel API, interval time.Duration) {
	instrumentPerfStats(ctx, otel.Meter("campusdual.perf_stats"), tel, interval)
}

func instrumentPerfStats(ctx context.Context, meter metric.Meter, tel API, interval time.Duration) {
	gauges, err := newPerfGauges(meter)
	if err != nil {
		tel.ReportBroken(report_perf_stats, err)
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				gauges.sample(ctx, tel)
			case <-ctx.Done():
				return
			}
		}
	}()
}
