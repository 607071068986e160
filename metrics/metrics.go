// Copyright 2018 The go-klaytn Authors
// This file is part of the go-klaytn library.
//
// The go-klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-klaytn library. If not, see <http://www.gnu.org/licenses/>.

// Package metrics tracks per-scanner gauges with rcrowley/go-metrics and
// bridges them to Prometheus, the way cmd/kcn bridged klaytn's node metrics.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	gometrics "github.com/rcrowley/go-metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Enabled toggles gauge collection process-wide; set by config at startup.
var Enabled = false

// Registry is the process-wide go-metrics registry all scanner gauges
// register into, mirroring gometrics.DefaultRegistry's role in the teacher.
var Registry = gometrics.NewRegistry()

// ScannerGauges is the per-stage gauge set every scanner constructs once at
// startup, mirroring chaindata_fetcher.go's totalInsertionTimeGauge and
// retry-gauge pattern generalized across every scanner stage instead of one.
type ScannerGauges struct {
	RunDuration   gometrics.Gauge
	RowsProcessed gometrics.Counter
	Errors        gometrics.Counter
	Retries       gometrics.Counter
}

// NewScannerGauges registers a gauge set under name (e.g. "source_scanner").
func NewScannerGauges(name string) *ScannerGauges {
	g := &ScannerGauges{
		RunDuration:   gometrics.NewGauge(),
		RowsProcessed: gometrics.NewCounter(),
		Errors:        gometrics.NewCounter(),
		Retries:       gometrics.NewCounter(),
	}
	if !Enabled {
		return g
	}
	gometrics.GetOrRegister(name+"/run_duration_ms", g.RunDuration, Registry)
	gometrics.GetOrRegister(name+"/rows_processed", g.RowsProcessed, Registry)
	gometrics.GetOrRegister(name+"/errors", g.Errors, Registry)
	gometrics.GetOrRegister(name+"/retries", g.Retries, Registry)
	return g
}

// ObserveRun records one scanner pass's duration and row count.
func (g *ScannerGauges) ObserveRun(d time.Duration, rows int64) {
	g.RunDuration.Update(d.Milliseconds())
	g.RowsProcessed.Inc(rows)
}

// promBridge periodically copies go-metrics values into prometheus gauges,
// the same shape as prometheusmetrics.NewPrometheusProvider in the teacher,
// written by hand here because that bridging library is not itself part of
// the dependency stack.
type promBridge struct {
	gauges map[string]prometheus.Gauge
}

// StartPrometheusExporter starts an HTTP listener serving /metrics and a
// background goroutine that refreshes prometheus gauges from the go-metrics
// registry every interval, mirroring cmd/kcn/main.go's app.Before hook.
func StartPrometheusExporter(addr string, interval time.Duration) error {
	bridge := &promBridge{gauges: map[string]prometheus.Gauge{}}
	go bridge.run(interval)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
	return nil
}

func (b *promBridge) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		Registry.Each(func(name string, i interface{}) {
			g, ok := b.gauges[name]
			if !ok {
				g = prometheus.NewGauge(prometheus.GaugeOpts{
					Name: metricName(name),
					Help: fmt.Sprintf("airdropindexer metric %s", name),
				})
				prometheus.MustRegister(g)
				b.gauges[name] = g
			}
			switch m := i.(type) {
			case gometrics.Gauge:
				g.Set(float64(m.Value()))
			case gometrics.Counter:
				g.Set(float64(m.Count()))
			}
		})
	}
}

func metricName(raw string) string {
	out := make([]byte, 0, len(raw))
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, byte(r))
		default:
			out = append(out, '_')
		}
	}
	return "airdropindexer_" + string(out)
}
