package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/alscos/hostdash/internal/sysinfo"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	reg      *prometheus.Registry
	requests *prometheus.CounterVec
}

func NewMetrics(sys *sysinfo.Collector) *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hostdash_http_requests_total",
			Help: "HTTP requests by route pattern and status code.",
		}, []string{"route", "code"}),
	}
	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		newHostCollector(sys),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{ErrorHandling: promhttp.ContinueOnError})
}

func (m *Metrics) observeRequest(route, code string) {
	m.requests.WithLabelValues(route, code).Inc()
}

// hostCollector exports the collector's live sample at scrape time.
type hostCollector struct {
	sys *sysinfo.Collector

	cpu        *prometheus.Desc
	memUsed    *prometheus.Desc
	memTotal   *prometheus.Desc
	memPercent *prometheus.Desc
	load1      *prometheus.Desc
	load5      *prometheus.Desc
	load15     *prometheus.Desc
	netSent    *prometheus.Desc
	netRecv    *prometheus.Desc
	uptime     *prometheus.Desc
	sampleErrs prometheus.Counter
}

func newHostCollector(sys *sysinfo.Collector) *hostCollector {
	d := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("hostdash_"+name, help, nil, nil)
	}
	return &hostCollector{
		sys:        sys,
		cpu:        d("cpu_percent", "CPU utilisation since the previous sample."),
		memUsed:    d("memory_used_bytes", "Used memory in bytes."),
		memTotal:   d("memory_total_bytes", "Total memory in bytes."),
		memPercent: d("memory_used_percent", "Used memory percentage."),
		load1:      d("load1", "1 minute load average."),
		load5:      d("load5", "5 minute load average."),
		load15:     d("load15", "15 minute load average."),
		netSent:    d("network_bytes_sent_total", "Bytes sent on all interfaces."),
		netRecv:    d("network_bytes_received_total", "Bytes received on all interfaces."),
		uptime:     d("uptime_seconds", "Seconds since boot."),
		sampleErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hostdash_sample_errors_total",
			Help: "Failed host samples during scrapes.",
		}),
	}
}

func (c *hostCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.cpu, c.memUsed, c.memTotal, c.memPercent,
		c.load1, c.load5, c.load15, c.netSent, c.netRecv, c.uptime,
	} {
		ch <- d
	}
	c.sampleErrs.Describe(ch)
}

func (c *hostCollector) Collect(ch chan<- prometheus.Metric) {
	defer c.sampleErrs.Collect(ch)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	snap, err := c.sys.Sample(ctx)
	if err != nil {
		c.sampleErrs.Inc()
		return
	}

	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}
	counter := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v)
	}

	gauge(c.cpu, snap.CPUPercent)
	gauge(c.memUsed, float64(snap.MemUsed))
	gauge(c.memTotal, float64(snap.MemTotal))
	gauge(c.memPercent, snap.MemUsedPercent)
	gauge(c.load1, snap.Load1)
	gauge(c.load5, snap.Load5)
	gauge(c.load15, snap.Load15)
	counter(c.netSent, float64(snap.NetBytesSent))
	counter(c.netRecv, float64(snap.NetBytesRecv))
	gauge(c.uptime, float64(snap.UptimeSec))
}
