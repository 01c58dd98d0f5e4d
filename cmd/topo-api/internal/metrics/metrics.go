package metrics

import (
	"fmt"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	probeCycles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "topo",
			Subsystem: "discovery",
			Name:      "probe_cycles_total",
			Help:      "The number of completed probe cycles.",
		})

	probesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "topo",
			Subsystem: "discovery",
			Name:      "probes_sent_total",
			Help:      "The number of lldp probes sent to switches.",
		},
		[]string{"version"})

	packetIn = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "topo",
			Subsystem: "discovery",
			Name:      "packet_in_total",
			Help:      "The number of received packet-in events by correlation result.",
		},
		[]string{"result"})

	linksDiscovered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "topo",
			Subsystem: "discovery",
			Name:      "links_discovered_total",
			Help:      "The number of link discovered events published.",
		})

	connectedSwitches = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "topo",
			Subsystem: "southbound",
			Name:      "connected_switches",
			Help:      "The number of currently connected switches.",
		})

	counter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "topo",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "A counter for requests to the whole topo api.",
		},
		[]string{"code", "method"},
	)

	duration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "topo",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "A histogram of latencies for requests.",
			Buckets:   []float64{.25, .5, 1, 2.5, 5, 10},
		},
		[]string{"route", "method"},
	)
)

func init() {
	prometheus.MustRegister(probeCycles, probesSent, packetIn, linksDiscovered, connectedSwitches, counter, duration)
}

// ProbeCycle counts one completed probe cycle.
func ProbeCycle() {
	probeCycles.Inc()
}

// ProbeSent counts one emitted probe for the given protocol version.
func ProbeSent(version string) {
	probesSent.WithLabelValues(version).Inc()
}

// Correlation results for PacketIn.
const (
	ResultProbe   = "probe"
	ResultForeign = "foreign"
	ResultOther   = "other"
	ResultMiss    = "miss"
)

// PacketIn counts one received frame event by its correlation result.
func PacketIn(result string) {
	packetIn.WithLabelValues(result).Inc()
}

// LinkDiscovered counts one published link event.
func LinkDiscovered() {
	linksDiscovered.Inc()
}

// ProvideConnectedSwitches provides the gauge of connected switches so a
// scraper can collect it.
func ProvideConnectedSwitches(n int) {
	connectedSwitches.Set(float64(n))
}

func RestfulMetrics(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	n := time.Now()
	chain.ProcessFilter(req, resp)
	counter.WithLabelValues(fmt.Sprintf("%d", resp.StatusCode()), req.Request.Method).Inc()
	duration.WithLabelValues(req.SelectedRoutePath(), req.Request.Method).Observe(time.Since(n).Seconds())
}
