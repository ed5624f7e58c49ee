package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mfrlink",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mfrlink",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	linkPackets = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mfrlink",
			Subsystem: "link",
			Name:      "packets_total",
			Help:      "Inbound datagrams by stream and decode outcome.",
		},
		[]string{"stream", "outcome"},
	)
	linkLost = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mfrlink",
			Subsystem: "link",
			Name:      "lost_packets_total",
			Help:      "Batch frames inferred lost from sequence gaps.",
		},
		[]string{"stream"},
	)
	linkRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mfrlink",
			Subsystem: "link",
			Name:      "records_total",
			Help:      "Decoded simulation records by stream and record type.",
		},
		[]string{"stream", "record"},
	)
	linkLastSeq = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "mfrlink",
			Subsystem: "link",
			Name:      "last_seq_id",
			Help:      "Sequence id of the most recent accepted batch frame.",
		},
		[]string{"stream"},
	)
	linkSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mfrlink",
			Subsystem: "link",
			Name:      "sent_packets_total",
			Help:      "Outbound datagrams by stream.",
		},
		[]string{"stream"},
	)
	controlRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mfrlink",
			Subsystem: "control",
			Name:      "requests_total",
			Help:      "Control channel requests by type and outcome.",
		},
		[]string{"request", "outcome"},
	)
	controlDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mfrlink",
			Subsystem: "control",
			Name:      "request_duration_seconds",
			Help:      "Control request handling duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"request"},
	)
	trackCount = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "mfrlink",
			Subsystem: "picture",
			Name:      "tracks",
			Help:      "Live tracks held in the air picture.",
		},
		[]string{"kind"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			linkPackets, linkLost, linkRecords, linkLastSeq, linkSent,
			controlRequests, controlDuration,
			trackCount,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordPacket counts one inbound datagram. outcome is a protocol.Kind label
// or "legacy" for single-record datagrams.
func RecordPacket(stream, outcome string) {
	RegisterMetrics()
	linkPackets.WithLabelValues(stream, outcome).Inc()
}

func RecordLoss(stream string, lost uint32) {
	if lost == 0 {
		return
	}
	RegisterMetrics()
	linkLost.WithLabelValues(stream).Add(float64(lost))
}

func RecordRecords(stream, record string, n int) {
	RegisterMetrics()
	linkRecords.WithLabelValues(stream, record).Add(float64(n))
}

func SetLastSeq(stream string, seq uint32) {
	RegisterMetrics()
	linkLastSeq.WithLabelValues(stream).Set(float64(seq))
}

func RecordSent(stream string, packets int) {
	RegisterMetrics()
	linkSent.WithLabelValues(stream).Add(float64(packets))
}

func RecordControlRequest(request, outcome string, duration time.Duration) {
	RegisterMetrics()
	controlRequests.WithLabelValues(request, outcome).Inc()
	controlDuration.WithLabelValues(request).Observe(duration.Seconds())
}

func SetTrackCount(kind string, n int) {
	RegisterMetrics()
	trackCount.WithLabelValues(kind).Set(float64(n))
}
