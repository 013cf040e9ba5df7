package assetstore

import "github.com/prometheus/client_golang/prometheus"

var (
	loadedDesc = prometheus.NewDesc(
		"enginecore_assetstore_loaded_total",
		"Number of assets currently in each state (ready, failed, loading).",
		[]string{"state"}, nil,
	)
	queueDesc = prometheus.NewDesc(
		"enginecore_assetstore_queue_length",
		"Number of pending load requests not yet serviced by a pump step.",
		nil, nil,
	)
	bytesReadDesc = prometheus.NewDesc(
		"enginecore_assetstore_bytes_read_total",
		"Total bytes read from asset sources across every pump step.",
		nil, nil,
	)
	ioMicrosDesc = prometheus.NewDesc(
		"enginecore_assetstore_io_microseconds_total",
		"Cumulative time spent in Source.Read across every pump step.",
		nil, nil,
	)
	importMicrosDesc = prometheus.NewDesc(
		"enginecore_assetstore_import_microseconds_total",
		"Cumulative time spent in Importer.Import across every pump step.",
		nil, nil,
	)
)

// Describe implements prometheus.Collector.
func (s *Store) Describe(ch chan<- *prometheus.Desc) {
	ch <- loadedDesc
	ch <- queueDesc
	ch <- bytesReadDesc
	ch <- ioMicrosDesc
	ch <- importMicrosDesc
}

// Collect implements prometheus.Collector by sampling StatsSnapshot. The
// store itself has no background goroutine; metrics are computed fresh on
// every scrape, matching the rest of the store's pull-on-demand diagnostic
// surface (StatsSnapshot, ListSnapshot).
func (s *Store) Collect(ch chan<- prometheus.Metric) {
	stats := s.StatsSnapshot()

	ch <- prometheus.MustNewConstMetric(loadedDesc, prometheus.CounterValue, float64(stats.ReadyCount), "ready")
	ch <- prometheus.MustNewConstMetric(loadedDesc, prometheus.CounterValue, float64(stats.FailedCount), "failed")
	ch <- prometheus.MustNewConstMetric(loadedDesc, prometheus.CounterValue, float64(stats.LoadingCount), "loading")
	ch <- prometheus.MustNewConstMetric(queueDesc, prometheus.GaugeValue, float64(stats.QueueLen))
	ch <- prometheus.MustNewConstMetric(bytesReadDesc, prometheus.CounterValue, float64(stats.BytesRead))
	ch <- prometheus.MustNewConstMetric(ioMicrosDesc, prometheus.CounterValue, float64(stats.IOMicros))
	ch <- prometheus.MustNewConstMetric(importMicrosDesc, prometheus.CounterValue, float64(stats.ImportMicros))
}
