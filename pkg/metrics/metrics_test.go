package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/statiq/scout/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetrics(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("Then all record helpers are safe to call", func() {
			So(func() {
				metrics.RecordSearchIssued()
				metrics.RecordSearchSucceeded()
				metrics.RecordSearchFailed()
				metrics.RecordSearchTimedOut()
				metrics.RecordSearchSuperseded()
				metrics.RecordDebounceCancel()
				metrics.RecordSearchLatency(0.042)
				metrics.UpdateRecencySize(7)
				metrics.RecordRecencyRecord()
				metrics.RecordRecencyEviction()
				metrics.RecordVoteStored()
				metrics.RecordVoteRemoved()
				metrics.RecordStorageError("recency", "set")
			}, ShouldNotPanic)
		})

		Convey("Then the registry gathers without error", func() {
			families, err := metrics.GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}

func TestNewManager(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		m := metrics.NewManager(
			metrics.WithNamespace("test"),
			metrics.WithSubsystem("pipeline"),
			metrics.WithHistogramBuckets([]float64{0.1, 1, 10}),
			metrics.WithPrometheusRegistry(prometheus.NewRegistry()),
		)
		So(m, ShouldNotBeNil)
	})
}
