package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a private registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			m.generations.WithLabelValues(OutcomeCompleted).Inc()

			Convey("Then metrics carry the namespace and labels", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_unit_generations_total"], ShouldBeTrue)
				So(m.namespace, ShouldEqual, "test")
				So(m.histogramBuckets, ShouldResemble, []float64{1, 10})
			})
		})

		Convey("When empty options are given", func() {
			m := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil),
				WithConstLabels(nil), WithPrometheusRegistry(registry))

			Convey("Then defaults are kept", func() {
				So(m.namespace, ShouldEqual, "pscore")
				So(m.subsystem, ShouldEqual, "service")
				So(len(m.histogramBuckets), ShouldBeGreaterThan, 0)
				So(m.constLabels, ShouldNotBeNil)
			})
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording generation outcomes", func() {
			before := testutil.ToFloat64(globalManager.generations.WithLabelValues(OutcomeMalformed))
			RecordGeneration(OutcomeMalformed, 1200)
			RecordGeneration(OutcomeCancelled, 0)

			Convey("Then the counter moves", func() {
				after := testutil.ToFloat64(globalManager.generations.WithLabelValues(OutcomeMalformed))
				So(after-before, ShouldEqual, 1)
			})
		})

		Convey("When tracking in-flight generations", func() {
			base := testutil.ToFloat64(globalManager.generationsActive)
			GenerationStarted()
			So(testutil.ToFloat64(globalManager.generationsActive), ShouldEqual, base+1)
			GenerationFinished()
			So(testutil.ToFloat64(globalManager.generationsActive), ShouldEqual, base)
		})

		Convey("When recording the remaining metrics", func() {
			So(func() {
				RecordLeaderboardRefresh("ok", 500)
				RecordLeaderboardPost("verified")
				RecordPersistenceCorrupt("userEntry")
				RecordStoreError("set")
				UpdateActiveSessions(3)
				RecordSessionCreated()
				RecordHTTPRequest("sessions", "POST", "201")
				RecordHTTPRequestDuration("sessions", "POST", "201", 3)
				RecordErrorByType("client_error", "medium")
				RecordErrorByEndpoint("generate", "POST", "client_error")
				RecordErrorLatency("http", "client_error", 2)
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.4)
			}, ShouldNotPanic)
			So(testutil.ToFloat64(globalManager.sessionsActive), ShouldEqual, 3)
		})

		Convey("When recording concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					RecordStoreError("get")
				}()
			}
			wg.Wait()
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
