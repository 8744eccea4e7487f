package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		So(Init(), ShouldBeNil)
		defer func() { So(Sync(), ShouldBeNil) }()

		Convey("Then Get and Named return usable loggers", func() {
			So(Get(), ShouldNotBeNil)
			named := Named("test")
			So(named, ShouldNotBeNil)
			So(func() { named.Info(context.Background(), "test message", String("k", "v")) }, ShouldNotPanic)
		})
	})
}

func TestLoggerNew(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		log := New(&buf, slog.LevelInfo)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			log.With(String("session", "abc")).Error(ctx, "store write failed",
				String("key", "userEntry"),
				Bool("retry", false),
				Duration("took", 2*time.Millisecond),
				Error(errors.New("boom")),
			)

			Convey("Then the record carries message and fields", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "store write failed")
				So(out, ShouldContainSubstring, "session=abc")
				So(out, ShouldContainSubstring, "key=userEntry")
				So(out, ShouldContainSubstring, "error=boom")
			})
		})

		Convey("When logging below the level", func() {
			log.Debug(ctx, "hidden")

			Convey("Then nothing is written", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a nop logger", t, func() {
		So(func() { Nop().Error(context.Background(), "dropped") }, ShouldNotPanic)
	})
}

func TestParseLevel(t *testing.T) {
	Convey("Given level names", t, func() {
		cases := map[string]slog.Level{
			"debug":   slog.LevelDebug,
			"":        slog.LevelInfo,
			"INFO":    slog.LevelInfo,
			"warning": slog.LevelWarn,
			"error":   slog.LevelError,
		}
		for name, want := range cases {
			lvl, err := ParseLevel(name)
			So(err, ShouldBeNil)
			So(lvl, ShouldEqual, want)
		}

		_, err := ParseLevel("loud")
		So(err, ShouldNotBeNil)
		So(SetLevelString("loud"), ShouldNotBeNil)
	})
}
