package log

import (
	"testing"

	kratoslog "github.com/go-kratos/kratos/v2/log"
	"github.com/rs/zerolog"
)

func TestParseLevelKnownValues(t *testing.T) {
	cases := map[string]zerolog.Level{
		"off":   zerolog.Disabled,
		"trace": zerolog.TraceLevel,
		"debug": zerolog.DebugLevel,
		"warn":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
		"info":  zerolog.InfoLevel,
		"bogus": zerolog.InfoLevel,
		"":      zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestZerologSinkTranslatesKeyvalsWithoutError(t *testing.T) {
	z := zerolog.New(nopWriter{})
	s := &zerologSink{z: z}
	if err := s.Log(kratoslog.LevelInfo, "op", "test", "count", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// An odd number of keyvals leaves a trailing key unpaired; Log must not panic.
	if err := s.Log(kratoslog.LevelInfo, "op"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
