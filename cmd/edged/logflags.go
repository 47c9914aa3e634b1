package main

import (
	"os"
	"strings"

	"github.com/rs/zerolog"

	rtlog "github.com/go-edge/edged/rtlog"
)

// resolveLogLevel honours --log-level when given, otherwise falls back to
// EDGED_LOG, the RUST_LOG-style env filter the original host reads from
// RUST_LOG. Only the ad-hoc target=level,target2=level syntax is parsed; this
// kernel has no per-target logger registry, so the last entry, bare level
// (no "=") or target-qualified, wins as the process-wide level.
func resolveLogLevel(flagLevel string) zerolog.Level {
	if flagLevel != "" {
		return rtlog.ParseLevel(flagLevel)
	}
	env := os.Getenv("EDGED_LOG")
	if env == "" {
		return zerolog.InfoLevel
	}
	level := "info"
	for _, entry := range strings.Split(env, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if idx := strings.IndexByte(entry, '='); idx >= 0 {
			level = entry[idx+1:]
		} else {
			level = entry
		}
	}
	return rtlog.ParseLevel(level)
}
