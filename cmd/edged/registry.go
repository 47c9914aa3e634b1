package main

import (
	kratoslog "github.com/go-kratos/kratos/v2/log"

	"github.com/go-edge/edged/kernel"
	"github.com/go-edge/edged/lifecycle"
	"github.com/go-edge/edged/plugins/critical"
	"github.com/go-edge/edged/plugins/fswatch"
	"github.com/go-edge/edged/plugins/heartbeat"
	"github.com/go-edge/edged/plugins/measurementfilter"
	"github.com/go-edge/edged/plugins/mqttbridge"
	"github.com/go-edge/edged/plugins/sysstat"
)

// registerBuiltinKinds registers every example plugin kind this binary ships
// with. A production host would instead register only the kinds it actually
// needs, or load additional kinds from a plugin registry; this kernel has no
// dynamic-loading story (see the kernel's stated non-goals), so the set of
// available kinds is fixed at link time.
func registerBuiltinKinds(app *lifecycle.Application, logger kratoslog.Logger) error {
	builders := []kernel.Builder{
		heartbeat.Builder{Logger: logger},
		critical.Builder{Logger: logger},
		sysstat.Builder{Logger: logger},
		fswatch.Builder{Logger: logger},
		mqttbridge.Builder{Logger: logger},
		measurementfilter.Builder{Logger: logger},
	}
	for _, b := range builders {
		if err := app.Register(b); err != nil {
			return err
		}
	}
	return nil
}
