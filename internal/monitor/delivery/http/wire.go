//go:build wireinject
// +build wireinject

package http

import (
	"github.com/google/wire"

	"github.com/shelfwatch/shelfwatch/internal/monitor"
	"github.com/shelfwatch/shelfwatch/internal/monitor/detector"
	"github.com/shelfwatch/shelfwatch/internal/store"
)

// ProvideClock provides the wall clock
func ProvideClock() detector.Clock {
	return detector.SystemClock()
}

// Wire sets
var ClockSet = wire.NewSet(
	ProvideClock,
)

// InitializeMonitorHandler initializes the HTTP handler with all dependencies
func InitializeMonitorHandler(st store.Store, engine *monitor.Engine) (*MonitorHandler, error) {
	wire.Build(
		ClockSet,
		NewMonitorHandler,
	)
	return nil, nil
}
