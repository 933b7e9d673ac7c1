// Package export implements the pipeline stages that turn simulator
// runs into the artifact store: recording generation with paired
// weather sampling, dynamic monitoring of replayed recordings, and
// static map extraction. Each stage runs against one exclusive
// simulator session; the batch driver opens a fresh session per job
// and keeps going when individual jobs fail.
package export

import "errors"

var (
	// ErrUnsupportedMap reports a map name outside the configured set.
	ErrUnsupportedMap = errors.New("map not supported")

	// ErrMissingDependency reports a monitor run whose recording or
	// weather artifact is absent.
	ErrMissingDependency = errors.New("missing dependency artifact")

	// ErrStalledTraffic reports a recording run whose ego vehicle never
	// got moving, which marks the whole run unusable.
	ErrStalledTraffic = errors.New("traffic stalled")

	// ErrReplayTimeout reports a replay that overshot the recording's
	// own duration past the configured margin.
	ErrReplayTimeout = errors.New("replay exceeded recording duration")

	// ErrNoTicks reports a replay that produced no sampled ticks.
	ErrNoTicks = errors.New("replay produced no ticks")
)
