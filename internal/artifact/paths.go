// Package artifact implements the correlator path scheme and the
// on-disk codec for exported artifacts. The path function is the sole
// mechanism binding recording, weather and dynamic artifacts to each
// other: (map, seed, kind) maps bijectively onto a canonical path, and
// nothing else indexes the store.
package artifact

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Kind identifies one artifact namespace.
type Kind string

const (
	KindRecording Kind = "recording"
	KindWeather   Kind = "weather"
	KindDynamic   Kind = "dynamic"
	KindStatic    Kind = "static"
)

const (
	recordingsDir     = "recordings"
	simulationRunsDir = "simulation_runs"

	weatherPrefix = "weather_data"
	dynamicPrefix = "dynamic_data"
	staticPrefix  = "static_data"

	recordingExt = ".log"
	dataExt      = ".json.gz"
)

// CleanMapName normalizes a map name for use in paths. Simulator
// clients may report qualified names like "/Game/Carla/Maps/Town01";
// those normalize to the same key as the short name.
func CleanMapName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	replacer := strings.NewReplacer(":", "-", " ", "_", ".", "_", "/", "_")
	return replacer.Replace(name)
}

// Path returns the canonical path for the (map, seed, kind) triple
// under root. Static artifacts ignore the seed. The mapping is stable
// and collision-free: distinct triples never share a path.
func Path(root string, kind Kind, mapName string, seed int) string {
	cleaned := CleanMapName(mapName)
	switch kind {
	case KindRecording:
		return filepath.Join(root, recordingsDir, cleaned,
			fmt.Sprintf("%s_seed%d%s", cleaned, seed, recordingExt))
	case KindWeather:
		return filepath.Join(root, recordingsDir, cleaned,
			fmt.Sprintf("%s_%s_seed%d%s", weatherPrefix, cleaned, seed, dataExt))
	case KindDynamic:
		return filepath.Join(root, simulationRunsDir, cleaned,
			fmt.Sprintf("%s_%s_seed%d%s", dynamicPrefix, cleaned, seed, dataExt))
	case KindStatic:
		return filepath.Join(root, simulationRunsDir, cleaned,
			fmt.Sprintf("%s_%s%s", staticPrefix, cleaned, dataExt))
	}
	panic("artifact: unknown kind " + string(kind))
}

// Ref identifies one artifact by its correlation key.
type Ref struct {
	Kind    Kind   `json:"kind"`
	MapName string `json:"map"`
	Seed    int    `json:"seed"`
}

func (r Ref) String() string {
	if r.Kind == KindStatic {
		return fmt.Sprintf("%s/%s", r.Kind, r.MapName)
	}
	return fmt.Sprintf("%s/%s/seed%d", r.Kind, r.MapName, r.Seed)
}

// ParseRecordingPath inverts the recording naming convention,
// recovering the map name and seed from a recording file path. It is
// used when walking a recordings tree to monitor everything in it.
func ParseRecordingPath(path string) (mapName string, seed int, err error) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, recordingExt) {
		return "", 0, fmt.Errorf("not a recording file: %s", base)
	}
	stem := strings.TrimSuffix(base, recordingExt)
	i := strings.LastIndex(stem, "_seed")
	if i < 0 {
		return "", 0, fmt.Errorf("no seed component in recording name: %s", base)
	}
	seed, err = strconv.Atoi(stem[i+len("_seed"):])
	if err != nil {
		return "", 0, fmt.Errorf("bad seed in recording name %s: %w", base, err)
	}
	return stem[:i], seed, nil
}

// IsRecording reports whether path names a recording artifact (rather
// than a weather artifact living in the same directory).
func IsRecording(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, recordingExt) && !strings.HasPrefix(base, weatherPrefix)
}
