package schema

import "math/rand"

// WeatherParameters is the atmospheric parameter set of one recording.
// It is sampled once per (map, seed) and immutable thereafter; the
// dynamic artifact embeds the same record.
type WeatherParameters struct {
	Cloudiness              float64 `json:"cloudiness"`
	Precipitation           float64 `json:"precipitation"`
	PrecipitationDeposits   float64 `json:"precipitation_deposits"`
	WindIntensity           float64 `json:"wind_intensity"`
	SunAzimuthAngle         float64 `json:"sun_azimuth_angle"`
	SunAltitudeAngle        float64 `json:"sun_altitude_angle"`
	FogDensity              float64 `json:"fog_density"`
	FogDistance             float64 `json:"fog_distance"`
	Wetness                 float64 `json:"wetness"`
	FogFalloff              float64 `json:"fog_falloff"`
	ScatteringIntensity     float64 `json:"scattering_intensity"`
	MieScatteringScale      float64 `json:"mie_scattering_scale"`
	RayleighScatteringScale float64 `json:"rayleigh_scattering_scale"`
}

// Bound is an inclusive [Min, Max] range for one weather scalar.
type Bound struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// WeatherBounds holds the admissible range of every weather scalar.
type WeatherBounds struct {
	Cloudiness              Bound `yaml:"cloudiness"`
	Precipitation           Bound `yaml:"precipitation"`
	PrecipitationDeposits   Bound `yaml:"precipitation_deposits"`
	WindIntensity           Bound `yaml:"wind_intensity"`
	SunAzimuthAngle         Bound `yaml:"sun_azimuth_angle"`
	SunAltitudeAngle        Bound `yaml:"sun_altitude_angle"`
	FogDensity              Bound `yaml:"fog_density"`
	FogDistance             Bound `yaml:"fog_distance"`
	Wetness                 Bound `yaml:"wetness"`
	FogFalloff              Bound `yaml:"fog_falloff"`
	ScatteringIntensity     Bound `yaml:"scattering_intensity"`
	MieScatteringScale      Bound `yaml:"mie_scattering_scale"`
	RayleighScatteringScale Bound `yaml:"rayleigh_scattering_scale"`
}

// DefaultWeatherBounds returns the simulator-documented parameter
// ranges. Percent-style scalars run 0-100; fog distance and falloff use
// the documented practical ranges rather than the (unbounded) engine
// limits.
func DefaultWeatherBounds() WeatherBounds {
	percent := Bound{Min: 0, Max: 100}
	unit := Bound{Min: 0, Max: 1}
	return WeatherBounds{
		Cloudiness:              percent,
		Precipitation:           percent,
		PrecipitationDeposits:   percent,
		WindIntensity:           percent,
		SunAzimuthAngle:         Bound{Min: 0, Max: 360},
		SunAltitudeAngle:        Bound{Min: -90, Max: 90},
		FogDensity:              percent,
		FogDistance:             percent,
		Wetness:                 percent,
		FogFalloff:              Bound{Min: 0, Max: 5},
		ScatteringIntensity:     unit,
		MieScatteringScale:      unit,
		RayleighScatteringScale: unit,
	}
}

// Sample draws each weather scalar independently and uniformly from its
// bound. No cross-parameter correlation is modelled.
func (b WeatherBounds) Sample(rng *rand.Rand) WeatherParameters {
	draw := func(bound Bound) float64 {
		return bound.Min + rng.Float64()*(bound.Max-bound.Min)
	}
	return WeatherParameters{
		Cloudiness:              draw(b.Cloudiness),
		Precipitation:           draw(b.Precipitation),
		PrecipitationDeposits:   draw(b.PrecipitationDeposits),
		WindIntensity:           draw(b.WindIntensity),
		SunAzimuthAngle:         draw(b.SunAzimuthAngle),
		SunAltitudeAngle:        draw(b.SunAltitudeAngle),
		FogDensity:              draw(b.FogDensity),
		FogDistance:             draw(b.FogDistance),
		Wetness:                 draw(b.Wetness),
		FogFalloff:              draw(b.FogFalloff),
		ScatteringIntensity:     draw(b.ScatteringIntensity),
		MieScatteringScale:      draw(b.MieScatteringScale),
		RayleighScatteringScale: draw(b.RayleighScatteringScale),
	}
}

// Contains reports whether every scalar of w lies within its bound.
func (b WeatherBounds) Contains(w WeatherParameters) bool {
	in := func(v float64, bound Bound) bool {
		return v >= bound.Min && v <= bound.Max
	}
	return in(w.Cloudiness, b.Cloudiness) &&
		in(w.Precipitation, b.Precipitation) &&
		in(w.PrecipitationDeposits, b.PrecipitationDeposits) &&
		in(w.WindIntensity, b.WindIntensity) &&
		in(w.SunAzimuthAngle, b.SunAzimuthAngle) &&
		in(w.SunAltitudeAngle, b.SunAltitudeAngle) &&
		in(w.FogDensity, b.FogDensity) &&
		in(w.FogDistance, b.FogDistance) &&
		in(w.Wetness, b.Wetness) &&
		in(w.FogFalloff, b.FogFalloff) &&
		in(w.ScatteringIntensity, b.ScatteringIntensity) &&
		in(w.MieScatteringScale, b.MieScatteringScale) &&
		in(w.RayleighScatteringScale, b.RayleighScatteringScale)
}
