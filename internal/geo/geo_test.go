package geo

import (
	"math"
	"testing"
)

func TestDistanceMeters(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tolerance              float64
	}{
		{name: "same point", lat1: 28.6139, lon1: 77.2090, lat2: 28.6139, lon2: 77.2090, want: 0, tolerance: 0.001},
		{name: "delhi to mumbai", lat1: 28.6139, lon1: 77.2090, lat2: 19.0760, lon2: 72.8777, want: 1153000, tolerance: 10000},
		{name: "one degree latitude", lat1: 0, lon1: 0, lat2: 1, lon2: 0, want: 111195, tolerance: 100},
		{name: "across a courtyard", lat1: 28.61390, lon1: 77.20900, lat2: 28.61435, lon2: 77.20900, want: 50, tolerance: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceMeters(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("DistanceMeters() = %.2f, want %.2f +/- %.2f", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestDistanceSymmetry(t *testing.T) {
	a := DistanceMeters(28.6139, 77.2090, 19.0760, 72.8777)
	b := DistanceMeters(19.0760, 72.8777, 28.6139, 77.2090)
	if math.Abs(a-b) > 1e-6 {
		t.Errorf("distance not symmetric: %.9f vs %.9f", a, b)
	}
}

func TestWithinGeofence(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		radius   float64
		want     bool
	}{
		{name: "well inside", distance: 10, radius: 50, want: true},
		{name: "exactly at edge", distance: 50, radius: 50, want: true},
		{name: "just outside", distance: 50.001, radius: 50, want: false},
		{name: "far outside", distance: 200, radius: 50, want: false},
		{name: "zero distance", distance: 0, radius: 50, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithinGeofence(tt.distance, tt.radius); got != tt.want {
				t.Errorf("WithinGeofence(%v, %v) = %v, want %v", tt.distance, tt.radius, got, tt.want)
			}
		})
	}
}

func TestValidCoordinates(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{name: "delhi", lat: 28.6139, lon: 77.2090, want: true},
		{name: "poles", lat: 90, lon: 180, want: true},
		{name: "lat too high", lat: 90.1, lon: 0, want: false},
		{name: "lat too low", lat: -90.1, lon: 0, want: false},
		{name: "lon too high", lat: 0, lon: 180.5, want: false},
		{name: "lon too low", lat: 0, lon: -181, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidCoordinates(tt.lat, tt.lon); got != tt.want {
				t.Errorf("ValidCoordinates(%v, %v) = %v, want %v", tt.lat, tt.lon, got, tt.want)
			}
		})
	}
}
