// Package ptr builds pointers to literals for optional telemetry fields.
package ptr

func Bool(b bool) *bool {
	return &b
}

func Float64(f float64) *float64 {
	return &f
}
