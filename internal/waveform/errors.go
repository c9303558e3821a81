package waveform

import "errors"

var (
	// ErrUnknownFunction indicates the requested shape function is not registered.
	ErrUnknownFunction = errors.New("waveform: unknown shape function")
	// ErrMissingParameter indicates a required shape parameter is absent.
	ErrMissingParameter = errors.New("waveform: missing parameter")
	// ErrInvalidParameter indicates a shape parameter has an unusable value.
	ErrInvalidParameter = errors.New("waveform: invalid parameter")
	// ErrEmptyWaveform indicates the duration yields no samples at the sampling rate.
	ErrEmptyWaveform = errors.New("waveform: duration yields no samples")
)
