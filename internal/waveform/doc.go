// Package waveform samples pulse shape functions at the hardware sampling
// rate and normalizes the result for the waveform table.
//
// Shape functions produce complex samples; the real part drives the I input
// of the NCO and the imaginary part drives Q. Normalize scales each channel
// to unit peak amplitude and returns the removed gains, so that the table
// stores one entry per shape regardless of amplitude.
//
// Registered functions:
//
//   - square(amp), square_imaginary(amp)
//   - ramp(amp, offset)
//   - staircase(start_amp, final_amp, num_steps)
//   - drag(G_amp, D_amp, nr_sigma, sigma, phase, subtract_offset)
//   - gaussian(amp, nr_sigma, sigma, phase)
//   - chirp(amp, start_freq, end_freq)
//   - interpolated (linear interpolation of SamplesReal/SamplesImag over TimeSamples)
package waveform
