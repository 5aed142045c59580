// Package biosample defines the sample type shared across the acquisition
// and processing pipeline.
package biosample

// Sample is one decoded two-channel reading from the device, timestamped
// with the microcontroller's own monotonic clock.
type Sample struct {
	TimestampUS int64 // t_us, monotonic microseconds as reported by the device
	Left        int   // raw ADC value in [0, ADCMax]
	Right       int   // raw ADC value in [0, ADCMax]
}
