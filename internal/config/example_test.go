package config_test

import (
	"fmt"
	"time"

	"github.com/t3track/t3agent/internal/config"
)

// Example of creating a default configuration
func ExampleDefault() {
	cfg := config.Default()
	fmt.Println("Sample Interval:", cfg.Tracker.SampleInterval)
	fmt.Println("Capture Interval:", cfg.Capture.Interval)
	fmt.Println("Capture Mode:", cfg.Capture.Mode)
	// Output:
	// Sample Interval: 1s
	// Capture Interval: 1m0s
	// Capture Mode: active
}

// Example of setting the sample interval with validation
func ExampleConfig_SetSampleInterval() {
	cfg := config.Default()

	// Valid interval
	if err := cfg.SetSampleInterval(2 * time.Second); err != nil {
		fmt.Println("Error:", err)
	} else {
		fmt.Println("Sample interval set to:", cfg.Tracker.SampleInterval)
	}

	// Invalid interval (too low)
	if err := cfg.SetSampleInterval(100 * time.Millisecond); err != nil {
		fmt.Println("Error:", err)
	}

	// Output:
	// Sample interval set to: 2s
	// Error: sample interval cannot be less than 500ms
}

// Example of validating configuration
func ExampleConfig_Validate() {
	cfg := config.Default()

	if err := cfg.Validate(); err != nil {
		fmt.Println("Invalid config:", err)
	} else {
		fmt.Println("Configuration is valid")
	}

	// Output:
	// Configuration is valid
}
