package resilience

// RetryAttempts returns the default retry config with MaxAttempts set from
// configuration. Non-positive values keep the default.
func RetryAttempts(attempts int) RetryConfig {
	cfg := DefaultRetryConfig()
	if attempts > 0 {
		cfg.MaxAttempts = attempts
	}
	return cfg
}

// BreakerThreshold returns the default breaker config with FailureThreshold
// set from configuration. Non-positive values keep the default.
func BreakerThreshold(threshold int) CircuitBreakerConfig {
	cfg := DefaultCircuitBreakerConfig()
	if threshold > 0 {
		cfg.FailureThreshold = threshold
	}
	return cfg
}
