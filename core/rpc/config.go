package rpc

// Config holds configuration for the JSON-RPC transport.
type Config struct {
	// ConnectTimeoutSeconds bounds connection establishment.
	ConnectTimeoutSeconds int `mapstructure:"connect_timeout_seconds" default:"5"`
	// ReadTimeoutSeconds bounds the whole request including the response body.
	ReadTimeoutSeconds int `mapstructure:"read_timeout_seconds" default:"120"`
	// RetryMax is the number of transport-level retries for transient failures.
	RetryMax int `mapstructure:"retry_max" default:"5"`
	// BackoffMillis is the initial retry wait; waits grow exponentially from it.
	BackoffMillis int `mapstructure:"backoff_millis" default:"800"`
}
