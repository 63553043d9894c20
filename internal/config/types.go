package config

import "time"

// Config represents the main configuration structure
type Config struct {
	Node             NodeConfig       `json:"node"`
	LogLevel         string           `json:"logLevel"`
	LogExecution     bool             `json:"logExecution"`
	Simplify         bool             `json:"simplify"`
	GroupByNamespace bool             `json:"groupByNamespace"`
	Registry         *RegistryConfig  `json:"registry,omitempty"`
	ABIStore         *ABIStoreConfig  `json:"abiStore,omitempty"`
	Transform        *TransformConfig `json:"transform,omitempty"`
	Groups           []GroupConfig    `json:"groups"`
}

// NodeConfig represents the node connection configuration
type NodeConfig struct {
	URL              string `json:"url"`
	RequestTimeout   int    `json:"requestTimeout"`   // ms
	WSMessageTimeout int    `json:"wsMessageTimeout"` // ms - read timeout on the WebSocket connection
	WSPingInterval   int    `json:"wsPingInterval"`   // ms
}

// RegistryConfig represents the remote ABI registry configuration
type RegistryConfig struct {
	URL         string `json:"url"`
	APIKey      string `json:"apiKey"`
	LookupDelay int    `json:"lookupDelay"` // ms - minimum delay between registry lookups
	Timeout     int    `json:"timeout"`     // ms
}

// ABIStoreConfig represents the persistent ABI store configuration
type ABIStoreConfig struct {
	Directory string `json:"directory"`
}

// TransformConfig represents the result transform script configuration
type TransformConfig struct {
	Enabled bool   `json:"enabled"`
	Script  string `json:"script"`
	Timeout int    `json:"timeout"` // ms
}

// GroupConfig represents one contract group
type GroupConfig struct {
	Namespace   string         `json:"namespace"`
	Addresses   []string       `json:"addresses"`
	ABIFile     string         `json:"abiFile"`
	Methods     []MethodConfig `json:"methods"`
	AllReadable bool           `json:"allReadable"`
}

// MethodConfig represents a single method call specification
type MethodConfig struct {
	Name string        `json:"name"`
	Args []interface{} `json:"args,omitempty"`
}

// Default values
const (
	DefaultLogLevel         = "info"
	DefaultRequestTimeout   = 30000 // ms
	DefaultWSMessageTimeout = 60000 // ms
	DefaultWSPingInterval   = 15000 // ms
	DefaultLookupDelay      = 250   // ms
	DefaultRegistryTimeout  = 10000 // ms
	DefaultTransformTimeout = 5000  // ms
)

// GetRequestTimeoutDuration returns the request timeout as time.Duration
func (c *NodeConfig) GetRequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Millisecond
}

// GetWSMessageTimeoutDuration returns the WS message timeout as time.Duration
func (c *NodeConfig) GetWSMessageTimeoutDuration() time.Duration {
	return time.Duration(c.WSMessageTimeout) * time.Millisecond
}

// GetWSPingIntervalDuration returns the WS ping interval as time.Duration
func (c *NodeConfig) GetWSPingIntervalDuration() time.Duration {
	return time.Duration(c.WSPingInterval) * time.Millisecond
}

// GetLookupDelayDuration returns the registry lookup delay as time.Duration
func (c *RegistryConfig) GetLookupDelayDuration() time.Duration {
	return time.Duration(c.LookupDelay) * time.Millisecond
}

// GetTimeoutDuration returns the registry request timeout as time.Duration
func (c *RegistryConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// GetTimeoutDuration returns the transform timeout as time.Duration
func (c *TransformConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// HasRegistry returns true if a remote ABI registry is configured
func (c *Config) HasRegistry() bool {
	return c.Registry != nil && c.Registry.URL != ""
}

// HasTransform returns true if a transform script is configured and enabled
func (c *Config) HasTransform() bool {
	return c.Transform != nil && c.Transform.Enabled && c.Transform.Script != ""
}
