package config

// Per-endpoint attributes sourced from site configuration.
type EndpointConfig struct {
	// true when the endpoint's physical path layout is fully derivable from
	// (scope, lfn) without querying a replica catalog
	Deterministic bool `yaml:"deterministic"`
	// true when the endpoint is an object store (object stores are never
	// targets of forced alternate stage-out)
	ObjectStore bool `yaml:"objectstore,omitempty"`
}
