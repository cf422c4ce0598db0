package config

// a type with general staging parameters
type serviceConfig struct {
	// local working directory files are staged into and out of
	Workdir string `yaml:"workdir"`
	// minimum wall-clock budget for one external transfer command, in
	// seconds; scaled up with file size at execution time
	TransferTimeout int `yaml:"transfer_timeout_seconds"`
	// wall-clock budget for a metadata (etag) lookup, in seconds
	MetadataTimeout int `yaml:"metadata_timeout_seconds"`
}

// queue-catalog client parameters
type catalogConfig struct {
	// URL the full queue catalog is fetched from
	URL string `yaml:"url"`
	// local file the catalog is cached to for the process lifetime
	CacheFile string `yaml:"cache_file"`
	// in-memory snapshot lifetime, in seconds
	TTL int `yaml:"ttl_seconds"`
}

// tracing-service parameters; an empty URL disables trace delivery
type traceConfig struct {
	URL string `yaml:"url"`
}

// credential key service parameters
type keysConfig struct {
	URL string `yaml:"url"`
}

// isolated-execution wrapper parameters; an empty image disables wrapping
type isolationConfig struct {
	// container runtime executable, e.g. "singularity"
	Command string `yaml:"command"`
	// container image transfer commands run inside
	Image string `yaml:"image"`
	// extra bind mounts in addition to the per-transfer working directory
	Binds []string `yaml:"binds,omitempty"`
}
