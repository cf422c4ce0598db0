package config

import (
	"fmt"
	"log/slog"
)

// Per-space-token storage roots and destination paths. Two distinct roots
// exist per token: the primary one and the alternate one used for
// Tier-2 -> Tier-1 failover.
type TokenPaths struct {
	// storage endpoint root URL (may carry a "token:<NAME>:" prefix)
	SE    string `yaml:"se"`
	SEAlt string `yaml:"se_alt,omitempty"`
	// destination path for analysis jobs
	Path    string `yaml:"path"`
	PathAlt string `yaml:"path_alt,omitempty"`
	// destination path for production jobs
	ProdPath    string `yaml:"prodpath"`
	ProdPathAlt string `yaml:"prodpath_alt,omitempty"`
}

// The active queue's configuration record. The staging core never fetches
// this document; it only reads (and occasionally corrects) named fields.
type QueueConfig struct {
	Name      string `yaml:"name"`
	Site      string `yaml:"site"`
	Cloud     string `yaml:"cloud"`
	Status    string `yaml:"status,omitempty"`
	Retry     string `yaml:"retry,omitempty"`
	Catchall  string `yaml:"catchall,omitempty"`
	Appdir    string `yaml:"appdir,omitempty"`
	Cmtconfig string `yaml:"cmtconfig,omitempty"`
	// storage-management mode; "local" marks a Tier-3 queue
	Ddm string `yaml:"ddm,omitempty"`
	// transfer mechanism names for stage-out and stage-in
	Copytool   string `yaml:"copytool"`
	Copytoolin string `yaml:"copytoolin,omitempty"`
	// requested alternate stage-out mode: "", "on", "off" or "force"
	AltStageOut string `yaml:"altstageout,omitempty"`
	// per-space-token storage roots and destinations
	Tokens map[string]*TokenPaths `yaml:"tokens"`
}

// StorageRoot returns the storage endpoint root for the given space token.
// The alternate root falls back to the primary one when none is configured.
func (q *QueueConfig) StorageRoot(token string, alt bool) string {
	tp := q.Tokens[token]
	if tp == nil {
		return ""
	}
	if alt && tp.SEAlt != "" {
		return tp.SEAlt
	}
	return tp.SE
}

// Destination returns the in-storage destination path for the given space
// token. Analysis and production jobs store under different paths.
func (q *QueueConfig) Destination(analysis bool, token string, alt bool) string {
	tp := q.Tokens[token]
	if tp == nil {
		return ""
	}
	if analysis {
		if alt && tp.PathAlt != "" {
			return tp.PathAlt
		}
		return tp.Path
	}
	if alt && tp.ProdPathAlt != "" {
		return tp.ProdPathAlt
	}
	return tp.ProdPath
}

// StageInTool returns the transfer mechanism name for stage-in, falling back
// to the stage-out one when no dedicated mechanism is configured.
func (q *QueueConfig) StageInTool() string {
	if q.Copytoolin != "" {
		return q.Copytoolin
	}
	return q.Copytool
}

// ReplaceField overwrites one of the queue record's flat fields, logging the
// update. Unknown field names are rejected so that override tables cannot
// silently rot.
func (q *QueueConfig) ReplaceField(field, value string) error {
	switch field {
	case "status":
		q.Status = value
	case "retry":
		q.Retry = value
	case "catchall":
		q.Catchall = value
	case "appdir":
		q.Appdir = value
	case "cmtconfig":
		q.Cmtconfig = value
	case "ddm":
		q.Ddm = value
	case "copytool":
		q.Copytool = value
	case "copytoolin":
		q.Copytoolin = value
	case "altstageout":
		q.AltStageOut = value
	default:
		return fmt.Errorf("Unknown queue configuration field: %s", field)
	}
	slog.Info(fmt.Sprintf("Updated queue field %s to: %s", field, value))
	return nil
}
