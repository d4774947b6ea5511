package config

import (
	"time"
)

type AppConfig struct {
	Port           int           `yaml:"port"`
	DefaultTimeout time.Duration `yaml:"default_timeout"`
}

// IndexConfig controls the B-tree fan-out of every directory index.
type IndexConfig struct {
	Order int `yaml:"order" env-default:"64"`
}

// SnapshotConfig selects where the namespace is persisted between runs.
type SnapshotConfig struct {
	Backend string `yaml:"backend" env-default:"file"` // "file" or "postgres"
	Path    string `yaml:"path" env-default:".vfs_state.bin.gz"`
	Name    string `yaml:"name" env-default:"default"` // snapshot row name for the postgres backend
}
