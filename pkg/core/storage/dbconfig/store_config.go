/*
Package dbconfig is a micropackage that contains storage DB configuration options.
*/
package dbconfig

// Supported DB types.
const (
	LevelDB    = "leveldb"
	BoltDB     = "boltdb"
	InMemoryDB = "inmemory"
)

type (
	// DBConfiguration describes configuration for DB. Supported types:
	// [LevelDB], [BoltDB] or [InMemoryDB] (snapshots are lost on exit then).
	DBConfiguration struct {
		Type           string         `yaml:"Type"`
		LevelDBOptions LevelDBOptions `yaml:"LevelDBOptions"`
		BoltDBOptions  BoltDBOptions  `yaml:"BoltDBOptions"`
	}
	// LevelDBOptions configuration for LevelDB.
	LevelDBOptions struct {
		DataDirectoryPath string `yaml:"DataDirectoryPath"`
		ReadOnly          bool   `yaml:"ReadOnly"`
	}
	// BoltDBOptions configuration for BoltDB.
	BoltDBOptions struct {
		FilePath string `yaml:"FilePath"`
		ReadOnly bool   `yaml:"ReadOnly"`
	}
)

// IsKnownType checks whether t is one of the supported DB types.
func IsKnownType(t string) bool {
	switch t {
	case LevelDB, BoltDB, InMemoryDB:
		return true
	}
	return false
}
