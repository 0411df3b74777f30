package metadata

// --- SQLite Keys ---
// These keys are used for the 'key' column in the 'metadata' SQLite table.
const (
	// LastBackupTimeKey stores the timestamp (RFC3339) of the last
	// successful snapshot written to the backup slot.
	LastBackupTimeKey = "last_backup_time"

	// MirrorSchemaVersionKey stores the game schema version the SQLite
	// mirror tables were last written with.
	MirrorSchemaVersionKey = "mirror_schema_version"
)
