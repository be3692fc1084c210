package config

const (
	// DefaultPort is the default HTTP server port.
	DefaultPort = "8080"

	// DefaultDatabaseURL is empty; must be provided via flag or environment
	// when the postgres store is selected.
	DefaultDatabaseURL = ""

	// DefaultRulesPath is the clinic rules file read at startup.
	DefaultRulesPath = "clinics.yaml"

	// StoreMemory keeps tasks in process memory.
	StoreMemory = "memory"

	// StorePostgres keeps tasks in PostgreSQL.
	StorePostgres = "postgres"

	// DefaultStore is the storage backend used when none is configured.
	DefaultStore = StoreMemory
)
