package migrations

import (
	"reflect"
	"runtime"

	"github.com/Stachio-Dev/Stachio/cache"
	"github.com/Stachio-Dev/Stachio/helpers"
)

var migrations = []helpers.Callback{
	m1_create_indexes_watchdog,
	m2_create_indexes_warnings,
	m3_create_indexes_verification,
	m4_create_indexes_guild_blacklist,
	m5_create_indexes_mutes,
}

// Run executes all registered migrations
func Run() {
	log := cache.GetLogger().WithField("module", "migrations")
	log.Info("Running migrations...")

	for _, migration := range migrations {
		migrationName := runtime.FuncForPC(
			reflect.ValueOf(migration).Pointer(),
		).Name()

		log.Info("Running ", migrationName)
		migration()
	}

	log.Info("Migrations finished!")
}
