package migrations

import (
	"github.com/Stachio-Dev/Stachio/helpers"
	"github.com/Stachio-Dev/Stachio/models"
	"github.com/globalsign/mgo"
)

func m1_create_indexes_watchdog() {
	err := helpers.MdbCollection(models.WatchdogUsersTable).EnsureIndex(mgo.Index{
		Key:        []string{"userid"},
		Unique:     true,
		Background: true,
	})
	helpers.Relax(err)

	// the broadcast loop pages unannounced records by status
	err = helpers.MdbCollection(models.WatchdogUsersTable).EnsureIndex(mgo.Index{
		Key:        []string{"logged", "status"},
		Background: true,
	})
	helpers.Relax(err)

	err = helpers.MdbCollection(models.AppealsTable).EnsureIndex(mgo.Index{
		Key:        []string{"userid", "-createdat"},
		Background: true,
	})
	helpers.Relax(err)

	err = helpers.MdbCollection(models.WatchdogConfigTable).EnsureIndex(mgo.Index{
		Key:        []string{"guildid"},
		Unique:     true,
		Background: true,
	})
	helpers.Relax(err)
}
