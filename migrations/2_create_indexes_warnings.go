package migrations

import (
	"github.com/Stachio-Dev/Stachio/helpers"
	"github.com/Stachio-Dev/Stachio/models"
	"github.com/globalsign/mgo"
)

func m2_create_indexes_warnings() {
	// point sums filter on the decay window
	err := helpers.MdbCollection(models.WarningsTable).EnsureIndex(mgo.Index{
		Key:        []string{"guildid", "userid", "-createdat"},
		Background: true,
	})
	helpers.Relax(err)

	err = helpers.MdbCollection(models.WarningConfigTable).EnsureIndex(mgo.Index{
		Key:        []string{"guildid"},
		Unique:     true,
		Background: true,
	})
	helpers.Relax(err)
}
