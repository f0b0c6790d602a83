package migrations

import (
	"github.com/Stachio-Dev/Stachio/helpers"
	"github.com/Stachio-Dev/Stachio/models"
	"github.com/globalsign/mgo"
)

func m5_create_indexes_mutes() {
	err := helpers.MdbCollection(models.MutesTable).EnsureIndex(mgo.Index{
		Key:        []string{"guildid", "userid"},
		Unique:     true,
		Background: true,
	})
	helpers.Relax(err)

	// the unmute loop selects rows by age
	err = helpers.MdbCollection(models.MutesTable).EnsureIndex(mgo.Index{
		Key:        []string{"unmuteat"},
		Background: true,
	})
	helpers.Relax(err)
}
