package migrations

import (
	"github.com/Stachio-Dev/Stachio/helpers"
	"github.com/Stachio-Dev/Stachio/models"
	"github.com/globalsign/mgo"
)

func m4_create_indexes_guild_blacklist() {
	err := helpers.MdbCollection(models.BlacklistedGuildsTable).EnsureIndex(mgo.Index{
		Key:        []string{"guildid"},
		Unique:     true,
		Background: true,
	})
	helpers.Relax(err)

	err = helpers.MdbCollection(models.BlacklistedGuildsTable).EnsureIndex(mgo.Index{
		Key:        []string{"logged"},
		Background: true,
	})
	helpers.Relax(err)
}
