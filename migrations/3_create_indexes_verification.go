package migrations

import (
	"github.com/Stachio-Dev/Stachio/helpers"
	"github.com/Stachio-Dev/Stachio/models"
	"github.com/globalsign/mgo"
)

func m3_create_indexes_verification() {
	err := helpers.MdbCollection(models.VerificationAttemptsTable).EnsureIndex(mgo.Index{
		Key:        []string{"guildid", "userid"},
		Unique:     true,
		Background: true,
	})
	helpers.Relax(err)

	// the idle sweep deletes unverified attempts by age
	err = helpers.MdbCollection(models.VerificationAttemptsTable).EnsureIndex(mgo.Index{
		Key:        []string{"verified", "lasttriedat"},
		Background: true,
	})
	helpers.Relax(err)

	err = helpers.MdbCollection(models.VerificationConfigTable).EnsureIndex(mgo.Index{
		Key:        []string{"guildid"},
		Unique:     true,
		Background: true,
	})
	helpers.Relax(err)
}
