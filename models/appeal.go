package models

import (
	"time"

	"github.com/globalsign/mgo/bson"
)

const (
	AppealsTable MongoDbCollection = "watchdog_appeals"
)

type AppealStatus string

const (
	AppealStatusPending  AppealStatus = "PENDING"
	AppealStatusApproved AppealStatus = "APPROVED"
	AppealStatusDenied   AppealStatus = "DENIED"
)

type AppealEntry struct {
	ID                bson.ObjectId `bson:"_id,omitempty"`
	UserID            string        `bson:"userid"`
	Reason            string        `bson:"reason"`
	Status            AppealStatus  `bson:"status"`
	ModeratorID       string        `bson:"moderatorid"`
	ModeratorResponse string        `bson:"moderatorresponse"`
	CreatedAt         time.Time     `bson:"createdat"`
}
