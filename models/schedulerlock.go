package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SchedulerLock is a distributed lock document used to keep scheduled jobs
// from running on more than one instance at a time
type SchedulerLock struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	JobName    string             `bson:"jobName" index:"unique"`
	InstanceID string             `bson:"instanceId"`
	AcquiredAt time.Time          `bson:"acquiredAt"`
	ExpiresAt  time.Time          `bson:"expiresAt"`
}
