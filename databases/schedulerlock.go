package databases

// go generate: mockery --name SchedulerLockDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const schedulerLockName = "schedulerLocks"

// SchedulerLockDatabase hands out short-lived distributed locks so scheduled
// jobs run on a single instance at a time. The jobName field carries a unique
// index; acquisition relies on that index, not on a read-then-write check.
type SchedulerLockDatabase interface {
	TryAcquireLock(ctx context.Context, jobName, instanceID string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, jobName, instanceID string) error
}

type schedulerLockDatabase struct {
	db DatabaseHelper
}

// NewSchedulerLockDatabase initializes a new instance of schedulerLock database with the provided db connection
func NewSchedulerLockDatabase(db DatabaseHelper) SchedulerLockDatabase {
	return &schedulerLockDatabase{
		db: db,
	}
}

func (s *schedulerLockDatabase) TryAcquireLock(ctx context.Context, jobName, instanceID string, ttl time.Duration) (bool, error) {
	now := time.Now()

	// Claim the lock document if it is missing or its previous holder's ttl
	// has lapsed. The unique index on jobName turns a concurrent claim into a
	// duplicate-key error rather than a second holder.
	filter := bson.M{
		"jobName":   jobName,
		"expiresAt": bson.M{"$lt": now},
	}
	update := bson.M{
		"$set": bson.M{
			"jobName":    jobName,
			"instanceId": instanceID,
			"acquiredAt": now,
			"expiresAt":  now.Add(ttl),
		},
	}

	_, err := s.db.Collection(schedulerLockName).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *schedulerLockDatabase) ReleaseLock(ctx context.Context, jobName, instanceID string) error {
	// Only the holder may release; expiring naturally is the fallback.
	_, err := s.db.Collection(schedulerLockName).DeleteOne(ctx, bson.M{
		"jobName":    jobName,
		"instanceId": instanceID,
	})
	return err
}
