package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Deploy-time utility that creates the indexes the invitation workflow
// relies on. The partial unique index on pending invitations is the race
// guard for concurrent duplicate sends, so this must run before the API
// serves traffic against a fresh database.
// Usage: MONGODB_URI=... MONGODB_DB=... go run scripts/ensureindexes/main.go
func main() {
	uri := os.Getenv("MONGODB_URI")
	dbName := os.Getenv("MONGODB_DB")
	if uri == "" || dbName == "" {
		fmt.Println("MONGODB_URI and MONGODB_DB are required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		fmt.Printf("failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer client.Disconnect(ctx)

	db := client.Database(dbName)

	if _, err := db.Collection("invitations").Indexes().CreateMany(ctx, invitationIndexes()); err != nil {
		fmt.Printf("failed to create invitation indexes: %v\n", err)
		os.Exit(1)
	}

	if _, err := db.Collection("familyMemberships").Indexes().CreateMany(ctx, membershipIndexes()); err != nil {
		fmt.Printf("failed to create membership indexes: %v\n", err)
		os.Exit(1)
	}

	if _, err := db.Collection("schedulerLocks").Indexes().CreateMany(ctx, schedulerLockIndexes()); err != nil {
		fmt.Printf("failed to create scheduler lock indexes: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("indexes created")
}

func invitationIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// At most one live invitation per family and email. Terminal
			// invitations fall out of the partial filter so re-inviting
			// after a decline or expiry stays possible.
			Keys: bson.D{
				{Key: "familyId", Value: 1},
				{Key: "invitedEmail", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": "pending"}),
		},
		{
			Keys: bson.D{
				{Key: "invitedEmail", Value: 1},
				{Key: "status", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "expiresAt", Value: 1},
			},
		},
	}
}

func membershipIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			// One live membership per user system-wide.
			Keys: bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": bson.M{"$in": []string{"active", "pending"}}}),
		},
		{
			Keys: bson.D{
				{Key: "familyId", Value: 1},
				{Key: "status", Value: 1},
			},
		},
	}
}

func schedulerLockIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			// TryAcquireLock's upsert relies on this turning a concurrent
			// claim into a duplicate-key error; one lock document per job.
			Keys:    bson.D{{Key: "jobName", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
}
