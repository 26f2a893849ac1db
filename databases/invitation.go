package databases

// go generate: mockery --name InvitationDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/familybudget/family-budget-api/models"
)

const invitationName = "invitations"

// InvitationDatabase contains the methods to use with the invitation database
type InvitationDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Invitation, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Invitation, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, invitation models.Invitation, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

type invitationDatabase struct {
	db DatabaseHelper
}

// NewInvitationDatabase initializes a new instance of invitation database with the provided db connection
func NewInvitationDatabase(db DatabaseHelper) InvitationDatabase {
	return &invitationDatabase{
		db: db,
	}
}

func (i *invitationDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Invitation, error) {
	invitation := &models.Invitation{}
	err := i.db.Collection(invitationName).FindOne(ctx, filter, opts...).Decode(&invitation)
	if err != nil {
		return nil, err
	}
	return invitation, nil
}

func (i *invitationDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Invitation, error) {
	var invitations []models.Invitation
	cur, err := i.db.Collection(invitationName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.All(ctx, &invitations)
	if err != nil {
		return nil, err
	}
	return invitations, nil
}

func (i *invitationDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	count, err := i.db.Collection(invitationName).CountDocuments(ctx, filter, opts...)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (i *invitationDatabase) InsertOne(ctx context.Context, invitation models.Invitation, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return i.db.Collection(invitationName).InsertOne(ctx, invitation, opts...)
}

func (i *invitationDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return i.db.Collection(invitationName).UpdateOne(ctx, filter, update, opts...)
}

func (i *invitationDatabase) UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return i.db.Collection(invitationName).UpdateMany(ctx, filter, update, opts...)
}
