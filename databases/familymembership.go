package databases

// go generate: mockery --name FamilyMembershipDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/familybudget/family-budget-api/models"
)

const familyMembershipName = "familyMemberships"

// FamilyMembershipDatabase contains the methods to use with the familyMembership database
type FamilyMembershipDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.FamilyMembership, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.FamilyMembership, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, membership models.FamilyMembership, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

type familyMembershipDatabase struct {
	db DatabaseHelper
}

// NewFamilyMembershipDatabase initializes a new instance of familyMembership database with the provided db connection
func NewFamilyMembershipDatabase(db DatabaseHelper) FamilyMembershipDatabase {
	return &familyMembershipDatabase{
		db: db,
	}
}

func (m *familyMembershipDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.FamilyMembership, error) {
	membership := &models.FamilyMembership{}
	err := m.db.Collection(familyMembershipName).FindOne(ctx, filter, opts...).Decode(&membership)
	if err != nil {
		return nil, err
	}
	return membership, nil
}

func (m *familyMembershipDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.FamilyMembership, error) {
	var memberships []models.FamilyMembership
	cur, err := m.db.Collection(familyMembershipName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.All(ctx, &memberships)
	if err != nil {
		return nil, err
	}
	return memberships, nil
}

func (m *familyMembershipDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	count, err := m.db.Collection(familyMembershipName).CountDocuments(ctx, filter, opts...)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (m *familyMembershipDatabase) InsertOne(ctx context.Context, membership models.FamilyMembership, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return m.db.Collection(familyMembershipName).InsertOne(ctx, membership, opts...)
}

func (m *familyMembershipDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return m.db.Collection(familyMembershipName).UpdateOne(ctx, filter, update, opts...)
}
