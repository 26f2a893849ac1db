package databases

// go generate: mockery --name FamilyDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/familybudget/family-budget-api/models"
)

const familyName = "families"

// FamilyDatabase contains the methods to use with the family database
type FamilyDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Family, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Family, error)
	InsertOne(ctx context.Context, family models.Family, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
}

type familyDatabase struct {
	db DatabaseHelper
}

// NewFamilyDatabase initializes a new instance of family database with the provided db connection
func NewFamilyDatabase(db DatabaseHelper) FamilyDatabase {
	return &familyDatabase{
		db: db,
	}
}

func (f *familyDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Family, error) {
	family := &models.Family{}
	err := f.db.Collection(familyName).FindOne(ctx, filter, opts...).Decode(&family)
	if err != nil {
		return nil, err
	}
	return family, nil
}

func (f *familyDatabase) InsertOne(ctx context.Context, family models.Family, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return f.db.Collection(familyName).InsertOne(ctx, family, opts...)
}

func (f *familyDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Family, error) {
	var families []models.Family
	cur, err := f.db.Collection(familyName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.All(ctx, &families)
	if err != nil {
		return nil, err
	}
	return families, nil
}
