package databases

// go generate: mockery --name ProfileDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/familybudget/family-budget-api/models"
)

const profileName = "profiles"

// ProfileDatabase contains the methods to use with the public profile database
type ProfileDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Profile, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Profile, error)
}

type profileDatabase struct {
	db DatabaseHelper
}

// NewProfileDatabase initializes a new instance of profile database with the provided db connection
func NewProfileDatabase(db DatabaseHelper) ProfileDatabase {
	return &profileDatabase{
		db: db,
	}
}

func (p *profileDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Profile, error) {
	profile := &models.Profile{}
	err := p.db.Collection(profileName).FindOne(ctx, filter, opts...).Decode(&profile)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (p *profileDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Profile, error) {
	var profiles []models.Profile
	cur, err := p.db.Collection(profileName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.All(ctx, &profiles)
	if err != nil {
		return nil, err
	}
	return profiles, nil
}
