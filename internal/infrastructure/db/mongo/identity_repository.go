package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/accessgate/access-system/internal/core/domain"
)

const identityCollection = "identities"

// IdentityRepository persists identity rows. Email uniqueness relies on a
// unique index on the email field; soft-deleted rows stay in the collection.
type IdentityRepository struct {
	coll *mongo.Collection
}

func NewIdentityRepository(db *mongo.Database) *IdentityRepository {
	return &IdentityRepository{coll: db.Collection(identityCollection)}
}

type identityDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	FirstName    string             `bson:"first_name"`
	LastName     string             `bson:"last_name"`
	MiddleName   string             `bson:"middle_name,omitempty"`
	PasswordHash string             `bson:"password_hash"`
	Active       bool               `bson:"is_active"`
	JoinedAt     int64              `bson:"joined_at"`
	DeletedAt    *int64             `bson:"deleted_at,omitempty"`
}

func (r *IdentityRepository) Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error) {
	doc := identityDoc{
		Email:        identity.Email,
		FirstName:    identity.FirstName,
		LastName:     identity.LastName,
		MiddleName:   identity.MiddleName,
		PasswordHash: identity.PasswordHash,
		Active:       identity.Active,
		JoinedAt:     identity.JoinedAt.Unix(),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrIdentityExists
		}
		return nil, fmt.Errorf("insert identity: %w", err)
	}

	created := *identity
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *IdentityRepository) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrIdentityNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *IdentityRepository) Update(ctx context.Context, identity *domain.Identity) error {
	oid, err := primitive.ObjectIDFromHex(identity.ID)
	if err != nil {
		return domain.ErrIdentityNotFound
	}

	set := bson.M{
		"first_name":  identity.FirstName,
		"last_name":   identity.LastName,
		"middle_name": identity.MiddleName,
		"is_active":   identity.Active,
	}
	if identity.DeletedAt != nil {
		set["deleted_at"] = identity.DeletedAt.Unix()
	}

	res, err := r.coll.UpdateByID(ctx, oid, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update identity: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

func (r *IdentityRepository) List(ctx context.Context) ([]*domain.Identity, error) {
	cur, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer cur.Close(ctx)

	var identities []*domain.Identity
	for cur.Next(ctx) {
		var doc identityDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode identity: %w", err)
		}
		identities = append(identities, doc.toDomain())
	}
	return identities, cur.Err()
}

func (r *IdentityRepository) findOne(ctx context.Context, filter bson.M) (*domain.Identity, error) {
	var doc identityDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return doc.toDomain(), nil
}

func (d identityDoc) toDomain() *domain.Identity {
	identity := &domain.Identity{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		MiddleName:   d.MiddleName,
		PasswordHash: d.PasswordHash,
		Active:       d.Active,
		JoinedAt:     unixToTime(d.JoinedAt),
	}
	if d.DeletedAt != nil {
		t := unixToTime(*d.DeletedAt)
		identity.DeletedAt = &t
	}
	return identity
}

// identityIndexes declares the indexes Create relies on: duplicate-key
// mapping to ErrIdentityExists only works with the unique email index in
// place.
func identityIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
}

// EnsureIndexes creates the email uniqueness index.
func (r *IdentityRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, identityIndexes())
	return err
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
