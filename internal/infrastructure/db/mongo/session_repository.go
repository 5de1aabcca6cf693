package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/accessgate/access-system/internal/core/domain"
)

const collectionSessions = "sessions"

// SessionRepository persists session rows. Deactivated and expired sessions
// are never deleted; they remain as audit history.
type SessionRepository struct {
	coll *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{coll: db.Collection(collectionSessions)}
}

type sessionDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	IdentityID string             `bson:"identity_id"`
	Token      string             `bson:"token"`
	IssuedAt   int64              `bson:"issued_at"`
	ExpiresAt  int64              `bson:"expires_at"`
	Active     bool               `bson:"is_active"`
}

func (r *SessionRepository) Insert(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	doc := sessionDoc{
		IdentityID: session.IdentityID,
		Token:      session.Token,
		IssuedAt:   session.IssuedAt.Unix(),
		ExpiresAt:  session.ExpiresAt.Unix(),
		Active:     session.Active,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	created := *session
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

func (r *SessionRepository) FindByToken(ctx context.Context, token string) (*domain.Session, error) {
	var doc sessionDoc
	if err := r.coll.FindOne(ctx, bson.M{"token": token}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}

	return &domain.Session{
		ID:         doc.ID.Hex(),
		IdentityID: doc.IdentityID,
		Token:      doc.Token,
		IssuedAt:   unixToTime(doc.IssuedAt),
		ExpiresAt:  unixToTime(doc.ExpiresAt),
		Active:     doc.Active,
	}, nil
}

func (r *SessionRepository) DeactivateAll(ctx context.Context, identityID string) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"identity_id": identityID, "is_active": true},
		bson.M{"$set": bson.M{"is_active": false}},
	)
	if err != nil {
		return 0, fmt.Errorf("deactivate sessions: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *SessionRepository) Deactivate(ctx context.Context, sessionID string) error {
	oid, err := primitive.ObjectIDFromHex(sessionID)
	if err != nil {
		return domain.ErrSessionNotFound
	}
	// Idempotent: matching zero rows (already inactive) is not an error.
	_, err = r.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"is_active": false}},
	)
	if err != nil {
		return fmt.Errorf("deactivate session: %w", err)
	}
	return nil
}

// EnsureIndexes creates the token uniqueness and lookup indexes.
func (r *SessionRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "identity_id", Value: 1}, {Key: "is_active", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
