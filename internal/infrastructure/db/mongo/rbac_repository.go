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

const (
	collectionRoles       = "roles"
	collectionResources   = "resources"
	collectionGrants      = "permission_grants"
	collectionAssignments = "role_assignments"
)

// RBACRepository implements the role, resource, grant and assignment ports
// against one database. It lives in a single type because the cascade rules
// cross collections: deleting a role removes its grants and assignments, and
// deleting a resource removes its grants.
type RBACRepository struct {
	roles       *mongo.Collection
	resources   *mongo.Collection
	grants      *mongo.Collection
	assignments *mongo.Collection
}

func NewRBACRepository(db *mongo.Database) *RBACRepository {
	return &RBACRepository{
		roles:       db.Collection(collectionRoles),
		resources:   db.Collection(collectionResources),
		grants:      db.Collection(collectionGrants),
		assignments: db.Collection(collectionAssignments),
	}
}

type roleDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description,omitempty"`
}

type resourceDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description,omitempty"`
}

// --- Roles ---

func (r *RBACRepository) CreateRole(ctx context.Context, role *domain.Role) (*domain.Role, error) {
	res, err := r.roles.InsertOne(ctx, roleDoc{Name: role.Name, Description: role.Description})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrRoleExists
		}
		return nil, fmt.Errorf("insert role: %w", err)
	}
	created := *role
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

func (r *RBACRepository) FindRoleByName(ctx context.Context, name string) (*domain.Role, error) {
	var doc roleDoc
	if err := r.roles.FindOne(ctx, bson.M{"name": name}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return &domain.Role{ID: doc.ID.Hex(), Name: doc.Name, Description: doc.Description}, nil
}

func (r *RBACRepository) ListRoles(ctx context.Context) ([]*domain.Role, error) {
	cur, err := r.roles.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer cur.Close(ctx)

	var roles []*domain.Role
	for cur.Next(ctx) {
		var doc roleDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode role: %w", err)
		}
		roles = append(roles, &domain.Role{ID: doc.ID.Hex(), Name: doc.Name, Description: doc.Description})
	}
	return roles, cur.Err()
}

// RenameRole updates the role's name and description. Grants and assignments
// reference the role by id, so renaming never breaks them.
func (r *RBACRepository) RenameRole(ctx context.Context, roleID, name, description string) error {
	oid, err := primitive.ObjectIDFromHex(roleID)
	if err != nil {
		return domain.ErrRoleNotFound
	}
	res, err := r.roles.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"name": name, "description": description}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrRoleExists
		}
		return fmt.Errorf("rename role: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrRoleNotFound
	}
	return nil
}

// DeleteRole removes the role and cascades to its grants and assignments.
func (r *RBACRepository) DeleteRole(ctx context.Context, roleID string) error {
	oid, err := primitive.ObjectIDFromHex(roleID)
	if err != nil {
		return domain.ErrRoleNotFound
	}
	res, err := r.roles.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrRoleNotFound
	}
	if _, err := r.grants.DeleteMany(ctx, bson.M{"role_id": roleID}); err != nil {
		return fmt.Errorf("cascade role grants: %w", err)
	}
	if _, err := r.assignments.DeleteMany(ctx, bson.M{"role_id": roleID}); err != nil {
		return fmt.Errorf("cascade role assignments: %w", err)
	}
	return nil
}

// --- Resources ---

func (r *RBACRepository) CreateResource(ctx context.Context, resource *domain.Resource) (*domain.Resource, error) {
	res, err := r.resources.InsertOne(ctx, resourceDoc{Name: resource.Name, Description: resource.Description})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrResourceExists
		}
		return nil, fmt.Errorf("insert resource: %w", err)
	}
	created := *resource
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

func (r *RBACRepository) FindResourceByName(ctx context.Context, name string) (*domain.Resource, error) {
	var doc resourceDoc
	if err := r.resources.FindOne(ctx, bson.M{"name": name}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrResourceNotFound
		}
		return nil, fmt.Errorf("find resource: %w", err)
	}
	return &domain.Resource{ID: doc.ID.Hex(), Name: doc.Name, Description: doc.Description}, nil
}

func (r *RBACRepository) ListResources(ctx context.Context) ([]*domain.Resource, error) {
	cur, err := r.resources.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer cur.Close(ctx)

	var resources []*domain.Resource
	for cur.Next(ctx) {
		var doc resourceDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode resource: %w", err)
		}
		resources = append(resources, &domain.Resource{ID: doc.ID.Hex(), Name: doc.Name, Description: doc.Description})
	}
	return resources, cur.Err()
}

// DeleteResource removes the resource and cascades to its grants.
func (r *RBACRepository) DeleteResource(ctx context.Context, resourceID string) error {
	oid, err := primitive.ObjectIDFromHex(resourceID)
	if err != nil {
		return domain.ErrResourceNotFound
	}
	res, err := r.resources.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrResourceNotFound
	}
	if _, err := r.grants.DeleteMany(ctx, bson.M{"resource_id": resourceID}); err != nil {
		return fmt.Errorf("cascade resource grants: %w", err)
	}
	return nil
}

// --- Grants ---

// UpsertGrant writes the seven flags for a (role, resource) pair, replacing
// any prior rule for the same pair rather than duplicating it.
func (r *RBACRepository) UpsertGrant(ctx context.Context, grant *domain.PermissionGrant) error {
	filter := bson.M{"role_id": grant.RoleID, "resource_id": grant.ResourceID}
	_, err := r.grants.ReplaceOne(ctx, filter, grant, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert grant: %w", err)
	}
	return nil
}

func (r *RBACRepository) FindGrant(ctx context.Context, roleID, resourceID string) (*domain.PermissionGrant, error) {
	var grant domain.PermissionGrant
	filter := bson.M{"role_id": roleID, "resource_id": resourceID}
	if err := r.grants.FindOne(ctx, filter).Decode(&grant); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrGrantNotFound
		}
		return nil, fmt.Errorf("find grant: %w", err)
	}
	return &grant, nil
}

func (r *RBACRepository) ListGrants(ctx context.Context) ([]*domain.PermissionGrant, error) {
	cur, err := r.grants.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	defer cur.Close(ctx)

	var grants []*domain.PermissionGrant
	for cur.Next(ctx) {
		var grant domain.PermissionGrant
		if err := cur.Decode(&grant); err != nil {
			return nil, fmt.Errorf("decode grant: %w", err)
		}
		grants = append(grants, &grant)
	}
	return grants, cur.Err()
}

func (r *RBACRepository) DeleteGrant(ctx context.Context, roleID, resourceID string) error {
	res, err := r.grants.DeleteOne(ctx, bson.M{"role_id": roleID, "resource_id": resourceID})
	if err != nil {
		return fmt.Errorf("delete grant: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrGrantNotFound
	}
	return nil
}

// --- Assignments ---

func (r *RBACRepository) Assign(ctx context.Context, identityID, roleID string) error {
	filter := bson.M{"identity_id": identityID, "role_id": roleID}
	update := bson.M{"$set": domain.RoleAssignment{IdentityID: identityID, RoleID: roleID}}
	_, err := r.assignments.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

func (r *RBACRepository) Unassign(ctx context.Context, identityID, roleID string) error {
	_, err := r.assignments.DeleteOne(ctx, bson.M{"identity_id": identityID, "role_id": roleID})
	if err != nil {
		return fmt.Errorf("unassign role: %w", err)
	}
	return nil
}

func (r *RBACRepository) RolesFor(ctx context.Context, identityID string) ([]string, error) {
	cur, err := r.assignments.Find(ctx, bson.M{"identity_id": identityID})
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer cur.Close(ctx)

	var roleIDs []string
	for cur.Next(ctx) {
		var a domain.RoleAssignment
		if err := cur.Decode(&a); err != nil {
			return nil, fmt.Errorf("decode assignment: %w", err)
		}
		roleIDs = append(roleIDs, a.RoleID)
	}
	return roleIDs, cur.Err()
}

// EnsureResource creates the resource if no row with that name exists yet and
// returns it either way. Used to seed the protectable resources at startup.
func (r *RBACRepository) EnsureResource(ctx context.Context, name, description string) (*domain.Resource, error) {
	resource, err := r.CreateResource(ctx, &domain.Resource{Name: name, Description: description})
	if errors.Is(err, domain.ErrResourceExists) {
		return r.FindResourceByName(ctx, name)
	}
	return resource, err
}

// EnsureRole creates the role if no row with that name exists yet and returns
// it either way.
func (r *RBACRepository) EnsureRole(ctx context.Context, name, description string) (*domain.Role, error) {
	role, err := r.CreateRole(ctx, &domain.Role{Name: name, Description: description})
	if errors.Is(err, domain.ErrRoleExists) {
		return r.FindRoleByName(ctx, name)
	}
	return role, err
}

// EnsureIndexes creates the uniqueness indexes the repository relies on.
func (r *RBACRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	unique := options.Index().SetUnique(true)

	if _, err := r.roles.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}}, Options: unique,
	}); err != nil {
		return err
	}
	if _, err := r.resources.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}}, Options: unique,
	}); err != nil {
		return err
	}
	if _, err := r.grants.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "role_id", Value: 1}, {Key: "resource_id", Value: 1}}, Options: unique,
	}); err != nil {
		return err
	}
	_, err := r.assignments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "identity_id", Value: 1}, {Key: "role_id", Value: 1}}, Options: unique,
	})
	return err
}
