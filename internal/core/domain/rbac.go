package domain

import "errors"

var ErrRoleNotFound = errors.New("role not found")
var ErrRoleExists = errors.New("role already exists")
var ErrResourceNotFound = errors.New("resource not found")
var ErrResourceExists = errors.New("resource already exists")
var ErrGrantNotFound = errors.New("grant not found")
var ErrUnknownOperation = errors.New("unknown operation")

// Role is a named permission group. Identities gain capabilities only through
// role membership.
type Role struct {
	ID          string `json:"id" bson:"_id,omitempty"`
	Name        string `json:"name" bson:"name"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
}

// Resource is a named protectable object class (e.g. "products").
type Resource struct {
	ID          string `json:"id" bson:"_id,omitempty"`
	Name        string `json:"name" bson:"name"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
}

// RoleAssignment links an identity to a role. Unique per (identity, role).
type RoleAssignment struct {
	IdentityID string `json:"identity_id" bson:"identity_id"`
	RoleID     string `json:"role_id" bson:"role_id"`
}

// PermissionGrant stores the seven boolean capabilities of one role over one
// resource. At most one grant exists per (role, resource) pair; re-applying a
// grant overwrites the flags. The *All flags mean "operate on any subject's
// object"; the plain flags cover only objects the subject itself owns.
// Ownership comparison is the caller's job, not the matrix's.
type PermissionGrant struct {
	RoleID     string `json:"role_id" bson:"role_id"`
	ResourceID string `json:"resource_id" bson:"resource_id"`
	Read       bool   `json:"read" bson:"read"`
	ReadAll    bool   `json:"read_all" bson:"read_all"`
	Create     bool   `json:"create" bson:"create"`
	Update     bool   `json:"update" bson:"update"`
	UpdateAll  bool   `json:"update_all" bson:"update_all"`
	Delete     bool   `json:"delete" bson:"delete"`
	DeleteAll  bool   `json:"delete_all" bson:"delete_all"`
}

// Operation names one of the seven capabilities a grant can carry.
type Operation string

const (
	OpRead      Operation = "read"
	OpReadAll   Operation = "read_all"
	OpCreate    Operation = "create"
	OpUpdate    Operation = "update"
	OpUpdateAll Operation = "update_all"
	OpDelete    Operation = "delete"
	OpDeleteAll Operation = "delete_all"
)

// grantFlags maps each operation to the grant field carrying it. Adding an
// operation means adding one row here, not extending a conditional chain.
var grantFlags = map[Operation]func(PermissionGrant) bool{
	OpRead:      func(g PermissionGrant) bool { return g.Read },
	OpReadAll:   func(g PermissionGrant) bool { return g.ReadAll },
	OpCreate:    func(g PermissionGrant) bool { return g.Create },
	OpUpdate:    func(g PermissionGrant) bool { return g.Update },
	OpUpdateAll: func(g PermissionGrant) bool { return g.UpdateAll },
	OpDelete:    func(g PermissionGrant) bool { return g.Delete },
	OpDeleteAll: func(g PermissionGrant) bool { return g.DeleteAll },
}

// ParseOperation validates an operation name. Unknown names fail closed.
func ParseOperation(name string) (Operation, error) {
	op := Operation(name)
	if _, ok := grantFlags[op]; !ok {
		return "", ErrUnknownOperation
	}
	return op, nil
}

// Allows reports whether the grant carries the given operation.
func (g PermissionGrant) Allows(op Operation) bool {
	flag, ok := grantFlags[op]
	if !ok {
		return false
	}
	return flag(g)
}
