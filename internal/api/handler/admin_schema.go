package handler

// --- Admin request / response types ---

type roleRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type renameRoleRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type resourceRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type grantRequest struct {
	Role      string `json:"role"     validate:"required"`
	Resource  string `json:"resource" validate:"required"`
	Read      bool   `json:"read"`
	ReadAll   bool   `json:"read_all"`
	Create    bool   `json:"create"`
	Update    bool   `json:"update"`
	UpdateAll bool   `json:"update_all"`
	Delete    bool   `json:"delete"`
	DeleteAll bool   `json:"delete_all"`
}

type assignmentRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role"  validate:"required"`
}
