package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table             string
	ID                string
	Email             string
	Name              string
	Status            string
	Role              string
	RefreshTokenKey   string
	EmailNotification string
	Rating            string
	Language          string
	RegisteredAt      string
	LastActivityAt    string
	UpdatedAt         string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:             "users.account",
	ID:                "id",
	Email:             "email",
	Name:              "name",
	Status:            "status",
	Role:              "role",
	RefreshTokenKey:   "refreshtokenkey",
	EmailNotification: "emailnotification",
	Rating:            "rating",
	Language:          "language",
	RegisteredAt:      "registeredat",
	LastActivityAt:    "lastactivityat",
	UpdatedAt:         "updatedat",
}

// Columns returns all standard column names
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.Name, t.Status, t.Role, t.RefreshTokenKey,
		t.EmailNotification, t.Rating, t.Language, t.RegisteredAt,
		t.LastActivityAt, t.UpdatedAt,
	}
}
