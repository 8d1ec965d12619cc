package schema

// UserCredentialTable represents the 'users.credential' table
type UserCredentialTable struct {
	Table        string
	AccountID    string
	PasswordHash string
	UpdatedAt    string
}

// UserCredential is the schema definition for users.credential
var UserCredential = UserCredentialTable{
	Table:        "users.credential",
	AccountID:    "accountid",
	PasswordHash: "passwordhash",
	UpdatedAt:    "updatedat",
}

// Columns returns all standard column names
func (t UserCredentialTable) Columns() []string {
	return []string{t.AccountID, t.PasswordHash, t.UpdatedAt}
}
