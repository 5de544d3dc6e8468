package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table       string
	ID          string
	Username    string
	Email       string
	Password    string
	DateOfBirth string
	City        string
	Occupation  string
	CreatedAt   string
	UpdatedAt   string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:       "users.account",
	ID:          "id",
	Username:    "username",
	Email:       "email",
	Password:    "passwordhash",
	DateOfBirth: "dateofbirth",
	City:        "city",
	Occupation:  "occupation",
	CreatedAt:   "createdat",
	UpdatedAt:   "updatedat",
}

// Columns returns every column in scan order.
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Username, t.Email, t.Password, t.DateOfBirth,
		t.City, t.Occupation, t.CreatedAt, t.UpdatedAt,
	}
}

// SortColumn maps an API sort key onto its column. The boolean is false for
// keys that are not sortable.
func (t UserAccountTable) SortColumn(apiField string) (string, bool) {
	column, ok := map[string]string{
		"username":    t.Username,
		"email":       t.Email,
		"dateOfBirth": t.DateOfBirth,
		"city":        t.City,
		"occupation":  t.Occupation,
		"createdAt":   t.CreatedAt,
		"updatedAt":   t.UpdatedAt,
	}[apiField]
	return column, ok
}
