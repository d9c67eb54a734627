package users

type UserRepo interface {
	Upsert(user *User) error
	Delete(id string) error
	GetByID(id string) (*User, error)

	// GetByLogin finds a user by email address, compared case insensitively,
	// or by username.
	GetByLogin(login string) (*User, error)
}
