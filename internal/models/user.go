package models

import "time"

// RoleAdmin marks users allowed to administer informational contents.
const RoleAdmin = "ADMIN"

// User is an application account (username/CPF variant). The same profile is
// serialized into the client session store under the "user" key.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Username     string    `bson:"username,omitempty" json:"username"`
	CPF          string    `bson:"cpf,omitempty" json:"cpf"`
	// ExternalID is the identity provider subject of accounts created on
	// their first provider-issued token. Such accounts have no password.
	ExternalID   string    `bson:"externalId,omitempty" json:"externalId,omitempty"`
	Role         string    `bson:"role,omitempty" json:"role,omitempty"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsAdmin reports whether the user may administer contents.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
