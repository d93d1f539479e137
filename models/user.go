package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	Username     string             `bson:"username" json:"username"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	Disabled     bool               `bson:"disabled" json:"disabled"`

	// Profile fields
	Nickname string `bson:"nickname" json:"nickname"`
	Avatar   string `bson:"avatar" json:"avatar"`
	Bio      string `bson:"bio" json:"bio"`

	MembershipLevel     string `bson:"membershipLevel,omitempty" json:"membershipLevel"`
	MembershipExpiresAt int64  `bson:"membershipExpiresAt" json:"membershipExpiresAt"`

	CreatedAt   int64 `bson:"createdAt" json:"createdAt"`
	UpdatedAt   int64 `bson:"updatedAt" json:"updatedAt"`
	LastLoginAt int64 `bson:"lastLoginAt,omitempty" json:"lastLoginAt,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsMember reports whether the membership is still running at now.
// The stored level is not consulted; it may lag behind until the sweep job clears it.
func (u *User) IsMember(now int64) bool {
	return u.MembershipExpiresAt > now
}

func (u *User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}

// PublicUser is the subset of a user embedded into other resources.
type PublicUser struct {
	ID       primitive.ObjectID `json:"id"`
	Username string             `json:"username"`
	Nickname string             `json:"nickname"`
	Avatar   string             `json:"avatar"`
}

func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Nickname: u.DisplayName(),
		Avatar:   u.Avatar,
	}
}

// UnknownUser is rendered when an author record has gone missing.
func UnknownUser(id primitive.ObjectID) *PublicUser {
	return &PublicUser{ID: id, Username: "unknown", Nickname: "Unknown User"}
}

// Stats is the admin dashboard summary.
type Stats struct {
	Users       int64                  `json:"users"`
	Members     int64                  `json:"members"`
	Posts       int64                  `json:"posts"`
	Screenings  int64                  `json:"screenings"`
	SpiritPosts map[SpiritStatus]int64 `json:"spiritPosts"`
}
