package models

type Role string

const (
	RoleAnonymous Role = ""
	RoleReader    Role = "U"
	RoleOwner     Role = "O"
	RoleEditor    Role = "E"
	RoleAdmin     Role = "A"
)

func (r Role) Valid() bool {
	switch r {
	case RoleReader, RoleOwner, RoleEditor, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string {
	switch r {
	case RoleReader:
		return "reader"
	case RoleOwner:
		return "owner"
	case RoleEditor:
		return "editor"
	case RoleAdmin:
		return "admin"
	default:
		return "anonymous"
	}
}

type User struct {
	UserID          string   `json:"userId"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Avatar          string   `json:"avatar,omitempty"`
	Bio             string   `json:"bio,omitempty"`
	Role            Role     `json:"role"`
	OnboardComplete bool     `json:"onboardComplete"`
	SubscribedTags  []string `json:"subscribedTags"`
	ParentOwnerID   string   `json:"parentOwnerId,omitempty"`
}

// Profile is the editable part of the session user.
type Profile struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Avatar         string `json:"avatar,omitempty"`
	Bio            string `json:"bio,omitempty"`
	SubscribedTags []Tag  `json:"subscribedTags"`
}

type PublicProfile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Avatar       string `json:"avatar,omitempty"`
	Bio          string `json:"bio,omitempty"`
	CreatedOn    string `json:"createdOn"`
	TotalThreads int    `json:"totalThreads"`
	TotalSpaces  int    `json:"totalSpaces"`
}

type OwnerDetails struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar,omitempty"`
	Bio       string `json:"bio,omitempty"`
	CreatedOn string `json:"createdOn"`
}

type Editor struct {
	InviteID  string `json:"inviteId"`
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar,omitempty"`
	CreatedOn string `json:"createdOn"`
}

type SessionStatus struct {
	IsLoggedIn bool `json:"isLoggedIn"`
	Role       Role `json:"role,omitempty"`
}

type RegisterData struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

type LoginData struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProfileUpdate struct {
	Name   string `json:"name,omitempty"`
	Bio    string `json:"bio,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

type LoginResult struct {
	Token string `json:"token"`
}

type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Viewer is the identity that client-side decisions are made for. The zero
// value is an anonymous visitor.
type Viewer struct {
	UserID        string
	Role          Role
	ParentOwnerID string
}

func ViewerOf(u *User) Viewer {
	if u == nil {
		return Viewer{}
	}
	return Viewer{UserID: u.UserID, Role: u.Role, ParentOwnerID: u.ParentOwnerID}
}

func (v Viewer) Anonymous() bool {
	return v.UserID == "" || v.Role == RoleAnonymous
}
