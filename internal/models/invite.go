package models

type Invite struct {
	InviteID   string `json:"inviteId"`
	UserEmail  string `json:"userEmail"`
	IsAccepted bool   `json:"isAccepted"`
	CreatedOn  string `json:"createdOn"`
	UpdatedOn  string `json:"updatedOn"`
}

// InviteResult summarizes a batch invitation.
type InviteResult struct {
	Success bool `json:"success"`
	Invited int  `json:"invited"`
	Failed  int  `json:"failed"`
}

type InviteStatus struct {
	IsAccepted bool `json:"isAccepted"`
}

type AcceptInviteData struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}
