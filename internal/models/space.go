package models

type Space struct {
	SpaceID          string `json:"spaceId"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	CoverImage       string `json:"coverImage,omitempty"`
	OwnerID          string `json:"ownerId"`
	OwnerName        string `json:"ownerName"`
	OwnerAvatar      string `json:"ownerAvatar,omitempty"`
	Subscribers      int    `json:"subscribers"`
	IsPrivate        bool   `json:"isPrivate"`
	CreatedOn        string `json:"createdOn"`
	UpdatedOn        string `json:"updatedOn,omitempty"`
	IsSubscribed     bool   `json:"isSubscribed,omitempty"`
	IsNewsletter     bool   `json:"isNewsletter,omitempty"`
	PublishedThreads int    `json:"publishedThreads,omitempty"`
}

type OwnedSpace struct {
	SpaceID     string            `json:"spaceId"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	CoverImage  string            `json:"coverImage,omitempty"`
	IsPrivate   bool              `json:"isPrivate"`
	Subscribers int               `json:"subscribers"`
	CreatedOn   string            `json:"createdOn"`
	Recent      []SpaceSubscriber `json:"recentSubscribers,omitempty"`
}

type SubscribedSpace struct {
	Space
	SubscribedOn string `json:"subscribedOn,omitempty"`
}

type SpaceName struct {
	SpaceID string `json:"spaceId"`
	Title   string `json:"title"`
}

type SubscriptionStatus struct {
	IsSubscribed bool `json:"isSubscribed"`
	IsNewsletter bool `json:"isNewsletter"`
}

type CreatedSpace struct {
	SpaceID string `json:"spaceId"`
}

type SpaceSubscriber struct {
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	Avatar       string `json:"avatar,omitempty"`
	IsNewsletter bool   `json:"isNewsletter"`
	SubscribedOn string `json:"subscribedOn"`
}

type CreateSpaceData struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CoverImage  string `json:"coverImage,omitempty"`
	IsPrivate   bool   `json:"isPrivate"`
}

type UpdateSpaceData struct {
	SpaceID     string `json:"spaceId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CoverImage  string `json:"coverImage,omitempty"`
	IsPrivate   bool   `json:"isPrivate"`
}

type SpaceSelection struct {
	SpaceID      string `json:"spaceId"`
	IsNewsletter bool   `json:"isNewsletter"`
}
