package models

type ThreadStatus string

const (
	StatusDraft     ThreadStatus = "D"
	StatusAwaiting  ThreadStatus = "A"
	StatusRevision  ThreadStatus = "R"
	StatusPublished ThreadStatus = "P"
)

func (s ThreadStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusAwaiting, StatusRevision, StatusPublished:
		return true
	}
	return false
}

func (s ThreadStatus) Label() string {
	switch s {
	case StatusDraft:
		return "Draft"
	case StatusAwaiting:
		return "Awaiting Approval"
	case StatusRevision:
		return "Revision Requested"
	case StatusPublished:
		return "Published"
	default:
		return "Unknown"
	}
}

type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type PersonRef struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

type SpaceRef struct {
	Title      string `json:"title"`
	CoverImage string `json:"coverImage,omitempty"`
}

type Thread struct {
	ThreadID          string       `json:"threadId"`
	SpaceID           string       `json:"spaceId"`
	OwnerID           string       `json:"ownerId"`
	EditorID          string       `json:"editorId"`
	Title             string       `json:"title"`
	Content           string       `json:"content"`
	CoverImage        string       `json:"coverImage,omitempty"`
	Tags              []Tag        `json:"tags"`
	Status            ThreadStatus `json:"status"`
	CreatedOn         string       `json:"createdOn"`
	UpdatedOn         string       `json:"updatedOn"`
	PublishedOn       string       `json:"publishedOn,omitempty"`
	RejectionReason   string       `json:"rejectionReason,omitempty"`
	OwnerDetails      PersonRef    `json:"ownerDetails"`
	EditorDetails     PersonRef    `json:"editorDetails"`
	SpaceDetails      SpaceRef     `json:"spaceDetails"`
	SubscribersCount  int          `json:"subscribersCount"`
	InteractionsCount int          `json:"interactionsCount"`
}

type ThreadPreview struct {
	ThreadID        string       `json:"threadId"`
	SpaceID         string       `json:"spaceId"`
	OwnerID         string       `json:"ownerId"`
	EditorID        string       `json:"editorId"`
	Title           string       `json:"title"`
	CoverImage      string       `json:"coverImage,omitempty"`
	Tags            []Tag        `json:"tags"`
	Status          ThreadStatus `json:"status"`
	CreatedOn       string       `json:"createdOn"`
	PublishedOn     string       `json:"publishedOn,omitempty"`
	RejectionReason string       `json:"rejectionReason,omitempty"`
	EditorName      string       `json:"editorName,omitempty"`
	SpaceTitle      string       `json:"spaceTitle,omitempty"`
}

type ThreadFormData struct {
	Title      string `json:"title"`
	Content    string `json:"content,omitempty"`
	CoverImage string `json:"coverImage,omitempty"`
	Tags       []Tag  `json:"tags"`
	SpaceID    string `json:"spaceId"`
}

type ThreadUpdateData struct {
	ThreadFormData
	ThreadID string       `json:"threadId"`
	Status   ThreadStatus `json:"status,omitempty"`
}

type CreatedThread struct {
	ThreadID string `json:"threadId"`
}

type Interaction string

const (
	InteractionLike   Interaction = "like"
	InteractionUnlike Interaction = "unlike"
)

type ThreadInteraction struct {
	ThreadID    string      `json:"threadId"`
	UserID      string      `json:"userId"`
	UserName    string      `json:"userName"`
	UserAvatar  string      `json:"userAvatar,omitempty"`
	Interaction Interaction `json:"interaction"`
}

// DefaultTone is used when a generation request names no tone.
const DefaultTone = "natural"

// Tones are the writing tones offered for generated thread content.
var Tones = []string{
	"informative", "conversational", "formal", "inspirational", "humorous",
	"persuasive", "analytical", "narrative", "educational", "technical",
	"journalistic", "review", "tutorials", "marketing", "news",
	"empathetic", "optimistic", "reflective", "sarcastic", "urgent",
}

// GenerateThreadData asks the content generator for a markdown draft.
type GenerateThreadData struct {
	Prompt string `json:"prompt"`
	Tone   string `json:"tone"`
}
