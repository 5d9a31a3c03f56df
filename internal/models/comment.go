package models

type Comment struct {
	CommentID  string  `json:"commentId"`
	ThreadID   string  `json:"threadId"`
	UserID     string  `json:"userId"`
	UserName   string  `json:"userName"`
	UserAvatar string  `json:"userAvatar,omitempty"`
	CreatedOn  string  `json:"createdOn"`
	Comment    string  `json:"comment"`
	Replies    int     `json:"replies"`
	ReplyList  []Reply `json:"repliesList,omitempty"`
}

type Reply struct {
	CommentID  string `json:"commentId"`
	ThreadID   string `json:"threadId"`
	ParentID   string `json:"parentId"`
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	UserAvatar string `json:"userAvatar,omitempty"`
	CreatedOn  string `json:"createdOn"`
	Reply      string `json:"reply"`
}

type CreatedComment struct {
	CommentID string `json:"commentId"`
}

type CreatedReply struct {
	ReplyID string `json:"replyId"`
}
