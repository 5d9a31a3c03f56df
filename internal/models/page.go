package models

// Page is one slice of a cursor-paginated list. A nil NextPageToken marks the
// final page.
type Page[T any] struct {
	List          []T     `json:"list"`
	NextPageToken *string `json:"nextPagetoken,omitempty"`
	TotalCount    int     `json:"totalCount,omitempty"`
}

func (p Page[T]) Next() (string, bool) {
	if p.NextPageToken == nil || *p.NextPageToken == "" {
		return "", false
	}
	return *p.NextPageToken, true
}

type PageRequest struct {
	PageSize int
	Token    string
}
