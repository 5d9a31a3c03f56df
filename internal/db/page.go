package db

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"

	"inkyspace/internal/models"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	tokenPrefix     = "o:"
)

var ErrInvalidPageToken = errors.New("invalid page token")

// PageParams selects one page of a list. Token is the opaque value handed
// out as nextPagetoken by the previous page.
type PageParams struct {
	Size  int
	Token string
}

func (p PageParams) window() (limit, offset int, err error) {
	limit = p.Size
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if p.Token == "" {
		return limit, 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(p.Token)
	if err != nil || !strings.HasPrefix(string(raw), tokenPrefix) {
		return 0, 0, ErrInvalidPageToken
	}
	offset, err = strconv.Atoi(strings.TrimPrefix(string(raw), tokenPrefix))
	if err != nil || offset < 0 {
		return 0, 0, ErrInvalidPageToken
	}
	return limit, offset, nil
}

func pageToken(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(tokenPrefix + strconv.Itoa(offset)))
}

func pageOf[T any](list []T, offset, total int) models.Page[T] {
	if list == nil {
		list = []T{}
	}
	p := models.Page[T]{List: list, TotalCount: total}
	if next := offset + len(list); len(list) > 0 && next < total {
		tok := pageToken(next)
		p.NextPageToken = &tok
	}
	return p
}
