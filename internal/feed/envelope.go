package feed

import (
	"context"
	"strconv"

	"feed-gateway/internal/cache"
	"feed-gateway/internal/common/errors"
	"feed-gateway/internal/upstream"
)

// ItemsPerPage is the fixed page size for feed pagination.
const ItemsPerPage = 12

// Pagination describes the item window a feed page covers. Items are
// numbered from 1.
type Pagination struct {
	Page         int `json:"page"`
	ItemsPerPage int `json:"items_per_page"`
	StartItem    int `json:"start_item"`
	EndItem      int `json:"end_item"`
}

// Envelope is the response shape for cached payloads. The timestamp is
// the shaping time, so cache hits replay the original timestamp.
type Envelope struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Data       interface{} `json:"data"`
}

// Selector identifies one cacheable piece of personalized data and
// knows how to fetch it.
type Selector interface {
	Validate() error
	Subject() cache.Subject
	Key() string
	Pagination() *Pagination
	Fetch(ctx context.Context, client upstream.Client, credential string) (interface{}, string, error)
}

// PageSelector selects one page of the personalized feed.
type PageSelector struct {
	Page int
}

func (s PageSelector) Validate() error {
	if s.Page < 1 {
		return errors.ValidationError("Page number must be >= 1")
	}
	return nil
}

func (s PageSelector) Subject() cache.Subject {
	return cache.SubjectFeed
}

func (s PageSelector) Key() string {
	return strconv.Itoa(s.Page)
}

// Range maps the page to its 1-based inclusive item window.
func (s PageSelector) Range() upstream.Range {
	start := (s.Page-1)*ItemsPerPage + 1
	return upstream.Range{Start: start, End: start + ItemsPerPage - 1}
}

func (s PageSelector) Pagination() *Pagination {
	r := s.Range()
	return &Pagination{
		Page:         s.Page,
		ItemsPerPage: ItemsPerPage,
		StartItem:    r.Start,
		EndItem:      r.End,
	}
}

func (s PageSelector) Fetch(ctx context.Context, client upstream.Client, credential string) (interface{}, string, error) {
	feed, rotated, err := client.FetchFeed(ctx, credential, s.Range())
	if err != nil {
		return nil, rotated, err
	}
	return feed, rotated, nil
}

// VideoSelector selects metadata for one video.
type VideoSelector struct {
	VideoID string
}

func (s VideoSelector) Validate() error {
	if s.VideoID == "" {
		return errors.ValidationError("Video id is required")
	}
	return nil
}

func (s VideoSelector) Subject() cache.Subject {
	return cache.SubjectVideo
}

func (s VideoSelector) Key() string {
	return s.VideoID
}

func (s VideoSelector) Pagination() *Pagination {
	return nil
}

func (s VideoSelector) Fetch(ctx context.Context, client upstream.Client, credential string) (interface{}, string, error) {
	video, rotated, err := client.FetchItem(ctx, credential, s.VideoID)
	if err != nil {
		return nil, rotated, err
	}
	return video, rotated, nil
}
