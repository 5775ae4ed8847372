package api

import "github.com/dfryer1193/esatsite/content/domain"

// Envelope is the response wrapper every CMS endpoint uses.
type Envelope[T any] struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    T                      `json:"data"`
	Meta    *domain.PaginationMeta `json:"meta,omitempty"`
	Links   *PageLinks             `json:"links,omitempty"`
}

type PageLinks struct {
	First string  `json:"first"`
	Last  string  `json:"last"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
}

// ErrorResponse is the body of a failed site API call.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
