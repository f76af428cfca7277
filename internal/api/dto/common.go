package dto

import "github.com/hugh/hostel-hunter/internal/apperr"

type ErrorResponse struct {
	Error   string            `json:"error"`
	Field   string            `json:"field,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// NewErrorResponse exposes only the user-facing parts of a domain error.
func NewErrorResponse(e *apperr.Error) ErrorResponse {
	resp := ErrorResponse{Error: e.Message, Field: e.Field, Details: e.Fields}
	if resp.Details == nil && e.Field != "" && e.Kind == apperr.KindValidation {
		resp.Details = map[string]string{e.Field: e.Message}
	}
	return resp
}

type SuccessResponse struct {
	Message string `json:"message"`
	// Warning reports a side effect that failed without failing the request,
	// such as an email that was not sent.
	Warning string `json:"warning,omitempty"`
}

type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PerPage    int         `json:"per_page"`
	TotalPages int         `json:"total_pages"`
}

func NewPaginatedResponse(data interface{}, total int64, p PaginationParams) PaginatedResponse {
	pages := int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	return PaginatedResponse{Data: data, Total: total, Page: p.Page, PerPage: p.PerPage, TotalPages: pages}
}

type PaginationParams struct {
	Page    int
	PerPage int
}

func (p *PaginationParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = 20
	}
	if p.PerPage > 100 {
		p.PerPage = 100
	}
}

func (p *PaginationParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}
