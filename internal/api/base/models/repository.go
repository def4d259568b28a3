package basemodels

// PaginateResult wraps a page of items with pagination metadata.
type PaginateResult[T any] struct {
	Items     []T   `json:"items"`
	Page      int64 `json:"page"`
	Limit     int64 `json:"limit"`
	ItemCount int64 `json:"itemCount"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}
