package domain

import "time"

type Item struct {
	ID         int64     `json:"id"`
	CategoryID int64     `json:"category_id"`
	Name       string    `json:"name"`
	Code       string    `json:"code"`
	Stock      int       `json:"stock"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ItemSummary is the trimmed item embedded in detailed ledger views.
type ItemSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type CreateItemRequest struct {
	CategoryID int64
	Name       string
	Code       string
	Stock      int
}

func NewCreateItemRequest(categoryID int64, name, code string, stock int) (CreateItemRequest, error) {
	if categoryID <= 0 {
		return CreateItemRequest{}, invalidArgument("category id must be positive")
	}
	if name == "" || code == "" {
		return CreateItemRequest{}, invalidArgument("name and code are required")
	}
	if stock < 0 {
		return CreateItemRequest{}, invalidArgument("stock must not be negative")
	}
	return CreateItemRequest{CategoryID: categoryID, Name: name, Code: code, Stock: stock}, nil
}

type UpdateItemRequest struct {
	Name string
}
