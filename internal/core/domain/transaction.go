package domain

import (
	"fmt"
	"time"
)

type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionIn, DirectionOut:
		return Direction(s), nil
	}
	return "", fmt.Errorf("%w: invalid transaction type %q", ErrInvalidArgument, s)
}

// Inverse returns the direction that undoes a movement in d.
func (d Direction) Inverse() Direction {
	if d == DirectionOut {
		return DirectionIn
	}
	return DirectionOut
}

// Transaction is one ledger entry. Entries are never edited; deleting one
// always goes together with the compensating stock movement.
type Transaction struct {
	ID          int64     `json:"id"`
	ItemID      int64     `json:"item_id"`
	UserID      int64     `json:"user_id"`
	Type        Direction `json:"type"`
	Quantity    int       `json:"quantity"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// TransactionDetail is the v2 view. User and Item are only filled for admins.
type TransactionDetail struct {
	Transaction
	User *UserSummary `json:"user,omitempty"`
	Item *ItemSummary `json:"item,omitempty"`
}

type TransactionRequest struct {
	ItemID         int64
	UserID         int64
	Type           Direction
	Quantity       int
	Description    *string
	IdempotencyKey string
}

// NewTransactionRequest validates a movement before it can reach the workflow.
func NewTransactionRequest(itemID, userID int64, typ string, quantity int, description *string) (TransactionRequest, error) {
	dir, err := ParseDirection(typ)
	if err != nil {
		return TransactionRequest{}, err
	}
	if quantity <= 0 {
		return TransactionRequest{}, invalidArgument("quantity must be a positive integer")
	}
	if itemID <= 0 || userID <= 0 {
		return TransactionRequest{}, invalidArgument("item id and user id must be positive")
	}
	if description != nil && *description == "" {
		description = nil
	}
	return TransactionRequest{
		ItemID:      itemID,
		UserID:      userID,
		Type:        dir,
		Quantity:    quantity,
		Description: description,
	}, nil
}

func (r TransactionRequest) Entry(now time.Time) Transaction {
	return Transaction{
		ItemID:      r.ItemID,
		UserID:      r.UserID,
		Type:        r.Type,
		Quantity:    r.Quantity,
		Description: r.Description,
		CreatedAt:   now,
	}
}
