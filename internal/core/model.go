package core

import (
	"fmt"
	"strings"
)

// Unit is the measurement unit a StockRecord is kept in.
type Unit string

const (
	UnitPieces Unit = "pcs"
	UnitKg     Unit = "kg"
	UnitLitre  Unit = "litre"
	UnitTrays  Unit = "trays"
)

var unitAliases = map[string]Unit{
	"pcs":       UnitPieces,
	"pc":        UnitPieces,
	"piece":     UnitPieces,
	"pieces":    UnitPieces,
	"kg":        UnitKg,
	"kgs":       UnitKg,
	"kilogram":  UnitKg,
	"kilograms": UnitKg,
	"l":         UnitLitre,
	"litre":     UnitLitre,
	"litres":    UnitLitre,
	"liter":     UnitLitre,
	"liters":    UnitLitre,
	"tray":      UnitTrays,
	"trays":     UnitTrays,
}

// ParseUnit normalises user input to one of the canonical units.
func ParseUnit(s string) (Unit, error) {
	u, ok := unitAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: unit %q must be one of pcs, kg, litre, trays", ErrInvalidInput, s)
	}
	return u, nil
}

// Priority of a replenishment order.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority accepts the four priorities case-insensitively. Empty input means medium.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PriorityMedium, nil
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return p, nil
	default:
		return "", fmt.Errorf("%w: priority %q must be one of low, medium, high, urgent", ErrInvalidInput, s)
	}
}

// OrderStatus is the lifecycle state of an Order.
//
//	pending → approved → delivered
//	pending → cancelled
//	approved → cancelled
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusApproved  OrderStatus = "approved"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:  {StatusApproved, StatusCancelled},
	StatusApproved: {StatusDelivered, StatusCancelled},
}

// ParseOrderStatus validates a status string.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusApproved, StatusDelivered, StatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown order status %q", ErrInvalidInput, s)
	}
}

// CanTransition reports whether an order may move from one status to another.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s OrderStatus) Terminal() bool {
	return len(transitions[s]) == 0
}
