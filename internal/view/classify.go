package view

import (
	"fmt"

	"inventory/internal/domain"
)

// Thresholds границы для меток остатка и срока годности.
//
//	stock < LowStock                 Low
//	LowStock <= stock <= HighStock   Medium
//	stock > HighStock                High
//
// Срок годности так же размечается по UrgentDays и WarningDays.
type Thresholds struct {
	LowStock    int64 `json:"lowStock" yaml:"low_stock"`
	HighStock   int64 `json:"highStock" yaml:"high_stock"`
	UrgentDays  int   `json:"urgentDays" yaml:"urgent_days"`
	WarningDays int   `json:"warningDays" yaml:"warning_days"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{LowStock: 5, HighStock: 10, UrgentDays: 7, WarningDays: 14}
}

type StockLevel string

const (
	StockLow    StockLevel = "low"
	StockMedium StockLevel = "medium"
	StockHigh   StockLevel = "high"
)

func ClassifyStock(stock int64, t Thresholds) StockLevel {
	switch {
	case stock < t.LowStock:
		return StockLow
	case stock <= t.HighStock:
		return StockMedium
	}
	return StockHigh
}

type Urgency string

const (
	UrgencyNone    Urgency = "none"
	UrgencyUrgent  Urgency = "urgent"
	UrgencyWarning Urgency = "warning"
	UrgencySafe    Urgency = "safe"
)

// ExpiryTag метка близости срока годности. DaysLeft равен nil у товаров
// без даты и отрицателен, когда срок прошёл.
type ExpiryTag struct {
	Urgency  Urgency `json:"urgency"`
	DaysLeft *int    `json:"daysLeft,omitempty"`
	Note     string  `json:"note,omitempty"`
}

func ClassifyExpiry(exp *domain.Date, today domain.Date, t Thresholds) ExpiryTag {
	if exp == nil {
		return ExpiryTag{Urgency: UrgencyNone}
	}
	days := today.DaysUntil(*exp)
	tag := ExpiryTag{DaysLeft: &days}
	switch {
	case days < t.UrgentDays:
		tag.Urgency = UrgencyUrgent
	case days <= t.WarningDays:
		tag.Urgency = UrgencyWarning
		tag.Note = fmt.Sprintf("(expiring in %d days)", days)
	default:
		tag.Urgency = UrgencySafe
	}
	return tag
}
