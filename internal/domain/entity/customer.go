package entity

import "time"

// Customer representa un cliente con saldo de puntos de fidelidad.
type Customer struct {
	ID            string
	CompanyID     string
	Name          string
	Phone         string
	LoyaltyPoints int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
