package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Waiter struct {
	ID             uuid.UUID
	FirstName      string
	LastName       string
	Email          string
	HashedPassword string
	Role           string
	PushToken      pgtype.Text
	CreatedAt      time.Time
}

type Product struct {
	ID          uuid.UUID
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	ImageUrl    string
	Category    pgtype.Text
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type StockItem struct {
	ID           uuid.UUID
	ProductID    uuid.UUID
	CurrentStock int32
	MinStock     int32
	MaxStock     int32
	Unit         string
	LastUpdated  time.Time
}

type Table struct {
	ID          uuid.UUID
	TableNumber int32
	Name        pgtype.Text
	GroupID     pgtype.UUID
	CreatedAt   time.Time
}

type Order struct {
	ID              uuid.UUID
	TableID         uuid.UUID
	WaiterID        pgtype.UUID
	Status          string
	Note            pgtype.Text
	IsBillRequested bool
	TotalAmount     pgtype.Numeric
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int32
	Price     pgtype.Numeric
}
