// Package events publishes catalog change notifications to the configured
// brokers and search index.
package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"catalog/internal/model"
)

// Type identifies what happened to which entity.
type Type string

const (
	CategoryCreated Type = "category.created"
	CategoryUpdated Type = "category.updated"
	CategoryDeleted Type = "category.deleted"
	ProductCreated  Type = "product.created"
	ProductUpdated  Type = "product.updated"
	ProductDeleted  Type = "product.deleted"
)

// Entity returns the entity part of t, e.g. "product".
func (t Type) Entity() string {
	entity, _, _ := strings.Cut(string(t), ".")
	return entity
}

// Event is a single catalog change.
type Event struct {
	Type       Type        `json:"type"`
	Entity     string      `json:"entity"`
	ID         uint        `json:"id"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload,omitempty"`
}

// New builds an event stamped with the current time.
func New(t Type, id uint, payload interface{}) Event {
	return Event{
		Type:       t,
		Entity:     t.Entity(),
		ID:         id,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// ProductDocument is the product snapshot carried by product events and
// stored in the search index.
type ProductDocument struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        string    `json:"price"`
	Stock        int       `json:"stock"`
	StockStatus  string    `json:"stock_status"`
	CategoryID   uint      `json:"category_id"`
	CategoryName string    `json:"category_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProductSnapshot builds the document for p.
func ProductSnapshot(p *model.Product) ProductDocument {
	return ProductDocument{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price.StringFixed(2),
		Stock:        p.Stock,
		StockStatus:  p.StockStatus(),
		CategoryID:   p.CategoryID,
		CategoryName: p.Category.Name,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// CategoryPayload is carried by category events. ProductIDs lists the
// products removed along with a deleted category.
type CategoryPayload struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ProductIDs  []uint `json:"product_ids,omitempty"`
}

// Publisher delivers events to one destination.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
