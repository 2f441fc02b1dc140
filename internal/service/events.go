package service

import "github.com/google/uuid"

const EventCatalogUpdate = "catalog_update"

const (
	EntityAttribute = "attribute"
	EntityCategory  = "category"
	EntityItem      = "item"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Event describes a committed catalog change.
type Event struct {
	Type   string    `json:"type"`
	Entity string    `json:"entity"`
	Action string    `json:"action"`
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	User   string    `json:"user"`
}

// Publisher fans catalog events out to listeners. Publish must not block.
type Publisher interface {
	Publish(event Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(Event) {}

// NopPublisher discards every event.
var NopPublisher Publisher = nopPublisher{}

func catalogEvent(entity, action string, id uuid.UUID, name, actor string) Event {
	return Event{
		Type:   EventCatalogUpdate,
		Entity: entity,
		Action: action,
		ID:     id,
		Name:   name,
		User:   actor,
	}
}
