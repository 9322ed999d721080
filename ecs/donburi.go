// Package ecs provides ECS adapters for vesper.
package ecs

import (
	"github.com/vesperengine/vesper"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// InteractionEventType is the Donburi event type for vesper interaction events.
// Subscribe to this in your ECS systems to receive pointer, drag, and pinch events.
var InteractionEventType = events.NewEventType[vesper.InteractionEvent]()

type donburiStore struct {
	world donburi.World
}

// NewDonburiStore creates an EntityStore backed by a Donburi world.
// Interaction events are published to InteractionEventType and can be
// consumed with events.Subscribe and ProcessEvents.
func NewDonburiStore(world donburi.World) vesper.EntityStore {
	return &donburiStore{world: world}
}

func (s *donburiStore) EmitEvent(event vesper.InteractionEvent) {
	InteractionEventType.Publish(s.world, event)
}
