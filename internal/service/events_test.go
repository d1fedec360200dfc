package service

import (
	"context"
	"testing"

	"grisera/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()
	ch := make(chan Event, 1)
	bus.Subscribe(ch)

	bus.Publish(Event{Type: EventEntityCreated})
	assert.Equal(t, EventEntityCreated, (<-ch).Type)

	// a full subscriber does not block the publisher
	bus.Publish(Event{Type: EventEntityUpdated})
	bus.Publish(Event{Type: EventEntityDeleted})
	assert.Equal(t, EventEntityUpdated, (<-ch).Type)

	bus.Unsubscribe(ch)
	bus.Publish(Event{Type: EventEntityCreated})
	assert.Empty(t, ch)

	var nilBus *EventBus
	assert.NotPanics(t, func() { nilBus.Publish(Event{Type: EventEntityCreated}) })
}

func TestServicesPublishChanges(t *testing.T) {
	eachBackend(t, func(t *testing.T, _ backend, reg *Registry) {
		ctx := context.Background()
		ch := make(chan Event, 8)
		reg.Bus().Subscribe(ch)

		channels := reg.Entity(domain.Channels)
		saved, err := channels.Save(ctx, domain.ChannelIn{Type: "eeg"})
		require.NoError(t, err)
		_, err = channels.UpdateProperties(ctx, saved.ID(), domain.ChannelIn{Type: "emg"})
		require.NoError(t, err)
		_, err = channels.Delete(ctx, saved.ID())
		require.NoError(t, err)

		want := []EventType{EventEntityCreated, EventEntityUpdated, EventEntityDeleted}
		for _, typ := range want {
			ev := <-ch
			assert.Equal(t, typ, ev.Type)
			assert.Equal(t, EntityChange{Collection: domain.Channels, ID: saved.ID()}, ev.Payload)
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		fields map[string]string
	}{
		{
			name: "valid",
			in:   domain.ParticipantIn{Name: "Ann", Sex: "female", DateOfBirth: "1990-04-01"},
		},
		{
			name:   "enum",
			in:     domain.ParticipantIn{Sex: "unknown"},
			fields: map[string]string{"sex": "must be one of: male female not_given"},
		},
		{
			name:   "date",
			in:     domain.ParticipantIn{DateOfBirth: "01/04/1990"},
			fields: map[string]string{"date_of_birth": "must be a date formatted as 2006-01-02"},
		},
		{
			name: "nested property key",
			in: domain.ActivityIn{
				Activity: "reading",
				Extra:    domain.Extra{AdditionalProperties: domain.Properties{{Value: 1}}},
			},
			fields: map[string]string{"additional_properties[0].key": "field required"},
		},
		{
			name: "inline execution",
			in: domain.ScenarioIn{
				ScenarioRelationIn: domain.ScenarioRelationIn{ExperimentID: "1"},
				ActivityExecutions: []domain.ActivityExecutionIn{{}},
			},
			fields: map[string]string{"activity_executions[0].activity_id": "field required"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.in)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			verr := requireValidation(t, err)
			assert.Equal(t, tt.fields, verr.Fields)
		})
	}
}
