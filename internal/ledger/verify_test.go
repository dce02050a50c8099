package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	id "tracelink/pkg/domain"
)

func chain(types ...string) []Event {
	product := id.NewProductID()
	events := make([]Event, 0, len(types))
	for i, t := range types {
		events = append(events, Event{
			ID:        uint64(i),
			Timestamp: time.Date(2026, 1, 1, 0, i, 0, 0, time.UTC),
			ProductID: product,
			Type:      t,
		})
	}
	return events
}

func TestVerifyChain(t *testing.T) {
	tests := []struct {
		name  string
		types []string
		want  bool
	}{
		{"full chain", []string{EventProduced, EventTransport, EventWarehouse, EventRetail}, true},
		{"partial chain", []string{EventProduced, EventTransport}, true},
		{"single event", []string{EventProduced}, true},
		{"empty history", nil, true},
		{"skipped transport", []string{EventProduced, EventWarehouse}, false},
		{"reversed", []string{EventTransport, EventProduced}, false},
		{"repeated produced", []string{EventProduced, EventProduced}, false},
		{"retail before warehouse", []string{EventProduced, EventTransport, EventRetail}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifyChain(chain(tt.types...)))
		})
	}
}

func TestVerifyChainOrdersByTimestamp(t *testing.T) {
	product := id.NewProductID()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	// Appended out of physical order: ids say transport first, timestamps
	// say produced first.
	events := []Event{
		{ID: 0, Timestamp: base.Add(time.Hour), ProductID: product, Type: EventTransport},
		{ID: 1, Timestamp: base, ProductID: product, Type: EventProduced},
	}
	assert.True(t, VerifyChain(events))
}

func TestVerifyChainSkipsLifecycleEvents(t *testing.T) {
	product := id.NewProductID()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []Event{
		{ID: 0, Timestamp: base, ProductID: product, Type: EventProductCreated},
		{ID: 1, Timestamp: base.Add(time.Minute), ProductID: product, Type: EventProduced},
		{ID: 2, Timestamp: base.Add(2 * time.Minute), ProductID: product, Type: EventProductTransferred},
		{ID: 3, Timestamp: base.Add(3 * time.Minute), ProductID: product, Type: EventTransport},
	}
	assert.True(t, VerifyChain(events))
}
