package ledger

import "sort"

// typePair is one allowed adjacency in a custody chain.
type typePair struct {
	prev string
	next string
}

// allowedAdjacency is the fixed table of physically plausible consecutive
// event types. A product is produced, transported, warehoused, then retailed;
// any consecutive pair outside this table breaks the chain.
var allowedAdjacency = map[typePair]bool{
	{EventProduced, EventTransport}:  true,
	{EventTransport, EventWarehouse}: true,
	{EventWarehouse, EventRetail}:    true,
}

// custodyTypes are the event types the chain verifier considers. Lifecycle
// events (creation, transfers, status updates) share the ledger but carry no
// physical custody meaning, so they are skipped.
var custodyTypes = map[string]bool{
	EventProduced:  true,
	EventTransport: true,
	EventWarehouse: true,
	EventRetail:    true,
}

// VerifyChain reports whether the custody events form a physically valid
// chain. Events are ordered by timestamp, not id: timestamps are the
// authority for physical ordering, while ids only capture append order.
//
// A single-event history is trivially valid (no pairs to check). The caller
// is responsible for treating an empty history as not-found.
//
// Pure function over its input; safe to call concurrently with writers.
func VerifyChain(events []Event) bool {
	var ordered []Event
	for _, e := range events {
		if custodyTypes[e.Type] {
			ordered = append(ordered, e)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	for i := 1; i < len(ordered); i++ {
		pair := typePair{prev: ordered[i-1].Type, next: ordered[i].Type}
		if !allowedAdjacency[pair] {
			return false
		}
	}
	return true
}
