package enums

// OutboxAggregateType mirrors aggregate_type_enum.
type OutboxAggregateType string

const (
	AggregateBundle OutboxAggregateType = "bundle"
)

// IsValid reports whether the value is a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	return a == AggregateBundle
}

// OutboxEventType mirrors event_type_enum.
type OutboxEventType string

const (
	EventBundleSaved   OutboxEventType = "bundle_saved"
	EventBundleDeleted OutboxEventType = "bundle_deleted"
)

// aggregate each event type is emitted for
var eventAggregates = map[OutboxEventType]OutboxAggregateType{
	EventBundleSaved:   AggregateBundle,
	EventBundleDeleted: AggregateBundle,
}

// OutboxEventTypes lists every event type in emission order.
func OutboxEventTypes() []OutboxEventType {
	return []OutboxEventType{EventBundleSaved, EventBundleDeleted}
}

// IsValid reports whether the value is a known event type.
func (e OutboxEventType) IsValid() bool {
	_, ok := eventAggregates[e]
	return ok
}

// Aggregate returns the aggregate type the event belongs to, or "" when the
// event type is unknown.
func (e OutboxEventType) Aggregate() OutboxAggregateType {
	return eventAggregates[e]
}
