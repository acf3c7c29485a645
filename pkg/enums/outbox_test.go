package enums

import "testing"

func TestOutboxEventTypesMapToBundleAggregate(t *testing.T) {
	for _, eventType := range OutboxEventTypes() {
		if !eventType.IsValid() {
			t.Fatalf("%s should be valid", eventType)
		}
		if eventType.Aggregate() != AggregateBundle {
			t.Fatalf("%s should belong to the bundle aggregate", eventType)
		}
	}
	if OutboxEventType("order_created").IsValid() {
		t.Fatalf("unknown event type reported valid")
	}
	if OutboxEventType("order_created").Aggregate() != "" {
		t.Fatalf("unknown event type should have no aggregate")
	}
}

func TestDiscountDriverParse(t *testing.T) {
	if d, err := ParseDiscountDriver(""); err != nil || d != DiscountDriverNone {
		t.Fatalf("empty driver should parse as none, got %q %v", d, err)
	}
	if _, err := ParseDiscountDriver("fixed"); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
