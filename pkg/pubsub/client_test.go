package pubsub

import (
	"testing"

	"github.com/craftmarket/bundles-backend/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	cases := []struct {
		project, name, want string
	}{
		{"craft-dev", "bundle-events", "projects/craft-dev/topics/bundle-events"},
		{"craft-dev", " bundle-events ", "projects/craft-dev/topics/bundle-events"},
		{"ignored", "projects/other/topics/bundle-events", "projects/other/topics/bundle-events"},
		{"", "bundle-events", ""},
		{"craft-dev", "", ""},
	}
	for _, tc := range cases {
		if got := TopicResourceName(tc.project, tc.name); got != tc.want {
			t.Fatalf("TopicResourceName(%q, %q) = %q, want %q", tc.project, tc.name, got, tc.want)
		}
	}
}

func TestClientOptionsSelection(t *testing.T) {
	if opts := clientOptions(config.GCPConfig{}); len(opts) != 0 {
		t.Fatalf("expected ADC with no options, got %d", len(opts))
	}
	if opts := clientOptions(config.GCPConfig{CredentialsJSON: `{"type":"service_account"}`}); len(opts) != 1 {
		t.Fatalf("expected inline credentials option")
	}
	if opts := clientOptions(config.GCPConfig{ApplicationCredentials: "/secrets/sa.json"}); len(opts) != 1 {
		t.Fatalf("expected credentials file option")
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	if c.Publisher("bundle-events") != nil {
		t.Fatalf("expected nil publisher from nil client")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close on nil client: %v", err)
	}
	if err := c.Ping(t.Context()); err == nil {
		t.Fatalf("expected ping error on nil client")
	}
}
