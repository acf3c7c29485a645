package instance

import "testing"

func TestGetIDPrefersExplicitInstance(t *testing.T) {
	t.Setenv("CRAFTBUNDLE_INSTANCE_ID", "publisher-2")
	t.Setenv("DYNO", "web.1")
	if got := GetID("local"); got != "publisher-2" {
		t.Fatalf("expected explicit id, got %q", got)
	}
}

func TestGetIDFallsBack(t *testing.T) {
	for _, key := range idEnvVars {
		t.Setenv(key, "")
	}
	if got := GetID("local"); got != "local" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
