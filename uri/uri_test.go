package uri

import (
	"errors"
	"testing"
)

func TestUUriString(t *testing.T) {
	u := UUri{Authority: "veh", EntityID: 0xA34B, Version: 0x01, ResourceID: 0x8001}
	want := "//veh/A34B/1/8001"
	if got := u.String(); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestUUriValidate(t *testing.T) {
	u := UUri{Authority: "veh", EntityID: 1, Version: 1, ResourceID: 1}
	if err := u.Validate(); err != nil {
		t.Fatalf("valid uri rejected: %v", err)
	}
	u.Authority = ""
	err := u.Validate()
	if !errors.Is(err, ErrInvalidURI) {
		t.Fatalf("expected ErrInvalidURI, got %v", err)
	}
}

func TestUUriStructuralEquality(t *testing.T) {
	a := UUri{Authority: "veh", EntityID: 0xA34B, Version: 0x01, ResourceID: 0x8001}
	b := UUri{Authority: "veh", EntityID: 0xA34B, Version: 0x01, ResourceID: 0x8001}
	if a != b {
		t.Fatal("equal uris must compare equal")
	}
	seen := map[UUri]int{a: 1}
	if seen[b] != 1 {
		t.Fatal("equal uris must collide as map keys")
	}
	b.ResourceID = 0x8002
	if a == b {
		t.Fatal("distinct resources must not compare equal")
	}
}

func TestStaticProvider(t *testing.T) {
	p, err := NewStaticProvider("veh", 0xA34B, 0x01)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	topic := p.ResourceURI(0x8001)
	want := UUri{Authority: "veh", EntityID: 0xA34B, Version: 0x01, ResourceID: 0x8001}
	if topic != want {
		t.Fatalf("expected %v, got %v", want, topic)
	}
	src := p.SourceURI()
	if src.ResourceID != 0 {
		t.Fatalf("source uri must carry resource id 0, got %#x", src.ResourceID)
	}
	if src.Authority != "veh" || src.EntityID != 0xA34B || src.Version != 0x01 {
		t.Fatalf("source uri lost identity fields: %v", src)
	}
}

func TestStaticProviderEmptyAuthority(t *testing.T) {
	if _, err := NewStaticProvider("", 1, 1); !errors.Is(err, ErrInvalidURI) {
		t.Fatalf("expected ErrInvalidURI, got %v", err)
	}
}
