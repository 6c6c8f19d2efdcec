package uri

// Provider resolves the static identity of a local entity into full
// UUris. Providers are never stored by transports; they only mint
// addresses on demand.
type Provider interface {
	// ResourceURI returns the URI addressing one of the entity's resources.
	ResourceURI(resourceID uint32) UUri
	// SourceURI returns the entity's identity URI (resource id zero).
	SourceURI() UUri
}

// StaticProvider is a Provider backed by fixed authority, entity and
// version values, constructed once per logical entity.
type StaticProvider struct {
	authority string
	entityID  uint32
	version   uint8
}

// NewStaticProvider builds a provider for the given entity identity.
// The authority must be non-empty.
func NewStaticProvider(authority string, entityID uint32, version uint8) (*StaticProvider, error) {
	p := &StaticProvider{authority: authority, entityID: entityID, version: version}
	if err := p.SourceURI().Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *StaticProvider) ResourceURI(resourceID uint32) UUri {
	return UUri{Authority: p.authority, EntityID: p.entityID, Version: p.version, ResourceID: resourceID}
}

func (p *StaticProvider) SourceURI() UUri {
	return p.ResourceURI(0)
}
