package gopher

import (
	"log/slog"

	"github.com/raskyld/rower/pkg/buffer"
)

// Entity is one line of a Gopher directory.
type Entity struct {
	Type EntityType
	// DisplayName is what RFC 1436 calls the User_Name.
	DisplayName buffer.TextView
	Selector    buffer.TextView
	Host        buffer.TextView
	Port        int

	// Prefetched holds the payload of image-like entities, fetched while the
	// menu was parsed. It is the canonical empty buffer otherwise.
	Prefetched buffer.ByteBuffer
}

// NewEntity builds an entity owning copies of the given fields.
func NewEntity(typ EntityType, displayName, selector, host string, port int) Entity {
	return Entity{
		Type:        typ,
		DisplayName: buffer.NewTextView(displayName),
		Selector:    buffer.NewTextView(selector),
		Host:        buffer.NewTextView(host),
		Port:        port,
	}
}

// Description is the human-readable name of the entity type.
func (e *Entity) Description() string {
	return e.Type.Description()
}

// Locator returns the address to follow this entity.
func (e *Entity) Locator() Locator {
	return Locator{
		Host:     e.Host.String(),
		Port:     e.Port,
		Type:     e.Type,
		Selector: e.Selector.String(),
	}
}

// SearchSelector returns the selector to send to an index server for query.
func (e *Entity) SearchSelector(query string) string {
	return SearchSelector(e.Selector.String(), query)
}

// SearchSelector joins an index server selector and a query.
func SearchSelector(selector, query string) string {
	sb := buffer.NewTextBuilderWithContents(selector)
	sb.AppendChar('\t')
	sb.AppendContents(query)
	return sb.String()
}

// Release drops every field the entity owns.
func (e *Entity) Release() {
	e.DisplayName.Release()
	e.Selector.Release()
	e.Host.Release()
	e.Prefetched.Release()
}

func (e *Entity) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", e.Type.String()),
		slog.String("display", e.DisplayName.String()),
		slog.String("selector", e.Selector.String()),
		slog.String("host", e.Host.String()),
		slog.Int("port", e.Port),
	)
}
