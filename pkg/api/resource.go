package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// Operation identifies a remote operation a resource may support.
type Operation string

const (
	// OperationFetch retrieves the server representation of a resource (GET).
	OperationFetch Operation = "fetch"

	// OperationCreate submits a new resource to the server (POST).
	OperationCreate Operation = "create"
)

// identifierFieldName is the wire name of the field that holds a resource's
// server-assigned identifier.
const identifierFieldName = "id"

// Resource describes one addressable entity of the platform API: its path,
// the operations it supports, and the ordered set of fields the server
// representation carries. Behavior differences between resources are plain
// data here, not subtypes.
type Resource struct {
	name         string
	pathTemplate string
	operations   map[Operation]bool
	fields       []FieldSlot
	fieldIndex   map[string]FieldSlot
	idSlot       FieldSlot
	manager      *ResourceManager
}

// NewResource builds a resource bound to transport. Fields keep their given
// order; the first field named "id" becomes the identifier slot that gates
// creation and reloading.
func NewResource(transport *Transport, name, pathTemplate string, operations []Operation, fields []FieldSlot) *Resource {
	r := &Resource{
		name:         name,
		pathTemplate: pathTemplate,
		operations:   make(map[Operation]bool, len(operations)),
		fields:       fields,
		fieldIndex:   make(map[string]FieldSlot, len(fields)),
	}
	for _, op := range operations {
		r.operations[op] = true
	}
	for _, f := range fields {
		r.fieldIndex[f.Name()] = f
		if r.idSlot == nil && f.Name() == identifierFieldName {
			r.idSlot = f
		}
	}
	r.manager = newResourceManager(transport, r)
	return r
}

// Name returns the resource name used in error context.
func (r *Resource) Name() string {
	return r.name
}

// PathTemplate returns the request path of the resource collection.
func (r *Resource) PathTemplate() string {
	return r.pathTemplate
}

// Supports reports whether the resource allows op.
func (r *Resource) Supports(op Operation) bool {
	return r.operations[op]
}

// Fields returns the resource fields in declaration order.
func (r *Resource) Fields() []FieldSlot {
	out := make([]FieldSlot, len(r.fields))
	copy(out, r.fields)
	return out
}

// Field returns the field with the given wire name, or nil.
func (r *Resource) Field(name string) FieldSlot {
	return r.fieldIndex[name]
}

// Manager returns the manager that drives this resource's remote lifecycle.
func (r *Resource) Manager() *ResourceManager {
	return r.manager
}

// Reload refetches the resource using its stored identifier and replaces all
// field values with the fresh server representation. A resource without an
// identifier field cannot be reloaded and yields a state error. A resource
// whose identifier is absent or empty has nothing to refetch; the call logs a
// warning and returns nil without touching the network.
func (r *Resource) Reload(ctx context.Context) error {
	if r.idSlot == nil {
		return NewStateError("resource does not have an id field", nil).WithResource(r.name)
	}
	id, ok := identifierString(r.idSlot)
	if !ok {
		r.manager.transport.logger.Warn().
			Str("resource", r.name).
			Msg("Could not reload resource data")
		return nil
	}
	return r.manager.Get(ctx, id)
}

// identifierString renders an identifier slot as a path segment. It reports
// false for slots that are absent or hold an empty or zero value, which
// matches the treatment of unset identifiers throughout the package.
func identifierString(slot FieldSlot) (string, bool) {
	if slot == nil || !slot.HasValue() {
		return "", false
	}
	switch v := slot.Raw().(type) {
	case string:
		return v, v != ""
	case int:
		return strconv.Itoa(v), v != 0
	case int64:
		return strconv.FormatInt(v, 10), v != 0
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), v != 0
	case json.Number:
		return v.String(), v.String() != "" && v.String() != "0"
	default:
		s := fmt.Sprint(v)
		return s, s != ""
	}
}
