// Package rpc implements the HTTP JSON-RPC surface of the price registry.
// Requests use the single-object-params envelope
// {"method": "...", "params": [{...}]} and responses carry a result object
// with a "status" field.
package rpc

import (
	"context"
	"encoding/json"

	"github.com/pricereg/priceregd/internal/registry"
)

// API version constants.
const (
	ApiVersion1 = 1

	DefaultApiVersion = ApiVersion1
)

// Role is the access level resolved from the transport.
type Role int

const (
	RoleGuest Role = iota
	RoleAdmin
)

// RpcContext contains request-specific information. The transport resolves
// the caller identity before the handler runs: admin clients act through
// the Caller they present in params, guests have no caller at all.
type RpcContext struct {
	Context    context.Context
	Role       Role
	ApiVersion int
	IsAdmin    bool
	ClientIP   string
}

// MethodHandler is implemented by all RPC methods.
type MethodHandler interface {
	Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError)
	RequiredRole() Role
	SupportedApiVersions() []int
}

// MethodRegistry maps method names to handlers.
type MethodRegistry struct {
	methods map[string]MethodHandler
}

func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{
		methods: make(map[string]MethodHandler),
	}
}

func (r *MethodRegistry) Register(name string, handler MethodHandler) {
	r.methods[name] = handler
}

func (r *MethodRegistry) Get(name string) (MethodHandler, bool) {
	handler, exists := r.methods[name]
	return handler, exists
}

func (r *MethodRegistry) List() []string {
	methods := make([]string, 0, len(r.methods))
	for name := range r.methods {
		methods = append(methods, name)
	}
	return methods
}

// PriceRecordJSON is the wire shape of a stored price record.
type PriceRecordJSON struct {
	Asset      string `json:"asset"`
	Price      uint64 `json:"price"`
	LastUpdate uint64 `json:"last_update"`
}

func recordToJSON(rec *registry.PriceRecord) PriceRecordJSON {
	return PriceRecordJSON{
		Asset:      rec.Asset.String(),
		Price:      rec.Price,
		LastUpdate: rec.LastUpdate,
	}
}
