package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"runtime"

	"github.com/pricereg/priceregd/internal/registry"
	"github.com/pricereg/priceregd/internal/types"
)

// registerAllMethods wires every RPC method into the registry.
func (s *Server) registerAllMethods() {
	s.methods.Register("owner", &OwnerMethod{registry: s.registry})
	s.methods.Register("get_price", &GetPriceMethod{registry: s.registry})
	s.methods.Register("initialize", &InitializeMethod{registry: s.registry})
	s.methods.Register("set_price", &SetPriceMethod{registry: s.registry})
	s.methods.Register("set_prices", &SetPricesMethod{registry: s.registry})
	s.methods.Register("server_info", &ServerInfoMethod{server: s})
	s.methods.Register("ping", &PingMethod{})
}

// parseCaller extracts the acting identity from request params. Admin
// clients state who they act as: either "caller" (40-hex account) or
// "caller_contract" (64-hex contract hash).
func parseCaller(callerHex, contractHex string) (registry.Caller, *RpcError) {
	if callerHex != "" && contractHex != "" {
		return registry.Caller{}, RpcErrorInvalidParams("Specify either caller or caller_contract, not both")
	}

	if contractHex != "" {
		b, err := hex.DecodeString(contractHex)
		if err != nil || len(b) != 32 {
			return registry.Caller{}, RpcErrorInvalidField("caller_contract")
		}
		var id [32]byte
		copy(id[:], b)
		return registry.ContractCaller(id), nil
	}

	if callerHex == "" {
		return registry.Caller{}, RpcErrorMissingField("caller")
	}

	addr, err := types.AccountIDFromHex(callerHex)
	if err != nil {
		return registry.Caller{}, RpcErrorInvalidField("caller")
	}
	return registry.AddressCaller(addr), nil
}

// mapRegistryError translates registry errors into RPC errors.
func mapRegistryError(err error) *RpcError {
	switch {
	case registry.IsAbort(err):
		return RpcErrorInternal("Aborted: " + err.Error())
	case errors.Is(err, registry.ErrOwnerAlreadyInitialized):
		return RpcErrorAlreadyInitialized(err.Error())
	case errors.Is(err, registry.ErrAccessDenied):
		return RpcErrorAccessDenied(err.Error())
	default:
		return RpcErrorInternal(err.Error())
	}
}

// OwnerMethod handles the owner RPC method.
type OwnerMethod struct {
	registry *registry.Registry
}

func (m *OwnerMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	owner, err := m.registry.Owner()
	if err != nil {
		return nil, mapRegistryError(err)
	}

	addr, _ := owner.Address()
	return map[string]interface{}{
		"owner":       addr.String(),
		"initialized": !addr.IsSentinel(),
	}, nil
}

func (m *OwnerMethod) RequiredRole() Role {
	return RoleGuest
}

func (m *OwnerMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1}
}

// GetPriceMethod handles the get_price RPC method.
type GetPriceMethod struct {
	registry *registry.Registry
}

func (m *GetPriceMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var request struct {
		Asset string `json:"asset"`
	}

	if params != nil {
		if err := json.Unmarshal(params, &request); err != nil {
			return nil, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}

	if request.Asset == "" {
		return nil, RpcErrorMissingField("asset")
	}

	asset, err := types.AssetIDFromString(request.Asset)
	if err != nil {
		return nil, RpcErrorInvalidField("asset")
	}

	rec, err := m.registry.GetPrice(asset)
	if err != nil {
		return nil, mapRegistryError(err)
	}
	if rec == nil {
		return nil, RpcErrorObjectNotFound("No price recorded for asset " + request.Asset)
	}

	return map[string]interface{}{
		"record": recordToJSON(rec),
	}, nil
}

func (m *GetPriceMethod) RequiredRole() Role {
	return RoleGuest
}

func (m *GetPriceMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1}
}

// InitializeMethod handles the initialize RPC method (admin only).
type InitializeMethod struct {
	registry *registry.Registry
}

func (m *InitializeMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var request struct {
		Owner string `json:"owner"`
	}

	if params != nil {
		if err := json.Unmarshal(params, &request); err != nil {
			return nil, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}

	if request.Owner == "" {
		return nil, RpcErrorMissingField("owner")
	}

	owner, err := types.AccountIDFromHex(request.Owner)
	if err != nil {
		return nil, RpcErrorInvalidField("owner")
	}

	if err := m.registry.Initialize(owner); err != nil {
		return nil, mapRegistryError(err)
	}

	return map[string]interface{}{
		"owner": owner.String(),
	}, nil
}

func (m *InitializeMethod) RequiredRole() Role {
	return RoleAdmin
}

func (m *InitializeMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1}
}

// SetPriceMethod handles the set_price RPC method (admin only).
type SetPriceMethod struct {
	registry *registry.Registry
}

func (m *SetPriceMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var request struct {
		Caller         string  `json:"caller,omitempty"`
		CallerContract string  `json:"caller_contract,omitempty"`
		Asset          string  `json:"asset"`
		Price          *uint64 `json:"price"`
	}

	if params != nil {
		if err := json.Unmarshal(params, &request); err != nil {
			return nil, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}

	caller, rpcErr := parseCaller(request.Caller, request.CallerContract)
	if rpcErr != nil {
		return nil, rpcErr
	}

	if request.Asset == "" {
		return nil, RpcErrorMissingField("asset")
	}
	asset, err := types.AssetIDFromString(request.Asset)
	if err != nil {
		return nil, RpcErrorInvalidField("asset")
	}

	if request.Price == nil {
		return nil, RpcErrorMissingField("price")
	}

	if err := m.registry.SetPrice(caller, asset, *request.Price); err != nil {
		return nil, mapRegistryError(err)
	}

	rec, err := m.registry.GetPrice(asset)
	if err != nil || rec == nil {
		return nil, RpcErrorInternal("Failed to read back stored record")
	}

	return map[string]interface{}{
		"record": recordToJSON(rec),
	}, nil
}

func (m *SetPriceMethod) RequiredRole() Role {
	return RoleAdmin
}

func (m *SetPriceMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1}
}

// SetPricesMethod handles the set_prices batch RPC method (admin only).
type SetPricesMethod struct {
	registry *registry.Registry
}

func (m *SetPricesMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var request struct {
		Caller         string `json:"caller,omitempty"`
		CallerContract string `json:"caller_contract,omitempty"`
		Prices         []struct {
			Asset string  `json:"asset"`
			Price *uint64 `json:"price"`
		} `json:"prices"`
	}

	if params != nil {
		if err := json.Unmarshal(params, &request); err != nil {
			return nil, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}

	caller, rpcErr := parseCaller(request.Caller, request.CallerContract)
	if rpcErr != nil {
		return nil, rpcErr
	}

	pairs := make([]registry.PricePair, 0, len(request.Prices))
	for _, entry := range request.Prices {
		if entry.Asset == "" {
			return nil, RpcErrorMissingField("asset")
		}
		asset, err := types.AssetIDFromString(entry.Asset)
		if err != nil {
			return nil, RpcErrorInvalidField("asset")
		}
		if entry.Price == nil {
			return nil, RpcErrorMissingField("price")
		}
		pairs = append(pairs, registry.PricePair{Asset: asset, Price: *entry.Price})
	}

	if err := m.registry.SetPrices(caller, pairs); err != nil {
		return nil, mapRegistryError(err)
	}

	return map[string]interface{}{
		"applied": len(pairs),
	}, nil
}

func (m *SetPricesMethod) RequiredRole() Role {
	return RoleAdmin
}

func (m *SetPricesMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1}
}

// ServerInfoMethod handles the server_info RPC method.
type ServerInfoMethod struct {
	server *Server
}

func (m *ServerInfoMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	owner, err := m.server.registry.Owner()
	if err != nil {
		return nil, mapRegistryError(err)
	}
	addr, _ := owner.Address()

	info := map[string]interface{}{
		"build_version": Version,
		"initialized":   !addr.IsSentinel(),
		"methods":       m.server.methods.List(),
		"go_routines":   runtime.NumGoroutine(),
	}
	if ctx.IsAdmin {
		info["owner"] = addr.String()
	}

	return map[string]interface{}{
		"info": info,
	}, nil
}

func (m *ServerInfoMethod) RequiredRole() Role {
	return RoleGuest
}

func (m *ServerInfoMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1}
}

// PingMethod handles the ping RPC method.
type PingMethod struct{}

func (m *PingMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	result := map[string]interface{}{}
	if ctx.Role == RoleAdmin {
		result["role"] = "admin"
	}
	return result, nil
}

func (m *PingMethod) RequiredRole() Role {
	return RoleGuest
}

func (m *PingMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1}
}

// Version is the reported build version.
const Version = "0.1.0-priceregd"
