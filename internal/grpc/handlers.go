package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pricereg/priceregd/internal/types"
)

// GetPriceRequest asks for the stored record of one asset.
type GetPriceRequest struct {
	// Asset is a symbolic code ("BTCUSD") or 40-character hex handle.
	Asset string
}

// GetPriceResponse carries the stored record.
type GetPriceResponse struct {
	Asset      string
	Price      uint64
	LastUpdate uint64
}

// GetPrice retrieves the price record for an asset.
func (s *Server) GetPrice(ctx context.Context, req *GetPriceRequest) (*GetPriceResponse, error) {
	if s.registry == nil {
		return nil, status.Error(codes.Internal, "registry not available")
	}
	if req == nil || req.Asset == "" {
		return nil, status.Error(codes.InvalidArgument, "asset is required")
	}

	asset, err := types.AssetIDFromString(req.Asset)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid asset: "+err.Error())
	}

	rec, err := s.registry.GetPrice(asset)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	if rec == nil {
		return nil, status.Error(codes.NotFound, "no price recorded for asset "+req.Asset)
	}

	return &GetPriceResponse{
		Asset:      rec.Asset.String(),
		Price:      rec.Price,
		LastUpdate: rec.LastUpdate,
	}, nil
}

// OwnerRequest asks for the registry owner.
type OwnerRequest struct{}

// OwnerResponse carries the current owner. Initialized is false while the
// owner is still the sentinel account.
type OwnerResponse struct {
	Owner       string
	Initialized bool
}

// Owner reports the current registry owner.
func (s *Server) Owner(ctx context.Context, req *OwnerRequest) (*OwnerResponse, error) {
	if s.registry == nil {
		return nil, status.Error(codes.Internal, "registry not available")
	}

	owner, err := s.registry.Owner()
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	addr, _ := owner.Address()
	return &OwnerResponse{
		Owner:       addr.String(),
		Initialized: !addr.IsSentinel(),
	}, nil
}
