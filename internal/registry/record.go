package registry

import (
	"fmt"

	"github.com/ugorji/go/codec"

	"github.com/pricereg/priceregd/internal/types"
)

// PriceRecord is the stored quote for one asset. LastUpdate is assigned by
// the registry from its clock at write time; callers cannot set it.
type PriceRecord struct {
	Asset      types.AssetID `codec:"asset"`
	Price      uint64        `codec:"price"`
	LastUpdate uint64        `codec:"last_update"`
}

// PricePair is one (asset, price) entry of a batch write.
type PricePair struct {
	Asset types.AssetID
	Price uint64
}

// Storage key layout. State keys carry the "s/" prefix, per-asset price
// records the "p/" prefix followed by the raw asset bytes.
var ownerKey = []byte("s/owner")

func priceKey(asset types.AssetID) []byte {
	key := make([]byte, 2+len(asset))
	copy(key, "p/")
	copy(key[2:], asset[:])
	return key
}

var cborHandle codec.CborHandle

// encodeRecord serializes a price record to CBOR.
func encodeRecord(rec *PriceRecord) ([]byte, error) {
	var buf []byte
	enc := codec.NewEncoderBytes(&buf, &cborHandle)
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("failed to encode price record: %w", err)
	}
	return buf, nil
}

// decodeRecord deserializes a CBOR price record.
func decodeRecord(data []byte) (*PriceRecord, error) {
	var rec PriceRecord
	dec := codec.NewDecoderBytes(data, &cborHandle)
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode price record: %w", err)
	}
	return &rec, nil
}
