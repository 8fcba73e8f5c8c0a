package types

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

type (
	cborHandler struct {
		encMode cbor.EncMode
		decMode cbor.DecMode
	}

	// RawCBOR is a CBOR encoded value which is decoded lazily (ie contract parameters).
	RawCBOR = cbor.RawMessage
)

// upper bound of the array length and map size accepted from the wire
const maxDecodedItems = 1 << 20

// Cbor is the deterministic encoder/decoder used for all persisted records and
// for the canonical transaction byte representation the bandwidth is charged for.
var Cbor = newCborHandler()

func newCborHandler() cborHandler {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Errorf("creating CBOR encoder: %w", err))
	}
	dec, err := cbor.DecOptions{MaxArrayElements: maxDecodedItems, MaxMapPairs: maxDecodedItems}.DecMode()
	if err != nil {
		panic(fmt.Errorf("creating CBOR decoder: %w", err))
	}
	return cborHandler{encMode: enc, decMode: dec}
}

func (c cborHandler) Marshal(v any) ([]byte, error) {
	return c.encMode.Marshal(v)
}

func (c cborHandler) Unmarshal(data []byte, v any) error {
	return c.decMode.Unmarshal(data, v)
}
