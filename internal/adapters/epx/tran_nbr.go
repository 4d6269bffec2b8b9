package epx

import (
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"
)

// TranNbr derives EPX's numeric TRAN_NBR (max 10 digits) from an order ID.
// FNV-1a 32-bit keeps it deterministic: the same order always maps to the same
// number. UUID order IDs hash their 16 raw bytes, anything else its text.
func TranNbr(orderID string) string {
	h := fnv.New32a()
	if id, err := uuid.Parse(orderID); err == nil {
		h.Write(id[:])
	} else {
		h.Write([]byte(orderID))
	}
	// uint32 max is 4,294,967,295 (10 digits)
	return fmt.Sprintf("%d", h.Sum32())
}
