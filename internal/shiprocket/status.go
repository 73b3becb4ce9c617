package shiprocket

import "rradiant-backend/internal/orders"

// statusTable is the fixed mapping from partner status codes to order
// lifecycle statuses.
var statusTable = map[string]string{
	"NEW": orders.StatusPending,
	"PKP": orders.StatusProcessing,
	"OFD": orders.StatusShipped,
	"DEL": orders.StatusDelivered,
	"RTO": orders.StatusCancelled,
	"CNF": orders.StatusCancelled,
	"UND": orders.StatusCancelled,
}

// MapStatus translates a partner status code into an order status. Unknown
// codes map to Processing; the mapping is total and never fails.
func MapStatus(code string) string {
	if s, ok := statusTable[code]; ok {
		return s
	}
	return orders.StatusProcessing
}
