package ledger

// gasometer decides the gas budget for send calls.
type gasometer struct {
	limit uint64
}

// CalculateGas pads the configured limit so confirmation-time repricing on
// the ledger side does not starve the send call.
func (g gasometer) CalculateGas() uint64 {
	limit := g.limit
	if limit == 0 {
		limit = DefaultGasLimit
	}
	return limit * 5 / 4
}
