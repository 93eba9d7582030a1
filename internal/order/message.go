package order

import (
	"errors"

	"github.com/rickgao/market-sync/internal/api"
)

// ErrorMessage renders a submission failure for display. The engine's detail
// text is preferred when present.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return "Error: " + ve.Message
	}

	var te *api.TransportError
	if errors.As(err, &te) {
		switch {
		case te.Detail != "":
			return "Error: " + te.Detail
		case te.StatusCode == 0:
			return "Error: Failed to submit order (backend unreachable)"
		}
		return "Error: Failed to submit order (" + te.Message + ")"
	}

	return "Error: Failed to submit order"
}
