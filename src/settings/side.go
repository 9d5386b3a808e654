package settings

import (
	"fmt"
	"strings"

	"signalrouter/src/model"
)

// ParseSide accepts the order vocabulary (Buy/Sell) and the position vocabulary
// (Long/Short) in any case. An empty string selects the side-agnostic slot.
func ParseSide(s string) (model.Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return model.SideAll, nil
	case "buy", "long":
		return model.SideLong, nil
	case "sell", "short":
		return model.SideShort, nil
	}
	return "", fmt.Errorf("%w: side %q", ErrInvalidEnum, s)
}

func normalizeSide(side model.Side) (model.Side, error) {
	return ParseSide(string(side))
}
