package change

import "github.com/rickgao/market-sync/internal/model"

// OrderBookEquivalent reports whether next carries no displayable change
// relative to prev.
func OrderBookEquivalent(prev, next *model.OrderBookSnapshot) bool {
	if prev == nil || next == nil {
		return prev == nil && next == nil
	}
	for _, side := range model.BookSides {
		if !levelsEquivalent(prev.Levels(side), next.Levels(side)) {
			return false
		}
	}
	return true
}

// OrderBookDiff returns the sides whose levels differ. A nil on exactly one
// side reports every side as changed.
func OrderBookDiff(prev, next *model.OrderBookSnapshot) []model.BookSide {
	if prev == nil && next == nil {
		return nil
	}
	if prev == nil || next == nil {
		return model.BookSides[:]
	}
	var changed []model.BookSide
	for _, side := range model.BookSides {
		if !levelsEquivalent(prev.Levels(side), next.Levels(side)) {
			changed = append(changed, side)
		}
	}
	return changed
}

func levelsEquivalent(a, b []model.PriceLevel) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Price != b[i].Price || a[i].TotalQuantity != b[i].TotalQuantity {
			return false
		}
	}
	return true
}

// TradesEquivalent reports whether next should be treated as the same feed as
// prev.
func TradesEquivalent(prev, next []model.Trade) bool {
	if prev == nil || next == nil {
		return prev == nil && next == nil
	}
	if len(prev) != len(next) {
		return false
	}
	prevHead, _ := model.HeadTrade(prev)
	nextHead, _ := model.HeadTrade(next)
	return prevHead.TradeID == nextHead.TradeID
}
