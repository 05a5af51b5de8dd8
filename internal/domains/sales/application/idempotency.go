package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	salestypes "github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
)

type normalizedCheckout struct {
	Lines           []normalizedLine `json:"lines"`
	DiscountPercent string           `json:"discountPercent"`
	Comments        string           `json:"comments"`
	UserID          string           `json:"userId"`
}

type normalizedLine struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// FingerprintCheckout builds a deterministic hash of the checkout request (excluding the idempotency key).
// Lines are merged per product so a reordered cart hashes the same.
func FingerprintCheckout(input salestypes.CheckoutInput) (string, error) {
	payload, err := json.Marshal(normalizeCheckout(input))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

func normalizeCheckout(input salestypes.CheckoutInput) normalizedCheckout {
	quantities := map[int64]int{}
	for _, line := range input.Cart {
		quantities[line.ProductID] += line.Quantity
	}
	lines := make([]normalizedLine, 0, len(quantities))
	for id, qty := range quantities {
		lines = append(lines, normalizedLine{ProductID: id, Quantity: qty})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return normalizedCheckout{
		Lines:           lines,
		DiscountPercent: input.DiscountPercent.String(),
		Comments:        strings.TrimSpace(input.Comments),
		UserID:          strings.TrimSpace(input.UserID),
	}
}
