package receipts

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiptInput is a caller-supplied receipt: the body of a manual entry and
// the desired state of an update.
type ReceiptInput struct {
	Date        string      `json:"date" validate:"required,ymd"`
	ShopName    string      `json:"shopName" validate:"max=200"`
	ShopAddress *string     `json:"shopAddress,omitempty" validate:"omitempty,max=500"`
	Items       []ItemInput `json:"items" validate:"required,min=1,dive"`
}

// ItemInput is one desired line. On update, ID is the stored item id, or
// empty / "temp-..." for a new line. CategoryID wins over Category.
type ItemInput struct {
	ID         string          `json:"id,omitempty"`
	Name       string          `json:"name" validate:"required,notblank,max=200"`
	Price      decimal.Decimal `json:"price" validate:"gte=0"`
	Quantity   int             `json:"quantity" validate:"gte=0"`
	CategoryID string          `json:"categoryId,omitempty" validate:"omitempty,uuid"`
	Category   string          `json:"category,omitempty" validate:"max=100"`
}

const tempIDPrefix = "temp-"

// storedID reports the stored item id, or ok=false for a line that should be created.
func (in ItemInput) storedID() (uuid.UUID, bool) {
	id := strings.TrimSpace(in.ID)
	if id == "" || strings.HasPrefix(id, tempIDPrefix) {
		return uuid.Nil, false
	}
	u, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, false
	}
	return u, true
}

func (in ItemInput) quantity() int {
	if in.Quantity < 1 {
		return 1
	}
	return in.Quantity
}
