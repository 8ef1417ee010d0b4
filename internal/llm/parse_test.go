package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/expense-tracker/internal/common"
)

var today = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

func TestParseReceipt_AppliesFallbacks(t *testing.T) {
	raw := "```json\n" +
		`{"shop":{"name":"Shop X"},"items":[{"name":"Milk","price":2.50,"category":"Groceries"},{"name":"Bread","price":3.00,"category":"Groceries"}]}` +
		"\n```"

	rc, err := ParseReceipt(raw, today)
	require.NoError(t, err)
	require.Equal(t, today, rc.Date)
	require.Equal(t, "5.50", rc.TotalAmount.StringFixed(2))
	require.Equal(t, "Shop X", rc.Shop.Name)
	require.Nil(t, rc.Shop.Address)
	require.Len(t, rc.Items, 2)
	require.Equal(t, 1, rc.Items[0].Quantity)
	require.Equal(t, "2.50", rc.Items[0].Price.StringFixed(2))
	require.Contains(t, rc.Defaulted, "date")
	require.Contains(t, rc.Defaulted, "totalAmount")
	require.Contains(t, rc.Defaulted, "items[1].quantity")
}

func TestParseReceipt_ItemFallbacks(t *testing.T) {
	raw := `{"date":"2024-12-01","totalAmount":0,"shop":{"name":""},"items":[{"price":null,"quantity":0}]}`

	rc, err := ParseReceipt(raw, today)
	require.NoError(t, err)
	require.Equal(t, "2024-12-01", rc.Date.Format("2006-01-02"))
	require.Equal(t, "Unknown Shop", rc.Shop.Name)
	require.True(t, rc.TotalAmount.IsZero())
	require.Equal(t, ItemCandidate{Name: "Unknown Item", Quantity: 1, Category: "Miscellaneous", Price: rc.Items[0].Price}, rc.Items[0])
	require.True(t, rc.Items[0].Price.IsZero())
}

func TestParseReceipt_CoercesNumericStrings(t *testing.T) {
	raw := `Here you go: {"date":"03/02/2025","totalAmount":"$1,204.10","shop":{"name":" Costco ","address":"1 Main St"},` +
		`"items":[{"name":"TV","price":"1,200.00","quantity":"1","category":"Electronics"},{"name":"Gum","price":"4.1","quantity":1,"category":"Groceries"}]} thanks`

	rc, err := ParseReceipt(raw, today)
	require.NoError(t, err)
	require.Equal(t, "2025-03-02", rc.Date.Format("2006-01-02"))
	require.Equal(t, "1204.10", rc.TotalAmount.StringFixed(2))
	require.Equal(t, "Costco", rc.Shop.Name)
	require.NotNil(t, rc.Shop.Address)
	require.Equal(t, "1 Main St", *rc.Shop.Address)
	require.Equal(t, "1200.00", rc.Items[0].Price.StringFixed(2))
	require.Empty(t, rc.Defaulted)
}

func TestParseReceipt_UnparseableDateFallsBackToToday(t *testing.T) {
	rc, err := ParseReceipt(`{"date":"yesterday","items":[]}`, today)
	require.NoError(t, err)
	require.Equal(t, today, rc.Date)
	require.Empty(t, rc.Items)
	require.True(t, rc.TotalAmount.IsZero())
}

func TestParseReceipt_Errors(t *testing.T) {
	cases := map[string]string{
		"malformed":       `{"items": [`,
		"not an object":   `[1,2,3]`,
		"missing items":   `{"shop":{"name":"A"}}`,
		"null items":      `{"items":null}`,
		"items not array": `{"items":{"name":"Milk"}}`,
		"item not object": `{"items":["Milk"]}`,
		"negative price":  `{"items":[{"name":"Milk","price":-1}]}`,
		"huge qty":        `{"items":[{"name":"Apples","price":1,"quantity":1e20}]}`,
		"int64 overflow":  `{"items":[{"name":"Apples","price":1,"quantity":9223372036854775808}]}`,
		"negative qty":    `{"items":[{"name":"Apples","price":1,"quantity":-2}]}`,
		"garbage price":   `{"items":[{"name":"Milk","price":"abc"}]}`,
		"numeric name":    `{"items":[{"name":42,"price":1}]}`,
		"empty response":  ``,
		"prose only":      `Sorry, I cannot read this receipt.`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseReceipt(raw, today)
			require.Error(t, err)
			require.True(t, errors.Is(err, common.ErrParse), "got %v", err)
		})
	}
}

func TestStripFences(t *testing.T) {
	require.Equal(t, `{"a":1}`, StripFences("```json\n{\"a\":1}\n```"))
	require.Equal(t, `{"a":1}`, StripFences("```\n{\"a\":1}```"))
	require.Equal(t, `{"a":1}`, StripFences("Result:\n{\"a\":1}\nDone"))
	require.Equal(t, `{"a":1}`, StripFences(`  {"a":1}  `))
}

func TestBuildPrompt_ListsKnownTaxonomy(t *testing.T) {
	p := BuildPrompt(ExtractRequest{
		OCRText:         "SHOP X\nMilk 2.50",
		KnownCategories: []string{"Groceries", "Household"},
	})
	require.Contains(t, p, "Existing categories: Groceries, Household")
	require.Contains(t, p, "Existing shops: None yet")
	require.Contains(t, p, "Milk 2.50")

	long := strings.Repeat("x", maxPromptOCRChars+10)
	require.Contains(t, BuildPrompt(ExtractRequest{OCRText: long}), "(truncated)")
}

func TestStructuredExtractor(t *testing.T) {
	var gotPrompt string
	c := CompleterFunc(func(_ context.Context, prompt string) (string, error) {
		gotPrompt = prompt
		return `{"shop":{"name":"Shop X"},"items":[{"name":"Milk","price":2.5,"category":"Groceries"}]}`, nil
	})
	ex := NewStructuredExtractor(c, nil).WithClock(func() time.Time {
		return time.Date(2025, 3, 14, 22, 30, 0, 0, time.Local)
	})

	rc, raw, err := ex.Extract(context.Background(), ExtractRequest{OCRText: "SHOP X", KnownShops: []string{"Shop X"}})
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	require.Contains(t, gotPrompt, "Existing shops: Shop X")
	require.Equal(t, "2025-03-14", rc.Date.Format("2006-01-02"))

	failing := CompleterFunc(func(context.Context, string) (string, error) {
		return "", errors.New("rate limited")
	})
	_, _, err = NewStructuredExtractor(failing, nil).Extract(context.Background(), ExtractRequest{})
	require.ErrorContains(t, err, "rate limited")
	require.Equal(t, common.KindInternal, common.KindOf(err))
}

func TestParseReceipt_Quantities(t *testing.T) {
	raw := `{"items":[` +
		`{"name":"Apples","price":3.20,"quantity":1.5,"category":"Groceries"},` +
		`{"name":"Cheese","price":2,"quantity":0.25,"category":"Groceries"},` +
		`{"name":"Eggs","price":1,"quantity":"12","category":"Groceries"},` +
		`{"name":"Nails","price":0.01,"quantity":1000000,"category":"Household"}]}`

	rc, err := ParseReceipt(raw, today)
	require.NoError(t, err)
	require.Len(t, rc.Items, 4)
	require.Equal(t, 2, rc.Items[0].Quantity)
	require.Equal(t, 1, rc.Items[1].Quantity)
	require.Equal(t, 12, rc.Items[2].Quantity)
	require.Equal(t, MaxItemQuantity, rc.Items[3].Quantity)
	require.NotContains(t, rc.Defaulted, "items[0].quantity")
}
