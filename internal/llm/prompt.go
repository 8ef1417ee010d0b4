package llm

import (
	"strings"
)

const maxPromptOCRChars = 6000

// BuildPrompt asks for the fixed receipt shape and lists existing categories
// and shops so the model reuses them instead of inventing near-duplicates.
func BuildPrompt(req ExtractRequest) string {
	cats := "None yet"
	if len(req.KnownCategories) > 0 {
		cats = strings.Join(req.KnownCategories, ", ")
	}
	shops := "None yet"
	if len(req.KnownShops) > 0 {
		shops = strings.Join(req.KnownShops, ", ")
	}

	ocr := strings.TrimSpace(req.OCRText)
	if len(ocr) > maxPromptOCRChars {
		ocr = ocr[:maxPromptOCRChars] + "\n…(truncated)"
	}

	var b strings.Builder
	b.WriteString("You are a receipts parser. Extract the receipt below into JSON with exactly this shape:\n")
	b.WriteString(`{"date":"YYYY-MM-DD","totalAmount":number,"shop":{"name":string,"address":string},`)
	b.WriteString(`"items":[{"name":string,"price":number,"quantity":number,"category":string}]}`)
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Return ONLY the JSON object, no prose.\n")
	b.WriteString("- price is the unit price; quantity defaults to 1.\n")
	b.WriteString("- Omit shop.address if it is not printed on the receipt.\n")
	b.WriteString("- Prefer one of the existing categories when it fits; otherwise use a short, general label.\n")
	b.WriteString("- If the shop matches one of the existing shops, use that exact name.\n")
	b.WriteString("\nExisting categories: ")
	b.WriteString(cats)
	b.WriteString("\nExisting shops: ")
	b.WriteString(shops)
	b.WriteString("\n\nReceipt text:\n")
	b.WriteString(ocr)
	b.WriteString("\n")
	return b.String()
}
