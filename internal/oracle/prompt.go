package oracle

import (
	"fmt"
	"strings"

	"shipdocs/internal/domain"
	"shipdocs/internal/port"
)

// DocumentContent pairs a document identifier with its extracted content, in
// submission order.
type DocumentContent struct {
	Name    string
	Content domain.ExtractedContent
}

const instructionsHeader = `You are a trade-shipment document extraction assistant. You are given every document of ONE shipment as a set: bills of lading (PDF), commercial invoices and packing lists (Excel). Analyze them jointly — a value missing from one document often appears on another.

Extract exactly these fields:

- bill_of_lading_number: the shipment's bill of lading number. Look for labels like "Bill of Lading", "B/L NO", "BL NO", "BOL", "Waybill No". Usually a combination of letters and digits, e.g. "ZMLU34110002".
- container_number: the container identifier. Look for "Container No", "CNTR NO", "CONT NO". Standard format is 4 letters followed by 7 digits (e.g. "ABCD1234567").
- consignee_name: the name of the RECEIVER of the goods. Look for "Consignee", "Ship To", "Deliver To". Do NOT confuse with the shipper/exporter, who SENDS the goods.
- consignee_address: the consignee's full address as written, excluding the name itself.
- date: the shipment or document date, formatted YYYY-MM-DD.
- line_items_count: the total number of distinct product/piece rows across the line-item tables. Count data rows only — never header rows, subtotal rows, or blank rows.
- average_gross_weight: the arithmetic mean of the gross weight values across all line items, as a number.
- average_price: the arithmetic mean of the unit price values across all line items, as a number.

Respond with ONLY a JSON object containing exactly those eight keys — no markdown, no code fences, no explanation. Use JSON null for any field you cannot find. Never use an empty string in place of null.`

// BuildPrompt assembles the single joint oracle request for a shipment's
// documents. Text and tabular content are inlined into the instruction body;
// image content becomes ordered image attachments referenced by document name.
func BuildPrompt(docs []DocumentContent) port.ExtractionPrompt {
	var b strings.Builder
	b.WriteString(instructionsHeader)
	b.WriteString("\n\n<documents>\n")

	var images []port.ContentBlock
	for _, doc := range docs {
		fmt.Fprintf(&b, "<document name=%q>\n", doc.Name)
		switch doc.Content.Kind {
		case domain.ContentText:
			b.WriteString(doc.Content.Text)
			b.WriteString("\n")
		case domain.ContentTabular:
			writeSheets(&b, doc.Content.Sheets)
		case domain.ContentImage:
			fmt.Fprintf(&b, "[This document is provided as %d attached page image(s), in page order.]\n", len(doc.Content.Pages))
			for _, page := range doc.Content.Pages {
				images = append(images, port.ContentBlock{
					Type:      port.BlockImage,
					MediaType: "image/png",
					Data:      page.PNG,
				})
			}
		}
		b.WriteString("</document>\n")
	}
	b.WriteString("</documents>")

	return port.ExtractionPrompt{
		Instructions: b.String(),
		Blocks:       images,
	}
}

// writeSheets renders tabular content preserving sheet boundaries and row
// order, cells joined with tabs.
func writeSheets(b *strings.Builder, sheets []domain.Sheet) {
	for _, sheet := range sheets {
		fmt.Fprintf(b, "Sheet: %s\n", sheet.Name)
		for _, row := range sheet.Rows {
			cells := make([]string, 0, len(row))
			for _, c := range row {
				if s := strings.TrimSpace(c); s != "" {
					cells = append(cells, s)
				}
			}
			if len(cells) > 0 {
				b.WriteString(strings.Join(cells, " \t "))
				b.WriteString("\n")
			}
		}
	}
}
