package oracle

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"shipdocs/internal/domain"
)

// FieldNames lists the canonical field keys in their fixed order.
var FieldNames = []string{
	"bill_of_lading_number",
	"container_number",
	"consignee_name",
	"consignee_address",
	"date",
	"line_items_count",
	"average_gross_weight",
	"average_price",
}

// DecodeFieldSet parses the oracle's JSON text into a FieldSet. Missing keys
// become nils; present keys of the wrong JSON type are a malformed response;
// numeric-looking strings are coerced into numeric fields; values that cannot
// be coerced become explicit nulls, never omissions.
func DecodeFieldSet(raw string) (domain.FieldSet, error) {
	var fs domain.FieldSet

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(SanitizeJSON(raw)), &payload); err != nil {
		return fs, fmt.Errorf("%w: %v", domain.ErrOracleMalformedResponse, err)
	}

	var err error
	if fs.BillOfLadingNumber, err = decodeString(payload, "bill_of_lading_number"); err != nil {
		return fs, err
	}
	if fs.ContainerNumber, err = decodeString(payload, "container_number"); err != nil {
		return fs, err
	}
	if fs.ConsigneeName, err = decodeString(payload, "consignee_name"); err != nil {
		return fs, err
	}
	if fs.ConsigneeAddress, err = decodeString(payload, "consignee_address"); err != nil {
		return fs, err
	}
	if fs.Date, err = decodeString(payload, "date"); err != nil {
		return fs, err
	}
	if fs.LineItemsCount, err = decodeInt(payload, "line_items_count"); err != nil {
		return fs, err
	}
	if fs.AverageGrossWeight, err = decodeFloat(payload, "average_gross_weight"); err != nil {
		return fs, err
	}
	if fs.AveragePrice, err = decodeFloat(payload, "average_price"); err != nil {
		return fs, err
	}
	return fs, nil
}

// SanitizeJSON strips markdown code fences the model sometimes wraps around
// its JSON despite instructions.
func SanitizeJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// notFoundValues are string stand-ins for "no value" that models emit despite
// being told to use null.
var notFoundValues = map[string]bool{
	"": true, "null": true, "none": true, "n/a": true, "not found": true,
}

func decodeString(payload map[string]json.RawMessage, key string) (*string, error) {
	raw, ok := payload[key]
	if !ok || isJSONNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: field %q: expected string, got %s", domain.ErrOracleMalformedResponse, key, raw)
	}
	s = strings.TrimSpace(s)
	if notFoundValues[strings.ToLower(s)] {
		return nil, nil
	}
	return &s, nil
}

func decodeFloat(payload map[string]json.RawMessage, key string) (*float64, error) {
	raw, ok := payload[key]
	if !ok || isJSONNull(raw) {
		return nil, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: field %q: expected number, got %s", domain.ErrOracleMalformedResponse, key, raw)
	}
	if v, ok := coerceNumeric(s); ok {
		return &v, nil
	}
	log.Printf("oracle.DecodeFieldSet: field %q value %q is not numeric, treating as null", key, s)
	return nil, nil
}

func decodeInt(payload map[string]json.RawMessage, key string) (*int, error) {
	f, err := decodeFloat(payload, key)
	if err != nil || f == nil {
		return nil, err
	}
	n := int(*f)
	return &n, nil
}

// coerceNumeric parses numeric-looking strings like "162.38", "1,250" or
// "150 kg" into a float.
func coerceNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if notFoundValues[strings.ToLower(s)] {
		return 0, false
	}
	if i := strings.IndexFunc(s, func(r rune) bool {
		return !(r >= '0' && r <= '9') && r != '.' && r != '-' && r != '+'
	}); i > 0 {
		s = strings.TrimSpace(s[:i])
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func isJSONNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}
