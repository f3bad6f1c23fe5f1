package content

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"shipdocs/internal/domain"
)

// extractXLSX opens a workbook and emits every sheet's rows in workbook
// order. A workbook that cannot be opened or read maps onto
// domain.ErrUnsupportedDocument.
func extractXLSX(payload []byte) ([]domain.Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", domain.ErrUnsupportedDocument, err)
	}
	defer f.Close()

	var sheets []domain.Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("%w: read sheet %q: %v", domain.ErrUnsupportedDocument, name, err)
		}
		sheets = append(sheets, domain.Sheet{Name: name, Rows: rows})
	}
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", domain.ErrUnsupportedDocument)
	}
	return sheets, nil
}
