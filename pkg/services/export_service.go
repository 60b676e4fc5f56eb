package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"storefront-api/pkg/models"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"
)

// エクスポート形式
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

const exportSheetName = "Sales Report"

// ExportService 集計レポートをCSV / XLSX / PDFのバイトストリームへ変換します。
// レンダリングは一旦内部バッファに行い、成功した場合のみ呼び出し側のストリームへ
// コピーします。書き込み途中で失敗した中途半端な成果物を外に見せないためです。
type ExportService struct{}

// NewExportService 新しいExportServiceを生成します。
func NewExportService() *ExportService {
	return &ExportService{}
}

// FileName 形式に応じたダウンロードファイル名を返します。
func (s *ExportService) FileName(format string) string {
	return "sales_report." + format
}

// ContentType 形式に応じたContent-Typeを返します。
// 未知の形式の場合はErrUnsupportedFormatを返します（I/Oは一切行いません）。
func (s *ExportService) ContentType(format string) (string, error) {
	switch format {
	case FormatCSV:
		return "text/csv", nil
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil
	case FormatPDF:
		return "application/pdf", nil
	default:
		return "", fmt.Errorf("%w: %q", models.ErrUnsupportedFormat, format)
	}
}

// Export レポート行を指定形式でwへ書き出します。
// bucketedは期間バケット付きレポートかどうかを示します。行が空でも
// ヘッダー列の形はレポートの種類に従います。
func (s *ExportService) Export(rows []models.ReportRow, format string, bucketed bool, w io.Writer) error {
	var (
		buf bytes.Buffer
		err error
	)

	switch format {
	case FormatCSV:
		err = s.renderCSV(rows, bucketed, &buf)
	case FormatXLSX:
		err = s.renderXLSX(rows, bucketed, &buf)
	case FormatPDF:
		err = s.renderPDF(rows, bucketed, &buf)
	default:
		return fmt.Errorf("%w: %q", models.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrExportWrite, err)
	}

	if _, err := io.Copy(w, &buf); err != nil {
		return fmt.Errorf("%w: %v", models.ErrExportWrite, err)
	}
	return nil
}

// exportHeader レポートの種類に応じたヘッダー列を返します。
// バケット付きレポートには期間列が付き、ランキングレポートには付きません。
func exportHeader(bucketed bool) []string {
	if bucketed {
		return []string{"period", "productId", "productName", "totalSales", "totalRevenue"}
	}
	return []string{"productId", "productName", "totalSales", "totalRevenue"}
}

// exportRecord 1行をヘッダーと同じ並びの文字列レコードへ変換します。
func exportRecord(row models.ReportRow) []string {
	record := make([]string, 0, 5)
	if row.Bucket != nil {
		record = append(record, bucketLabel(*row.Bucket))
	}
	return append(record,
		row.ProductID,
		row.ProductName,
		fmt.Sprintf("%d", row.TotalSales),
		row.TotalRevenue.StringFixed(2),
	)
}

// bucketLabel バケットキーを表示用文字列にします。
func bucketLabel(k models.BucketKey) string {
	switch {
	case k.Day > 0:
		return fmt.Sprintf("%04d-%02d-%02d", k.Year, k.Month, k.Day)
	case k.ISOWeek > 0:
		return fmt.Sprintf("%04d-W%02d", k.Year, k.ISOWeek)
	default:
		return fmt.Sprintf("%04d-%02d", k.Year, k.Month)
	}
}

// renderCSV ヘッダー行＋1行ずつの逐次書き込み
func (s *ExportService) renderCSV(rows []models.ReportRow, bucketed bool, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader(bucketed)); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(exportRecord(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// renderXLSX 1シートのワークブックを組み立てて書き出します。
func (s *ExportService) renderXLSX(rows []models.ReportRow, bucketed bool, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheetName); err != nil {
		return err
	}

	header := exportHeader(bucketed)
	for col, name := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(exportSheetName, cell, name); err != nil {
			return err
		}
	}

	for i, row := range rows {
		for col, value := range exportRecord(row) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(exportSheetName, cell, value); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}

// renderPDF 固定レイアウトの表を描画します。
// タイトル中央寄せ→固定位置のヘッダー行→1行ずつ固定の行高で進める単純な作りで、
// 2ページ目以降のページングは行いません（巨大なレポートの扱いは呼び出し側のポリシー）。
func (s *ExportService) renderPDF(rows []models.ReportRow, bucketed bool, w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 12, "Sales Report", "", 1, "C", false, 0, "")

	header := exportHeader(bucketed)
	colWidth := 190.0 / float64(len(header))

	pdf.SetY(30)
	pdf.SetFont("Arial", "B", 10)
	for _, name := range header {
		pdf.CellFormat(colWidth, 8, name, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	for _, row := range rows {
		for _, value := range exportRecord(row) {
			pdf.CellFormat(colWidth, 8, value, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(8)
	}

	return pdf.Output(w)
}
