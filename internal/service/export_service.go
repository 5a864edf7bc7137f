package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/erp"
	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/report"
)

// ExportService 文档导出服务
type ExportService struct {
	client      *erp.Client
	minioClient *minio.Client
	bucketName  string
	logger      *zap.Logger
}

// NewExportService 创建导出服务
// minioClient可为nil，此时导出文件只下发给浏览器，不归档
func NewExportService(client *erp.Client, minioClient *minio.Client, bucketName string, logger *zap.Logger) *ExportService {
	return &ExportService{
		client:      client,
		minioClient: minioClient,
		bucketName:  bucketName,
		logger:      logger,
	}
}

var productionExportHeaders = []string{
	"Palet", "Cajas", "Peso neto (kg)", "Producto", "Lotes",
}

// ProductionSummaryXLSX 导出生产投入汇总为xlsx
func (s *ExportService) ProductionSummaryXLSX(ctx context.Context, token string, productionID int) (*excelize.File, string, error) {
	inputs, err := s.client.ListProductionInputs(ctx, token, productionID)
	if err != nil {
		return nil, "", err
	}

	groups := report.GroupByPallet(inputs)
	totals := report.GrandTotals(inputs)

	f := excelize.NewFile()
	sheet := "Entradas"
	f.SetSheetName("Sheet1", sheet)

	// 表头样式: 加粗
	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, h := range productionExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	row := 2
	for _, group := range groups {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), group.PalletCode)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), group.Boxes)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), group.NetWeight)
		row++
		for _, product := range group.Products {
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), product.Boxes)
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), product.NetWeight)
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), product.ProductName)
			f.SetCellValue(sheet, fmt.Sprintf("E%d", row), strings.Join(product.Lots, ", "))
			row++
		}
	}

	// 底部汇总行
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Total")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", row), totals.Lines)
	f.SetCellValue(sheet, fmt.Sprintf("C%d", row), totals.NetWeight)
	f.SetCellValue(sheet, fmt.Sprintf("D%d", row), fmt.Sprintf("%d productos / %d palets", totals.Products, totals.Pallets))
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("E%d", row), summaryStyle)

	colWidths := []float64{14, 8, 14, 24, 28}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("Produccion_%d_entradas.xlsx", productionID)
	return f, filename, nil
}

var orderExportHeaders = []string{
	"Producto", "Previsto (kg)", "Producido (kg)", "Diferencia", "Estado",
}

// OrderReportXLSX 导出订单计划/实际对账为xlsx
func (s *ExportService) OrderReportXLSX(ctx context.Context, token string, orderID int) (*excelize.File, string, error) {
	planned, err := s.client.ListPlannedDetails(ctx, token, orderID)
	if err != nil {
		return nil, "", err
	}
	produced, err := s.client.ListProductionDetails(ctx, token, orderID)
	if err != nil {
		return nil, "", err
	}

	merged := report.MergeOrderDetails(planned, produced)

	f := excelize.NewFile()
	sheet := "Pedido"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for i, h := range orderExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for i, detail := range merged {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), detail.ProductName)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), detail.Planned)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), detail.Actual)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), detail.Diff)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), string(detail.Status))
	}

	colWidths := []float64{24, 14, 14, 12, 12}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("Pedido_%d_resumen.xlsx", orderID)
	return f, filename, nil
}

// Archive 把导出文件归档到对象存储，返回对象键
func (s *ExportService) Archive(ctx context.Context, f *excelize.File, filename string) (string, error) {
	if s.minioClient == nil {
		return "", nil
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return "", fmt.Errorf("write xlsx: %w", err)
	}

	objectKey := fmt.Sprintf("exports/%s/%s", time.Now().Format("2006-01-02"), filename)
	_, err := s.minioClient.PutObject(ctx, s.bucketName, objectKey, &buf, int64(buf.Len()), minio.PutObjectOptions{
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	})
	if err != nil {
		return "", fmt.Errorf("archive export: %w", err)
	}

	s.logger.Info("export archived",
		zap.String("bucket", s.bucketName),
		zap.String("object", objectKey),
	)
	return objectKey, nil
}
