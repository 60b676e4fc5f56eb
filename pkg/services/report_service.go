package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"storefront-api/pkg/models"
	"storefront-api/pkg/store"

	"github.com/shopspring/decimal"
)

// ReportService 売上集計エンジン。
// 注文ストアのスナップショットに対する読み取り＋純粋計算のみで、自身は状態を持ちません。
// 並行するレポートリクエストは完全に独立しており、ロックは不要です。
type ReportService struct {
	orders     store.OrderStore
	searchLogs store.SearchLogStore
}

// NewReportService 新しいReportServiceを生成します。
func NewReportService(orders store.OrderStore, searchLogs store.SearchLogStore) *ReportService {
	return &ReportService{
		orders:     orders,
		searchLogs: searchLogs,
	}
}

// DailyTotal 指定日 [00:00, 翌日00:00) の売上数量・売上金額を集計します。
// 該当する明細が1件もない場合はエラーではなくゼロの結果を返します。
func (s *ReportService) DailyTotal(ctx context.Context, date time.Time) (*models.SalesTotal, error) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	end := start.AddDate(0, 0, 1)
	return s.totalInRange(ctx, start, end)
}

// MonthlyTotal 指定した暦月の売上数量・売上金額を集計します。
// 年は4桁・月は1〜12であることを検証します。
func (s *ReportService) MonthlyTotal(ctx context.Context, year, month int) (*models.SalesTotal, error) {
	if year < 1000 || year > 9999 {
		return nil, fmt.Errorf("%w: 年は4桁で指定してください: %d", models.ErrInvalidRange, year)
	}
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: 月は1〜12で指定してください: %d", models.ErrInvalidRange, month)
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	return s.totalInRange(ctx, start, end)
}

// TrailingTrend 当月（進行中の部分月を含む）までの直近monthsBackヶ月を
// (年, 月) でバケット化し、昇順で返します。
// データのある月のみが行になります。結果が空の場合はErrNotFound
// （ハードエラーではなく「データなし」のレポートシグナル）を返します。
func (s *ReportService) TrailingTrend(ctx context.Context, monthsBack int) ([]models.ReportRow, error) {
	if monthsBack <= 0 {
		monthsBack = 6
	}

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	start := monthStart.AddDate(0, -(monthsBack - 1), 0)
	end := monthStart.AddDate(0, 1, 0)

	orders, err := s.orders.FindByCreatedRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	// (年, 月) ごとに集計。出現順は保持し、最後にキー昇順でソートする
	buckets := make(map[models.BucketKey]*models.ReportRow)
	var keys []models.BucketKey

	for _, order := range orders {
		key := models.BucketKey{Year: order.CreatedAt.Year(), Month: int(order.CreatedAt.Month())}
		row, ok := buckets[key]
		if !ok {
			bucket := key
			row = &models.ReportRow{Bucket: &bucket}
			buckets[key] = row
			keys = append(keys, key)
		}
		for _, item := range order.Items {
			if !item.Contributing() {
				continue
			}
			row.TotalSales += item.Quantity
			row.TotalRevenue = row.TotalRevenue.Add(item.Revenue())
		}
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: 対象期間に売上データがありません", models.ErrNotFound)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	rows := make([]models.ReportRow, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, *buckets[key])
	}
	return rows, nil
}

// totalInRange [start, end) の注文明細を合算します。
// 売上金額は10進演算で累積し、浮動小数の丸め誤差を持ち込まない。
func (s *ReportService) totalInRange(ctx context.Context, start, end time.Time) (*models.SalesTotal, error) {
	orders, err := s.orders.FindByCreatedRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	total := &models.SalesTotal{TotalRevenue: decimal.Zero}
	for _, order := range orders {
		for _, item := range order.Items {
			if !item.Contributing() {
				continue
			}
			total.TotalSales += item.Quantity
			total.TotalRevenue = total.TotalRevenue.Add(item.Revenue())
		}
	}
	return total, nil
}
