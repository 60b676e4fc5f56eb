package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"storefront-api/pkg/models"

	"github.com/shopspring/decimal"
)

// topSearchedLimit 検索語ランキングの件数
const topSearchedLimit = 10

// RankedProductReport [start, endの終端まで] の明細を商品IDでグループ化し、
// 販売数量の降順に並べたランキングレポートを返します。limitが正の場合は上位N件に切り詰めます。
// あわせて同じ期間の検索ログから頻出検索語の上位10件を独立に算出して返します。
// 終了日は「その日いっぱい」を含むよう翌日0時を排他的境界として扱います。
func (s *ReportService) RankedProductReport(ctx context.Context, start, end time.Time, limit int) (*models.RankedReport, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: 開始日が終了日より後になっています", models.ErrInvalidRange)
	}
	queryEnd := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location()).AddDate(0, 0, 1)

	orders, err := s.orders.FindByCreatedRange(ctx, start, queryEnd)
	if err != nil {
		return nil, err
	}

	// 商品IDごとに集計。同数量のときは出現順を保つ
	byProduct := make(map[string]*models.ReportRow)
	var productOrder []string

	for _, order := range orders {
		for _, item := range order.Items {
			if !item.Contributing() {
				continue
			}
			row, ok := byProduct[item.ProductID]
			if !ok {
				row = &models.ReportRow{ProductID: item.ProductID, ProductName: item.Name}
				byProduct[item.ProductID] = row
				productOrder = append(productOrder, item.ProductID)
			}
			row.TotalSales += item.Quantity
			row.TotalRevenue = row.TotalRevenue.Add(item.Revenue())
		}
	}

	// レポート全体の売上金額は上位N件に切り詰める前の全商品合計。
	// 切り詰めで期間合計が変わらないようにするため
	totalRevenue := decimal.Zero
	ranked := make([]models.ReportRow, 0, len(productOrder))
	for _, id := range productOrder {
		ranked = append(ranked, *byProduct[id])
		totalRevenue = totalRevenue.Add(byProduct[id].TotalRevenue)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalSales > ranked[j].TotalSales
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	topSearched, err := s.topSearchTerms(ctx, start, queryEnd)
	if err != nil {
		return nil, err
	}

	return &models.RankedReport{
		TotalRevenue:        totalRevenue,
		TopSellingProducts:  ranked,
		TopSearchedProducts: topSearched,
	}, nil
}

// BucketedProductReport [start, end) の明細を (時間バケット × 商品ID) でグループ化します。
// バケットキーの昇順（同順位は出現順）で返します。
func (s *ReportService) BucketedProductReport(ctx context.Context, start, end time.Time, granularity models.Granularity) ([]models.ReportRow, error) {
	switch granularity {
	case models.GranularityDaily, models.GranularityWeekly, models.GranularityMonthly:
	default:
		return nil, fmt.Errorf("%w: %q（daily / weekly / monthly のいずれかを指定してください）",
			models.ErrInvalidGranularity, granularity)
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: 開始日は終了日より前である必要があります", models.ErrInvalidRange)
	}

	orders, err := s.orders.FindByCreatedRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	type groupKey struct {
		bucket    models.BucketKey
		productID string
	}

	groups := make(map[groupKey]*models.ReportRow)
	var insertion []groupKey

	for _, order := range orders {
		bucket := bucketFor(order.CreatedAt, granularity)
		for _, item := range order.Items {
			if !item.Contributing() {
				continue
			}
			key := groupKey{bucket: bucket, productID: item.ProductID}
			row, ok := groups[key]
			if !ok {
				b := bucket
				row = &models.ReportRow{Bucket: &b, ProductID: item.ProductID, ProductName: item.Name}
				groups[key] = row
				insertion = append(insertion, key)
			}
			row.TotalSales += item.Quantity
			row.TotalRevenue = row.TotalRevenue.Add(item.Revenue())
		}
	}

	// バケットキー昇順・同一バケット内は出現順
	sort.SliceStable(insertion, func(i, j int) bool {
		return insertion[i].bucket.Less(insertion[j].bucket)
	})

	rows := make([]models.ReportRow, 0, len(insertion))
	for _, key := range insertion {
		rows = append(rows, *groups[key])
	}
	return rows, nil
}

// bucketFor 日時を粒度に応じたバケットキーへ変換します。
func bucketFor(t time.Time, granularity models.Granularity) models.BucketKey {
	switch granularity {
	case models.GranularityDaily:
		return models.BucketKey{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
	case models.GranularityWeekly:
		// ISO-8601の週番号。年末年始は暦年とISO年がずれることに注意
		year, week := t.ISOWeek()
		return models.BucketKey{Year: year, ISOWeek: week}
	default: // monthly
		return models.BucketKey{Year: t.Year(), Month: int(t.Month())}
	}
}

// topSearchTerms [start, end) の検索ログから頻出検索語の上位を返します。
func (s *ReportService) topSearchTerms(ctx context.Context, start, end time.Time) ([]models.SearchTermCount, error) {
	entries, err := s.searchLogs.FindBySearchedRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	var order []string
	for _, entry := range entries {
		if _, ok := counts[entry.SearchTerm]; !ok {
			order = append(order, entry.SearchTerm)
		}
		counts[entry.SearchTerm]++
	}

	ranked := make([]models.SearchTermCount, 0, len(order))
	for _, term := range order {
		ranked = append(ranked, models.SearchTermCount{SearchTerm: term, Count: counts[term]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if len(ranked) > topSearchedLimit {
		ranked = ranked[:topSearchedLimit]
	}
	return ranked, nil
}
