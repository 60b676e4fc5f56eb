package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"storefront-api/pkg/models"

	"github.com/lib/pq"
)

// PostgresOrderStore OrderStoreのPostgreSQL実装
type PostgresOrderStore struct {
	db *sql.DB
}

// NewPostgresOrderStore 新しいPostgresOrderStoreを生成します。
func NewPostgresOrderStore(db *sql.DB) *PostgresOrderStore {
	return &PostgresOrderStore{db: db}
}

// FindByCreatedRange [start, end) に作成された注文を明細付きで返します。
func (s *PostgresOrderStore) FindByCreatedRange(ctx context.Context, start, end time.Time) ([]models.Order, error) {
	const query = `
		SELECT o.id, o.user_id, o.created_at,
		       i.product_id, i.name, i.price, i.quantity
		FROM orders o
		JOIN order_items i ON i.order_id = o.id
		WHERE o.created_at >= $1 AND o.created_at < $2
		ORDER BY o.created_at, o.id`

	rows, err := s.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("注文の取得に失敗: %w", err)
	}
	defer rows.Close()

	// 1注文=複数行で返るため、IDごとにまとめ直す（取得順は維持）
	var orders []models.Order
	index := make(map[string]int)

	for rows.Next() {
		var (
			order models.Order
			item  models.OrderItem
		)
		if err := rows.Scan(&order.ID, &order.UserID, &order.CreatedAt,
			&item.ProductID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return nil, fmt.Errorf("注文行のスキャンに失敗: %w", err)
		}

		if pos, ok := index[order.ID]; ok {
			orders[pos].Items = append(orders[pos].Items, item)
			continue
		}
		order.Items = []models.OrderItem{item}
		index[order.ID] = len(orders)
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

// PostgresSearchLogStore SearchLogStoreのPostgreSQL実装
type PostgresSearchLogStore struct {
	db *sql.DB
}

// NewPostgresSearchLogStore 新しいPostgresSearchLogStoreを生成します。
func NewPostgresSearchLogStore(db *sql.DB) *PostgresSearchLogStore {
	return &PostgresSearchLogStore{db: db}
}

// Append 検索ログを1件追記します。
func (s *PostgresSearchLogStore) Append(ctx context.Context, entry models.SearchLogEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO search_logs (search_term, searched_at) VALUES ($1, $2)`,
		entry.SearchTerm, entry.SearchedAt)
	if err != nil {
		return fmt.Errorf("検索ログの追記に失敗: %w", err)
	}
	return nil
}

// FindBySearchedRange [start, end) の検索ログを返します。
func (s *PostgresSearchLogStore) FindBySearchedRange(ctx context.Context, start, end time.Time) ([]models.SearchLogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT search_term, searched_at FROM search_logs
		 WHERE searched_at >= $1 AND searched_at < $2
		 ORDER BY searched_at`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("検索ログの取得に失敗: %w", err)
	}
	defer rows.Close()

	var entries []models.SearchLogEntry
	for rows.Next() {
		var entry models.SearchLogEntry
		if err := rows.Scan(&entry.SearchTerm, &entry.SearchedAt); err != nil {
			return nil, fmt.Errorf("検索ログのスキャンに失敗: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// PostgresProductStore ProductStoreのPostgreSQL実装
type PostgresProductStore struct {
	db *sql.DB
}

// NewPostgresProductStore 新しいPostgresProductStoreを生成します。
func NewPostgresProductStore(db *sql.DB) *PostgresProductStore {
	return &PostgresProductStore{db: db}
}

// Find フィルタ・ソート・ページングを適用して商品一覧を返します。
func (s *PostgresProductStore) Find(ctx context.Context, q models.ProductQuery) (*models.ProductPage, error) {
	var (
		conds []string
		args  []interface{}
	)

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.MinPrice != nil {
		conds = append(conds, "price >= "+arg(*q.MinPrice))
	}
	if q.MaxPrice != nil {
		conds = append(conds, "price <= "+arg(*q.MaxPrice))
	}
	if q.Category != "" {
		conds = append(conds, "category = "+arg(q.Category))
	}
	if q.Search != "" {
		conds = append(conds, "name ILIKE "+arg("%"+q.Search+"%"))
	}
	if q.Tag != "" {
		conds = append(conds, arg(q.Tag)+" = ANY(tags)")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	// 総件数（ページング用メタデータ）
	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("商品件数の取得に失敗: %w", err)
	}

	// ソート（デフォルトは新着順）
	orderBy := "created_at DESC"
	switch q.Sort {
	case "oldest":
		orderBy = "created_at ASC"
	case "views":
		orderBy = "views DESC"
	case "popularity":
		orderBy = "popularity DESC"
	case "reviews":
		orderBy = "reviews DESC"
	}

	offset := (q.Page - 1) * q.Limit
	query := fmt.Sprintf(
		`SELECT id, name, description, price, category, image, tags, views, popularity, reviews, created_at
		 FROM products%s ORDER BY %s LIMIT %s OFFSET %s`,
		where, orderBy, arg(q.Limit), arg(offset))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("商品一覧の取得に失敗: %w", err)
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		var (
			p    models.Product
			tags pq.StringArray
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category,
			&p.Image, &tags, &p.Views, &p.Popularity, &p.Reviews, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("商品のスキャンに失敗: %w", err)
		}
		p.Tags = tags
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &models.ProductPage{Total: total, Products: products}, nil
}

// Insert 商品を新規登録します。
func (s *PostgresProductStore) Insert(ctx context.Context, p *models.Product) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (id, name, description, price, category, image, tags, views, popularity, reviews, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.Image,
		pq.StringArray(p.Tags), p.Views, p.Popularity, p.Reviews, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("商品の登録に失敗: %w", err)
	}
	return nil
}

// Update 既存商品を更新します。
func (s *PostgresProductStore) Update(ctx context.Context, p *models.Product) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET name = $2, description = $3, price = $4, category = $5, image = $6, tags = $7
		 WHERE id = $1`,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.Image, pq.StringArray(p.Tags))
	if err != nil {
		return fmt.Errorf("商品の更新に失敗: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}
