package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/dejobratic/shop/internal/shop/domain"
)

const productColumns = `
	p.id, COALESCE(p.category_id, 0), p.title, p.description, p.price, p.count,
	p.free_delivery, p.created_at,
	ARRAY(
		SELECT t.name FROM product_tags pt JOIN tags t ON t.id = pt.tag_id
		WHERE pt.product_id = p.id ORDER BY t.name
	),
	ARRAY(SELECT r.rate::int FROM reviews r WHERE r.product_id = p.id ORDER BY r.id)
`

const ratingExpr = `COALESCE((SELECT AVG(r.rate) FROM reviews r WHERE r.product_id = p.id), 0)`

var sortColumns = map[domain.SortField]string{
	domain.SortByID:           "p.id",
	domain.SortByPrice:        "p.price",
	domain.SortByCount:        "p.count",
	domain.SortByDate:         "p.created_at",
	domain.SortByTitle:        `p.title COLLATE "C"`,
	domain.SortByRating:       ratingExpr,
	domain.SortByFreeDelivery: "p.free_delivery",
}

type ProductRepository struct {
	db
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1`

	p, err := scanProduct(r.q(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", id, domain.ErrProductNotFound)
		}
		return nil, fmt.Errorf("select product: %w", err)
	}
	return &p, nil
}

// GetMany skips unknown identifiers.
func (r *ProductRepository) GetMany(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	result := make(map[int64]domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = ANY($1)`

	rows, err := r.q(ctx).Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		result[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return result, nil
}

// LockForUpdate takes row locks in ascending ID order. Tags and rating are
// not loaded.
func (r *ProductRepository) LockForUpdate(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	result := make(map[int64]domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `
		SELECT id, COALESCE(category_id, 0), title, description, price, count, free_delivery, created_at
		FROM products
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`

	rows, err := r.q(ctx).Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.CategoryID, &p.Title, &p.Description, &p.Price,
			&p.Count, &p.FreeDelivery, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan locked product: %w", err)
		}
		result[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locked products: %w", err)
	}
	return result, nil
}

// DeductStock decrements every product or none of them.
func (r *ProductRepository) DeductStock(ctx context.Context, quantities map[int64]int) error {
	ids := make([]int64, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return r.WithinTransaction(ctx, func(ctx context.Context) error {
		for _, id := range ids {
			tag, err := r.q(ctx).Exec(ctx,
				`UPDATE products SET count = count - $2 WHERE id = $1 AND count >= $2`,
				id, quantities[id],
			)
			if err != nil {
				return fmt.Errorf("deduct stock: %w", err)
			}
			if tag.RowsAffected() == 1 {
				continue
			}

			var exists bool
			if err := r.q(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
				return fmt.Errorf("check product: %w", err)
			}
			if !exists {
				return fmt.Errorf("product %d: %w", id, domain.ErrProductNotFound)
			}
			return fmt.Errorf("product %d: %w", id, domain.ErrInsufficientStock)
		}
		return nil
	})
}

func (r *ProductRepository) Count(ctx context.Context, filter domain.CatalogFilter) (int, error) {
	where, args := filterClause(filter)

	var total int
	if err := r.q(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM products p`+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return total, nil
}

func (r *ProductRepository) List(ctx context.Context, filter domain.CatalogFilter, limit, offset int) ([]domain.Product, error) {
	where, args := filterClause(filter)

	direction := "ASC"
	if filter.Descending {
		direction = "DESC"
	}
	column, ok := sortColumns[filter.Sort]
	if !ok {
		column = sortColumns[domain.SortByID]
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM products p%s ORDER BY %s %s, p.id %s LIMIT $%d OFFSET $%d`,
		productColumns, where, column, direction, direction, len(args)-1, len(args))

	rows, err := r.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog: %w", err)
	}
	return products, nil
}

func (r *ProductRepository) CountSales(ctx context.Context) (int, error) {
	var total int
	if err := r.q(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM sales`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count sales: %w", err)
	}
	return total, nil
}

func (r *ProductRepository) ListSales(ctx context.Context, limit, offset int) ([]domain.Sale, error) {
	query := `SELECT ` + productColumns + `, s.date_from, s.date_to, s.discount
		FROM sales s JOIN products p ON p.id = s.product_id
		ORDER BY s.id
		LIMIT $1 OFFSET $2`

	rows, err := r.q(ctx).Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	sales := []domain.Sale{}
	for rows.Next() {
		var s domain.Sale
		var rates []int32
		if err := rows.Scan(
			&s.Product.ID, &s.Product.CategoryID, &s.Product.Title, &s.Product.Description,
			&s.Product.Price, &s.Product.Count, &s.Product.FreeDelivery, &s.Product.CreatedAt,
			&s.Product.Tags, &rates, &s.DateFrom, &s.DateTo, &s.Discount,
		); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		s.Product.Rating = rating(rates)
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}
	return sales, nil
}

func (r *ProductRepository) ListTags(ctx context.Context) ([]string, error) {
	rows, err := r.q(ctx).Query(ctx, `
		SELECT DISTINCT t.name
		FROM tags t JOIN product_tags pt ON pt.tag_id = t.id
		ORDER BY t.name
	`)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}

	tags, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect tags: %w", err)
	}
	return tags, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	var rates []int32
	err := row.Scan(
		&p.ID, &p.CategoryID, &p.Title, &p.Description, &p.Price, &p.Count,
		&p.FreeDelivery, &p.CreatedAt, &p.Tags, &rates,
	)
	if err != nil {
		return domain.Product{}, err
	}
	p.Rating = rating(rates)
	return p, nil
}

func rating(rates []int32) float64 {
	ints := make([]int, len(rates))
	for i, r := range rates {
		ints[i] = int(r)
	}
	return domain.AverageRating(ints)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// filterClause renders the catalog filter as a WHERE clause with positional
// arguments starting at $1.
func filterClause(f domain.CatalogFilter) (string, []any) {
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.CategoryID != 0 {
		conds = append(conds, "p.category_id = "+arg(f.CategoryID))
	}
	if f.MinPrice != nil {
		conds = append(conds, "p.price >= "+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		conds = append(conds, "p.price <= "+arg(*f.MaxPrice))
	}
	if f.FreeDelivery {
		conds = append(conds, "p.free_delivery")
	}
	if f.Available {
		conds = append(conds, "p.count > 0")
	}
	if name := strings.TrimSpace(f.Name); name != "" {
		conds = append(conds, "p.title ILIKE '%' || "+arg(likeEscaper.Replace(name))+" || '%'")
	}
	for _, tag := range f.Tags {
		conds = append(conds, `EXISTS (
			SELECT 1 FROM product_tags pt JOIN tags t ON t.id = pt.tag_id
			WHERE pt.product_id = p.id AND t.name = `+arg(tag)+`)`)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
