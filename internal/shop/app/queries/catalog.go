package queries

import (
	"context"

	"github.com/dejobratic/shop/internal/shop/domain"
	"github.com/dejobratic/shop/internal/shop/ports"
)

type ListCatalogQuery struct {
	Filter domain.CatalogFilter
	Page   int
	Limit  int
}

type ListCatalogQueryHandler struct {
	products ports.ProductRepository
}

func NewListCatalogQueryHandler(products ports.ProductRepository) *ListCatalogQueryHandler {
	return &ListCatalogQueryHandler{products: products}
}

// Handle returns one page of matching products. Pages past the end are
// clamped to the last page.
func (h *ListCatalogQueryHandler) Handle(ctx context.Context, query ListCatalogQuery) (*domain.Page[domain.Product], error) {
	total, err := h.products.Count(ctx, query.Filter)
	if err != nil {
		return nil, err
	}

	limit := domain.ClampLimit(query.Limit)
	current, last, offset := domain.Paginate(total, query.Page, limit)

	items, err := h.products.List(ctx, query.Filter, limit, offset)
	if err != nil {
		return nil, err
	}

	return &domain.Page[domain.Product]{
		Items:       items,
		CurrentPage: current,
		LastPage:    last,
	}, nil
}

type GetProductQuery struct {
	ProductID int64
}

type GetProductQueryHandler struct {
	products ports.ProductRepository
}

func NewGetProductQueryHandler(products ports.ProductRepository) *GetProductQueryHandler {
	return &GetProductQueryHandler{products: products}
}

func (h *GetProductQueryHandler) Handle(ctx context.Context, query GetProductQuery) (*domain.Product, error) {
	return h.products.GetByID(ctx, query.ProductID)
}

type ListSalesQuery struct {
	Page  int
	Limit int
}

type ListSalesQueryHandler struct {
	products ports.ProductRepository
}

func NewListSalesQueryHandler(products ports.ProductRepository) *ListSalesQueryHandler {
	return &ListSalesQueryHandler{products: products}
}

func (h *ListSalesQueryHandler) Handle(ctx context.Context, query ListSalesQuery) (*domain.Page[domain.Sale], error) {
	total, err := h.products.CountSales(ctx)
	if err != nil {
		return nil, err
	}

	limit := domain.ClampLimit(query.Limit)
	current, last, offset := domain.Paginate(total, query.Page, limit)

	items, err := h.products.ListSales(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	return &domain.Page[domain.Sale]{
		Items:       items,
		CurrentPage: current,
		LastPage:    last,
	}, nil
}

type ListTagsQueryHandler struct {
	products ports.ProductRepository
}

func NewListTagsQueryHandler(products ports.ProductRepository) *ListTagsQueryHandler {
	return &ListTagsQueryHandler{products: products}
}

func (h *ListTagsQueryHandler) Handle(ctx context.Context) ([]string, error) {
	return h.products.ListTags(ctx)
}

