package http

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dejobratic/shop/internal/shop/app/queries"
	"github.com/dejobratic/shop/internal/shop/domain"
)

func (h *Handler) listCatalog(w http.ResponseWriter, r *http.Request) {
	query, err := parseCatalogQuery(r.URL.Query())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	page, err := h.service.ListCatalog(r.Context(), query)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPageResponse(page, toProductResponse))
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(*product))
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	page, err := intParam(values, "currentPage")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	limit, err := intParam(values, "limit")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	sales, err := h.service.ListSales(r.Context(), page, limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPageResponse(sales, toSaleResponse))
}

func (h *Handler) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.ListTags(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTagResponses(tags))
}

// parseCatalogQuery reads the storefront's bracketed filter parameters.
// Malformed numbers are rejected rather than ignored.
func parseCatalogQuery(values url.Values) (queries.ListCatalogQuery, error) {
	var q queries.ListCatalogQuery
	var err error

	if raw := values.Get("category"); raw != "" {
		q.Filter.CategoryID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return q, fmt.Errorf("%w: category %q", errInvalidPayload, raw)
		}
	}
	if q.Filter.MinPrice, err = decimalParam(values, "filter[minPrice]"); err != nil {
		return q, err
	}
	if q.Filter.MaxPrice, err = decimalParam(values, "filter[maxPrice]"); err != nil {
		return q, err
	}

	q.Filter.FreeDelivery = values.Get("filter[freeDelivery]") == "true"
	q.Filter.Available = values.Get("filter[available]") == "true"
	q.Filter.Name = strings.TrimSpace(values.Get("filter[name]"))

	tags := slices.Concat(values["tags[]"], values["tags"])
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			q.Filter.Tags = append(q.Filter.Tags, tag)
		}
	}

	if sort := values.Get("sort"); sort != "" {
		q.Filter.Sort = domain.ParseSortField(sort)
		q.Filter.Descending = values.Get("sortType") != "inc"
	} else {
		q.Filter.Sort = domain.SortByID
	}

	if q.Page, err = intParam(values, "currentPage"); err != nil {
		return q, err
	}
	if q.Limit, err = intParam(values, "limit"); err != nil {
		return q, err
	}
	return q, nil
}

func intParam(values url.Values, key string) (int, error) {
	raw := values.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", errInvalidPayload, key, raw)
	}
	return n, nil
}

func decimalParam(values url.Values, key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q", errInvalidPayload, key, raw)
	}
	return &d, nil
}
