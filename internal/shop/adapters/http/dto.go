package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dejobratic/shop/internal/shop/app/queries"
	"github.com/dejobratic/shop/internal/shop/domain"
)

// looseString accepts either a JSON string or a bare number, since
// storefront clients send card fields both ways.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = looseString(str)
		return nil
	default:
		var num json.Number
		if err := json.Unmarshal(data, &num); err != nil {
			return fmt.Errorf("expected string or number: %w", err)
		}
		*s = looseString(num.String())
		return nil
	}
}

type basketItemRequest struct {
	ID    int64 `json:"id"`
	Count int   `json:"count"`
}

type deliveryDetailsRequest struct {
	DeliveryType string `json:"deliveryType"`
	PaymentType  string `json:"paymentType"`
	City         string `json:"city"`
	Address      string `json:"address"`
}

func (r deliveryDetailsRequest) toDomain() domain.DeliveryDetails {
	return domain.DeliveryDetails{
		DeliveryType: domain.DeliveryType(r.DeliveryType),
		PaymentType:  domain.PaymentType(r.PaymentType),
		City:         r.City,
		Address:      r.Address,
	}
}

type paymentRequest struct {
	Number looseString `json:"number"`
	Month  looseString `json:"month"`
	Year   looseString `json:"year"`
	Code   looseString `json:"code"`
	Name   string      `json:"name"`
}

func (r paymentRequest) toDomain() domain.CardDetails {
	return domain.CardDetails{
		Number:     string(r.Number),
		Month:      string(r.Month),
		Year:       string(r.Year),
		CVV:        string(r.Code),
		HolderName: r.Name,
	}
}

type tagResponse struct {
	Name string `json:"name"`
}

func toTagResponses(tags []string) []tagResponse {
	out := make([]tagResponse, 0, len(tags))
	for _, tag := range tags {
		out = append(out, tagResponse{Name: tag})
	}
	return out
}

type productResponse struct {
	ID           int64         `json:"id"`
	Category     int64         `json:"category"`
	Price        string        `json:"price"`
	Count        int           `json:"count"`
	Date         time.Time     `json:"date"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	FreeDelivery bool          `json:"freeDelivery"`
	Tags         []tagResponse `json:"tags"`
	Rating       float64       `json:"rating"`
}

func toProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:           p.ID,
		Category:     p.CategoryID,
		Price:        p.Price.StringFixed(2),
		Count:        p.Count,
		Date:         p.CreatedAt,
		Title:        p.Title,
		Description:  p.Description,
		FreeDelivery: p.FreeDelivery,
		Tags:         toTagResponses(p.Tags),
		Rating:       p.Rating,
	}
}

// toBasketResponse renders each line as its product with count set to the
// quantity held in the basket.
func toBasketResponse(lines []domain.BasketLine) []productResponse {
	out := make([]productResponse, 0, len(lines))
	for _, line := range lines {
		resp := toProductResponse(line.Product)
		resp.Count = line.Quantity
		out = append(out, resp)
	}
	return out
}

type pageResponse[T any] struct {
	Items       []T `json:"items"`
	CurrentPage int `json:"currentPage"`
	LastPage    int `json:"lastPage"`
}

func toPageResponse[S, T any](page *domain.Page[S], convert func(S) T) pageResponse[T] {
	items := make([]T, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, convert(item))
	}
	return pageResponse[T]{Items: items, CurrentPage: page.CurrentPage, LastPage: page.LastPage}
}

type saleResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Price     string    `json:"price"`
	SalePrice string    `json:"salePrice"`
	DateFrom  time.Time `json:"dateFrom"`
	DateTo    time.Time `json:"dateTo"`
}

func toSaleResponse(s domain.Sale) saleResponse {
	return saleResponse{
		ID:        s.Product.ID,
		Title:     s.Product.Title,
		Price:     s.Product.Price.StringFixed(2),
		SalePrice: s.SalePrice().StringFixed(2),
		DateFrom:  s.DateFrom,
		DateTo:    s.DateTo,
	}
}

type orderLineResponse struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Price string `json:"price"`
	Count int    `json:"count"`
}

type orderResponse struct {
	ID           int64               `json:"id"`
	CreatedAt    time.Time           `json:"createdAt"`
	DeliveryType string              `json:"deliveryType"`
	PaymentType  string              `json:"paymentType"`
	TotalCost    string              `json:"totalCost"`
	Status       string              `json:"status"`
	City         string              `json:"city"`
	Address      string              `json:"address"`
	PaymentError string              `json:"paymentError,omitempty"`
	Products     []orderLineResponse `json:"products"`
}

func toOrderResponse(o domain.Order) orderResponse {
	products := make([]orderLineResponse, 0, len(o.Lines))
	for _, line := range o.Lines {
		products = append(products, orderLineResponse{
			ID:    line.ProductID,
			Title: line.Title,
			Price: line.UnitPrice.StringFixed(2),
			Count: o.QuantityOf(line.ProductID),
		})
	}
	return orderResponse{
		ID:           o.ID,
		CreatedAt:    o.CreatedAt,
		DeliveryType: string(o.DeliveryType),
		PaymentType:  string(o.PaymentType),
		TotalCost:    o.TotalCost.StringFixed(2),
		Status:       string(o.Status),
		City:         o.City,
		Address:      o.Address,
		PaymentError: o.PaymentError,
		Products:     products,
	}
}

type orderIDResponse struct {
	OrderID int64 `json:"orderId"`
}

type paymentStatusResponse struct {
	Status       string `json:"status"`
	PaymentError string `json:"paymentError,omitempty"`
	Attempts     int    `json:"attempts"`
}

func toPaymentStatusResponse(s *queries.PaymentStatus) paymentStatusResponse {
	return paymentStatusResponse{
		Status:       string(s.Status),
		PaymentError: s.Error,
		Attempts:     len(s.Attempts),
	}
}

type paymentResponse struct {
	OrderID int64  `json:"orderId"`
	Status  string `json:"status"`
}
