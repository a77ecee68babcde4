package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"mercado/internal/models"
	"mercado/internal/repositories"
)

const currencySymbol = "R$"

// EventPublisher sends domain events to a message broker. A nil publisher
// disables event delivery.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// OrderLineView is a single line of an order as presented to clients, with
// product data joined in at read time.
type OrderLineView struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Subtotal  string `json:"subtotal"`
}

// OrderView is an order as presented to clients.
type OrderView struct {
	ID        string          `json:"id"`
	BuyerID   string          `json:"buyer_id"`
	Items     []OrderLineView `json:"items"`
	Total     string          `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
}

type orderEvent struct {
	OrderID string `json:"order_id"`
	BuyerID string `json:"buyer_id"`
	Items   int    `json:"items"`
}

// OrderService handles the order lifecycle and keeps the buyer's order list
// in step with it.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	userRepo    repositories.UserRepository
	productRepo repositories.ProductRepository
	publisher   EventPublisher
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, userRepo repositories.UserRepository, productRepo repositories.ProductRepository, publisher EventPublisher) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		productRepo: productRepo,
		publisher:   publisher,
	}
}

// CreateOrder validates the buyer and every referenced product, persists the
// order and appends its id to the buyer's order list. The order document
// stores only product ids and quantities; names and prices are joined in
// when the order is read back.
func (s *OrderService) CreateOrder(buyerID string, items []models.OrderItem) (*OrderView, error) {
	if _, err := s.userRepo.GetByID(buyerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBuyerNotFound
		}
		return nil, fmt.Errorf("failed to look up buyer: %w", err)
	}

	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	normalized := make([]models.OrderItem, len(items))
	for i, item := range items {
		if item.Quantity <= 0 {
			item.Quantity = 1
		}
		normalized[i] = item
	}

	distinct := distinctProductIDs(normalized)
	products, err := s.productRepo.GetByIDs(distinct)
	if err != nil {
		return nil, fmt.Errorf("failed to look up products: %w", err)
	}
	if len(products) != len(distinct) {
		return nil, ErrInvalidLineItems
	}

	order := &models.Order{
		BuyerID: buyerID,
		Items:   normalized,
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	modified, err := s.userRepo.AppendOrderID(buyerID, order.ID)
	if err != nil || modified == 0 {
		// The order row exists but the buyer's list was not updated. Keep
		// the order and surface the inconsistency to the caller.
		log.Printf("order %s created but buyer %s was not updated: modified=%d err=%v", order.ID, buyerID, modified, err)
		return nil, ErrBackLinkFailed
	}

	s.publishEvent("order.created", order)

	view := s.buildView(order, indexProducts(products))
	return &view, nil
}

// GetOrderByID returns a single order with product data joined in. Products
// deleted since the order was placed render with an empty name and a zero
// price.
func (s *OrderService) GetOrderByID(id string) (*OrderView, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	products, err := s.productRepo.GetByIDs(distinctProductIDs(order.Items))
	if err != nil {
		return nil, fmt.Errorf("failed to look up products: %w", err)
	}

	view := s.buildView(order, indexProducts(products))
	return &view, nil
}

// GetAllOrders returns every order with product data joined in.
func (s *OrderService) GetAllOrders() ([]OrderView, error) {
	orders, err := s.orderRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}

	var allItems []models.OrderItem
	for _, order := range orders {
		allItems = append(allItems, order.Items...)
	}
	products, err := s.productRepo.GetByIDs(distinctProductIDs(allItems))
	if err != nil {
		return nil, fmt.Errorf("failed to look up products: %w", err)
	}
	byID := indexProducts(products)

	views := make([]OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, s.buildView(&orders[i], byID))
	}
	return views, nil
}

// DeleteOrder removes an order. The order id is pulled from the buyer's
// order list first; a failure there is logged and the deletion proceeds, so
// the worst outcome is a dangling id on the buyer, never a ghost order.
func (s *OrderService) DeleteOrder(id string) error {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to get order: %w", err)
	}

	if modified, err := s.userRepo.RemoveOrderID(order.BuyerID, id); err != nil || modified == 0 {
		log.Printf("order %s not removed from buyer %s list: modified=%d err=%v", id, order.BuyerID, modified, err)
	}

	if err := s.orderRepo.Delete(id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to delete order: %w", err)
	}

	s.publishEvent("order.deleted", order)
	return nil
}

func (s *OrderService) publishEvent(routingKey string, order *models.Order) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(orderEvent{
		OrderID: order.ID,
		BuyerID: order.BuyerID,
		Items:   len(order.Items),
	})
	if err != nil {
		log.Printf("failed to encode %s event for order %s: %v", routingKey, order.ID, err)
		return
	}
	if err := s.publisher.Publish("orders", routingKey, body); err != nil {
		log.Printf("failed to publish %s event for order %s: %v", routingKey, order.ID, err)
	}
}

func (s *OrderService) buildView(order *models.Order, productsByID map[string]models.Product) OrderView {
	lines := make([]OrderLineView, 0, len(order.Items))
	var total float64
	for _, item := range order.Items {
		product := productsByID[item.ProductID]
		subtotal := product.Price * float64(item.Quantity)
		total += subtotal
		lines = append(lines, OrderLineView{
			ProductID: item.ProductID,
			Name:      product.Name,
			Quantity:  item.Quantity,
			UnitPrice: formatMoney(product.Price),
			Subtotal:  formatMoney(subtotal),
		})
	}
	return OrderView{
		ID:        order.ID,
		BuyerID:   order.BuyerID,
		Items:     lines,
		Total:     formatMoney(total),
		CreatedAt: order.CreatedAt,
	}
}

func distinctProductIDs(items []models.OrderItem) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

func indexProducts(products []models.Product) map[string]models.Product {
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID
}

func formatMoney(value float64) string {
	return fmt.Sprintf("%s%.2f", currencySymbol, value)
}
