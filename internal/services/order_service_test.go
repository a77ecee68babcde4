package services_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"mercado/internal/models"
	"mercado/internal/repositories"
	"mercado/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepository is a mock implementation of repositories.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) GetAll() ([]models.Order, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) Create(order *models.Order) error {
	args := m.Called(order)
	if order.ID == "" {
		order.ID = "order-1"
	}
	return args.Error(0)
}

func (m *MockOrderRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockOrderRepository) DeleteByIDs(ids []string) (int64, error) {
	args := m.Called(ids)
	return args.Get(0).(int64), args.Error(1)
}

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetAll() ([]models.Product, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(id string) (*models.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByIDs(ids []string) ([]models.Product, error) {
	args := m.Called(ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByName(name string) (*models.Product, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Create(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(id string, fields map[string]interface{}) (int64, error) {
	args := m.Called(id, fields)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

// recordingPublisher captures published events in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	exchange   string
	routingKey string
	body       []byte
}

func (p *recordingPublisher) Publish(exchange, routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{exchange, routingKey, body})
	return nil
}

func (p *recordingPublisher) routingKeys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.events))
	for _, e := range p.events {
		keys = append(keys, e.routingKey)
	}
	return keys
}

func TestOrderService_CreateOrder_BuyerNotFound(t *testing.T) {
	userRepo := new(MockUserRepository)
	productRepo := new(MockProductRepository)
	orderRepo := new(MockOrderRepository)
	service := services.NewOrderService(orderRepo, userRepo, productRepo, nil)

	userRepo.On("GetByID", "missing-buyer").Return(nil, repositories.ErrNotFound).Once()

	_, err := service.CreateOrder("missing-buyer", []models.OrderItem{{ProductID: "p1", Quantity: 1}})
	assert.ErrorIs(t, err, services.ErrBuyerNotFound)
	orderRepo.AssertNotCalled(t, "Create", mock.Anything)
	userRepo.AssertExpectations(t)
}

func TestOrderService_CreateOrder_EmptyOrder(t *testing.T) {
	userRepo := new(MockUserRepository)
	productRepo := new(MockProductRepository)
	orderRepo := new(MockOrderRepository)
	service := services.NewOrderService(orderRepo, userRepo, productRepo, nil)

	userRepo.On("GetByID", "buyer-1").Return(&models.User{ID: "buyer-1"}, nil).Once()

	_, err := service.CreateOrder("buyer-1", nil)
	assert.ErrorIs(t, err, services.ErrEmptyOrder)
	productRepo.AssertNotCalled(t, "GetByIDs", mock.Anything)
	orderRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestOrderService_CreateOrder_UnknownProduct(t *testing.T) {
	userRepo := new(MockUserRepository)
	productRepo := new(MockProductRepository)
	orderRepo := new(MockOrderRepository)
	service := services.NewOrderService(orderRepo, userRepo, productRepo, nil)

	userRepo.On("GetByID", "buyer-1").Return(&models.User{ID: "buyer-1"}, nil).Once()
	productRepo.On("GetByIDs", []string{"p1", "p2"}).
		Return([]models.Product{{ID: "p1", Name: "COFFEE", Price: 10}}, nil).Once()

	_, err := service.CreateOrder("buyer-1", []models.OrderItem{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "p2", Quantity: 1},
	})
	assert.ErrorIs(t, err, services.ErrInvalidLineItems)
	orderRepo.AssertNotCalled(t, "Create", mock.Anything)
	productRepo.AssertExpectations(t)
}

func TestOrderService_CreateOrder_Success(t *testing.T) {
	userRepo := new(MockUserRepository)
	productRepo := new(MockProductRepository)
	orderRepo := new(MockOrderRepository)
	publisher := &recordingPublisher{}
	service := services.NewOrderService(orderRepo, userRepo, productRepo, publisher)

	userRepo.On("GetByID", "buyer-1").Return(&models.User{ID: "buyer-1"}, nil).Once()
	productRepo.On("GetByIDs", []string{"p1", "p2"}).Return([]models.Product{
		{ID: "p1", Name: "COFFEE", Price: 10.5},
		{ID: "p2", Name: "TEA", Price: 4.25},
	}, nil).Once()
	orderRepo.On("Create", mock.AnythingOfType("*models.Order")).Return(nil).Once()
	userRepo.On("AppendOrderID", "buyer-1", "order-1").Return(int64(1), nil).Once()

	view, err := service.CreateOrder("buyer-1", []models.OrderItem{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2"}, // quantity omitted, defaults to 1
	})
	assert.NoError(t, err)
	assert.Equal(t, "order-1", view.ID)
	assert.Equal(t, "buyer-1", view.BuyerID)
	assert.Len(t, view.Items, 2)
	assert.Equal(t, "COFFEE", view.Items[0].Name)
	assert.Equal(t, 2, view.Items[0].Quantity)
	assert.Equal(t, "R$10.50", view.Items[0].UnitPrice)
	assert.Equal(t, "R$21.00", view.Items[0].Subtotal)
	assert.Equal(t, 1, view.Items[1].Quantity)
	assert.Equal(t, "R$25.25", view.Total)
	assert.Equal(t, []string{"order.created"}, publisher.routingKeys())

	userRepo.AssertExpectations(t)
	productRepo.AssertExpectations(t)
	orderRepo.AssertExpectations(t)
}

func TestOrderService_CreateOrder_DuplicateProductIDs(t *testing.T) {
	userRepo := new(MockUserRepository)
	productRepo := new(MockProductRepository)
	orderRepo := new(MockOrderRepository)
	service := services.NewOrderService(orderRepo, userRepo, productRepo, nil)

	userRepo.On("GetByID", "buyer-1").Return(&models.User{ID: "buyer-1"}, nil).Once()
	// Repeated line items collapse to one id for the existence check.
	productRepo.On("GetByIDs", []string{"p1"}).
		Return([]models.Product{{ID: "p1", Name: "COFFEE", Price: 10}}, nil).Once()
	orderRepo.On("Create", mock.AnythingOfType("*models.Order")).Return(nil).Once()
	userRepo.On("AppendOrderID", "buyer-1", "order-1").Return(int64(1), nil).Once()

	view, err := service.CreateOrder("buyer-1", []models.OrderItem{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "p1", Quantity: 3},
	})
	assert.NoError(t, err)
	assert.Len(t, view.Items, 2)
	assert.Equal(t, "R$40.00", view.Total)
	productRepo.AssertExpectations(t)
}

func TestOrderService_CreateOrder_BackLinkFailed(t *testing.T) {
	userRepo := new(MockUserRepository)
	productRepo := new(MockProductRepository)
	orderRepo := new(MockOrderRepository)
	publisher := &recordingPublisher{}
	service := services.NewOrderService(orderRepo, userRepo, productRepo, publisher)

	userRepo.On("GetByID", "buyer-1").Return(&models.User{ID: "buyer-1"}, nil).Once()
	productRepo.On("GetByIDs", []string{"p1"}).
		Return([]models.Product{{ID: "p1", Name: "COFFEE", Price: 10}}, nil).Once()
	orderRepo.On("Create", mock.AnythingOfType("*models.Order")).Return(nil).Once()
	// The buyer row vanished between the lookup and the back link.
	userRepo.On("AppendOrderID", "buyer-1", "order-1").Return(int64(0), nil).Once()

	_, err := service.CreateOrder("buyer-1", []models.OrderItem{{ProductID: "p1", Quantity: 1}})
	assert.ErrorIs(t, err, services.ErrBackLinkFailed)
	// The order stays; no event announces it and no delete compensates it.
	orderRepo.AssertNotCalled(t, "Delete", mock.Anything)
	assert.Empty(t, publisher.routingKeys())
	orderRepo.AssertExpectations(t)
}

func TestOrderService_GetOrderByID_MissingProductRendersEmpty(t *testing.T) {
	userRepo := new(MockUserRepository)
	productRepo := new(MockProductRepository)
	orderRepo := new(MockOrderRepository)
	service := services.NewOrderService(orderRepo, userRepo, productRepo, nil)

	order := &models.Order{
		ID:      "order-1",
		BuyerID: "buyer-1",
		Items:   []models.OrderItem{{ProductID: "p-gone", Quantity: 2}},
	}
	orderRepo.On("GetByID", "order-1").Return(order, nil).Once()
	productRepo.On("GetByIDs", []string{"p-gone"}).Return([]models.Product{}, nil).Once()

	view, err := service.GetOrderByID("order-1")
	assert.NoError(t, err)
	assert.Len(t, view.Items, 1)
	assert.Equal(t, "", view.Items[0].Name)
	assert.Equal(t, "R$0.00", view.Items[0].UnitPrice)
	assert.Equal(t, "R$0.00", view.Total)
}

func TestOrderService_GetOrderByID_NotFound(t *testing.T) {
	userRepo := new(MockUserRepository)
	productRepo := new(MockProductRepository)
	orderRepo := new(MockOrderRepository)
	service := services.NewOrderService(orderRepo, userRepo, productRepo, nil)

	orderRepo.On("GetByID", "missing").Return(nil, repositories.ErrNotFound).Once()

	_, err := service.GetOrderByID("missing")
	assert.ErrorIs(t, err, services.ErrOrderNotFound)
}

func TestOrderService_DeleteOrder(t *testing.T) {
	userRepo := new(MockUserRepository)
	productRepo := new(MockProductRepository)
	orderRepo := new(MockOrderRepository)
	publisher := &recordingPublisher{}
	service := services.NewOrderService(orderRepo, userRepo, productRepo, publisher)

	order := &models.Order{ID: "order-1", BuyerID: "buyer-1"}
	orderRepo.On("GetByID", "order-1").Return(order, nil).Once()
	userRepo.On("RemoveOrderID", "buyer-1", "order-1").Return(int64(1), nil).Once()
	orderRepo.On("Delete", "order-1").Return(nil).Once()

	err := service.DeleteOrder("order-1")
	assert.NoError(t, err)
	assert.Equal(t, []string{"order.deleted"}, publisher.routingKeys())
	orderRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestOrderService_DeleteOrder_DetachFailureStillDeletes(t *testing.T) {
	userRepo := new(MockUserRepository)
	productRepo := new(MockProductRepository)
	orderRepo := new(MockOrderRepository)
	service := services.NewOrderService(orderRepo, userRepo, productRepo, nil)

	order := &models.Order{ID: "order-1", BuyerID: "buyer-1"}
	orderRepo.On("GetByID", "order-1").Return(order, nil).Once()
	// The id was already gone from the buyer's list; the delete proceeds.
	userRepo.On("RemoveOrderID", "buyer-1", "order-1").Return(int64(0), errors.New("connection reset")).Once()
	orderRepo.On("Delete", "order-1").Return(nil).Once()

	err := service.DeleteOrder("order-1")
	assert.NoError(t, err)
	orderRepo.AssertExpectations(t)
}

func TestOrderService_DeleteOrder_NotFound(t *testing.T) {
	userRepo := new(MockUserRepository)
	productRepo := new(MockProductRepository)
	orderRepo := new(MockOrderRepository)
	service := services.NewOrderService(orderRepo, userRepo, productRepo, nil)

	orderRepo.On("GetByID", "missing").Return(nil, repositories.ErrNotFound).Once()

	err := service.DeleteOrder("missing")
	assert.ErrorIs(t, err, services.ErrOrderNotFound)
	userRepo.AssertNotCalled(t, "RemoveOrderID", mock.Anything, mock.Anything)
	orderRepo.AssertNotCalled(t, "Delete", mock.Anything)
}

func TestOrderService_CreateOrder_IndependentBuyers(t *testing.T) {
	userRepo := repositories.NewMemoryUserRepository()
	productRepo := repositories.NewMemoryProductRepository()
	orderRepo := repositories.NewMemoryOrderRepository()
	service := services.NewOrderService(orderRepo, userRepo, productRepo, nil)

	assert.NoError(t, userRepo.Create(&models.User{ID: "buyer-a", Username: "a"}))
	assert.NoError(t, userRepo.Create(&models.User{ID: "buyer-b", Username: "b"}))
	assert.NoError(t, productRepo.Create(&models.Product{ID: "p1", Name: "COFFEE", Price: 10}))
	assert.NoError(t, productRepo.Create(&models.Product{ID: "p2", Name: "TEA", Price: 4}))

	// Two buyers ordering overlapping products concurrently must not see
	// each other's outcomes.
	const perBuyer = 10
	var wg sync.WaitGroup
	for i := 0; i < perBuyer; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := service.CreateOrder("buyer-a", []models.OrderItem{
				{ProductID: "p1", Quantity: 1},
				{ProductID: "p2", Quantity: 2},
			})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := service.CreateOrder("buyer-b", []models.OrderItem{
				{ProductID: "p2", Quantity: 3},
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	buyerA, err := userRepo.GetByID("buyer-a")
	assert.NoError(t, err)
	assert.Len(t, buyerA.OrderIDs, perBuyer)

	buyerB, err := userRepo.GetByID("buyer-b")
	assert.NoError(t, err)
	assert.Len(t, buyerB.OrderIDs, perBuyer)

	orders, err := orderRepo.GetAll()
	assert.NoError(t, err)
	for _, order := range orders {
		if order.BuyerID == "buyer-a" {
			assert.Len(t, order.Items, 2)
		} else {
			assert.Len(t, order.Items, 1)
		}
	}
}

func TestOrderService_CreateOrder_ConcurrentSameBuyer(t *testing.T) {
	userRepo := repositories.NewMemoryUserRepository()
	productRepo := repositories.NewMemoryProductRepository()
	orderRepo := repositories.NewMemoryOrderRepository()
	service := services.NewOrderService(orderRepo, userRepo, productRepo, nil)

	buyer := &models.User{ID: "buyer-1", Username: "buyer"}
	assert.NoError(t, userRepo.Create(buyer))
	product := &models.Product{ID: "p1", Name: "COFFEE", Price: 10}
	assert.NoError(t, productRepo.Create(product))

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.CreateOrder("buyer-1", []models.OrderItem{{ProductID: "p1", Quantity: 1}})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, fmt.Sprintf("order %d", i))
	}

	// Every created order must appear exactly once on the buyer's list.
	stored, err := userRepo.GetByID("buyer-1")
	assert.NoError(t, err)
	assert.Len(t, stored.OrderIDs, n)

	orders, err := orderRepo.GetAll()
	assert.NoError(t, err)
	assert.Len(t, orders, n)

	seen := make(map[string]bool, n)
	for _, id := range stored.OrderIDs {
		assert.False(t, seen[id], "duplicate order id on buyer list")
		seen[id] = true
	}
}
