package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/judyrop/shop-backend/internal/model"
	"github.com/judyrop/shop-backend/internal/store"
)

// MetricsService is read-only: aggregate queries over the live tables, cached
// for a fixed window in the injected store. The cache is never invalidated on
// writes; staleness up to the window is accepted.
type MetricsService interface {
	Overview(ctx context.Context) (MetricsOverview, error)
	Users(ctx context.Context) (UserMetrics, error)
	Products(ctx context.Context) (ProductMetrics, error)
	Orders(ctx context.Context) (OrderMetrics, error)
	Categories(ctx context.Context) ([]CategoryMetric, error)
	DailyOrders(ctx context.Context) ([]DailyOrderPoint, error)
	TopSellingProducts(ctx context.Context) ([]TopProduct, error)
	ClearCache(ctx context.Context) error
}

const (
	metricsCacheTTL    = 5 * time.Minute
	metricsCachePrefix = "metrics:"
)

type UserMetrics struct {
	TotalUsers    int64 `json:"total_users"`
	VerifiedUsers int64 `json:"verified_users"`
	NewUsers24h   int64 `json:"new_users_24h"`
	NewUsers7d    int64 `json:"new_users_7d"`
	NewUsers30d   int64 `json:"new_users_30d"`
	AdminUsers    int64 `json:"admin_users"`
	CustomerUsers int64 `json:"customer_users"`
}

type ProductMetrics struct {
	TotalProducts      int64   `json:"total_products"`
	InStockProducts    int64   `json:"in_stock_products"`
	OutOfStockProducts int64   `json:"out_of_stock_products"`
	LowStockProducts   int64   `json:"low_stock_products"`
	AveragePrice       float64 `json:"average_price"`
	MinPrice           float64 `json:"min_price"`
	MaxPrice           float64 `json:"max_price"`
	TotalStock         int64   `json:"total_stock"`
	NewProducts7d      int64   `json:"new_products_7d"`
}

type OrderMetrics struct {
	TotalOrders       int64   `json:"total_orders"`
	PendingOrders     int64   `json:"pending_orders"`
	ShippedOrders     int64   `json:"shipped_orders"`
	DeliveredOrders   int64   `json:"delivered_orders"`
	CancelledOrders   int64   `json:"cancelled_orders"`
	TotalRevenue      float64 `json:"total_revenue"`
	AverageOrderValue float64 `json:"average_order_value"`
	Orders24h         int64   `json:"orders_24h"`
	Orders7d          int64   `json:"orders_7d"`
	Orders30d         int64   `json:"orders_30d"`
}

type CategoryMetric struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	ProductCount int64   `json:"product_count"`
	TotalSales   int64   `json:"total_sales"`
	TotalRevenue float64 `json:"total_revenue"`
}

type DailyOrderPoint struct {
	Date       string  `json:"date"`
	OrderCount int64   `json:"order_count"`
	Revenue    float64 `json:"revenue"`
}

type TopProduct struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	TotalSold    int64   `json:"total_sold"`
	TotalRevenue float64 `json:"total_revenue"`
	OrderCount   int64   `json:"order_count"`
}

type MetricsOverview struct {
	Users    UserMetrics    `json:"users"`
	Products ProductMetrics `json:"products"`
	Orders   OrderMetrics   `json:"orders"`
}

type metricsService struct {
	db *gorm.DB
	kv store.Store
}

func NewMetricsService(db *gorm.DB, kv store.Store) MetricsService {
	return &metricsService{db: db, kv: kv}
}

// cached runs compute on a cache miss and stores the result for the TTL.
func cached[T any](ctx context.Context, kv store.Store, key string, compute func() (T, error)) (T, error) {
	var out T
	hit, err := kv.Get(ctx, metricsCachePrefix+key, &out)
	if err == nil && hit {
		return out, nil
	}
	out, err = compute()
	if err != nil {
		return out, err
	}
	_ = kv.Set(ctx, metricsCachePrefix+key, out, metricsCacheTTL)
	return out, nil
}

func (m *metricsService) Overview(ctx context.Context) (MetricsOverview, error) {
	users, err := m.Users(ctx)
	if err != nil {
		return MetricsOverview{}, err
	}
	products, err := m.Products(ctx)
	if err != nil {
		return MetricsOverview{}, err
	}
	orders, err := m.Orders(ctx)
	if err != nil {
		return MetricsOverview{}, err
	}
	return MetricsOverview{Users: users, Products: products, Orders: orders}, nil
}

func (m *metricsService) Users(ctx context.Context) (UserMetrics, error) {
	return cached(ctx, m.kv, "users", func() (UserMetrics, error) {
		now := time.Now()
		var out UserMetrics
		err := m.db.WithContext(ctx).Model(&model.User{}).
			Select(`COUNT(*) AS total_users,
				COUNT(CASE WHEN email_verified THEN 1 END) AS verified_users,
				COUNT(CASE WHEN created_at >= ? THEN 1 END) AS new_users24h,
				COUNT(CASE WHEN created_at >= ? THEN 1 END) AS new_users7d,
				COUNT(CASE WHEN created_at >= ? THEN 1 END) AS new_users30d,
				COUNT(CASE WHEN role = 'admin' THEN 1 END) AS admin_users,
				COUNT(CASE WHEN role = 'customer' THEN 1 END) AS customer_users`,
				now.Add(-24*time.Hour), now.Add(-7*24*time.Hour), now.Add(-30*24*time.Hour)).
			Scan(&out).Error
		return out, err
	})
}

func (m *metricsService) Products(ctx context.Context) (ProductMetrics, error) {
	return cached(ctx, m.kv, "products", func() (ProductMetrics, error) {
		var out ProductMetrics
		err := m.db.WithContext(ctx).Model(&model.Product{}).
			Select(`COUNT(*) AS total_products,
				COUNT(CASE WHEN stock > 0 THEN 1 END) AS in_stock_products,
				COUNT(CASE WHEN stock = 0 THEN 1 END) AS out_of_stock_products,
				COUNT(CASE WHEN stock < 10 THEN 1 END) AS low_stock_products,
				COALESCE(AVG(price), 0) AS average_price,
				COALESCE(MIN(price), 0) AS min_price,
				COALESCE(MAX(price), 0) AS max_price,
				COALESCE(SUM(stock), 0) AS total_stock,
				COUNT(CASE WHEN created_at >= ? THEN 1 END) AS new_products7d`,
				time.Now().Add(-7*24*time.Hour)).
			Scan(&out).Error
		return out, err
	})
}

func (m *metricsService) Orders(ctx context.Context) (OrderMetrics, error) {
	return cached(ctx, m.kv, "orders", func() (OrderMetrics, error) {
		now := time.Now()
		var out OrderMetrics
		err := m.db.WithContext(ctx).Model(&model.Order{}).
			Select(`COUNT(*) AS total_orders,
				COUNT(CASE WHEN status = 'pending' THEN 1 END) AS pending_orders,
				COUNT(CASE WHEN status = 'shipped' THEN 1 END) AS shipped_orders,
				COUNT(CASE WHEN status = 'delivered' THEN 1 END) AS delivered_orders,
				COUNT(CASE WHEN status = 'cancelled' THEN 1 END) AS cancelled_orders,
				COALESCE(SUM(total_price), 0) AS total_revenue,
				COALESCE(AVG(total_price), 0) AS average_order_value,
				COUNT(CASE WHEN created_at >= ? THEN 1 END) AS orders24h,
				COUNT(CASE WHEN created_at >= ? THEN 1 END) AS orders7d,
				COUNT(CASE WHEN created_at >= ? THEN 1 END) AS orders30d`,
				now.Add(-24*time.Hour), now.Add(-7*24*time.Hour), now.Add(-30*24*time.Hour)).
			Scan(&out).Error
		return out, err
	})
}

func (m *metricsService) Categories(ctx context.Context) ([]CategoryMetric, error) {
	return cached(ctx, m.kv, "categories", func() ([]CategoryMetric, error) {
		var out []CategoryMetric
		err := m.db.WithContext(ctx).Model(&model.Category{}).
			Select(`categories.id, categories.name,
				COUNT(DISTINCT pc.product_id) AS product_count,
				COALESCE(SUM(CASE WHEN o.status IN ('shipped', 'delivered') THEN oi.quantity END), 0) AS total_sales,
				COALESCE(SUM(CASE WHEN o.status IN ('shipped', 'delivered') THEN oi.quantity * oi.unit_price END), 0) AS total_revenue`).
			Joins("LEFT JOIN product_categories pc ON pc.category_id = categories.id").
			Joins("LEFT JOIN order_items oi ON oi.product_id = pc.product_id").
			Joins("LEFT JOIN orders o ON o.id = oi.order_id").
			Group("categories.id, categories.name").
			Order("total_revenue DESC").
			Scan(&out).Error
		return out, err
	})
}

func (m *metricsService) DailyOrders(ctx context.Context) ([]DailyOrderPoint, error) {
	return cached(ctx, m.kv, "daily_orders", func() ([]DailyOrderPoint, error) {
		var out []DailyOrderPoint
		err := m.db.WithContext(ctx).Model(&model.Order{}).
			Select(`DATE(created_at) AS date,
				COUNT(*) AS order_count,
				COALESCE(SUM(total_price), 0) AS revenue`).
			Where("created_at >= ?", time.Now().Add(-30*24*time.Hour)).
			Group("DATE(created_at)").
			Order("date ASC").
			Scan(&out).Error
		return out, err
	})
}

func (m *metricsService) TopSellingProducts(ctx context.Context) ([]TopProduct, error) {
	return cached(ctx, m.kv, "top_products", func() ([]TopProduct, error) {
		var out []TopProduct
		err := m.db.WithContext(ctx).Model(&model.Product{}).
			Select(`products.id, products.name, products.price,
				COALESCE(SUM(oi.quantity), 0) AS total_sold,
				COALESCE(SUM(oi.quantity * oi.unit_price), 0) AS total_revenue,
				COUNT(DISTINCT o.id) AS order_count`).
			Joins("JOIN order_items oi ON oi.product_id = products.id").
			Joins("JOIN orders o ON o.id = oi.order_id").
			Where("o.status IN ('shipped', 'delivered')").
			Group("products.id, products.name, products.price").
			Having("SUM(oi.quantity) > 0").
			Order("total_sold DESC").
			Limit(10).
			Scan(&out).Error
		return out, err
	})
}

func (m *metricsService) ClearCache(ctx context.Context) error {
	return m.kv.DeletePrefix(ctx, metricsCachePrefix)
}
