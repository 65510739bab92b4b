package shop

import "time"

// コレクション名。
const (
	coffeesCollection = "coffees"
	ordersCollection  = "orders"
)

// defaultOrderStatus は作成時にステータスが無い注文に設定する値。
const defaultOrderStatus = "pending"

// Product は商品ドキュメント。HTTPからは参照のみ。
type Product struct {
	ID       string  `json:"_id,omitempty" bson:"_id,omitempty"`
	Name     string  `json:"name" bson:"name"`
	Chef     string  `json:"chef,omitempty" bson:"chef,omitempty"`
	Supplier string  `json:"supplier,omitempty" bson:"supplier,omitempty"`
	Taste    string  `json:"taste,omitempty" bson:"taste,omitempty"`
	Category string  `json:"category,omitempty" bson:"category,omitempty"`
	Details  string  `json:"details,omitempty" bson:"details,omitempty"`
	Price    float64 `json:"price" bson:"price"`
	PhotoURL string  `json:"photoURL" bson:"photoURL"`
}

// ProductSummary はGET /coffees/:id が返す射影。
type ProductSummary struct {
	Name     string  `json:"name" bson:"name"`
	Price    float64 `json:"price" bson:"price"`
	PhotoURL string  `json:"photoURL" bson:"photoURL"`
}

// productSummaryFields はProductSummaryに対応する射影フィールド。
var productSummaryFields = []string{"name", "price", "photoURL"}

// Order は注文ドキュメント。作成後に変更されるのはStatusだけ。
type Order struct {
	ID           string    `json:"_id,omitempty" bson:"_id,omitempty"`
	Email        string    `json:"email" bson:"email"`
	CustomerName string    `json:"customerName,omitempty" bson:"customerName,omitempty"`
	CoffeeID     string    `json:"coffeeId" bson:"coffeeId"`
	CoffeeName   string    `json:"coffeeName,omitempty" bson:"coffeeName,omitempty"`
	Price        float64   `json:"price" bson:"price"`
	Quantity     int       `json:"quantity" bson:"quantity"`
	Address      string    `json:"address,omitempty" bson:"address,omitempty"`
	Phone        string    `json:"phone,omitempty" bson:"phone,omitempty"`
	Status       string    `json:"status" bson:"status"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// placeOrderRequest は注文作成リクエスト。未知のフィールドは無視する。
type placeOrderRequest struct {
	Email        string  `json:"email" binding:"required,email"`
	CustomerName string  `json:"customerName" binding:"max=200"`
	CoffeeID     string  `json:"coffeeId" binding:"required,objectid"`
	CoffeeName   string  `json:"coffeeName" binding:"max=200"`
	Price        float64 `json:"price" binding:"gte=0"`
	// Quantity は省略時に1として扱う。
	Quantity *int   `json:"quantity" binding:"omitempty,gte=1"`
	Address  string `json:"address" binding:"max=500"`
	Phone    string `json:"phone" binding:"max=50"`
	Status   string `json:"status" binding:"max=64"`
}

// toOrder はリクエストから保存する注文を組み立てる。
func (r placeOrderRequest) toOrder(now time.Time) Order {
	o := Order{
		Email:        r.Email,
		CustomerName: r.CustomerName,
		CoffeeID:     r.CoffeeID,
		CoffeeName:   r.CoffeeName,
		Price:        r.Price,
		Quantity:     1,
		Address:      r.Address,
		Phone:        r.Phone,
		Status:       r.Status,
		CreatedAt:    now.UTC(),
	}
	if r.Quantity != nil {
		o.Quantity = *r.Quantity
	}
	if o.Status == "" {
		o.Status = defaultOrderStatus
	}
	return o
}

// updateStatusRequest は注文ステータス更新リクエスト。
type updateStatusRequest struct {
	Status string `json:"status" binding:"required,max=64"`
}

// issueTokenRequest はトークン発行リクエスト。
type issueTokenRequest struct {
	Email string `json:"email" binding:"required,email"`
}
