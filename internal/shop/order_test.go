package shop

import (
	"net/http"
	"testing"

	"github.com/Sohelrana2815/coffee-store-jwt/internal/config"
	"github.com/Sohelrana2815/coffee-store-jwt/internal/docstore"
	"github.com/Sohelrana2815/coffee-store-jwt/pkg/event"
)

// placeOrder はPOST /orders で注文を作成してIDを返す。
func placeOrder(t *testing.T, env *testEnv, body map[string]any, cookies ...*http.Cookie) string {
	t.Helper()

	w := env.do(t, http.MethodPost, "/orders", body, cookies...)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /orders のステータスコード = %d, want %d (body=%s)", w.Code, http.StatusOK, w.Body.String())
	}
	res := decode[docstore.InsertResult](t, w)
	if !res.Acknowledged || !docstore.ValidID(res.InsertedID) {
		t.Fatalf("作成結果 = %+v", res)
	}
	return res.InsertedID
}

func orderBody(email string) map[string]any {
	return map[string]any{
		"email":        email,
		"customerName": "Aiko",
		"coffeeId":     docstore.NewID(),
		"coffeeName":   "Latte",
		"price":        4.5,
		"quantity":     2,
		"address":      "Tokyo",
		"phone":        "000-0000",
	}
}

// TestListOrders は注文一覧の認証と所有者チェックを検証する。
func TestListOrders(t *testing.T) {
	t.Parallel()

	env := setupTestServer(t)
	idA := placeOrder(t, env, orderBody("a@example.com"))
	placeOrder(t, env, orderBody("b@example.com"))
	cookieA := env.login(t, "a@example.com")

	tests := []struct {
		name      string
		path      string
		cookie    *http.Cookie
		wantCode  int
		wantCount int
	}{
		{name: "本人のメールアドレスなら200", path: "/orders?email=a@example.com", cookie: cookieA, wantCode: http.StatusOK, wantCount: 1},
		{name: "他人のメールアドレスは403", path: "/orders?email=b@example.com", cookie: cookieA, wantCode: http.StatusForbidden},
		{name: "空のメールアドレスは403", path: "/orders?email=", cookie: cookieA, wantCode: http.StatusForbidden},
		{name: "emailを指定しなければ全件", path: "/orders", cookie: cookieA, wantCode: http.StatusOK, wantCount: 2},
		{name: "トークンなしは401", path: "/orders?email=a@example.com", wantCode: http.StatusUnauthorized},
		{name: "トークンなしは他人指定でも401", path: "/orders?email=b@example.com", wantCode: http.StatusUnauthorized},
		{name: "改ざんされたトークンは401", path: "/orders?email=a@example.com", cookie: &http.Cookie{Name: "token", Value: cookieA.Value + "x"}, wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var cookies []*http.Cookie
			if tt.cookie != nil {
				cookies = append(cookies, tt.cookie)
			}
			w := env.do(t, http.MethodGet, tt.path, nil, cookies...)
			if w.Code != tt.wantCode {
				t.Fatalf("ステータスコード = %d, want %d (body=%s)", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				if body := decode[map[string]string](t, w); body["error"] == "" {
					t.Errorf("エラーメッセージが無い: %v", body)
				}
				return
			}
			orders := decode[[]Order](t, w)
			if len(orders) != tt.wantCount {
				t.Errorf("件数 = %d, want %d", len(orders), tt.wantCount)
			}
		})
	}

	t.Run("作成した注文がIDと既定値付きで返ること", func(t *testing.T) {
		t.Parallel()

		w := env.do(t, http.MethodGet, "/orders?email=a@example.com", nil, cookieA)
		orders := decode[[]Order](t, w)
		if len(orders) != 1 {
			t.Fatalf("件数 = %d, want 1", len(orders))
		}
		o := orders[0]
		if o.ID != idA || o.Email != "a@example.com" || o.Quantity != 2 || o.CoffeeName != "Latte" {
			t.Errorf("注文 = %+v", o)
		}
		if o.Status != "pending" || o.CreatedAt.IsZero() {
			t.Errorf("Status = %q, CreatedAt = %v, want pending / 非ゼロ", o.Status, o.CreatedAt)
		}
	})
}

// TestGetOrder は注文詳細の所有者チェックを検証する。
func TestGetOrder(t *testing.T) {
	t.Parallel()

	env := setupTestServer(t)
	id := placeOrder(t, env, orderBody("a@example.com"))
	cookieA := env.login(t, "a@example.com")
	cookieB := env.login(t, "b@example.com")

	tests := []struct {
		name     string
		path     string
		cookie   *http.Cookie
		wantCode int
	}{
		{name: "本人なら200", path: "/orders/" + id, cookie: cookieA, wantCode: http.StatusOK},
		{name: "他人は403", path: "/orders/" + id, cookie: cookieB, wantCode: http.StatusForbidden},
		{name: "存在しなければ404", path: "/orders/" + docstore.NewID(), cookie: cookieA, wantCode: http.StatusNotFound},
		{name: "不正なIDは400", path: "/orders/xyz", cookie: cookieA, wantCode: http.StatusBadRequest},
		{name: "トークンなしは401", path: "/orders/" + id, wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var cookies []*http.Cookie
			if tt.cookie != nil {
				cookies = append(cookies, tt.cookie)
			}
			w := env.do(t, http.MethodGet, tt.path, nil, cookies...)
			if w.Code != tt.wantCode {
				t.Errorf("ステータスコード = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

// TestPlaceOrder は注文作成の入力検証とイベント配信を検証する。
func TestPlaceOrder(t *testing.T) {
	t.Parallel()

	t.Run("作成するとOrderPlacedを配信すること", func(t *testing.T) {
		t.Parallel()

		env := setupTestServer(t)
		id := placeOrder(t, env, map[string]any{"email": "a@example.com", "coffeeId": docstore.NewID()})

		if got := env.events.types(); len(got) != 1 || got[0] != event.TypeOrderPlaced {
			t.Fatalf("配信されたイベント = %v, want [OrderPlaced]", got)
		}
		e := env.events.events[0]
		if e.AggregateID != id {
			t.Errorf("AggregateID = %q, want %q", e.AggregateID, id)
		}
		data, err := event.DecodeData[event.OrderPlacedData](e)
		if err != nil {
			t.Fatalf("DecodeData()でエラーが発生: %v", err)
		}
		if data.Quantity != 1 || data.Status != "pending" {
			t.Errorf("データ = %+v, want quantity 1 / pending", data)
		}
	})

	t.Run("指定したステータスを保存すること", func(t *testing.T) {
		t.Parallel()

		env := setupTestServer(t)
		body := orderBody("a@example.com")
		body["status"] = "confirmed"
		id := placeOrder(t, env, body)

		var got Order
		if err := env.store.Collection(ordersCollection).FindOne(t.Context(), id, &got); err != nil {
			t.Fatalf("FindOne()でエラーが発生: %v", err)
		}
		if got.Status != "confirmed" {
			t.Errorf("Status = %q, want confirmed", got.Status)
		}
	})

	t.Run("配信に失敗しても注文は作成されること", func(t *testing.T) {
		t.Parallel()

		env := setupTestServer(t)
		env.events.err = errStoreDown
		placeOrder(t, env, orderBody("a@example.com"))
	})

	invalid := []struct {
		name string
		body any
	}{
		{name: "メールアドレスなし", body: map[string]any{"coffeeId": docstore.NewID()}},
		{name: "メールアドレスが不正", body: map[string]any{"email": "nope", "coffeeId": docstore.NewID()}},
		{name: "商品IDなし", body: map[string]any{"email": "a@example.com"}},
		{name: "商品IDが不正", body: map[string]any{"email": "a@example.com", "coffeeId": "123"}},
		{name: "数量が0", body: map[string]any{"email": "a@example.com", "coffeeId": docstore.NewID(), "quantity": 0}},
		{name: "価格が負", body: map[string]any{"email": "a@example.com", "coffeeId": docstore.NewID(), "price": -1}},
		{name: "数量が文字列", body: map[string]any{"email": "a@example.com", "coffeeId": docstore.NewID(), "quantity": "two"}},
		{name: "JSONが不正", body: "not json"},
	}
	for _, tt := range invalid {
		t.Run(tt.name+"は400", func(t *testing.T) {
			t.Parallel()

			env := setupTestServer(t)
			w := env.do(t, http.MethodPost, "/orders", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("ステータスコード = %d, want %d (body=%s)", w.Code, http.StatusBadRequest, w.Body.String())
			}
			if len(env.events.types()) != 0 {
				t.Error("不正な入力でイベントが配信されている")
			}
		})
	}
}

// TestUpdateOrderStatus はステータス更新を検証する。
func TestUpdateOrderStatus(t *testing.T) {
	t.Parallel()

	t.Run("ステータスだけが変わること", func(t *testing.T) {
		t.Parallel()

		env := setupTestServer(t)
		id := placeOrder(t, env, orderBody("a@example.com"))
		var before Order
		if err := env.store.Collection(ordersCollection).FindOne(t.Context(), id, &before); err != nil {
			t.Fatalf("FindOne()でエラーが発生: %v", err)
		}

		w := env.do(t, http.MethodPatch, "/orders/"+id, map[string]any{"status": "delivered", "email": "evil@example.com"})
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		res := decode[docstore.UpdateResult](t, w)
		if !res.Acknowledged || res.MatchedCount != 1 || res.ModifiedCount != 1 || res.UpsertedID != nil {
			t.Errorf("更新結果 = %+v", res)
		}

		var after Order
		if err := env.store.Collection(ordersCollection).FindOne(t.Context(), id, &after); err != nil {
			t.Fatalf("FindOne()でエラーが発生: %v", err)
		}
		if after.Status != "delivered" {
			t.Errorf("Status = %q, want delivered", after.Status)
		}
		before.Status = after.Status
		if before != after {
			t.Errorf("ステータス以外が変わっている: before=%+v after=%+v", before, after)
		}

		if got := env.events.types(); len(got) != 2 || got[1] != event.TypeOrderStatusChanged {
			t.Errorf("配信されたイベント = %v", got)
		}
	})

	t.Run("同じステータスならイベントを配信しないこと", func(t *testing.T) {
		t.Parallel()

		env := setupTestServer(t)
		id := placeOrder(t, env, orderBody("a@example.com"))
		w := env.do(t, http.MethodPatch, "/orders/"+id, map[string]any{"status": "pending"})
		res := decode[docstore.UpdateResult](t, w)
		if res.MatchedCount != 1 || res.ModifiedCount != 0 {
			t.Errorf("更新結果 = %+v, want matched 1 / modified 0", res)
		}
		if got := env.events.types(); len(got) != 1 {
			t.Errorf("配信されたイベント = %v, want OrderPlaced のみ", got)
		}
	})

	t.Run("存在しない注文は件数0で200", func(t *testing.T) {
		t.Parallel()

		env := setupTestServer(t)
		w := env.do(t, http.MethodPatch, "/orders/"+docstore.NewID(), map[string]any{"status": "delivered"})
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if res := decode[docstore.UpdateResult](t, w); res.MatchedCount != 0 {
			t.Errorf("MatchedCount = %d, want 0", res.MatchedCount)
		}
	})

	invalid := []struct {
		name string
		path string
		body any
		want int
	}{
		{name: "不正なID", path: "/orders/abc", body: map[string]any{"status": "delivered"}, want: http.StatusBadRequest},
		{name: "ステータスなし", path: "/orders/" + docstore.NewID(), body: map[string]any{}, want: http.StatusBadRequest},
		{name: "ステータスが空", path: "/orders/" + docstore.NewID(), body: map[string]any{"status": ""}, want: http.StatusBadRequest},
		{name: "ステータスが数値", path: "/orders/" + docstore.NewID(), body: map[string]any{"status": 3}, want: http.StatusBadRequest},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := setupTestServer(t)
			w := env.do(t, http.MethodPatch, tt.path, tt.body)
			if w.Code != tt.want {
				t.Errorf("ステータスコード = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

// TestDeleteOrder は削除と2回目の削除を検証する。
func TestDeleteOrder(t *testing.T) {
	t.Parallel()

	env := setupTestServer(t)
	id := placeOrder(t, env, orderBody("a@example.com"))
	cookie := env.login(t, "a@example.com")

	w := env.do(t, http.MethodDelete, "/orders/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
	}
	if res := decode[docstore.DeleteResult](t, w); !res.Acknowledged || res.DeletedCount != 1 {
		t.Errorf("削除結果 = %+v, want deletedCount 1", res)
	}

	if w := env.do(t, http.MethodGet, "/orders/"+id, nil, cookie); w.Code != http.StatusNotFound {
		t.Errorf("削除後の取得のステータスコード = %d, want %d", w.Code, http.StatusNotFound)
	}

	w = env.do(t, http.MethodDelete, "/orders/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("2回目のステータスコード = %d, want %d", w.Code, http.StatusOK)
	}
	if res := decode[docstore.DeleteResult](t, w); res.DeletedCount != 0 {
		t.Errorf("2回目の削除件数 = %d, want 0", res.DeletedCount)
	}

	if got := env.events.types(); len(got) != 2 || got[1] != event.TypeOrderDeleted {
		t.Errorf("配信されたイベント = %v, want [OrderPlaced OrderDeleted]", got)
	}

	if w := env.do(t, http.MethodDelete, "/orders/zzz", nil); w.Code != http.StatusBadRequest {
		t.Errorf("不正なIDのステータスコード = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// TestProtectOrderWrites は注文の書き込み保護を有効にした場合を検証する。
func TestProtectOrderWrites(t *testing.T) {
	t.Parallel()

	protect := func(c *config.Config) { c.Auth.ProtectOrderWrites = true }

	t.Run("トークンなしの書き込みは401", func(t *testing.T) {
		t.Parallel()

		env := setupTestServer(t, protect)
		id := docstore.NewID()
		for _, req := range []struct {
			method string
			path   string
			body   any
		}{
			{http.MethodPost, "/orders", orderBody("a@example.com")},
			{http.MethodPatch, "/orders/" + id, map[string]any{"status": "x"}},
			{http.MethodDelete, "/orders/" + id, nil},
		} {
			if w := env.do(t, req.method, req.path, req.body); w.Code != http.StatusUnauthorized {
				t.Errorf("%s %s のステータスコード = %d, want %d", req.method, req.path, w.Code, http.StatusUnauthorized)
			}
		}
	})

	t.Run("本人の注文だけ作成・変更できること", func(t *testing.T) {
		t.Parallel()

		env := setupTestServer(t, protect)
		cookieA := env.login(t, "a@example.com")
		cookieB := env.login(t, "b@example.com")

		if w := env.do(t, http.MethodPost, "/orders", orderBody("a@example.com"), cookieB); w.Code != http.StatusForbidden {
			t.Errorf("他人名義の作成のステータスコード = %d, want %d", w.Code, http.StatusForbidden)
		}
		id := placeOrder(t, env, orderBody("a@example.com"), cookieA)

		if w := env.do(t, http.MethodPatch, "/orders/"+id, map[string]any{"status": "x"}, cookieB); w.Code != http.StatusForbidden {
			t.Errorf("他人の更新のステータスコード = %d, want %d", w.Code, http.StatusForbidden)
		}
		if w := env.do(t, http.MethodDelete, "/orders/"+id, nil, cookieB); w.Code != http.StatusForbidden {
			t.Errorf("他人の削除のステータスコード = %d, want %d", w.Code, http.StatusForbidden)
		}
		if w := env.do(t, http.MethodPatch, "/orders/"+id, map[string]any{"status": "x"}, cookieA); w.Code != http.StatusOK {
			t.Errorf("本人の更新のステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if w := env.do(t, http.MethodDelete, "/orders/"+id, nil, cookieA); w.Code != http.StatusOK {
			t.Errorf("本人の削除のステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
	})
}
