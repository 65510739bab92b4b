package shop

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Sohelrana2815/coffee-store-jwt/internal/docstore"
	"github.com/Sohelrana2815/coffee-store-jwt/pkg/apperr"
	"github.com/Sohelrana2815/coffee-store-jwt/pkg/event"
	"github.com/Sohelrana2815/coffee-store-jwt/pkg/middleware"
)

// publishTimeout はイベント配信1件あたりの上限時間。
const publishTimeout = 3 * time.Second

// handleListOrders は注文一覧を返す。
// ?email= を指定した場合、認証済みのメールアドレスと一致するときだけその注文を返す。
// 指定しない場合は全注文を返す。
func (s *Server) handleListOrders() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := docstore.Filter{}
		if email, ok := c.GetQuery("email"); ok {
			if email != middleware.GetEmail(c) {
				middleware.AbortWithError(c, apperr.Forbidden("他のユーザーの注文は参照できません"))
				return
			}
			filter["email"] = email
		}

		orders := []Order{}
		if err := s.orders.Find(c.Request.Context(), filter, &orders); err != nil {
			middleware.AbortWithError(c, storeError(err, "注文"))
			return
		}
		if orders == nil {
			orders = []Order{}
		}
		c.JSON(http.StatusOK, orders)
	}
}

// handleGetOrder は本人の注文を1件返す。
func (s *Server) handleGetOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := requireID(id); err != nil {
			middleware.AbortWithError(c, err)
			return
		}

		var order Order
		if err := s.orders.FindOne(c.Request.Context(), id, &order); err != nil {
			middleware.AbortWithError(c, storeError(err, "注文"))
			return
		}
		if order.Email != middleware.GetEmail(c) {
			middleware.AbortWithError(c, apperr.Forbidden("他のユーザーの注文は参照できません"))
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// handlePlaceOrder は注文を作成する。IDと作成日時はサーバーが割り当てる。
func (s *Server) handlePlaceOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req placeOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.AbortWithError(c, apperr.InvalidInput(describeBindError(err), err))
			return
		}
		if s.cfg.Auth.ProtectOrderWrites && req.Email != middleware.GetEmail(c) {
			middleware.AbortWithError(c, apperr.Forbidden("他のユーザーとして注文することはできません"))
			return
		}

		order := req.toOrder(s.now())
		res, err := s.orders.InsertOne(c.Request.Context(), order)
		if err != nil {
			middleware.AbortWithError(c, storeError(err, "注文"))
			return
		}

		s.emit(c.Request.Context(), res.InsertedID, event.TypeOrderPlaced, event.OrderPlacedData{
			Email:    order.Email,
			CoffeeID: order.CoffeeID,
			Quantity: order.Quantity,
			Status:   order.Status,
		})
		c.JSON(http.StatusOK, res)
	}
}

// handleUpdateOrderStatus は注文のステータスだけを更新する。
// 一致する注文が無い場合も200で件数0を返す。
func (s *Server) handleUpdateOrderStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := requireID(id); err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		var req updateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.AbortWithError(c, apperr.InvalidInput(describeBindError(err), err))
			return
		}
		if err := s.authorizeOrderWrite(c, id); err != nil {
			middleware.AbortWithError(c, err)
			return
		}

		res, err := s.orders.UpdateOne(c.Request.Context(), id, docstore.Fields{"status": req.Status})
		if err != nil {
			middleware.AbortWithError(c, storeError(err, "注文"))
			return
		}
		if res.ModifiedCount > 0 {
			s.emit(c.Request.Context(), id, event.TypeOrderStatusChanged, event.OrderStatusChangedData{Status: req.Status})
		}
		c.JSON(http.StatusOK, res)
	}
}

// handleDeleteOrder は注文を削除する。
// 一致する注文が無い場合も200で件数0を返す。
func (s *Server) handleDeleteOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := requireID(id); err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		if err := s.authorizeOrderWrite(c, id); err != nil {
			middleware.AbortWithError(c, err)
			return
		}

		res, err := s.orders.DeleteOne(c.Request.Context(), id)
		if err != nil {
			middleware.AbortWithError(c, storeError(err, "注文"))
			return
		}
		if res.DeletedCount > 0 {
			s.emit(c.Request.Context(), id, event.TypeOrderDeleted, event.OrderDeletedData{DeletedCount: res.DeletedCount})
		}
		c.JSON(http.StatusOK, res)
	}
}

// authorizeOrderWrite は書き込み保護が有効な場合に注文の所有者を確認する。
// 注文が存在しない場合は後続のストア操作で件数0として扱うため通す。
func (s *Server) authorizeOrderWrite(c *gin.Context, id string) error {
	if !s.cfg.Auth.ProtectOrderWrites {
		return nil
	}
	var order Order
	err := s.orders.FindOne(c.Request.Context(), id, &order, "email")
	if errors.Is(err, docstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return storeError(err, "注文")
	}
	if order.Email != middleware.GetEmail(c) {
		return apperr.Forbidden("他のユーザーの注文は変更できません")
	}
	return nil
}

// emit は注文イベントを配信する。配信の失敗はリクエストを失敗させずログに残す。
func (s *Server) emit(ctx context.Context, orderID string, typ event.Type, data any) {
	e, err := event.NewOrderEvent(orderID, typ, data)
	if err != nil {
		s.log.Error().Err(err).Str("event_type", string(typ)).Msg("イベントの生成に失敗しました")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Warn().Err(err).
			Str("event_id", e.ID).
			Str("event_type", string(typ)).
			Str("order_id", orderID).
			Msg("イベントの配信に失敗しました")
	}
}
