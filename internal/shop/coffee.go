package shop

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sohelrana2815/coffee-store-jwt/internal/docstore"
	"github.com/Sohelrana2815/coffee-store-jwt/pkg/middleware"
)

// handleListCoffees は全商品を保存されたドキュメントのまま返す。
// 型を固定しないため、未知のフィールドや型の揺れがあっても一覧全体は失敗しない。
func (s *Server) handleListCoffees() gin.HandlerFunc {
	return func(c *gin.Context) {
		products := []map[string]any{}
		if err := s.coffees.Find(c.Request.Context(), nil, &products); err != nil {
			middleware.AbortWithError(c, storeError(err, "商品"))
			return
		}
		if products == nil {
			products = []map[string]any{}
		}
		c.JSON(http.StatusOK, products)
	}
}

// handleGetCoffee は商品の名前・価格・画像URLだけを返す。
// 存在しない場合は200で空オブジェクトを返す。
func (s *Server) handleGetCoffee() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := requireID(id); err != nil {
			middleware.AbortWithError(c, err)
			return
		}

		var summary ProductSummary
		err := s.coffees.FindOne(c.Request.Context(), id, &summary, productSummaryFields...)
		if errors.Is(err, docstore.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		if err != nil {
			middleware.AbortWithError(c, storeError(err, "商品"))
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}
