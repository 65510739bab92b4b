package shop

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Sohelrana2815/coffee-store-jwt/internal/docstore"
)

var registerOnce sync.Once

// registerValidators はGinのバリデータに独自ルールを登録する。
// エラーのフィールド名にはJSONのキー名を使う。
//
//	objectid: 24桁の16進数のドキュメントID
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
			return docstore.ValidID(fl.Field().String())
		})
	})
}

// describeBindError はバインドエラーをクライアント向けの文言にする。
func describeBindError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "リクエストボディのJSONが不正です"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
	}
	return "入力が不正です: " + strings.Join(parts, ", ")
}
