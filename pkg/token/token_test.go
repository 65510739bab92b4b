package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// testSecret はテスト用の署名シークレット。
const testSecret = "test-secret-key-for-unit-tests"

// TestIssue はトークン発行を検証する。
func TestIssue(t *testing.T) {
	t.Parallel()

	t.Run("正常にトークンを生成できること", func(t *testing.T) {
		t.Parallel()

		s := NewService(testSecret, 0)
		tokenStr, err := s.Issue("test@example.com")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}
		if tokenStr == "" {
			t.Fatal("Issue()が空文字列を返した")
		}

		claims := &Claims{}
		if _, err := jwt.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) {
			return []byte(testSecret), nil
		}); err != nil {
			t.Fatalf("トークンのパースに失敗: %v", err)
		}
		if claims.Email != "test@example.com" {
			t.Errorf("Email = %q, want %q", claims.Email, "test@example.com")
		}
		if claims.Issuer != "coffee-store" {
			t.Errorf("Issuer = %q, want %q", claims.Issuer, "coffee-store")
		}
	})

	t.Run("有効期限が発行から1時間後であること", func(t *testing.T) {
		t.Parallel()

		issuedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		s := NewService(testSecret, 0, WithClock(func() time.Time { return issuedAt }))
		tokenStr, err := s.Issue("exp@example.com")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		claims := &Claims{}
		if _, _, err := new(jwt.Parser).ParseUnverified(tokenStr, claims); err != nil {
			t.Fatalf("トークンのパースに失敗: %v", err)
		}
		if got, want := claims.ExpiresAt.Time, issuedAt.Add(time.Hour); !got.Equal(want) {
			t.Errorf("ExpiresAt = %v, want %v", got, want)
		}
		if got := claims.IssuedAt.Time; !got.Equal(issuedAt) {
			t.Errorf("IssuedAt = %v, want %v", got, issuedAt)
		}
	})

	t.Run("署名アルゴリズムがHS256であること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := NewService(testSecret, 0).Issue("alg@example.com")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}
		token, _, err := new(jwt.Parser).ParseUnverified(tokenStr, &Claims{})
		if err != nil {
			t.Fatalf("トークンのパースに失敗: %v", err)
		}
		if token.Method.Alg() != "HS256" {
			t.Errorf("署名アルゴリズム = %q, want %q", token.Method.Alg(), "HS256")
		}
	})
}

// TestVerify はトークン検証を検証する。
func TestVerify(t *testing.T) {
	t.Parallel()

	t.Run("発行したトークンを検証できること", func(t *testing.T) {
		t.Parallel()

		s := NewService(testSecret, 0)
		tokenStr, err := s.Issue("ok@example.com")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}
		claims, err := s.Verify(tokenStr)
		if err != nil {
			t.Fatalf("Verify()でエラーが発生: %v", err)
		}
		if claims.Email != "ok@example.com" {
			t.Errorf("Email = %q, want %q", claims.Email, "ok@example.com")
		}
	})

	t.Run("異なるシークレットで署名されたトークンはErrInvalidTokenになること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := NewService("different-secret", 0).Issue("diff@example.com")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}
		_, err = NewService(testSecret, 0).Verify(tokenStr)
		if !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("期限切れトークンはErrExpiredTokenになること", func(t *testing.T) {
		t.Parallel()

		past := time.Now().Add(-2 * time.Hour)
		tokenStr, err := NewService(testSecret, 0, WithClock(func() time.Time { return past })).Issue("expired@example.com")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}
		_, err = NewService(testSecret, 0).Verify(tokenStr)
		if !errors.Is(err, ErrExpiredToken) {
			t.Errorf("Verify() error = %v, want ErrExpiredToken", err)
		}
	})

	t.Run("形式が不正な文字列はErrInvalidTokenになること", func(t *testing.T) {
		t.Parallel()

		_, err := NewService(testSecret, 0).Verify("invalid-token-string")
		if !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("HS256以外のアルゴリズムは拒否されること", func(t *testing.T) {
		t.Parallel()

		claims := Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			Email: "none@example.com",
		}
		tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("トークンの署名に失敗: %v", err)
		}
		_, err = NewService(testSecret, 0).Verify(tokenStr)
		if !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("メールアドレスの無いトークンは拒否されること", func(t *testing.T) {
		t.Parallel()

		claims := Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("トークンの署名に失敗: %v", err)
		}
		_, err = NewService(testSecret, 0).Verify(tokenStr)
		if !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
		}
	})
}
