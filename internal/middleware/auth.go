package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const shopContextKey = "shop"

// SessionTokenClaims are the claims of a Shopify App Bridge session token.
type SessionTokenClaims struct {
	Dest string `json:"dest"`
	Sid  string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// SessionTokenAuth verifies the "Authorization: Bearer <token>" App Bridge token
// and stores the authenticated shop domain on the context.
func SessionTokenAuth(apiKey, apiSecret string) echo.MiddlewareFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(apiKey),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(5*time.Second),
	)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing session token")
			}

			claims := &SessionTokenClaims{}
			_, err := parser.ParseWithClaims(strings.TrimSpace(raw), claims, func(*jwt.Token) (interface{}, error) {
				return []byte(apiSecret), nil
			})
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid session token")
			}

			shop := strings.ToLower(strings.TrimPrefix(claims.Dest, "https://"))
			if shop == "" || strings.Contains(shop, "/") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid session token")
			}

			c.Set(shopContextKey, shop)
			return next(c)
		}
	}
}

// ShopFromContext returns the shop set by SessionTokenAuth.
func ShopFromContext(c echo.Context) string {
	shop, _ := c.Get(shopContextKey).(string)
	return shop
}
