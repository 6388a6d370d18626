package middleware

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	// RequesterIDKey: ключ контекста Gin с ID пользователя, выполняющего запрос
	RequesterIDKey = "requester_id"
	// RequesterHeader: заголовок, в котором шлюз бронирований передаёт ID пользователя
	RequesterHeader = "X-User-ID"
	// AdminTokenHeader: заголовок с токеном для административных маршрутов
	AdminTokenHeader = "X-Admin-Token"
)

// ExtractUintParam создает middleware для извлечения и валидации числового параметра URL.
// paramName - имя параметра в URL (например, "id").
// contextKey - ключ, под которым значение будет сохранено в контексте Gin.
func ExtractUintParam(paramName, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s", paramName)})
			return
		}
		c.Set(contextKey, uint(id))
		c.Next()
	}
}

// RequireRequester извлекает ID пользователя из заголовка X-User-ID.
// Аутентификация выполняется шлюзом перед сервисом; здесь только проверка формата.
func RequireRequester() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.GetHeader(RequesterHeader), 10, 32)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid " + RequesterHeader})
			return
		}
		c.Set(RequesterIDKey, uint(id))
		c.Next()
	}
}

// RequireAdminToken пропускает запрос только с совпадающим X-Admin-Token.
// Пустой token закрывает маршруты полностью.
func RequireAdminToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader(AdminTokenHeader)
		if token == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}
