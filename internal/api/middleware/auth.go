package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-TrekBookingService/internal/api/handlers"
)

type contextKey string

const (
	userIDKey  contextKey = "userID"
	isAdminKey contextKey = "isAdmin"

	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"

	roleAdmin = "admin"
)

// Auth извлекает идентификатор и роль пользователя из заголовков
// Аутентификация выполняется выше по цепочке, сервис доверяет заголовкам
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawID := r.Header.Get(headerUserID)
		if rawID == "" {
			handlers.RespondUnauthorized(w, "требуется заголовок X-User-ID")
			return
		}

		userID, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil || userID <= 0 {
			handlers.RespondUnauthorized(w, "некорректный X-User-ID")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		if r.Header.Get(headerUserRole) == roleAdmin {
			ctx = context.WithValue(ctx, isAdminKey, true)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminOnly пропускает только запросы с ролью администратора
// Должен стоять после Auth
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			handlers.RespondForbidden(w, "требуются права администратора")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserID возвращает идентификатор пользователя из контекста запроса
func GetUserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// IsAdmin возвращает true, если запрос пришёл с ролью администратора
func IsAdmin(ctx context.Context) bool {
	admin, ok := ctx.Value(isAdminKey).(bool)
	return ok && admin
}
