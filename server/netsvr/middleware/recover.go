package middleware

import (
	"net/http"

	chimid "github.com/go-chi/chi/v5/middleware"
)

// Recover 直接委派 chi 的 Recoverer：panic 轉 500 並留下 stack。
// 產號工作檯自身的 panic 由 GenPool 吸收，這裡只擋 handler 層。
func Recover(next http.Handler) http.Handler {
	return chimid.Recoverer(next)
}
