package middleware_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"archieos.app/intake/internal/http/middleware"
)

var _ = Describe("Middleware", func() {
	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
	})

	Describe("Recovery", func() {
		It("converts a panic into a 500 JSON body", func() {
			router := gin.New()
			router.Use(middleware.Recovery())
			router.GET("/boom", func(c *gin.Context) { panic("kaboom") })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(w.Body.String()).To(MatchJSON(`{"error":"internal server error"}`))
		})
	})

	Describe("RequireAdminKey", func() {
		newRouter := func(key string) *gin.Engine {
			router := gin.New()
			router.POST("/op", middleware.RequireAdminKey(key), func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"ok": true})
			})
			return router
		}

		DescribeTable("authorization",
			func(key, header string, expected int) {
				req := httptest.NewRequest(http.MethodPost, "/op", nil)
				if header != "" {
					req.Header.Set("Authorization", header)
				}
				w := httptest.NewRecorder()
				newRouter(key).ServeHTTP(w, req)
				Expect(w.Code).To(Equal(expected))
			},
			Entry("no key configured", "", "", http.StatusOK),
			Entry("matching bearer", "s3cret", "Bearer s3cret", http.StatusOK),
			Entry("wrong bearer", "s3cret", "Bearer nope", http.StatusUnauthorized),
			Entry("missing header", "s3cret", "", http.StatusUnauthorized),
			Entry("wrong scheme", "s3cret", "Basic s3cret", http.StatusUnauthorized),
		)
	})
})
