package handler_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"archieos.app/intake/internal/http/handler"
)

var _ = Describe("IntakeHandler", func() {
	var (
		router    *gin.Engine
		processor *mockIntakeProcessor
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		processor = &mockIntakeProcessor{}
		h := handler.NewIntakeHandler(processor, 5)

		router = gin.New()
		router.GET("/intake/process", h.Process)
		router.POST("/intake/process", h.Process)
	})

	It("uses the default batch size", func() {
		processor.pollFn = func(_ context.Context, maxMessages int) (int, error) {
			return 3, nil
		}

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/intake/process", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"ok":true,"processed":3,"max_messages":5}`))
		Expect(processor.calls).To(Equal([]int{5}))
	})

	It("reads max_messages from the query string", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/intake/process?max_messages=20", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"ok":true,"processed":0,"max_messages":20}`))
	})

	It("reads max_messages from a JSON body", func() {
		req := httptest.NewRequest(http.MethodPost, "/intake/process", bytes.NewBufferString(`{"max_messages":2}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(processor.calls).To(Equal([]int{2}))
	})

	It("ignores a non-positive max_messages", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/intake/process?max_messages=-1", nil))

		Expect(processor.calls).To(Equal([]int{5}))
	})

	It("rejects a non-numeric max_messages", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/intake/process?max_messages=abc", nil))

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(MatchJSON(`{"error":"invalid max_messages"}`))
		Expect(processor.calls).To(BeEmpty())
	})

	It("rejects a malformed JSON body", func() {
		req := httptest.NewRequest(http.MethodPost, "/intake/process", bytes.NewBufferString(`{"max_messages":"lots"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(processor.calls).To(BeEmpty())
	})

	It("caps max_messages at the limit", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/intake/process?max_messages=3000000000", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(processor.calls).To(Equal([]int{handler.MaxMessagesLimit}))
		Expect(w.Body.String()).To(MatchJSON(`{"ok":true,"processed":0,"max_messages":100}`))
	})

	It("returns 500 with the error message when the poll fails", func() {
		processor.pollFn = func(_ context.Context, _ int) (int, error) {
			return 0, errors.New("claiming intake batch: connection refused")
		}

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/intake/process", nil))

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(w.Body.String()).To(MatchJSON(`{"error":"claiming intake batch: connection refused"}`))
	})
})

var _ = Describe("HealthHandler", func() {
	It("reports the service name on GET and POST", func() {
		gin.SetMode(gin.TestMode)
		h := handler.NewHealthHandler("archieos-intake")
		router := gin.New()
		router.GET("/health", h.Check)
		router.POST("/health", h.Check)

		for _, method := range []string{http.MethodGet, http.MethodPost} {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(method, "/health", nil))
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`{"status":"ok","service":"archieos-intake"}`))
		}
	})
})
