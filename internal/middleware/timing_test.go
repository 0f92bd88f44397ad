package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRequestTiming_SetsStartTime(t *testing.T) {
	router := gin.New()
	router.Use(RequestTiming())

	var startTime time.Time
	router.GET("/test", func(c *gin.Context) {
		val, exists := c.Get("request_start_time")
		assert.True(t, exists)
		startTime, _ = val.(time.Time)
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	before := time.Now()
	req, _ := http.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, startTime.Before(before))
}

func TestRequestTiming_StatusCodes(t *testing.T) {
	codes := []int{http.StatusOK, http.StatusBadRequest, http.StatusTooManyRequests, http.StatusInternalServerError}

	for _, code := range codes {
		code := code
		t.Run(http.StatusText(code), func(t *testing.T) {
			router := gin.New()
			router.Use(RequestTiming())
			router.GET("/test", func(c *gin.Context) {
				c.Status(code)
			})

			req, _ := http.NewRequest("GET", "/test", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, code, w.Code)
		})
	}
}

func TestRequestTiming_UnmatchedRoute(t *testing.T) {
	router := gin.New()
	router.Use(RequestTiming())

	req, _ := http.NewRequest("GET", "/nowhere", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
