package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	r.Register(group)
	assert.Len(t, r.registrars, 1)
	r.Setup()

	w := serve(engine, http.MethodGet, "/api/v2/test/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/test/ping").Code)
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("coupons", "/coupons")
		assert.Equal(t, "coupons", g.Name())
		assert.Equal(t, "/coupons", g.Prefix())
	})

	t.Run("all methods", func(t *testing.T) {
		engine := gin.New()
		ok := func(c *gin.Context) { c.Status(http.StatusOK) }

		g := NewDomainGroup("items", "/items").
			GET("", ok).
			POST("", ok).
			PATCH("/:id", ok).
			DELETE("/:id", ok)
		g.RegisterRoutes(engine.Group("/api"))

		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/items").Code)
		assert.Equal(t, http.StatusOK, serve(engine, http.MethodPost, "/api/items").Code)
		assert.Equal(t, http.StatusOK, serve(engine, http.MethodPatch, "/api/items/1").Code)
		assert.Equal(t, http.StatusOK, serve(engine, http.MethodDelete, "/api/items/1").Code)
	})

	t.Run("middleware runs before handlers", func(t *testing.T) {
		engine := gin.New()
		var order []string

		g := NewDomainGroup("items", "/items").Use(func(c *gin.Context) {
			order = append(order, "mw")
			c.Next()
		})
		g.GET("", func(c *gin.Context) {
			order = append(order, "handler")
			c.Status(http.StatusOK)
		})
		g.RegisterRoutes(engine.Group(""))

		serve(engine, http.MethodGet, "/items")
		assert.Equal(t, []string{"mw", "handler"}, order)
	})

	t.Run("subgroup middleware does not leak to parent", func(t *testing.T) {
		engine := gin.New()
		deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusForbidden) }
		ok := func(c *gin.Context) { c.Status(http.StatusOK) }

		g := NewDomainGroup("parent", "/parent")
		g.GET("/open", ok)
		g.Group("child", "/child").Use(deny).GET("/closed", ok)
		g.RegisterRoutes(engine.Group(""))

		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/parent/open").Code)
		assert.Equal(t, http.StatusForbidden, serve(engine, http.MethodGet, "/parent/child/closed").Code)
	})

	t.Run("parent middleware applies to subgroup", func(t *testing.T) {
		engine := gin.New()
		var hits int

		g := NewDomainGroup("parent", "/parent").Use(func(c *gin.Context) {
			hits++
			c.Next()
		})
		g.Group("child", "/child").GET("", func(c *gin.Context) { c.Status(http.StatusOK) })
		g.RegisterRoutes(engine.Group(""))

		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/parent/child").Code)
		assert.Equal(t, 1, hits)
	})
}
