package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole("admin"))
	assert.Equal(t, RoleEmployer, ParseRole("employer"))
	assert.Equal(t, RoleJobSeeker, ParseRole("job_seeker"))

	// unknown and empty values degrade to the least privileged role
	assert.Equal(t, RoleJobSeeker, ParseRole("superuser"))
	assert.Equal(t, RoleJobSeeker, ParseRole(""))
	assert.Equal(t, RoleJobSeeker, ParseRole("ADMIN"))
}

func TestMiddlewareAttachesIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var got Identity
	r := gin.New()
	r.Use(Middleware())
	r.GET("/x", func(c *gin.Context) {
		got = IdentityFrom(c)
	})

	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("X-User-Role", "admin")
	req.Header.Set("X-User-Email", "ops@kozi.rw")
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, RoleAdmin, got.Role)
	assert.Equal(t, "ops@kozi.rw", got.Email)
	assert.True(t, got.Verified)
	assert.True(t, got.IsAdmin())
}

func TestMiddlewareDefaultsWithoutHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var got Identity
	r := gin.New()
	r.Use(Middleware())
	r.GET("/x", func(c *gin.Context) {
		got = IdentityFrom(c)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/x", nil))

	assert.Equal(t, RoleJobSeeker, got.Role)
	assert.False(t, got.Verified)
	assert.False(t, got.IsAdmin())
}

func TestIdentityFromWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	id := IdentityFrom(c)
	assert.Equal(t, RoleJobSeeker, id.Role)
}
