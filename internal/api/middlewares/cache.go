package middleware

// This in-memory cache is used for idempotent GET responses. golang-lru
// automatically evicts the least recently accessed entries, so memory
// use stays bounded without a TTL sweep.

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	lru "github.com/hashicorp/golang-lru"
)

var cache *lru.Cache

type cachedResponse struct {
	status      int
	contentType string
	body        []byte
}

// InitializeCache sets up the in-memory LRU cache.
func InitializeCache(size int) error {
	var err error
	cache, err = lru.New(size)
	return err
}

// Caching serves repeated GET requests from the cache. Error responses
// are never cached.
func Caching(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodGet || cache == nil {
		return c.Next()
	}

	key := generateCacheKey(c)
	if hit, ok := cache.Get(key); ok {
		resp := hit.(cachedResponse)
		c.Set(fiber.HeaderContentType, resp.contentType)
		return c.Status(resp.status).Send(resp.body)
	}

	if err := c.Next(); err != nil {
		return err
	}

	status := c.Response().StatusCode()
	if status == fiber.StatusOK {
		cache.Add(key, cachedResponse{
			status:      status,
			contentType: string(c.Response().Header.ContentType()),
			body:        append([]byte(nil), c.Response().Body()...),
		})
	}
	return nil
}

func generateCacheKey(c *fiber.Ctx) string {
	return fmt.Sprintf("%s:%s?%s", c.Method(), c.Path(), string(c.Request().URI().QueryString()))
}
