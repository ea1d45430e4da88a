package catalogservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client клиент сервиса каталога услуг
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger

	redis    redis.UniversalClient
	cacheTTL time.Duration
}

// NewClient создает новый экземпляр клиента каталога
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// UseRedisCache включает кэширование ответов в Redis
func (c *Client) UseRedisCache(client redis.UniversalClient, ttl time.Duration) {
	c.redis = client
	c.cacheTTL = ttl
}

// GetService получает услугу бизнеса
func (c *Client) GetService(ctx context.Context, businessProfileID, serviceID int64) (*Service, error) {
	key := fmt.Sprintf("catalog:service:%d:%d", businessProfileID, serviceID)

	var cached Service
	if c.getCache(ctx, key, &cached) {
		return &cached, nil
	}

	url := fmt.Sprintf("%s/internal/businesses/%d/services/%d", c.baseURL, businessProfileID, serviceID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrServiceNotFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	var service Service
	if err := json.NewDecoder(resp.Body).Decode(&service); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	c.setCache(ctx, key, &service)
	return &service, nil
}

func (c *Client) getCache(ctx context.Context, key string, out interface{}) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		c.log.Warn("catalogservice: broken cache entry %s: %v", key, err)
		return false
	}
	return true
}

func (c *Client) setCache(ctx context.Context, key string, val interface{}) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.cacheTTL).Err(); err != nil {
		c.log.Warn("catalogservice: failed to cache %s: %v", key, err)
	}
}
