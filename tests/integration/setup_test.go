package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// TestEnv holds test environment resources
type TestEnv struct {
	RedisURL       string
	RedisContainer testcontainers.Container
	Logger         *zap.Logger
	ctx            context.Context
}

var testEnv *TestEnv

// SetupTestEnvironment initializes the test environment. A REDIS_URL
// env var points at an external instance (CI); otherwise a container
// is started.
func SetupTestEnvironment(t *testing.T) *TestEnv {
	if testEnv != nil {
		return testEnv
	}

	ctx := context.Background()
	logger, _ := zap.NewDevelopment()

	if url := os.Getenv("REDIS_URL"); url != "" {
		testEnv = &TestEnv{
			RedisURL: url,
			Logger:   logger,
			ctx:      ctx,
		}
		return testEnv
	}

	redisContainer, err := tcredis.Run(ctx, "redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start redis container: %v", err)
	}

	redisHost, err := redisContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get redis host: %v", err)
	}
	redisPort, err := redisContainer.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get redis port: %v", err)
	}

	testEnv = &TestEnv{
		RedisURL:       fmt.Sprintf("redis://%s:%s", redisHost, redisPort.Port()),
		RedisContainer: redisContainer,
		Logger:         logger,
		ctx:            ctx,
	}
	return testEnv
}

// TeardownTestEnvironment cleans up the test environment
func TeardownTestEnvironment(t *testing.T) {
	if testEnv == nil {
		return
	}

	ctx := context.Background()
	if testEnv.RedisContainer != nil {
		if err := testEnv.RedisContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate redis container: %v", err)
		}
	}
	testEnv = nil
}

// FlushRedis clears all Redis keys
func FlushRedis(t *testing.T, url string) {
	opt, err := goredis.ParseURL(url)
	if err != nil {
		t.Fatalf("Failed to parse redis url: %v", err)
	}
	client := goredis.NewClient(opt)
	defer client.Close()

	if err := client.FlushAll(context.Background()).Err(); err != nil {
		t.Fatalf("Failed to flush redis: %v", err)
	}
}
