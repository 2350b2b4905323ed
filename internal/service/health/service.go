package health

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/voicebridge/internal/ports"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// CheckResult represents the result of a health check
type CheckResult struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration_ms"`
	Timestamp time.Time     `json:"timestamp"`
}

// HealthResponse represents the overall health response
type HealthResponse struct {
	Status    Status                 `json:"status"`
	Version   string                 `json:"version,omitempty"`
	Uptime    string                 `json:"uptime,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// ReadyResponse represents the readiness response
type ReadyResponse struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

// Checker defines a health check function
type Checker func(ctx context.Context) CheckResult

// Service handles health checks for the bridge's dependencies: the
// confirmation store, the optional NATS mirror and the remote intent
// resolver.
type Service struct {
	store         ports.Cache
	natsURL       string
	intentBaseURL string
	http          *http.Client
	startTime     time.Time
	version       string
	checkers      map[string]Checker
	log           *zap.Logger
	mu            sync.RWMutex
}

// Config holds health service configuration
type Config struct {
	Version       string
	Store         ports.Cache
	NatsURL       string
	IntentBaseURL string
}

// NewService creates a new health service
func NewService(config *Config, log *zap.Logger) *Service {
	s := &Service{
		store:         config.Store,
		natsURL:       config.NatsURL,
		intentBaseURL: config.IntentBaseURL,
		http:          &http.Client{Timeout: 5 * time.Second},
		startTime:     time.Now(),
		version:       config.Version,
		checkers:      make(map[string]Checker),
		log:           log,
	}

	// Register default checkers
	if config.Store != nil {
		s.RegisterChecker("store", s.checkStore)
	}
	if config.NatsURL != "" {
		s.RegisterChecker("nats", s.checkNATS)
	}
	if config.IntentBaseURL != "" {
		s.RegisterChecker("intent", s.checkIntent)
	}

	return s
}

// RegisterChecker registers a custom health checker
func (s *Service) RegisterChecker(name string, checker Checker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers[name] = checker
	s.log.Info("Registered health checker", zap.String("name", name))
}

// Health performs a basic liveness check
func (s *Service) Health(ctx context.Context) *HealthResponse {
	return &HealthResponse{
		Status:    StatusHealthy,
		Version:   s.version,
		Uptime:    time.Since(s.startTime).String(),
		Timestamp: time.Now(),
	}
}

// Ready performs a comprehensive readiness check
func (s *Service) Ready(ctx context.Context) *ReadyResponse {
	s.mu.RLock()
	checkers := make(map[string]Checker, len(s.checkers))
	for k, v := range s.checkers {
		checkers[k] = v
	}
	s.mu.RUnlock()

	// Run all checks concurrently
	results := make(map[string]CheckResult)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, checker := range checkers {
		wg.Add(1)
		go func(name string, checker Checker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			result := checker(checkCtx)

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, checker)
	}

	wg.Wait()

	// Determine overall status. The intent resolver being down degrades
	// the bridge (commands fail) but the store being down blocks it.
	overallStatus := StatusHealthy
	allReady := true

	for _, result := range results {
		if result.Status == StatusUnhealthy {
			overallStatus = StatusUnhealthy
			allReady = false
		} else if result.Status == StatusDegraded && overallStatus != StatusUnhealthy {
			overallStatus = StatusDegraded
		}
	}

	return &ReadyResponse{
		Ready:     allReady,
		Status:    overallStatus,
		Timestamp: time.Now(),
		Checks:    results,
	}
}

// checkStore checks the confirmation store
func (s *Service) checkStore(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:      "store",
		Timestamp: time.Now(),
	}

	err := s.store.Ping()
	result.Duration = time.Since(start)

	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = fmt.Sprintf("ping failed: %v", err)
		s.log.Warn("Store health check failed", zap.Error(err))
	} else {
		result.Status = StatusHealthy
		result.Message = "connection ok"
	}

	return result
}

// checkNATS checks the NATS mirror configuration
func (s *Service) checkNATS(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:      "nats",
		Timestamp: time.Now(),
	}

	// The mirror is best-effort; a configured URL is enough for
	// readiness and a broken connection only degrades.
	result.Duration = time.Since(start)
	result.Status = StatusHealthy
	result.Message = "configured"

	return result
}

// checkIntent probes the remote resolver. Failure degrades rather than
// blocks: the bridge still serves snapshots and the event stream.
func (s *Service) checkIntent(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:      "intent",
		Timestamp: time.Now(),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.intentBaseURL+"/health", nil)
	if err != nil {
		result.Status = StatusDegraded
		result.Message = fmt.Sprintf("bad probe request: %v", err)
		result.Duration = time.Since(start)
		return result
	}

	resp, err := s.http.Do(req)
	result.Duration = time.Since(start)
	if err != nil {
		result.Status = StatusDegraded
		result.Message = fmt.Sprintf("unreachable: %v", err)
		s.log.Warn("Intent resolver health check failed", zap.Error(err))
		return result
	}
	resp.Body.Close()

	if resp.StatusCode >= 500 {
		result.Status = StatusDegraded
		result.Message = fmt.Sprintf("resolver returned %d", resp.StatusCode)
		return result
	}

	result.Status = StatusHealthy
	result.Message = "reachable"
	return result
}
