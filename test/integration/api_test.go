package integration_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/teamnewpipe/np-web-api/internal/application/services"
	"github.com/teamnewpipe/np-web-api/internal/core/domain/apidata"
	"github.com/teamnewpipe/np-web-api/internal/core/ports"
	"github.com/teamnewpipe/np-web-api/internal/infrastructure/health"
	"github.com/teamnewpipe/np-web-api/internal/infrastructure/httpserver"
	"github.com/teamnewpipe/np-web-api/internal/infrastructure/memstore"
	"github.com/teamnewpipe/np-web-api/internal/infrastructure/metrics"
	"github.com/teamnewpipe/np-web-api/internal/infrastructure/sources"
	tmocks "github.com/teamnewpipe/np-web-api/test/mocks"
)

const repoJSON = `{"stargazers_count":27000,"subscribers_count":400,"forks_count":2800}`

const repoPage = `<html><body><a href="/TeamNewPipe/NewPipe/graphs/contributors">Contributors <span title="1,024" class="Counter">1k</span></a></body></html>`

const indexJSON = `{
  "apps": [{"packageName": "org.schabi.newpipe", "suggestedVersionName": "0.27.0", "suggestedVersionCode": "997"}],
  "packages": {"org.schabi.newpipe": [
    {"versionName": "0.27.0", "versionCode": 997, "apkName": "org.schabi.newpipe_997.apk", "hash": "aaa", "hashType": "sha256"}
  ]}
}`

const metadataYAML = "CurrentVersion: 0.27.0\nCurrentVersionCode: 997\n"

// IntegrationTestSuite runs the whole stack in process against fake upstreams.
type IntegrationTestSuite struct {
	suite.Suite
	upstream  *httptest.Server
	failing   atomic.Bool
	repoHits  atomic.Int64
	clock     *tmocks.ClockMock
	reporter  *tmocks.ErrorReporterMock
	handler   http.Handler
	startTime time.Time
}

func (s *IntegrationTestSuite) SetupTest() {
	s.failing.Store(false)
	s.repoHits.Store(0)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/repos/TeamNewPipe/NewPipe", func(w http.ResponseWriter, r *http.Request) {
		s.repoHits.Add(1)
		if s.failing.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(repoJSON))
	})
	mux.HandleFunc("/web/TeamNewPipe/NewPipe", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(repoPage))
	})
	mux.HandleFunc("/weblate/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"count": 95}`))
	})
	mux.HandleFunc("/repo/index-v1.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(indexJSON))
	})
	mux.HandleFunc("/metadata.yml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(metadataYAML))
	})
	s.upstream = httptest.NewServer(mux)

	client := sources.NewClient(&sources.ClientConfig{Timeout: 5 * time.Second, RequestsPerSecond: 1000, Burst: 100}, nil)
	s.reporter = &tmocks.ErrorReporterMock{}
	aggregator := sources.NewAggregator(client, &sources.Config{
		GitHubAPIURL:    s.upstream.URL + "/api",
		GitHubWebURL:    s.upstream.URL + "/web",
		GitHubRepo:      "TeamNewPipe/NewPipe",
		TranslationsURL: s.upstream.URL + "/weblate/",
		Package:         "org.schabi.newpipe",
		NewPipeRepoURL:  s.upstream.URL + "/repo/",
		FDroidRepoURL:   s.upstream.URL + "/repo/",
		MetadataURL:     s.upstream.URL + "/metadata.yml",
	}, s.reporter, nil)

	refreshMetrics, err := metrics.NewRefreshMetrics(prometheus.NewRegistry())
	s.Require().NoError(err)

	s.startTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.clock = tmocks.NewClockMock(s.startTime)
	gate, err := services.NewRefreshGate[apidata.Data](aggregator, memstore.NewSlotStore[apidata.Data](), &services.RefreshGateConfig{
		NormalTimeout: time.Hour,
		ErrorTimeout:  6 * time.Minute,
		Clock:         s.clock,
		Observer:      refreshMetrics,
		Reporter:      s.reporter,
	}, nil)
	s.Require().NoError(err)

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	server := httpserver.NewServer(&httpserver.ServerConfig{AllowedOrigins: []string{"*"}}, logger, httpserver.ServerDeps{
		DataService:    gate,
		HealthCheckers: []ports.HealthChecker{health.NewDataHealthChecker(gate)},
	})
	s.handler = server.Echo()
}

func (s *IntegrationTestSuite) TearDownTest() {
	s.upstream.Close()
}

func (s *IntegrationTestSuite) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func (s *IntegrationTestSuite) decode(rec *httptest.ResponseRecorder) apidata.Data {
	var data apidata.Data
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &data))
	return data
}

func (s *IntegrationTestSuite) TestServesAndCachesData() {
	rec := s.get("/data.json")
	s.Require().Equal(http.StatusOK, rec.Code)
	data := s.decode(rec)
	s.Equal(apidata.Stats{Stargazers: 27000, Watchers: 400, Forks: 2800, Contributors: 1024, Translations: 95}, data.Stats)
	s.Equal(s.upstream.URL+"/repo/org.schabi.newpipe_997.apk", data.Flavors.NewPipe.APK)
	s.Equal(apidata.Release{Version: "0.27.0", VersionCode: 997}, data.Flavors.Stable)

	s.clock.Advance(59 * time.Minute)
	s.Require().Equal(http.StatusOK, s.get("/data.json").Code)
	s.Equal(int64(1), s.repoHits.Load())

	s.clock.Advance(time.Minute)
	s.Require().Equal(http.StatusOK, s.get("/data.json").Code)
	s.Equal(int64(2), s.repoHits.Load())
}

func (s *IntegrationTestSuite) TestStaleDataSurvivesOutage() {
	s.Require().Equal(http.StatusOK, s.get("/data.json").Code)

	s.failing.Store(true)
	s.clock.Advance(61 * time.Minute)
	rec := s.get("/data.json")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(95, s.decode(rec).Stats.Translations)
	s.Equal(int64(2), s.repoHits.Load())
	s.Len(s.reporter.Errors, 1)

	// cooldown: no upstream traffic for 6 minutes after the failure
	s.clock.Advance(5 * time.Minute)
	s.Require().Equal(http.StatusOK, s.get("/data.json").Code)
	s.Equal(int64(2), s.repoHits.Load())

	s.failing.Store(false)
	s.clock.Advance(time.Minute)
	s.Require().Equal(http.StatusOK, s.get("/data.json").Code)
	s.Equal(int64(3), s.repoHits.Load())
	s.Equal("healthy", s.healthStatus())
}

func (s *IntegrationTestSuite) TestColdStartOutage() {
	s.failing.Store(true)

	rec := s.get("/data.json")
	s.Require().Equal(http.StatusServiceUnavailable, rec.Code)
	s.Equal("360", rec.Header().Get("Retry-After"))
	s.Equal("degraded", s.healthStatus())

	s.failing.Store(false)
	s.clock.Advance(3 * time.Minute)
	s.Equal(http.StatusServiceUnavailable, s.get("/data.json").Code)

	s.clock.Advance(3 * time.Minute)
	s.Equal(http.StatusOK, s.get("/data.json").Code)
	s.Equal("healthy", s.healthStatus())
}

func (s *IntegrationTestSuite) TestConcurrentColdRequestsShareOneRefresh() {
	var wg sync.WaitGroup
	codes := make([]int, 20)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = s.get("/data.json").Code
		}(i)
	}
	wg.Wait()

	for _, code := range codes {
		assert.Equal(s.T(), http.StatusOK, code)
	}
	s.Equal(int64(1), s.repoHits.Load())
}

func (s *IntegrationTestSuite) healthStatus() string {
	var body map[string]any
	s.Require().NoError(json.Unmarshal(s.get("/health").Body.Bytes(), &body))
	status, _ := body["status"].(string)
	return status
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}
