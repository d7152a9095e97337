package logging

import (
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

const visitorWindow = 24 * time.Hour

// Statistics holds live, in-memory request statistics.
type Statistics struct {
	uniqueVisitors   map[string]time.Time // IP -> last visit time
	analysisRequests int
	errorCount       int
	errorsByCode     map[string]int
	popularHosts     map[string]int
	totalLatency     time.Duration
	mutex            sync.RWMutex
	now              func() time.Time
}

// HostCount is one entry of the popular hosts list.
type HostCount struct {
	Host  string `json:"host"`
	Count int    `json:"count"`
}

// NewStatistics creates an empty Statistics.
func NewStatistics() *Statistics {
	return &Statistics{
		uniqueVisitors: make(map[string]time.Time),
		errorsByCode:   make(map[string]int),
		popularHosts:   make(map[string]int),
		now:            time.Now,
	}
}

// TrackVisitor records a visit from ip.
func (s *Statistics) TrackVisitor(ip string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.uniqueVisitors[ip] = s.now()
}

// hostOf reduces a page URL to its host. Local hosts are not tracked.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	host := strings.ToLower(u.Hostname())
	if host == "" || host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return ""
	}
	return strings.TrimPrefix(host, "www.")
}

// TrackAnalysis records an analysis request. errorCode is empty on success.
func (s *Statistics) TrackAnalysis(pageURL string, latency time.Duration, errorCode string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.analysisRequests++
	s.totalLatency += latency

	if host := hostOf(pageURL); host != "" {
		s.popularHosts[host]++
	}

	if errorCode != "" {
		s.errorCount++
		s.errorsByCode[errorCode]++
	}
}

// PruneVisitors forgets visitors outside the 24 hour window.
func (s *Statistics) PruneVisitors() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cutoff := s.now().Add(-visitorWindow)
	for ip, lastVisit := range s.uniqueVisitors {
		if lastVisit.Before(cutoff) {
			delete(s.uniqueVisitors, ip)
		}
	}
}

// GetUniqueVisitorsCount returns the number of unique visitors in the last 24 hours
func (s *Statistics) GetUniqueVisitorsCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.uniqueVisitorsLocked()
}

func (s *Statistics) uniqueVisitorsLocked() int {
	count := 0
	cutoff := s.now().Add(-visitorWindow)
	for _, lastVisit := range s.uniqueVisitors {
		if lastVisit.After(cutoff) {
			count++
		}
	}
	return count
}

// GetPopularHosts returns the n most analyzed hosts, most frequent first.
func (s *Statistics) GetPopularHosts(n int) []HostCount {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.popularHostsLocked(n)
}

func (s *Statistics) popularHostsLocked(n int) []HostCount {
	hosts := make([]HostCount, 0, len(s.popularHosts))
	for host, count := range s.popularHosts {
		hosts = append(hosts, HostCount{Host: host, Count: count})
	}
	sort.Slice(hosts, func(i, j int) bool {
		if hosts[i].Count != hosts[j].Count {
			return hosts[i].Count > hosts[j].Count
		}
		return hosts[i].Host < hosts[j].Host
	})
	if len(hosts) > n {
		hosts = hosts[:n]
	}
	return hosts
}

// GetErrorRate returns the error rate as a percentage
func (s *Statistics) GetErrorRate() float64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.errorRateLocked()
}

func (s *Statistics) errorRateLocked() float64 {
	if s.analysisRequests == 0 {
		return 0
	}
	return (float64(s.errorCount) / float64(s.analysisRequests)) * 100
}

// TotalRequests returns the number of analysis requests seen.
func (s *Statistics) TotalRequests() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.analysisRequests
}

// GetStatistics returns a snapshot for the statistics endpoint. Popular
// hosts and per-code errors are only included in development mode.
func (s *Statistics) GetStatistics(devMode bool) map[string]any {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	averageLatency := 0.0
	if s.analysisRequests > 0 {
		averageLatency = float64(s.totalLatency.Milliseconds()) / float64(s.analysisRequests)
	}

	out := map[string]any{
		"uniqueVisitors24h": s.uniqueVisitorsLocked(),
		"totalRequests":     s.analysisRequests,
		"errorRate":         s.errorRateLocked(),
		"averageLatencyMs":  averageLatency,
	}
	if !devMode {
		return out
	}

	errorsByCode := make(map[string]int, len(s.errorsByCode))
	for code, n := range s.errorsByCode {
		errorsByCode[code] = n
	}
	out["errorsByCode"] = errorsByCode
	out["popularHosts"] = s.popularHostsLocked(5)
	return out
}
