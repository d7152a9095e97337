package stats

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const monthLayout = "2006-01"

// MonthlyStats represents analysis outcomes for a specific month
type MonthlyStats struct {
	Analyses    int            `json:"analyses"`
	Failures    map[string]int `json:"failures,omitempty"`
	ScoreTotal  int            `json:"score_total"`
	LastUpdated time.Time      `json:"last_updated"`
}

// AverageScore returns the mean score of successful analyses.
func (m MonthlyStats) AverageScore() float64 {
	if m.Analyses == 0 {
		return 0
	}
	return float64(m.ScoreTotal) / float64(m.Analyses)
}

// TotalFailures sums failures across all codes.
func (m MonthlyStats) TotalFailures() int {
	total := 0
	for _, n := range m.Failures {
		total += n
	}
	return total
}

func (m MonthlyStats) clone() MonthlyStats {
	out := m
	if m.Failures != nil {
		out.Failures = make(map[string]int, len(m.Failures))
		for code, n := range m.Failures {
			out.Failures[code] = n
		}
	}
	return out
}

// Storage handles persistent storage of statistics
type Storage struct {
	mutex       sync.RWMutex
	stats       map[string]*MonthlyStats // key: "YYYY-MM"
	filePath    string
	lastWrite   time.Time
	writeBuffer chan struct{}
	done        chan struct{}
	stopped     chan struct{}
	closeOnce   sync.Once
	logger      *slog.Logger
	now         func() time.Time
}

// NewStorage creates a new statistics storage instance
func NewStorage(dataDir string, logger *slog.Logger) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Storage{
		stats:       make(map[string]*MonthlyStats),
		filePath:    filepath.Join(dataDir, "stats.json"),
		writeBuffer: make(chan struct{}, 1),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
		logger:      logger,
		now:         time.Now,
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	go s.backgroundWriter()

	return s, nil
}

// load reads statistics from file
func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var loaded map[string]*MonthlyStats
	if err := json.Unmarshal(data, &loaded); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for month, stats := range loaded {
		if stats != nil {
			s.stats[month] = stats
		}
	}
	return nil
}

// save writes statistics to file
func (s *Storage) save() error {
	s.mutex.RLock()
	data, err := json.Marshal(s.stats)
	s.mutex.RUnlock()

	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	// Write to a temporary file first so readers never see a partial file.
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// backgroundWriter handles periodic writes to disk
func (s *Storage) backgroundWriter() {
	defer close(s.stopped)

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.writeBuffer:
		case <-ticker.C:
		case <-s.done:
			return
		}
		if err := s.save(); err != nil {
			s.logger.Error("failed to persist statistics", slog.Any("error", err))
		}
	}
}

func (s *Storage) currentMonth() string {
	return s.now().Format(monthLayout)
}

// requestWrite signals that a write to disk is needed
func (s *Storage) requestWrite() {
	select {
	case s.writeBuffer <- struct{}{}:
	default:
		// write already pending
	}
}

// monthLocked returns the counters for the current month, creating them.
func (s *Storage) monthLocked() *MonthlyStats {
	month := s.currentMonth()
	stats, exists := s.stats[month]
	if !exists {
		stats = &MonthlyStats{}
		s.stats[month] = stats
	}
	return stats
}

func (s *Storage) touchLocked(stats *MonthlyStats) {
	stats.LastUpdated = s.now()
	if s.now().Sub(s.lastWrite) > time.Minute {
		s.requestWrite()
		s.lastWrite = s.now()
	}
}

// RecordAnalysis counts a successful analysis and its score.
func (s *Storage) RecordAnalysis(score int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stats := s.monthLocked()
	stats.Analyses++
	stats.ScoreTotal += score
	s.touchLocked(stats)
}

// RecordFailure counts a failed analysis under its error code.
func (s *Storage) RecordFailure(code string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stats := s.monthLocked()
	if stats.Failures == nil {
		stats.Failures = make(map[string]int)
	}
	stats.Failures[code]++
	s.touchLocked(stats)
}

// GetCurrentStats returns statistics for the current month
func (s *Storage) GetCurrentStats() MonthlyStats {
	stats, _ := s.GetMonthlyStats(s.currentMonth())
	return stats
}

// Cleanup removes statistics older than retainMonths months, counting the
// current month as the first.
func (s *Storage) Cleanup(retainMonths int) {
	if retainMonths < 1 {
		retainMonths = 1
	}

	now := s.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	keep := make(map[string]bool, retainMonths)
	for i := 0; i < retainMonths; i++ {
		keep[first.AddDate(0, -i, 0).Format(monthLayout)] = true
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for key := range s.stats {
		if !keep[key] {
			delete(s.stats, key)
		}
	}

	s.requestWrite()
	s.logger.Debug("pruned statistics", slog.Int("retained_months", retainMonths))
}

// GetMonthlyStats returns statistics for a specific month
func (s *Storage) GetMonthlyStats(yearMonth string) (MonthlyStats, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if stats, exists := s.stats[yearMonth]; exists {
		return stats.clone(), true
	}
	return MonthlyStats{}, false
}

// GetAllMonths returns a sorted list of all months that have statistics
func (s *Storage) GetAllMonths() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	months := make([]string, 0, len(s.stats))
	for month := range s.stats {
		months = append(months, month)
	}

	// Newest first
	sort.Sort(sort.Reverse(sort.StringSlice(months)))

	return months
}

// Shutdown stops the background writer and saves once more.
func (s *Storage) Shutdown() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		<-s.stopped
		err = s.save()
	})
	return err
}
