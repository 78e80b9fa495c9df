package scrape

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/codit04/TechMCP/api/schemas"
	"github.com/codit04/TechMCP/internal/observability"
	"github.com/codit04/TechMCP/internal/portal"
)

// Fetcher is the part of the portal client the scraper needs. It is an
// interface so tests can substitute fixture pages for the live portal.
type Fetcher interface {
	Page(ctx context.Context, path string) ([]byte, error)
	Login(ctx context.Context) error
}

// Scraper turns authenticated portal pages into typed records. It is the
// single shared instance behind every tool call, so all state (the page
// caches) is mutex-guarded.
//
// Marks and attendance are always fetched fresh; the timetable and the
// course catalog change rarely and are cached for the configured TTL, as in
// the portal's own UI.
type Scraper struct {
	client   Fetcher
	logger   *zap.Logger
	cacheTTL time.Duration

	mu          sync.Mutex
	timetable   []schemas.TimetableEntry
	timetableAt time.Time
	courses     []schemas.CourseInfo
	coursesAt   time.Time
}

// NewScraper builds a scraper over the given portal client.
func NewScraper(client Fetcher, cacheTTL time.Duration, logger *zap.Logger) *Scraper {
	if logger == nil {
		logger = observability.GetLogger().Named("scrape")
	}
	return &Scraper{
		client:   client,
		logger:   logger,
		cacheTTL: cacheTTL,
	}
}

// CAMarks fetches and parses the continuous assessment marks page.
func (s *Scraper) CAMarks(ctx context.Context) (*schemas.CAMarks, error) {
	page, err := s.client.Page(ctx, MarksPath)
	if err != nil {
		observability.ScrapeErrors.WithLabelValues(MarksPath).Inc()
		return nil, err
	}
	marks, err := ParseCAMarks(page)
	if err != nil {
		observability.ScrapeErrors.WithLabelValues(MarksPath).Inc()
		return nil, err
	}
	s.logger.Debug("Scraped CA marks",
		zap.Int("lab_courses", len(marks.LabCourses)),
		zap.Int("theory_courses", len(marks.TheoryCourses)))
	return marks, nil
}

// Attendance fetches and parses the attendance percentage page.
func (s *Scraper) Attendance(ctx context.Context) ([]schemas.SubjectAttendance, error) {
	page, err := s.client.Page(ctx, AttendancePath)
	if err != nil {
		observability.ScrapeErrors.WithLabelValues(AttendancePath).Inc()
		return nil, err
	}
	records, err := ParseAttendance(page)
	if err != nil {
		observability.ScrapeErrors.WithLabelValues(AttendancePath).Inc()
		return nil, err
	}
	s.logger.Debug("Scraped attendance", zap.Int("subjects", len(records)))
	return records, nil
}

// Timetable returns the weekly timetable, served from cache while fresh.
func (s *Scraper) Timetable(ctx context.Context) ([]schemas.TimetableEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timetable != nil && time.Since(s.timetableAt) < s.cacheTTL {
		s.logger.Debug("Serving timetable from cache")
		return s.timetable, nil
	}

	page, err := s.client.Page(ctx, TimetablePath)
	if err != nil {
		observability.ScrapeErrors.WithLabelValues(TimetablePath).Inc()
		return nil, err
	}
	entries, err := ParseTimetable(page)
	if err != nil {
		observability.ScrapeErrors.WithLabelValues(TimetablePath).Inc()
		return nil, err
	}

	s.timetable = entries
	s.timetableAt = time.Now()
	s.logger.Debug("Scraped timetable", zap.Int("entries", len(entries)))
	return entries, nil
}

// Courses returns the course catalog, served from cache while fresh.
func (s *Scraper) Courses(ctx context.Context) ([]schemas.CourseInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coursesLocked(ctx)
}

func (s *Scraper) coursesLocked(ctx context.Context) ([]schemas.CourseInfo, error) {
	if s.courses != nil && time.Since(s.coursesAt) < s.cacheTTL {
		s.logger.Debug("Serving course catalog from cache")
		return s.courses, nil
	}

	page, err := s.client.Page(ctx, CoursesPath)
	if err != nil {
		observability.ScrapeErrors.WithLabelValues(CoursesPath).Inc()
		return nil, err
	}
	courses, err := ParseCourses(page)
	if err != nil {
		observability.ScrapeErrors.WithLabelValues(CoursesPath).Inc()
		return nil, err
	}

	s.courses = courses
	s.coursesAt = time.Now()
	s.logger.Debug("Scraped course catalog", zap.Int("courses", len(courses)))
	return courses, nil
}

// RefreshCourses drops the course cache and fetches the catalog again.
func (s *Scraper) RefreshCourses(ctx context.Context) ([]schemas.CourseInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses = nil
	s.coursesAt = time.Time{}
	return s.coursesLocked(ctx)
}

// CoursesCachedAt reports when the course catalog was last fetched, zero if
// never.
func (s *Scraper) CoursesCachedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coursesAt
}

// HealthCheck verifies the full login-fetch cycle against the live portal.
func (s *Scraper) HealthCheck(ctx context.Context) error {
	if err := s.client.Login(ctx); err != nil {
		return err
	}
	if _, err := s.Attendance(ctx); err != nil {
		return err
	}
	return nil
}

// ensure the portal client satisfies Fetcher.
var _ Fetcher = (*portal.Client)(nil)
