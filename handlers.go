package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/tagcheck/analyzer"
	"github.com/seo-optimizer/tagcheck/fetcher"
	"github.com/seo-optimizer/tagcheck/middleware"
)

const codeInternal = "internal"

type analyzeRequest struct {
	URL string `json:"url" binding:"required"`
}

func (s *server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func (s *server) analyze(c *gin.Context) {
	c.Set(middleware.PageURLKey, "")

	var request analyzeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		s.fail(c, &fetcher.Error{Kind: fetcher.KindInvalidURL, Err: err})
		return
	}
	c.Set(middleware.PageURLKey, request.URL)

	html, err := s.fetcher.Fetch(c.Request.Context(), request.URL)
	if err != nil {
		s.fail(c, err)
		return
	}

	result := analyzer.Analyze(html, request.URL)
	s.storage.RecordAnalysis(result.Score)

	s.logger.InfoContext(c.Request.Context(), "page analyzed",
		slog.String("request_id", middleware.RequestID(c)),
		slog.String("url", request.URL),
		slog.Int("score", result.Score),
	)
	c.JSON(http.StatusOK, result)
}

func (s *server) statistics(c *gin.Context) {
	out := s.stats.GetStatistics(s.cfg.DevMode)

	month := s.storage.GetCurrentStats()
	out["currentMonth"] = gin.H{
		"analyses":     month.Analyses,
		"failures":     month.TotalFailures(),
		"averageScore": month.AverageScore(),
	}

	c.JSON(http.StatusOK, out)
}

// fail writes the error body for err and records the failure.
func (s *server) fail(c *gin.Context, err error) {
	code := codeInternal
	body := gin.H{"error": "An unexpected error occurred"}

	var fe *fetcher.Error
	if errors.As(err, &fe) {
		code = string(fe.Kind)
		body["error"] = fe.Message()
		if d := details(fe); d != "" {
			body["details"] = d
		}
	}
	body["code"] = code
	status := statusFor(fetcher.Kind(code))

	c.Set(middleware.ErrorCodeKey, code)
	s.storage.RecordFailure(code)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError && fe == nil {
		level = slog.LevelError
	}
	s.logger.Log(c.Request.Context(), level, "analysis failed",
		slog.String("request_id", middleware.RequestID(c)),
		slog.String("code", code),
		slog.Any("error", err),
	)

	c.JSON(status, body)
}

// details adds a fixed hint per kind. Causes are logged, never returned,
// since they carry validator internals and resolved addresses.
func details(fe *fetcher.Error) string {
	switch fe.Kind {
	case fetcher.KindUpstreamError:
		return fmt.Sprintf("upstream status %d", fe.StatusCode)
	case fetcher.KindInvalidURL:
		return "the url field must be an absolute http or https URL"
	case fetcher.KindBlockedHost:
		return "loopback, private and link-local addresses are not analyzed"
	}
	return ""
}

func statusFor(kind fetcher.Kind) int {
	switch kind {
	case fetcher.KindInvalidURL:
		return http.StatusBadRequest
	case fetcher.KindBlockedHost:
		return http.StatusForbidden
	case fetcher.KindDNSFailure, fetcher.KindConnectionRefused, fetcher.KindUpstreamError, fetcher.KindTooLarge:
		return http.StatusBadGateway
	case fetcher.KindTimeout, fetcher.KindNoResponse:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
