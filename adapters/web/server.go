// Package web is the coordinator's HTTP surface: clients post analysis
// requests here and receive the aggregated global results.
package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fedstats/app"
	"fedstats/domain/core"
	"fedstats/internal/report"
)

// Server is the coordinator web server.
type Server struct {
	router   *gin.Engine
	analyses *app.AnalysisService
}

// NewServer creates the coordinator server over an analysis service.
func NewServer(analyses *app.AnalysisService) *Server {
	s := &Server{
		router:   gin.Default(),
		analyses: analyses,
	}
	s.setupRoutes()
	return s
}

// Router returns the HTTP handler for serving.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	s.router.GET("/v1/health", s.handleHealth)
	s.router.POST("/v1/analyses/summary", s.handleSummary)
	s.router.POST("/v1/analyses/ttest", s.handleTTest)
	s.router.POST("/v1/analyses/anova", s.handleANOVA)
	s.router.POST("/v1/analyses/pca", s.handlePCA)
	s.router.POST("/v1/reports/summary", s.handleSummaryReport)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleSummary(c *gin.Context) {
	var req app.SummaryRequest
	if !bindRequest(c, &req) {
		return
	}
	result, err := s.analyses.RunSummary(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleTTest(c *gin.Context) {
	var req app.TTestRequest
	if !bindRequest(c, &req) {
		return
	}
	result, err := s.analyses.RunTTest(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleANOVA(c *gin.Context) {
	var req app.ANOVARequest
	if !bindRequest(c, &req) {
		return
	}
	result, err := s.analyses.RunANOVA(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handlePCA(c *gin.Context) {
	var req app.PCARequest
	if !bindRequest(c, &req) {
		return
	}
	result, err := s.analyses.RunPCA(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleSummaryReport runs a summary and answers with a rendered report.
// format=html returns an HTML fragment, anything else returns markdown.
func (s *Server) handleSummaryReport(c *gin.Context) {
	var req app.SummaryRequest
	if !bindRequest(c, &req) {
		return
	}
	result, err := s.analyses.RunSummary(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	md := report.Summary(result)
	if c.Query("format") == "html" {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(report.ToHTML(md)))
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
}

func bindRequest(c *gin.Context, req interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request: " + err.Error()})
		return false
	}
	return true
}

// writeError maps domain failures to HTTP statuses: bad parameters are the
// caller's fault, aggregation failures mean the federation could not
// produce a result.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case core.IsUserInputError(err):
		status = http.StatusBadRequest
	case core.IsAggregationError(err):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
