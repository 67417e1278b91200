// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package lint serves the lint engine over HTTP.
package lint

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/nglint/services/lint/ast"
	"github.com/AleutianAI/nglint/services/lint/failure"
	"github.com/AleutianAI/nglint/services/lint/rules"
	"github.com/AleutianAI/nglint/services/lint/runner"
)

// LintRequest is the body of POST /v1/lint.
//
// Rules, when present, replaces the configured rule selection for this
// request: rule name to options, an empty list enabling the rule with its
// defaults.
type LintRequest struct {
	FileName string           `json:"fileName" binding:"required,max=1024"`
	Content  string           `json:"content" binding:"required"`
	Rules    map[string][]any `json:"rules,omitempty" binding:"omitempty,max=64"`
}

// LintResponse is the body returned for a linted file.
type LintResponse struct {
	RequestID string            `json:"requestId"`
	FileName  string            `json:"fileName"`
	Failures  []failure.Failure `json:"failures"`
	Cached    bool              `json:"cached,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

// HealthResponse is the body of GET /v1/lint/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Rules   int    `json:"rules"`
}

// Handlers holds the HTTP handlers of the lint service.
//
// Thread Safety: Safe for concurrent use; the runner creates a walker per
// file.
type Handlers struct {
	runner *runner.Runner
	logger *slog.Logger
}

// NewHandlers creates handlers backed by r. A nil logger uses
// slog.Default.
func NewHandlers(r *runner.Runner, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{runner: r, logger: logger}
}

// HandleLint lints one file.
//
// Description:
//
//	Binds and validates a LintRequest, then lints the content with the
//	configured rules (through the cache) or with the request's rule
//	selection. A parse failure of the file is reported in the response
//	body with status 200; the failures of other rules are still returned.
//
// Responses:
//
//	200 - LintResponse
//	400 - Invalid body, unknown rule or invalid rule options
//	413 - Content above max_file_size
func (h *Handlers) HandleLint(c *gin.Context) {
	var req LintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	if limit := h.runner.Config().MaxFileSize; limit > 0 && int64(len(req.Content)) > limit {
		h.fail(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
			fmt.Errorf("%w: %d bytes, limit %d", ast.ErrFileTooLarge, len(req.Content), limit))
		return
	}

	ctx := c.Request.Context()
	var res runner.FileResult
	if req.Rules == nil {
		res = h.runner.Lint(ctx, req.FileName, []byte(req.Content))
	} else {
		selection := make(map[string]rules.Options, len(req.Rules))
		for name, opts := range req.Rules {
			selection[name] = rules.Options(opts)
		}
		var err error
		res, err = h.runner.LintWith(ctx, req.FileName, []byte(req.Content), selection)
		if err != nil {
			code := "INVALID_RULES"
			if errors.Is(err, rules.ErrUnknownRule) {
				code = "UNKNOWN_RULE"
			}
			h.fail(c, http.StatusBadRequest, code, err)
			return
		}
	}
	resp := LintResponse{
		RequestID: requestID(c),
		FileName:  req.FileName,
		Failures:  res.Failures,
		Cached:    res.Cached,
	}
	if resp.Failures == nil {
		resp.Failures = []failure.Failure{}
	}
	if res.Err != nil {
		resp.Error = res.Err.Error()
		h.logger.Warn("lint request completed with errors",
			slog.String("request_id", resp.RequestID),
			slog.String("file", req.FileName),
			slog.String("error", res.Err.Error()))
	}
	c.JSON(http.StatusOK, resp)
}

// HandleRules lists the registered rules.
func (h *Handlers) HandleRules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"rules":   h.runner.Registry().Metadata(),
		"enabled": h.runner.Config().EnabledRules(),
	})
}

// HandleHealth reports liveness.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: runner.Version,
		Rules:   len(h.runner.Registry().Metadata()),
	})
}

func (h *Handlers) fail(c *gin.Context, status int, code string, err error) {
	id := requestID(c)
	h.logger.Debug("lint request rejected",
		slog.String("request_id", id),
		slog.String("code", code),
		slog.String("error", err.Error()))
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code, RequestID: id})
}
