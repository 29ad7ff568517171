// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/truthfinder/internal/analysis"
	"github.com/pdiddy/truthfinder/internal/payment"
	"github.com/pdiddy/truthfinder/internal/ratelimit"
	"github.com/pdiddy/truthfinder/internal/report"
	"github.com/pdiddy/truthfinder/internal/research"
	"github.com/pdiddy/truthfinder/pkg/types"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// decisionResponse renders a Decision for clients. Remaining is null for
// unlimited tiers.
type decisionResponse struct {
	Tier         types.Tier `json:"tier"`
	Allowed      bool       `json:"allowed"`
	Reason       string     `json:"reason,omitempty"`
	Remaining    *int       `json:"remaining"`
	Unlimited    bool       `json:"unlimited"`
	RowLimit     int        `json:"row_limit"`
	DisplayLimit int        `json:"display_limit"`
	Degraded     bool       `json:"degraded,omitempty"`
}

func toDecisionResponse(d types.Decision) decisionResponse {
	out := decisionResponse{
		Tier:         d.Tier,
		Allowed:      d.Allowed,
		Reason:       d.Reason,
		RowLimit:     d.RowLimit,
		DisplayLimit: d.DisplayLimit,
		Degraded:     d.Degraded,
	}
	if d.Remaining == ratelimit.Unlimited {
		out.Unlimited = true
	} else {
		r := d.Remaining
		out.Remaining = &r
	}
	return out
}

type statusResponse struct {
	Identity  string           `json:"identity"`
	Decision  decisionResponse `json:"decision"`
	ExpiresAt *string          `json:"expires_at"`
}

type deniedResponse struct {
	errorResponse
	Decision decisionResponse `json:"decision"`
	Sources  []types.Link     `json:"sources"`
}

type searchResponse struct {
	Query        string               `json:"query"`
	Decision     decisionResponse     `json:"decision"`
	TotalResults int                  `json:"total_results"`
	Documents    []documentResponse   `json:"documents"`
	Timeline     []analysis.YearCount `json:"timeline"`
	Analytics    *analysis.Summary    `json:"analytics,omitempty"`
	Sentiment    *analysis.Sentiment  `json:"sentiment,omitempty"`
	Report       *report.Report       `json:"report,omitempty"`
	Sources      []types.Link         `json:"sources"`
}

type documentResponse struct {
	Identifier  string `json:"identifier"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

func toSearchResponse(res research.Result) searchResponse {
	docs := make([]documentResponse, len(res.Documents))
	for i, d := range res.Documents {
		docs[i] = documentResponse{
			Identifier:  d.Identifier,
			Title:       d.Title,
			Date:        d.Date,
			Description: d.Description,
			URL:         d.URL(),
		}
	}
	return searchResponse{
		Query:        res.Query,
		Decision:     toDecisionResponse(res.Decision),
		TotalResults: res.TotalResults,
		Documents:    docs,
		Timeline:     res.Timeline,
		Analytics:    res.Analytics,
		Sentiment:    res.Sentiment,
		Report:       res.Report,
		Sources:      res.Sources,
	}
}

func (s *Server) handleStatus(c *gin.Context) {
	id := identityFrom(c)
	st := s.policy.Status(c.Request.Context(), id)

	resp := statusResponse{
		Identity: id.Short(),
		Decision: toDecisionResponse(st.Decision),
	}
	if !st.ExpiresAt.IsZero() {
		exp := st.ExpiresAt.UTC().Format(time.RFC3339)
		resp.ExpiresAt = &exp
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSearch(c *gin.Context) {
	id := identityFrom(c)

	res, err := s.research.Run(c.Request.Context(), id, c.Query("q"))
	switch {
	case errors.Is(err, research.ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, errorResponse{Code: "INVALID_QUERY", Message: "Invalid search query"})
		return
	case errors.Is(err, research.ErrSearchUnavailable):
		c.JSON(http.StatusBadGateway, errorResponse{Code: "SEARCH_UNAVAILABLE", Message: "Search unavailable. Please try again."})
		return
	case err != nil:
		s.log.WithError(err).Error("search failed")
		c.JSON(http.StatusInternalServerError, errorResponse{Code: "INTERNAL_ERROR", Message: "internal error"})
		return
	}

	if res.Denied() {
		c.JSON(http.StatusTooManyRequests, deniedResponse{
			errorResponse: errorResponse{Code: "DAILY_LIMIT_REACHED", Message: "Daily limit reached. Upgrade for unlimited access."},
			Decision:      toDecisionResponse(res.Decision),
			Sources:       res.Sources,
		})
		return
	}
	c.JSON(http.StatusOK, toSearchResponse(res))
}

func (s *Server) handleCheckout(c *gin.Context) {
	if s.payments == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Code: "PAYMENTS_DISABLED", Message: "Payment system temporarily unavailable"})
		return
	}

	co, err := s.payments.CreateCheckout(c.Request.Context(), identityFrom(c))
	if err != nil {
		if errors.Is(err, payment.ErrNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, errorResponse{Code: "PAYMENTS_DISABLED", Message: "Payment system temporarily unavailable"})
			return
		}
		s.log.WithError(err).Error("checkout failed")
		c.JSON(http.StatusBadGateway, errorResponse{Code: "PAYMENT_UNAVAILABLE", Message: "Payment system temporarily unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": co.URL})
}

// handleActivated is the return URL after checkout. The session id is
// verified with the payment provider before anything is granted, and each
// checkout session grants at most once.
func (s *Server) handleActivated(c *gin.Context) {
	if s.payments == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Code: "PAYMENTS_DISABLED", Message: "Payment system temporarily unavailable"})
		return
	}
	checkoutID := strings.TrimSpace(c.Query("session_id"))
	if checkoutID == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "MISSING_SESSION_ID", Message: "session_id is required"})
		return
	}

	ctx := c.Request.Context()
	paidFor, err := s.payments.Confirm(ctx, checkoutID)
	if err != nil {
		if errors.Is(err, payment.ErrNotPaid) {
			c.JSON(http.StatusPaymentRequired, errorResponse{Code: "PAYMENT_REQUIRED", Message: "Payment not completed"})
			return
		}
		s.log.WithError(err).Warn("checkout confirmation failed")
		c.JSON(http.StatusBadGateway, errorResponse{Code: "PAYMENT_UNAVAILABLE", Message: "Could not confirm payment"})
		return
	}

	if current := identityFrom(c); current != paidFor {
		s.log.WithFields(logrus.Fields{
			"session_identity": current.Short(),
			"paid_identity":    paidFor.Short(),
		}).Warn("checkout completed from a different session")
	}

	if _, err := s.policy.ActivateCheckout(ctx, paidFor, checkoutID); err != nil {
		s.log.WithError(err).Error("premium activation failed")
		c.JSON(http.StatusInternalServerError, errorResponse{Code: "ACTIVATION_FAILED", Message: "Payment received but activation failed; contact support"})
		return
	}
	c.Redirect(http.StatusSeeOther, "/?premium=activated")
}

func (s *Server) handleEndSession(c *gin.Context) {
	token, _ := c.Get(sessionTokenKey)
	tok, _ := token.(string)
	if err := s.sessions.End(c.Request.Context(), tok); err != nil {
		s.log.WithError(err).Warn("ending session failed")
	}
	c.SetCookie(s.cookieName, "", -1, "/", "", s.secure, true)
	c.Status(http.StatusNoContent)
}
