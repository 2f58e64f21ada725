package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/elskito/TaxHacker/ledger"
	"github.com/elskito/TaxHacker/models"
	"github.com/elskito/TaxHacker/pkg/money"
	"github.com/elskito/TaxHacker/pkg/settlement"
)

// obligationView decorates an obligation with figures derived fresh from its
// ledger. Nothing here is read from storage; status is never cached.
type obligationView struct {
	models.Obligation
	TotalPaid     int64             `json:"total_paid"`
	Remaining     int64             `json:"remaining"`
	Status        settlement.Status `json:"status"`
	AmountDisplay string            `json:"amount_display"`
}

func viewOf(o models.Obligation, today time.Time) obligationView {
	return obligationView{
		Obligation:    o,
		TotalPaid:     settlement.TotalPaid(o.Payments),
		Remaining:     settlement.Remaining(&o, o.Payments),
		Status:        settlement.DeriveStatus(&o, o.Payments, today),
		AmountDisplay: money.Format(o.Amount),
	}
}

// writeLedgerError maps the ledger error taxonomy onto HTTP status codes.
func writeLedgerError(c *gin.Context, err error) {
	var ve *ledger.ValidationError
	var ebe *ledger.ExceedsBalanceError
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "field": ve.Field})
	case errors.As(err, &ebe):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":     ebe.Error(),
			"attempted": ebe.Attempted,
			"remaining": ebe.Remaining,
		})
	case errors.Is(err, ledger.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}

func createObligationHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var in ledger.ObligationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ob, err := store.CreateObligation(c.Request.Context(), user.ID, in)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(*ob, time.Now()))
}

// listObligationsHandler returns the user's obligations with derived figures.
// With ?group=month the response is bucketed by due month, most recent first.
func listObligationsHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	obs, err := store.ListObligations(c.Request.Context(), user.ID)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	now := time.Now()
	if c.Query("group") == "month" {
		groups := settlement.GroupByDueMonth(obs)
		type monthGroup struct {
			Month       string           `json:"month"`
			Obligations []obligationView `json:"obligations"`
		}
		out := make([]monthGroup, 0, len(groups))
		for _, m := range settlement.SortedMonths(groups) {
			g := monthGroup{Month: m}
			for _, o := range groups[m] {
				g.Obligations = append(g.Obligations, viewOf(o, now))
			}
			out = append(out, g)
		}
		c.JSON(http.StatusOK, out)
		return
	}
	views := make([]obligationView, 0, len(obs))
	for _, o := range obs {
		views = append(views, viewOf(o, now))
	}
	c.JSON(http.StatusOK, views)
}

func getObligationHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	ob, err := store.GetObligation(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(*ob, time.Now()))
}

func updateObligationHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var in ledger.ObligationUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ob, err := store.UpdateObligation(c.Request.Context(), user.ID, c.Param("id"), in)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(*ob, time.Now()))
}

func deleteObligationHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	if err := store.DeleteObligation(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "obligation deleted"})
}

func statsHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	stats, err := store.Stats(c.Request.Context(), user.ID, time.Now())
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
