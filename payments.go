package main

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/elskito/TaxHacker/ledger"
	"github.com/elskito/TaxHacker/models"
	"github.com/elskito/TaxHacker/pkg/storage"
)

// recordPaymentHandler records a payment against an obligation. Accepts either
// a JSON body or multipart form data with an optional "proof" file. When a
// proof is attached it is stored first; a failed store aborts the whole
// operation so no payment ever carries a dangling reference.
func recordPaymentHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	obligationID := c.Param("id")

	var in ledger.PaymentInput
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		in.Amount = c.PostForm("amount")
		in.PaidAt = c.PostForm("paid_at")
		in.Note = c.PostForm("note")
		if fh, err := c.FormFile("proof"); err == nil && fh != nil {
			if user.StorageLimit > 0 && user.StorageUsed+fh.Size > user.StorageLimit {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "storage limit exceeded"})
				return
			}
			src, err := fh.Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "file unreadable"})
				return
			}
			sf, err := storage.Store(uploadBaseDir(), user.ID, fh.Filename, fh.Header.Get("Content-Type"), src)
			src.Close()
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store proof of payment"})
				return
			}
			file := models.File{ID: sf.ID, UserID: user.ID, Filename: sf.Filename, Path: sf.Path, Mimetype: sf.Mimetype, Size: sf.Size}
			if err := db.Create(&file).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store proof of payment"})
				return
			}
			ref := sf.ID
			in.AttachmentRef = &ref
		}
	} else {
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	payment, err := store.RecordPayment(c.Request.Context(), user.ID, obligationID, in)
	if err != nil {
		writeLedgerError(c, err)
		return
	}

	// A new attachment changes the user's storage footprint; recompute from
	// disk rather than incrementing a counter.
	if in.AttachmentRef != nil {
		recomputeStorageUsed(user.ID)
	}

	c.JSON(http.StatusOK, payment)
}

func recomputeStorageUsed(userID string) {
	size, err := storage.DirSize(storage.UserDir(uploadBaseDir(), userID))
	if err != nil {
		log.Printf("warning: storage usage recompute failed for user %s: %v", userID, err)
		return
	}
	if err := db.Model(&models.User{}).Where("id = ?", userID).Update("storage_used", size).Error; err != nil {
		log.Printf("warning: storage usage update failed for user %s: %v", userID, err)
	}
}

func deletePaymentHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	if err := store.DeletePayment(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "payment deleted"})
}

// getFileHandler serves an owner's attachment by id.
func getFileHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var f models.File
	if err := db.Where("id = ? AND user_id = ?", c.Param("id"), user.ID).First(&f).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	full, err := storage.SafeJoin(storage.UserDir(uploadBaseDir(), user.ID), f.Path)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.FileAttachment(full, f.Filename)
}
