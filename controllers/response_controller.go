package controllers

import (
	"context"
	"net/http"
	"time"

	"arguesurvey/db"
	"arguesurvey/models"
	"arguesurvey/services"

	"github.com/gin-gonic/gin"
)

// SaveResponse archives a submitted survey.
func SaveResponse(c *gin.Context) {
	var payload models.SubmissionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusInternalServerError, models.SaveResult{Success: false, Error: err.Error()})
		return
	}

	archive := services.GetArchiveService()
	if archive == nil {
		c.JSON(http.StatusInternalServerError, models.SaveResult{Success: false, Error: "archive service not initialized"})
		return
	}

	result, err := archive.Save(c.Request.Context(), payload, c.ClientIP())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.SaveResult{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// LatestResponse returns the newest archived submission for ?email=.
func LatestResponse(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}
	if !db.Connected() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "response database not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	doc, err := db.LatestArchivedResponse(ctx, email)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, doc)
}

// ArchiveStats reports how many submissions the responses directory holds.
func ArchiveStats(c *gin.Context) {
	archive := services.GetArchiveService()
	if archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "archive service not initialized"})
		return
	}
	stats, err := services.Stats(archive.Dir())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}
