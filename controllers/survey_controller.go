package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"arguesurvey/internal/durable"
	"arguesurvey/internal/survey"
	"arguesurvey/services"

	"github.com/gin-gonic/gin"
)

type SetFieldRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

type DismissModalRequest struct {
	Key string `json:"key"`
}

// surveyError writes err with the status its kind maps to. Validation
// failures also carry the unmet labels.
func surveyError(c *gin.Context, err error) {
	var verr *survey.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "missing": verr.Missing})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, survey.ErrModalOpen),
		errors.Is(err, survey.ErrSubmissionInProgress),
		errors.Is(err, survey.ErrCompleted):
		status = http.StatusConflict
	case errors.Is(err, survey.ErrUnknownField),
		errors.Is(err, survey.ErrInvalidOption),
		errors.Is(err, survey.ErrInvalidIdentity),
		errors.Is(err, survey.ErrAtFirstPage),
		errors.Is(err, durable.ErrInvalidClientID):
		status = http.StatusBadRequest
	case errors.Is(err, survey.ErrNotLoaded):
		status = http.StatusServiceUnavailable
	case errors.Is(err, services.ErrUnknownClient),
		errors.Is(err, survey.ErrClosed):
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func surveyService(c *gin.Context) (*services.SurveyService, bool) {
	svc := services.GetSurveyService()
	if svc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "survey service not initialized"})
		return nil, false
	}
	return svc, true
}

func lookupSession(c *gin.Context) (*survey.Session, bool) {
	svc, ok := surveyService(c)
	if !ok {
		return nil, false
	}
	sess, err := svc.Get(c.Param("clientId"))
	if err != nil {
		surveyError(c, err)
		return nil, false
	}
	return sess, true
}

// OpenSession creates a session, or resumes one from stored progress when the
// client id is known.
func OpenSession(c *gin.Context) {
	var req services.OpenRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.UserAgent == "" {
		req.UserAgent = c.Request.UserAgent()
	}

	svc, ok := surveyService(c)
	if !ok {
		return
	}
	sess, created, err := svc.Open(c.Request.Context(), req)
	if err != nil {
		surveyError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"clientId": sess.ClientID(), "view": sess.View()})
}

func GetSession(c *gin.Context) {
	sess, ok := lookupSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

func SetField(c *gin.Context) {
	var req SetFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	sess, ok := lookupSession(c)
	if !ok {
		return
	}
	if err := sess.SetField(c.Request.Context(), req.Field, req.Value); err != nil {
		surveyError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

// NextPage advances. Leaving the last survey page submits and only responds
// once the submission and local export have finished.
func NextPage(c *gin.Context) {
	sess, ok := lookupSession(c)
	if !ok {
		return
	}
	if err := sess.Advance(c.Request.Context()); err != nil {
		surveyError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

func PrevPage(c *gin.Context) {
	sess, ok := lookupSession(c)
	if !ok {
		return
	}
	if err := sess.Retreat(c.Request.Context()); err != nil {
		surveyError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

func DismissModal(c *gin.Context) {
	var req DismissModalRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	sess, ok := lookupSession(c)
	if !ok {
		return
	}
	dismissed := sess.DismissModal(req.Key)
	c.JSON(http.StatusOK, gin.H{"dismissed": dismissed, "view": sess.View()})
}

// DownloadResponses serves the manual backup as an attachment.
func DownloadResponses(c *gin.Context) {
	sess, ok := lookupSession(c)
	if !ok {
		return
	}
	name, data, err := sess.Download()
	if err != nil {
		surveyError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, "application/json", data)
}

func CloseSession(c *gin.Context) {
	svc, ok := surveyService(c)
	if !ok {
		return
	}
	if err := svc.Close(c.Param("clientId")); err != nil {
		surveyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session closed"})
}
