package models

import "time"

// Record is one row of the survey dataset: an opinion and two sets of counterarguments.
type Record struct {
	Ordinal int       `json:"ordinal"`
	Opinion string    `json:"opinion"`
	SetA    [3]string `json:"setA"`
	SetB    [3]string `json:"setB"`
}

// Identity is the participant information collected on the first page.
type Identity struct {
	Name        string `json:"name" bson:"name"`
	Email       string `json:"email" bson:"email"`
	Affiliation string `json:"affiliation" bson:"affiliation"`
}

// IsZero reports whether no identity has been stored yet.
func (i Identity) IsZero() bool {
	return i.Name == "" && i.Email == "" && i.Affiliation == ""
}

// SurveyMetadata travels with both the remote submission and the local export.
type SurveyMetadata struct {
	TotalPages       int    `json:"totalPages" bson:"totalPages"`
	CompletedAt      string `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	SavedAt          string `json:"savedAt,omitempty" bson:"savedAt,omitempty"`
	UserAgent        string `json:"userAgent,omitempty" bson:"userAgent,omitempty"`
	ScreenResolution string `json:"screenResolution,omitempty" bson:"screenResolution,omitempty"`
}

// SubmissionPayload is the consolidated response document.
type SubmissionPayload struct {
	UserInfo       Identity          `json:"userInfo"`
	Responses      map[string]string `json:"responses"`
	SurveyMetadata SurveyMetadata    `json:"surveyMetadata"`
}

// SaveResult is the body returned by the /save_response endpoint.
type SaveResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Filename string `json:"filename,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ArchivedResponse is what the server keeps for every received submission.
type ArchivedResponse struct {
	Timestamp      time.Time         `json:"timestamp" bson:"timestamp"`
	ClientAddress  string            `json:"client_address" bson:"clientAddress"`
	UserInfo       Identity          `json:"user_info" bson:"userInfo"`
	Responses      map[string]string `json:"responses" bson:"responses"`
	SurveyMetadata SurveyMetadata    `json:"survey_metadata" bson:"surveyMetadata"`
	ResponseCount  int               `json:"response_count" bson:"responseCount"`
	Filename       string            `json:"-" bson:"filename"`
}
