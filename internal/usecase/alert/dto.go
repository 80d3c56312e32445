package alert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	domainAlert "educafric-tracking/internal/domain/alert"
)

type CreateAlertRequest struct {
	DeviceID  string     `json:"deviceId" validate:"trimmed_required,max=64"`
	Type      string     `json:"type" validate:"trimmed_required,max=50"`
	Message   string     `json:"message" validate:"trimmed_required,max=2000"`
	Latitude  *float64   `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude *float64   `json:"longitude" validate:"omitempty,min=-180,max=180"`
	Severity  string     `json:"severity" validate:"max=20"`
	IsRead    *bool      `json:"isRead"`
	Timestamp *time.Time `json:"timestamp"`
}

type ListAlertsRequest struct {
	Limit       int
	UnreadOnly  bool
	MinSeverity string
}

// ContactRef accepts a contact id sent either as a JSON string or a number.
type ContactRef string

func (c *ContactRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = ContactRef(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("contactId must be a string or number")
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return fmt.Errorf("contactId must be a string or number")
	}
	*c = ContactRef(n.String())
	return nil
}

type EmergencyLocation struct {
	Latitude  *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"required,min=-180,max=180"`
}

type EmergencyRequest struct {
	DeviceID  string             `json:"deviceId" validate:"trimmed_required,max=64"`
	ContactID ContactRef         `json:"contactId"`
	Message   string             `json:"message" validate:"max=2000"`
	Location  *EmergencyLocation `json:"location"`
}

type AlertResponse struct {
	ID        string               `json:"id"`
	DeviceID  string               `json:"deviceId"`
	Type      domainAlert.Type     `json:"type"`
	Message   string               `json:"message"`
	Latitude  *float64             `json:"latitude"`
	Longitude *float64             `json:"longitude"`
	Severity  domainAlert.Severity `json:"severity"`
	IsRead    bool                 `json:"isRead"`
	Timestamp time.Time            `json:"timestamp"`
}

type EmergencyResponse struct {
	Success    bool   `json:"success"`
	AlertID    string `json:"alertId"`
	Dispatched bool   `json:"dispatched"`
}

func ToAlertResponse(a *domainAlert.Alert) *AlertResponse {
	if a == nil {
		return nil
	}
	return &AlertResponse{
		ID:        a.ID,
		DeviceID:  a.DeviceID,
		Type:      a.Type,
		Message:   a.Message,
		Latitude:  a.Latitude,
		Longitude: a.Longitude,
		Severity:  a.Severity,
		IsRead:    a.IsRead,
		Timestamp: a.Timestamp,
	}
}
