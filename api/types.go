package api

import "time"

// SessionRecord is the backend's record of one logged-in device. The
// client only ever caches its ID locally, for UI convenience; the record
// itself is owned by the backend and never used for authorization.
type SessionRecord struct {
	ID           string    `json:"id"`
	LoginTime    time.Time `json:"loginTime"`
	LastActivity time.Time `json:"lastActivity"`
	UserAgent    string    `json:"userAgent"`
	IPAddress    *string   `json:"ipAddress,omitempty"`
	IsCurrent    bool      `json:"isCurrent"`
}

// Profile holds the authenticated user's account data.
type Profile struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	WeekStart   string `json:"weekStart,omitempty"`
	TimeZone    string `json:"timeZone,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	DateFormat  string `json:"dateFormat,omitempty"`
	HourlyRate  *Money `json:"hourlyRate,omitempty"`
	WorkspaceID string `json:"workspaceId"`
}

// Money is an amount in a currency's minor unit.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Project is a billable or internal project time entries attach to.
type Project struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	ClientID   *string `json:"clientId,omitempty"`
	Color      string  `json:"color,omitempty"`
	Billable   bool    `json:"billable"`
	Archived   bool    `json:"archived"`
	HourlyRate *Money  `json:"hourlyRate,omitempty"`
}

// BillingClient is a customer projects and invoices are billed to.
type BillingClient struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	Currency string `json:"currency,omitempty"`
	Archived bool   `json:"archived"`
}

// Tag labels time entries for reporting.
type Tag struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Archived bool   `json:"archived"`
}

// TimeEntry is one tracked interval of work.
type TimeEntry struct {
	ID          string     `json:"id"`
	Description string     `json:"description,omitempty"`
	ProjectID   *string    `json:"projectId,omitempty"`
	TagIDs      []string   `json:"tagIds,omitempty"`
	Start       time.Time  `json:"start"`
	End         *time.Time `json:"end,omitempty"`
	Billable    bool       `json:"billable"`
}

// Invoice is a summary of a generated invoice; line items live behind a
// separate detail endpoint the initial load does not touch.
type Invoice struct {
	ID        string    `json:"id"`
	Number    string    `json:"number"`
	ClientID  string    `json:"clientId"`
	IssueDate time.Time `json:"issueDate"`
	DueDate   time.Time `json:"dueDate"`
	Total     Money     `json:"total"`
	Status    string    `json:"status"`
}

// WorkspaceSettings holds workspace-wide defaults other screens depend
// on (rounding rules, currency, first day of week).
type WorkspaceSettings struct {
	WorkspaceID     string `json:"workspaceId"`
	Name            string `json:"name"`
	DefaultCurrency string `json:"defaultCurrency"`
	RoundingMinutes int    `json:"roundingMinutes"`
	WeekStart       string `json:"weekStart"`
}

// errorBody is the backend's structured error payload.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
