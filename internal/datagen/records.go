package datagen

import (
	"strconv"
	"time"
)

// CSV timestamps use a second-resolution ISO layout so ClickHouse can parse
// them without a format clause.
const (
	timeLayout = "2006-01-02T15:04:05"
	dateLayout = "2006-01-02"
)

func fmtTime(t time.Time) string {
	return t.Format(timeLayout)
}

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// Tenant is one row of dim_tenants.
type Tenant struct {
	TenantID   string
	TenantName string
	Industry   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

var tenantHeader = []string{"tenant_id", "tenant_name", "industry", "created_at", "updated_at"}

func (t Tenant) record() []string {
	return []string{t.TenantID, t.TenantName, t.Industry, fmtTime(t.CreatedAt), fmtTime(t.UpdatedAt)}
}

// Site is one row of dim_sites.
type Site struct {
	SiteID    string
	TenantID  string
	SiteName  string
	City      string
	State     string
	Country   string
	Timezone  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

var siteHeader = []string{
	"site_id", "tenant_id", "site_name", "city", "state", "country", "timezone",
	"created_at", "updated_at",
}

func (s Site) record() []string {
	return []string{
		s.SiteID, s.TenantID, s.SiteName, s.City, s.State, s.Country, s.Timezone,
		fmtTime(s.CreatedAt), fmtTime(s.UpdatedAt),
	}
}

// Location is one row of dim_locations. A location is a controlled door.
type Location struct {
	LocationID    string
	TenantID      string
	SiteID        string
	BuildingName  string
	FloorNumber   int
	DoorName      string
	DoorType      string
	SecurityLevel string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

var locationHeader = []string{
	"location_id", "tenant_id", "site_id", "building_name", "floor_number",
	"door_name", "door_type", "security_level", "created_at", "updated_at",
}

func (l Location) record() []string {
	return []string{
		l.LocationID, l.TenantID, l.SiteID, l.BuildingName, strconv.Itoa(l.FloorNumber),
		l.DoorName, l.DoorType, l.SecurityLevel, fmtTime(l.CreatedAt), fmtTime(l.UpdatedAt),
	}
}

// ConnectorDim is one row of dim_connectors.
type ConnectorDim struct {
	ConnectorID   string
	TenantID      string
	SiteID        string
	ConnectorName string
	ConnectorType string
	Profile       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

var connectorHeader = []string{
	"connector_id", "tenant_id", "site_id", "connector_name", "connector_type",
	"profile", "created_at", "updated_at",
}

func (c ConnectorDim) record() []string {
	return []string{
		c.ConnectorID, c.TenantID, c.SiteID, c.ConnectorName, c.ConnectorType,
		c.Profile, fmtTime(c.CreatedAt), fmtTime(c.UpdatedAt),
	}
}

// Person is one row of dim_persons.
type Person struct {
	PersonID        string
	TenantID        string
	BadgeNumber     string
	FirstName       string
	LastName        string
	Email           string
	Department      string
	JobTitle        string
	PersonType      string
	Status          string
	HireDate        time.Time
	TerminationDate time.Time // zero while still active
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

var personHeader = []string{
	"person_id", "tenant_id", "badge_number", "first_name", "last_name", "email",
	"department", "job_title", "person_type", "status", "hire_date",
	"termination_date", "created_at", "updated_at",
}

func (p Person) record() []string {
	return []string{
		p.PersonID, p.TenantID, p.BadgeNumber, p.FirstName, p.LastName, p.Email,
		p.Department, p.JobTitle, p.PersonType, p.Status, fmtDate(p.HireDate),
		fmtDate(p.TerminationDate), fmtTime(p.CreatedAt), fmtTime(p.UpdatedAt),
	}
}

// Entitlement is one row of dim_entitlements: person X may open door Y.
type Entitlement struct {
	EntitlementID string
	TenantID      string
	PersonID      string
	LocationID    string
	AccessLevel   string
	StartDate     time.Time
	EndDate       time.Time // zero for open-ended grants
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

var entitlementHeader = []string{
	"entitlement_id", "tenant_id", "person_id", "location_id", "access_level",
	"start_date", "end_date", "created_at", "updated_at",
}

func (e Entitlement) record() []string {
	return []string{
		e.EntitlementID, e.TenantID, e.PersonID, e.LocationID, e.AccessLevel,
		fmtDate(e.StartDate), fmtDate(e.EndDate), fmtTime(e.CreatedAt), fmtTime(e.UpdatedAt),
	}
}

// AccessEventFact is one historical row of fact_access_events.
type AccessEventFact struct {
	EventID     string
	TenantID    string
	PersonID    string
	LocationID  string
	EventTime   time.Time
	EventType   string
	Result      string
	DenyReason  string
	Suspicious  bool
	BadgeNumber string
	CreatedAt   time.Time
}

var accessEventHeader = []string{
	"event_id", "tenant_id", "person_id", "location_id", "event_time",
	"event_type", "result", "deny_reason", "suspicious", "badge_number", "created_at",
}

func (e AccessEventFact) record() []string {
	return []string{
		e.EventID, e.TenantID, e.PersonID, e.LocationID, fmtTime(e.EventTime),
		e.EventType, e.Result, e.DenyReason, strconv.FormatBool(e.Suspicious),
		e.BadgeNumber, fmtTime(e.CreatedAt),
	}
}

// HealthFact is one historical row of fact_connector_health.
type HealthFact struct {
	RecordID     string
	TenantID     string
	ConnectorID  string
	CheckTime    time.Time
	Status       string
	LatencyMS    int
	ErrorMessage string
	CreatedAt    time.Time
}

var healthHeader = []string{
	"record_id", "tenant_id", "connector_id", "check_time", "status",
	"latency_ms", "error_message", "created_at",
}

func (h HealthFact) record() []string {
	return []string{
		h.RecordID, h.TenantID, h.ConnectorID, fmtTime(h.CheckTime), h.Status,
		strconv.Itoa(h.LatencyMS), h.ErrorMessage, fmtTime(h.CreatedAt),
	}
}

// ComplianceFact is one historical row of fact_compliance_status.
type ComplianceFact struct {
	RecordID        string
	TenantID        string
	RequirementID   string
	RequirementName string
	Category        string
	CheckDate       time.Time
	Status          string
	FindingsCount   int
	Notes           string
	CreatedAt       time.Time
}

var complianceHeader = []string{
	"record_id", "tenant_id", "requirement_id", "requirement_name", "category",
	"check_date", "status", "findings_count", "notes", "created_at",
}

func (c ComplianceFact) record() []string {
	return []string{
		c.RecordID, c.TenantID, c.RequirementID, c.RequirementName, c.Category,
		fmtDate(c.CheckDate), c.Status, strconv.Itoa(c.FindingsCount), c.Notes,
		fmtTime(c.CreatedAt),
	}
}
