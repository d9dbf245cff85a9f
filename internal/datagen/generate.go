package datagen

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
)

// Dataset holds everything one run produces, dimensions first so facts can
// reference them.
type Dataset struct {
	Tenants      []Tenant
	Sites        []Site
	Locations    []Location
	Connectors   []ConnectorDim
	Persons      []Person
	Entitlements []Entitlement

	AccessEvents     []AccessEventFact
	ConnectorHealth  []HealthFact
	ComplianceStatus []ComplianceFact
}

// Generator produces a deterministic Dataset from a topology and a seed.
type Generator struct {
	topo  *Topology
	rng   *rand.Rand
	faker *gofakeit.Faker
	now   time.Time
}

// NewGenerator seeds a generator. A zero seed falls back to the topology's
// seed, then to the current time.
func NewGenerator(topo *Topology, seed int64) *Generator {
	if seed == 0 {
		seed = topo.General.RandomSeed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		topo:  topo,
		rng:   rand.New(rand.NewSource(seed)),
		faker: gofakeit.New(uint64(seed)),
		now:   time.Now().UTC().Truncate(time.Second),
	}
}

// Generate builds all dimensions and days of fact history.
func (g *Generator) Generate(days int) *Dataset {
	if days <= 0 {
		days = g.topo.General.HistoryDays
	}
	d := &Dataset{
		Tenants:      g.GenerateTenants(),
		Sites:        g.GenerateSites(),
		Locations:    g.GenerateLocations(),
		Connectors:   g.GenerateConnectors(),
		Persons:      g.GeneratePersons(),
	}
	d.Entitlements = g.GenerateEntitlements(d.Persons, d.Locations)
	d.AccessEvents = g.GenerateAccessEvents(d.Persons, d.Locations, d.Entitlements, days)
	d.ConnectorHealth = g.GenerateConnectorHealth(days)
	d.ComplianceStatus = g.GenerateComplianceStatus(days)
	return d
}

// GenerateTenants emits one dimension row per configured tenant.
func (g *Generator) GenerateTenants() []Tenant {
	tenants := make([]Tenant, 0, len(g.topo.Tenants))
	for _, t := range g.topo.Tenants {
		tenants = append(tenants, Tenant{
			TenantID:   t.ID,
			TenantName: t.Name,
			Industry:   t.Industry,
			CreatedAt:  g.pastTimestamp(),
			UpdatedAt:  g.now,
		})
	}
	return tenants
}

// GenerateSites flattens every tenant's site list.
func (g *Generator) GenerateSites() []Site {
	var sites []Site
	for _, t := range g.topo.Tenants {
		for _, s := range t.Sites {
			sites = append(sites, Site{
				SiteID:    s.ID,
				TenantID:  t.ID,
				SiteName:  s.Name,
				City:      s.City,
				State:     s.State,
				Country:   s.Country,
				Timezone:  s.Timezone,
				CreatedAt: g.pastTimestamp(),
				UpdatedAt: g.now,
			})
		}
	}
	return sites
}

// GenerateLocations emits one row per door in the topology.
func (g *Generator) GenerateLocations() []Location {
	var locations []Location
	for _, t := range g.topo.Tenants {
		for _, s := range t.Sites {
			for _, b := range s.Buildings {
				for _, f := range b.Floors {
					for _, door := range f.Doors {
						locations = append(locations, Location{
							LocationID:    door.ID,
							TenantID:      t.ID,
							SiteID:        s.ID,
							BuildingName:  b.Name,
							FloorNumber:   f.FloorNumber,
							DoorName:      door.Name,
							DoorType:      door.DoorType,
							SecurityLevel: door.SecurityLevel,
							CreatedAt:     g.pastTimestamp(),
							UpdatedAt:     g.now,
						})
					}
				}
			}
		}
	}
	return locations
}

// GenerateConnectors emits one row per connector in the topology.
func (g *Generator) GenerateConnectors() []ConnectorDim {
	var connectors []ConnectorDim
	for _, t := range g.topo.Tenants {
		for _, s := range t.Sites {
			for _, b := range s.Buildings {
				for _, c := range b.Connectors {
					connectors = append(connectors, ConnectorDim{
						ConnectorID:   c.ID,
						TenantID:      t.ID,
						SiteID:        s.ID,
						ConnectorName: c.Name,
						ConnectorType: c.Type,
						Profile:       c.Profile,
						CreatedAt:     g.pastTimestamp(),
						UpdatedAt:     g.now,
					})
				}
			}
		}
	}
	return connectors
}

// GeneratePersons creates the badge-holder population: employees spread over
// departments by headcount weight, plus contractors with a higher churn rate.
func (g *Generator) GeneratePersons() []Person {
	var persons []Person
	for _, t := range g.topo.Tenants {
		deptWeights := make([]float64, len(t.Departments))
		for i, d := range t.Departments {
			deptWeights[i] = d.HeadcountPct
		}

		for i := 0; i < t.EmployeeCount; i++ {
			first := g.faker.FirstName()
			last := g.faker.LastName()
			dept := "General"
			if len(t.Departments) > 0 {
				dept = t.Departments[g.pickWeighted(deptWeights)].Name
			}

			status := "active"
			if g.rng.Float64() >= 0.95 {
				status = "inactive"
			}

			persons = append(persons, Person{
				PersonID:    fmt.Sprintf("%s-emp-%04d", t.ID, i),
				TenantID:    t.ID,
				BadgeNumber: fmt.Sprintf("B%06d", g.rng.Intn(900000)+100000),
				FirstName:   first,
				LastName:    last,
				Email:       fmt.Sprintf("%s.%s@%s.com", strings.ToLower(first), strings.ToLower(last), t.ID),
				Department:  dept,
				JobTitle:    g.faker.JobTitle(),
				PersonType:  "employee",
				Status:      status,
				HireDate:    g.timeBetween(g.now.AddDate(-5, 0, 0), g.now.AddDate(0, 0, -30)),
				CreatedAt:   g.pastTimestamp(),
				UpdatedAt:   g.now,
			})
		}

		for i := 0; i < t.ContractorCount; i++ {
			first := g.faker.FirstName()
			last := g.faker.LastName()

			status := "active"
			if g.rng.Float64() >= 0.80 {
				status = "inactive"
			}
			hireDate := g.timeBetween(g.now.AddDate(-2, 0, 0), g.now.AddDate(0, 0, -7))
			var termDate time.Time
			if status == "inactive" {
				termDate = g.timeBetween(hireDate, g.now)
			}

			persons = append(persons, Person{
				PersonID:        fmt.Sprintf("%s-con-%04d", t.ID, i),
				TenantID:        t.ID,
				BadgeNumber:     fmt.Sprintf("C%06d", g.rng.Intn(900000)+100000),
				FirstName:       first,
				LastName:        last,
				Email:           fmt.Sprintf("%s.%s@contractor.com", strings.ToLower(first), strings.ToLower(last)),
				Department:      "Contractor",
				JobTitle:        "Contractor",
				PersonType:      "contractor",
				Status:          status,
				HireDate:        hireDate,
				TerminationDate: termDate,
				CreatedAt:       g.pastTimestamp(),
				UpdatedAt:       g.now,
			})
		}
	}
	return persons
}

// GenerateEntitlements grants active persons access to doors based on role:
// executives and directors open everything, managers everything below
// critical, regular employees low and medium, contractors low only.
func (g *Generator) GenerateEntitlements(persons []Person, locations []Location) []Entitlement {
	locationsByTenant := make(map[string][]Location)
	for _, loc := range locations {
		locationsByTenant[loc.TenantID] = append(locationsByTenant[loc.TenantID], loc)
	}

	var entitlements []Entitlement
	for _, p := range persons {
		if p.Status != "active" {
			continue
		}
		tenantLocations := locationsByTenant[p.TenantID]
		for _, loc := range tenantLocations {
			if !accessAllowed(p, loc.SecurityLevel) {
				continue
			}
			entitlements = append(entitlements, Entitlement{
				EntitlementID: uuid.NewString(),
				TenantID:      p.TenantID,
				PersonID:      p.PersonID,
				LocationID:    loc.LocationID,
				AccessLevel:   "standard",
				StartDate:     p.HireDate,
				CreatedAt:     g.now,
				UpdatedAt:     g.now,
			})
		}
	}
	return entitlements
}

func accessAllowed(p Person, securityLevel string) bool {
	if p.PersonType == "contractor" {
		return securityLevel == "low"
	}
	switch {
	case strings.Contains(p.JobTitle, "Executive"), strings.Contains(p.JobTitle, "Director"):
		return true
	case strings.Contains(p.JobTitle, "Manager"):
		return securityLevel != "critical"
	default:
		return securityLevel == "low" || securityLevel == "medium"
	}
}

// GenerateAccessEvents produces days of badge reads per tenant: 5-10 events
// per active person per day with +-30% daily variation, 85% of them during
// business hours, denies driven by missing entitlements plus the tenant's
// configured deny rate, and 0.5% flagged suspicious. Events are sorted by
// event time.
func (g *Generator) GenerateAccessEvents(persons []Person, locations []Location, entitlements []Entitlement, days int) []AccessEventFact {
	personsByTenant := make(map[string][]Person)
	for _, p := range persons {
		if p.Status == "active" {
			personsByTenant[p.TenantID] = append(personsByTenant[p.TenantID], p)
		}
	}
	locationsByTenant := make(map[string][]Location)
	for _, loc := range locations {
		locationsByTenant[loc.TenantID] = append(locationsByTenant[loc.TenantID], loc)
	}

	type grant struct{ personID, locationID string }
	entitled := make(map[grant]struct{}, len(entitlements))
	for _, e := range entitlements {
		entitled[grant{e.PersonID, e.LocationID}] = struct{}{}
	}

	denyCodes := make([]string, len(g.topo.DenyReasons))
	denyWeights := make([]float64, len(g.topo.DenyReasons))
	for i, r := range g.topo.DenyReasons {
		denyCodes[i] = r.Code
		denyWeights[i] = r.Weight
	}

	startDate := g.now.AddDate(0, 0, -days)

	var events []AccessEventFact
	for _, t := range g.topo.Tenants {
		tenantPersons := personsByTenant[t.ID]
		tenantLocations := locationsByTenant[t.ID]
		if len(tenantPersons) == 0 || len(tenantLocations) == 0 {
			continue
		}

		eventsPerDay := len(tenantPersons) * (g.rng.Intn(6) + 5)

		for day := startDate; day.Before(g.now); day = day.AddDate(0, 0, 1) {
			dailyEvents := int(float64(eventsPerDay) * (0.7 + g.rng.Float64()*0.6))

			for i := 0; i < dailyEvents; i++ {
				person := tenantPersons[g.rng.Intn(len(tenantPersons))]
				location := tenantLocations[g.rng.Intn(len(tenantLocations))]

				eventTime := time.Date(
					day.Year(), day.Month(), day.Day(),
					g.businessHour(), g.rng.Intn(60), g.rng.Intn(60), 0, time.UTC,
				)

				_, hasEntitlement := entitled[grant{person.PersonID, location.LocationID}]
				result := "grant"
				denyReason := ""
				if !hasEntitlement || g.rng.Float64() <= t.DenyRate {
					result = "deny"
					if len(denyCodes) > 0 {
						denyReason = denyCodes[g.pickWeighted(denyWeights)]
					} else {
						denyReason = "NO_ENTITLEMENT"
					}
				}

				events = append(events, AccessEventFact{
					EventID:     uuid.NewString(),
					TenantID:    t.ID,
					PersonID:    person.PersonID,
					LocationID:  location.LocationID,
					EventTime:   eventTime,
					EventType:   "badge_read",
					Result:      result,
					DenyReason:  denyReason,
					Suspicious:  g.rng.Float64() < 0.005,
					BadgeNumber: person.BadgeNumber,
					CreatedAt:   eventTime,
				})
			}
		}
	}

	sort.Slice(events, func(i, j int) bool { return events[i].EventTime.Before(events[j].EventTime) })
	return events
}

// businessHour biases 85% of events into 07:00-19:00.
func (g *Generator) businessHour() int {
	if g.rng.Float64() < 0.85 {
		return g.rng.Intn(13) + 7
	}
	offHours := []int{0, 1, 2, 3, 4, 5, 6, 20, 21, 22, 23}
	return offHours[g.rng.Intn(len(offHours))]
}

// GenerateConnectorHealth produces a health check every five minutes per
// connector. The connector's profile sets the status mix: stable is 99%
// healthy, degraded is 85/10/5, flaky is 70/15/15.
func (g *Generator) GenerateConnectorHealth(days int) []HealthFact {
	const interval = 5 * time.Minute
	startDate := g.now.AddDate(0, 0, -days)

	var records []HealthFact
	for _, t := range g.topo.Tenants {
		for _, s := range t.Sites {
			for _, b := range s.Buildings {
				for _, c := range b.Connectors {
					for ts := startDate; ts.Before(g.now); ts = ts.Add(interval) {
						status, latency := g.healthSample(c.Profile)

						errorMessage := ""
						if status != "healthy" {
							errorMessage = fmt.Sprintf("%s: Connection issue", strings.ToUpper(status))
						}

						records = append(records, HealthFact{
							RecordID:     uuid.NewString(),
							TenantID:     t.ID,
							ConnectorID:  c.ID,
							CheckTime:    ts,
							Status:       status,
							LatencyMS:    latency,
							ErrorMessage: errorMessage,
							CreatedAt:    ts,
						})
					}
				}
			}
		}
	}

	sort.Slice(records, func(i, j int) bool { return records[i].CheckTime.Before(records[j].CheckTime) })
	return records
}

func (g *Generator) healthSample(profile string) (status string, latency int) {
	roll := g.rng.Float64()
	switch profile {
	case "stable":
		if roll < 0.99 {
			return "healthy", g.rng.Intn(41) + 10
		}
		if g.rng.Float64() < 0.5 {
			return "degraded", g.rng.Intn(401) + 100
		}
		return "offline", 0
	case "flaky":
		switch {
		case roll < 0.70:
			return "healthy", g.rng.Intn(71) + 30
		case roll < 0.85:
			return "degraded", g.rng.Intn(701) + 300
		default:
			return "offline", 0
		}
	default: // degraded
		switch {
		case roll < 0.85:
			return "healthy", g.rng.Intn(61) + 20
		case roll < 0.95:
			return "degraded", g.rng.Intn(601) + 200
		default:
			return "offline", 0
		}
	}
}

// GenerateComplianceStatus produces weekly checks of every requirement per
// tenant: 85% compliant, 10% non-compliant with findings, 5% pending review.
func (g *Generator) GenerateComplianceStatus(days int) []ComplianceFact {
	startDate := g.now.AddDate(0, 0, -days)

	var records []ComplianceFact
	for _, t := range g.topo.Tenants {
		for day := startDate; day.Before(g.now); day = day.AddDate(0, 0, 7) {
			for _, req := range g.topo.ComplianceRequirements {
				status := "compliant"
				findings := 0
				notes := ""
				switch roll := g.rng.Float64(); {
				case roll < 0.85:
				case roll < 0.95:
					status = "non_compliant"
					findings = g.rng.Intn(5) + 1
					notes = fmt.Sprintf("Review needed for %s", req.Name)
				default:
					status = "pending_review"
					findings = g.rng.Intn(3)
					notes = fmt.Sprintf("Review needed for %s", req.Name)
				}

				records = append(records, ComplianceFact{
					RecordID:        uuid.NewString(),
					TenantID:        t.ID,
					RequirementID:   req.ID,
					RequirementName: req.Name,
					Category:        req.Category,
					CheckDate:       day,
					Status:          status,
					FindingsCount:   findings,
					Notes:           notes,
					CreatedAt:       day,
				})
			}
		}
	}

	sort.Slice(records, func(i, j int) bool { return records[i].CheckDate.Before(records[j].CheckDate) })
	return records
}

// pastTimestamp returns a created_at between two years and one year ago.
func (g *Generator) pastTimestamp() time.Time {
	return g.timeBetween(g.now.AddDate(-2, 0, 0), g.now.AddDate(-1, 0, 0))
}

func (g *Generator) timeBetween(start, end time.Time) time.Time {
	span := end.Sub(start)
	if span <= 0 {
		return start
	}
	return start.Add(time.Duration(g.rng.Int63n(int64(span)))).Truncate(time.Second)
}

// pickWeighted returns an index chosen proportionally to weights. Falls back
// to uniform when all weights are zero.
func (g *Generator) pickWeighted(weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return g.rng.Intn(len(weights))
	}
	roll := g.rng.Float64() * total
	for i, w := range weights {
		roll -= w
		if roll < 0 {
			return i
		}
	}
	return len(weights) - 1
}
