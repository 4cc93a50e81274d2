package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/example/civitas/internal/core/building"
	"github.com/example/civitas/internal/core/economy"
	"github.com/example/civitas/internal/ports/secondary"
	"github.com/example/civitas/internal/worlderr"
)

// fakeWorld is an in-memory store. Transactions are serialised and rolled
// back by restoring a snapshot.
type fakeWorld struct {
	mu sync.Mutex

	cities     map[string]secondary.CityRecord
	beacons    []secondary.BeaconRecord
	buildings  map[string]secondary.BuildingRecord
	balances   map[string]secondary.BalanceRecord
	cycles     []secondary.WorldCycleRecord
	events     []secondary.EventRecord
	identities map[string]secondary.AgentIdentity
	reports    map[string]secondary.ReportRecord
	nextID     int

	// staleCityWrites makes the next n city updates lose their compare-and-set.
	staleCityWrites int
	// staleBalanceWrites makes the next n balance updates lose their compare-and-set.
	staleBalanceWrites int
	// staleBuildingWrites makes the next n building updates lose their compare-and-set.
	staleBuildingWrites int
	// brokenCities fail every read of the given city.
	brokenCities map[string]error
	// listErr fails city listing.
	listErr error
	// reportErr fails report generation.
	reportErr error
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		cities:       map[string]secondary.CityRecord{},
		buildings:    map[string]secondary.BuildingRecord{},
		balances:     map[string]secondary.BalanceRecord{},
		identities:   map[string]secondary.AgentIdentity{},
		reports:      map[string]secondary.ReportRecord{},
		brokenCities: map[string]error{},
	}
}

// addCity seeds an OPEN city with level-0 buildings and an empty balance.
func (w *fakeWorld) addCity(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cities[id] = secondary.CityRecord{ID: id, Name: "City " + id, Region: "North", Status: "OPEN", Focus: "INFRASTRUCTURE", Version: 1}
	for _, t := range building.AllTypes {
		bid := id + "-" + string(t)
		w.buildings[bid] = secondary.BuildingRecord{ID: bid, CityID: id, Type: string(t), Version: 1}
	}
	w.balances[id] = secondary.BalanceRecord{CityID: id, Version: 1}
}

func (w *fakeWorld) addAgent(id string, verified bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.identities[id] = secondary.AgentIdentity{AgentID: id, Name: "Agent " + id, HasVerifiedIdentity: verified}
}

func (w *fakeWorld) editCity(id string, fn func(c *secondary.CityRecord)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := w.cities[id]
	fn(&c)
	w.cities[id] = c
}

func (w *fakeWorld) editBalance(id string, fn func(b *secondary.BalanceRecord)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b := w.balances[id]
	fn(&b)
	w.balances[id] = b
}

func (w *fakeWorld) editBuilding(cityID string, t building.Type, fn func(b *secondary.BuildingRecord)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := cityID + "-" + string(t)
	b := w.buildings[id]
	fn(&b)
	w.buildings[id] = b
}

func (w *fakeWorld) city(id string) secondary.CityRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cities[id]
}

func (w *fakeWorld) balance(id string) secondary.BalanceRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balances[id]
}

func (w *fakeWorld) building(cityID string, t building.Type) secondary.BuildingRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buildings[cityID+"-"+string(t)]
}

func (w *fakeWorld) eventTypes() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	types := make([]string, len(w.events))
	for i, e := range w.events {
		types[i] = e.Type
	}
	return types
}

// lastEventPayload decodes the payload of the newest recorded event.
func (w *fakeWorld) lastEventPayload(t *testing.T) map[string]any {
	t.Helper()
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.events) == 0 {
		t.Fatal("no events recorded")
	}
	var payload map[string]any
	if err := json.Unmarshal(w.events[len(w.events)-1].Payload, &payload); err != nil {
		t.Fatalf("failed to decode event payload: %v", err)
	}
	return payload
}

func (w *fakeWorld) beaconCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.beacons)
}

func (w *fakeWorld) cycleRows() []secondary.WorldCycleRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]secondary.WorldCycleRecord(nil), w.cycles...)
}

func (w *fakeWorld) id(prefix string) string {
	w.nextID++
	return fmt.Sprintf("%s-%03d", prefix, w.nextID)
}

type fakeSnapshot struct {
	cities    map[string]secondary.CityRecord
	beacons   []secondary.BeaconRecord
	buildings map[string]secondary.BuildingRecord
	balances  map[string]secondary.BalanceRecord
	cycles    []secondary.WorldCycleRecord
	events    []secondary.EventRecord
	reports   map[string]secondary.ReportRecord
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (w *fakeWorld) snapshot() fakeSnapshot {
	return fakeSnapshot{
		cities:    copyMap(w.cities),
		beacons:   append([]secondary.BeaconRecord(nil), w.beacons...),
		buildings: copyMap(w.buildings),
		balances:  copyMap(w.balances),
		cycles:    append([]secondary.WorldCycleRecord(nil), w.cycles...),
		events:    append([]secondary.EventRecord(nil), w.events...),
		reports:   copyMap(w.reports),
	}
}

func (w *fakeWorld) restore(s fakeSnapshot) {
	w.cities = s.cities
	w.beacons = s.beacons
	w.buildings = s.buildings
	w.balances = s.balances
	w.cycles = s.cycles
	w.events = s.events
	w.reports = s.reports
}

// WithinTx implements secondary.Transactor.
func (w *fakeWorld) WithinTx(ctx context.Context, fn func(ctx context.Context, s secondary.Store) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	snap := w.snapshot()
	if err := fn(ctx, fakeStore{w}); err != nil {
		w.restore(snap)
		return err
	}
	return nil
}

type fakeStore struct{ w *fakeWorld }

func (s fakeStore) Cities() secondary.CityRepository            { return fakeCities{s.w} }
func (s fakeStore) Beacons() secondary.BeaconRepository         { return fakeBeacons{s.w} }
func (s fakeStore) Buildings() secondary.BuildingRepository     { return fakeBuildings{s.w} }
func (s fakeStore) Balances() secondary.BalanceRepository       { return fakeBalances{s.w} }
func (s fakeStore) Cycles() secondary.WorldCycleRepository      { return fakeCycles{s.w} }
func (s fakeStore) Events() secondary.EventRepository           { return fakeEvents{s.w} }
func (s fakeStore) Identities() secondary.AgentIdentityProvider { return fakeIdentities{s.w} }
func (s fakeStore) Reports() secondary.ReportGenerator          { return fakeReports{s.w} }

type fakeCities struct{ w *fakeWorld }

func (r fakeCities) GetByID(ctx context.Context, id string) (*secondary.CityRecord, error) {
	if err := r.w.brokenCities[id]; err != nil {
		return nil, err
	}
	c, ok := r.w.cities[id]
	if !ok {
		return nil, worlderr.NotFound("get_city", "city %s not found", id)
	}
	return &c, nil
}

func (r fakeCities) List(ctx context.Context, filters secondary.CityFilters) ([]*secondary.CityRecord, error) {
	if r.w.listErr != nil {
		return nil, r.w.listErr
	}
	var out []*secondary.CityRecord
	for _, c := range r.w.cities {
		if filters.Status != "" && c.Status != filters.Status {
			continue
		}
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakeCities) Update(ctx context.Context, c *secondary.CityRecord) error {
	if r.w.staleCityWrites > 0 {
		r.w.staleCityWrites--
		return secondary.ErrStaleWrite
	}
	cur, ok := r.w.cities[c.ID]
	if !ok || cur.Version != c.Version {
		return secondary.ErrStaleWrite
	}
	c.Version++
	r.w.cities[c.ID] = *c
	return nil
}

type fakeBeacons struct{ w *fakeWorld }

func (r fakeBeacons) Create(ctx context.Context, b *secondary.BeaconRecord) error {
	if b.ID == "" {
		b.ID = r.w.id("BEACON")
	}
	r.w.beacons = append(r.w.beacons, *b)
	return nil
}

func (r fakeBeacons) ListByCity(ctx context.Context, cityID string, limit int) ([]*secondary.BeaconRecord, error) {
	var out []*secondary.BeaconRecord
	for i := len(r.w.beacons) - 1; i >= 0; i-- {
		b := r.w.beacons[i]
		if b.CityID != cityID {
			continue
		}
		out = append(out, &b)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeBuildings struct{ w *fakeWorld }

func (r fakeBuildings) GetByCityAndType(ctx context.Context, cityID, buildingType string) (*secondary.BuildingRecord, error) {
	b, ok := r.w.buildings[cityID+"-"+buildingType]
	if !ok {
		return nil, worlderr.NotFound("get_building", "building %s not found in city %s", buildingType, cityID)
	}
	return &b, nil
}

func (r fakeBuildings) ListByCity(ctx context.Context, cityID string) ([]*secondary.BuildingRecord, error) {
	var out []*secondary.BuildingRecord
	for _, t := range building.AllTypes {
		if b, ok := r.w.buildings[cityID+"-"+string(t)]; ok {
			out = append(out, &b)
		}
	}
	return out, nil
}

func (r fakeBuildings) ListDue(ctx context.Context, cityID string, now time.Time) ([]*secondary.BuildingRecord, error) {
	all, _ := r.ListByCity(ctx, cityID)
	var out []*secondary.BuildingRecord
	for _, b := range all {
		if b.Upgrading && b.UpgradeCompleteAt != nil && !b.UpgradeCompleteAt.After(now) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r fakeBuildings) Update(ctx context.Context, b *secondary.BuildingRecord) error {
	if r.w.staleBuildingWrites > 0 {
		r.w.staleBuildingWrites--
		return secondary.ErrStaleWrite
	}
	cur, ok := r.w.buildings[b.ID]
	if !ok || cur.Version != b.Version {
		return secondary.ErrStaleWrite
	}
	b.Version++
	r.w.buildings[b.ID] = *b
	return nil
}

type fakeBalances struct{ w *fakeWorld }

func (r fakeBalances) GetByCity(ctx context.Context, cityID string) (*secondary.BalanceRecord, error) {
	b, ok := r.w.balances[cityID]
	if !ok {
		return nil, worlderr.NotFound("get_balance", "balance for city %s not found", cityID)
	}
	return &b, nil
}

func (r fakeBalances) Update(ctx context.Context, b *secondary.BalanceRecord) error {
	if r.w.staleBalanceWrites > 0 {
		r.w.staleBalanceWrites--
		return secondary.ErrStaleWrite
	}
	cur, ok := r.w.balances[b.CityID]
	if !ok || cur.Version != b.Version {
		return secondary.ErrStaleWrite
	}
	if b.Materials < 0 || b.Energy < 0 || b.Knowledge < 0 || b.Influence < 0 {
		return fmt.Errorf("negative balance for city %s", b.CityID)
	}
	b.Version++
	r.w.balances[b.CityID] = *b
	return nil
}

type fakeCycles struct{ w *fakeWorld }

func (r fakeCycles) GetLatest(ctx context.Context) (*secondary.WorldCycleRecord, error) {
	if len(r.w.cycles) == 0 {
		return nil, nil
	}
	c := r.w.cycles[len(r.w.cycles)-1]
	return &c, nil
}

func (r fakeCycles) Create(ctx context.Context, c *secondary.WorldCycleRecord) error {
	if c.ID == "" {
		c.ID = r.w.id("CYCLE")
	}
	r.w.cycles = append(r.w.cycles, *c)
	return nil
}

func (r fakeCycles) UpdateStatus(ctx context.Context, id, status string) error {
	for i := range r.w.cycles {
		if r.w.cycles[i].ID == id {
			r.w.cycles[i].Status = status
			return nil
		}
	}
	return worlderr.NotFound("update_cycle_status", "cycle %s not found", id)
}

type fakeEvents struct{ w *fakeWorld }

func (r fakeEvents) Append(ctx context.Context, e *secondary.EventRecord) error {
	if e.ID == "" {
		e.ID = r.w.id("EVENT")
	}
	r.w.events = append(r.w.events, *e)
	return nil
}

func (r fakeEvents) List(ctx context.Context, filters secondary.EventFilters) ([]*secondary.EventRecord, error) {
	var out []*secondary.EventRecord
	for _, e := range r.w.events {
		if filters.CityID != "" && e.CityID != filters.CityID {
			continue
		}
		if filters.Type != "" && e.Type != filters.Type {
			continue
		}
		e := e
		out = append(out, &e)
	}
	return out, nil
}

func (r fakeEvents) CountByType(ctx context.Context, since, until time.Time) (map[string]int, error) {
	counts := map[string]int{}
	for _, e := range r.w.events {
		if !e.OccurredAt.Before(since) && e.OccurredAt.Before(until) {
			counts[e.Type]++
		}
	}
	return counts, nil
}

type fakeIdentities struct{ w *fakeWorld }

func (r fakeIdentities) GetIdentity(ctx context.Context, agentID string) (*secondary.AgentIdentity, error) {
	id, ok := r.w.identities[agentID]
	if !ok {
		return nil, worlderr.NotFound("get_identity", "agent %s not found", agentID)
	}
	return &id, nil
}

func (r fakeIdentities) RecordFirstClaim(ctx context.Context, agentID, cityID string) error {
	id, ok := r.w.identities[agentID]
	if ok && id.FirstCityClaimedID == "" {
		id.FirstCityClaimedID = cityID
		r.w.identities[agentID] = id
	}
	return nil
}

func (r fakeIdentities) CountAgents(ctx context.Context) (int, error) {
	return len(r.w.identities), nil
}

type fakeReports struct{ w *fakeWorld }

func (r fakeReports) Generate(ctx context.Context, req secondary.ReportRequest) (*secondary.ReportRecord, bool, error) {
	if r.w.reportErr != nil {
		return nil, false, r.w.reportErr
	}
	key := req.Kind + "|" + req.PeriodStart.Format(time.RFC3339)
	if existing, ok := r.w.reports[key]; ok {
		return &existing, false, nil
	}
	rep := secondary.ReportRecord{
		ID:          r.w.id("REPORT"),
		Kind:        req.Kind,
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
		GeneratedAt: req.GeneratedAt,
	}
	r.w.reports[key] = rep
	return &rep, true, nil
}

// recordingPublisher captures mirrored events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*secondary.EventRecord
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, events []*secondary.EventRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// testClock is a settable secondary.Clock.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var (
	_ secondary.Transactor     = (*fakeWorld)(nil)
	_ secondary.Store          = fakeStore{}
	_ secondary.EventPublisher = (*recordingPublisher)(nil)
	_ secondary.Clock          = (*testClock)(nil)
)

var t0 = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

// testHarness wires every service against one fake world.
type testHarness struct {
	world      *fakeWorld
	clock      *testClock
	publisher  *recordingPublisher
	governance *GovernanceServiceImpl
	economy    *EconomyServiceImpl
	buildings  *BuildingServiceImpl
	cycles     *WorldCycleServiceImpl
}

func newTestHarness() *testHarness {
	h := &testHarness{
		world:     newFakeWorld(),
		clock:     &testClock{t: t0},
		publisher: &recordingPublisher{},
	}
	uow := NewUnitOfWork(h.world, NewEffectExecutor(), h.publisher, RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond})
	h.governance = NewGovernanceService(uow, h.clock, 24*time.Hour)
	h.economy = NewEconomyService(uow, h.clock, economy.DefaultTuning(), FocusPolicy{Cost: 50, Cooldown: 24 * time.Hour})
	h.buildings = NewBuildingService(uow, h.clock, building.DefaultRules())
	h.cycles = NewWorldCycleService(uow, h.governance, h.buildings, h.economy, CycleOptions{
		Interval:    24 * time.Hour,
		CityTimeout: time.Second,
		Parallelism: 2,
	})
	return h
}

// governedCity seeds a city governed by agentID, claimed at t0.
func (h *testHarness) governedCity(cityID, agentID string) {
	h.world.addCity(cityID)
	claimed := t0
	h.world.editCity(cityID, func(c *secondary.CityRecord) {
		c.Status = "GOVERNED"
		c.GovernorID = agentID
		c.ClaimedAt = &claimed
	})
}
