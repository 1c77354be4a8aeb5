package pin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/livehike/livehike/internal/blob"
	"github.com/livehike/livehike/internal/geo"
	"github.com/livehike/livehike/internal/trail"
)

// Store errors.
var (
	ErrPinNotFound    = errors.New("pin not found")
	ErrTrailNotFound  = errors.New("trail not found")
	ErrNotOwner       = errors.New("only the pin's creator may delete it")
	ErrDetailMismatch = errors.New("detail record does not match pin type")
	ErrDuplicatePin   = errors.New("pin already exists")
)

// DefaultPersistTimeout bounds a single write of the store to its backend.
const DefaultPersistTimeout = 5 * time.Second

// StoreConfig holds the Store's collaborators.
type StoreConfig struct {
	// Blobs is the persistence backend. Required.
	Blobs blob.Store

	Logger  zerolog.Logger
	Metrics *Metrics

	// SeedDemoData seeds and persists DemoDataset when the backend holds
	// neither pins nor trails.
	SeedDemoData bool

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time

	// PersistTimeout bounds each write. Default: DefaultPersistTimeout.
	PersistTimeout time.Duration
}

// Store is the single authoritative collection of pins, their detail
// records and the trail catalog.
//
// Every mutation, including its write to the blob backend and its event
// broadcast, runs under one write lock, so no reader ever observes half of a
// cascading delete. Persistence is best effort: failures are logged and
// counted but never undo the in-memory change.
type Store struct {
	mu         sync.RWMutex
	locations  []PinLocation
	hazards    []HazardPin
	wrongTurns []WrongTurnPin
	trails     []trail.Trail

	blobs          blob.Store
	log            zerolog.Logger
	metrics        *Metrics
	now            func() time.Time
	persistTimeout time.Duration
	events         *broker
}

// NewStore loads the store from cfg.Blobs. Missing or undecodable
// collections load as empty. Backend errors other than a missing key are
// returned, since seeding over an unreachable backend would overwrite it
// later.
func NewStore(ctx context.Context, cfg StoreConfig) (*Store, error) {
	if cfg.Blobs == nil {
		return nil, errors.New("pin store requires a blob backend")
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.PersistTimeout == 0 {
		cfg.PersistTimeout = DefaultPersistTimeout
	}

	s := &Store{
		blobs:          cfg.Blobs,
		log:            cfg.Logger.With().Str("component", "pin_store").Logger(),
		metrics:        cfg.Metrics,
		now:            cfg.Clock,
		persistTimeout: cfg.PersistTimeout,
		events:         newBroker(),
	}

	raw := make(map[string][]byte, len(Keys))
	for _, key := range Keys {
		b, err := cfg.Blobs.Get(ctx, key)
		if err != nil {
			if errors.Is(err, blob.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("load %s: %w", key, err)
		}
		raw[key] = b
	}

	data, decodeErrs := DecodeDataset(raw)
	for key, err := range decodeErrs {
		s.log.Warn().Err(err).Str("key", key).Msg("discarding undecodable collection")
	}

	if len(data.PinLocations) == 0 && len(data.Trails) == 0 && cfg.SeedDemoData {
		data = DemoDataset(s.now())
		s.log.Info().
			Int("trails", len(data.Trails)).
			Int("pins", len(data.PinLocations)).
			Msg("seeding demo data")
		s.set(data)
		s.persist(ctx)
		return s, nil
	}

	s.set(data)
	s.log.Info().
		Int("trails", len(s.trails)).
		Int("pins", len(s.locations)).
		Int("hazards", len(s.hazards)).
		Int("wrong_turns", len(s.wrongTurns)).
		Msg("pin store loaded")
	return s, nil
}

func (s *Store) set(d Dataset) {
	s.locations = nonNil(d.PinLocations)
	s.hazards = nonNil(d.HazardPins)
	s.wrongTurns = nonNil(d.WrongTurnPins)
	s.trails = nonNil(d.Trails)
}

// persist writes all four collections. Callers hold s.mu.
func (s *Store) persist(ctx context.Context) {
	entries, err := Dataset{
		PinLocations:  s.locations,
		HazardPins:    s.hazards,
		WrongTurnPins: s.wrongTurns,
		Trails:        s.trails,
	}.Encode()
	if err != nil {
		s.metrics.recordPersistFailure(ctx)
		s.log.Error().Err(err).Msg("failed to encode pin store")
		return
	}

	// Detached from the caller: a client hanging up must not drop the write.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
	defer cancel()

	if err := s.blobs.PutMany(writeCtx, entries); err != nil {
		s.metrics.recordPersistFailure(ctx)
		s.log.Error().Err(err).Strs("keys", Keys).Msg("failed to persist pin store")
	}
}

// emit records and broadcasts a mutation. Callers hold s.mu.
func (s *Store) emit(ctx context.Context, e Event) {
	e.At = s.now().UTC()
	var pinType PinType
	switch {
	case e.Pin != nil:
		pinType = e.Pin.Type
	case e.Hazard != nil:
		pinType = TypeHazard
	case e.WrongTurn != nil:
		pinType = TypeWrongTurn
	}
	s.metrics.recordMutation(ctx, e.Kind, pinType)
	s.events.publish(e)
}

// Subscribe returns a channel receiving every mutation made after the call.
// The channel is closed once ctx ends. Events are dropped for a subscriber
// whose buffer is full.
func (s *Store) Subscribe(ctx context.Context, buffer int) <-chan Event {
	return s.events.subscribe(ctx, buffer)
}

// Subscribers returns the number of active subscriptions.
func (s *Store) Subscribers() int {
	return s.events.count()
}

// Ping checks the blob backend.
func (s *Store) Ping(ctx context.Context) error {
	return s.blobs.Ping(ctx)
}

// Trails returns a copy of the trail catalog.
func (s *Store) Trails() []trail.Trail {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return trail.Search(s.trails, "")
}

// SearchTrails returns trails whose name or location contains query, ignoring case.
func (s *Store) SearchTrails(query string) []trail.Trail {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return trail.Search(s.trails, query)
}

// TrailByName returns the trail whose name equals name, ignoring case.
func (s *Store) TrailByName(name string) (trail.Trail, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trailByNameLocked(name)
}

func (s *Store) trailByNameLocked(name string) (trail.Trail, bool) {
	for _, t := range s.trails {
		if trail.MatchesName(t, name) {
			return t.Clone(), true
		}
	}
	return trail.Trail{}, false
}

// TrailRegion returns the map region framing t.
func (s *Store) TrailRegion(t trail.Trail) geo.Region {
	return trail.RegionFor(t)
}

// PinsForTrail returns the pins on the named trail, ignoring case, in
// insertion order.
func (s *Store) PinsForTrail(trailName string) []PinLocation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]PinLocation, 0)
	for _, p := range s.locations {
		if strings.EqualFold(p.TrailName, trailName) {
			result = append(result, p.clone())
		}
	}
	return result
}

// PinLocation returns the pin with the given id.
func (s *Store) PinLocation(id string) (PinLocation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.locations[i].clone(), true
	}
	return PinLocation{}, false
}

func (s *Store) indexOf(id string) int {
	for i := range s.locations {
		if s.locations[i].ID == id {
			return i
		}
	}
	return -1
}

// AddPinLocation inserts p. A pin with the same id already present makes this
// a no-op.
func (s *Store) AddPinLocation(ctx context.Context, p PinLocation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(p.ID) >= 0 {
		return
	}
	s.locations = append(s.locations, p.clone())
	s.persist(ctx)

	added := p.clone()
	s.emit(ctx, Event{Kind: EventPinAdded, TrailName: p.TrailName, Pin: &added})
}

// DeletePinLocation removes p and its detail record. Only the detail
// collection matching p's declared type is touched. The store is persisted
// even when p is unknown.
func (s *Store) DeletePinLocation(ctx context.Context, p PinLocation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteLocked(ctx, p, EventPinDeleted)
}

// DeletePinLocationAs removes the pin with p's id on behalf of actor. It
// returns ErrPinNotFound for an unknown id and ErrNotOwner when actor did not
// create the pin; neither case changes or persists the store.
func (s *Store) DeletePinLocationAs(ctx context.Context, actor string, p PinLocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(p.ID)
	if i < 0 {
		return ErrPinNotFound
	}
	stored := s.locations[i]
	if !stored.CanDelete(actor) {
		return ErrNotOwner
	}

	s.deleteLocked(ctx, stored, EventPinDeleted)
	return nil
}

func (s *Store) deleteLocked(ctx context.Context, p PinLocation, kind EventKind) {
	switch p.Type {
	case TypeHazard:
		s.hazards = removeWhere(s.hazards, func(h HazardPin) bool { return h.PinLocationID == p.ID })
	case TypeWrongTurn:
		s.wrongTurns = removeWhere(s.wrongTurns, func(w WrongTurnPin) bool { return w.PinLocationID == p.ID })
	}

	var removed *PinLocation
	if i := s.indexOf(p.ID); i >= 0 {
		r := s.locations[i].clone()
		removed = &r
	}
	s.locations = removeWhere(s.locations, func(l PinLocation) bool { return l.ID == p.ID })
	s.persist(ctx)

	if removed != nil {
		s.emit(ctx, Event{Kind: kind, TrailName: removed.TrailName, Pin: removed})
	}
}

// VerifyPin records a confirmation that the pin is still accurate.
// Unknown pins are ignored.
func (s *Store) VerifyPin(ctx context.Context, p PinLocation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(p.ID)
	if i < 0 {
		return
	}

	now := s.now().UTC()
	s.locations[i].VerifiedCount++
	s.locations[i].UpdatedAt = &now
	s.persist(ctx)

	updated := s.locations[i].clone()
	s.emit(ctx, Event{Kind: EventPinVerified, TrailName: updated.TrailName, Pin: &updated})
}

// DismissPin records a report that the pin is no longer accurate. Hazard and
// wildlife pins reaching ExpiryDismissals are deleted along with their detail
// record. It reports whether the pin expired. Unknown pins are ignored.
func (s *Store) DismissPin(ctx context.Context, p PinLocation) (expired bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(p.ID)
	if i < 0 {
		return false
	}

	now := s.now().UTC()
	s.locations[i].DismissedCount++
	s.locations[i].UpdatedAt = &now
	updated := s.locations[i].clone()

	if updated.DismissedCount >= ExpiryDismissals && updated.Type.AutoExpires() {
		s.log.Info().
			Str("pin_id", updated.ID).
			Str("type", string(updated.Type)).
			Int("dismissed_count", updated.DismissedCount).
			Msg("pin expired")
		s.deleteLocked(ctx, updated, EventPinExpired)
		return true
	}

	s.persist(ctx)
	s.emit(ctx, Event{Kind: EventPinDismissed, TrailName: updated.TrailName, Pin: &updated})
	return false
}

// AddHazardPin inserts a hazard detail record. A record with the same id
// already present makes this a no-op.
func (s *Store) AddHazardPin(ctx context.Context, h HazardPin) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.addHazardLocked(h) {
		return
	}
	s.persist(ctx)
	s.emitHazard(ctx, h)
}

func (s *Store) hasHazardLocked(id string) bool {
	for _, existing := range s.hazards {
		if existing.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) addHazardLocked(h HazardPin) bool {
	if s.hasHazardLocked(h.ID) {
		return false
	}
	s.hazards = append(s.hazards, h.clone())
	return true
}

func (s *Store) emitHazard(ctx context.Context, h HazardPin) {
	added := h.clone()
	e := Event{Kind: EventHazardAdded, Hazard: &added}
	if i := s.indexOf(h.PinLocationID); i >= 0 {
		loc := s.locations[i].clone()
		e.Pin = &loc
		e.TrailName = loc.TrailName
	}
	s.emit(ctx, e)
}

// AddWrongTurnPin inserts a wrong-turn detail record. A record with the same
// id already present makes this a no-op.
func (s *Store) AddWrongTurnPin(ctx context.Context, w WrongTurnPin) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.addWrongTurnLocked(w) {
		return
	}
	s.persist(ctx)
	s.emitWrongTurn(ctx, w)
}

func (s *Store) hasWrongTurnLocked(id string) bool {
	for _, existing := range s.wrongTurns {
		if existing.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) addWrongTurnLocked(w WrongTurnPin) bool {
	if s.hasWrongTurnLocked(w.ID) {
		return false
	}
	cpy := w.clone()
	if cpy.Landmarks == nil {
		cpy.Landmarks = []string{}
	}
	s.wrongTurns = append(s.wrongTurns, cpy)
	return true
}

func (s *Store) emitWrongTurn(ctx context.Context, w WrongTurnPin) {
	added := w.clone()
	e := Event{Kind: EventWrongTurnAdded, WrongTurn: &added}
	if i := s.indexOf(w.PinLocationID); i >= 0 {
		loc := s.locations[i].clone()
		e.Pin = &loc
		e.TrailName = loc.TrailName
	}
	s.emit(ctx, e)
}

// AddReport inserts a pin together with its detail record in one step and
// one write. hazard must be set only for hazard pins and wrongTurn only for
// wrong-turn pins; their PinLocationID is set to loc.ID. ErrDuplicatePin is
// returned, and nothing is stored, when the pin or detail id is taken.
func (s *Store) AddReport(ctx context.Context, loc PinLocation, hazard *HazardPin, wrongTurn *WrongTurnPin) error {
	if (hazard != nil && loc.Type != TypeHazard) || (wrongTurn != nil && loc.Type != TypeWrongTurn) {
		return ErrDetailMismatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(loc.ID) >= 0 ||
		(hazard != nil && s.hasHazardLocked(hazard.ID)) ||
		(wrongTurn != nil && s.hasWrongTurnLocked(wrongTurn.ID)) {
		return ErrDuplicatePin
	}

	s.locations = append(s.locations, loc.clone())

	var h HazardPin
	var w WrongTurnPin
	if hazard != nil {
		h = hazard.clone()
		h.PinLocationID = loc.ID
		s.addHazardLocked(h)
	}
	if wrongTurn != nil {
		w = wrongTurn.clone()
		w.PinLocationID = loc.ID
		s.addWrongTurnLocked(w)
	}

	s.persist(ctx)

	added := loc.clone()
	s.emit(ctx, Event{Kind: EventPinAdded, TrailName: loc.TrailName, Pin: &added})
	if hazard != nil {
		s.emitHazard(ctx, h)
	}
	if wrongTurn != nil {
		s.emitWrongTurn(ctx, w)
	}
	return nil
}

// HazardPinDetails returns the hazard record of p. It reports false when p
// is not a hazard pin, regardless of stored records.
func (s *Store) HazardPinDetails(p PinLocation) (HazardPin, bool) {
	if p.Type != TypeHazard {
		return HazardPin{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, h := range s.hazards {
		if h.PinLocationID == p.ID {
			return h.clone(), true
		}
	}
	return HazardPin{}, false
}

// WrongTurnPinDetails returns the wrong-turn record of p. It reports false
// when p is not a wrong-turn pin, regardless of stored records.
func (s *Store) WrongTurnPinDetails(p PinLocation) (WrongTurnPin, bool) {
	if p.Type != TypeWrongTurn {
		return WrongTurnPin{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, w := range s.wrongTurns {
		if w.PinLocationID == p.ID {
			return w.clone(), true
		}
	}
	return WrongTurnPin{}, false
}

// Snapshot returns deep copies of all four collections.
func (s *Store) Snapshot() Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := Dataset{
		PinLocations:  make([]PinLocation, len(s.locations)),
		HazardPins:    make([]HazardPin, len(s.hazards)),
		WrongTurnPins: make([]WrongTurnPin, len(s.wrongTurns)),
		Trails:        make([]trail.Trail, len(s.trails)),
	}
	for i, p := range s.locations {
		d.PinLocations[i] = p.clone()
	}
	for i, h := range s.hazards {
		d.HazardPins[i] = h.clone()
	}
	for i, w := range s.wrongTurns {
		d.WrongTurnPins[i] = w.clone()
	}
	for i, t := range s.trails {
		d.Trails[i] = t.Clone()
	}
	return d
}

func removeWhere[T any](items []T, match func(T) bool) []T {
	out := items[:0]
	for _, item := range items {
		if !match(item) {
			out = append(out, item)
		}
	}
	return out
}
