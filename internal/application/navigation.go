package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Section names a navigable area of the client.
type Section string

const (
	// SectionNone is the unauthenticated super-state.
	SectionNone      Section = ""
	SectionCheckIn   Section = "checkin"
	SectionHistory   Section = "history"
	SectionApprovals Section = "approvals"
	SectionEmployees Section = "employees"
)

// sectionOrder fixes the sidebar ordering.
var sectionOrder = []Section{SectionCheckIn, SectionHistory, SectionApprovals, SectionEmployees}

// sectionAccess lists the roles allowed into each section. A nil entry admits
// every authenticated role.
var sectionAccess = map[Section][]Role{
	SectionCheckIn:   nil,
	SectionHistory:   nil,
	SectionApprovals: {RoleTeamLead, RoleAdmin},
	SectionEmployees: {RoleAdmin},
}

// ParseSection converts user input into a known section.
func ParseSection(value string) (Section, bool) {
	section := Section(value)
	if _, ok := sectionAccess[section]; !ok {
		return SectionNone, false
	}
	return section, true
}

// SectionPermitted reports whether role may enter section.
func SectionPermitted(section Section, role Role) bool {
	allowed, ok := sectionAccess[section]
	if !ok {
		return false
	}
	if allowed == nil {
		return role.Valid()
	}
	for _, candidate := range allowed {
		if candidate == role {
			return true
		}
	}
	return false
}

// VisibleSections returns the sections role may navigate to, in sidebar order.
func VisibleSections(role Role) []Section {
	sections := make([]Section, 0, len(sectionOrder))
	for _, section := range sectionOrder {
		if SectionPermitted(section, role) {
			sections = append(sections, section)
		}
	}
	return sections
}

// Activation identifies one entry into a section. Results produced under an
// activation are applied only while it is still current.
type Activation struct {
	Section    Section
	Generation uint64
	current    func(uint64) bool
}

// Current reports whether the section has not been left or re-entered since.
func (a Activation) Current() bool {
	if a.current == nil {
		return true
	}
	return a.current(a.Generation)
}

// Activator is implemented by section controllers. Activate must be idempotent:
// every call resets the controller to a clean load state.
type Activator interface {
	Activate(ctx context.Context, activation Activation)
}

// Resetter is implemented by controllers holding state that must not survive logout.
type Resetter interface {
	Reset()
}

// NavState is a snapshot of the navigator.
type NavState struct {
	Authenticated bool
	Section       Section
	Generation    uint64
	Profile       UserProfile
}

// Navigator is the role-gated state machine over sections.
type Navigator struct {
	mu          sync.Mutex
	session     *Session
	controllers map[Section]Activator
	resetters   []Resetter
	current     Section
	generation  uint64
	logger      *slog.Logger
}

// NewNavigator constructs a Navigator over the provided session.
func NewNavigator(session *Session, logger *slog.Logger) *Navigator {
	return &Navigator{
		session:     session,
		controllers: make(map[Section]Activator),
		logger:      defaultLogger(logger),
	}
}

// Register binds a controller to a section. Controllers implementing Resetter
// are also reset on logout.
func (n *Navigator) Register(section Section, controller Activator) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.controllers[section] = controller
	if r, ok := controller.(Resetter); ok {
		n.resetters = append(n.resetters, r)
	}
}

// AddResetter registers state that is reset on logout without being a section.
func (n *Navigator) AddResetter(r Resetter) {
	if r == nil {
		return
	}
	n.mu.Lock()
	n.resetters = append(n.resetters, r)
	n.mu.Unlock()
}

func (n *Navigator) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return controllerLogger(ctx, n.logger, "Navigator", operation, attrs...)
}

// Start restores the persisted session: without a credential the navigator
// stays unauthenticated, otherwise the session is validated and the user lands
// on the check-in section.
func (n *Navigator) Start(ctx context.Context) error {
	if n == nil || n.session == nil {
		return fmt.Errorf("navigator not configured")
	}
	found, err := n.session.Init(ctx)
	if err != nil {
		n.toUnauthenticated()
		return err
	}
	if !found {
		n.toUnauthenticated()
		return nil
	}
	return n.Enter(ctx)
}

// Enter validates the active credential and lands on the check-in section.
// A failed validation leaves the navigator unauthenticated.
func (n *Navigator) Enter(ctx context.Context) error {
	if n == nil || n.session == nil {
		return fmt.Errorf("navigator not configured")
	}
	if _, err := n.session.Validate(ctx); err != nil {
		n.toUnauthenticated()
		n.resetAll()
		return err
	}
	n.Goto(ctx, SectionCheckIn)
	return nil
}

// Goto moves to section when the session is authenticated and the profile role
// is admitted. Denied transitions are silent and leave the state unchanged.
func (n *Navigator) Goto(ctx context.Context, section Section) bool {
	if n == nil {
		return false
	}
	logger := n.loggerWith(ctx, "Goto", "section", section)

	profile, ok := n.session.Profile()
	if !ok || !n.session.Authenticated() {
		logger.DebugContext(ctx, "navigation ignored", "reason", "unauthenticated")
		return false
	}
	if !SectionPermitted(section, profile.Role) {
		logger.DebugContext(ctx, "navigation ignored", "reason", "role", "role", profile.Role)
		return false
	}

	n.mu.Lock()
	controller, registered := n.controllers[section]
	if !registered {
		n.mu.Unlock()
		logger.DebugContext(ctx, "navigation ignored", "reason", "unregistered")
		return false
	}
	n.generation++
	n.current = section
	activation := Activation{Section: section, Generation: n.generation, current: n.isCurrent}
	n.mu.Unlock()

	logger.DebugContext(ctx, "section activated", "generation", activation.Generation)
	controller.Activate(ctx, activation)
	return true
}

// Logout clears the session and every controller's view state, returning to
// the unauthenticated state unconditionally.
func (n *Navigator) Logout(ctx context.Context) error {
	if n == nil {
		return nil
	}
	n.toUnauthenticated()
	n.resetAll()
	var err error
	if n.session != nil {
		err = n.session.Clear(ctx)
	}
	n.loggerWith(ctx, "Logout").InfoContext(ctx, "logged out")
	return err
}

// State returns a snapshot of the navigator.
func (n *Navigator) State() NavState {
	n.mu.Lock()
	state := NavState{Section: n.current, Generation: n.generation}
	n.mu.Unlock()

	state.Authenticated = n.session.Authenticated() && state.Section != SectionNone
	if profile, ok := n.session.Profile(); ok {
		state.Profile = profile
	}
	return state
}

// Current returns the active section, SectionNone when unauthenticated.
func (n *Navigator) Current() Section {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

func (n *Navigator) isCurrent(generation uint64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.generation == generation && n.current != SectionNone
}

func (n *Navigator) toUnauthenticated() {
	n.mu.Lock()
	n.generation++
	n.current = SectionNone
	n.mu.Unlock()
}

func (n *Navigator) resetAll() {
	n.mu.Lock()
	resetters := append([]Resetter(nil), n.resetters...)
	n.mu.Unlock()
	for _, r := range resetters {
		r.Reset()
	}
}
