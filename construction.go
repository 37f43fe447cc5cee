package traverse

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/terratracer/traverse/internal/logging"
)

const (
	// DefaultClosureTolerance is how close, in meters, a course must end to
	// the first corner for the ring to close by itself.
	DefaultClosureTolerance = 0.01
	// DefaultNearClosureRadius (20 ft) triggers a warning when a course
	// ends this close to an earlier corner without closing.
	DefaultNearClosureRadius = 6.096

	minCornersForAutoClose = 3
	tracerName             = "github.com/terratracer/traverse"
)

// State is the construction engine's position in its lifecycle.
type State int

const (
	AwaitingTiePoint State = iota
	BuildingCorners
	AutoClosing
	ManuallyClosed
	Finalized
)

func (s State) String() string {
	switch s {
	case AwaitingTiePoint:
		return "awaiting_tie_point"
	case BuildingCorners:
		return "building_corners"
	case AutoClosing:
		return "auto_closing"
	case ManuallyClosed:
		return "manually_closed"
	case Finalized:
		return "finalized"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ClosureMode tells the engine how to treat the ring when construction ends.
type ClosureMode string

const (
	// ClosureAuto closes the ring only when a course ends within tolerance
	// of the first corner.
	ClosureAuto ClosureMode = "auto"
	// ClosureForce always links the last corner back to the first.
	ClosureForce ClosureMode = "force"
	// ClosureNone leaves the traverse open.
	ClosureNone ClosureMode = "none"
)

// ParseClosureMode accepts auto, force and none; empty means auto.
func ParseClosureMode(s string) (ClosureMode, error) {
	switch m := ClosureMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ClosureAuto, nil
	case ClosureAuto, ClosureForce, ClosureNone:
		return m, nil
	}
	return "", fmt.Errorf("traverse: unknown closure mode %q", s)
}

// StepRequest is one bearing/distance course.
type StepRequest struct {
	Bearing  float64
	Distance float64
	// Method defaults to the engine's default method when empty.
	Method Method
	// FallbackToSeries retries a non-converging closed-form solve with the
	// series solver instead of failing the step.
	FallbackToSeries bool
}

// StepOutcome describes an accepted step.
type StepOutcome struct {
	Step   ConstructionStep
	Result Result
	// Point is the corner registered by the step, nil for a closure step.
	Point  *Point
	Closed bool
}

// MonumentAnchor is the point a monument offset is measured from.
type MonumentAnchor int

const (
	FromTiePoint MonumentAnchor = iota
	FromFirstCorner
)

// MonumentRequest places a monument by bearing and distance.
type MonumentRequest struct {
	From     MonumentAnchor
	Bearing  float64
	Distance float64
	Method   Method
	Label    string
	// FallbackToSeries has the same meaning as on StepRequest.
	FallbackToSeries bool
}

// Plan is a complete construction for Engine.Build.
type Plan struct {
	TiePoint Coordinate
	Steps    []StepRequest
	Monument *MonumentRequest
	Closure  ClosureMode
}

// Option configures an Engine.
type Option func(*Engine)

// WithEllipsoid selects the reference ellipsoid; the default is WGS84.
func WithEllipsoid(e *Ellipsoid) Option {
	return func(en *Engine) {
		if e != nil {
			en.ellipsoid = e
		}
	}
}

// WithRegistry shares a registry, and so an id space, between engines
// driven by the same goroutine.
func WithRegistry(r *Registry) Option {
	return func(en *Engine) {
		if r != nil {
			en.registry = r
		}
	}
}

// WithClosureTolerance sets the auto-closure tolerance in meters.
func WithClosureTolerance(meters float64) Option {
	return func(en *Engine) { en.tolerance = meters }
}

// WithNearClosureRadius sets the radius of the near-closure warning in
// meters. Zero disables the warning.
func WithNearClosureRadius(meters float64) Option {
	return func(en *Engine) { en.nearRadius = meters }
}

// WithClosureMode sets the mode used for auto-closure detection while
// corners are added and by Finish when it is given no mode.
func WithClosureMode(m ClosureMode) Option {
	return func(en *Engine) { en.mode = m }
}

// WithDefaultMethod sets the method used by requests that leave it empty.
func WithDefaultMethod(m Method) Option {
	return func(en *Engine) {
		if m != "" {
			en.defaultMethod = m
		}
	}
}

// WithSolver replaces the solver used for m.
func WithSolver(m Method, s Solver) Option {
	return func(en *Engine) {
		if s != nil {
			en.solvers[m] = s
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(en *Engine) {
		if l != nil {
			en.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(en *Engine) {
		if o != nil {
			en.observer = o
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(en *Engine) {
		if t != nil {
			en.tracer = t
		}
	}
}

// Engine builds one polygon from a tie point and a sequence of courses.
// Each course starts where the previous one ended, so an Engine is driven
// by a single goroutine. Failed calls leave the engine unchanged.
type Engine struct {
	ellipsoid     *Ellipsoid
	registry      *Registry
	tolerance     float64
	nearRadius    float64
	mode          ClosureMode
	defaultMethod Method
	solvers       map[Method]Solver
	logger        logging.Logger
	observer      Observer
	tracer        trace.Tracer

	state   State
	polygon Polygon
	last    Point
}

// NewEngine returns an engine awaiting its tie point.
func NewEngine(opts ...Option) (*Engine, error) {
	en := &Engine{
		ellipsoid:     WGS84,
		tolerance:     DefaultClosureTolerance,
		nearRadius:    DefaultNearClosureRadius,
		mode:          ClosureAuto,
		defaultMethod: DefaultMethod,
		solvers:       make(map[Method]Solver),
		logger:        logging.Noop(),
		observer:      nopObserver{},
	}
	for _, m := range Methods {
		s, _ := m.Solver()
		en.solvers[m] = s
	}
	for _, opt := range opts {
		opt(en)
	}
	if en.registry == nil {
		en.registry = NewRegistry()
	}
	if en.tracer == nil {
		en.tracer = otel.Tracer(tracerName)
	}
	if !(en.tolerance >= 0) || math.IsInf(en.tolerance, 0) {
		return nil, fmt.Errorf("traverse: closure tolerance %v must be a non-negative number", en.tolerance)
	}
	if !(en.nearRadius >= 0) {
		return nil, fmt.Errorf("traverse: near-closure radius %v must be non-negative", en.nearRadius)
	}
	if _, err := ParseClosureMode(string(en.mode)); err != nil {
		return nil, err
	}
	if _, ok := en.solvers[en.defaultMethod]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, string(en.defaultMethod))
	}
	en.logger = en.logger.With(logging.String("ellipsoid", en.ellipsoid.Name()))
	return en, nil
}

// State returns the current lifecycle state.
func (en *Engine) State() State { return en.state }

// Ellipsoid returns the engine's reference ellipsoid.
func (en *Engine) Ellipsoid() *Ellipsoid { return en.ellipsoid }

// Registry returns the registry that owns the engine's points.
func (en *Engine) Registry() *Registry { return en.registry }

// Polygon returns a snapshot of the polygon built so far.
func (en *Engine) Polygon() Polygon { return en.polygon.clone() }

// SetTiePoint registers the tie point and starts accepting courses.
func (en *Engine) SetTiePoint(ctx context.Context, c Coordinate) (Point, error) {
	if en.state != AwaitingTiePoint {
		return Point{}, en.stateError("set tie point")
	}
	c, err := NewCoordinate(c.Lat, c.Lon)
	if err != nil {
		return Point{}, err
	}
	p := en.register(c, RoleTiePoint, "")
	en.polygon = Polygon{ID: en.registry.nextPolygonID(), TiePointID: p.ID}
	en.last = p
	en.transition(ctx, BuildingCorners)
	en.logger.Debug(ctx, "tie point registered",
		logging.Uint64("polygon_id", en.polygon.ID),
		logging.Uint64("point_id", p.ID),
		logging.String("coordinate", c.String()))
	return p, nil
}

// AddStep solves req from the previous point and records the result. With
// at least three corners, a course that ends within tolerance of the first
// corner closes the ring instead of registering a new corner.
func (en *Engine) AddStep(ctx context.Context, req StepRequest) (StepOutcome, error) {
	if en.state != BuildingCorners {
		return StepOutcome{}, en.stateError("add step")
	}
	bearing, dist, err := validateCourse(req.Bearing, req.Distance)
	if err != nil {
		return StepOutcome{}, err
	}
	method := en.methodOr(req.Method)
	res, used, err := en.solve(ctx, method, en.last.Coordinate, bearing, dist, req.FallbackToSeries)
	if err != nil {
		return StepOutcome{}, err
	}

	step := ConstructionStep{
		Index:       len(en.polygon.Steps) + 1,
		FromPointID: en.last.ID,
		Bearing:     bearing,
		Distance:    dist,
		Method:      used,
	}

	if en.mode != ClosureNone && len(en.polygon.CornerIDs) >= minCornersForAutoClose {
		first, err := en.registry.Lookup(en.polygon.CornerIDs[0])
		if err != nil {
			return StepOutcome{}, err
		}
		inv, err := Inverse(res.Destination, first.Coordinate, en.ellipsoid)
		if err == nil && inv.Distance <= en.tolerance {
			step.ToPointID = first.ID
			step.Closure = true
			en.polygon.Steps = append(en.polygon.Steps, step)
			en.polygon.Closed = true
			en.last = first
			en.logger.Info(ctx, "ring closed by course",
				logging.Uint64("polygon_id", en.polygon.ID),
				logging.Int("step", step.Index),
				logging.Float64("misclosure_m", inv.Distance))
			en.transition(ctx, AutoClosing)
			return StepOutcome{Step: step, Result: res, Closed: true}, nil
		}
	}

	p := en.register(res.Destination, RoleCorner, "")
	step.ToPointID = p.ID
	en.polygon.Steps = append(en.polygon.Steps, step)
	en.polygon.CornerIDs = append(en.polygon.CornerIDs, p.ID)
	en.last = p
	en.warnNearClosure(ctx, p)
	return StepOutcome{Step: step, Result: res, Point: &p}, nil
}

// AddMonument registers the polygon's monument. It is not a corner and
// does not move the construction forward.
func (en *Engine) AddMonument(ctx context.Context, req MonumentRequest) (Point, error) {
	switch en.state {
	case BuildingCorners, AutoClosing, ManuallyClosed:
	default:
		return Point{}, en.stateError("add monument")
	}
	if en.polygon.HasMonument() {
		return Point{}, fmt.Errorf("%w: point %d", ErrMonumentExists, en.polygon.MonumentID)
	}
	var anchorID uint64
	switch req.From {
	case FromTiePoint:
		anchorID = en.polygon.TiePointID
	case FromFirstCorner:
		if len(en.polygon.CornerIDs) == 0 {
			return Point{}, fmt.Errorf("%w: monument from first corner needs a corner", ErrInvalidState)
		}
		anchorID = en.polygon.CornerIDs[0]
	default:
		return Point{}, fmt.Errorf("traverse: unknown monument anchor %d", req.From)
	}
	anchor, err := en.registry.Lookup(anchorID)
	if err != nil {
		return Point{}, err
	}
	bearing, dist, err := validateCourse(req.Bearing, req.Distance)
	if err != nil {
		return Point{}, err
	}
	res, used, err := en.solve(ctx, en.methodOr(req.Method), anchor.Coordinate, bearing, dist, req.FallbackToSeries)
	if err != nil {
		return Point{}, err
	}
	label := req.Label
	if label == "" {
		label = "Monument"
	}
	p := en.register(res.Destination, RoleMonument, label)
	en.polygon.MonumentID = p.ID
	en.polygon.MonumentStep = &ConstructionStep{
		FromPointID: anchor.ID,
		ToPointID:   p.ID,
		Bearing:     bearing,
		Distance:    dist,
		Method:      used,
	}
	return p, nil
}

// Finish ends the construction. An empty mode uses the engine's configured
// closure mode. The polygon is returned and no further changes are allowed.
func (en *Engine) Finish(ctx context.Context, mode ClosureMode) (Polygon, error) {
	switch en.state {
	case BuildingCorners, AutoClosing, ManuallyClosed:
	default:
		return Polygon{}, en.stateError("finish")
	}
	if len(en.polygon.CornerIDs) == 0 {
		return Polygon{}, ErrEmptyStepSequence
	}
	if mode == "" {
		mode = en.mode
	}
	if _, err := ParseClosureMode(string(mode)); err != nil {
		return Polygon{}, err
	}

	if en.state == BuildingCorners && mode != ClosureNone {
		if err := en.closeRing(ctx, mode); err != nil {
			return Polygon{}, err
		}
	}
	if !en.polygon.Closed {
		en.logger.Warn(ctx, "polygon left open",
			logging.Uint64("polygon_id", en.polygon.ID),
			logging.Int("corners", len(en.polygon.CornerIDs)),
			logging.String("closure", string(mode)))
	}
	en.transition(ctx, Finalized)
	out := en.polygon.clone()
	en.observer.PolygonFinalized(out)
	return out, nil
}

// closeRing evaluates the closing course from the last corner back to the
// first one and appends it when the mode allows.
func (en *Engine) closeRing(ctx context.Context, mode ClosureMode) error {
	corners := en.polygon.CornerIDs
	if len(corners) < minCornersForAutoClose {
		en.logger.Warn(ctx, "cannot close a ring with fewer than three corners",
			logging.Uint64("polygon_id", en.polygon.ID),
			logging.Int("corners", len(corners)))
		return nil
	}
	first, err := en.registry.Lookup(corners[0])
	if err != nil {
		return err
	}
	inv, err := Inverse(en.last.Coordinate, first.Coordinate, en.ellipsoid)
	if err != nil {
		return err
	}
	if mode == ClosureAuto && inv.Distance > en.tolerance {
		en.logger.Info(ctx, "closing course exceeds tolerance",
			logging.Uint64("polygon_id", en.polygon.ID),
			logging.Float64("misclosure_m", inv.Distance),
			logging.Float64("tolerance_m", en.tolerance))
		return nil
	}
	method := EllipsoidalClosedForm
	if inv.Approximate {
		method = Spherical
	}
	step := ConstructionStep{
		Index:       len(en.polygon.Steps) + 1,
		FromPointID: en.last.ID,
		ToPointID:   first.ID,
		Bearing:     wrap360(inv.InitialBearing),
		Distance:    inv.Distance,
		Method:      method,
		Closure:     true,
	}
	en.polygon.Steps = append(en.polygon.Steps, step)
	en.polygon.Closed = true
	en.last = first
	next := AutoClosing
	if mode == ClosureForce {
		next = ManuallyClosed
	}
	en.logger.Info(ctx, "ring closed",
		logging.Uint64("polygon_id", en.polygon.ID),
		logging.String("closure", string(mode)),
		logging.Float64("closing_distance_m", inv.Distance),
		logging.Float64("closing_bearing_deg", step.Bearing))
	en.transition(ctx, next)
	return nil
}

// Build runs a whole plan: tie point, courses in order, optional monument,
// then Finish. A plan closure mode replaces the engine's for the whole run,
// closure by course included.
func (en *Engine) Build(ctx context.Context, plan Plan) (Polygon, error) {
	ctx, span := en.tracer.Start(ctx, "traverse.Build", trace.WithAttributes(
		attribute.Int("traverse.steps", len(plan.Steps)),
		attribute.String("traverse.ellipsoid", en.ellipsoid.Name()),
		attribute.String("traverse.closure", string(plan.Closure)),
	))
	defer span.End()

	poly, err := en.build(ctx, plan)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Polygon{}, err
	}
	span.SetAttributes(
		attribute.Int64("traverse.polygon_id", int64(poly.ID)),
		attribute.Int("traverse.corners", len(poly.CornerIDs)),
		attribute.Bool("traverse.closed", poly.Closed),
	)
	return poly, nil
}

func (en *Engine) build(ctx context.Context, plan Plan) (Polygon, error) {
	mode := en.mode
	if plan.Closure != "" {
		var err error
		if mode, err = ParseClosureMode(string(plan.Closure)); err != nil {
			return Polygon{}, err
		}
	}
	if _, err := en.SetTiePoint(ctx, plan.TiePoint); err != nil {
		return Polygon{}, fmt.Errorf("tie point: %w", err)
	}
	// the plan's directive also governs closure by course
	en.mode = mode
	for i, req := range plan.Steps {
		out, err := en.AddStep(ctx, req)
		if err != nil {
			return Polygon{}, fmt.Errorf("course %d: %w", i+1, err)
		}
		if out.Closed && i < len(plan.Steps)-1 {
			return Polygon{}, fmt.Errorf("course %d: ring closed with %d courses left: %w",
				i+1, len(plan.Steps)-i-1, ErrInvalidState)
		}
	}
	if plan.Monument != nil {
		if _, err := en.AddMonument(ctx, *plan.Monument); err != nil {
			return Polygon{}, fmt.Errorf("monument: %w", err)
		}
	}
	return en.Finish(ctx, "")
}

// View returns the read-only export view of the polygon built so far.
func (en *Engine) View() (View, error) {
	if en.state == AwaitingTiePoint {
		return View{}, en.stateError("view")
	}
	return NewView(en.polygon.clone(), en.registry, en.ellipsoid)
}

func (en *Engine) solve(ctx context.Context, method Method, origin Coordinate, bearing, dist float64, fallback bool) (Result, Method, error) {
	solver, ok := en.solvers[method]
	if !ok {
		return Result{}, method, fmt.Errorf("%w: %q", ErrUnknownMethod, string(method))
	}
	start := time.Now()
	res, err := solver.SolveDirect(origin, bearing, dist, en.ellipsoid)
	en.observer.SolveObserved(method, res, time.Since(start), err)
	if err != nil {
		return Result{}, method, err
	}
	if res.Converged {
		return res, method, nil
	}

	solveErr := &SolveError{Method: method, Result: res, Err: ErrConvergenceFailure}
	if !fallback {
		en.logger.Warn(ctx, "solver did not converge",
			logging.String("method", string(method)),
			logging.Int("iterations", res.Iterations))
		return Result{}, method, solveErr
	}
	en.logger.Warn(ctx, "solver did not converge, retrying with series",
		logging.String("method", string(method)),
		logging.Int("iterations", res.Iterations))
	series := en.solvers[EllipsoidalSeries]
	start = time.Now()
	res, err = series.SolveDirect(origin, bearing, dist, en.ellipsoid)
	en.observer.SolveObserved(EllipsoidalSeries, res, time.Since(start), err)
	if err != nil {
		return Result{}, method, errors.Join(solveErr, err)
	}
	return res, EllipsoidalSeries, nil
}

func (en *Engine) register(c Coordinate, role Role, label string) Point {
	p := en.registry.RegisterLabeled(c, role, label)
	en.observer.PointRegistered(p)
	return p
}

// warnNearClosure flags a corner that lands close to an earlier corner of
// the same polygon without closing the ring.
func (en *Engine) warnNearClosure(ctx context.Context, p Point) {
	if en.nearRadius <= 0 || len(en.polygon.CornerIDs) < 2 {
		return
	}
	mine := make(map[uint64]bool, len(en.polygon.CornerIDs))
	for _, id := range en.polygon.CornerIDs {
		mine[id] = true
	}
	for _, q := range en.registry.Near(p.Coordinate, en.nearRadius, en.ellipsoid, RoleCorner) {
		if q.ID == p.ID || !mine[q.ID] {
			continue
		}
		en.logger.Warn(ctx, "course ends near an earlier corner",
			logging.Uint64("polygon_id", en.polygon.ID),
			logging.Uint64("point_id", p.ID),
			logging.Uint64("near_point_id", q.ID))
	}
}

func (en *Engine) methodOr(m Method) Method {
	if m == "" {
		return en.defaultMethod
	}
	return m
}

func (en *Engine) transition(ctx context.Context, next State) {
	en.logger.Debug(ctx, "state transition",
		logging.String("from", en.state.String()),
		logging.String("to", next.String()))
	en.state = next
}

func (en *Engine) stateError(op string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidState, op, en.state)
}

// validateCourse applies the rules for recorded courses: a finite bearing
// and a strictly positive distance.
func validateCourse(bearing, distance float64) (float64, float64, error) {
	b, err := NormalizeBearing(bearing)
	if err != nil {
		return 0, 0, err
	}
	if !finite(distance) || distance <= 0 {
		return 0, 0, fmt.Errorf("%w: %v must be positive", ErrInvalidDistance, distance)
	}
	return b, distance, nil
}
