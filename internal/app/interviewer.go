package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/samvad-hq/samvad-diagnosis-client/internal/config"
	"github.com/samvad-hq/samvad-diagnosis-client/internal/domain"
	"github.com/samvad-hq/samvad-diagnosis-client/internal/logger"
	"github.com/samvad-hq/samvad-diagnosis-client/internal/metrics"
	"github.com/samvad-hq/samvad-diagnosis-client/internal/storage"
	"github.com/samvad-hq/samvad-diagnosis-client/pkg/medapi"
	"github.com/samvad-hq/samvad-diagnosis-client/pkg/publishers"
)

// Turn kinds recorded in metrics.
const (
	turnStart  = "start"
	turnAnswer = "answer"
	turnTriage = "triage"
)

// ErrVersionMismatch is returned when a stored session belongs to another API version.
var ErrVersionMismatch = errors.New("session api version mismatch")

// Interviewer runs multi-turn diagnosis interviews. Each turn is sent to the
// API, persisted in the session store and published to the configured sinks.
type Interviewer struct {
	api     medapi.API
	alias   string
	store   storage.Store
	fanout  *publishers.Fanout
	metrics *metrics.Metrics
	log     logger.Logger

	now   func() time.Time
	newID func() string
}

// StartRequest describes the first turn of an interview.
type StartRequest struct {
	Sex medapi.Sex
	Age medapi.Age
	// Text is free-form complaint text recognized via /parse into initial evidence.
	Text     string
	Evidence []medapi.Evidence
	Extras   medapi.Extras
	// InterviewID is generated when empty.
	InterviewID string
}

// NewInterviewer wires the connector, session store and publishers from config.
func NewInterviewer(ctx context.Context, cfg *config.Config, log logger.Logger, m *metrics.Metrics) (*Interviewer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	api, alias, err := Connect(cfg, log, m)
	if err != nil {
		return nil, err
	}

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		return nil, err
	}

	storeOpts := storage.Options{
		SessionTTL:      cfg.SessionTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
		RedisPassword:   cfg.RedisPassword,
		RedisDB:         cfg.RedisDB,
	}
	storePath := cfg.BBoltPath
	if strings.EqualFold(cfg.StorageType, "redis") {
		storePath = cfg.RedisAddr
	}
	store, err := storage.NewStore(cfg.StorageType, storePath, storeOpts)
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     storePath,
		"session_ttl_seconds":      int(cfg.SessionTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	return newInterviewer(api, alias, store, fanout, m, log), nil
}

func newInterviewer(api medapi.API, alias string, store storage.Store, fanout *publishers.Fanout, m *metrics.Metrics, log logger.Logger) *Interviewer {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Interviewer{
		api:     api,
		alias:   alias,
		store:   store,
		fanout:  fanout,
		metrics: m,
		log:     log,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// buildFanout loads enabled publishers. An empty path yields an empty fanout.
func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if strings.TrimSpace(path) == "" {
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// API returns the underlying connector.
func (iv *Interviewer) API() medapi.API { return iv.api }

// Start opens a session and runs the first diagnosis turn.
func (iv *Interviewer) Start(ctx context.Context, req StartRequest) (*domain.Session, error) {
	if !req.Sex.Valid() {
		return nil, fmt.Errorf("%w: sex must be male or female", medapi.ErrInvalidArgument)
	}
	if err := req.Age.Validate(); err != nil {
		return nil, err
	}

	id := strings.TrimSpace(req.InterviewID)
	if id == "" {
		id = iv.newID()
	}

	d := medapi.NewDiagnosis(req.Sex, req.Age)
	session := domain.NewSession(id, iv.alias, iv.api.Version(), d, iv.now())
	for k, v := range req.Extras {
		d.SetExtra(k, v, true)
	}

	if text := strings.TrimSpace(req.Text); text != "" {
		parsed, err := iv.api.Parse(ctx, medapi.ParseRequest{Text: text, Age: req.Age, InterviewID: id})
		if err != nil {
			return nil, fmt.Errorf("parse complaint: %w", err)
		}
		d.AddEvidenceItems(parsed.Evidence(medapi.SourceInitial)...)
	}
	d.AddEvidenceItems(req.Evidence...)

	if len(d.Evidence()) == 0 {
		return nil, fmt.Errorf("%w: interview needs at least one piece of evidence", medapi.ErrInvalidArgument)
	}

	if err := iv.turn(ctx, session, turnStart); err != nil {
		return nil, err
	}
	return session, nil
}

// Answer adds evidence to a stored session and runs the next diagnosis turn.
func (iv *Interviewer) Answer(ctx context.Context, id string, evidence []medapi.Evidence) (*domain.Session, error) {
	if len(evidence) == 0 {
		return nil, fmt.Errorf("%w: answer needs at least one piece of evidence", medapi.ErrInvalidArgument)
	}
	session, err := iv.Show(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Diagnosis.AddEvidenceItems(evidence...)

	if err := iv.turn(ctx, session, turnAnswer); err != nil {
		return nil, err
	}
	return session, nil
}

// Show loads a stored session.
func (iv *Interviewer) Show(_ context.Context, id string) (*domain.Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: interview id is required", medapi.ErrInvalidArgument)
	}
	session, err := iv.store.Load(id)
	if err != nil {
		return nil, fmt.Errorf("load interview %s: %w", id, err)
	}
	if session.Diagnosis == nil {
		return nil, fmt.Errorf("load interview %s: %w", id, storage.ErrSessionNotFound)
	}
	if session.APIVersion != iv.api.Version() {
		return nil, fmt.Errorf("%w: interview %s uses %s, connector is %s", ErrVersionMismatch, id, session.APIVersion, iv.api.Version())
	}
	return session, nil
}

// Triage evaluates the urgency of a stored session.
func (iv *Interviewer) Triage(ctx context.Context, id string) (*medapi.TriageResult, error) {
	session, err := iv.Show(ctx, id)
	if err != nil {
		return nil, err
	}
	result, err := iv.api.Triage(ctx, session.Diagnosis.Input())
	if err != nil {
		return nil, err
	}
	iv.metrics.ObserveTurn(session.APIVersion, turnTriage)
	iv.publish(ctx, publishers.NewTriageEvent(session, result))
	return result, nil
}

// Explain lists the evidence for and against target in a stored session.
func (iv *Interviewer) Explain(ctx context.Context, id, target string) (*medapi.ExplainResults, error) {
	session, err := iv.Show(ctx, id)
	if err != nil {
		return nil, err
	}
	return iv.api.Explain(ctx, session.Diagnosis.Input(), target)
}

// Suggest proposes further evidence to ask about in a stored session.
func (iv *Interviewer) Suggest(ctx context.Context, id string, opts medapi.SuggestOptions) ([]medapi.SuggestItem, error) {
	session, err := iv.Show(ctx, id)
	if err != nil {
		return nil, err
	}
	return iv.api.Suggest(ctx, session.Diagnosis.Input(), opts)
}

// Rationale explains why the last question of a stored session was asked. v2 and v3 only.
func (iv *Interviewer) Rationale(ctx context.Context, id string) (*medapi.RationaleResult, error) {
	explainer, ok := iv.api.(medapi.RationaleAPI)
	if !ok {
		return nil, &medapi.MethodNotAvailableError{Version: iv.api.Version(), Method: medapi.MethodRationale}
	}
	session, err := iv.Show(ctx, id)
	if err != nil {
		return nil, err
	}
	return explainer.Rationale(ctx, session.Diagnosis.Input())
}

// RecommendSpecialist asks the API which specialist fits a stored session.
func (iv *Interviewer) RecommendSpecialist(ctx context.Context, id string) (*medapi.SpecialistRecommendation, error) {
	recommender, ok := iv.api.(medapi.SpecialistAPI)
	if !ok {
		return nil, &medapi.MethodNotAvailableError{Version: iv.api.Version(), Method: medapi.MethodSpecialistRecommender}
	}
	session, err := iv.Show(ctx, id)
	if err != nil {
		return nil, err
	}
	return recommender.RecommendSpecialist(ctx, session.Diagnosis.Input())
}

// Delete drops a stored session.
func (iv *Interviewer) Delete(_ context.Context, id string) error {
	return iv.store.Delete(strings.TrimSpace(id))
}

// Close releases publishers and the session store.
func (iv *Interviewer) Close() error {
	if iv == nil {
		return nil
	}
	var errs []error
	if err := iv.fanout.Close(); err != nil {
		errs = append(errs, err)
	}
	if iv.store != nil {
		if err := iv.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	return errors.Join(errs...)
}

// turn runs /diagnosis for the session, saves it and publishes the result.
func (iv *Interviewer) turn(ctx context.Context, session *domain.Session, kind string) error {
	if err := iv.api.Diagnose(ctx, session.Diagnosis); err != nil {
		return err
	}
	session.Touch(iv.now())
	if err := iv.store.Save(session); err != nil {
		return fmt.Errorf("save interview %s: %w", session.ID, err)
	}

	iv.metrics.ObserveTurn(session.APIVersion, kind)
	iv.log.DebugObj("interview turn completed", "interview_turn", map[string]any{
		"interview_id": session.ID,
		"kind":         kind,
		"turn":         session.Turns,
		"should_stop":  session.Diagnosis.Stopped(),
	})
	iv.publish(ctx, publishers.NewDiagnosisEvent(session))
	return nil
}

// publish fans the event out; failures are logged but do not fail the turn.
func (iv *Interviewer) publish(ctx context.Context, evt publishers.Event) {
	if iv.fanout.Size() == 0 {
		return
	}
	delivered, err := iv.fanout.Publish(ctx, evt)
	if err != nil {
		iv.metrics.ObservePublishFailure(evt.Kind)
		iv.log.WarnObj("interview event publish failed", "publish_error", map[string]any{
			"interview_id": evt.InterviewID,
			"kind":         evt.Kind,
			"delivered":    delivered,
			"error":        err.Error(),
		})
	}
}
