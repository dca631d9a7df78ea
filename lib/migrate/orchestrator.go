// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowmove/flowmove/lib/artifact"
	"github.com/flowmove/flowmove/lib/clock"
	"github.com/flowmove/flowmove/lib/localflow"
	"github.com/flowmove/flowmove/lib/platform"
)

const tracerName = "github.com/flowmove/flowmove/lib/migrate"

// mintAttempts bounds how many times a colliding identity is redrawn.
const mintAttempts = 8

var (
	// ErrNotAuthenticated is returned when a migration is attempted
	// with a session that has not logged in.
	ErrNotAuthenticated = errors.New("migrate: session is not logged in")

	// ErrIdentityCollision is returned when NewID keeps producing
	// identities already minted in this run.
	ErrIdentityCollision = errors.New("migrate: could not mint a fresh identity")
)

// Destination is the account apps are migrated into.
// *platform.Session implements it.
type Destination interface {
	Authenticated() bool
	Username() string
	AssignUpload(ctx context.Context, appID string, kind platform.ArtifactKind) (*platform.UploadAssignment, error)
	Register(ctx context.Context, request platform.CreateAppRequest) error
}

// RemoteSource is the account apps are read from in a remote
// migration. *platform.Session implements it.
type RemoteSource interface {
	Authenticated() bool
	Username() string
	AppDetail(ctx context.Context, appID string) (*platform.AppDetail, error)
}

// Transfer moves raw artifact bytes to and from object storage.
// *platform.Client implements it.
type Transfer interface {
	Upload(ctx context.Context, uploadURL string, data []byte) error
	Download(ctx context.Context, readURL string) ([]byte, error)
	DownloadURL(detail *platform.AppDetail) (string, error)
}

// Config configures an Orchestrator.
type Config struct {
	// Destination receives migrated apps. Required.
	Destination Destination

	// Transfer performs uploads and downloads. Required.
	Transfer Transfer

	// Clock stamps the provenance suffix and events. Defaults to
	// clock.Real().
	Clock clock.Clock

	// NewID mints app identities. Defaults to random UUIDs.
	NewID func() string

	// Journal, when set, receives a record for every result.
	Journal *Journal

	// Tracer records a span per app and per pipeline step. Defaults to
	// the global tracer provider.
	Tracer trace.Tracer

	// Observer, when set, is called synchronously for every Event.
	Observer func(Event)

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Orchestrator moves apps into one destination account, one at a time.
// It is not safe for concurrent use.
type Orchestrator struct {
	destination Destination
	transfer    Transfer
	clock       clock.Clock
	newID       func() string
	journal     *Journal
	tracer      trace.Tracer
	observer    func(Event)
	logger      *slog.Logger

	// minted holds every identity handed out by this orchestrator.
	minted map[string]struct{}
}

// New creates an Orchestrator.
func New(config Config) (*Orchestrator, error) {
	if config.Destination == nil {
		return nil, fmt.Errorf("migrate: destination is required")
	}
	if config.Transfer == nil {
		return nil, fmt.Errorf("migrate: transfer is required")
	}
	orchestrator := &Orchestrator{
		destination: config.Destination,
		transfer:    config.Transfer,
		clock:       config.Clock,
		newID:       config.NewID,
		journal:     config.Journal,
		tracer:      config.Tracer,
		observer:    config.Observer,
		logger:      config.Logger,
		minted:      make(map[string]struct{}),
	}
	if orchestrator.clock == nil {
		orchestrator.clock = clock.Real()
	}
	if orchestrator.newID == nil {
		orchestrator.newID = uuid.NewString
	}
	if orchestrator.tracer == nil {
		orchestrator.tracer = otel.Tracer(tracerName)
	}
	if orchestrator.logger == nil {
		orchestrator.logger = slog.Default()
	}
	return orchestrator, nil
}

// run is the in-flight state of one app's migration.
type run struct {
	orchestrator *Orchestrator
	ctx          context.Context
	started      time.Time
	result       Result
}

// MigrateLocal migrates each cached app in order. Every app is
// attempted; a failure is recorded in its Result and the batch moves
// on. Cancelling ctx stops the batch before the next app starts: an
// app already in progress runs to completion or failure, and the apps
// not started are reported as aborted with the context's error.
func (orchestrator *Orchestrator) MigrateLocal(ctx context.Context, records []localflow.Record) Summary {
	summary := Summary{Results: make([]Result, 0, len(records))}
	for index := range records {
		record := &records[index]
		if err := ctx.Err(); err != nil {
			summary.Results = append(summary.Results, orchestrator.skipped(localSource(record), err))
			continue
		}
		summary.Results = append(summary.Results, orchestrator.MigrateLocalApp(ctx, record))
	}
	orchestrator.logSummary(summary)
	return summary
}

// MigrateRemote migrates each catalog entry of source in order, with
// the same batch semantics as MigrateLocal.
func (orchestrator *Orchestrator) MigrateRemote(ctx context.Context, source RemoteSource, apps []platform.App) Summary {
	summary := Summary{Results: make([]Result, 0, len(apps))}
	for _, app := range apps {
		if err := ctx.Err(); err != nil {
			summary.Results = append(summary.Results, orchestrator.skipped(remoteSource(source, app), err))
			continue
		}
		summary.Results = append(summary.Results, orchestrator.MigrateRemoteApp(ctx, source, app))
	}
	orchestrator.logSummary(summary)
	return summary
}

// MigrateLocalApp moves one cached app to the destination. The archive
// is built from the record's artifact root with the rewritten manifest
// in place of the on-disk one.
func (orchestrator *Orchestrator) MigrateLocalApp(ctx context.Context, record *localflow.Record) Result {
	current := orchestrator.begin(ctx, localSource(record))
	return current.finish(current.local(record))
}

func (current *run) local(record *localflow.Record) Result {
	if err := current.requireDestination(); err != nil {
		return current.abort(err)
	}

	rewritten, err := current.mint(record.Manifest, record.Name())
	if err != nil {
		return current.abort(err)
	}

	var archive []byte
	err = current.step("build archive", func(context.Context) error {
		var buildErr error
		archive, buildErr = artifact.BuildFromDirectory(record.RobotPath, rewritten)
		if buildErr != nil {
			return buildErr
		}
		return verifyArchivedManifest(archive, rewritten)
	})
	if err != nil {
		return current.abort(err)
	}

	return current.publish(archive, rewritten)
}

// MigrateRemoteApp moves one app from source to the destination. The
// source archive is downloaded, its manifest replaced, and the payload
// verified unchanged before anything is uploaded.
func (orchestrator *Orchestrator) MigrateRemoteApp(ctx context.Context, source RemoteSource, app platform.App) Result {
	current := orchestrator.begin(ctx, remoteSource(source, app))
	return current.finish(current.remote(source, app))
}

func (current *run) remote(source RemoteSource, app platform.App) Result {
	orchestrator := current.orchestrator
	if err := current.requireDestination(); err != nil {
		return current.abort(err)
	}
	if !source.Authenticated() {
		return current.abort(fmt.Errorf("source %s: %w", source.Username(), ErrNotAuthenticated))
	}

	var original []byte
	err := current.step("download", func(ctx context.Context) error {
		detail, err := source.AppDetail(ctx, app.AppID)
		if err != nil {
			return err
		}
		readURL, err := orchestrator.transfer.DownloadURL(detail)
		if err != nil {
			return err
		}
		original, err = orchestrator.transfer.Download(ctx, readURL)
		return err
	})
	if err != nil {
		return current.abort(err)
	}

	manifest, err := artifact.ExtractManifest(original)
	if err != nil {
		return current.abort(err)
	}

	baseName := app.AppName
	if baseName == "" {
		baseName = manifest.StringDefault(artifact.KeyName, localflow.UnknownName)
	}
	rewritten, err := current.mint(manifest, baseName)
	if err != nil {
		return current.abort(err)
	}

	var archive []byte
	err = current.step("replace manifest", func(context.Context) error {
		var replaceErr error
		archive, replaceErr = artifact.ReplaceManifest(original, rewritten)
		if replaceErr != nil {
			return replaceErr
		}
		if err := artifact.VerifyPayloadPreserved(original, archive); err != nil {
			return err
		}
		return verifyArchivedManifest(archive, rewritten)
	})
	if err != nil {
		return current.abort(err)
	}

	return current.publish(archive, rewritten)
}

// verifyArchivedManifest checks that archive carries exactly the
// manifest that will be uploaded standalone.
func verifyArchivedManifest(archive []byte, manifest artifact.Manifest) error {
	archived, err := artifact.ExtractManifest(archive)
	if err != nil {
		return err
	}
	if !archived.Equal(manifest) {
		return errors.New("archived manifest differs from the standalone manifest")
	}
	return nil
}

func localSource(record *localflow.Record) Source {
	return Source{Kind: SourceLocal, ID: record.AppID, Name: record.Name(), Account: record.UserID}
}

func remoteSource(source RemoteSource, app platform.App) Source {
	return Source{Kind: SourceRemote, ID: app.AppID, Name: app.AppName, Account: source.Username()}
}

// skipped is the result for an app the batch never started.
func (orchestrator *Orchestrator) skipped(source Source, err error) Result {
	result := Result{Source: source, Reached: Idle, Err: err}
	orchestrator.emit(Event{Time: orchestrator.clock.Now(), Source: source, State: Aborted, Step: "skipped", Err: err})
	orchestrator.record(result)
	return result
}

func (orchestrator *Orchestrator) begin(ctx context.Context, source Source) *run {
	// Steps are not interrupted once an app has started; cancellation
	// only takes effect between apps.
	ctx = context.WithoutCancel(ctx)
	ctx, _ = orchestrator.tracer.Start(ctx, "migrate.app", trace.WithAttributes(
		attribute.String("migrate.source.kind", string(source.Kind)),
		attribute.String("migrate.source.id", source.ID),
		attribute.String("migrate.destination", orchestrator.destination.Username()),
	))
	current := &run{
		orchestrator: orchestrator,
		ctx:          ctx,
		started:      orchestrator.clock.Now(),
		result:       Result{Source: source, Reached: Idle},
	}
	orchestrator.logger.Info("migrating app", "source", source.String(), "name", source.Name)
	return current
}

func (current *run) requireDestination() error {
	destination := current.orchestrator.destination
	if !destination.Authenticated() {
		return fmt.Errorf("destination %s: %w", destination.Username(), ErrNotAuthenticated)
	}
	return nil
}

// mint allocates a fresh identity and derives the rewritten manifest:
// Idle to IdentityMinted.
func (current *run) mint(manifest artifact.Manifest, baseName string) (artifact.Manifest, error) {
	orchestrator := current.orchestrator
	var identity string
	for attempt := 0; attempt < mintAttempts; attempt++ {
		candidate := orchestrator.newID()
		if _, taken := orchestrator.minted[candidate]; candidate != "" && !taken {
			identity = candidate
			break
		}
	}
	if identity == "" {
		return artifact.Manifest{}, ErrIdentityCollision
	}
	orchestrator.minted[identity] = struct{}{}

	rewritten := Rewrite(manifest, identity, baseName, orchestrator.clock.Now())
	current.result.Identity = identity
	current.result.Name = rewritten.Name()

	span := trace.SpanFromContext(current.ctx)
	span.SetAttributes(attribute.String("migrate.identity", identity))
	current.advance(IdentityMinted, "mint identity")
	return rewritten, nil
}

// publish uploads the archive and manifest and registers the app:
// IdentityMinted through Registered.
func (current *run) publish(archive []byte, rewritten artifact.Manifest) Result {
	orchestrator := current.orchestrator
	identity := current.result.Identity

	err := current.step("upload archive", func(ctx context.Context) error {
		return orchestrator.assignAndUpload(ctx, identity, platform.KindArchive, archive, nil)
	})
	if err != nil {
		return current.abort(err)
	}
	current.advance(BotUploaded, "upload archive")

	manifestBytes, err := rewritten.Marshal()
	if err != nil {
		return current.abort(err)
	}
	var manifestAssignment *platform.UploadAssignment
	err = current.step("upload manifest", func(ctx context.Context) error {
		return orchestrator.assignAndUpload(ctx, identity, platform.KindManifest, manifestBytes, &manifestAssignment)
	})
	if err != nil {
		return current.abort(err)
	}
	current.advance(ManifestUploaded, "upload manifest")

	packageMD5 := manifestAssignment.FileKeyMD5
	if packageMD5 == "" {
		orchestrator.logger.Warn("manifest assignment carried no checksum, registering without one",
			"identity", identity)
	}
	err = current.step("register", func(ctx context.Context) error {
		return orchestrator.destination.Register(ctx, platform.NewCreateAppRequest(identity, rewritten, packageMD5))
	})
	if err != nil {
		return current.abort(err)
	}
	current.advance(Registered, "register")
	return current.result
}

// assignAndUpload requests an upload destination for kind and writes
// data to it. No upload is attempted when assignment fails.
func (orchestrator *Orchestrator) assignAndUpload(ctx context.Context, identity string, kind platform.ArtifactKind, data []byte, assigned **platform.UploadAssignment) error {
	assignment, err := orchestrator.destination.AssignUpload(ctx, identity, kind)
	if err != nil {
		return err
	}
	if assigned != nil {
		*assigned = assignment
	}
	return orchestrator.transfer.Upload(ctx, assignment.UploadURL, data)
}

// step runs one pipeline action inside a child span.
func (current *run) step(name string, action func(context.Context) error) error {
	orchestrator := current.orchestrator
	ctx, span := orchestrator.tracer.Start(current.ctx, "migrate."+name)
	defer span.End()

	orchestrator.emit(Event{
		Time:     orchestrator.clock.Now(),
		Source:   current.result.Source,
		State:    current.result.Reached,
		Identity: current.result.Identity,
		Step:     name,
	})

	if err := action(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (current *run) advance(state State, step string) {
	orchestrator := current.orchestrator
	current.result.Reached = state
	trace.SpanFromContext(current.ctx).AddEvent(state.String())
	orchestrator.logger.Debug("migration advanced",
		"source", current.result.Source.String(),
		"identity", current.result.Identity,
		"state", state.String(),
	)
	orchestrator.emit(Event{
		Time:     orchestrator.clock.Now(),
		Source:   current.result.Source,
		State:    state,
		Identity: current.result.Identity,
		Step:     step,
	})
}

func (current *run) abort(err error) Result {
	orchestrator := current.orchestrator
	current.result.Err = err

	span := trace.SpanFromContext(current.ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	attributes := []any{
		"source", current.result.Source.String(),
		"reached", current.result.Reached.String(),
		"error", err,
	}
	if current.result.Orphaned() {
		attributes = append(attributes, "orphaned_identity", current.result.Identity)
	}
	orchestrator.logger.Error("migration aborted", attributes...)

	orchestrator.emit(Event{
		Time:     orchestrator.clock.Now(),
		Source:   current.result.Source,
		State:    Aborted,
		Identity: current.result.Identity,
		Step:     "abort",
		Err:      err,
	})
	return current.result
}

// finish stamps the duration, ends the app span and journals the
// result.
func (current *run) finish(result Result) Result {
	result.Duration = current.orchestrator.clock.Now().Sub(current.started)
	span := trace.SpanFromContext(current.ctx)
	span.SetAttributes(
		attribute.String("migrate.state", result.State().String()),
		attribute.Bool("migrate.orphaned", result.Orphaned()),
	)
	span.End()
	current.orchestrator.record(result)
	return result
}

func (orchestrator *Orchestrator) record(result Result) {
	if orchestrator.journal == nil {
		return
	}
	entry := newJournalRecord(result, orchestrator.destination.Username(), orchestrator.clock.Now())
	if err := orchestrator.journal.Append(entry); err != nil {
		orchestrator.logger.Warn("journal append failed", "path", orchestrator.journal.Path(), "error", err)
	}
}

func (orchestrator *Orchestrator) emit(event Event) {
	if orchestrator.observer != nil {
		orchestrator.observer(event)
	}
}

func (orchestrator *Orchestrator) logSummary(summary Summary) {
	orchestrator.logger.Info("migration batch finished",
		"succeeded", summary.Succeeded(),
		"total", summary.Total(),
		"orphaned", len(summary.Orphans()),
	)
}
