package tests

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/walletera/eventstore-tables/internal/domain/eventstore"
	"github.com/walletera/eventstore-tables/pkg/optional"

	"github.com/cucumber/godog"
)

const (
	replaySnapshotKey = "replaySnapshot"
	replayEventsKey   = "replayEvents"
)

func TestEventStreams(t *testing.T) {

	suite := godog.TestSuite{
		ScenarioInitializer: InitializeEventStreamsFeature,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/event_streams.feature"},
			TestingT: t, // Testing instance that will run subtests.
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

func InitializeEventStreamsFeature(ctx *godog.ScenarioContext) {
	ctx.Before(beforeScenarioHook)
	ctx.Given(`^a running eventstore-tables$`, aRunningEventstoreTables)
	ctx.Given(`^a batch of (\d+) events is appended to stream "([^"]*)"$`, aBatchOfEventsIsAppendedToStream)
	ctx.Given(`^snapshots of stream "([^"]*)" at revisions (\d+) and (\d+)$`, snapshotsOfStreamAtRevisions)
	ctx.When(`^the same batch is appended again$`, theSameBatchIsAppendedAgain)
	ctx.When(`^stream "([^"]*)" is replayed up to revision (\d+)$`, streamIsReplayedUpToRevision)
	ctx.Then(`^stream "([^"]*)" holds revisions (\d+) to (\d+) in order$`, streamHoldsRevisionsInOrder)
	ctx.Then(`^the append fails with a conflict$`, theAppendFailsWithAConflict)
	ctx.Then(`^the replay starts from the snapshot at revision (\d+)$`, theReplayStartsFromTheSnapshotAtRevision)
	ctx.Then(`^the replay reads revisions (\d+) to (\d+)$`, theReplayReadsRevisions)
	ctx.After(afterScenarioHook)
}

func theSameBatchIsAppendedAgain(ctx context.Context) (context.Context, error) {
	batch, err := appendedBatchFromCtx(ctx)
	if err != nil {
		return ctx, err
	}
	appendErr := appFromCtx(ctx).Store().Append(ctx, batch)
	return context.WithValue(ctx, appendErrKey, appendErr), nil
}

func theAppendFailsWithAConflict(ctx context.Context) error {
	appendErr, _ := ctx.Value(appendErrKey).(error)
	if appendErr == nil {
		return errors.New("expected the append to fail")
	}
	if !errors.Is(appendErr, eventstore.ErrConflict) {
		return fmt.Errorf("expected a conflict, got: %w", appendErr)
	}
	return nil
}

func streamHoldsRevisionsInOrder(ctx context.Context, streamID string, from, to int64) error {
	events, err := appFromCtx(ctx).Store().GetEvents(ctx, streamID, 0, optional.None[int64]())
	if err != nil {
		return fmt.Errorf("failed reading stream %s: %w", streamID, err)
	}
	return expectRevisions(events, from, to)
}

func snapshotsOfStreamAtRevisions(ctx context.Context, streamID string, first, second int64) error {
	store := appFromCtx(ctx).Store()
	for _, revision := range []int64{first, second} {
		err := store.AddSnapshot(ctx, eventstore.Snapshot{
			ID:       store.NewID(),
			StreamID: streamID,
			Revision: revision,
			Data:     []byte(fmt.Sprintf(`{"balance":%d}`, revision*100)),
		})
		if err != nil {
			return fmt.Errorf("failed adding snapshot at revision %d: %w", revision, err)
		}
	}
	return nil
}

func streamIsReplayedUpToRevision(ctx context.Context, streamID string, maxRevision int64) (context.Context, error) {
	store := appFromCtx(ctx).Store()
	snapshot, err := store.GetSnapshot(ctx, streamID, optional.Some(maxRevision))
	if err != nil {
		return ctx, fmt.Errorf("failed getting snapshot: %w", err)
	}
	if !snapshot.Set {
		return ctx, errors.New("no snapshot found")
	}
	events, err := store.GetEvents(ctx, streamID, snapshot.Value.Revision, optional.Some(maxRevision))
	if err != nil {
		return ctx, fmt.Errorf("failed reading events: %w", err)
	}
	ctx = context.WithValue(ctx, replaySnapshotKey, snapshot.Value)
	return context.WithValue(ctx, replayEventsKey, events), nil
}

func theReplayStartsFromTheSnapshotAtRevision(ctx context.Context, revision int64) error {
	snapshot := ctx.Value(replaySnapshotKey).(eventstore.Snapshot)
	if snapshot.Revision != revision {
		return fmt.Errorf("expected snapshot at revision %d, got %d", revision, snapshot.Revision)
	}
	return nil
}

func theReplayReadsRevisions(ctx context.Context, from, to int64) error {
	events := ctx.Value(replayEventsKey).([]eventstore.Event)
	return expectRevisions(events, from, to)
}

func expectRevisions(events []eventstore.Event, from, to int64) error {
	if int64(len(events)) != to-from+1 {
		return fmt.Errorf("expected %d events, got %d", to-from+1, len(events))
	}
	for i, event := range events {
		if event.StreamRevision != from+int64(i) {
			return fmt.Errorf("expected revision %d at position %d, got %d", from+int64(i), i, event.StreamRevision)
		}
	}
	return nil
}
