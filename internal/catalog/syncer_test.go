package catalog

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"washbot/internal/source"
	"washbot/pkg/logx"
)

type fakeSource struct {
	machines []source.Machine
	err      error
}

func (f *fakeSource) FetchCatalog(ctx context.Context) ([]source.Machine, error) {
	return f.machines, f.err
}

type fakeSink struct {
	mu     sync.Mutex
	got    [][]source.Machine
	err    error
	synced chan struct{}
}

func (f *fakeSink) UpsertCatalog(ctx context.Context, machines []source.Machine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.got = append(f.got, machines)
	if f.synced != nil {
		select {
		case f.synced <- struct{}{}:
		default:
		}
	}
	return nil
}

func TestSyncOnce(t *testing.T) {
	t.Parallel()
	machines := []source.Machine{{ID: 1, Kind: "СТИРКА", Price: 100}}
	sink := &fakeSink{}
	s := New(&fakeSource{machines: machines}, sink, "", logx.Nop())

	if err := s.SyncOnce(context.Background()); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}
	if len(sink.got) != 1 || !reflect.DeepEqual(sink.got[0], machines) {
		t.Fatalf("sink got %v, want one upsert of %v", sink.got, machines)
	}
}

func TestSyncOncePropagatesErrors(t *testing.T) {
	t.Parallel()
	srcErr := errors.New("page down")
	s := New(&fakeSource{err: srcErr}, &fakeSink{}, "", logx.Nop())
	if err := s.SyncOnce(context.Background()); !errors.Is(err, srcErr) {
		t.Fatalf("err = %v, want source error", err)
	}

	sinkErr := errors.New("db down")
	s = New(&fakeSource{}, &fakeSink{err: sinkErr}, "", logx.Nop())
	if err := s.SyncOnce(context.Background()); !errors.Is(err, sinkErr) {
		t.Fatalf("err = %v, want sink error", err)
	}
}

func TestStartRunsInitialSync(t *testing.T) {
	t.Parallel()
	sink := &fakeSink{synced: make(chan struct{}, 1)}
	s := New(&fakeSource{machines: []source.Machine{{ID: 1}}}, sink, "", logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop(context.Background())

	select {
	case <-sink.synced:
	case <-time.After(2 * time.Second):
		t.Fatal("initial sync never ran")
	}
}
