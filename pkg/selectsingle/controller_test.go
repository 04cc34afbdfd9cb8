package selectsingle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type user struct {
	ID   string
	Name string
}

func userOption(u user, _ int) Option[string, user] {
	return Option[string, user]{Value: u.ID, Label: u.Name}
}

func opt(u user) Option[string, user] {
	return Option[string, user]{Value: u.ID, Label: u.Name, RawData: u}
}

var (
	alice = user{ID: "a", Name: "Alice"}
	bob   = user{ID: "b", Name: "Bob"}
	carol = user{ID: "c", Name: "Carol"}
)

type step struct {
	models []user
	err    error
}

// scriptedService blocks each call until the matching release.
type scriptedService struct {
	mu      sync.Mutex
	calls   int
	gates   []chan step
	started chan int
}

func newScriptedService(n int) *scriptedService {
	s := &scriptedService{
		gates:   make([]chan step, n),
		started: make(chan int, n+4),
	}
	for i := range s.gates {
		s.gates[i] = make(chan step, 1)
	}
	return s
}

func (s *scriptedService) Fetch(ctx context.Context) ([]user, error) {
	s.mu.Lock()
	idx := s.calls
	s.calls++
	s.mu.Unlock()
	s.started <- idx

	if idx >= len(s.gates) {
		return nil, fmt.Errorf("unexpected fetch #%d", idx)
	}
	select {
	case st := <-s.gates[idx]:
		return st.models, st.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *scriptedService) release(idx int, models []user, err error) {
	s.gates[idx] <- step{models: models, err: err}
}

func (s *scriptedService) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func staticService(calls *atomic.Int32, models ...user) Service[user] {
	return ServiceFunc[user](func(ctx context.Context) ([]user, error) {
		if calls != nil {
			calls.Add(1)
		}
		return append([]user(nil), models...), nil
	})
}

type prepareRecorder struct {
	mu     sync.Mutex
	params []PrepareDoneParams
	signal chan PrepareDoneParams
}

func newPrepareRecorder() *prepareRecorder {
	return &prepareRecorder{signal: make(chan PrepareDoneParams, 16)}
}

func (r *prepareRecorder) record(p PrepareDoneParams) {
	r.mu.Lock()
	r.params = append(r.params, p)
	r.mu.Unlock()
	r.signal <- p
}

func (r *prepareRecorder) all() []PrepareDoneParams {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]PrepareDoneParams(nil), r.params...)
}

func waitClosed(t *testing.T, c *Controller[user, string]) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		c.mu.Lock()
		closed := c.st.closed
		c.mu.Unlock()
		if closed {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("controller not torn down")
		}
		time.Sleep(time.Millisecond)
	}
}

func mustMount(t *testing.T, c *Controller[user, string]) {
	t.Helper()
	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("mount: %v", err)
	}
}

func TestMount_FetchMergesAdditionalAndReconciles(t *testing.T) {
	rec := newPrepareRecorder()
	c := New[user, string](
		staticService(nil, alice, bob),
		userOption,
		WithValue[user]("b"),
		WithAdditionalModels[user, string](carol),
		WithOnPrepareDone[user, string](rec.record),
	)
	mustMount(t, c)
	c.Wait()

	view := c.View()
	want := []Option[string, user]{opt(alice), opt(bob), opt(carol)}
	if diff := cmp.Diff(want, view.Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if view.Display != (Display[string]{Kind: DisplayValue, Value: "b", HasValue: true}) {
		t.Fatalf("unexpected display: %#v", view.Display)
	}
	if view.IsWarning || !view.PreparedOnce || view.Disabled || view.Loading || view.Fetching {
		t.Fatalf("unexpected flags: %#v", view)
	}
	if diff := cmp.Diff([]PrepareDoneParams{{IsWarning: false}}, rec.all()); diff != "" {
		t.Fatalf("prepare params mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcile_DedupesByValueFirstWins(t *testing.T) {
	dup := user{ID: "a", Name: "Alice (archived)"}
	c := New[user, string](
		staticService(nil, alice, bob, dup),
		userOption,
		WithAdditionalModels[user, string](bob),
	)
	mustMount(t, c)
	c.Wait()

	want := []Option[string, user]{opt(alice), opt(bob)}
	if diff := cmp.Diff(want, c.View().Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcile_TransformReceivesIndexAndRawDataIsForced(t *testing.T) {
	var indices []int
	transform := func(u user, index int) Option[string, user] {
		indices = append(indices, index)
		return Option[string, user]{Value: u.ID, Label: u.Name, RawData: user{ID: "bogus"}}
	}
	c := New[user, string](staticService(nil, alice, bob), transform)
	indices = nil
	mustMount(t, c)
	c.Wait()

	if diff := cmp.Diff([]int{0, 1}, indices); diff != "" {
		t.Fatalf("indices mismatch (-want +got):\n%s", diff)
	}
	if got := c.View().Options[1].RawData; got != bob {
		t.Fatalf("expected raw data to be the source model, got %#v", got)
	}
}

func TestReconcile_WarningState(t *testing.T) {
	cases := []struct {
		name        string
		fns         []OptionFn[user, string]
		wantDisplay Display[string]
		wantWarning bool
	}{
		{
			name: "unmatched value with warning text",
			fns: []OptionFn[user, string]{
				WithValue[user]("z"),
				WithWarningText[user, string](func(v string) string { return "missing " + v }),
			},
			wantDisplay: Display[string]{Kind: DisplayWarning, Value: "z", HasValue: true, Text: "missing z"},
			wantWarning: true,
		},
		{
			name:        "unmatched value without warning text",
			fns:         []OptionFn[user, string]{WithValue[user]("z")},
			wantDisplay: Display[string]{Kind: DisplayValue, Value: "z", HasValue: true},
			wantWarning: true,
		},
		{
			name: "matched value ignores warning text",
			fns: []OptionFn[user, string]{
				WithValue[user]("a"),
				WithWarningText[user, string](func(v string) string { return "missing " + v }),
			},
			wantDisplay: Display[string]{Kind: DisplayValue, Value: "a", HasValue: true},
		},
		{
			name: "no value is never a warning",
			fns: []OptionFn[user, string]{
				WithWarningText[user, string](func(v string) string { return "missing " + v }),
			},
			wantDisplay: Display[string]{Kind: DisplayEmpty},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := newPrepareRecorder()
			fns := append(tc.fns, WithOnPrepareDone[user, string](rec.record))
			c := New[user, string](staticService(nil, alice, bob), userOption, fns...)
			mustMount(t, c)
			c.Wait()

			view := c.View()
			if view.Display != tc.wantDisplay {
				t.Fatalf("display: got %#v want %#v", view.Display, tc.wantDisplay)
			}
			if view.IsWarning != tc.wantWarning {
				t.Fatalf("warning: got %v want %v", view.IsWarning, tc.wantWarning)
			}
			if diff := cmp.Diff([]PrepareDoneParams{{IsWarning: tc.wantWarning}}, rec.all()); diff != "" {
				t.Fatalf("prepare params mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestView_LoadingTextUntilFirstPass(t *testing.T) {
	svc := newScriptedService(1)
	c := New[user, string](
		svc,
		userOption,
		WithValue[user]("b"),
		WithDefaultModels[user, string](alice),
		WithLoadingText[user](func(v *string) string {
			if v == nil {
				return "loading"
			}
			return "loading " + *v
		}),
	)

	before := c.View()
	if before.Display.Kind != DisplayLoading || before.Display.Text != "loading b" {
		t.Fatalf("unexpected display before mount: %#v", before.Display)
	}
	if diff := cmp.Diff([]Option[string, user]{opt(alice)}, before.Options); diff != "" {
		t.Fatalf("default options mismatch (-want +got):\n%s", diff)
	}

	mustMount(t, c)
	during := c.View()
	if !during.Loading || !during.Fetching || !during.Disabled {
		t.Fatalf("expected loading/fetching/disabled while fetching: %#v", during)
	}

	c.ClearValue()
	if got := c.View().Display.Text; got != "loading" {
		t.Fatalf("expected loading text to follow the value, got %q", got)
	}

	svc.release(0, []user{alice, bob}, nil)
	c.Wait()

	after := c.View()
	if after.Display.Kind != DisplayEmpty {
		t.Fatalf("expected empty display after prepare, got %#v", after.Display)
	}
	if after.Loading || after.Disabled {
		t.Fatalf("expected idle view after prepare: %#v", after)
	}
}

func TestFetchFailure_FirstFailurePreparesFromDefaults(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	rec := newPrepareRecorder()
	c := New[user, string](
		ServiceFunc[user](func(context.Context) ([]user, error) {
			return nil, errors.New("boom")
		}),
		userOption,
		WithValue[user]("a"),
		WithDefaultModels[user, string](alice, bob),
		WithLoadingText[user, string](func(*string) string { return "loading..." }),
		WithLogger[user, string](zap.New(core)),
		WithOnPrepareDone[user, string](rec.record),
	)
	before := c.View()

	mustMount(t, c)
	c.Wait()

	after := c.View()
	if diff := cmp.Diff(before.Options, after.Options); diff != "" {
		t.Fatalf("options changed (-before +after):\n%s", diff)
	}
	want := Display[string]{Kind: DisplayValue, Value: "a", HasValue: true}
	if after.Display != want {
		t.Fatalf("expected value display, got %#v", after.Display)
	}
	if after.Fetching || after.Loading || after.Disabled {
		t.Fatalf("expected usable select after failed first fetch: %#v", after)
	}
	if !after.PreparedOnce {
		t.Fatalf("expected a pass over the default models")
	}
	if diff := cmp.Diff([]PrepareDoneParams{{IsWarning: false}}, rec.all()); diff != "" {
		t.Fatalf("prepare callbacks (-want +got):\n%s", diff)
	}
	if n := logs.FilterMessage("selectsingle: fetch failed").Len(); n != 1 {
		t.Fatalf("expected one failure log, got %d", n)
	}
}

func TestFetchFailure_AfterPassLeavesStateUntouched(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	var fail atomic.Bool
	rec := newPrepareRecorder()
	c := New[user, string](
		ServiceFunc[user](func(context.Context) ([]user, error) {
			if fail.Load() {
				return nil, errors.New("boom")
			}
			return []user{alice, bob}, nil
		}),
		userOption,
		WithValue[user]("b"),
		WithLogger[user, string](zap.New(core)),
		WithOnPrepareDone[user, string](rec.record),
	)
	mustMount(t, c)
	c.Wait()
	before := c.View()

	fail.Store(true)
	c.Refetch()
	c.Wait()

	after := c.View()
	if diff := cmp.Diff(before.Options, after.Options); diff != "" {
		t.Fatalf("options changed (-before +after):\n%s", diff)
	}
	if after.Display != before.Display {
		t.Fatalf("display changed: %#v -> %#v", before.Display, after.Display)
	}
	if after.Fetching || after.Loading {
		t.Fatalf("expected fetching cleared: %#v", after)
	}
	if n := len(rec.all()); n != 1 {
		t.Fatalf("expected only the first pass to prepare, got %d", n)
	}
	if n := logs.FilterMessage("selectsingle: fetch failed").Len(); n != 1 {
		t.Fatalf("expected one failure log, got %d", n)
	}
}

func TestFetchFailure_PanicIsSwallowed(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	c := New[user, string](
		ServiceFunc[user](func(context.Context) ([]user, error) {
			panic("service exploded")
		}),
		userOption,
		WithLogger[user, string](zap.New(core)),
	)
	mustMount(t, c)
	c.Wait()

	if c.View().Fetching {
		t.Fatalf("expected fetching cleared after panic")
	}
	if n := logs.FilterMessage("selectsingle: fetch failed").Len(); n != 1 {
		t.Fatalf("expected one failure log, got %d", n)
	}
}

func TestFetchDeps_DeepEqualityGatesRefetch(t *testing.T) {
	var calls atomic.Int32
	c := New[user, string](
		staticService(&calls, alice),
		userOption,
		WithFetchDeps[user, string]("org-1", map[string]any{"page": 1}),
	)
	mustMount(t, c)
	c.Wait()
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected initial fetch, got %d calls", n)
	}

	c.SetFetchDeps("org-1", map[string]any{"page": 1})
	c.Wait()
	if n := calls.Load(); n != 1 {
		t.Fatalf("deep-equal deps must not refetch, got %d calls", n)
	}

	c.SetFetchDeps("org-1", map[string]any{"page": 2})
	c.Wait()
	if n := calls.Load(); n != 2 {
		t.Fatalf("changed deps must refetch once, got %d calls", n)
	}

	c.SetFetchDeps("org-1", map[string]any{"page": 2})
	c.Wait()
	if n := calls.Load(); n != 2 {
		t.Fatalf("repeated deps must not refetch, got %d calls", n)
	}
}

func TestFetchDeps_BeforeMountOnlyRecorded(t *testing.T) {
	var calls atomic.Int32
	c := New[user, string](staticService(&calls, alice), userOption)
	c.SetFetchDeps("x")
	c.SetFetchDeps("y")
	if n := calls.Load(); n != 0 {
		t.Fatalf("expected no fetch before mount, got %d", n)
	}
	mustMount(t, c)
	c.Wait()
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected a single fetch on mount, got %d", n)
	}
}

func TestReconcile_SuppressedWhileFetching(t *testing.T) {
	svc := newScriptedService(1)
	rec := newPrepareRecorder()
	c := New[user, string](
		svc,
		userOption,
		WithValue[user]("a"),
		WithOnPrepareDone[user, string](rec.record),
		WithWarningText[user, string](func(v string) string { return "missing " + v }),
	)
	mustMount(t, c)

	c.SetValue("c")
	c.SetTransformDeps("locale", "fr")
	if n := len(rec.all()); n != 0 {
		t.Fatalf("expected passes to be suppressed while fetching, got %d", n)
	}

	svc.release(0, []user{alice, bob}, nil)
	c.Wait()

	// The fetch-completion pass reconciles against the value current at
	// completion time.
	view := c.View()
	if view.Display.Kind != DisplayWarning || view.Display.Text != "missing c" {
		t.Fatalf("unexpected display: %#v", view.Display)
	}
	if diff := cmp.Diff([]PrepareDoneParams{{IsWarning: true}}, rec.all()); diff != "" {
		t.Fatalf("prepare params mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcile_ValueAndTransformDepsAfterFetch(t *testing.T) {
	rec := newPrepareRecorder()
	prefix := ""
	transform := func(u user, _ int) Option[string, user] {
		return Option[string, user]{Value: u.ID, Label: prefix + u.Name}
	}
	c := New[user, string](
		staticService(nil, alice, bob),
		transform,
		WithOnPrepareDone[user, string](rec.record),
		WithTransformDeps[user, string]("en"),
	)
	mustMount(t, c)
	c.Wait()

	c.SetValue("b")
	if got := c.View().Display; got != (Display[string]{Kind: DisplayValue, Value: "b", HasValue: true}) {
		t.Fatalf("unexpected display after value change: %#v", got)
	}

	c.SetValue("b")
	if n := len(rec.all()); n != 2 {
		t.Fatalf("same value must not trigger a pass, got %d passes", n)
	}

	prefix = "* "
	c.SetTransformDeps("en")
	if got := c.View().Options[0].Label; got != "Alice" {
		t.Fatalf("equal transform deps must not recompute, got %q", got)
	}

	c.SetTransformDeps("fr")
	if got := c.View().Options[0].Label; got != "* Alice" {
		t.Fatalf("changed transform deps must recompute, got %q", got)
	}

	c.SetValue("zzz")
	if !c.View().IsWarning {
		t.Fatalf("expected warning for unknown value")
	}
	if n := len(rec.all()); n != 4 {
		t.Fatalf("expected 4 passes, got %d", n)
	}
}

func TestSelect_TranslatesEmptySelection(t *testing.T) {
	type call struct {
		value  *string
		option *Option[string, user]
	}
	var calls []call
	c := New[user, string](
		staticService(nil, alice, bob),
		userOption,
		WithOnChange[user](func(v *string, o *Option[string, user]) {
			calls = append(calls, call{value: v, option: o})
		}),
	)
	mustMount(t, c)
	c.Wait()

	c.Select("b")
	c.Select("")
	c.Clear()
	c.Select("nope")
	if !c.SelectIndex(0) {
		t.Fatalf("expected index 0 to be selectable")
	}
	if c.SelectIndex(5) {
		t.Fatalf("expected out of range index to be rejected")
	}

	if len(calls) != 5 {
		t.Fatalf("expected 5 change calls, got %d", len(calls))
	}
	if calls[0].value == nil || *calls[0].value != "b" || calls[0].option == nil || calls[0].option.RawData != bob {
		t.Fatalf("unexpected first call: %#v", calls[0])
	}
	for i := 1; i <= 2; i++ {
		if calls[i].value != nil || calls[i].option != nil {
			t.Fatalf("expected cleared selection at %d, got %#v", i, calls[i])
		}
	}
	if calls[3].value == nil || *calls[3].value != "nope" || calls[3].option != nil {
		t.Fatalf("unexpected unknown selection: %#v", calls[3])
	}
	if calls[4].value == nil || *calls[4].value != "a" {
		t.Fatalf("unexpected index selection: %#v", calls[4])
	}
}

func TestFetchPolicy_OverlappingFetches(t *testing.T) {
	cases := []struct {
		policy FetchPolicy
		want   []Option[string, user]
		passes int
	}{
		{policy: FetchPolicyLastResolved, want: []Option[string, user]{opt(alice)}, passes: 2},
		{policy: FetchPolicyLatestDispatch, want: []Option[string, user]{opt(bob)}, passes: 1},
	}

	for _, tc := range cases {
		t.Run(string(tc.policy), func(t *testing.T) {
			svc := newScriptedService(2)
			rec := newPrepareRecorder()
			c := New[user, string](
				svc,
				userOption,
				WithFetchDeps[user, string](1),
				WithFetchPolicy[user, string](tc.policy),
				WithOnPrepareDone[user, string](rec.record),
			)
			mustMount(t, c)
			<-svc.started
			c.SetFetchDeps(2)
			<-svc.started

			// the newer fetch resolves first
			svc.release(1, []user{bob}, nil)
			<-rec.signal
			if !c.View().Fetching {
				t.Fatalf("expected the older fetch to still be in flight")
			}

			svc.release(0, []user{alice}, nil)
			c.Wait()

			view := c.View()
			if diff := cmp.Diff(tc.want, view.Options); diff != "" {
				t.Fatalf("options mismatch (-want +got):\n%s", diff)
			}
			if view.Fetching {
				t.Fatalf("expected fetching cleared")
			}
			if n := len(rec.all()); n != tc.passes {
				t.Fatalf("expected %d passes, got %d", tc.passes, n)
			}
		})
	}
}

func TestUnmount_CancelsAndDiscardsLateResults(t *testing.T) {
	svc := newScriptedService(1)
	rec := newPrepareRecorder()
	c := New[user, string](
		svc,
		userOption,
		WithDefaultModels[user, string](alice),
		WithOnPrepareDone[user, string](rec.record),
	)
	mustMount(t, c)
	c.Unmount()
	c.Wait()

	view := c.View()
	if diff := cmp.Diff([]Option[string, user]{opt(alice)}, view.Options); diff != "" {
		t.Fatalf("options changed after unmount (-want +got):\n%s", diff)
	}
	if view.PreparedOnce || len(rec.all()) != 0 {
		t.Fatalf("expected no pass after unmount")
	}

	c.SetValue("a")
	c.SetFetchDeps("again")
	c.Refetch()
	c.Wait()
	if svc.Calls() != 1 {
		t.Fatalf("expected no fetch after unmount, got %d calls", svc.Calls())
	}
	if err := c.Mount(context.Background()); !errors.Is(err, ErrUnmounted) {
		t.Fatalf("expected ErrUnmounted, got %v", err)
	}
}

func TestMount_ContextCancelUnmounts(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	c := New[user, string](
		staticService(&calls, alice),
		userOption,
		WithWarningText[user, string](func(v string) string { return "missing " + v }),
	)
	if err := c.Mount(ctx); err != nil {
		t.Fatalf("mount: %v", err)
	}
	c.Wait()

	cancel()
	waitClosed(t, c)

	c.Refetch()
	c.SetFetchDeps("again")
	c.SetValue("zzz")
	c.Wait()

	if n := calls.Load(); n != 1 {
		t.Fatalf("expected no fetch after cancel, got %d", n)
	}
	if view := c.View(); view.IsWarning || view.Display.Kind == DisplayWarning {
		t.Fatalf("expected no pass after cancel: %#v", view)
	}
	if err := c.Mount(context.Background()); !errors.Is(err, ErrUnmounted) {
		t.Fatalf("expected ErrUnmounted, got %v", err)
	}
}

func TestMount_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New[user, string](staticService(nil, alice), userOption)
	if err := c.Mount(ctx); err != nil {
		t.Fatalf("mount: %v", err)
	}
	waitClosed(t, c)
	c.Wait()
	c.Unmount()
}

func TestSetValue_ConcurrentKeepsGateInStep(t *testing.T) {
	c := New[user, string](
		staticService(nil, alice, bob),
		userOption,
		WithWarningText[user, string](func(v string) string { return "missing " + v }),
	)
	mustMount(t, c)
	c.Wait()

	values := []string{"a", "b", "zzz"}
	for round := 0; round < 50; round++ {
		var wg sync.WaitGroup
		for i := 0; i < 12; i++ {
			wg.Add(1)
			go func(v string) {
				defer wg.Done()
				c.SetValue(v)
			}(values[i%len(values)])
		}
		wg.Wait()

		c.mu.Lock()
		stale := c.transformGate.Changed(c.transformKeyLocked())
		want := c.st.value
		c.mu.Unlock()
		if stale {
			t.Fatalf("round %d: reconcile gate lags behind the value", round)
		}

		view := c.View()
		if view.Display.Value != want {
			t.Fatalf("round %d: display %#v does not follow value %q", round, view.Display, want)
		}
	}

	c.SetValue("zzz")
	c.SetValue("a")
	if view := c.View(); view.Display.Kind != DisplayValue || view.Display.Value != "a" {
		t.Fatalf("expected value display for a, got %#v", view.Display)
	}
}

func TestMount_Errors(t *testing.T) {
	if err := New[user, string](nil, userOption).Mount(context.Background()); !errors.Is(err, ErrMissingService) {
		t.Fatalf("expected ErrMissingService, got %v", err)
	}
	if err := New[user, string](staticService(nil), nil).Mount(context.Background()); !errors.Is(err, ErrMissingTransform) {
		t.Fatalf("expected ErrMissingTransform, got %v", err)
	}

	c := New[user, string](staticService(nil, alice), userOption)
	mustMount(t, c)
	if err := c.Mount(context.Background()); !errors.Is(err, ErrAlreadyMounted) {
		t.Fatalf("expected ErrAlreadyMounted, got %v", err)
	}
	c.Wait()
}

func TestSubscribe_ReceivesSnapshots(t *testing.T) {
	var (
		mu    sync.Mutex
		views []View[user, string]
	)
	c := New[user, string](staticService(nil, alice), userOption)
	cancel := c.Subscribe(func(v View[user, string]) {
		mu.Lock()
		views = append(views, v)
		mu.Unlock()
	})
	mustMount(t, c)
	c.Wait()
	cancel()
	c.SetValue("a")

	mu.Lock()
	defer mu.Unlock()
	if len(views) == 0 {
		t.Fatalf("expected snapshots")
	}
	last := views[len(views)-1]
	if !last.PreparedOnce || len(last.Options) != 1 {
		t.Fatalf("expected final snapshot to be prepared: %#v", last)
	}
	for _, v := range views {
		if v.Display.Kind == DisplayValue {
			t.Fatalf("unsubscribed callback received a later snapshot")
		}
	}
}

func TestSubscribe_LastSnapshotIsCurrent(t *testing.T) {
	var (
		mu   sync.Mutex
		last View[user, string]
	)
	c := New[user, string](staticService(nil, alice, bob), userOption)
	c.Subscribe(func(v View[user, string]) {
		mu.Lock()
		last = v
		mu.Unlock()
	})
	mustMount(t, c)
	c.Wait()

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				c.SetValue("a")
				return
			}
			c.ClearValue()
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff(c.View(), last); diff != "" {
		t.Fatalf("last delivered snapshot is stale (-current +delivered):\n%s", diff)
	}
}

func TestSubscribe_ReentrantCallback(t *testing.T) {
	var (
		mu    sync.Mutex
		kinds []DisplayKind
	)
	c := New[user, string](staticService(nil, alice, bob), userOption)
	mustMount(t, c)
	c.Wait()

	var once sync.Once
	c.Subscribe(func(v View[user, string]) {
		mu.Lock()
		kinds = append(kinds, v.Display.Kind)
		mu.Unlock()
		if v.Display.Value == "b" {
			once.Do(func() { c.ClearValue() })
		}
	})

	done := make(chan struct{})
	go func() {
		c.SetValue("b")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("reentrant subscriber deadlocked")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(kinds) == 0 || kinds[len(kinds)-1] != DisplayEmpty {
		t.Fatalf("expected the cleared snapshot last, got %v", kinds)
	}
	if got := c.View().Display.Kind; got != DisplayEmpty {
		t.Fatalf("expected cleared value, got %v", got)
	}
}

func TestSyncService(t *testing.T) {
	c := New[user, string](SyncService(func() []user { return []user{bob} }), userOption, WithValue[user]("b"))
	mustMount(t, c)
	c.Wait()
	if c.View().SelectedIndex() != 0 {
		t.Fatalf("expected bob to be selected")
	}
}
