package experiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"gigrecs/domain"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

// ---- in-memory fakes ----

type fakeAssignmentStore struct {
	mu          sync.Mutex
	assignments map[string]domain.Assignment
	getErr      error
	createErr   error
}

func newFakeAssignmentStore() *fakeAssignmentStore {
	return &fakeAssignmentStore{assignments: make(map[string]domain.Assignment)}
}

func assignmentKey(experimentID, userID string) string {
	return experimentID + ":" + userID
}

func (f *fakeAssignmentStore) Get(ctx context.Context, experimentID, userID string) (*domain.Assignment, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assignments[assignmentKey(experimentID, userID)]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (f *fakeAssignmentStore) Create(ctx context.Context, assignment domain.Assignment) (domain.Assignment, error) {
	if f.createErr != nil {
		return domain.Assignment{}, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := assignmentKey(assignment.ExperimentID, assignment.UserID)
	if existing, ok := f.assignments[key]; ok {
		return existing, nil
	}
	f.assignments[key] = assignment
	return assignment, nil
}

func (f *fakeAssignmentStore) IncrementConversion(ctx context.Context, experimentID, userID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := assignmentKey(experimentID, userID)
	a, ok := f.assignments[key]
	if !ok {
		return errors.New("assignment not found")
	}
	a.Conversions++
	a.LastConversion = &at
	f.assignments[key] = a
	return nil
}

func (f *fakeAssignmentStore) ListByExperiment(ctx context.Context, experimentID string) ([]domain.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Assignment
	for _, a := range f.assignments {
		if a.ExperimentID == experimentID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeCatalog struct {
	experiments map[string]domain.Experiment
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{experiments: make(map[string]domain.Experiment)}
}

func (f *fakeCatalog) Get(ctx context.Context, experimentID string) (*domain.Experiment, error) {
	exp, ok := f.experiments[experimentID]
	if !ok {
		return nil, nil
	}
	return &exp, nil
}

func (f *fakeCatalog) ListActive(ctx context.Context) ([]domain.Experiment, error) {
	var out []domain.Experiment
	for _, exp := range f.experiments {
		if exp.Status == domain.ExperimentStatusActive {
			out = append(out, exp)
		}
	}
	return out, nil
}

func (f *fakeCatalog) Seed(ctx context.Context, exp domain.Experiment) error {
	if _, ok := f.experiments[exp.ExperimentID]; ok {
		return nil
	}
	f.experiments[exp.ExperimentID] = exp
	return nil
}

const testExperimentID = "recommendation_algorithm_v1"

type experimentFixture struct {
	svc         *Service
	assignments *fakeAssignmentStore
	catalog     *fakeCatalog
}

func newExperimentFixture(t *testing.T) *experimentFixture {
	t.Helper()
	f := &experimentFixture{
		assignments: newFakeAssignmentStore(),
		catalog:     newFakeCatalog(),
	}
	f.svc = NewService(f.assignments, f.catalog, testExperimentID, "control")
	f.svc.now = func() time.Time { return testNow }
	if err := f.svc.SeedDefaultExperiment(context.Background()); err != nil {
		t.Fatalf("SeedDefaultExperiment: %v", err)
	}
	return f
}

// ---- hashing ----

func TestHashFraction_Deterministic(t *testing.T) {
	users := []string{"", "alice", "bob", "user-550e8400"}
	for _, u := range users {
		first := hashFraction(u)
		for i := 0; i < 5; i++ {
			if got := hashFraction(u); got != first {
				t.Fatalf("hashFraction(%q) unstable: %v vs %v", u, got, first)
			}
		}
		if first < 0 || first >= 1 {
			t.Errorf("hashFraction(%q) = %v, want [0, 1)", u, first)
		}
	}
}

func TestHashFraction_SpreadsUsers(t *testing.T) {
	distinct := make(map[float64]struct{})
	for i := 0; i < 1000; i++ {
		distinct[hashFraction(fmt.Sprintf("user-%d", i))] = struct{}{}
	}
	// 1000 users over 10000 buckets should land in many distinct ones
	if len(distinct) < 800 {
		t.Errorf("only %d distinct fractions for 1000 users", len(distinct))
	}
}

// ---- assignment ----

func TestAssign_Sticky(t *testing.T) {
	f := newExperimentFixture(t)

	first, err := f.svc.Assign(context.Background(), "alice", testExperimentID)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if !first.Persisted {
		t.Error("first assignment should be persisted")
	}

	for i := 0; i < 10; i++ {
		again, err := f.svc.Assign(context.Background(), "alice", testExperimentID)
		if err != nil {
			t.Fatalf("Assign: %v", err)
		}
		if again.VariantID != first.VariantID {
			t.Fatalf("assignment changed: %s -> %s", first.VariantID, again.VariantID)
		}
	}
}

func TestAssign_UnknownExperiment(t *testing.T) {
	f := newExperimentFixture(t)

	if _, err := f.svc.Assign(context.Background(), "alice", "nope"); err == nil {
		t.Fatal("expected error for unknown experiment")
	}
}

func TestAssign_ConcurrentCallersConverge(t *testing.T) {
	f := newExperimentFixture(t)

	const callers = 100
	variants := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := f.svc.Assign(context.Background(), "alice", testExperimentID)
			if err != nil {
				t.Errorf("Assign: %v", err)
				return
			}
			variants[i] = a.VariantID
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		if variants[i] != variants[0] {
			t.Fatalf("caller %d got %s, caller 0 got %s", i, variants[i], variants[0])
		}
	}
}

func TestAssign_CreateFailureReturnsEphemeral(t *testing.T) {
	f := newExperimentFixture(t)
	f.assignments.createErr = errors.New("redis down")

	a, err := f.svc.Assign(context.Background(), "alice", testExperimentID)
	if err != nil {
		t.Fatalf("Assign should not fail on persistence error, got %v", err)
	}
	if a.Persisted {
		t.Error("assignment should be marked ephemeral")
	}
	if a.VariantID == "" {
		t.Error("ephemeral assignment still needs a variant")
	}

	// the deterministic hash gives the same variant once the store is back
	f.assignments.createErr = nil
	b, err := f.svc.Assign(context.Background(), "alice", testExperimentID)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if b.VariantID != a.VariantID {
		t.Errorf("variant changed after store recovery: %s -> %s", a.VariantID, b.VariantID)
	}
}

func TestAssign_DistributionOnEqualWeights(t *testing.T) {
	if testing.Short() {
		t.Skip("distribution check over many users")
	}
	f := newExperimentFixture(t)

	const users = 100000
	counts := make(map[string]int)
	for i := 0; i < users; i++ {
		a, err := f.svc.Assign(context.Background(), fmt.Sprintf("user-%d", i), testExperimentID)
		if err != nil {
			t.Fatalf("Assign: %v", err)
		}
		counts[a.VariantID]++
	}

	if len(counts) != 4 {
		t.Fatalf("got %d variants, want 4: %v", len(counts), counts)
	}
	for variant, n := range counts {
		share := float64(n) / users
		if math.Abs(share-0.25) > 0.02 {
			t.Errorf("variant %s share = %.4f, want 0.25 +/- 0.02", variant, share)
		}
	}
}

func TestPickVariant_ShortWeightsFallBackToControl(t *testing.T) {
	f := newExperimentFixture(t)
	exp := &domain.Experiment{
		ExperimentID: "broken",
		Variants: []domain.Variant{
			{VariantID: "tiny", Weight: 0.0001},
		},
	}

	// find a user whose fraction exceeds the total weight
	for i := 0; i < 100; i++ {
		user := fmt.Sprintf("user-%d", i)
		if hashFraction(user) <= 0.0001 {
			continue
		}
		if got := f.svc.pickVariant(user, exp); got != "control" {
			t.Fatalf("pickVariant(%s) = %s, want control fallback", user, got)
		}
		return
	}
	t.Fatal("no test user landed above the configured weight")
}

// ---- conversions ----

func TestRecordConversion_IncrementsCounter(t *testing.T) {
	f := newExperimentFixture(t)

	if _, err := f.svc.Assign(context.Background(), "alice", testExperimentID); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := f.svc.RecordConversion(context.Background(), "alice", testExperimentID, "save"); err != nil {
			t.Fatalf("RecordConversion: %v", err)
		}
	}

	a, err := f.assignments.Get(context.Background(), testExperimentID, "alice")
	if err != nil || a == nil {
		t.Fatalf("Get: %v, %v", a, err)
	}
	if a.Conversions != 3 {
		t.Errorf("Conversions = %d, want 3", a.Conversions)
	}
	if a.LastConversion == nil || !a.LastConversion.Equal(testNow) {
		t.Errorf("LastConversion = %v, want %v", a.LastConversion, testNow)
	}
}

func TestRecordConversion_NoAssignmentIsNoop(t *testing.T) {
	f := newExperimentFixture(t)

	if err := f.svc.RecordConversion(context.Background(), "stranger", testExperimentID, "save"); err != nil {
		t.Fatalf("RecordConversion without assignment should be a no-op, got %v", err)
	}
	if len(f.assignments.assignments) != 0 {
		t.Error("no-op conversion must not create an assignment")
	}
}

// ---- results ----

func TestResults_AggregatesByVariant(t *testing.T) {
	f := newExperimentFixture(t)
	f.assignments.assignments = map[string]domain.Assignment{
		"exp:a": {UserID: "a", ExperimentID: testExperimentID, VariantID: "control", Conversions: 2},
		"exp:b": {UserID: "b", ExperimentID: testExperimentID, VariantID: "control", Conversions: 0},
		"exp:c": {UserID: "c", ExperimentID: testExperimentID, VariantID: "hybrid", Conversions: 1},
	}

	results, err := f.svc.Results(context.Background(), testExperimentID)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}

	if results.TotalUsers != 3 {
		t.Errorf("TotalUsers = %d, want 3", results.TotalUsers)
	}
	if results.Status != domain.ExperimentStatusActive {
		t.Errorf("Status = %s, want active", results.Status)
	}
	if len(results.Variants) != 2 {
		t.Fatalf("variants = %v, want 2 entries", results.Variants)
	}

	// sorted by variant id: control before hybrid
	control, hybrid := results.Variants[0], results.Variants[1]
	if control.Variant != "control" || control.Users != 2 || control.Conversions != 2 || control.ConversionRate != 1.0 {
		t.Errorf("control = %+v", control)
	}
	if hybrid.Variant != "hybrid" || hybrid.Users != 1 || hybrid.Conversions != 1 || hybrid.ConversionRate != 1.0 {
		t.Errorf("hybrid = %+v", hybrid)
	}
}

func TestResults_EmptyExperiment(t *testing.T) {
	f := newExperimentFixture(t)

	results, err := f.svc.Results(context.Background(), testExperimentID)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if results.TotalUsers != 0 || len(results.Variants) != 0 {
		t.Errorf("results = %+v, want empty", results)
	}
}

// ---- seeding and listing ----

func TestSeedDefaultExperiment_Idempotent(t *testing.T) {
	f := newExperimentFixture(t)

	// fixture already seeded once; seed again and check the shape
	if err := f.svc.SeedDefaultExperiment(context.Background()); err != nil {
		t.Fatalf("SeedDefaultExperiment: %v", err)
	}

	exp, err := f.catalog.Get(context.Background(), testExperimentID)
	if err != nil || exp == nil {
		t.Fatalf("Get: %v, %v", exp, err)
	}
	if len(exp.Variants) != 4 {
		t.Fatalf("variants = %v, want 4", exp.Variants)
	}
	total := 0.0
	for _, v := range exp.Variants {
		total += v.Weight
	}
	if math.Abs(total-1.0) > 1e-9 {
		t.Errorf("weights sum to %v, want 1.0", total)
	}
	if exp.Variants[0].VariantID != "control" {
		t.Errorf("first variant = %s, want control", exp.Variants[0].VariantID)
	}
}

func TestActiveExperiments(t *testing.T) {
	f := newExperimentFixture(t)
	f.catalog.experiments["paused"] = domain.Experiment{
		ExperimentID: "paused",
		Status:       domain.ExperimentStatusInactive,
	}

	exps, err := f.svc.ActiveExperiments(context.Background())
	if err != nil {
		t.Fatalf("ActiveExperiments: %v", err)
	}
	if len(exps) != 1 || exps[0].ExperimentID != testExperimentID {
		t.Errorf("active experiments = %v", exps)
	}
}
