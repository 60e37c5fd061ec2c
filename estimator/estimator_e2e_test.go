package estimator_test

import (
	"errors"
	"math"
	"testing"

	"github.com/atlytle/dense-ev/estimator"
	"github.com/atlytle/dense-ev/estimator/densefam"
	"github.com/atlytle/dense-ev/estimator/qsim"
)

func sampledEstimator(t *testing.T, mode estimator.GroupingMode) *estimator.Estimator {
	t.Helper()
	est, err := estimator.New(estimator.Config{
		Mode:     mode,
		Provider: densefam.NewProvider(),
		Executor: qsim.NewExecutor(),
	})
	if err != nil {
		t.Fatalf("estimator construction failed: %v", err)
	}
	return est
}

func TestRun_ZOnGroundState_ExactlyOne(t *testing.T) {
	// GIVEN |0> and the observable Z
	est := sampledEstimator(t, estimator.GroupingQubitWise)
	circ := qsim.NewCircuit(1)
	obs := estimator.NewObservable(1)
	if err := obs.Add("Z", 1); err != nil {
		t.Fatalf("building observable: %v", err)
	}

	// WHEN the expectation is sampled
	results, err := est.Run(
		[]estimator.Circuit{circ},
		[]*estimator.Observable{obs},
		[][]float64{nil},
		estimator.RunOptions{Shots: 500, Seed: 1},
	)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// THEN every outcome is "0", so the estimate is exactly 1 with
	// zero variance
	if results[0].Value != 1 {
		t.Errorf("<0|Z|0> must sample to exactly 1, got %v", results[0].Value)
	}
	if results[0].Metadata.Variance != 0 {
		t.Errorf("expected zero variance at ev=1, got %v", results[0].Metadata.Variance)
	}
	if results[0].Metadata.Shots != 500 {
		t.Errorf("expected 500 shots, got %d", results[0].Metadata.Shots)
	}
}

func TestRun_XOnPlusState_ExactlyOne(t *testing.T) {
	// GIVEN H|0> and the observable X: the measurement rotation maps
	// the state back to |0>, so sampling is deterministic
	est := sampledEstimator(t, estimator.GroupingNaive)
	circ := qsim.NewCircuit(1).H(0)
	obs := estimator.NewObservable(1)
	if err := obs.Add("X", 1); err != nil {
		t.Fatalf("building observable: %v", err)
	}

	results, err := est.Run(
		[]estimator.Circuit{circ},
		[]*estimator.Observable{obs},
		[][]float64{nil},
		estimator.RunOptions{Shots: 500, Seed: 2},
	)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if results[0].Value != 1 {
		t.Errorf("<+|X|+> must sample to exactly 1, got %v", results[0].Value)
	}
}

// entangledFixture returns a 2-qubit circuit with non-trivial
// correlations and a mixed-basis observable over it.
func entangledFixture(t *testing.T) (*qsim.Circuit, *estimator.Observable) {
	t.Helper()
	circ := qsim.NewCircuit(2).RY(0, 0.7).RY(1, 0.3).CX(0, 1)
	obs := estimator.NewObservable(2)
	for _, term := range []struct {
		label string
		coeff float64
	}{
		{"ZZ", 0.5},
		{"IZ", 0.75},
		{"XI", 0.25},
		{"XX", 0.3},
		{"YY", 0.2},
	} {
		if err := obs.Add(term.label, complex(term.coeff, 0)); err != nil {
			t.Fatalf("building observable: %v", err)
		}
	}
	return circ, obs
}

func TestRun_AllGroupingModes_AgreeWithAnalyticValue(t *testing.T) {
	circ, obs := entangledFixture(t)
	exact, err := circ.AnalyticExpectation(obs, nil)
	if err != nil {
		t.Fatalf("analytic reference failed: %v", err)
	}

	for _, mode := range []estimator.GroupingMode{
		estimator.GroupingNaive,
		estimator.GroupingQubitWise,
		estimator.GroupingDense,
	} {
		t.Run(string(mode), func(t *testing.T) {
			est := sampledEstimator(t, mode)
			results, err := est.Run(
				[]estimator.Circuit{circ},
				[]*estimator.Observable{obs},
				[][]float64{nil},
				estimator.RunOptions{Shots: 20000, Seed: 5},
			)
			if err != nil {
				t.Fatalf("run failed: %v", err)
			}
			got := real(results[0].Value)
			if math.Abs(got-real(exact)) > 0.05 {
				t.Errorf("mode %s: sampled %v, analytic %v", mode, got, real(exact))
			}
			if est.Metrics.Snapshot().SignFallbacks != 0 {
				t.Errorf("mode %s: unexpected sign fallbacks", mode)
			}
		})
	}
}

func TestRun_DenseGrouping_UsesFewerUnitsThanNaive(t *testing.T) {
	circ, obs := entangledFixture(t)

	units := func(mode estimator.GroupingMode) int {
		est := sampledEstimator(t, mode)
		if _, err := est.Run(
			[]estimator.Circuit{circ},
			[]*estimator.Observable{obs},
			[][]float64{nil},
			estimator.RunOptions{Shots: 100, Seed: 5},
		); err != nil {
			t.Fatalf("run failed: %v", err)
		}
		return est.Metrics.Snapshot().ExecutedUnits
	}

	naive := units(estimator.GroupingNaive)
	dense := units(estimator.GroupingDense)
	if naive != 5 {
		t.Errorf("naive grouping should measure 5 bases, got %d", naive)
	}
	if dense >= naive {
		t.Errorf("dense grouping should merge bases: dense=%d naive=%d", dense, naive)
	}
}

func TestRun_SameSeed_ReproducesResults(t *testing.T) {
	circ, obs := entangledFixture(t)

	run := func() complex128 {
		est := sampledEstimator(t, estimator.GroupingQubitWise)
		results, err := est.Run(
			[]estimator.Circuit{circ},
			[]*estimator.Observable{obs},
			[][]float64{nil},
			estimator.RunOptions{Shots: 2000, Seed: 123},
		)
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		return results[0].Value
	}

	if a, b := run(), run(); a != b {
		t.Errorf("same seed produced %v and %v", a, b)
	}
}

func TestRun_ParameterizedCircuit_BindsByDeclaredOrder(t *testing.T) {
	// GIVEN RY(theta)|0> and observable Z: <Z> = cos(theta)
	est := sampledEstimator(t, estimator.GroupingQubitWise)
	circ := qsim.NewCircuit(1).RYP(0, "theta")
	obs := estimator.NewObservable(1)
	if err := obs.Add("Z", 1); err != nil {
		t.Fatalf("building observable: %v", err)
	}

	theta := 1.1
	results, err := est.Run(
		[]estimator.Circuit{circ},
		[]*estimator.Observable{obs},
		[][]float64{{theta}},
		estimator.RunOptions{Shots: 20000, Seed: 9},
	)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if got := real(results[0].Value); math.Abs(got-math.Cos(theta)) > 0.05 {
		t.Errorf("expected about cos(%v)=%v, got %v", theta, math.Cos(theta), got)
	}
}

func TestRun_ParameterLengthMismatch_SurfacesTypedError(t *testing.T) {
	est := sampledEstimator(t, estimator.GroupingQubitWise)
	circ := qsim.NewCircuit(1).RYP(0, "theta")
	obs := estimator.NewObservable(1)
	if err := obs.Add("Z", 1); err != nil {
		t.Fatalf("building observable: %v", err)
	}

	_, err := est.Run(
		[]estimator.Circuit{circ},
		[]*estimator.Observable{obs},
		[][]float64{{0.1, 0.2}},
		estimator.RunOptions{Shots: 100},
	)
	if !errors.Is(err, estimator.ErrParameterLength) {
		t.Fatalf("expected ErrParameterLength, got %v", err)
	}
}

func TestRun_ApproximationExact_MatchesDirectAnalytic(t *testing.T) {
	circ, obs := entangledFixture(t)
	exact, err := circ.AnalyticExpectation(obs, nil)
	if err != nil {
		t.Fatalf("analytic reference failed: %v", err)
	}

	est, err := estimator.New(estimator.Config{
		Mode:          estimator.GroupingQubitWise,
		Approximation: true,
	})
	if err != nil {
		t.Fatalf("estimator construction failed: %v", err)
	}
	results, err := est.Run(
		[]estimator.Circuit{circ},
		[]*estimator.Observable{obs},
		[][]float64{nil},
		estimator.RunOptions{},
	)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if math.Abs(real(results[0].Value)-real(exact)) > 1e-12 {
		t.Errorf("approximation exact path %v differs from analytic %v",
			results[0].Value, exact)
	}
}
