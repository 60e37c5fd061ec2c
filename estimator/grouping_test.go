package estimator

import (
	"errors"
	"testing"
)

func mustParseAll(t *testing.T, labels ...string) []Pauli {
	t.Helper()
	out := make([]Pauli, len(labels))
	for i, l := range labels {
		p, err := ParsePauli(l)
		if err != nil {
			t.Fatalf("parse %q: %v", l, err)
		}
		out[i] = p
	}
	return out
}

func TestGroupTerms_Naive_OneFamilyPerTerm(t *testing.T) {
	terms := mustParseAll(t, "ZZ", "XX", "IZ")

	fams, assign, err := GroupTerms(terms, GroupingNaive, nil, 2)
	if err != nil {
		t.Fatalf("grouping failed: %v", err)
	}

	if len(fams) != 3 {
		t.Fatalf("expected 3 singleton families, got %d", len(fams))
	}
	for i, term := range terms {
		if assign[term] != i {
			t.Errorf("term %s routed to family %d, want %d", term, assign[term], i)
		}
		if fams[i].Basis != term {
			t.Errorf("family %d basis %s, want %s", i, fams[i].Basis, term)
		}
	}
}

func TestGroupTerms_QubitWise_MergesCompatibleTerms(t *testing.T) {
	// GIVEN terms where the Z-like trio is qubit-wise compatible and XX is not
	terms := mustParseAll(t, "ZI", "IZ", "ZZ", "XX")

	fams, assign, err := GroupTerms(terms, GroupingQubitWise, nil, 2)
	if err != nil {
		t.Fatalf("grouping failed: %v", err)
	}

	// THEN the trio shares one family with basis ZZ, XX stands alone
	if len(fams) != 2 {
		t.Fatalf("expected 2 families, got %d", len(fams))
	}
	zz, _ := ParsePauli("ZZ")
	if fams[0].Basis != zz {
		t.Errorf("first family basis %s, want ZZ", fams[0].Basis)
	}
	for _, l := range []string{"ZI", "IZ", "ZZ"} {
		p, _ := ParsePauli(l)
		if assign[p] != 0 {
			t.Errorf("%s routed to family %d, want 0", l, assign[p])
		}
	}
	xx, _ := ParsePauli("XX")
	if assign[xx] != 1 {
		t.Errorf("XX routed to family %d, want 1", assign[xx])
	}
}

func TestGroupTerms_QubitWise_FirstFitDependsOnOrder(t *testing.T) {
	// GIVEN ZZ first: XI cannot join it, IX cannot join it either
	terms := mustParseAll(t, "ZZ", "XI", "IX")

	fams, _, err := GroupTerms(terms, GroupingQubitWise, nil, 2)
	if err != nil {
		t.Fatalf("grouping failed: %v", err)
	}

	// THEN XI and IX merge with each other but not with ZZ
	if len(fams) != 2 {
		t.Fatalf("expected 2 families, got %d", len(fams))
	}
	if len(fams[1].Members) != 2 {
		t.Errorf("expected XI and IX in one family, got %v", fams[1].Members)
	}
}

func TestGroupTerms_UnknownMode_Fails(t *testing.T) {
	terms := mustParseAll(t, "Z")

	_, _, err := GroupTerms(terms, GroupingMode("bogus"), nil, 1)
	if !errors.Is(err, ErrUnknownGrouping) {
		t.Fatalf("expected ErrUnknownGrouping, got %v", err)
	}
}

func TestGroupTerms_Dense_RequiresProvider(t *testing.T) {
	terms := mustParseAll(t, "Z")

	_, _, err := GroupTerms(terms, GroupingDense, nil, 1)
	if err == nil {
		t.Fatal("dense grouping without a provider must fail")
	}
}

// stubProvider serves a fixed partition for dense-grouping tests.
type stubProvider struct {
	fams []Family
	err  error
}

func (s *stubProvider) Partition(numQubits int) ([]Family, error) {
	return s.fams, s.err
}

func singleQubitPartition(t *testing.T) []Family {
	t.Helper()
	// {Z}, {X}, {Y}: the 1-qubit commuting partition with neutral signs.
	var fams []Family
	for _, l := range []string{"Z", "X", "Y"} {
		p, _ := ParsePauli(l)
		fams = append(fams, Family{
			ID:            l,
			N:             1,
			Members:       []Pauli{p},
			Basis:         p,
			MeasuredMasks: []uint64{1},
			Signs:         []float64{1},
		})
	}
	return fams
}

func TestGroupTerms_Dense_ResolvesAgainstPartition(t *testing.T) {
	provider := &stubProvider{fams: singleQubitPartition(t)}
	terms := mustParseAll(t, "X", "Z")

	fams, assign, err := GroupTerms(terms, GroupingDense, provider, 1)
	if err != nil {
		t.Fatalf("grouping failed: %v", err)
	}

	// Families surface in first-touched order: X's family, then Z's.
	if len(fams) != 2 {
		t.Fatalf("expected 2 resolved families, got %d", len(fams))
	}
	if fams[0].ID != "X" || fams[1].ID != "Z" {
		t.Errorf("family order wrong: %s, %s", fams[0].ID, fams[1].ID)
	}
	x, _ := ParsePauli("X")
	z, _ := ParsePauli("Z")
	if assign[x] != 0 || assign[z] != 1 {
		t.Errorf("assignments wrong: X->%d Z->%d", assign[x], assign[z])
	}
}

func TestGroupTerms_Dense_UnresolvedTermSkippedNotFatal(t *testing.T) {
	// GIVEN a partition that only knows Z
	z, _ := ParsePauli("Z")
	provider := &stubProvider{fams: []Family{{
		ID: "Z", N: 1, Members: []Pauli{z}, Basis: z,
		MeasuredMasks: []uint64{1}, Signs: []float64{1},
	}}}
	terms := mustParseAll(t, "Z", "X")

	fams, assign, err := GroupTerms(terms, GroupingDense, provider, 1)
	if err != nil {
		t.Fatalf("grouping must tolerate unknown terms: %v", err)
	}

	// THEN X is absent from the assignment and only Z's family remains
	if len(fams) != 1 {
		t.Fatalf("expected 1 family, got %d", len(fams))
	}
	x, _ := ParsePauli("X")
	if _, ok := assign[x]; ok {
		t.Error("skipped term must not appear in the assignment")
	}
	if assign[z] != 0 {
		t.Errorf("Z routed to %d, want 0", assign[z])
	}
}

func TestGroupTerms_Dense_KeepsCanonicalMemberOrder(t *testing.T) {
	// GIVEN a family whose canonical order is Z, X (artificial) and
	// terms arriving reversed
	z, _ := ParsePauli("Z")
	x, _ := ParsePauli("X")
	provider := &stubProvider{fams: []Family{{
		ID: "fam", N: 1, Members: []Pauli{z, x}, Basis: Pauli{N: 1, X: 1, Z: 1},
		MeasuredMasks: []uint64{1, 1}, Signs: []float64{1, -1},
	}}}

	fams, _, err := GroupTerms([]Pauli{x, z}, GroupingDense, provider, 1)
	if err != nil {
		t.Fatalf("grouping failed: %v", err)
	}

	// THEN the resolved family preserves provider order with parallel signs
	if len(fams) != 1 || len(fams[0].Members) != 2 {
		t.Fatalf("unexpected families: %+v", fams)
	}
	if fams[0].Members[0] != z || fams[0].Members[1] != x {
		t.Errorf("canonical order lost: %v", fams[0].Members)
	}
	if fams[0].Signs[0] != 1 || fams[0].Signs[1] != -1 {
		t.Errorf("signs not parallel to members: %v", fams[0].Signs)
	}
}
