package core

import "testing"

func TestErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		station bool
	}{
		{"missing column", NewSchemaError([]string{"dose"}), true},
		{"non-numeric column", NewNonNumericError([]string{"site"}), true},
		{"no usable rows", ErrNoUsableRows, true},
		{"privacy refusal", NewPrivacyError(2, 3), true},
		{"shape mismatch", ErrShapeMismatch, false},
		{"bad user input", NewUserInputError("unknown column set"), false},
	}
	for _, tc := range cases {
		if got := IsStationError(tc.err); got != tc.station {
			t.Errorf("%s: IsStationError = %v, want %v", tc.name, got, tc.station)
		}
	}

	if !IsAggregationError(ErrShapeMismatch) || !IsAggregationError(ErrNoUsableResults) {
		t.Error("shape and no-result errors must classify as aggregation errors")
	}
	if !IsPrivacyError(NewPrivacyError(1, 3)) {
		t.Error("privacy constructor must classify as a privacy error")
	}
}
