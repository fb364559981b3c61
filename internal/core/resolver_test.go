package core

import "testing"

func TestSizeResolverResolve(t *testing.T) {
	r := SizeResolver{
		DirectVideoLimit: 50 * 1024 * 1024,
		HardUploadLimit:  1_950_000_000,
	}

	tests := []struct {
		name          string
		size          int64
		sizeKnown     bool
		defaultFormat bool
		want          Decision
	}{
		{"small video", 40 * 1024 * 1024, true, true, ProceedAsVideo},
		{"small video reduced format", 40 * 1024 * 1024, true, false, ProceedAsVideo},
		{"over hard limit", 2_500_000_000, true, true, RejectTooLarge},
		{"over hard limit reduced format", 2_500_000_000, true, false, RejectTooLarge},
		{"band with default format", 100 * 1024 * 1024, true, true, NeedsSelection},
		{"band with reduced format", 100 * 1024 * 1024, true, false, ProceedAnyway},
		{"no estimate", 0, false, true, ProceedUnknown},
		{"exactly direct limit", 50 * 1024 * 1024, true, true, ProceedAsVideo},
		{"exactly hard limit", 1_950_000_000, true, true, NeedsSelection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(tt.size, tt.sizeKnown, tt.defaultFormat)
			if got != tt.want {
				t.Errorf("Resolve(%d, %v, %v) = %v, want %v",
					tt.size, tt.sizeKnown, tt.defaultFormat, got, tt.want)
			}
		})
	}
}
