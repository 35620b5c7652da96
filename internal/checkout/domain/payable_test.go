package domain_test

import (
	"testing"

	"github.com/shuddhilabs/shuddhi/internal/checkout/domain"
)

func TestPayable(t *testing.T) {
	cases := []struct {
		name       string
		pricePaise int64
		taxRateBps int64
		want       int64
	}{
		{"starter at 18% gst", 99_900, 1800, 117_882},
		{"pro at 18% gst", 399_900, 1800, 471_882},
		{"monthly at 18% gst", 49_900, 1800, 58_882},
		{"zero tax", 99_900, 0, 99_900},
		{"zero price", 0, 1800, 0},
		{"half paise rounds up", 25, 1800, 30},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := domain.Payable(tc.pricePaise, tc.taxRateBps); got != tc.want {
				t.Fatalf("Payable(%d, %d) = %d, want %d", tc.pricePaise, tc.taxRateBps, got, tc.want)
			}
		})
	}
}
