package promotion

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		rule     *Promotion
		subtotal decimal.Decimal
		want     decimal.Decimal
		wantErr  bool
	}{
		{
			name:     "percentage 18% off 100",
			rule:     &Promotion{Code: "PCT18", Type: TypePercentage, Value: d("18")},
			subtotal: d("100"),
			want:     d("18"),
		},
		{
			name:     "percentage 20% off 30",
			rule:     &Promotion{Code: "PCT20", Type: TypePercentage, Value: d("20")},
			subtotal: d("30"),
			want:     d("6"),
		},
		{
			name:     "percentage 100% equals subtotal",
			rule:     &Promotion{Code: "FREE", Type: TypePercentage, Value: d("100")},
			subtotal: d("42.50"),
			want:     d("42.50"),
		},
		{
			name:     "fixed 9 off 100",
			rule:     &Promotion{Code: "FLAT9", Type: TypeFixed, Value: d("9")},
			subtotal: d("100"),
			want:     d("9"),
		},
		{
			name:     "fixed 200 capped at 100 subtotal",
			rule:     &Promotion{Code: "BIG", Type: TypeFixed, Value: d("200")},
			subtotal: d("100"),
			want:     d("100"),
		},
		{
			name:     "fixed on empty subtotal",
			rule:     &Promotion{Code: "FLAT9", Type: TypeFixed, Value: d("9")},
			subtotal: d("0"),
			want:     d("0"),
		},
		{
			name:     "percentage rounds to cents",
			rule:     &Promotion{Code: "PCT15", Type: TypePercentage, Value: d("15")},
			subtotal: d("9.99"),
			want:     d("1.50"), // 1.4985 rounded
		},
		{
			name:     "min quantity is not enforced",
			rule:     &Promotion{Code: "MIN5", Type: TypePercentage, Value: d("10"), MinQuantity: 5},
			subtotal: d("10"),
			want:     d("1"),
		},
		{
			name:     "unsupported type",
			rule:     &Promotion{Code: "WAT", Type: Type("bogo")},
			subtotal: d("10"),
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(tt.rule, tt.subtotal)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}
