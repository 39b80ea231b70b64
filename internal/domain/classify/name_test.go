package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PravdaST/testograph-sync-backend/internal/domain/order"
)

func TestResolveCustomerName(t *testing.T) {
	tests := []struct {
		name          string
		customerFirst string
		customerLast  string
		shipping      *order.Address
		billing       *order.Address
		want          string
	}{
		{
			name:          "buyer profile wins",
			customerFirst: "Georgi",
			customerLast:  "Dimitrov",
			shipping:      &order.Address{Name: "Someone Else"},
			want:          "Georgi Dimitrov",
		},
		{
			name:     "falls through undefined parts to billing full name",
			shipping: &order.Address{FirstName: "undefined", LastName: "undefined"},
			billing:  &order.Address{Name: "Ivan Petrov"},
			want:     "Ivan Petrov",
		},
		{
			name:     "shipping full name before shipping parts",
			shipping: &order.Address{Name: "Мария Иванова", FirstName: "Maria", LastName: "Ivanova"},
			want:     "Мария Иванова",
		},
		{
			name:     "undefined undefined full name rejected",
			shipping: &order.Address{Name: "undefined undefined", FirstName: "Petar", LastName: "Georgiev"},
			want:     "Petar Georgiev",
		},
		{
			name:          "single usable part is kept",
			customerFirst: "Ivan",
			customerLast:  "undefined",
			want:          "Ivan",
		},
		{
			name:    "billing parts as last resort",
			billing: &order.Address{FirstName: "Stoyan", LastName: "Kolev"},
			want:    "Stoyan Kolev",
		},
		{
			name: "nothing usable resolves to empty",
			shipping: &order.Address{
				Name: "undefined undefined", FirstName: "undefined", LastName: "undefined",
			},
			want: "",
		},
		{
			name: "nil addresses",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveCustomerName(tt.customerFirst, tt.customerLast, tt.shipping, tt.billing)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "undefined")
		})
	}
}

func TestIsPlaceholderName(t *testing.T) {
	assert.True(t, IsPlaceholderName("undefined"))
	assert.True(t, IsPlaceholderName("undefined undefined"))
	assert.True(t, IsPlaceholderName("UNDEFINED"))
	assert.False(t, IsPlaceholderName(""))
	assert.False(t, IsPlaceholderName("   "))
	assert.False(t, IsPlaceholderName("Georgi Dimitrov"))
	assert.False(t, IsPlaceholderName("Мария Иванова"))
}
