package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"\t\n", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, IsEmpty(c.input), "IsEmpty(%q)", c.input)
	}
}

func TestIsValidDate(t *testing.T) {
	date, ok := IsValidDate("2024-02-29")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), date)

	invalid := []string{"2023-02-29", "2023-13-01", "2023-01-32", "2023/01/01", "01-01-2023", "2023-01-01T00:00:00Z", ""}
	for _, s := range invalid {
		_, ok := IsValidDate(s)
		assert.False(t, ok, "IsValidDate(%q)", s)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "start_date", Message: "is required"},
		{Field: "name", Message: "is required"},
	}

	assert.Equal(t, "start_date: is required; name: is required", errs.Error())
}

func TestValidationErrors_ToMap(t *testing.T) {
	errs := ValidationErrors{
		{Field: "amount", Message: "must not be negative"},
		{Field: "reason", Message: "is required"},
		{Field: "amount", Message: "must be a finite number"},
	}

	assert.Equal(t, map[string]string{
		"amount": "must be a finite number",
		"reason": "is required",
	}, errs.ToMap())
}
