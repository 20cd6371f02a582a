package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type contact struct {
	Name  string `json:"name" validate:"notblank"`
	Email string `json:"email" validate:"required,loose_email"`
	Age   int    `json:"age" validate:"gte=0,lte=150"`
}

func TestFields_ReportsJSONNames(t *testing.T) {
	v := New()

	errs := v.Fields(contact{Name: "  ", Email: "nope", Age: 200})

	assert.Len(t, errs, 3)
	assert.Contains(t, errs, "name")
	assert.Equal(t, "invalid email", errs["email"])
	assert.Contains(t, errs, "age")
}

func TestFields_Valid(t *testing.T) {
	v := New()

	errs := v.Fields(contact{Name: "Ann", Email: "ann@example.com", Age: 30})

	assert.Empty(t, errs)
}

func TestIsEmailLike(t *testing.T) {
	assert.True(t, IsEmailLike("a@b.co"))
	assert.True(t, IsEmailLike("first.last@sub.example.org"))
	assert.False(t, IsEmailLike("a@b"))
	assert.False(t, IsEmailLike("ab.co"))
	assert.False(t, IsEmailLike(""))
}
