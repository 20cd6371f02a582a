package ordernum

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var orderNumberRe = regexp.MustCompile(`^ORD-[A-Z0-9]+-[A-Z0-9]+$`)

func TestGenerate_Format(t *testing.T) {
	for i := 0; i < 50; i++ {
		n := Generate(time.Now())
		assert.Regexp(t, orderNumberRe, n)
	}
}

func TestGenerate_SuccessiveCallsDiffer(t *testing.T) {
	now := time.Now()
	a := Generate(now)
	b := Generate(now)
	assert.NotEqual(t, a, b)
}

func TestGenerate_EncodesTimestamp(t *testing.T) {
	at := time.UnixMilli(36 * 36)
	n := Generate(at)
	assert.Regexp(t, `^ORD-100-`, n)
}
