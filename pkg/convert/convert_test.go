package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrTo(t *testing.T) {
	n, err := StrTo(" 42 ").Int64()
	assert.NoError(t, err)
	assert.Equal(t, int64(42), n)

	_, err = StrTo("4x").Int64()
	assert.Error(t, err)
	assert.Zero(t, StrTo("").MustInt64())
}

func TestStructAssign(t *testing.T) {
	type src struct {
		UID      int64
		Username string
		Secret   string
	}
	type dst struct {
		UID      int64
		Username string
	}
	var d dst
	assert.NoError(t, StructAssign(&src{UID: 3, Username: "ann", Secret: "x"}, &d))
	assert.Equal(t, dst{UID: 3, Username: "ann"}, d)
	assert.Equal(t, int64(1), Bool2Int(true))
}
