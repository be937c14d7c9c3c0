package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryCursor(t *testing.T) {
	token := EncodeRegistryCursor("B12345674", 42)
	assert.NotEmpty(t, token, "Token should not be empty")

	n, err := DecodeRegistryCursor(token, "B12345674")
	assert.NoError(t, err)
	assert.Equal(t, int64(42), n)

	// A cursor cannot be replayed against another chain
	_, err = DecodeRegistryCursor(token, "A58818501")
	assert.Error(t, err)

	_, err = DecodeRegistryCursor("not base64!!", "B12345674")
	assert.Error(t, err)

	_, err = DecodeRegistryCursor(EncodeMultiFieldToken("B12345674", "x"), "B12345674")
	assert.Error(t, err)

	_, err = DecodeRegistryCursor(EncodeMultiFieldToken("B12345674"), "B12345674")
	assert.Error(t, err)
}

func TestMultiFieldToken(t *testing.T) {
	token := EncodeMultiFieldToken("a", "b", "c")
	parts, err := DecodeMultiFieldToken(token)
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, parts)
}
