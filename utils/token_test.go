package utils_test

import (
	"testing"

	"github.com/bookifyapp/server/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationToken_RoundTrip(t *testing.T) {
	token, hash, err := utils.NewVerificationToken()
	require.NoError(t, err)
	assert.Len(t, token, 64) // 32 random bytes, hex encoded
	assert.NotEqual(t, token, hash)

	assert.True(t, utils.CheckVerificationToken(token, hash))
	assert.False(t, utils.CheckVerificationToken("wrong-token", hash))
	assert.False(t, utils.CheckVerificationToken(token, ""))
}

func TestVerificationToken_Unique(t *testing.T) {
	t1, _, err := utils.NewVerificationToken()
	require.NoError(t, err)
	t2, _, err := utils.NewVerificationToken()
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2)
}
