package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-unit-tests"

func TestGenerateAndParse_ConRole(t *testing.T) {
	tok, err := Generate(testSecret, "u-1", RoleBodeguero, "procurement-test", 60)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	userID, role, err := Parse(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", userID)
	assert.Equal(t, RoleBodeguero, role)
}

func TestParse_Errores(t *testing.T) {
	tok, err := Generate(testSecret, "u-1", RoleAdmin, "procurement-test", 60)
	require.NoError(t, err)

	expired, err := Generate(testSecret, "u-1", RoleAdmin, "procurement-test", -1)
	require.NoError(t, err)

	cases := []struct {
		name   string
		secret string
		token  string
	}{
		{"secret incorrecto", "otro-secret", tok},
		{"expirado", testSecret, expired},
		{"malformado", testSecret, "token.invalido.aqui"},
		{"secret vacío", "", tok},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.secret, tc.token)
			assert.Error(t, err)
		})
	}
}

func TestGenerate_SecretVacio(t *testing.T) {
	_, err := Generate("", "u-1", RoleAdmin, "x", 60)
	assert.Error(t, err)
}
