package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger-api/pkg/jwt"
)

func TestGenerateYParse(t *testing.T) {
	token, err := jwt.Generate("secret", "u1", "c1", jwt.RoleCashier, "pos", 5)
	require.NoError(t, err)

	claims, err := jwt.Parse("secret", "pos", token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "c1", claims.CompanyID)
	assert.Equal(t, jwt.RoleCashier, claims.Role)
}

func TestParse_Rechazos(t *testing.T) {
	token, err := jwt.Generate("secret", "u1", "c1", jwt.RoleAdmin, "pos", 5)
	require.NoError(t, err)

	_, err = jwt.Parse("otro", "pos", token)
	assert.Error(t, err, "firma incorrecta")

	_, err = jwt.Parse("secret", "otro-emisor", token)
	assert.Error(t, err, "emisor distinto")

	expired, err := jwt.Generate("secret", "u1", "c1", jwt.RoleAdmin, "pos", -1)
	require.NoError(t, err)
	_, err = jwt.Parse("secret", "pos", expired)
	assert.Error(t, err, "expirado")

	_, err = jwt.Generate("", "u1", "c1", jwt.RoleAdmin, "pos", 5)
	assert.Error(t, err)
}
