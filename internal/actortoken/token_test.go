package actortoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reliefledger/internal/ledger"
	dErrors "reliefledger/pkg/domain-errors"
)

const actor = ledger.Actor("ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM")

func newService(opts ...Option) *Service {
	return NewService("test-signing-key", "test-issuer", opts...)
}

func TestIssue_RoundTrip(t *testing.T) {
	svc := newService()

	issued, err := svc.Issue(actor, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, issued.Token)
	assert.NotEmpty(t, issued.JTI)
	assert.Equal(t, string(actor), issued.Actor)

	claims, err := svc.Validate(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, actor, claims.Actor())
	assert.Equal(t, issued.JTI, claims.ID)
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestIssue_UniqueJTI(t *testing.T) {
	svc := newService()
	a, err := svc.Issue(actor, time.Hour)
	require.NoError(t, err)
	b, err := svc.Issue(actor, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, a.JTI, b.JTI)
}

func TestIssue_RejectsBadInput(t *testing.T) {
	svc := newService()

	_, err := svc.Issue("", time.Hour)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = svc.Issue(actor, 0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestValidate_Garbage(t *testing.T) {
	_, err := newService().Validate("invalid-token-string")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Equal(t, "invalid token", dErrors.Message(err))
}

func TestValidate_Expired(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	issuer := newService(WithClock(func() time.Time { return past }))
	issued, err := issuer.Issue(actor, time.Hour)
	require.NoError(t, err)

	_, err = newService().Validate(issued.Token)
	require.Error(t, err)
	assert.Equal(t, "token has expired", dErrors.Message(err))
}

func TestValidate_WrongKey(t *testing.T) {
	issued, err := NewService("other-key", "test-issuer").Issue(actor, time.Hour)
	require.NoError(t, err)

	_, err = newService().Validate(issued.Token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidate_WrongIssuer(t *testing.T) {
	issued, err := NewService("test-signing-key", "someone-else").Issue(actor, time.Hour)
	require.NoError(t, err)

	_, err = newService().Validate(issued.Token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidate_MissingSubject(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			ID:        "jti-1",
		},
	})
	signed, err := token.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	_, err = newService().Validate(signed)
	assert.Equal(t, "token carries no actor", dErrors.Message(err))
}

func TestMiddlewareAdapter(t *testing.T) {
	svc := newService()
	issued, err := svc.Issue(actor, time.Hour)
	require.NoError(t, err)

	claims, err := NewMiddlewareAdapter(svc).ValidateToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, actor, claims.Actor)
	assert.Equal(t, issued.JTI, claims.JTI)

	_, err = NewMiddlewareAdapter(svc).ValidateToken("garbage")
	assert.Error(t, err)
}
