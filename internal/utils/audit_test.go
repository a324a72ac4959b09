package utils

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"storefront_back_end/internal/models"
)

func TestLogAuditorRecord(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	a := NewLogAuditor(zap.New(core))

	err := a.Record(context.Background(), models.AuditLog{
		UserID:     "admin",
		Action:     ActionStockClear,
		Resource:   ResourceInventory,
		ResourceID: "1,2",
		Success:    true,
		Status:     200,
		Timestamp:  time.Now(),
	})
	require.NoError(t, err)

	entries := logs.FilterMessage(ActionStockClear).All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "admin", fields["user_id"])
	assert.Equal(t, "1,2", fields["resource_id"])
	assert.Equal(t, true, fields["success"])
	assert.Equal(t, "audit", entries[0].LoggerName)
}

func TestEncodeValue(t *testing.T) {
	assert.Equal(t, "", EncodeValue(nil))
	assert.Equal(t, "12.50", EncodeValue("12.50"))
	assert.Equal(t, `{"inventory":0}`, EncodeValue(map[string]int{"inventory": 0}))
}

func TestGenerateJWT(t *testing.T) {
	p := models.Principal{UserID: "u-1", Granted: []models.Capability{models.CapViewHistory}}
	signed, err := GenerateJWT("secret", p, time.Hour)
	require.NoError(t, err)

	var claims Claims
	_, err = jwt.ParseWithClaims(signed, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, []string{"view_history"}, claims.Capabilities)
	assert.False(t, claims.IsStaff)
}

func TestAuditQueryCQL(t *testing.T) {
	stmt, args := AuditQuery{}.cql()
	assert.NotContains(t, stmt, "WHERE")
	assert.NotContains(t, stmt, "ALLOW FILTERING")
	assert.Equal(t, []interface{}{DefaultAuditLimit}, args)

	stmt, args = AuditQuery{UserID: "admin", Resource: ResourceOrder, Limit: 10_000}.cql()
	assert.Contains(t, stmt, "WHERE user_id = ? AND resource = ? LIMIT ? ALLOW FILTERING")
	assert.Equal(t, []interface{}{"admin", ResourceOrder, MaxAuditLimit}, args)
}
