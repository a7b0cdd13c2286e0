package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeNameTrimsAndComposes(t *testing.T) {
	decomposed := "Cafe\u0301"
	assert.Equal(t, "Caf\u00e9", NormalizeName("  "+decomposed+"\t"))
	assert.Equal(t, "الأصول", NormalizeName(" الأصول "))
}

func TestActorRoundTripsThroughContext(t *testing.T) {
	_, ok := ActorFromContext(context.Background())
	require.False(t, ok)

	ctx := ContextWithActor(context.Background(), Actor{ID: 9, Capabilities: []string{PermCOAEdit}})
	actor, ok := ActorFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(9), actor.ID)
	assert.True(t, actor.Can(" FINANCE.COA.EDIT "))
	assert.False(t, actor.Can(PermLinkedEdit))
}

func TestSlogAuditorRequiresIdentity(t *testing.T) {
	err := SlogAuditor{}.Record(context.Background(), AuditLog{Action: "account.create"})
	require.Error(t, err)
	require.NoError(t, SlogAuditor{}.Record(context.Background(), AuditLog{Action: "account.create", Entity: "account", EntityID: "x"}))
}
