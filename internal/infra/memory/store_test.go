package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-growth/internal/entity"
)

func newLead(t *testing.T) *entity.Lead {
	t.Helper()
	lead, err := entity.NewLead(entity.LeadSourceWebsite, "Ana", "ana@example.com", "", entity.LeadForm{
		Website: &entity.WebsiteForm{PageURL: "https://ligue.app"},
	})
	require.NoError(t, err)
	return lead
}

func TestLeadCompareAndSet(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := store.Leads()

	var changes []Change
	store.Subscribe(func(c Change) { changes = append(changes, c) })

	lead := newLead(t)
	require.NoError(t, repo.Create(ctx, lead))

	require.NoError(t, repo.UpdateStatus(ctx, lead.ID, entity.LeadStatusNew, entity.LeadStatusSentToMeta, nil))
	err := repo.UpdateStatus(ctx, lead.ID, entity.LeadStatusNew, entity.LeadStatusSpam, nil)
	assert.ErrorIs(t, err, entity.ErrStaleStatus)

	got, err := repo.FindByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.LeadStatusSentToMeta, got.Status)

	assert.Equal(t, []Change{
		{Kind: "lead", ID: lead.ID, Status: "new"},
		{Kind: "lead", ID: lead.ID, Status: "sent_to_meta"},
	}, changes)
}

func TestLeadStats(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Leads()

	for i := 0; i < 4; i++ {
		require.NoError(t, repo.Create(ctx, newLead(t)))
	}
	all, _ := repo.List(ctx, entity.LeadFilter{})
	require.Len(t, all, 4)

	require.NoError(t, repo.UpdateStatus(ctx, all[0].ID, entity.LeadStatusNew, entity.LeadStatusSpam, nil))
	// shortcut straight to converted, the repository does not guard the graph
	require.NoError(t, repo.UpdateStatus(ctx, all[1].ID, entity.LeadStatusNew, entity.LeadStatusConverted, nil))

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 4, stats.BySource[entity.LeadSourceWebsite])
	assert.InDelta(t, 1.0/3.0, stats.ConversionRate, 0.0001)

	limited, _ := repo.List(ctx, entity.LeadFilter{Status: entity.LeadStatusNew, Limit: 1})
	assert.Len(t, limited, 1)
}

func TestChatSessionDedup(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().ChatSessions()
	now := time.Now()

	first, created, err := repo.FindOrCreate(ctx, entity.NewChatSession("+5511999990000", "Ana", entity.LeadSourceWhatsAppOrganic, now))
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := repo.FindOrCreate(ctx, entity.NewChatSession("+5511999990000", "", entity.LeadSourceWhatsAppAd, now))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, entity.LeadSourceWhatsAppOrganic, second.Source)

	msg := entity.NewChatMessage(first.ID, entity.DirectionInbound, "oi", "wamid.1", now.Add(time.Second))
	require.NoError(t, repo.AppendMessage(ctx, msg))
	dup := entity.NewChatMessage(first.ID, entity.DirectionInbound, "oi", "wamid.1", now.Add(time.Second))
	assert.ErrorIs(t, repo.AppendMessage(ctx, dup), entity.ErrDuplicate)

	got, _ := repo.FindByID(ctx, first.ID)
	assert.Equal(t, 1, got.MessageCount)
	assert.Equal(t, now.Add(time.Second), got.LastMessageAt)

	msgs, _ := repo.Messages(ctx, first.ID)
	assert.Len(t, msgs, 1)
}

func TestOrderLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Orders()

	old := entity.NewOrder("acc", "pro", "", "USD", 4999, 0)
	old.CreatedAt = time.Now().Add(-time.Hour)
	fresh := entity.NewOrder("acc", "pro", "", "USD", 4999, 0)
	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Create(ctx, fresh))

	n, err := repo.ExpireOlderThan(ctx, time.Now().Add(-30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, repo.MarkVerified(ctx, fresh.ID, "pay_1", time.Now()))
	assert.ErrorIs(t, repo.MarkVerified(ctx, fresh.ID, "pay_2", time.Now()), entity.ErrStaleStatus)

	got, err := repo.FindByToken(ctx, fresh.CorrelationToken)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderVerified, got.Status)
	assert.Equal(t, "pay_1", got.PaymentID)

	_, err = repo.FindByToken(ctx, "missing")
	assert.ErrorIs(t, err, entity.ErrOrderNotFound)
}
