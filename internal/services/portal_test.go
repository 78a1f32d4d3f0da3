package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/patience-portal/internal/models"
)

func TestPortal_Resources(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cheap := f.bouquets.add("Essentiel", 5000, true)
	f.bouquets.add("Premium", 12000, true)
	f.bouquets.add("Ancien", 1000, false)
	token, sub := f.login(t, &cheap)

	now := time.Now()
	for i := 0; i < 25; i++ {
		f.payments.history[sub.ID] = append(f.payments.history[sub.ID], models.Payment{
			ID: "p", Amount: 5000, PaymentDate: now.Add(-time.Duration(i) * 24 * time.Hour), MonthsPaid: 1,
		})
	}
	f.payments.history["someone-else"] = []models.Payment{{ID: "x"}}

	v, err := f.portal.Fetch(ctx, token, ResourceProfile)
	require.NoError(t, err)
	profile := v.(*models.Profile)
	assert.Equal(t, sub.ID, profile.ID)
	require.NotNil(t, profile.Bouquet)
	assert.Equal(t, int64(5000), profile.Bouquet.Price)

	v, err = f.portal.Fetch(ctx, token, ResourcePayments)
	require.NoError(t, err)
	payments := v.([]models.Payment)
	require.Len(t, payments, PaymentHistoryLimit)
	assert.True(t, payments[0].PaymentDate.After(payments[1].PaymentDate))

	v, err = f.portal.Fetch(ctx, token, ResourceBouquets)
	require.NoError(t, err)
	bouquets := v.([]models.BouquetSummary)
	require.Len(t, bouquets, 2)
	assert.Equal(t, "Essentiel", bouquets[0].Name)

	for i := 0; i < 12; i++ {
		_, err := f.ticket.Create(ctx, token, CreateTicketInput{Subject: "Signal faible", Description: "Image qui saute souvent"})
		require.NoError(t, err)
	}
	v, err = f.portal.Fetch(ctx, token, ResourceTickets)
	require.NoError(t, err)
	tickets := v.([]models.SupportTicket)
	require.Len(t, tickets, TicketHistoryLimit)
	assert.Equal(t, "TKT-000012", tickets[0].TicketNumber)
}

func TestPortal_AuthorizesBeforeResource(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.portal.Fetch(ctx, "", ResourceProfile)
	assert.True(t, IsKind(err, KindUnauthorized))

	_, err = f.portal.Fetch(ctx, "bogus", Resource("unknown"))
	assert.True(t, IsKind(err, KindUnauthorized))

	token, _ := f.login(t, nil)
	_, err = f.portal.Fetch(ctx, token, Resource("unknown"))
	assert.True(t, IsKind(err, KindValidation))
	_, err = f.portal.Fetch(ctx, token, Resource(""))
	assert.True(t, IsKind(err, KindValidation))
}

func TestPortal_SessionExpiresAtBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token, _ := f.login(t, nil)

	start := f.clock.Now()
	f.clock.Set(start.Add(SessionDuration - time.Second))
	_, err := f.portal.Fetch(ctx, token, ResourceProfile)
	require.NoError(t, err)

	f.clock.Set(start.Add(SessionDuration))
	_, err = f.portal.Fetch(ctx, token, ResourceProfile)
	assert.True(t, IsKind(err, KindUnauthorized))
}
