package tsd

import (
	"context"
	"testing"
	"time"

	"Gin_postgres_redis_tsd_control/events"
	"Gin_postgres_redis_tsd_control/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReturnOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.issue(t, "e1", "ACME", "T1")

	back := base.Add(2 * time.Hour)
	f.clock.Set(back)
	row, err := f.svc.ReturnOne(ctx, " T1 ")
	require.NoError(t, err)
	assert.Equal(t, id, row.ID)
	assert.Equal(t, models.TSDReturned, row.Status)
	require.NotNil(t, row.ReturnTime)
	assert.True(t, row.ReturnTime.Equal(back))

	_, err = f.svc.ReturnOne(ctx, "T1")
	require.ErrorIs(t, err, ErrNotIssued)

	assert.Equal(t, []events.Type{events.TSDIssued, events.TSDReturned}, f.events.types())
}

func TestReturnOne_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ReturnOne(context.Background(), "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReturnOne_Unknown(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ReturnOne(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotIssued)
	var ne *NotIssuedError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "nope", ne.TSDNumber)
	assert.Empty(t, ne.Company)
}

func TestReturnBulkForCompany_ScopedToCompany(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.IssueBulkForCompany(ctx, BulkInput{Company: "ACME", TSDNumbers: []string{"A1", "A2"}})
	require.NoError(t, err)
	f.issue(t, "e1", "BETA", "T1")

	res, err := f.svc.ReturnBulkForCompany(ctx, BulkInput{Company: "ACME", TSDNumbers: []string{"A1", "T1", "", "A2"}})
	require.NoError(t, err)
	require.Len(t, res.Returned, 2)
	assert.Equal(t, "A1", res.Returned[0].TSDNumber)
	assert.Equal(t, "A2", res.Returned[1].TSDNumber)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, ItemError{
		TSDNumber: "T1",
		Error:     "no active issuance found for terminal T1 under company ACME",
		Code:      "not_issued",
	}, res.Errors[0])

	// T1 仍在 BETA 名下
	cur, err := f.repo.FindOutstanding(ctx, "T1", "BETA")
	require.NoError(t, err)
	require.NotNil(t, cur)
}

func TestReturnBulkForCompany_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ReturnBulkForCompany(ctx, BulkInput{Company: " ", TSDNumbers: []string{"T1"}})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.ReturnBulkForCompany(ctx, BulkInput{Company: "ACME", TSDNumbers: nil})
	assert.ErrorIs(t, err, ErrValidation)
}
