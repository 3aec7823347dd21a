package tx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTx(t *testing.T) {
	ctx := context.Background()

	_, ok := From(ctx)
	assert.False(t, ok)

	assert.Equal(t, ctx, WithTx(ctx, nil))

	tx := &sql.Tx{}
	got, ok := From(WithTx(ctx, tx))
	assert.True(t, ok)
	assert.Same(t, tx, got)
}

func TestRun_JoinsCarriedTransaction(t *testing.T) {
	outer := &sql.Tx{}
	ctx := WithTx(context.Background(), outer)
	errLocked := errors.New("application locked")

	var seen *sql.Tx
	// a nil db proves no new transaction is started
	err := Run(ctx, nil, func(ctx context.Context, tx *sql.Tx) error {
		seen = tx
		carried, ok := From(ctx)
		require.True(t, ok)
		assert.Same(t, outer, carried)
		return errLocked
	})

	assert.Same(t, outer, seen)
	assert.ErrorIs(t, err, errLocked)
}
