package tx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type unit struct{ id int }

type other struct{ id int }

func TestWithTx(t *testing.T) {
	ctx := WithTx(context.Background(), &unit{id: 7})

	got, ok := From[*unit](ctx)
	require.True(t, ok)
	assert.Equal(t, 7, got.id)

	_, ok = From[*other](ctx)
	assert.False(t, ok, "keys are scoped by type")

	_, ok = From[*unit](context.Background())
	assert.False(t, ok)
}
