package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearR2Env(t *testing.T) {
	t.Helper()
	t.Setenv("R2_BUCKET", "")
	t.Setenv("R2_ACCESS_KEY_ID", "")
	t.Setenv("R2_SECRET_ACCESS_KEY", "")
	t.Setenv("R2_ENDPOINT", "")
}

func TestNewR2ClientUnconfiguredDisablesMirroring(t *testing.T) {
	clearR2Env(t)

	r2, err := NewR2Client(context.Background())
	require.NoError(t, err)
	assert.Nil(t, r2)
}

func TestNewR2ClientRejectsPartialConfig(t *testing.T) {
	clearR2Env(t)
	t.Setenv("R2_BUCKET", "images")

	_, err := NewR2Client(context.Background())
	assert.Error(t, err)
}

func TestNilR2ClientIsNoop(t *testing.T) {
	var r2 *R2Client
	ctx := context.Background()

	assert.NoError(t, r2.MirrorImage(ctx, "categories", "category-abc.jpeg"))
	assert.NoError(t, r2.DeleteMirroredObjects(ctx, []string{"categories/category-abc.jpeg"}))
}
