package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestAttributeHelpers(t *testing.T) {
	assert.Equal(t, attribute.String("session", "s1"), String("session", "s1"))
	assert.Equal(t, attribute.Int("page", 2), Int("page", 2))

	kv := Bool("action_required", true)
	assert.Equal(t, attribute.Key("action_required"), kv.Key)
	assert.True(t, kv.Value.AsBool())
}

func TestInitTracerWithoutCollectorIsNoop(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), "autoapply-engine", "")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
	assert.NotNil(t, GetTracer("test"))
}
