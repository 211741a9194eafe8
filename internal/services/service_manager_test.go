package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/mentora-service/internal/validator"
)

func TestServiceManager_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sm := NewServiceManager(env.repo, env.cache, env.publisher, env.tokens, env.logger, validator.New(),
		ServiceManagerConfig{RequireCache: true})

	assert.Panics(t, func() { sm.Course() })
	assert.Error(t, sm.HealthCheck(ctx))

	require.NoError(t, sm.Initialize(ctx))
	assert.NotNil(t, sm.Course())
	assert.NotNil(t, sm.Enrollment())
	assert.NotNil(t, sm.Recommendation())
	assert.NotNil(t, sm.User())
	assert.NotNil(t, sm.Export())
	assert.NoError(t, sm.HealthCheck(ctx))

	env.redis.SetError("redis down")
	assert.Error(t, sm.HealthCheck(ctx))
	env.redis.SetError("")

	require.NoError(t, sm.Shutdown(ctx))
	assert.Error(t, sm.HealthCheck(ctx))
}

func TestServiceManager_RequiresRepository(t *testing.T) {
	env := newTestEnv(t)
	sm := NewDefaultServiceManager(nil, nil, nil, nil, env.logger, validator.New())
	assert.Error(t, sm.Initialize(context.Background()))
}
