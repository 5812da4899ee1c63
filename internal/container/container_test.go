package container

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chronically/chronically/internal/config"
	"github.com/chronically/chronically/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestValidateReportsMissingDependencies(t *testing.T) {
	err := New().Validate()
	require.Error(t, err)

	var initErr *InitializationError
	require.True(t, errors.As(err, &initErr))
	assert.Contains(t, initErr.MissingDeps, "database (DB)")
	assert.Contains(t, initErr.MissingDeps, "auth service")
	assert.Contains(t, err.Error(), "Missing required dependencies: ")
}

func TestCleanupRunsLIFOOnce(t *testing.T) {
	c := New()
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		c.OnCleanup(func(context.Context) error {
			order = append(order, i)
			if i == 1 {
				return errors.New("boom")
			}
			return nil
		})
	}

	require.NoError(t, c.Cleanup(context.Background()))
	require.NoError(t, c.Cleanup(context.Background()))
	assert.Equal(t, []int{2, 1, 0}, order)
}

func TestCleanupStopsBackgroundWork(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := New()
	c.startHub(nil)
	ticks := make(chan struct{}, 1)
	c.every(time.Millisecond, func() {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})

	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatal("ticker never fired")
	}
	require.NoError(t, c.Cleanup(context.Background()))
}

func TestMockBuildsHandlers(t *testing.T) {
	db := testutil.NewDB(t)
	m := NewMock(db)
	defer m.Clean(context.Background())

	require.NoError(t, m.Validate())
	assert.NotNil(t, m.Auth())
	assert.NotNil(t, m.WebSocketHandler())
	assert.Nil(t, m.Redis())
	assert.Nil(t, m.Uploader())
	assert.Nil(t, m.Explainer())

	h, err := m.Handlers()
	require.NoError(t, err)
	assert.NotNil(t, h)
}

func TestWireExplainer(t *testing.T) {
	c := New()
	c.wireExplainer(config.ExplainConfig{BaseURL: "http://localhost:1/v1"})
	assert.Nil(t, c.Explainer())

	c.wireExplainer(config.ExplainConfig{BaseURL: "http://localhost:1/v1", APIKey: "k", Model: "m"})
	assert.NotNil(t, c.Explainer())
}

func TestHandlersRequiresAuth(t *testing.T) {
	_, err := New().Handlers()
	require.Error(t, err)
}

func TestDependencyNotFoundError(t *testing.T) {
	assert.Equal(t, "dependency not found: auth service", NewDependencyNotFoundError("auth service").Error())
}

func TestDBSystem(t *testing.T) {
	assert.Equal(t, "postgresql", dbSystem("postgres"))
	assert.Equal(t, "mysql", dbSystem("mysql"))
}
