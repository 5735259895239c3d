package server

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/credkeeper/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.LogLevel = "error"
	return c
}

func TestNewApp_InMemory(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig())
	require.NoError(t, err)
	assert.NotNil(t, app.authService)
	assert.NotNil(t, app.repos)
}

func TestNewApp_RejectsBadSettings(t *testing.T) {
	c := testConfig()
	c.PasswordAlgorithm = "md5"
	_, err := NewApp(context.Background(), c)
	assert.Error(t, err)

	c = testConfig()
	c.SecretKey = ""
	_, err = NewApp(context.Background(), c)
	assert.Error(t, err)

	c = testConfig()
	c.SecretKey = "secretKey"
	_, err = NewApp(context.Background(), c)
	assert.Error(t, err)

	c = testConfig()
	c.LogLevel = "chatty"
	_, err = NewApp(context.Background(), c)
	assert.Error(t, err)
}

func TestNewApp_UnreachableDatabase(t *testing.T) {
	c := testConfig()
	c.DatabaseDSN = "postgres://u:p@127.0.0.1:1/db?sslmode=disable&connect_timeout=1"

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := NewApp(ctx, c)
	assert.Error(t, err)
}

func TestRun_StopsOnCancel(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestRun_ReportsListenError(t *testing.T) {
	c := testConfig()
	c.EndpointAddrGRPC = "127.0.0.1:99999"
	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)

	assert.Error(t, app.Run(context.Background()))
}
