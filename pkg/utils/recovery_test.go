package utils

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/logger"
	"go.uber.org/zap/zaptest"
)

func setupTestLogger(t *testing.T) func() {
	originalLogger := logger.Log
	logger.Log = zaptest.NewLogger(t)
	return func() {
		logger.Log = originalLogger
	}
}

func TestSafeGo(t *testing.T) {
	defer setupTestLogger(t)()

	var wg sync.WaitGroup
	wg.Add(1)
	var recovered interface{}
	SafeGo(func() {
		panic("test panic")
	}, func(r interface{}, stack []byte) {
		defer wg.Done()
		recovered = r
		assert.NotEmpty(t, stack)
	})
	wg.Wait()
	assert.Equal(t, "test panic", recovered)

	done := make(chan struct{})
	SafeGo(func() { close(done) }, nil)
	<-done
}

func TestSafeGo_DefaultHandler(t *testing.T) {
	defer setupTestLogger(t)()

	done := make(chan struct{})
	SafeGo(func() {
		defer close(done)
		panic("logged")
	}, nil)
	<-done
}

func TestRecoverWithLog(t *testing.T) {
	defer setupTestLogger(t)()

	assert.NotPanics(t, func() {
		defer RecoverWithLog(context.Background(), "test op")
		panic("boom")
	})
}

func TestWrapWithContextRecovery(t *testing.T) {
	defer setupTestLogger(t)()
	ctx := logger.WithLogger(context.Background(), zaptest.NewLogger(t))

	ok := WrapWithContextRecovery(func(ctx context.Context) error { return nil })
	assert.NoError(t, ok(ctx))

	failing := WrapWithContextRecovery(func(ctx context.Context) error { return errors.New("test error") })
	assert.EqualError(t, failing(ctx), "test error")

	panicking := WrapWithContextRecovery(func(ctx context.Context) error { panic("test panic") })
	assert.EqualError(t, panicking(ctx), "panic recovered: test panic")
}
