package server

import (
	"context"
	"testing"
	"time"

	"SignalForge/internal/domain/models"
	internalrepo "SignalForge/internal/repository"
	"SignalForge/internal/service/stream"
	"SignalForge/internal/usecase"
	"SignalForge/pkg/config"
	xhttp "SignalForge/pkg/http"
	applogger "SignalForge/pkg/logger"
	"SignalForge/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slowDispatcher struct {
	started  chan struct{}
	release  chan struct{}
	finished chan struct{}
}

func (d *slowDispatcher) Dispatch(context.Context, models.WebhookSignal) error {
	close(d.started)
	<-d.release
	close(d.finished)
	return nil
}

func TestShutdown_DrainsInflightDispatch(t *testing.T) {
	d := &slowDispatcher{started: make(chan struct{}), release: make(chan struct{}), finished: make(chan struct{})}
	sink := internalrepo.NewMemorySink()
	recorder := internalrepo.NewBufferedRecorder(sink, metrics.Nop{}, nil)
	intake := usecase.NewSignalIntake(usecase.IntakeConfig{}, recorder, d, metrics.Nop{}, nil)

	app := New(&config.Config{}, applogger.Nop(),
		xhttp.NewServer(nil, nil, xhttp.WithMetricsPath("")),
		recorder, stream.NewHub(nil), WithIntake(intake))

	_, err := intake.AcceptRaw(context.Background(), map[string]interface{}{"symbol": "BTC", "action": "buy"})
	require.NoError(t, err)
	<-d.started

	stopped := make(chan error, 1)
	go func() { stopped <- app.Shutdown(context.Background()) }()

	select {
	case <-stopped:
		t.Fatal("shutdown returned while a dispatch was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(d.release)
	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not finish")
	}
	select {
	case <-d.finished:
	default:
		t.Fatal("dispatch did not finish before shutdown returned")
	}
	assert.Len(t, sink.Records(), 1)
}
