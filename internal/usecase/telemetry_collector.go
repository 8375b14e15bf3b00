package usecase

import (
	"context"

	"StakeWatch/internal/domain/models"
	drepo "StakeWatch/internal/domain/repository"
	mid "StakeWatch/internal/middleware"
)

// TelemetryCollector supervises the indexer slashing stream and feeds events
// through the pipeline into the dispatcher.
type TelemetryCollector struct {
	stream  drepo.SlashingStream
	disp    *EventDispatcher
	metrics drepo.Metrics
	pipe    *mid.EventPipeline
}

func NewTelemetryCollector(stream drepo.SlashingStream, disp *EventDispatcher, metrics drepo.Metrics, pipe *mid.EventPipeline) *TelemetryCollector {
	return &TelemetryCollector{stream: stream, disp: disp, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the telemetry stream is connected.
func (c *TelemetryCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *TelemetryCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	evCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, evCh, errCh)
	return nil
}

func (c *TelemetryCollector) consume(ctx context.Context, evCh <-chan *models.SlashingEvent, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case ev := <-evCh:
			if ev == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, ev)
			} else {
				_ = c.disp.Process(ctx, ev)
			}
		}
	}
}

func (c *TelemetryCollector) Stop() error { return c.stream.Close() }

// Shutdown stops the pipeline and closes the stream.
func (c *TelemetryCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
