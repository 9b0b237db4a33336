package classifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"herdsnap/internal/census"
	"herdsnap/internal/logger"
	"herdsnap/internal/metrics"
	"herdsnap/internal/models"
)

// Options tunes the gateway. Zero values pick sensible defaults.
type Options struct {
	Timeout     time.Duration // per row, default 2s
	Concurrency int           // parallel calls, default 4
	RPS         float64       // 0 disables throttling
}

// Gateway fans classification out over rows with bounded concurrency and a
// per-row deadline.
type Gateway struct {
	classifier  Classifier
	timeout     time.Duration
	concurrency int
	limiter     *rate.Limiter
	log         *zap.SugaredLogger
}

// NewGateway wraps c. A nil c disables classification.
func NewGateway(c Classifier, opts Options) *Gateway {
	g := &Gateway{
		classifier:  c,
		timeout:     opts.Timeout,
		concurrency: opts.Concurrency,
		log:         logger.Named("classifier"),
	}
	if g.timeout <= 0 {
		g.timeout = 2 * time.Second
	}
	if g.concurrency <= 0 {
		g.concurrency = 4
	}
	if opts.RPS > 0 {
		burst := int(opts.RPS)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}
	return g
}

// Enabled reports whether a classifier is configured.
func (g *Gateway) Enabled() bool { return g != nil && g.classifier != nil }

// ClassifyAll returns one category per record, in order. A nil entry means
// the row is unclassified. It never fails.
func (g *Gateway) ClassifyAll(ctx context.Context, records []census.Record) []*models.Category {
	out := make([]*models.Category, len(records))
	if !g.Enabled() {
		metrics.Classifications.WithLabelValues(metrics.ClassifyDisabled).Add(float64(len(records)))
		return out
	}

	outcomes := make([]string, len(records))
	var eg errgroup.Group
	eg.SetLimit(g.concurrency)
	for i := range records {
		eg.Go(func() error {
			out[i], outcomes[i] = g.classifyOne(ctx, records[i])
			return nil
		})
	}
	_ = eg.Wait()

	unclassified := 0
	for _, o := range outcomes {
		metrics.Classifications.WithLabelValues(o).Inc()
		if o != metrics.ClassifyClassified {
			unclassified++
		}
	}
	if unclassified > 0 {
		g.log.Warnw("rows left unclassified", "unclassified", unclassified, "total", len(records))
	}
	return out
}

type result struct {
	category int
	err      error
}

func (g *Gateway) classifyOne(ctx context.Context, rec census.Record) (*models.Category, string) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			g.log.Debugw("classification throttled out", "position", rec.Position, "error", err)
			return nil, metrics.ClassifyTimeout
		}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	// Buffered so the call goroutine can finish after we stop waiting.
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("classifier panic: %v", r)}
			}
		}()
		c, err := g.classifier.Classify(ctx, rec.Features())
		ch <- result{category: c, err: err}
	}()

	select {
	case <-ctx.Done():
		g.log.Debugw("classification timed out", "position", rec.Position)
		return nil, metrics.ClassifyTimeout
	case res := <-ch:
		switch {
		case errors.Is(res.err, ErrNoCategory):
			return nil, metrics.ClassifyUnclassified
		case res.err != nil:
			g.log.Debugw("classification failed", "position", rec.Position, "error", res.err)
			return nil, metrics.ClassifyFailed
		}
		cat := models.Category(res.category)
		if !cat.Valid() {
			g.log.Debugw("classifier returned unknown category", "position", rec.Position, "category", res.category)
			return nil, metrics.ClassifyFailed
		}
		return &cat, metrics.ClassifyClassified
	}
}
