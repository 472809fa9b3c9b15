package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
	"github.com/ternarybob/scribo/internal/services/illustrator"
	"github.com/ternarybob/scribo/internal/services/publisher"
	"github.com/ternarybob/scribo/internal/services/selector"
	"github.com/ternarybob/scribo/internal/services/synthesizer"
	"golang.org/x/time/rate"
)

// Orchestrator runs the full generation pipeline: select a fragment,
// synthesize an article from it, optionally illustrate it, publish it, then
// mark the fragment consumed.
type Orchestrator struct {
	selector     *selector.Service
	synthesizer  *synthesizer.Service
	illustrator  *illustrator.Service
	publisher    *publisher.Service
	storage      interfaces.StorageManager
	text         interfaces.TextService
	logger       arbor.ILogger
	maxBatchSize int
	batchLimiter *rate.Limiter
}

// NewOrchestrator wires the pipeline stages together
func NewOrchestrator(
	sel *selector.Service,
	syn *synthesizer.Service,
	ill *illustrator.Service,
	pub *publisher.Service,
	storage interfaces.StorageManager,
	text interfaces.TextService,
	cfg *common.PipelineConfig,
	logger arbor.ILogger,
) *Orchestrator {
	maxBatch := cfg.MaxBatchSize
	if maxBatch <= 0 {
		maxBatch = 20
	}

	delay := 2 * time.Second
	if cfg.BatchDelay != "" {
		if parsed, err := time.ParseDuration(cfg.BatchDelay); err == nil && parsed > 0 {
			delay = parsed
		}
	}

	return &Orchestrator{
		selector:     sel,
		synthesizer:  syn,
		illustrator:  ill,
		publisher:    pub,
		storage:      storage,
		text:         text,
		logger:       logger,
		maxBatchSize: maxBatch,
		batchLimiter: rate.NewLimiter(rate.Every(delay), 1),
	}
}

// GenerateOne runs a single pipeline pass and returns its result. Failures
// are reported on the result, not as an error; an error return means the
// result itself could not be produced.
func (o *Orchestrator) GenerateOne(ctx context.Context) *models.GenerateResult {
	start := time.Now()
	result := &models.GenerateResult{}

	defer func() {
		result.Duration = time.Since(start).Seconds()
		result.FinishedAt = time.Now().UTC()
	}()

	fragment, cycleReset, err := o.selector.Select(ctx)
	if err != nil {
		return o.fail(result, cycleReset, err, "Fragment selection failed")
	}
	result.CycleReset = cycleReset

	synthesis, err := o.synthesizer.Synthesize(ctx, fragment.Text)
	if err != nil {
		return o.fail(result, cycleReset, err, "Synthesis failed")
	}

	illustration := o.illustrator.Illustrate(ctx, synthesis.Title, synthesis.Category, synthesis.Summary)
	result.Warnings = append(result.Warnings, illustration.Warnings...)

	now := time.Now().UTC()
	article := &models.Article{
		ID:                common.NewArticleID(),
		Title:             synthesis.Title,
		Content:           synthesis.Content,
		Summary:           synthesis.Summary,
		Tags:              synthesis.Tags,
		Category:          synthesis.Category,
		ImageURL:          illustration.ImageURL,
		SourceFragmentKey: fragment.Key,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	articleID, err := o.publisher.Publish(ctx, article)
	if err != nil {
		return o.fail(result, cycleReset, err, "Publish failed")
	}

	// Consumed marking comes after the durable write. If it fails the
	// fragment may be selected again next run, which only costs a duplicate
	// article, never a lost one.
	if err := o.publisher.MarkConsumed(ctx, fragment.Key, articleID); err != nil {
		if errors.Is(err, models.ErrAlreadyConsumed) {
			o.logger.Warn().
				Int64("key", fragment.Key).
				Str("article_id", articleID).
				Msg("Fragment was already consumed by a concurrent run")
			result.Warnings = append(result.Warnings, fmt.Sprintf("fragment %d already marked consumed", fragment.Key))
		} else {
			o.logger.Warn().
				Err(err).
				Int64("key", fragment.Key).
				Msg("Failed to mark fragment consumed, it may be reselected")
			result.Warnings = append(result.Warnings, fmt.Sprintf("failed to mark fragment %d consumed: %v", fragment.Key, err))
		}
	}

	result.Success = true
	result.Article = article

	o.logger.Info().
		Str("article_id", articleID).
		Int64("fragment_key", fragment.Key).
		Bool("cycle_reset", cycleReset).
		Msg("Pipeline run completed")

	return result
}

func (o *Orchestrator) fail(result *models.GenerateResult, cycleReset bool, err error, msg string) *models.GenerateResult {
	o.logger.Warn().Err(err).Msg(msg)
	result.Success = false
	result.CycleReset = cycleReset
	result.FailureReason = models.FailureReason(err)
	return result
}

// GenerateBatch runs count sequential pipeline passes, pacing them with the
// configured delay. Individual failures are recorded and the batch
// continues; only context cancellation stops it early.
func (o *Orchestrator) GenerateBatch(ctx context.Context, count int) *models.BatchResult {
	if count < 1 {
		count = 1
	}
	if count > o.maxBatchSize {
		o.logger.Warn().
			Int("requested", count).
			Int("max", o.maxBatchSize).
			Msg("Batch size capped")
		count = o.maxBatchSize
	}

	batch := &models.BatchResult{
		Requested: count,
		Results:   make([]*models.GenerateResult, 0, count),
		StartedAt: time.Now().UTC(),
	}

	for i := 0; i < count; i++ {
		if i > 0 {
			if err := o.batchLimiter.Wait(ctx); err != nil {
				o.logger.Info().
					Int("completed", i).
					Int("requested", count).
					Msg("Batch cancelled")
				for j := i; j < count; j++ {
					batch.Results = append(batch.Results, &models.GenerateResult{
						Success:       false,
						FailureReason: models.ReasonCancelled,
						FinishedAt:    time.Now().UTC(),
					})
					batch.Failed++
				}
				break
			}
		}

		result := o.GenerateOne(ctx)
		batch.Results = append(batch.Results, result)
		if result.Success {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
	}

	batch.FinishedAt = time.Now().UTC()

	o.logger.Info().
		Int("requested", batch.Requested).
		Int("succeeded", batch.Succeeded).
		Int("failed", batch.Failed).
		Msg("Batch run completed")

	return batch
}

// ResetCycle clears the consumed set on demand.
func (o *Orchestrator) ResetCycle(ctx context.Context) error {
	return o.selector.ResetCycle(ctx)
}

// Status returns a read-only snapshot of the pipeline state.
func (o *Orchestrator) Status(ctx context.Context) (*models.PipelineStatus, error) {
	stats, err := o.storage.Stats().GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	poolSize, err := o.storage.Fragments().Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count fragments: %w", err)
	}

	consumedCount, err := o.storage.Consumed().CountConsumedKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count consumed keys: %w", err)
	}

	articleCount, err := o.storage.Articles().CountArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count articles: %w", err)
	}

	return &models.PipelineStatus{
		Stats:         *stats,
		PoolSize:      poolSize,
		ConsumedCount: consumedCount,
		ArticleCount:  articleCount,
		Provider:      o.text.Provider(),
	}, nil
}
