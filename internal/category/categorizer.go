// Package category maps free-text material names onto the fixed category
// set: a deterministic rule tier first, a model call only when no rule
// matches. Both tiers are cached by exact input string in bounded LRUs so
// a long-running process cannot grow without limit.
package category

import (
	"context"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/claud0698/boulder-delivery-receipts/constants"
	"github.com/claud0698/boulder-delivery-receipts/internal/llm"
	"github.com/claud0698/boulder-delivery-receipts/internal/retry"
)

const DefaultCacheSize = 128

type Categorizer struct {
	labeler    llm.CategoryLabeler
	ruleCache  *lru.Cache[string, constants.Category]
	modelCache *lru.Cache[string, constants.Category]
	policy     retry.Policy
	logger     *slog.Logger
}

// New builds a categorizer. labeler may be nil, in which case unmatched
// names go straight to Lainnya. retryable classifies labeler errors for
// the model-tier retry policy; nil retries everything.
func New(labeler llm.CategoryLabeler, cacheSize int, retryable func(error) bool, logger *slog.Logger) (*Categorizer, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	ruleCache, err := lru.New[string, constants.Category](cacheSize)
	if err != nil {
		return nil, err
	}
	modelCache, err := lru.New[string, constants.Category](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Categorizer{
		labeler:    labeler,
		ruleCache:  ruleCache,
		modelCache: modelCache,
		policy:     retry.Categorization(retryable),
		logger:     logger,
	}, nil
}

// Categorize never fails: when the rule tier misses and the model tier is
// unavailable or keeps erroring, the material is filed under Lainnya.
func (c *Categorizer) Categorize(ctx context.Context, materialName string) constants.Category {
	if cat, ok := c.ruleCache.Get(materialName); ok {
		return cat
	}
	if cat, ok := matchRules(materialName); ok {
		c.logger.Debug("categorize.rule_match", "material", materialName, "category", string(cat))
		c.ruleCache.Add(materialName, cat)
		return cat
	}

	if cat, ok := c.modelCache.Get(materialName); ok {
		return cat
	}
	cat := c.categorizeWithModel(ctx, materialName)
	return cat
}

func (c *Categorizer) categorizeWithModel(ctx context.Context, materialName string) constants.Category {
	if c.labeler == nil {
		return constants.Lainnya
	}

	var label string
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		var callErr error
		label, callErr = c.labeler.Label(ctx, materialName)
		return callErr
	})
	if err != nil {
		// degrade rather than block the pipeline; not cached so a later
		// call gets another chance
		c.logger.Warn("categorize.model_failed", "material", materialName, "error", err)
		return constants.Lainnya
	}

	cat, ok := constants.Canonicalize(label)
	if !ok {
		c.logger.Warn("categorize.unknown_label", "material", materialName, "label", label)
	} else {
		c.logger.Info("categorize.model_match", "material", materialName, "category", string(cat))
	}
	c.modelCache.Add(materialName, cat)
	return cat
}
