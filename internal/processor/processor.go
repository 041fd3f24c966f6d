package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"kiosk/server/config"
	"kiosk/server/internal/geometry"
	"kiosk/server/internal/mapstyle"
	"kiosk/server/internal/matcher"
	"kiosk/server/internal/models"
	"kiosk/server/internal/normalizer"
)

var errStale = errors.New("feed superseded by reset")

// Indexer keeps a queryable copy of the current properties.
type Indexer interface {
	Replace(ctx context.Context, properties []models.Property) error
}

// Snapshot is everything derived from one feed load. It is never mutated
// after publication.
type Snapshot struct {
	Site       models.SiteInfo
	Custom     map[string]interface{}
	Properties []models.Property
	Index      *matcher.Index
	Lots       []models.LotFeature
	Features   *geojson.FeatureCollection
	LoadedAt   time.Time
}

// HideBuilder reports whether builder names are suppressed for this community.
func (s *Snapshot) HideBuilder() bool {
	feed := &models.RawFeed{Custom: s.Custom}
	return feed.Personalize("noBuilder")
}

// Processor turns a fetched feed into a published Snapshot.
type Processor struct {
	normalizer *normalizer.Normalizer
	builder    *geometry.Builder
	inventory  Indexer
	config     *config.Config
	logger     *logrus.Logger

	// loadMu serializes Process so inventory writes land in request order.
	loadMu sync.Mutex

	mu         sync.RWMutex
	snapshot   *Snapshot
	lastErr    error
	generation uint64
}

// NewProcessor creates a processor. inventory may be nil.
func NewProcessor(inventory Indexer, cfg *config.Config, logger *logrus.Logger) *Processor {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if cfg == nil {
		cfg = &config.Config{}
	}
	return &Processor{
		normalizer: normalizer.NewNormalizer(logger),
		builder:    geometry.NewBuilder(logger),
		inventory:  inventory,
		config:     cfg,
		logger:     logger,
	}
}

// HandleLoad is the feed store hook. Failures are logged and kept for Err.
func (p *Processor) HandleLoad(feed *models.RawFeed) {
	if err := p.Process(context.Background(), feed); err != nil {
		p.logger.WithError(err).Error("Failed to process property data")
	}
}

// Process normalizes listings and builds lot geometry in parallel, loads the
// inventory and publishes the result. A load that is overtaken by Clear
// neither writes the inventory nor publishes.
func (p *Processor) Process(ctx context.Context, feed *models.RawFeed) error {
	gen := p.currentGeneration()

	p.loadMu.Lock()
	defer p.loadMu.Unlock()

	var (
		properties []models.Property
		lots       []models.LotFeature
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		properties = p.normalizer.Normalize(feed.Available)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		lots = p.builder.Build(feed.MapLots)
		return nil
	})
	if err := g.Wait(); err != nil {
		return p.fail(gen, fmt.Errorf("failed to process feed: %w", err))
	}

	if err := p.loadInventory(ctx, gen, properties); err != nil {
		if errors.Is(err, errStale) {
			p.logger.Info("Discarding inventory load started before reset")
			return nil
		}
		return p.fail(gen, err)
	}

	snap := &Snapshot{
		Site:       feed.Property,
		Custom:     feed.Custom,
		Properties: properties,
		Index:      matcher.NewIndex(properties),
		Lots:       lots,
		Features:   geometry.FeatureCollection(lots, mapstyle.Decorate),
		LoadedAt:   time.Now(),
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		p.logger.Info("Discarding snapshot built before reset")
		return nil
	}
	p.snapshot = snap
	p.lastErr = nil

	p.logger.WithFields(logrus.Fields{
		"property_count": len(properties),
		"lot_count":      len(lots),
	}).Info("Published property snapshot")
	return nil
}

// loadInventory replaces the inventory contents with retry logic. Every
// attempt is skipped once gen is no longer current.
func (p *Processor) loadInventory(ctx context.Context, gen uint64, properties []models.Property) error {
	if p.inventory == nil {
		return nil
	}

	maxRetries := p.config.Inventory.MaxRetries
	delay := p.config.RetryDelay()

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying inventory load, attempt %d of %d", attempt, maxRetries)
			select {
			case <-ctx.Done():
				return fmt.Errorf("failed to load inventory: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		if p.currentGeneration() != gen {
			return errStale
		}
		err = p.inventory.Replace(ctx, properties)
		if err == nil {
			return nil
		}

		p.logger.Errorf("Inventory load failed: %v", err)
	}

	return fmt.Errorf("failed to load inventory after %d attempts: %w", maxRetries+1, err)
}

func (p *Processor) currentGeneration() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.generation
}

func (p *Processor) fail(gen uint64, err error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen == p.generation {
		p.lastErr = err
	}
	return err
}

// Snapshot returns the current snapshot, or nil before the first successful load.
func (p *Processor) Snapshot() *Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}

// Err returns the last processing error for the current feed, if any.
func (p *Processor) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastErr
}

// Clear drops the published snapshot. Loads still in progress are discarded.
func (p *Processor) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation++
	p.snapshot = nil
	p.lastErr = nil
}
