package engine

import (
	"context"
	"errors"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/careledger/backend/internal/storage/models"
	"github.com/careledger/backend/internal/timeutil"
)

// DefaultGraceMinutes is how long a pending dose may run late before the
// sweep marks it missed.
const DefaultGraceMinutes = 60

// RefillLister enumerates dose sources whose stock has fallen to the refill
// threshold.
type RefillLister interface {
	ListNeedingRefill(ctx context.Context) ([]LowStockItem, error)
}

// LowStockItem is one source in need of a refill.
type LowStockItem struct {
	Kind      models.SourceKind
	SourceID  string
	Name      string
	Remaining int
}

// Sweeper runs the engine's periodic jobs: marking overdue pending doses as
// missed once the grace window passes, topping up the rolling generation
// window, and flagging low stock.
type Sweeper struct {
	cron         *cron.Cron
	events       EventStore
	transitioner *Transitioner
	coordinator  *Coordinator
	sources      SourceLister
	refills      RefillLister
	notifier     Notifier
	graceMinutes int
	now          func() timeutil.LocalDateTime
}

// NewSweeper creates a sweeper. sources, refills, and notifier may be nil to
// disable the corresponding job.
func NewSweeper(
	events EventStore,
	transitioner *Transitioner,
	coordinator *Coordinator,
	sources SourceLister,
	refills RefillLister,
	notifier Notifier,
	graceMinutes int,
) *Sweeper {
	if graceMinutes <= 0 {
		graceMinutes = DefaultGraceMinutes
	}
	return &Sweeper{
		cron:         cron.New(cron.WithSeconds()),
		events:       events,
		transitioner: transitioner,
		coordinator:  coordinator,
		sources:      sources,
		refills:      refills,
		notifier:     notifier,
		graceMinutes: graceMinutes,
		now:          timeutil.Now,
	}
}

// Start begins the periodic jobs.
func (s *Sweeper) Start() {
	log.Println("Starting event sweeper...")

	s.cron.AddFunc("@every 1m", func() {
		s.SweepMissed(context.Background())
	})

	s.cron.AddFunc("@every 6h", func() {
		s.TopUpWindows(context.Background())
	})

	s.cron.AddFunc("@every 1h", func() {
		s.CheckStock(context.Background())
	})

	s.cron.Start()
	log.Println("Event sweeper started")
}

// Stop gracefully shuts down the sweeper, waiting for running jobs.
func (s *Sweeper) Stop() {
	log.Println("Stopping event sweeper...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Event sweeper stopped")
}

// SweepMissed marks pending dose events missed once their scheduled time is
// more than the grace window in the past.
func (s *Sweeper) SweepMissed(ctx context.Context) int {
	cutoff := s.now().AddMinutes(-s.graceMinutes)
	events, err := s.events.Query(ctx, EventFilter{
		To:     &cutoff,
		Status: models.EventStatusPending,
		Types:  []models.EventType{models.EventTypeMedicationDue, models.EventTypeSupplementDue},
	})
	if err != nil {
		log.Printf("Missed sweep query failed: %v", err)
		return 0
	}

	marked := 0
	for i := range events {
		err := s.transitioner.MarkMissed(ctx, events[i].ID)
		if err != nil {
			var te *TransitionError
			// Someone acted on the event between query and sweep; fine.
			if errors.Is(err, ErrNotFound) || errors.As(err, &te) {
				continue
			}
			log.Printf("Failed to mark event %s missed: %v", events[i].ID, err)
			continue
		}
		marked++
	}
	if marked > 0 {
		log.Printf("Missed sweep marked %d events", marked)
	}
	return marked
}

// TopUpWindows re-runs generation for every active source so the forward
// window keeps rolling as days pass. Purely additive.
func (s *Sweeper) TopUpWindows(ctx context.Context) {
	if s.sources == nil || s.coordinator == nil {
		return
	}
	list, err := s.sources.ListActiveSources(ctx)
	if err != nil {
		log.Printf("Top-up source listing failed: %v", err)
		return
	}

	created := 0
	for _, src := range list {
		n, err := s.coordinator.TopUp(ctx, src)
		if err != nil {
			log.Printf("Top-up failed for source %s: %v", src.ID, err)
			continue
		}
		created += n
	}
	if created > 0 {
		log.Printf("Window top-up created %d events", created)
	}
}

// CheckStock broadcasts a low-stock notice for every source at or below its
// refill threshold.
func (s *Sweeper) CheckStock(ctx context.Context) {
	if s.refills == nil || s.notifier == nil {
		return
	}
	items, err := s.refills.ListNeedingRefill(ctx)
	if err != nil {
		log.Printf("Refill check failed: %v", err)
		return
	}
	for _, item := range items {
		s.notifier.LowStock(item.Kind, item.SourceID, item.Name, item.Remaining)
	}
}
