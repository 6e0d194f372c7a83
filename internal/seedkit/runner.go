package seedkit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lantechdigital/sinilai/pkg/logger"
)

// Recap convergence constants.
const (
	recapPollInterval = 500 * time.Millisecond
	recapWaitBudget   = 30 * time.Second
)

// Run executes the complete seed-and-verify flow.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting seed run",
		logger.String("baseURL", config.BaseURL),
		logger.String("event", config.EventName),
		logger.Int("students", config.Students),
		logger.Int("judges", config.Judges),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout))

	admin := newClient(config.BaseURL, config.Timeout)

	// Step 1: check service health.
	if err := admin.Health(ctx); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: authenticate with the admin key.
	role, err := admin.Login(ctx, config.AdminKey)
	if err != nil {
		return fmt.Errorf("admin login failed: %w", err)
	}
	logger.Get().Info(ctx, "admin authenticated", logger.String("role", role))

	// Step 3: create the event and its rubric.
	ev, err := admin.CreateEvent(ctx, config.EventName)
	if err != nil {
		return fmt.Errorf("event creation failed: %w", err)
	}

	criteria := make([]criterion, 0, len(defaultRubric))
	for _, spec := range defaultRubric {
		cr, err := admin.AddCriterion(ctx, ev.ID, spec.Name, spec.Weight, spec.MaxScore)
		if err != nil {
			return fmt.Errorf("criterion %q creation failed: %w", spec.Name, err)
		}
		criteria = append(criteria, cr)
	}
	logger.Get().Info(ctx, "rubric created",
		logger.String("eventID", ev.ID),
		logger.Int("criteria", len(criteria)))

	// Step 4: register judge keys and log each judge in.
	judges, err := registerJudges(ctx, config, admin)
	if err != nil {
		return err
	}

	// Step 5: import the roster.
	roster, err := admin.ImportStudents(ctx, generateRoster(config.Students, ev.ID))
	if err != nil {
		return fmt.Errorf("roster import failed: %w", err)
	}
	stats.StudentsCreated = len(roster)
	logger.Get().Info(ctx, "roster imported", logger.Int("students", len(roster)))

	// Step 6: score and finalize concurrently.
	expected, err := scoreAndFinalize(ctx, config, judges, roster, criteria, stats)
	if err != nil {
		return fmt.Errorf("scoring failed: %w", err)
	}

	// Step 7: wait for the recap snapshot to converge.
	rows, err := awaitRecap(ctx, admin, ev.ID, stats.Finalized)
	if err != nil {
		return fmt.Errorf("recap retrieval failed: %w", err)
	}
	stats.RecapRows = len(rows)

	// Step 8: verify recap ordering against locally computed averages.
	if err := verifyRecap(ctx, rows, expected, config.Verbose); err != nil {
		return fmt.Errorf("recap verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	logger.Get().Info(ctx, "seed run completed successfully")
	return nil
}

// registerJudges creates judge access keys through the admin client and
// returns an authenticated client per judge.
func registerJudges(ctx context.Context, config *Config, admin *Client) ([]*Client, error) {
	judges := make([]*Client, 0, config.Judges)
	for i := 0; i < config.Judges; i++ {
		secret := generateJudgeKey(i)
		label := fmt.Sprintf("Juri %d", i+1)
		if _, err := admin.CreateKey(ctx, secret, label, label); err != nil {
			return nil, fmt.Errorf("judge key creation failed: %w", err)
		}

		judge := newClient(config.BaseURL, config.Timeout)
		if _, err := judge.Login(ctx, secret); err != nil {
			return nil, fmt.Errorf("judge login failed: %w", err)
		}
		judges = append(judges, judge)
	}
	logger.Get().Info(ctx, "judges registered", logger.Int("count", len(judges)))
	return judges, nil
}

// scoreAndFinalize pushes every judge's scores for every student through
// a worker pool, finalizes each student, and returns the locally computed
// expected averages keyed by student id.
func scoreAndFinalize(ctx context.Context, config *Config, judges []*Client, roster []student, criteria []criterion, stats *Stats) (map[string]float64, error) {
	var (
		submitted int64
		failed    int64
		finalized int64
		finFailed int64
	)

	expected := make(map[string]float64, len(roster))
	var expectedMu sync.Mutex

	indexChan := make(chan int, config.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for idx := range indexChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				st := roster[idx]
				perJudge := make([]map[string]float64, 0, len(judges))
				ok := true
				for _, judge := range judges {
					scores := generateScores(criteria)
					if err := judge.UpsertScores(ctx, st.ID, scores); err != nil {
						atomic.AddInt64(&failed, 1)
						ok = false
						if config.Verbose {
							logger.Get().Warn(ctx, "score submission failed",
								logger.String("studentID", st.ID),
								logger.Error(err))
						}
						continue
					}
					atomic.AddInt64(&submitted, 1)
					perJudge = append(perJudge, scores)
				}

				if !ok || len(perJudge) == 0 {
					continue
				}

				if _, err := judges[0].Finalize(ctx, st.ID); err != nil {
					atomic.AddInt64(&finFailed, 1)
					if config.Verbose {
						logger.Get().Warn(ctx, "finalize failed",
							logger.String("studentID", st.ID),
							logger.Error(err))
					}
					continue
				}
				atomic.AddInt64(&finalized, 1)

				avg := weightedAverage(criteria, perJudge)
				expectedMu.Lock()
				expected[st.ID] = avg
				expectedMu.Unlock()
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := range roster {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()

	stats.ScoresSubmitted = int(atomic.LoadInt64(&submitted))
	stats.ScoresFailed = int(atomic.LoadInt64(&failed))
	stats.Finalized = int(atomic.LoadInt64(&finalized))
	stats.FinalizeFailed = int(atomic.LoadInt64(&finFailed))

	logger.Get().Info(ctx, "scoring completed",
		logger.Int("submitted", stats.ScoresSubmitted),
		logger.Int("failed", stats.ScoresFailed),
		logger.Int("finalized", stats.Finalized),
		logger.Int("finalizeFailed", stats.FinalizeFailed))

	if stats.Finalized == 0 {
		return nil, fmt.Errorf("no students were finalized")
	}
	return expected, nil
}

// weightedAverage mirrors the service's aggregation: per criterion, the
// mean across judges, then the weight-normalized average.
func weightedAverage(criteria []criterion, perJudge []map[string]float64) float64 {
	var weightedSum, totalWeight float64
	for _, c := range criteria {
		var sum float64
		var count int
		for _, scores := range perJudge {
			if v, ok := scores[c.ID]; ok {
				sum += v
				count++
			}
		}
		if count == 0 {
			continue
		}
		weightedSum += (sum / float64(count)) * c.Weight
		totalWeight += c.Weight
	}
	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}

// awaitRecap polls the recap endpoint until it reflects every finalized
// student or the wait budget runs out.
func awaitRecap(ctx context.Context, admin *Client, eventID string, want int) ([]recapRow, error) {
	deadline := time.Now().Add(recapWaitBudget)
	for {
		rows, err := admin.Recap(ctx, eventID, 0)
		if err != nil {
			return nil, err
		}
		if len(rows) >= want || time.Now().After(deadline) {
			return rows, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(recapPollInterval):
		}
	}
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.ScoresSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("studentsCreated", stats.StudentsCreated),
		logger.Int("scoresSubmitted", stats.ScoresSubmitted),
		logger.Int("scoresFailed", stats.ScoresFailed),
		logger.Int("finalized", stats.Finalized),
		logger.Int("finalizeFailed", stats.FinalizeFailed),
		logger.Int("recapRows", stats.RecapRows),
		logger.Duration("duration", stats.Duration),
		logger.Float64("scoresPerSecond", perSecond))
}
