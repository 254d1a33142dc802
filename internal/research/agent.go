package research

import (
	"context"
	"fmt"
	"time"
)

// Agent drives the research loop for one topic at a time. All shared
// run state is mutated only by the driver goroutine; concurrent
// validations hand their verdicts back over a channel.
type Agent struct {
	cfg      Settings
	searcher Searcher
	scraper  Scraper
	oracle   PromptResponder
}

// NewAgent wires a run configuration to its collaborators. A nil
// oracle selects the heuristic planner and scorer for every run.
func NewAgent(cfg Settings, searcher Searcher, scraper Scraper, oracle PromptResponder) *Agent {
	return &Agent{
		cfg:      cfg.normalized(),
		searcher: searcher,
		scraper:  scraper,
		oracle:   oracle,
	}
}

// ResearchTopic starts a run and returns its event stream. The stream
// always ends with exactly one terminal event, result or error, and
// closes afterwards. Cancelling ctx stops the run; the scraper is
// released on every exit path.
func (a *Agent) ResearchTopic(ctx context.Context, topic string) <-chan Event {
	events := make(chan Event)
	go a.run(ctx, topic, events)
	return events
}

type runState struct {
	topic            string
	foundSources     []ValidatedSource
	attemptedQueries []string
	stepsTaken       int
	seenDomains      map[string]struct{}
}

func (r *runState) summary(maxSteps int) RunSummary {
	return RunSummary{
		Topic:            r.topic,
		Sources:          r.foundSources,
		AttemptedQueries: r.attemptedQueries,
		StepsTaken:       r.stepsTaken,
		MaxSteps:         maxSteps,
	}
}

func (a *Agent) run(ctx context.Context, topic string, events chan<- Event) {
	defer close(events)
	defer a.scraper.Close()

	emit := func(event Event) bool {
		select {
		case events <- event:
			return true
		case <-ctx.Done():
			return false
		}
	}
	logf := func(format string, args ...any) bool {
		return emit(Event{Type: EventLog, Data: fmt.Sprintf(format, args...)})
	}

	run := &runState{topic: topic, seenDomains: make(map[string]struct{})}
	loopErr := a.loop(ctx, run, logf)

	switch {
	case loopErr != nil:
		emit(Event{Type: EventError, Data: trimToRunes(loopErr.Error(), 500)})
	case len(run.foundSources) > 0:
		emit(Event{Type: EventResult, Data: ResultPayload{
			Topic:     topic,
			Sources:   run.foundSources,
			CreatedAt: time.Now().UTC(),
		}})
	default:
		emit(Event{Type: EventError, Data: "No sources found"})
	}
}

func (a *Agent) loop(ctx context.Context, run *runState, logf func(string, ...any) bool) (err error) {
	// Nothing below the loop is supposed to escape; a panic here is a
	// genuine bug and becomes the run's single error event.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("research loop: %v", r)
		}
	}()

	var planner Planner = HeuristicPlanner{}
	var scorer Scorer = HeuristicScorer{}
	if a.oracle != nil {
		planner = NewOraclePlanner(a.oracle)
		scorer = NewOracleScorer(a.oracle)
	}
	validator := NewValidator(a.cfg, a.scraper, scorer)

	if !logf("Researching news sources for %q", run.topic) {
		return ctx.Err()
	}

	for run.stepsTaken < a.cfg.MaxSteps {
		decision := planner.Decide(ctx, run.summary(a.cfg.MaxSteps))
		if decision.Action != ActionSearch {
			logf("Finishing research: %s", decision.Reason)
			return nil
		}

		run.stepsTaken++
		run.attemptedQueries = append(run.attemptedQueries, decision.Query)
		if !logf("Step %d/%d: searching %q", run.stepsTaken, a.cfg.MaxSteps, decision.Query) {
			return ctx.Err()
		}

		results := a.searcher.Search(ctx, decision.Query, a.cfg.CandidatesPerSearch)
		candidates := FilterCandidates(results, run.seenDomains)
		if len(candidates) > a.cfg.CandidatesPerSearch {
			candidates = candidates[:a.cfg.CandidatesPerSearch]
		}
		if len(candidates) == 0 {
			if !logf("No new candidate domains for %q", decision.Query) {
				return ctx.Err()
			}
			continue
		}

		if !logf("Validating %d candidate sources", len(candidates)) {
			return ctx.Err()
		}

		verdicts := make(chan Verdict, len(candidates))
		for _, candidate := range candidates {
			candidate := candidate
			go func() {
				verdicts <- validator.Validate(ctx, candidate, run.topic)
			}()
		}
		for range candidates {
			verdict := <-verdicts
			if !verdict.Valid {
				if !logf("Rejected %s: %s", verdict.Name, verdict.Reason) {
					return ctx.Err()
				}
				continue
			}
			run.foundSources = append(run.foundSources, verdict.Source)
			line := fmt.Sprintf("Validated %s: relevance %d/10", verdict.Name, verdict.Source.RelevanceScore)
			if verdict.Note != "" {
				line += " (" + verdict.Note + ")"
			}
			if !logf("%s", line) {
				return ctx.Err()
			}
		}

		// The cap check runs once after the whole batch resolves, so a
		// batch can overshoot and gets truncated here.
		if len(run.foundSources) >= a.cfg.MaxSources {
			run.foundSources = run.foundSources[:a.cfg.MaxSources]
			logf("Found %d sources, finishing early", len(run.foundSources))
			return nil
		}

		if !logf("Progress: %d of %d sources found", len(run.foundSources), a.cfg.MaxSources) {
			return ctx.Err()
		}
	}

	logf("Step limit reached after %d steps", run.stepsTaken)
	return nil
}
