package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// HeuristicPlanner is the zero-credential strategy: two fixed search
// passes, then stop.
type HeuristicPlanner struct{}

func (HeuristicPlanner) Decide(_ context.Context, run RunSummary) Decision {
	switch {
	case len(run.AttemptedQueries) == 0:
		return Decision{
			Action: ActionSearch,
			Query:  fmt.Sprintf("best news sites %s", run.Topic),
			Reason: "no queries attempted yet",
		}
	case len(run.Sources) < 3 && run.StepsTaken < 2:
		return Decision{
			Action: ActionSearch,
			Query:  fmt.Sprintf("%s news analysis", run.Topic),
			Reason: "broadening coverage",
		}
	default:
		return Decision{Action: ActionFinish, Reason: "heuristic limit"}
	}
}

// OraclePlanner asks the LLM for the next step. Any oracle error or
// malformed decision collapses to FINISH so a bad oracle can never
// keep the loop alive.
type OraclePlanner struct {
	responder PromptResponder
	attempted map[string]struct{}
}

func NewOraclePlanner(responder PromptResponder) *OraclePlanner {
	return &OraclePlanner{responder: responder, attempted: make(map[string]struct{})}
}

func (p *OraclePlanner) Decide(ctx context.Context, run RunSummary) Decision {
	if p.responder == nil {
		return Decision{Action: ActionFinish, Reason: "planner oracle unavailable"}
	}

	raw, err := p.responder.GenerateJSON(ctx, buildDecisionPrompt(run))
	if err != nil {
		return Decision{Action: ActionFinish, Reason: "planner oracle failed: " + trimToRunes(err.Error(), 120)}
	}
	decision, err := parseDecision(raw)
	if err != nil {
		return Decision{Action: ActionFinish, Reason: "planner response unusable: " + trimToRunes(err.Error(), 120)}
	}

	if decision.Action == ActionSearch {
		key := strings.ToLower(decision.Query)
		if _, repeated := p.attempted[key]; repeated {
			return Decision{Action: ActionFinish, Reason: "planner repeated a query"}
		}
		p.attempted[key] = struct{}{}
	}
	return decision
}

func parseDecision(raw string) (Decision, error) {
	jsonRaw := extractJSONBlock(raw)
	if jsonRaw == "" {
		return Decision{}, errors.New("decision did not include json")
	}

	var decision Decision
	if err := json.Unmarshal([]byte(jsonRaw), &decision); err != nil {
		return Decision{}, err
	}
	decision.Action = Action(strings.ToUpper(strings.TrimSpace(string(decision.Action))))
	decision.Query = strings.Join(strings.Fields(decision.Query), " ")
	decision.Reason = strings.TrimSpace(decision.Reason)

	switch decision.Action {
	case ActionFinish:
		return decision, nil
	case ActionSearch:
		if decision.Query == "" {
			return Decision{}, errors.New("SEARCH decision missing query")
		}
		return decision, nil
	default:
		return Decision{}, fmt.Errorf("unknown action %q", decision.Action)
	}
}
