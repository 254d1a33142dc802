package research

import (
	"fmt"
	"strings"

	"briefly/backend/internal/scrape"
)

func buildDecisionPrompt(run RunSummary) string {
	var b strings.Builder
	b.WriteString("You direct an agent that researches news sources for a topic. Respond with strict JSON only.\n")
	b.WriteString("Schema: {\"action\":\"SEARCH|FINISH\",\"query\":string,\"reason\":string}\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Choose SEARCH with a fresh, specific query when more quality sources are likely to exist.\n")
	b.WriteString("- Never repeat a previous query.\n")
	b.WriteString("- Choose FINISH when coverage is good enough or further searches look unproductive.\n")
	b.WriteString("\nTopic:\n")
	b.WriteString(strings.TrimSpace(run.Topic))
	b.WriteString("\n")
	if len(run.Sources) > 0 {
		b.WriteString("\nValidated sources so far:\n")
		for _, source := range run.Sources {
			b.WriteString(fmt.Sprintf("- %s (relevance %d/10)\n", source.Name, source.RelevanceScore))
		}
	} else {
		b.WriteString("\nValidated sources so far: none\n")
	}
	if len(run.AttemptedQueries) > 0 {
		b.WriteString("\nQueries already attempted:\n")
		for _, query := range run.AttemptedQueries {
			b.WriteString("- ")
			b.WriteString(query)
			b.WriteString("\n")
		}
	}
	b.WriteString(fmt.Sprintf("\nBudget: step %d of %d\n", run.StepsTaken, run.MaxSteps))
	return strings.TrimSpace(b.String())
}

func buildRelevancePrompt(topic string, articles []scrape.Article) string {
	var b strings.Builder
	b.WriteString("You judge whether a news site is a good source for a topic. Respond with strict JSON only.\n")
	b.WriteString("Schema: {\"score\":number,\"reason\":string}\n")
	b.WriteString("Score 0-10 where 10 means the site regularly publishes quality coverage of the topic.\n")
	b.WriteString("\nTopic:\n")
	b.WriteString(strings.TrimSpace(topic))
	b.WriteString("\n\nRecent articles from the site:\n")
	for i, article := range articles {
		if i >= 5 {
			break
		}
		b.WriteString(fmt.Sprintf("- %s", strings.TrimSpace(article.Title)))
		if summary := strings.TrimSpace(article.Summary); summary != "" {
			b.WriteString(": ")
			b.WriteString(trimToRunes(summary, 280))
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
