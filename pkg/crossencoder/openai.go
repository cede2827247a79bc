package crossencoder

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIRerankerClient implements cross-encoder functionality using OpenAI's API.
// This reranker runs a simple boolean classifier prompt concurrently for each
// passage. Log-probabilities of the True/False token are used to rank the
// passages.
type OpenAIRerankerClient struct {
	client    *openai.Client
	config    Config
	semaphore chan struct{} // Controls concurrency
}

// NewOpenAIRerankerClient creates a new OpenAI-based reranker client
func NewOpenAIRerankerClient(config Config) *OpenAIRerankerClient {
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 10
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIRerankerClient{
		client:    openai.NewClientWithConfig(clientConfig),
		config:    config,
		semaphore: make(chan struct{}, config.MaxConcurrency),
	}
}

// Rank ranks the given passages based on their relevance to the query
func (c *OpenAIRerankerClient) Rank(ctx context.Context, query string, passages []string) ([]RankedPassage, error) {
	if len(passages) == 0 {
		return []RankedPassage{}, nil
	}

	// Create a slice to hold results with original indices
	type passageResult struct {
		passage string
		score   float64
		index   int
		err     error
	}

	results := make([]passageResult, len(passages))
	var wg sync.WaitGroup

	// Process passages concurrently with semaphore for rate limiting
	for i, passage := range passages {
		wg.Add(1)
		go func(idx int, p string) {
			defer wg.Done()

			// Acquire semaphore
			c.semaphore <- struct{}{}
			defer func() { <-c.semaphore }()

			score, err := c.scorePassage(ctx, query, p)
			results[idx] = passageResult{
				passage: p,
				score:   score,
				index:   idx,
				err:     err,
			}
		}(i, passage)
	}

	wg.Wait()

	// Check for errors and collect successful results
	var rankedPassages []RankedPassage
	for _, result := range results {
		if result.err != nil {
			return nil, fmt.Errorf("error scoring passage %d: %w", result.index, result.err)
		}
		rankedPassages = append(rankedPassages, RankedPassage{
			Passage: result.passage,
			Score:   result.score,
		})
	}

	// Sort by score descending
	sort.Slice(rankedPassages, func(i, j int) bool {
		return rankedPassages[i].Score > rankedPassages[j].Score
	})

	return rankedPassages, nil
}

// scorePassage scores a single passage against the query using the
// log-probability of the classifier's True/False answer.
func (c *OpenAIRerankerClient) scorePassage(ctx context.Context, query, passage string) (float64, error) {
	response, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an expert tasked with determining whether the passage is relevant to the query",
			},
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(`Respond with "True" if PASSAGE is relevant to QUERY and "False" otherwise.
<PASSAGE>
%s
</PASSAGE>
<QUERY>
%s
</QUERY>`, passage, query),
			},
		},
		MaxTokens:   1,
		Temperature: 0,
		LogProbs:    true,
		TopLogProbs: 2,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get response: %w", err)
	}

	if len(response.Choices) == 0 {
		return 0, fmt.Errorf("no choices returned")
	}
	choice := response.Choices[0]

	if choice.LogProbs != nil && len(choice.LogProbs.Content) > 0 {
		token := choice.LogProbs.Content[0]
		probability := math.Exp(token.LogProb)
		if strings.EqualFold(strings.TrimSpace(token.Token), "true") {
			return probability, nil
		}
		return 1 - probability, nil
	}

	// Without logprobs, fall back to the answer text itself.
	if strings.EqualFold(strings.TrimSpace(choice.Message.Content), "true") {
		return 1, nil
	}
	return 0, nil
}

// Close cleans up any resources used by the client
func (c *OpenAIRerankerClient) Close() error {
	return nil
}
