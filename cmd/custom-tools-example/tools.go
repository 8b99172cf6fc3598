package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ZhuLinsen/MiniAgent/pkg/tools"
)

type fibonacciArgs struct {
	N int `json:"n" jsonschema:"description=The position in the sequence (starting from 0)"`
}

// newFibonacciTool - схема аргументов строится из структуры.
func newFibonacciTool() (tools.Tool, error) {
	return tools.NewFunc("fibonacci_calculator",
		"Calculate the nth Fibonacci number (starting from 0)",
		func(_ context.Context, args fibonacciArgs) (any, error) {
			if args.N > 92 {
				return nil, fmt.Errorf("n=%d overflows int64, max is 92", args.N)
			}
			fmt.Printf("[Tool Call] Calculating %dth Fibonacci number\n", args.N)
			return fibonacci(args.N), nil
		})
}

func fibonacci(n int) int64 {
	if n <= 0 {
		return 0
	}
	var a, b int64 = 0, 1
	for i := 2; i <= n; i++ {
		a, b = b, a+b
	}
	return b
}

// newTextAnalyzerTool - схема из явного списка параметров.
func newTextAnalyzerTool() (tools.Tool, error) {
	return tools.NewDynamic("text_analyzer",
		"Analyze text content for character count, word count, sentence count and common words",
		[]tools.Param{
			{Name: "text", Type: tools.TypeString, Description: "The text content to analyze", Required: true},
			{Name: "top", Type: tools.TypeInteger, Description: "How many common words to return", Default: 5},
		},
		func(_ context.Context, args tools.Args) (any, error) {
			text := args.String("text", "")
			fmt.Printf("[Tool Call] Analyzing text: %s\n", truncate(text, 50))
			return analyzeText(text, args.Int("top", 5)), nil
		})
}

// TextStats - результат text_analyzer.
type TextStats struct {
	CharacterCount int            `json:"character_count"`
	WordCount      int            `json:"word_count"`
	SentenceCount  int            `json:"sentence_count"`
	CommonWords    map[string]int `json:"common_words"`
}

func analyzeText(text string, top int) TextStats {
	words := strings.Fields(text)

	sentences := 0
	for _, s := range strings.Split(text, ".") {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}

	freq := make(map[string]int)
	for _, w := range words {
		w = strings.Trim(strings.ToLower(w), ".,!?")
		if w != "" {
			freq[w]++
		}
	}

	keys := make([]string, 0, len(freq))
	for w := range freq {
		keys = append(keys, w)
	}
	sort.Slice(keys, func(i, j int) bool {
		if freq[keys[i]] != freq[keys[j]] {
			return freq[keys[i]] > freq[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if top > 0 && len(keys) > top {
		keys = keys[:top]
	}

	common := make(map[string]int, len(keys))
	for _, w := range keys {
		common[w] = freq[w]
	}

	return TextStats{
		CharacterCount: len([]rune(text)),
		WordCount:      len(words),
		SentenceCount:  sentences,
		CommonWords:    common,
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
