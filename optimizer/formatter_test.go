package optimizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/teilomillet/promptstorm/document"
	"github.com/teilomillet/promptstorm/providers"
	"github.com/teilomillet/promptstorm/utils"
)

const fibonacciDoc = `name: fibonacci_calculator
version: '1.0'
description: >-
  Generates a function computing fibonacci numbers.
author: promptstorm
input_variables:
  language:
    type: string
    description: Programming language to use
    examples:
      - "Go"
      - "Python"
tags:
  - math
categories:
  - programming
content: >-
  Write a function in {{language}} that calculates fibonacci numbers.`

const brokenDoc = "name: fibonacci_calculator\nversion: '1.0'\ndescription: [unclosed\ncontent: x"

const frenchDoc = `name: "nom_du_prompt"
version: '1.0'
description: >-
  Une description claire
author: promptstorm
categories:
  - "categorie1"
content: >-
  Contenu du prompt original`

func newTestFormatter(t *testing.T, mp *providers.MockProvider, opts ...FormatterOption) *Formatter {
	t.Helper()
	f, err := NewFormatter(mp, testConfig(), nil, opts...)
	require.NoError(t, err)
	return f
}

func TestFormatFibonacciNoRepair(t *testing.T) {
	mp := providers.NewMockProvider()
	mp.SetMockResponse(fibonacciDoc)
	f := newTestFormatter(t, mp)

	out, err := f.Format(context.Background(), "Write a function that calculates fibonacci numbers")
	require.NoError(t, err)
	assert.Equal(t, fibonacciDoc, out)
	assert.Equal(t, 1, mp.CallCount())

	req := mp.Requests()[0]
	require.Len(t, req.Messages, 2)
	assert.Equal(t, providers.RoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "Use language: english")
	assert.Contains(t, req.Messages[1].Content, "Write a function that calculates fibonacci numbers")
	assert.Contains(t, req.Messages[1].Content, ExampleDocument)
	assert.NotContains(t, req.Messages[1].Content, ExamplePlaceholder)
	assert.NotContains(t, req.Messages[1].Content, LanguagePlaceholder)
}

func TestFormatStripsFences(t *testing.T) {
	mp := providers.NewMockProvider()
	mp.SetMockResponse("```yaml\n" + fibonacciDoc + "\n```\n")
	f := newTestFormatter(t, mp)

	out, err := f.Format(context.Background(), "fibonacci")
	require.NoError(t, err)
	assert.Equal(t, fibonacciDoc, out)
}

func TestFormatKeepsCodeBlockInContent(t *testing.T) {
	doc := "name: reply_format\nversion: '1.0'\ndescription: Replies with code\ncontent: |\n  Reply with:\n  ```\n  code\n  ```"
	mp := providers.NewMockProvider()
	mp.SetMockResponse(doc)
	f := newTestFormatter(t, mp)

	out, err := f.Format(context.Background(), "reply with code")
	require.NoError(t, err)
	assert.Equal(t, doc, out)
	assert.Equal(t, 1, mp.CallCount())
}

func TestFormatRepairsOnce(t *testing.T) {
	mp := providers.NewMockProvider()
	mp.SetResponses([]string{brokenDoc, "```yaml\n" + fibonacciDoc + "\n```"}, false)
	f := newTestFormatter(t, mp)

	out, err := f.Format(context.Background(), "fibonacci", WithModel("override-model"))
	require.NoError(t, err)
	assert.Equal(t, fibonacciDoc, out)
	require.Equal(t, 2, mp.CallCount())

	repair := mp.Requests()[1]
	assert.Equal(t, RepairTemperature, repair.Temperature)
	assert.Equal(t, "override-model", repair.Model)
	assert.Equal(t, repairSystemPrompt, repair.Messages[0].Content)
	assert.Contains(t, repair.Messages[1].Content, brokenDoc)
	assert.Contains(t, repair.Messages[1].Content, "Errors found:\nLine ")
}

func TestFormatRepairFailed(t *testing.T) {
	mp := providers.NewMockProvider()
	mp.SetResponses([]string{brokenDoc}, true)
	f := newTestFormatter(t, mp)

	_, err := f.Format(context.Background(), "fibonacci")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRepairFailed)
	assert.Equal(t, 2, mp.CallCount())

	var optErr *Error
	require.ErrorAs(t, err, &optErr)
	assert.Equal(t, ErrorTypeRepairFailed, optErr.Type)
	require.NotEmpty(t, optErr.Remaining)
	assert.Contains(t, err.Error(), optErr.Remaining[0].Message)
}

func TestFormatRepairMissingField(t *testing.T) {
	noName := "version: '1.0'\ndescription: d\ncontent: c"
	mp := providers.NewMockProvider()
	mp.SetResponses([]string{noName, noName}, false)
	f := newTestFormatter(t, mp)

	_, err := f.Format(context.Background(), "p")
	var optErr *Error
	require.ErrorAs(t, err, &optErr)
	require.Len(t, optErr.Remaining, 1)
	assert.Contains(t, optErr.Remaining[0].Message, "name")
	assert.Contains(t, mp.Requests()[1].Messages[1].Content, "missing required fields: name")
}

func TestFormatRequiredFields(t *testing.T) {
	withoutAuthor := "name: n\nversion: '1.0'\ndescription: d\ncontent: c"
	mp := providers.NewMockProvider()
	mp.SetResponses([]string{withoutAuthor, fibonacciDoc}, false)
	f := newTestFormatter(t, mp, WithRequiredFields("name", "version", "description", "content", "author"))

	out, err := f.Format(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, fibonacciDoc, out)
	assert.Equal(t, 2, mp.CallCount())
	assert.Contains(t, f.Validator().Required, "author")
}

func TestFormatGatewayErrors(t *testing.T) {
	mp := providers.NewMockProvider()
	mp.SetMockError(errors.New("Rate limit exceeded"))
	f := newTestFormatter(t, mp)

	_, err := f.Format(context.Background(), "p")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 1, mp.CallCount())

	mp.SetMockError(errors.New("bad gateway"))
	_, err = f.Format(context.Background(), "p")
	assert.ErrorIs(t, err, ErrCompletionFailed)
}

func isTranslation(req *providers.Request) bool {
	return strings.Contains(req.Messages[len(req.Messages)-1].Content, "values translated to")
}

func TestFormatTranslatesExampleOnce(t *testing.T) {
	mp := providers.NewMockProvider()
	mp.SetHandler(func(req *providers.Request) (string, error) {
		if isTranslation(req) {
			return "```yaml\n" + frenchDoc + "\n```", nil
		}
		return fibonacciDoc, nil
	})
	f, err := NewFormatter(mp, testConfig().WithLanguage("french"), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, mp.CallCount())

	for range 3 {
		_, err := f.Format(context.Background(), "p")
		require.NoError(t, err)
	}

	reqs := mp.Requests()
	require.Len(t, reqs, 4)
	assert.True(t, isTranslation(&reqs[0]))
	assert.Contains(t, reqs[0].Messages[0].Content, "translated to french")
	for _, req := range reqs[1:] {
		assert.False(t, isTranslation(&req))
		assert.Contains(t, req.Messages[1].Content, "nom_du_prompt")
		assert.Contains(t, req.Messages[0].Content, "Use language: french")
	}
}

func TestFormatTranslationFailureFallsBack(t *testing.T) {
	logger := (&utils.MockLogger{}).AllowAll()
	mp := providers.NewMockProvider()
	mp.SetHandler(func(req *providers.Request) (string, error) {
		if isTranslation(req) {
			return "", errors.New("translation backend down")
		}
		return fibonacciDoc, nil
	})
	f, err := NewFormatter(mp, testConfig().WithLanguage("german"), logger)
	require.NoError(t, err)

	for range 2 {
		out, err := f.Format(context.Background(), "p")
		require.NoError(t, err)
		assert.Equal(t, fibonacciDoc, out)
	}

	reqs := mp.Requests()
	require.Len(t, reqs, 4)
	assert.True(t, isTranslation(&reqs[0]))
	assert.Contains(t, reqs[1].Messages[1].Content, ExampleDocument)
	assert.True(t, isTranslation(&reqs[2]))
	assert.Equal(t, 2, logger.WarnCallCount)
}

func TestFormatAllPreservesOrder(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	prompts := []string{"alpha", "bravo", "charlie", "delta", "echo"}
	mp := providers.NewMockProvider()
	mp.SetHandler(func(req *providers.Request) (string, error) {
		for i, p := range prompts {
			if strings.Contains(req.Messages[1].Content, "```\n"+p+"\n```") {
				time.Sleep(time.Duration(len(prompts)-i) * 5 * time.Millisecond)
				return fmt.Sprintf("name: %s\nversion: '1.0'\ndescription: d\ncontent: c", p), nil
			}
		}
		return "", errors.New("unknown prompt")
	})
	f := newTestFormatter(t, mp)

	out, err := f.FormatAll(context.Background(), prompts, 3)
	require.NoError(t, err)
	require.Len(t, out, len(prompts))
	for i, p := range prompts {
		doc, err := document.Parse(out[i])
		require.NoError(t, err)
		assert.Equal(t, p, doc.Name)
	}
	assert.Equal(t, len(prompts), mp.CallCount())
}

func TestFormatAllFailure(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	mp := providers.NewMockProvider()
	mp.SetHandler(func(req *providers.Request) (string, error) {
		if strings.Contains(req.Messages[1].Content, "```\nbad\n```") {
			return "", errors.New("upstream exploded")
		}
		return fibonacciDoc, nil
	})
	f := newTestFormatter(t, mp)

	out, err := f.FormatAll(context.Background(), []string{"good", "bad", "good again"}, 0)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrCompletionFailed)
	assert.Contains(t, err.Error(), "prompt 2")
}
