// internal/ai/provider_test.go
package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuvrajgitacc/study-verse/internal/battle"
)

func completionServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte("upstream unhappy"))
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
}

func newTestClient(serverURL string) *Client {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewClient(serverURL, "test-key", "test-model", logger)
}

func TestGenerateProblem(t *testing.T) {
	content := "Here you go:\n```json\n" + `{"title":"Two Sum","description":"Find two numbers.","input_format":"n, then n ints","output_format":"two indices","example_input":"4\n2 7 11 15","example_output":"0 1"}` + "\n```"
	srv := completionServer(t, content, http.StatusOK)
	defer srv.Close()

	problem, err := newTestClient(srv.URL).GenerateProblem(context.Background(), battle.DifficultyEasy, battle.LangPython)
	require.NoError(t, err)
	assert.Equal(t, "Two Sum", problem.Title)
	assert.Equal(t, "0 1", problem.ExampleOutput)
}

func TestGenerateProblemRejectsMissingFields(t *testing.T) {
	srv := completionServer(t, `{"title":"No body"}`, http.StatusOK)
	defer srv.Close()

	_, err := newTestClient(srv.URL).GenerateProblem(context.Background(), battle.DifficultyEasy, battle.LangPython)
	assert.Error(t, err)
}

func TestGenerateProblemUpstreamError(t *testing.T) {
	srv := completionServer(t, "", http.StatusServiceUnavailable)
	defer srv.Close()

	_, err := newTestClient(srv.URL).GenerateProblem(context.Background(), battle.DifficultyHard, battle.LangJava)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestJudge(t *testing.T) {
	content := `The winner is clear. {"winner":"Alice","reason":"Cleaner solution.","scores":{"Alice":92,"Bob":70}}`
	srv := completionServer(t, content, http.StatusOK)
	defer srv.Close()

	entries := []battle.JudgeEntry{
		{PlayerID: uuid.New(), PlayerName: "Alice", Code: "a", TimeTakenSeconds: 20},
		{PlayerID: uuid.New(), PlayerName: "Bob", Code: "b", TimeTakenSeconds: 25},
	}
	verdict, err := newTestClient(srv.URL).Judge(context.Background(), battle.DefaultProblem("easy", "python"), entries)
	require.NoError(t, err)
	assert.Equal(t, "Alice", verdict.Winner)
	assert.Equal(t, 92.0, verdict.Scores["Alice"])
}

func TestJudgeRejectsEmptyWinner(t *testing.T) {
	srv := completionServer(t, `{"reason":"no idea"}`, http.StatusOK)
	defer srv.Close()

	_, err := newTestClient(srv.URL).Judge(context.Background(), battle.DefaultProblem("easy", "python"), nil)
	assert.Error(t, err)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding prose", `Sure! {"a":1} Hope that helps.`, `{"a":1}`},
		{"no object passes through", "nothing here", "nothing here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(extractJSON(tt.in)))
		})
	}
}
