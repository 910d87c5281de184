package controller

import (
	"encoding/json"
	"habit_coach_backend/internal/service"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartProgramAndOverview(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPost, "/api/progress/start", 0, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/progress/start", 1, jsonBody{"startDate": "10/03/2025"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.startProgram(t, 1, "2025-03-01")

	w, env := s.do(t, http.MethodGet, "/api/progress?today=2025-03-10", 1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var overview service.ProgressOverview
	require.NoError(t, json.Unmarshal(env.Data, &overview))
	assert.True(t, overview.Started)
	assert.Equal(t, 10, overview.UnlockedDay)
	assert.Equal(t, "2025-03-01", overview.Progress.SubscriptionStart.String())

	w, _ = s.do(t, http.MethodGet, "/api/progress?today=tomorrow", 1, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStartProgramDateWindow(t *testing.T) {
	s := newTestServer(t)

	for i, start := range []string{"2025-03-08", "2000-01-01", "2025-03-12"} {
		w, env := s.do(t, http.MethodPost, "/api/progress/start", uint(10+i), jsonBody{"startDate": start})
		assert.Equal(t, http.StatusBadRequest, w.Code, start)
		assert.Equal(t, "invalid date, expected YYYY-MM-DD", env.Message)
	}

	w, env := s.do(t, http.MethodPost, "/api/progress/start?today=2025-03-11", 1, jsonBody{"startDate": "2025-03-11"})
	require.Equal(t, http.StatusOK, w.Code)
	var overview service.ProgressOverview
	require.NoError(t, json.Unmarshal(env.Data, &overview))
	assert.Equal(t, "2025-03-11", overview.Today.String())
	assert.Equal(t, "2025-03-11", overview.Progress.SubscriptionStart.String())
	assert.Equal(t, 1, overview.UnlockedDay)

	_, env = s.do(t, http.MethodGet, "/api/progress?today=2025-03-11", 1, nil)
	require.NoError(t, json.Unmarshal(env.Data, &overview))
	assert.Equal(t, "2025-03-11", overview.Progress.SubscriptionStart.String())
	assert.Equal(t, 1, overview.UnlockedDay)
}

func TestStartProgramWithoutBodyUsesToday(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodPost, "/api/progress/start", 3, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var overview service.ProgressOverview
	require.NoError(t, json.Unmarshal(env.Data, &overview))
	assert.Equal(t, "2025-03-10", overview.Progress.SubscriptionStart.String())
	assert.Equal(t, 1, overview.UnlockedDay)
}
