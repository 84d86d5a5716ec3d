package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"diveanalytics-backend/internal/chrono"
	"diveanalytics-backend/internal/config"
	"diveanalytics-backend/internal/divemeets"
	"diveanalytics-backend/internal/divemeets/divemeetstest"
	"diveanalytics-backend/internal/importer"
	"diveanalytics-backend/internal/keys"
	"diveanalytics-backend/internal/profile"
	"diveanalytics-backend/internal/store"
	"diveanalytics-backend/internal/telemetry"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, site *divemeetstest.Site, tel telemetry.API) *Service {
	t.Helper()
	cfg := config.Default()
	cfg.Site.BaseURL = site.BaseURL()
	client, err := divemeets.NewClient(cfg.Site, tel, nil)
	require.NoError(t, err)

	s, err := store.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	deriver := keys.NewDeriver(0)
	clock := chrono.FixedTime{At: time.Date(2024, time.March, 16, 12, 0, 0, 0, time.UTC)}
	return NewService(
		divemeets.NewScraper(client, cfg.Pool, tel),
		importer.NewEngine(s, deriver, clock, tel),
		profile.NewReader(s, deriver),
		tel,
	)
}

func workers(n int) *int {
	return &n
}

func TestImportScenario(t *testing.T) {
	svc := newTestService(t, divemeetstest.NewSite(t), telemetry.SetupForTesting(t))

	res := svc.Import(context.Background(), Invocation{})
	require.Equal(t, http.StatusOK, res.StatusCode)

	body, ok := res.Body.(ImportBody)
	require.True(t, ok)
	require.Equal(t, "Competition data imported and stored successfully", body.Message)
	require.Equal(t, 2, body.TotalDivers)
	require.Equal(t, 2, body.SuccessfulDivers)
	require.Equal(t, 0, body.ErrorDivers)
	require.Equal(t, importer.Counts{
		Divers:       2,
		Competitions: 1,
		Results:      1,
		Dives:        3,
	}, body.StorageCounts)
	require.Len(t, body.Data, 2)
}

func TestImportCountsFailedDivers(t *testing.T) {
	site := divemeetstest.NewSite(t,
		divemeetstest.WithRoster(`<html><body>
<a href="profile.php?number=101">Jane Doe</a>
<a href="profile.php?number=102">John Roe</a>
<a href="profile.php?number=103">Failing Diver</a>
</body></html>`),
		divemeetstest.WithFailingProfiles(103),
	)
	svc := newTestService(t, site, telemetry.SetupForTesting(t))

	res := svc.Import(context.Background(), Invocation{MaxWorkers: workers(2)})
	require.Equal(t, http.StatusOK, res.StatusCode)

	body := res.Body.(ImportBody)
	require.Equal(t, 3, body.TotalDivers)
	require.Equal(t, 2, body.SuccessfulDivers)
	require.Equal(t, 1, body.ErrorDivers)
	require.Equal(t, 2, body.StorageCounts.Divers)
	require.Equal(t, 1, body.StorageCounts.Errors)
}

func TestImportFailures(t *testing.T) {
	cases := []struct {
		name string
		site []divemeetstest.Option
		inv  Invocation
	}{
		{
			name: "empty roster",
			site: []divemeetstest.Option{divemeetstest.WithRoster(`<p>nobody</p>`)},
		},
		{
			name: "zero workers",
			inv:  Invocation{MaxWorkers: workers(0)},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(t, divemeetstest.NewSite(t, tc.site...), telemetry.SetupForTesting(t))

			res := svc.Import(context.Background(), tc.inv)
			require.Equal(t, http.StatusInternalServerError, res.StatusCode)
			body, ok := res.Body.(ErrorBody)
			require.True(t, ok)
			require.Equal(t, "Failed to import competition data", body.Message)
			require.NotEmpty(t, body.Error)
		})
	}
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	tel, err := telemetry.NewPrometheusAPI(telemetry.SetupForTesting(t), reg)
	require.NoError(t, err)
	svc := newTestService(t, divemeetstest.NewSite(t), tel)

	server := httptest.NewServer(svc.Handler(reg))
	t.Cleanup(server.Close)

	get := func(path string) (int, string) {
		res, err := http.Get(server.URL + path)
		require.NoError(t, err)
		defer res.Body.Close()
		contents, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		return res.StatusCode, string(contents)
	}

	status, _ := get("/api/divers/101")
	require.Equal(t, http.StatusNotFound, status)

	res, err := http.Post(server.URL+"/api/import", "application/json", strings.NewReader(`{"max_workers": 2}`))
	require.NoError(t, err)
	var imported struct {
		TotalDivers   int             `json:"total_divers"`
		StorageCounts importer.Counts `json:"storage_counts"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&imported))
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, 2, imported.TotalDivers)
	require.Equal(t, 3, imported.StorageCounts.Dives)

	status, contents := get("/api/divers")
	require.Equal(t, http.StatusOK, status)
	var divers []struct {
		DiverID int    `json:"diver_id"`
		Name    string `json:"name"`
	}
	require.NoError(t, json.Unmarshal([]byte(contents), &divers))
	require.Len(t, divers, 2)
	require.Equal(t, 101, divers[0].DiverID)
	require.Equal(t, "Jane Doe", divers[0].Name)

	status, contents = get("/api/divers/101")
	require.Equal(t, http.StatusOK, status)
	var diver struct {
		Name    string `json:"name"`
		Results []struct {
			CompetitionID string `json:"competition_id"`
			Dives         []struct {
				Code string `json:"code"`
			} `json:"dives"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(contents), &diver))
	require.Equal(t, "Jane Doe", diver.Name)
	require.Len(t, diver.Results, 1)
	require.Equal(t, "SPRING_INVITE_20240315", diver.Results[0].CompetitionID)
	require.Len(t, diver.Results[0].Dives, 3)
	require.Equal(t, "103B", diver.Results[0].Dives[0].Code)

	status, _ = get("/api/divers/abc")
	require.Equal(t, http.StatusBadRequest, status)

	status, contents = get("/metrics")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, contents, "divemeets_count")
}

func TestHandlerRejectsMalformedBody(t *testing.T) {
	svc := newTestService(t, divemeetstest.NewSite(t), telemetry.SetupForTesting(t))
	server := httptest.NewServer(svc.Handler(prometheus.NewRegistry()))
	t.Cleanup(server.Close)

	res, err := http.Post(server.URL+"/api/import", "application/json", strings.NewReader(`{"max_workers":`))
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}
