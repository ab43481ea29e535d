package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"recordadmin/internal/admin"
	"recordadmin/internal/catalog"
	"recordadmin/internal/config"
	"recordadmin/internal/database"
	"recordadmin/internal/handlers"
	"recordadmin/internal/metrics"
	"recordadmin/internal/models"
	"recordadmin/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testApp struct {
	db     *gorm.DB
	router *gin.Engine
}

type brokenAuditor struct{}

func (brokenAuditor) Record(context.Context, admin.AuditEntry) error {
	return errors.New("history table unavailable")
}

func newTestApp(t *testing.T) *testApp {
	return newTestAppWithAuditor(t, nil)
}

// newTestAppWithAuditor: журнал читается из таблицы, а пишется через auditor, если он задан.
func newTestAppWithAuditor(t *testing.T, auditor admin.Auditor) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenMemory()
	require.NoError(t, err)
	reg, err := catalog.Build(db, config.AdminOverrides{})
	require.NoError(t, err)

	sink := database.NewHistorySink(db)
	if auditor == nil {
		auditor = sink
	}
	editor := admin.NewEditor(db, reg, admin.WithAuditor(auditor))
	m := metrics.New()
	h := handlers.New(editor, sink, m, zap.NewNop())

	cfg := &config.Config{SessionSecret: "test-secret"}
	r, err := server.NewRouter(cfg, server.Deps{Handler: h, Metrics: m, Logger: zap.NewNop()})
	require.NoError(t, err)

	return &testApp{db: db, router: r}
}

func (a *testApp) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) createPlayer(t *testing.T, name string, number int) models.Player {
	t.Helper()
	p := models.Player{Name: name, Number: number}
	require.NoError(t, a.db.Create(&p).Error)
	return p
}

func idStr(id uint) string { return strconv.FormatUint(uint64(id), 10) }

func TestShowEdit(t *testing.T) {
	app := newTestApp(t)
	p := app.createPlayer(t, "Jeter", 2)

	w := app.do(http.MethodGet, "/admin/player/"+idStr(p.ID)+"/edit", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `action="/admin/player/`+idStr(p.ID)+`"`)
	assert.Contains(t, body, `name="_method" value="put"`)
	assert.Contains(t, body, `name="player[name]"`)
	assert.Contains(t, body, `value="Jeter"`)
	assert.Contains(t, body, "Save and edit")
}

func TestShowEdit_NotFound(t *testing.T) {
	app := newTestApp(t)

	assert.Equal(t, http.StatusNotFound, app.do(http.MethodGet, "/admin/player/999/edit", nil).Code)
	assert.Equal(t, http.StatusNotFound, app.do(http.MethodGet, "/admin/spaceship/1/edit", nil).Code)
}

func TestUpdateRecord_SaveRedirectsToIndex(t *testing.T) {
	app := newTestApp(t)
	p := app.createPlayer(t, "Jeter", 2)

	w := app.do(http.MethodPut, "/admin/player/"+idStr(p.ID), url.Values{
		"player[name]":     {"Jackie Robinson"},
		"player[position]": {"Second baseman"},
		"_save":            {"Save"},
	})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/player", w.Header().Get("Location"))

	var got models.Player
	require.NoError(t, app.db.First(&got, p.ID).Error)
	assert.Equal(t, "Jackie Robinson", got.Name)
	assert.Equal(t, "Second baseman", got.Position)

	var logs []models.History
	require.NoError(t, app.db.Where("table_name = ? AND item = ?", "players", p.ID).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "Changed name, Changed position", logs[0].Message)
}

func TestUpdateRecord_ContinueRedirectsToEdit(t *testing.T) {
	app := newTestApp(t)
	p := app.createPlayer(t, "Jeter", 2)

	w := app.do(http.MethodPost, "/admin/player/"+idStr(p.ID), url.Values{
		"_method":      {"put"},
		"player[name]": {"Jeter"},
		"_continue":    {"Save and edit"},
	})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/player/"+idStr(p.ID)+"/edit", w.Header().Get("Location"))

	// flash переживает редирект
	req := httptest.NewRequest(http.MethodGet, w.Header().Get("Location"), nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	w2 := httptest.NewRecorder()
	app.router.ServeHTTP(w2, req)
	require.Equal(t, http.StatusOK, w2.Code)
	assert.Contains(t, w2.Body.String(), "Player successfully updated")
}

func TestUpdateRecord_PostWithoutMethodOverride(t *testing.T) {
	app := newTestApp(t)
	p := app.createPlayer(t, "Jeter", 2)

	w := app.do(http.MethodPost, "/admin/player/"+idStr(p.ID), url.Values{"player[name]": {"x"}})
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestUpdateRecord_ValidationFailure(t *testing.T) {
	app := newTestApp(t)
	p := app.createPlayer(t, "Jeter", 2)

	w := app.do(http.MethodPut, "/admin/player/"+idStr(p.ID), url.Values{
		"player[name]":   {""},
		"player[number]": {"a"},
	})
	require.Equal(t, http.StatusNotAcceptable, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `action="/admin/player/`+idStr(p.ID)+`"`)
	assert.Contains(t, body, "Player failed to be updated")
	assert.Contains(t, body, "can&#39;t be blank")
	assert.Contains(t, body, "is not a number")

	var got models.Player
	require.NoError(t, app.db.First(&got, p.ID).Error)
	assert.Equal(t, "Jeter", got.Name)
}

func TestUpdateRecord_NotFound(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodPut, "/admin/player/999", url.Values{"player[name]": {"x"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateRecord_HasManyFromMultiselect(t *testing.T) {
	app := newTestApp(t)

	league := models.League{Name: "American"}
	require.NoError(t, app.db.Create(&league).Error)
	divs := []models.Division{{Name: "East", LeagueID: &league.ID}, {Name: "West"}}
	require.NoError(t, app.db.Create(&divs).Error)

	w := app.do(http.MethodPut, "/admin/league/"+idStr(league.ID), url.Values{
		"league[division_ids][]": {"", idStr(divs[1].ID)},
	})
	require.Equal(t, http.StatusFound, w.Code)

	var got models.League
	require.NoError(t, app.db.Preload("Divisions").First(&got, league.ID).Error)
	require.Len(t, got.Divisions, 1)
	assert.Equal(t, "West", got.Divisions[0].Name)

	w = app.do(http.MethodGet, "/admin/league/"+idStr(league.ID)+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Added Divisions #"+idStr(divs[1].ID)+" associations")
	assert.Contains(t, w.Body.String(), "Removed Divisions #"+idStr(divs[0].ID)+" associations")
}

func TestUpdateRecord_STIThroughParent(t *testing.T) {
	app := newTestApp(t)

	ball := models.Hardball{Ball: models.Ball{Type: "Hardball", Color: "red"}}
	require.NoError(t, app.db.Create(&ball).Error)
	param := idStr(ball.ID) + "-red"

	w := app.do(http.MethodGet, "/admin/ball/"+param+"/edit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/admin/ball/`+param+`"`)

	w = app.do(http.MethodPut, "/admin/ball/"+param, url.Values{"ball[color]": {"white"}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/ball", w.Header().Get("Location"))

	var got models.Ball
	require.NoError(t, app.db.First(&got, ball.ID).Error)
	assert.Equal(t, "white", got.Color)
	assert.Equal(t, "Hardball", got.Type)
}

func TestPages(t *testing.T) {
	app := newTestApp(t)
	app.createPlayer(t, "Jeter", 2)

	w := app.do(http.MethodGet, "/admin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `href="/admin/player"`)

	w = app.do(http.MethodGet, "/admin/player", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Jeter")

	w = app.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)
	p := app.createPlayer(t, "Jeter", 2)

	app.do(http.MethodGet, "/admin/player/"+idStr(p.ID)+"/edit", nil)
	app.do(http.MethodPut, "/admin/player/"+idStr(p.ID), url.Values{"player[name]": {"Rivera"}})

	w := app.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `admin_form_renders_total{model="player"} 1`)
	assert.Contains(t, body, `admin_record_updates_total{model="player",outcome="updated"} 1`)
	assert.Contains(t, body, `admin_history_entries_total{model="player"} 1`)
}

func TestUpdateRecord_SlugWithSlashRedirectsToWorkingEdit(t *testing.T) {
	app := newTestApp(t)
	ball := models.Ball{Color: "red"}
	require.NoError(t, app.db.Create(&ball).Error)

	w := app.do(http.MethodPut, "/admin/ball/"+idStr(ball.ID), url.Values{
		"ball[color]": {"navy/gold"},
		"_continue":   {"Save and edit"},
	})
	require.Equal(t, http.StatusFound, w.Code)
	loc := w.Header().Get("Location")
	assert.Equal(t, "/admin/ball/"+idStr(ball.ID)+"-navy%2Fgold/edit", loc)

	w = app.do(http.MethodGet, loc, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/admin/ball/`+idStr(ball.ID)+`-navy%2Fgold"`)
}

func TestMetrics_HistoryNotCountedWhenAuditFails(t *testing.T) {
	app := newTestAppWithAuditor(t, brokenAuditor{})
	p := app.createPlayer(t, "Jeter", 2)

	w := app.do(http.MethodPut, "/admin/player/"+idStr(p.ID), url.Values{"player[name]": {"Rivera"}})
	require.Equal(t, http.StatusFound, w.Code)

	w = app.do(http.MethodGet, "/metrics", nil)
	body := w.Body.String()
	assert.Contains(t, body, `admin_record_updates_total{model="player",outcome="updated"} 1`)
	assert.NotContains(t, body, `admin_history_entries_total{model="player"}`)
}
