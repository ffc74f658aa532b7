package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/othellochat/internal/api"
	"github.com/mcoot/othellochat/internal/api/apierr"
	"github.com/mcoot/othellochat/internal/api/response"
	"github.com/mcoot/othellochat/internal/factory"
	"github.com/mcoot/othellochat/internal/model"
	"github.com/mcoot/othellochat/internal/testutil"
)

type APITestSuite struct {
	suite.Suite
	app     *factory.TestApp
	handler http.Handler
	cancel  context.CancelFunc
	done    chan struct{}
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func (s *APITestSuite) SetupTest() {
	s.app = factory.NewTestApp()
	s.handler = api.NewRouter(api.RouterConfig{
		Logger:          testutil.NopLogger(),
		Loop:            s.app.Loop,
		Registry:        s.app.Registry,
		GameController:  s.app.GameController,
		ConnectionStats: s.app.Hub,
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		_ = s.app.Loop.Run(ctx)
	}()
}

func (s *APITestSuite) TearDownTest() {
	s.cancel()
	<-s.done
}

func (s *APITestSuite) onLoop(fn func(ctx context.Context) error) {
	s.Require().NoError(s.app.Loop.Call(context.Background(), fn))
}

func (s *APITestSuite) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func (s *APITestSuite) TestHealthCheck() {
	rr := s.get("/api/v1/health")

	s.Equal(http.StatusOK, rr.Code)
	s.JSONEq(`{"status":"ok"}`, rr.Body.String())
}

func (s *APITestSuite) TestStatsEmpty() {
	rr := s.get("/api/v1/stats")

	s.Equal(http.StatusOK, rr.Code)
	s.JSONEq(`{"players":0,"games":0,"rooms":0,"connections":0}`, rr.Body.String())
}

func (s *APITestSuite) TestStatsCountsPlayersAndGames() {
	s.onLoop(func(ctx context.Context) error {
		if _, err := s.app.Registry.Register(ctx, "a", "ann", model.LobbyRoom); err != nil {
			return err
		}
		if _, err := s.app.Registry.Register(ctx, "b", "bob", "abc"); err != nil {
			return err
		}
		_, err := s.app.GameController.EnsureGame(ctx, "abc")
		return err
	})

	rr := s.get("/api/v1/stats")

	s.Require().Equal(http.StatusOK, rr.Code)
	var stats response.Stats
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &stats))
	s.Equal(2, stats.Players)
	s.Equal(1, stats.Games)
}

func (s *APITestSuite) TestListGames() {
	s.onLoop(func(ctx context.Context) error {
		for _, id := range []model.GameID{"b2", "a1"} {
			if _, err := s.app.GameController.EnsureGame(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})

	rr := s.get("/api/v1/games")

	s.Equal(http.StatusOK, rr.Code)
	s.JSONEq(`{"games":["a1","b2"]}`, rr.Body.String())
}

func (s *APITestSuite) TestGetGame() {
	s.onLoop(func(ctx context.Context) error {
		_, err := s.app.GameController.EnsureGame(ctx, "abc")
		return err
	})

	rr := s.get("/api/v1/games/abc")

	s.Require().Equal(http.StatusOK, rr.Code)
	var game model.Game
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &game))
	s.Equal(model.GameID("abc"), game.ID)
	s.Equal(model.ColorBlack, game.WhoseTurn)
	s.Equal(model.CellBlack, game.LegalMoves[2][3])
	s.Equal(4, model.BoardSize*model.BoardSize-game.Board.EmptyCount())
}

func (s *APITestSuite) TestGetGameNotFound() {
	rr := s.get("/api/v1/games/missing")

	s.Equal(http.StatusNotFound, rr.Code)
	var resp apierr.ErrorResponse
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.Equal(apierr.CodeGameNotFound, resp.Error.Code)
}

func (s *APITestSuite) TestGetGameWhileLoopStopped() {
	s.cancel()
	<-s.done

	req := httptest.NewRequest(http.MethodGet, "/api/v1/games/abc", nil)
	ctx, cancel := context.WithCancel(req.Context())
	cancel()
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req.WithContext(ctx))

	s.Equal(http.StatusServiceUnavailable, rr.Code)

	// Restart so TearDownTest has a loop to stop
	loopCtx, loopCancel := context.WithCancel(context.Background())
	s.cancel = loopCancel
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		_ = s.app.Loop.Run(loopCtx)
	}()
}

func (s *APITestSuite) TestUnknownRoute() {
	rr := s.get("/api/v1/nope")
	s.Equal(http.StatusNotFound, rr.Code)
}

type brokenConnectionStats struct{}

func (brokenConnectionStats) Stats() (int, int) {
	panic("transport gone")
}

func (s *APITestSuite) TestPanicAnsweredWithInternalError() {
	handler := api.NewRouter(api.RouterConfig{
		Logger:          testutil.NopLogger(),
		Loop:            s.app.Loop,
		Registry:        s.app.Registry,
		GameController:  s.app.GameController,
		ConnectionStats: brokenConnectionStats{},
	})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	s.Equal(http.StatusInternalServerError, rr.Code)
	s.Equal("application/json", rr.Header().Get("Content-Type"))

	var body apierr.ErrorResponse
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &body))
	s.Equal(apierr.CodeInternalError, body.Error.Code)
}
