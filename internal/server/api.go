package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/runoshun/kanban-sync/internal/domain"
	"github.com/runoshun/kanban-sync/internal/protocol"
	"github.com/runoshun/kanban-sync/internal/usecase"
)

// statusRequest is the body of column create and update calls.
type statusRequest struct {
	Position *int32 `json:"position,omitempty"`
	Name     string `json:"name"`
}

func (s *Server) register() {
	s.echo.GET("/ws", s.handleWS)
	s.echo.GET("/healthz", s.handleHealth)

	api := s.echo.Group("/api")
	api.GET("/issues", s.handleListIssues)
	api.GET("/statuses", s.handleListStatuses)
	api.POST("/statuses", s.handleCreateStatus)
	api.PUT("/statuses/:id", s.handleUpdateStatus)
	api.DELETE("/statuses/:id", s.handleDeleteStatus)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"peers":  s.hub.Len(),
	})
}

func (s *Server) handleListIssues(c echo.Context) error {
	in := usecase.ListIssuesInput{Query: c.QueryParam("q")}
	if v := c.QueryParam("status"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		in.StatusID = domain.IssueStatusID(n)
	}
	if v := c.QueryParam("user"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid user")
		}
		in.UserID = domain.UserID(n)
	}

	out, err := s.listIssues.Execute(c.Request().Context(), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, out.Issues)
}

func (s *Server) handleListStatuses(c echo.Context) error {
	out, err := s.listStatuses.Execute(c.Request().Context(), usecase.ListStatusesInput{})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, out.Statuses)
}

func (s *Server) handleCreateStatus(c echo.Context) error {
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	out, err := s.createStatus.Execute(c.Request().Context(), usecase.CreateStatusInput{
		Name:     req.Name,
		Position: req.Position,
	})
	if err != nil {
		return httpError(err)
	}
	s.broadcast(protocol.IssueStatusCreated{Status: out.Status})
	return c.JSON(http.StatusCreated, out.Status)
}

func (s *Server) handleUpdateStatus(c echo.Context) error {
	id, err := statusParam(c)
	if err != nil {
		return err
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	out, err := s.updateStatus.Execute(c.Request().Context(), usecase.UpdateStatusInput{
		ID:       id,
		Name:     req.Name,
		Position: req.Position,
	})
	if err != nil {
		return httpError(err)
	}
	s.broadcast(protocol.IssueStatusUpdated{Status: out.Status})
	return c.JSON(http.StatusOK, out.Status)
}

func (s *Server) handleDeleteStatus(c echo.Context) error {
	id, err := statusParam(c)
	if err != nil {
		return err
	}
	if _, err := s.deleteStatus.Execute(c.Request().Context(), usecase.DeleteStatusInput{ID: id}); err != nil {
		return httpError(err)
	}
	s.broadcast(protocol.IssueStatusDeleted{ID: id})
	return c.NoContent(http.StatusNoContent)
}

func statusParam(c echo.Context) (domain.IssueStatusID, error) {
	n, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid status id")
	}
	return domain.IssueStatusID(n), nil
}

// httpError maps use case errors to HTTP status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, domain.ErrStatusNotFound), errors.Is(err, domain.ErrIssueNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrEmptyName):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrStatusNotEmpty):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotInitialized):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
