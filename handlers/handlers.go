package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"lockscreen-todo/domain"
)

const idempotencyHeader = "Idempotency-Key"

// Register wires up all API routes on the provided Echo instance. A nil auth
// serves the routes unauthenticated; a nil deduper ignores Idempotency-Key.
func Register(e *echo.Echo, todos TodoService, auth Authenticator, dedup Deduper, logger *log.Logger) {
	g := e.Group("/v1/todos", requireAuth(auth))
	g.GET("", getTodos(todos))
	g.POST("", postTodo(todos, dedup, logger))
	g.PATCH("/:id/toggle", toggleTodo(todos))
	g.PUT("/:id", putTodo(todos))
	g.DELETE("/:id", deleteTodo(todos))
	e.GET("/health", health())
}

func requireAuth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if auth == nil {
			return next
		}
		return func(c echo.Context) error {
			if err := auth.Verify(c.Request().Header.Get("Authorization")); err != nil {
				return c.String(http.StatusUnauthorized, err.Error())
			}
			return next(c)
		}
	}
}

func health() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, healthResponse{Status: "ok"})
	}
}

func getTodos(todos TodoService) echo.HandlerFunc {
	return func(c echo.Context) error {
		list := todos.List()
		return c.JSON(http.StatusOK, listResponse{Version: list.Version, Todos: list.Items})
	}
}

func postTodo(todos TodoService, dedup Deduper, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		lr := io.LimitReader(c.Request().Body, postTodoMaxSize)
		dec := sonic.ConfigStd.NewDecoder(lr)
		dec.DisallowUnknownFields()

		var req postTodoRequest
		if err := dec.Decode(&req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if strings.TrimSpace(req.Title) == "" {
			return c.String(http.StatusBadRequest, domain.ErrEmptyTitle.Error())
		}

		idemKey := strings.TrimSpace(c.Request().Header.Get(idempotencyHeader))
		if dedup != nil && idemKey != "" {
			added, err := dedup.Add(ctx, idemKey)
			if err != nil {
				logger.WithError(err).Warn("idempotency check failed")
			} else if !added {
				return c.String(http.StatusConflict, "duplicate request")
			}
		}

		item, ok := todos.AddTodo(ctx, req.Title)
		if !ok {
			if dedup != nil && idemKey != "" {
				if err := dedup.Remove(ctx, idemKey); err != nil {
					logger.WithError(err).Warn("failed to release idempotency key")
				}
			}
			// the title was validated above, so the id generator gave up
			return c.String(http.StatusInternalServerError, "could not allocate todo id")
		}
		return c.JSON(http.StatusCreated, item)
	}
}

func toggleTodo(todos TodoService) echo.HandlerFunc {
	return func(c echo.Context) error {
		item, ok := todos.ToggleTodo(c.Request().Context(), c.Param("id"))
		if !ok {
			return c.String(http.StatusNotFound, domain.ErrTodoNotFound.Error())
		}
		return c.JSON(http.StatusOK, item)
	}
}

func putTodo(todos TodoService) echo.HandlerFunc {
	return func(c echo.Context) error {
		lr := io.LimitReader(c.Request().Body, postTodoMaxSize)
		dec := sonic.ConfigStd.NewDecoder(lr)
		dec.DisallowUnknownFields()

		var req putTodoRequest
		if err := dec.Decode(&req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		item, err := todos.UpdateTodo(c.Request().Context(), c.Param("id"), req.Title, req.Completed)
		switch {
		case errors.Is(err, domain.ErrTodoNotFound):
			return c.String(http.StatusNotFound, err.Error())
		case errors.Is(err, domain.ErrEmptyTitle):
			return c.String(http.StatusBadRequest, err.Error())
		case err != nil:
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, item)
	}
}

func deleteTodo(todos TodoService) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !todos.RemoveTodo(c.Request().Context(), c.Param("id")) {
			return c.String(http.StatusNotFound, domain.ErrTodoNotFound.Error())
		}
		return c.NoContent(http.StatusNoContent)
	}
}
