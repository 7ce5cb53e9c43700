// Package api exposes the forecast loaders over HTTP.
package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/meterhub/forecastd/internal/forecast"
	"github.com/meterhub/forecastd/internal/loader"
	"github.com/meterhub/forecastd/internal/models"
	"github.com/meterhub/forecastd/internal/states"
)

// Server bundles the loaders and the state store behind the HTTP
// handlers.
type Server struct {
	store      states.Store
	dispatcher *forecast.Dispatcher
	forecasts  *loader.ForecastLoader
	sensors    *loader.SensorLoader
	combined   *loader.ForecastAndSensorLoader
}

func NewServer(
	store states.Store,
	dispatcher *forecast.Dispatcher,
	forecasts *loader.ForecastLoader,
	sensors *loader.SensorLoader,
	combined *loader.ForecastAndSensorLoader,
) *Server {
	return &Server{
		store:      store,
		dispatcher: dispatcher,
		forecasts:  forecasts,
		sensors:    sensors,
		combined:   combined,
	}
}

// loadRequest is the common body for load and availability endpoints.
// Value is left untyped: each loader validates its own input shape.
type loadRequest struct {
	Value         any     `json:"value"`
	ForecastTimes []int64 `json:"forecast_times"`
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func (s *Server) RegisterRoutes(app *fiber.App) {
	v1 := app.Group("/api/v1")

	v1.Post("/states", s.handleUpsertState)
	v1.Get("/states/:id/format", s.handleDetectFormat)
	v1.Get("/states/:id/forecast", s.handleParseForecast)

	v1.Post("/load/forecast", s.handleLoadForecast)
	v1.Post("/load/sensor", s.handleLoadSensor)
	v1.Post("/load/forecast-and-sensor", s.handleLoadForecastAndSensor)

	v1.Post("/available/forecast", s.handleAvailable(func(c *fiber.Ctx, req loadRequest) bool {
		return s.forecasts.Available(c.Context(), req.Value, req.ForecastTimes)
	}))
	v1.Post("/available/sensor", s.handleAvailable(func(c *fiber.Ctx, req loadRequest) bool {
		return s.sensors.Available(c.Context(), req.Value, req.ForecastTimes)
	}))
	v1.Post("/available/forecast-and-sensor", s.handleAvailable(func(c *fiber.Ctx, req loadRequest) bool {
		return s.combined.Available(c.Context(), req.Value, req.ForecastTimes)
	}))
}

func (s *Server) handleUpsertState(c *fiber.Ctx) error {
	var state models.State
	if err := c.BodyParser(&state); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid state payload")
	}
	if state.EntityID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "entity_id is required")
	}

	if err := s.store.Upsert(c.Context(), &state); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to store state")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"entity_id": state.EntityID})
}

func (s *Server) handleDetectFormat(c *fiber.Ctx) error {
	state, err := s.getState(c)
	if err != nil {
		return err
	}

	domain := s.dispatcher.DetectFormat(state)
	if domain == "" {
		return c.JSON(fiber.Map{"entity_id": state.EntityID, "format": nil})
	}
	return c.JSON(fiber.Map{"entity_id": state.EntityID, "format": domain})
}

func (s *Server) handleParseForecast(c *fiber.Ctx) error {
	state, err := s.getState(c)
	if err != nil {
		return err
	}

	series := s.dispatcher.ParseForecastData(state)
	if series == nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "no recognizable forecast payload")
	}

	unit, deviceClass, err := s.dispatcher.ForecastUnits(state)
	if err != nil {
		return loaderError(err)
	}

	return c.JSON(fiber.Map{
		"entity_id":    state.EntityID,
		"unit":         unit,
		"device_class": deviceClass,
		"series":       series,
	})
}

func (s *Server) handleLoadForecast(c *fiber.Ctx) error {
	req, err := parseLoadRequest(c)
	if err != nil {
		return err
	}

	values, err := s.forecasts.Load(c.Context(), req.Value, req.ForecastTimes)
	if err != nil {
		return loaderError(err)
	}
	return c.JSON(fiber.Map{"values": values})
}

func (s *Server) handleLoadSensor(c *fiber.Ctx) error {
	req, err := parseLoadRequest(c)
	if err != nil {
		return err
	}

	value, err := s.sensors.Load(c.Context(), req.Value, req.ForecastTimes)
	if err != nil {
		return loaderError(err)
	}
	return c.JSON(fiber.Map{"value": value})
}

func (s *Server) handleLoadForecastAndSensor(c *fiber.Ctx) error {
	req, err := parseLoadRequest(c)
	if err != nil {
		return err
	}

	values, err := s.combined.Load(c.Context(), req.Value, req.ForecastTimes)
	if err != nil {
		return loaderError(err)
	}
	return c.JSON(fiber.Map{"values": values})
}

func (s *Server) handleAvailable(check func(*fiber.Ctx, loadRequest) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := parseLoadRequest(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"available": check(c, req)})
	}
}

func (s *Server) getState(c *fiber.Ctx) (*models.State, error) {
	entityID := c.Params("id")
	state, err := s.store.Get(c.Context(), entityID)
	if err != nil {
		if errors.Is(err, states.ErrNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "sensor "+entityID+" not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "failed to read state")
	}
	return state, nil
}

func parseLoadRequest(c *fiber.Ctx) (loadRequest, error) {
	var req loadRequest
	if err := c.BodyParser(&req); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return req, nil
}

// loaderError maps the loader error taxonomy onto HTTP statuses: shape
// errors are the caller's fault (400), missing sensors are 404, and
// data that exists but cannot be used is 422.
func loaderError(err error) error {
	switch {
	case errors.Is(err, loader.ErrInvalidValue):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, loader.ErrSensorNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, loader.ErrNoForecastData), errors.Is(err, forecast.ErrUnknownFormat):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
