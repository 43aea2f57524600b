package httpserver

import (
	"net/http"

	"moviehub/errs"

	"github.com/labstack/echo/v4"
)

func (s *Server) RegisterMovieRoutes(g *echo.Group) {
	g.GET("/movies", s.handleListMovies)
	g.GET("/movies/:id", s.handleGetMovie)
	g.POST("/movies", s.handleCreateMovie)
	g.PUT("/movies/:id", s.handleUpdateMovie)
	g.DELETE("/movies/:id", s.handleDeleteMovie)
	g.GET("/my-movies/:email", s.handleListMyMovies)
	g.GET("/top-rated", s.handleTopRated)
	g.GET("/recent", s.handleRecent)
	g.GET("/stats/count", s.handleCount)
}

func (s *Server) movieServiceReady() error {
	if s.MovieService == nil {
		return errs.Errorf(errs.ENOTIMPLEMENTED, "movie service not configured")
	}
	return nil
}

// handleListMovies godoc
// @Summary List Movies
// @Description List movies newest first, optionally filtered by genre and rating range
// @Tags movies
// @Produce json
// @Param genre query []string false "Genre tags, repeated or comma separated"
// @Param minRating query number false "Inclusive lower rating bound"
// @Param maxRating query number false "Inclusive upper rating bound"
// @Success 200 {array} movie.Movie
// @Failure 500 {object} ErrorResponse
// @Router /movies [get]
func (s *Server) handleListMovies(c echo.Context) error {
	if err := s.movieServiceReady(); err != nil {
		return err
	}

	movies, err := s.MovieService.List(c.Request().Context(), parseFilter(c))
	if err != nil {
		return err
	}
	return writeMovies(c, movies)
}

// handleGetMovie godoc
// @Summary Get Movie
// @Tags movies
// @Produce json
// @Param id path string true "Movie ID"
// @Success 200 {object} movie.Movie
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /movies/{id} [get]
func (s *Server) handleGetMovie(c echo.Context) error {
	if err := s.movieServiceReady(); err != nil {
		return err
	}

	m, err := s.MovieService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

// handleListMyMovies godoc
// @Summary List Movies By Owner
// @Tags movies
// @Produce json
// @Param email path string true "Owner email"
// @Success 200 {array} movie.Movie
// @Router /my-movies/{email} [get]
func (s *Server) handleListMyMovies(c echo.Context) error {
	if err := s.movieServiceReady(); err != nil {
		return err
	}

	movies, err := s.MovieService.ListByOwner(c.Request().Context(), c.Param("email"))
	if err != nil {
		return err
	}
	return writeMovies(c, movies)
}

// handleCreateMovie godoc
// @Summary Create Movie
// @Description Store a new movie. title and addedBy are required, any other field is kept as sent.
// @Tags movies
// @Accept json
// @Produce json
// @Param request body CreateMovieRequest true "Movie fields"
// @Success 201 {object} createdResponse
// @Failure 400 {object} ErrorResponse
// @Router /movies [post]
func (s *Server) handleCreateMovie(c echo.Context) error {
	if err := s.movieServiceReady(); err != nil {
		return err
	}

	fields, err := bindFields(c)
	if err != nil {
		return err
	}
	if err := c.Validate(newCreateMovieRequest(fields)); err != nil {
		return err
	}

	id, err := s.MovieService.Create(c.Request().Context(), fields)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, createdResponse{
		Success:    true,
		InsertedID: id,
	})
}

// handleUpdateMovie godoc
// @Summary Update Movie
// @Description Merge the body into the movie. Only the movie's creator may update it.
// @Tags movies
// @Accept json
// @Produce json
// @Param id path string true "Movie ID"
// @Param X-User-Email header string false "Caller email"
// @Success 200 {object} successResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /movies/{id} [put]
func (s *Server) handleUpdateMovie(c echo.Context) error {
	if err := s.movieServiceReady(); err != nil {
		return err
	}

	fields, err := bindFields(c)
	if err != nil {
		return err
	}

	err = s.MovieService.Update(c.Request().Context(), c.Param("id"), callerEmail(c, fields), fields)
	if err != nil {
		return err
	}
	return writeSuccess(c, "Movie updated successfully")
}

// handleDeleteMovie godoc
// @Summary Delete Movie
// @Description Only the movie's creator may delete it. The caller email is read from the X-User-Email header, the email query parameter or the callerEmail body field.
// @Tags movies
// @Produce json
// @Param id path string true "Movie ID"
// @Param X-User-Email header string false "Caller email"
// @Param email query string false "Caller email"
// @Success 200 {object} successResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /movies/{id} [delete]
func (s *Server) handleDeleteMovie(c echo.Context) error {
	if err := s.movieServiceReady(); err != nil {
		return err
	}

	// The body is optional here, an unreadable one just carries no caller.
	fields, _ := bindFields(c)

	err := s.MovieService.Delete(c.Request().Context(), c.Param("id"), callerEmail(c, fields))
	if err != nil {
		return err
	}
	return writeSuccess(c, "Movie deleted successfully")
}

// handleTopRated godoc
// @Summary Top Rated Movies
// @Tags movies
// @Produce json
// @Success 200 {array} movie.Movie
// @Router /top-rated [get]
func (s *Server) handleTopRated(c echo.Context) error {
	if err := s.movieServiceReady(); err != nil {
		return err
	}

	movies, err := s.MovieService.TopRated(c.Request().Context())
	if err != nil {
		return err
	}
	return writeMovies(c, movies)
}

// handleRecent godoc
// @Summary Recently Added Movies
// @Tags movies
// @Produce json
// @Success 200 {array} movie.Movie
// @Router /recent [get]
func (s *Server) handleRecent(c echo.Context) error {
	if err := s.movieServiceReady(); err != nil {
		return err
	}

	movies, err := s.MovieService.Recent(c.Request().Context())
	if err != nil {
		return err
	}
	return writeMovies(c, movies)
}

// handleCount godoc
// @Summary Count Movies
// @Tags movies
// @Produce json
// @Success 200 {object} countResponse
// @Router /stats/count [get]
func (s *Server) handleCount(c echo.Context) error {
	if err := s.movieServiceReady(); err != nil {
		return err
	}

	n, err := s.MovieService.Count(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, countResponse{TotalMovies: n})
}
